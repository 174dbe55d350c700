package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrEntryNotFound is returned for unknown outbox entries
var ErrEntryNotFound = shared.NewDomainError("ENTRY_NOT_FOUND", "Outbox entry not found")

// OutboxService lets a super admin inspect the event outbox and replay dead letters
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, logger: logger}
}

// OutboxEntryResponse represents an outbox entry in API responses
type OutboxEntryResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	EventID        uuid.UUID  `json:"event_id"`
	EventType      string     `json:"event_type"`
	AggregateID    uuid.UUID  `json:"aggregate_id"`
	AggregateType  string     `json:"aggregate_type"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
	LastError      string     `json:"last_error,omitempty"`
	NextRetryAt    *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// OutboxFilter pages dead letter listings
type OutboxFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsResponse counts outbox entries per status
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// DeadEntries lists entries that ran out of retries
func (s *OutboxService) DeadEntries(ctx context.Context, actor identity.Actor, filter OutboxFilter) (*shared.Paginated[OutboxEntryResponse], error) {
	if !actor.IsSuperAdmin() {
		return nil, shared.ErrForbidden
	}
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	entries, total, err := s.repo.FindDead(ctx, f.Page, f.PageSize)
	if err != nil {
		s.logger.Error("Failed to find dead letter entries", zap.Error(err))
		return nil, err
	}
	items := make([]OutboxEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = toOutboxEntryResponse(entry)
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Retry puts a dead letter back in the queue of the outbox processor
func (s *OutboxService) Retry(ctx context.Context, actor identity.Actor, id uuid.UUID) (*OutboxEntryResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, shared.ErrForbidden
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType))
	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// RetryAll resets every dead letter and returns how many were reset
func (s *OutboxService) RetryAll(ctx context.Context, actor identity.Actor) (int64, error) {
	if !actor.IsSuperAdmin() {
		return 0, shared.ErrForbidden
	}
	var count int64
	for {
		// reset entries leave the dead set, so the first page is always the next batch
		entries, _, err := s.repo.FindDead(ctx, 1, shared.MaxPageSize)
		if err != nil {
			return count, err
		}
		reset := 0
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("Failed to update outbox entry", zap.String("id", entry.ID.String()), zap.Error(err))
				continue
			}
			reset++
		}
		count += int64(reset)
		if len(entries) < shared.MaxPageSize || reset == 0 {
			break
		}
	}
	s.logger.Info("Retried dead letter entries", zap.Int64("count", count))
	return count, nil
}

// Stats counts outbox entries per status
func (s *OutboxService) Stats(ctx context.Context, actor identity.Actor) (*OutboxStatsResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, shared.ErrForbidden
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, count := range counts {
		total += count
	}
	return &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryResponse(entry *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:             entry.ID,
		OrganizationID: entry.OrganizationID,
		EventID:        entry.EventID,
		EventType:      entry.EventType,
		AggregateID:    entry.AggregateID,
		AggregateType:  entry.AggregateType,
		Status:         string(entry.Status),
		RetryCount:     entry.RetryCount,
		MaxRetries:     entry.MaxRetries,
		LastError:      entry.LastError,
		NextRetryAt:    entry.NextRetryAt,
		ProcessedAt:    entry.ProcessedAt,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
}
