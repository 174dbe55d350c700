package event

import (
	"context"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// OutboxRecorder implements shared.EventRecorder by writing events to the outbox.
// The repository joins the transaction carried in ctx, so entries commit or
// roll back together with the aggregate change.
type OutboxRecorder struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
	maxRetries int
}

// RecorderOption configures an OutboxRecorder
type RecorderOption func(*OutboxRecorder)

// WithMaxRetries sets how many delivery attempts new entries get before they are dead
func WithMaxRetries(n int) RecorderOption {
	return func(r *OutboxRecorder) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// NewOutboxRecorder creates a new OutboxRecorder
func NewOutboxRecorder(repo shared.OutboxRepository, serializer *EventSerializer, opts ...RecorderOption) *OutboxRecorder {
	r := &OutboxRecorder{repo: repo, serializer: serializer, maxRetries: shared.DefaultMaxRetries}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record serializes events and stores them as pending outbox entries
func (r *OutboxRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := r.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entry := shared.NewOutboxEntry(event.OrganizationID(), event, payload)
		entry.MaxRetries = r.maxRetries
		entries = append(entries, entry)
	}
	return r.repo.Save(ctx, entries...)
}

var _ shared.EventRecorder = (*OutboxRecorder)(nil)
