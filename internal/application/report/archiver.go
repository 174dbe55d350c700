package report

import (
	"context"
	"fmt"
	"time"

	"github.com/smartqueue/backend/internal/domain/queue"
	"go.uber.org/zap"
)

// ObjectStorage stores report files
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Archiver uploads the daily report of each queue before its counters are reset
type Archiver struct {
	reports *ReportService
	storage ObjectStorage
	logger  *zap.Logger
}

// NewArchiver creates a new Archiver
func NewArchiver(reports *ReportService, storage ObjectStorage, logger *zap.Logger) *Archiver {
	return &Archiver{reports: reports, storage: storage, logger: logger}
}

// ArchiveKey is the object key of the report of a queue for a day
func ArchiveKey(q *queue.Queue, day time.Time) string {
	return fmt.Sprintf("reports/%s/%s/%s.csv", q.OrganizationID, q.ID, day.Format(DateLayout))
}

// Archive renders and uploads the report of q for day
func (a *Archiver) Archive(ctx context.Context, q *queue.Queue, day time.Time) error {
	r, err := a.reports.Render(ctx, q, day)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	key := ArchiveKey(q, day)
	if err := a.storage.Upload(ctx, key, r.Data, ContentType); err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	a.logger.Info("Daily report archived",
		zap.String("queue_id", q.ID.String()),
		zap.String("key", key),
		zap.Int("tickets", r.Summary.Issued))
	return nil
}
