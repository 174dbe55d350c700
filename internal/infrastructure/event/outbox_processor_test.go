package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryOutbox is an in-memory shared.OutboxRepository
type memoryOutbox struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry
	saveErr error
	deleted int64
}

func newMemoryOutbox() *memoryOutbox {
	return &memoryOutbox{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutbox) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutbox) find(match func(*shared.OutboxEntry) bool, limit int) []*shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shared.OutboxEntry
	for _, e := range r.entries {
		if match(e) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out
}

func (r *memoryOutbox) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(func(e *shared.OutboxEntry) bool { return e.Status == shared.OutboxStatusPending }, limit), nil
}

func (r *memoryOutbox) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	return r.find(func(e *shared.OutboxEntry) bool {
		return e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && !e.NextRetryAt.After(before)
	}, limit), nil
}

func (r *memoryOutbox) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := r.find(func(e *shared.OutboxEntry) bool { return e.IsDead() }, pageSize)
	return dead, int64(len(dead)), nil
}

func (r *memoryOutbox) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryOutbox) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shared.OutboxEntry
	for _, id := range ids {
		if e, ok := r.entries[id]; ok && e.MarkProcessing() == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryOutbox) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutbox) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return r.deleted, nil
}

func (r *memoryOutbox) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (r *memoryOutbox) status(id uuid.UUID) shared.OutboxStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id].Status
}

func newProcessorFixture(t *testing.T) (*memoryOutbox, *InMemoryEventBus, *EventSerializer, *OutboxRecorder) {
	t.Helper()
	repo := newMemoryOutbox()
	bus := NewInMemoryEventBus(zap.NewNop())
	serializer := NewEventSerializer()
	serializer.Register("TicketIssued", &testEvent{})
	return repo, bus, serializer, NewOutboxRecorder(repo, serializer)
}

func TestOutboxProcessor_ProcessOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes pending entries and marks them sent", func(t *testing.T) {
		repo, bus, serializer, recorder := newProcessorFixture(t)
		handler := newRecordingHandler("TicketIssued")
		bus.Subscribe(handler)

		event := newTestEvent("TicketIssued", uuid.New())
		require.NoError(t, recorder.Record(ctx, event))

		processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		assert.Equal(t, 1, processor.ProcessOnce(ctx))
		assert.Equal(t, 1, handler.count())
		assert.Equal(t, event.EventID(), handler.handled[0].EventID())

		entries, _ := repo.FindPending(ctx, 10)
		assert.Empty(t, entries)
	})

	t.Run("handler failure schedules a retry", func(t *testing.T) {
		repo, bus, serializer, recorder := newProcessorFixture(t)
		handler := newRecordingHandler("TicketIssued")
		handler.err = errors.New("sms gateway down")
		bus.Subscribe(handler)

		event := newTestEvent("TicketIssued", uuid.New())
		require.NoError(t, recorder.Record(ctx, event))
		entries, _ := repo.FindPending(ctx, 1)
		id := entries[0].ID

		processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		assert.Equal(t, 0, processor.ProcessOnce(ctx))
		assert.Equal(t, shared.OutboxStatusFailed, repo.status(id))

		stored, _ := repo.FindByID(ctx, id)
		assert.Equal(t, 1, stored.RetryCount)
		assert.Contains(t, stored.LastError, "sms gateway down")
		require.NotNil(t, stored.NextRetryAt)
	})

	t.Run("retry succeeds once the backoff elapsed", func(t *testing.T) {
		repo, bus, serializer, recorder := newProcessorFixture(t)
		handler := newRecordingHandler("TicketIssued")
		bus.Subscribe(handler)

		require.NoError(t, recorder.Record(ctx, newTestEvent("TicketIssued", uuid.New())))
		entries, _ := repo.FindPending(ctx, 1)
		entry := entries[0]
		entry.MarkFailed("earlier failure")
		past := time.Now().Add(-time.Second)
		entry.NextRetryAt = &past

		processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		assert.Equal(t, 1, processor.ProcessOnce(ctx))
		assert.Equal(t, shared.OutboxStatusSent, repo.status(entry.ID))
	})

	t.Run("unknown event type fails the entry", func(t *testing.T) {
		repo, bus, serializer, _ := newProcessorFixture(t)
		event := newTestEvent("Unregistered", uuid.New())
		entry := shared.NewOutboxEntry(event.OrganizationID(), event, []byte(`{}`))
		require.NoError(t, repo.Save(ctx, entry))

		processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		processor.ProcessOnce(ctx)

		stored, _ := repo.FindByID(ctx, entry.ID)
		assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
		assert.Contains(t, stored.LastError, "unknown event type")
	})

	t.Run("last attempt moves the entry to dead letter", func(t *testing.T) {
		repo, bus, serializer, _ := newProcessorFixture(t)
		event := newTestEvent("Unregistered", uuid.New())
		entry := shared.NewOutboxEntry(event.OrganizationID(), event, []byte(`{}`))
		entry.MaxRetries = 1
		require.NoError(t, repo.Save(ctx, entry))

		processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		processor.ProcessOnce(ctx)

		assert.Equal(t, shared.OutboxStatusDead, repo.status(entry.ID))
	})
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	repo, bus, serializer, recorder := newProcessorFixture(t)
	handler := newRecordingHandler("TicketIssued")
	bus.Subscribe(handler)
	require.NoError(t, recorder.Record(context.Background(), newTestEvent("TicketIssued", uuid.New())))

	config := DefaultOutboxProcessorConfig()
	config.PollInterval = 20 * time.Millisecond
	config.CleanupInterval = 20 * time.Millisecond
	processor := NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop())

	require.NoError(t, processor.Start(context.Background()))
	assert.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, processor.Stop(stopCtx))
}

func TestDefaultOutboxProcessorConfig(t *testing.T) {
	config := DefaultOutboxProcessorConfig()

	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 2*time.Second, config.PollInterval)
	assert.True(t, config.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, config.CleanupRetention)
	assert.Equal(t, time.Hour, config.CleanupInterval)
}
