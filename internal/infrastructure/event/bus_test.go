package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, orgID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), orgID),
		Data:            "payload",
	}
}

// recordingHandler remembers every event it receives
type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("delivers to subscribed handler", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler("TicketIssued")
		bus.Subscribe(handler)

		event := newTestEvent("TicketIssued", uuid.New())
		require.NoError(t, bus.Publish(context.Background(), event))
		require.Equal(t, 1, handler.count())
		assert.Equal(t, event, handler.handled[0])
	})

	t.Run("delivers every event of a batch", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler("TicketIssued")
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(),
			newTestEvent("TicketIssued", uuid.New()),
			newTestEvent("TicketIssued", uuid.New()),
		)
		require.NoError(t, err)
		assert.Equal(t, 2, handler.count())
	})

	t.Run("explicit event types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler("TicketIssued")
		bus.Subscribe(handler, "TicketCalled")

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("TicketIssued", uuid.New())))
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("TicketCalled", uuid.New())))
		assert.Equal(t, 1, handler.count())
	})

	t.Run("handler without types receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler()
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("Anything", uuid.New())))
		assert.Equal(t, 1, handler.count())
	})

	t.Run("failing handler does not stop the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := newRecordingHandler("PaymentCompleted")
		failing.err = errors.New("sms gateway down")
		healthy := newRecordingHandler("PaymentCompleted")
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		err := bus.Publish(context.Background(), newTestEvent("PaymentCompleted", uuid.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sms gateway down")
		assert.Equal(t, 1, failing.count())
		assert.Equal(t, 1, healthy.count())
	})

	t.Run("panicking handler is reported as an error", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler("TicketCalled")
		handler.panicWith = "boom"
		bus.Subscribe(handler)

		err := bus.Publish(context.Background(), newTestEvent("TicketCalled", uuid.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("no matching handler", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := newRecordingHandler("TicketServed")
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newTestEvent("TicketIssued", uuid.New())))
		assert.Zero(t, handler.count())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler("TicketIssued")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TicketIssued", uuid.New())))
	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TicketIssued", uuid.New())))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
