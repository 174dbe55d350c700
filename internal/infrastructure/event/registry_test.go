package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed registration", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newRecordingHandler()
		registry.Register(handler, "TicketIssued", "TicketCalled")

		assert.Len(t, registry.GetHandlers("TicketIssued"), 1)
		assert.Len(t, registry.GetHandlers("TicketCalled"), 1)
		assert.Empty(t, registry.GetHandlers("TicketServed"))
		assert.Equal(t, []string{"TicketCalled", "TicketIssued"}, registry.EventTypes())
	})

	t.Run("wildcard handlers follow typed handlers", func(t *testing.T) {
		registry := NewHandlerRegistry()
		typed := newRecordingHandler()
		wildcard := newRecordingHandler()
		registry.Register(wildcard)
		registry.Register(typed, "TicketIssued")

		handlers := registry.GetHandlers("TicketIssued")
		assert.Len(t, handlers, 2)
		assert.Same(t, typed, handlers[0])
		assert.Same(t, wildcard, handlers[1])
		assert.Len(t, registry.GetHandlers("PaymentCompleted"), 1)
	})

	t.Run("unregister removes handler everywhere", func(t *testing.T) {
		registry := NewHandlerRegistry()
		removed := newRecordingHandler()
		kept := newRecordingHandler()
		registry.Register(removed, "TicketIssued", "TicketCalled")
		registry.Register(kept, "TicketIssued")
		registry.Register(removed)

		registry.Unregister(removed)

		assert.Len(t, registry.GetHandlers("TicketIssued"), 1)
		assert.Empty(t, registry.GetHandlers("TicketCalled"))
		assert.Equal(t, []string{"TicketIssued"}, registry.EventTypes())
	})
}
