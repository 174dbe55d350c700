package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/stretchr/testify/assert"
)

type ticketSpec struct {
	name        string
	priority    organization.Priority
	createdMins int
	apptMins    *int
}

func buildTickets(base time.Time, specs []ticketSpec) []*Ticket {
	tickets := make([]*Ticket, len(specs))
	for i, s := range specs {
		t := &Ticket{
			Number:   s.name,
			Priority: s.priority,
			Status:   TicketWaiting,
		}
		t.ID = uuid.New()
		t.CreatedAt = base.Add(time.Duration(s.createdMins) * time.Minute)
		if s.apptMins != nil {
			apptID := uuid.New()
			at := base.Add(time.Duration(*s.apptMins) * time.Minute)
			t.AppointmentID = &apptID
			t.AppointmentTime = &at
		}
		tickets[i] = t
	}
	return tickets
}

func numbers(tickets []*Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.Number
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestSortForDispatch(t *testing.T) {
	base := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	specs := []ticketSpec{
		{name: "A", priority: organization.PriorityLow, createdMins: 0},
		{name: "B", priority: organization.PriorityUrgent, createdMins: 5},
		{name: "C", priority: organization.PriorityMedium, createdMins: 1, apptMins: intPtr(60)},
		{name: "D", priority: organization.PriorityUrgent, createdMins: 2},
		{name: "E", priority: organization.PriorityLow, createdMins: 3, apptMins: intPtr(30)},
	}

	tests := []struct {
		strategy Strategy
		want     []string
	}{
		{StrategyFIFO, []string{"A", "C", "D", "E", "B"}},
		{StrategyPriority, []string{"D", "B", "C", "A", "E"}},
		{StrategyAppointmentFirst, []string{"E", "C", "A", "D", "B"}},
		{StrategyMixed, []string{"D", "B", "C", "E", "A"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			tickets := buildTickets(base, specs)
			SortForDispatch(tt.strategy, tickets)
			assert.Equal(t, tt.want, numbers(tickets))

			next := NextTicket(tt.strategy, buildTickets(base, specs))
			assert.Equal(t, tt.want[0], next.Number)
		})
	}
}

func TestNextTicket(t *testing.T) {
	base := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	t.Run("ignores tickets that are not waiting", func(t *testing.T) {
		tickets := buildTickets(base, []ticketSpec{
			{name: "A", priority: organization.PriorityMedium, createdMins: 0},
			{name: "B", priority: organization.PriorityMedium, createdMins: 1},
		})
		tickets[0].Status = TicketCalled
		assert.Equal(t, "B", NextTicket(StrategyFIFO, tickets).Number)
	})

	t.Run("nil when nobody waits", func(t *testing.T) {
		assert.Nil(t, NextTicket(StrategyPriority, nil))
	})

	t.Run("unknown strategy falls back to fifo", func(t *testing.T) {
		assert.Equal(t, StrategyFIFO.Ordering(), Strategy("other").Ordering())
	})
}
