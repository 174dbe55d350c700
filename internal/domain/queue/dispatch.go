package queue

import (
	"bytes"
	"slices"
)

// Strategy decides in which order waiting tickets are called
type Strategy string

const (
	StrategyFIFO             Strategy = "fifo"
	StrategyPriority         Strategy = "priority"
	StrategyAppointmentFirst Strategy = "appointment_first"
	StrategyMixed            Strategy = "mixed"
)

// IsValid checks if the strategy is valid
func (s Strategy) IsValid() bool {
	_, ok := dispatchOrder[s]
	return ok
}

// SortField is a ticket attribute dispatch can order by
type SortField string

const (
	SortPriorityRank    SortField = "priority_rank"
	SortHasAppointment  SortField = "has_appointment"
	SortAppointmentTime SortField = "appointment_time"
	SortCreatedAt       SortField = "created_at"
	SortID              SortField = "id"
)

// SortKey is one term of a dispatch ordering
type SortKey struct {
	Field SortField
	Desc  bool
}

var (
	keyPriority        = SortKey{Field: SortPriorityRank, Desc: true}
	keyHasAppointment  = SortKey{Field: SortHasAppointment, Desc: true}
	keyAppointmentTime = SortKey{Field: SortAppointmentTime}
	keyCreatedAt       = SortKey{Field: SortCreatedAt}
	keyID              = SortKey{Field: SortID}
)

// dispatchOrder is the single source of truth for strategy ordering.
// The repository turns it into ORDER BY; Compare evaluates it in memory.
var dispatchOrder = map[Strategy][]SortKey{
	StrategyFIFO:             {keyCreatedAt, keyID},
	StrategyPriority:         {keyPriority, keyCreatedAt, keyID},
	StrategyAppointmentFirst: {keyHasAppointment, keyAppointmentTime, keyCreatedAt, keyID},
	StrategyMixed:            {keyPriority, keyHasAppointment, keyAppointmentTime, keyCreatedAt, keyID},
}

// Ordering returns the sort keys of the strategy, falling back to FIFO
func (s Strategy) Ordering() []SortKey {
	if keys, ok := dispatchOrder[s]; ok {
		return keys
	}
	return dispatchOrder[StrategyFIFO]
}

// Compare orders two tickets by keys; negative means a is called before b.
// Tickets without an appointment time sort after those with one.
func Compare(keys []SortKey, a, b *Ticket) int {
	for _, k := range keys {
		c := compareField(k.Field, a, b)
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareField(field SortField, a, b *Ticket) int {
	switch field {
	case SortPriorityRank:
		return a.Priority.Rank() - b.Priority.Rank()
	case SortHasAppointment:
		return boolRank(a.HasAppointment()) - boolRank(b.HasAppointment())
	case SortAppointmentTime:
		switch {
		case a.AppointmentTime == nil && b.AppointmentTime == nil:
			return 0
		case a.AppointmentTime == nil:
			return 1
		case b.AppointmentTime == nil:
			return -1
		}
		return a.AppointmentTime.Compare(*b.AppointmentTime)
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortID:
		return bytes.Compare(a.ID[:], b.ID[:])
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SortForDispatch sorts waiting tickets in the order the strategy calls them
func SortForDispatch(strategy Strategy, tickets []*Ticket) {
	keys := strategy.Ordering()
	slices.SortStableFunc(tickets, func(a, b *Ticket) int {
		return Compare(keys, a, b)
	})
}

// NextTicket returns the waiting ticket the strategy would call first, or nil
func NextTicket(strategy Strategy, tickets []*Ticket) *Ticket {
	keys := strategy.Ordering()
	var next *Ticket
	for _, t := range tickets {
		if t.Status != TicketWaiting {
			continue
		}
		if next == nil || Compare(keys, t, next) < 0 {
			next = t
		}
	}
	return next
}
