// Package report holds the read models behind queue reports.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/queue"
)

// TicketRow is one ticket line of a daily report
type TicketRow struct {
	Number         string
	Status         queue.TicketStatus
	Priority       string
	Channel        string
	CreatedAt      time.Time
	CalledAt       *time.Time
	ServedAt       *time.Time
	WaitMinutes    *float64
	ServiceMinutes *float64
}

// Summary closes a daily report
type Summary struct {
	Issued             int
	Served             int
	Cancelled          int
	NoShow             int
	AverageWaitMinutes float64
}

// DailyReport is the read model of the tickets a queue issued over one calendar day
type DailyReport struct {
	QueueID   uuid.UUID
	QueueName string
	Day       time.Time
	Rows      []TicketRow
	Summary   Summary
}

// NewDailyReport builds the report of q for the day starting at dayStart.
// tickets must already be limited to that day.
func NewDailyReport(q *queue.Queue, dayStart time.Time, tickets []queue.Ticket) *DailyReport {
	r := &DailyReport{
		QueueID:   q.ID,
		QueueName: q.Name,
		Day:       dayStart,
		Rows:      make([]TicketRow, 0, len(tickets)),
	}

	var waitTotal float64
	var waitCount int
	for i := range tickets {
		t := &tickets[i]
		r.Summary.Issued++
		switch t.Status {
		case queue.TicketServed:
			r.Summary.Served++
		case queue.TicketCancelled:
			r.Summary.Cancelled++
		case queue.TicketNoShow:
			r.Summary.NoShow++
		}

		row := TicketRow{
			Number:    t.Number,
			Status:    t.Status,
			Priority:  string(t.Priority),
			Channel:   string(t.Channel),
			CreatedAt: t.CreatedAt,
			CalledAt:  t.CalledAt,
			ServedAt:  t.ServiceEndedAt,
		}
		if t.CalledAt != nil {
			wait := t.CalledAt.Sub(t.CreatedAt).Minutes()
			row.WaitMinutes = &wait
			waitTotal += wait
			waitCount++
		}
		if t.ServiceStartedAt != nil && t.ServiceEndedAt != nil {
			service := t.ServiceEndedAt.Sub(*t.ServiceStartedAt).Minutes()
			row.ServiceMinutes = &service
		}
		r.Rows = append(r.Rows, row)
	}
	if waitCount > 0 {
		r.Summary.AverageWaitMinutes = waitTotal / float64(waitCount)
	}
	return r
}

// ServiceRate is the share of issued tickets that were served, in percent
func (s Summary) ServiceRate() float64 {
	if s.Issued == 0 {
		return 0
	}
	return float64(s.Served) / float64(s.Issued) * 100
}
