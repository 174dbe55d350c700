package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDailyReport(t *testing.T) {
	q, err := queue.NewQueue(uuid.New(), uuid.New(), "Caisse", queue.TypeNormal, "")
	require.NoError(t, err)

	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) *time.Time {
		v := day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		return &v
	}

	t.Run("rows and summary", func(t *testing.T) {
		created := func(tk queue.Ticket, h, m int) queue.Ticket {
			tk.CreatedAt = *at(h, m)
			return tk
		}
		tickets := []queue.Ticket{
			created(queue.Ticket{Number: "C001", Status: queue.TicketServed, Priority: organization.PriorityMedium, Channel: queue.ChannelKiosk,
				CalledAt: at(8, 30), ServiceStartedAt: at(8, 31), ServiceEndedAt: at(8, 40)}, 8, 0),
			created(queue.Ticket{Number: "C002", Status: queue.TicketNoShow, CalledAt: at(8, 15)}, 8, 5),
			created(queue.Ticket{Number: "C003", Status: queue.TicketCancelled}, 9, 0),
			created(queue.Ticket{Number: "C004", Status: queue.TicketWaiting}, 9, 10),
		}

		r := NewDailyReport(q, day, tickets)

		assert.Equal(t, q.ID, r.QueueID)
		assert.Equal(t, "Caisse", r.QueueName)
		require.Len(t, r.Rows, 4)
		assert.Equal(t, "medium", r.Rows[0].Priority)
		assert.Equal(t, "kiosk", r.Rows[0].Channel)
		require.NotNil(t, r.Rows[0].WaitMinutes)
		assert.InDelta(t, 30, *r.Rows[0].WaitMinutes, 0.001)
		require.NotNil(t, r.Rows[0].ServiceMinutes)
		assert.InDelta(t, 9, *r.Rows[0].ServiceMinutes, 0.001)
		assert.Nil(t, r.Rows[2].WaitMinutes)
		assert.Nil(t, r.Rows[1].ServiceMinutes)

		assert.Equal(t, Summary{Issued: 4, Served: 1, Cancelled: 1, NoShow: 1, AverageWaitMinutes: 20}, r.Summary)
		assert.InDelta(t, 25, r.Summary.ServiceRate(), 0.001)
	})

	t.Run("empty day", func(t *testing.T) {
		r := NewDailyReport(q, day, nil)
		assert.Empty(t, r.Rows)
		assert.Zero(t, r.Summary.AverageWaitMinutes)
		assert.Zero(t, r.Summary.ServiceRate())
	})
}
