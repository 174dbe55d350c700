package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dakar = organization.LoadLocation("Africa/Dakar")

func createOpenQueue(t *testing.T, strategy Strategy) *Queue {
	t.Helper()
	q, err := NewQueue(uuid.New(), uuid.New(), "Guichet principal", TypeNormal, strategy)
	require.NoError(t, err)
	require.NoError(t, q.Open())
	q.ClearDomainEvents()
	return q
}

func defaultOptions() IssueOptions {
	return IssueOptions{
		Priority: organization.PriorityMedium,
		Channel:  ChannelMobile,
	}
}

func TestNewQueue(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q, err := NewQueue(uuid.New(), uuid.New(), "Caisse", "", "")
		require.NoError(t, err)
		assert.Equal(t, TypeNormal, q.Type)
		assert.Equal(t, StrategyFIFO, q.Strategy)
		assert.Equal(t, StatusClosed, q.Status)
		assert.Equal(t, DefaultMaxWaitTime, q.MaxWaitTime)
		assert.Equal(t, DefaultTicketExpiry, q.TicketExpiryTime)
		assert.Equal(t, DefaultNotifyBefore, q.NotifyBeforeTurns)
		assert.Equal(t, 1, q.Version)
		assert.False(t, q.IsOpen())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewQueue(uuid.New(), uuid.New(), "  ", TypeNormal, StrategyFIFO)
		assert.Error(t, err)
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		_, err := NewQueue(uuid.New(), uuid.New(), "Caisse", TypeNormal, Strategy("random"))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STRATEGY", domainErr.Code)
	})
}

func TestQueue_StatusTransitions(t *testing.T) {
	t.Run("pause and resume", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		require.NoError(t, q.Pause())
		assert.Equal(t, StatusPaused, q.Status)
		require.NoError(t, q.Resume())
		assert.Equal(t, StatusActive, q.Status)
		assert.Len(t, q.GetDomainEvents(), 2)
	})

	t.Run("pause twice fails with ALREADY_PAUSED", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		require.NoError(t, q.Pause())
		err := q.Pause()
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_PAUSED", domainErr.Code)
	})

	t.Run("pause a closed queue fails", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		require.NoError(t, q.Close())
		assert.ErrorIs(t, q.Pause(), shared.ErrInvalidState)
	})

	t.Run("resume an active queue fails with NOT_PAUSED", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		var domainErr *shared.DomainError
		require.ErrorAs(t, q.Resume(), &domainErr)
		assert.Equal(t, "NOT_PAUSED", domainErr.Code)
	})

	t.Run("change to same status fails", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		assert.ErrorIs(t, q.ChangeStatus(StatusActive), shared.ErrInvalidState)
	})

	t.Run("change to unknown status fails", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		assert.Error(t, q.ChangeStatus(Status("broken")))
	})

	t.Run("maintenance closes dispatch", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		require.NoError(t, q.ChangeStatus(StatusMaintenance))
		assert.False(t, q.IsOpen())
		event, ok := q.GetDomainEvents()[0].(*QueueStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, StatusActive, event.From)
		assert.Equal(t, StatusMaintenance, event.To)
	})
}

func TestQueue_CapacityAndEstimates(t *testing.T) {
	q := createOpenQueue(t, StrategyFIFO)
	assert.False(t, q.IsFull())
	assert.Equal(t, 0.0, q.CapacityUsage())

	require.NoError(t, q.Configure(4, 60, 30))
	q.WaitingCount = 3
	assert.False(t, q.IsFull())
	assert.Equal(t, 75.0, q.CapacityUsage())
	assert.Equal(t, 15, q.EstimatedWaitTime(5))

	q.WaitingCount = 4
	assert.True(t, q.IsFull())

	assert.Error(t, q.Configure(-1, 60, 30))
	assert.Error(t, q.Configure(0, 4, 30))
	assert.Error(t, q.Configure(0, 60, 4))
}

func TestQueue_IssueNumber(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, dakar)

	t.Run("formats with service prefix", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		q.StatsDate = truncateDay(now)
		q.LastTicketNumber = 6
		number := q.IssueNumber("B", now)
		assert.Equal(t, "B007", number)
		assert.Equal(t, 7, q.LastTicketNumber)
		assert.Equal(t, 1, q.WaitingCount)
		assert.Equal(t, 1, q.DailyIssued)
	})

	t.Run("rolls the stats day", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		q.StatsDate = truncateDay(now.AddDate(0, 0, -1))
		q.LastTicketNumber = 42
		q.DailyIssued = 42
		q.DailyServed = 40
		q.WaitingCount = 2

		number := q.IssueNumber("C", now)
		assert.Equal(t, "C001", number)
		assert.Equal(t, 1, q.DailyIssued)
		assert.Equal(t, 0, q.DailyServed)
		assert.Equal(t, 3, q.WaitingCount)
		assert.True(t, sameDay(q.StatsDate, now))
	})
}

func TestFormatTicketNumber(t *testing.T) {
	tests := []struct {
		prefix string
		number int
		want   string
	}{
		{"B", 7, "B007"},
		{"", 123, "T123"},
		{"b", 1000, "B1000"},
		{"Consult", 5, "C005"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTicketNumber(tt.prefix, tt.number))
		})
	}
}

func TestQueue_Counters(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, dakar)

	t.Run("waiting count never goes below zero", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		q.RecordLeftWaiting()
		assert.Equal(t, 0, q.WaitingCount)
	})

	t.Run("running average wait", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		q.StatsDate = truncateDay(now)
		q.RecordServed(10, now)
		q.RecordServed(20, now)
		q.RecordServed(30, now)
		assert.Equal(t, 3, q.DailyServed)
		assert.Equal(t, 20, q.DailyAverageWait)
	})

	t.Run("daily reset", func(t *testing.T) {
		q := createOpenQueue(t, StrategyFIFO)
		q.LastTicketNumber = 50
		q.CurrentTicketNumber = "T049"
		q.DailyIssued = 50
		q.DailyServed = 45
		q.WaitingCount = 9
		q.ResetDaily(2, now)

		assert.Equal(t, 0, q.LastTicketNumber)
		assert.Empty(t, q.CurrentTicketNumber)
		assert.Equal(t, 0, q.DailyIssued)
		assert.Equal(t, 0, q.DailyServed)
		assert.Equal(t, 2, q.WaitingCount)
		assert.Len(t, q.GetDomainEvents(), 1)
	})
}

func TestOpeningHours(t *testing.T) {
	hours := OpeningHours{
		"monday": {Open: "08:00", Close: "17:00"},
	}
	require.NoError(t, hours.Validate())

	monday := time.Date(2024, 3, 18, 9, 30, 0, 0, dakar)
	assert.True(t, hours.IsOpenAt(monday))
	assert.False(t, hours.IsOpenAt(monday.Add(8*time.Hour)))
	assert.False(t, hours.IsOpenAt(monday.AddDate(0, 0, 1)))
	assert.True(t, OpeningHours{}.IsOpenAt(monday))

	assert.Error(t, OpeningHours{"funday": {Open: "08:00", Close: "17:00"}}.Validate())
	assert.Error(t, OpeningHours{"monday": {Open: "8h", Close: "17:00"}}.Validate())
	assert.Error(t, OpeningHours{"monday": {Open: "17:00", Close: "08:00"}}.Validate())
}
