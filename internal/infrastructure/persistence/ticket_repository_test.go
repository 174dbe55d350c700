package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDispatchOrderSQL(t *testing.T) {
	tests := []struct {
		name     string
		strategy queue.Strategy
		expected string
	}{
		{"fifo", queue.StrategyFIFO, "created_at ASC, id ASC"},
		{"priority", queue.StrategyPriority, "priority_rank DESC, created_at ASC, id ASC"},
		{"appointment first", queue.StrategyAppointmentFirst,
			"(appointment_id IS NOT NULL) DESC, appointment_time ASC NULLS LAST, created_at ASC, id ASC"},
		{"mixed", queue.StrategyMixed,
			"priority_rank DESC, (appointment_id IS NOT NULL) DESC, appointment_time ASC NULLS LAST, created_at ASC, id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DispatchOrderSQL(tt.strategy.Ordering()))
		})
	}

	t.Run("empty ordering falls back to arrival order", func(t *testing.T) {
		assert.Equal(t, "created_at ASC, id ASC", DispatchOrderSQL(nil))
	})
}

func TestGormTicketRepository_FindNextWaitingForUpdate(t *testing.T) {
	t.Run("locks the first waiting ticket skipping locked rows", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormTicketRepository(db)

		queueID, ticketID, orgID := uuid.New(), uuid.New(), uuid.New()
		rows := sqlmock.NewRows([]string{"id", "organization_id", "queue_id", "number", "priority", "status", "version"}).
			AddRow(ticketID, orgID, queueID, "A004", "urgent", "waiting", 1)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tickets" WHERE queue_id = $1 AND status = $2 ORDER BY priority_rank DESC, created_at ASC, id ASC LIMIT $3 FOR UPDATE SKIP LOCKED`)).
			WithArgs(queueID, queue.TicketWaiting, 1).
			WillReturnRows(rows)

		ticket, err := repo.FindNextWaitingForUpdate(context.Background(), queueID, queue.StrategyPriority.Ordering())

		require.NoError(t, err)
		assert.Equal(t, ticketID, ticket.ID)
		assert.Equal(t, "A004", ticket.Number)
		assert.Equal(t, queue.TicketWaiting, ticket.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nobody waits", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormTicketRepository(db)

		queueID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "tickets" WHERE queue_id = \$1 AND status = \$2`).
			WillReturnError(gorm.ErrRecordNotFound)

		ticket, err := repo.FindNextWaitingForUpdate(context.Background(), queueID, queue.StrategyFIFO.Ordering())

		assert.Nil(t, ticket)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTicketRepository_Update(t *testing.T) {
	newTicket := func() *queue.Ticket {
		tk := &queue.Ticket{
			OrgAggregateRoot: shared.NewOrgAggregateRoot(uuid.New()),
			QueueID:          uuid.New(),
			Number:           "A001",
			Status:           queue.TicketCalled,
			ExpiresAt:        time.Now().Add(30 * time.Minute),
		}
		tk.Version = 4
		return tk
	}

	t.Run("increments the version after a matching update", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormTicketRepository(db)
		tk := newTicket()

		mock.ExpectExec(`UPDATE "tickets" SET .* WHERE \(id = \$\d+ AND version = \$\d+\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), tk))
		assert.Equal(t, 5, tk.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns a conflict on a stale version", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormTicketRepository(db)
		tk := newTicket()

		mock.ExpectExec(`UPDATE "tickets" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), tk)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 4, tk.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTicketRepository_CountWaiting(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormTicketRepository(db)

	queueID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tickets" WHERE queue_id = \$1 AND status = \$2`).
		WithArgs(queueID, queue.TicketWaiting).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountWaiting(context.Background(), queueID)

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTicketRepository_CountByStatusSince(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormTicketRepository(db)

	orgID := uuid.New()
	since := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "tickets" WHERE organization_id = \$1 AND created_at >= \$2 GROUP BY "status"`).
		WithArgs(orgID, since).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("waiting", 4).
			AddRow("served", 10))

	counts, err := repo.CountByStatusSince(context.Background(), orgID, nil, since)

	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, queue.StatusCount{Status: queue.TicketServed, Count: 10}, counts[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTicketRepository_Aggregates(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormTicketRepository(db)

	orgID, queueID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "tickets" WHERE organization_id = \$1 AND queue_id = \$2 GROUP BY "status"`).
		WithArgs(orgID, queueID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("served", 3))
	mock.ExpectQuery(`SELECT .+COALESCE\(AVG\(rating\), 0\) AS avg_rating, COUNT\(rating\) AS rated FROM "tickets" WHERE organization_id = \$1 AND queue_id = \$2`).
		WithArgs(orgID, queueID).
		WillReturnRows(sqlmock.NewRows([]string{"avg_wait", "avg_service", "avg_rating", "rated"}).
			AddRow(11.5, 6.0, 4.5, 2))

	agg, err := repo.Aggregates(context.Background(), orgID, queue.TicketFilter{QueueID: &queueID})

	require.NoError(t, err)
	assert.Equal(t, []queue.StatusCount{{Status: queue.TicketServed, Count: 3}}, agg.ByStatus)
	assert.Equal(t, 11.5, agg.AverageWaitMinutes)
	assert.Equal(t, 4.5, agg.AverageRating)
	assert.Equal(t, int64(2), agg.RatingCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTicketRepository_FindByID(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormTicketRepository(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tickets" WHERE id = $1 ORDER BY "tickets"."id" LIMIT $2`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
