package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormPaymentRepository_FindByNumberForUpdate(t *testing.T) {
	t.Run("locks the payment row", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormPaymentRepository(db)

		paymentID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "number", "provider", "amount", "fees", "total", "status"}).
			AddRow(paymentID, "PAY20260315ABC123", "wave", decimal.NewFromInt(2000), decimal.NewFromInt(20), decimal.NewFromInt(2020), "pending")

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE number = \$1 ORDER BY .* LIMIT \$2 FOR UPDATE`).
			WithArgs("PAY20260315ABC123", 1).
			WillReturnRows(rows)

		p, err := repo.FindByNumberForUpdate(context.Background(), "PAY20260315ABC123")

		require.NoError(t, err)
		assert.Equal(t, paymentID, p.ID)
		assert.Equal(t, payment.ProviderWave, p.Provider)
		assert.True(t, p.Total.Equal(decimal.NewFromInt(2020)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for an unknown number", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormPaymentRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE number = \$1`).
			WillReturnError(gorm.ErrRecordNotFound)

		p, err := repo.FindByNumberForUpdate(context.Background(), "PAY-unknown")

		assert.Nil(t, p)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormPaymentRepository_FindExpired(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormPaymentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE status IN \(\$1,\$2\) AND expires_at < \$3 ORDER BY expires_at ASC LIMIT \$4`).
		WithArgs(payment.StatusPending, payment.StatusProcessing, now, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(uuid.New(), "pending"))

	payments, err := repo.FindExpired(context.Background(), now, 50)

	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
