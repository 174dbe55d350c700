package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormOrganizationRepository_FindByID(t *testing.T) {
	t.Run("finds existing organization", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrganizationRepository(db)

		orgID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "version", "name", "type", "phone", "region", "status", "timezone", "is_active"}).
			AddRow(orgID, 3, "Banque Atlantique", "bank", "+221771234567", "dakar", "active", "Africa/Dakar", true)

		mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(orgID, 1).
			WillReturnRows(rows)

		org, err := repo.FindByID(context.Background(), orgID)

		require.NoError(t, err)
		assert.Equal(t, orgID, org.ID)
		assert.Equal(t, 3, org.Version)
		assert.Equal(t, organization.TypeBank, org.Type)
		assert.True(t, org.IsOperational())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing organization", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrganizationRepository(db)

		orgID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE id = \$1`).
			WithArgs(orgID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		org, err := repo.FindByID(context.Background(), orgID)

		assert.Nil(t, org)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrganizationRepository_Save(t *testing.T) {
	newOrg := func(t *testing.T) *organization.Organization {
		org, err := organization.NewOrganization("Hôpital Principal", "", organization.TypeHospital, "+221338399000", "Dakar", "dakar")
		require.NoError(t, err)
		return org
	}

	t.Run("updates stored organization and bumps the version", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrganizationRepository(db)
		org := newOrg(t)

		mock.ExpectExec(`UPDATE "organizations" SET .* WHERE \(id = \$\d+ AND version = \$\d+\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), org))
		assert.Equal(t, 2, org.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inserts organization that is not stored yet", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrganizationRepository(db)
		org := newOrg(t)

		mock.ExpectExec(`UPDATE "organizations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations" WHERE id = \$1`).
			WithArgs(org.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "organizations"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), org))
		assert.Equal(t, 1, org.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when the stored version moved on", func(t *testing.T) {
		db, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormOrganizationRepository(db)
		org := newOrg(t)

		mock.ExpectExec(`UPDATE "organizations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "organizations"`).
			WithArgs(org.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.Save(context.Background(), org)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrganizationRepository_FindActiveIDs(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormOrganizationRepository(db)

	id1, id2 := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT "id" FROM "organizations" WHERE is_active = \$1 AND status <> \$2 ORDER BY created_at ASC`).
		WithArgs(true, organization.StatusSuspended).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id1).AddRow(id2))

	ids, err := repo.FindActiveIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id1, id2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormServiceRepository_ExistsByCode(t *testing.T) {
	db, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormServiceRepository(db)

	orgID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "services" WHERE organization_id = \$1 AND code = \$2`).
		WithArgs(orgID, "DEP").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	found, err := repo.ExistsByCode(context.Background(), orgID, "DEP")

	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
