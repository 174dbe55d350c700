//go:build integration

package persistence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	orgapp "github.com/smartqueue/backend/internal/application/organization"
	queueapp "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/infrastructure/event"
	"github.com/smartqueue/backend/internal/infrastructure/migration"
	"github.com/smartqueue/backend/internal/infrastructure/persistence"
	"github.com/smartqueue/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres runs a migrated PostgreSQL container for the test
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("smartqueue_test"),
		tcpostgres.WithUsername("smartqueue"),
		tcpostgres.WithPassword("smartqueue"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)

	migrator, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	return db
}

func TestCallNext_ConcurrentAgents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	db := startPostgres(t)
	log := zap.NewNop()

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	recorder := event.NewOutboxRecorder(persistence.NewGormOutboxRepository(db), serializer)

	orgs := persistence.NewGormOrganizationRepository(db)
	services := persistence.NewGormServiceRepository(db)
	deps := queueapp.Dependencies{
		Tx:            persistence.NewGormTxRunner(db),
		Organizations: orgs,
		Services:      services,
		Queues:        persistence.NewGormQueueRepository(db),
		Tickets:       persistence.NewGormTicketRepository(db),
		Events:        recorder,
	}
	orgService := orgapp.NewOrganizationService(orgs, services, log)
	queueService := queueapp.NewQueueService(deps, log)
	ticketService := queueapp.NewTicketService(deps, nil, log)

	root := identity.Actor{UserID: uuid.New(), Role: identity.RoleSuperAdmin}
	org, err := orgService.Create(ctx, root, orgapp.CreateOrganizationRequest{
		Name: "Banque Atlantique Plateau",
		Type: "bank",
	})
	require.NoError(t, err)
	service, err := orgService.CreateService(ctx, root, org.ID, orgapp.CreateServiceRequest{
		Name: "Dépôts et retraits",
		Code: "DR",
	})
	require.NoError(t, err)
	orgID := org.ID
	q, err := queueService.Create(ctx, root, queueapp.CreateQueueRequest{
		ServiceID:      service.ID,
		Name:           "Guichet principal",
		OrganizationID: &orgID,
	})
	require.NoError(t, err)
	_, err = queueService.Resume(ctx, root, q.ID)
	require.NoError(t, err)

	const waiting = 12
	for i := range waiting {
		customer := identity.Actor{UserID: uuid.New(), Role: identity.RoleCustomer}
		_, err := ticketService.TakeTicket(ctx, customer, q.ID, queueapp.TakeTicketRequest{})
		require.NoError(t, err, "ticket %d", i+1)
	}

	const agents = 6
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		called = map[uuid.UUID]int{}
		empty  int
	)
	for range agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agent := identity.Actor{UserID: uuid.New(), OrganizationID: &orgID, Role: identity.RoleStaff}
			for {
				ticket, err := ticketService.CallNext(ctx, agent, q.ID)
				mu.Lock()
				if err != nil {
					empty++
					mu.Unlock()
					assert.ErrorIs(t, err, queueapp.ErrQueueEmpty)
					return
				}
				called[ticket.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, called, waiting)
	for id, n := range called {
		assert.Equal(t, 1, n, "ticket %s called more than once", id)
	}
	assert.Equal(t, agents, empty)

	stats, err := queueService.Stats(ctx, root, q.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.WaitingCount)
}
