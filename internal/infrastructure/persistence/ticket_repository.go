package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// dispatchColumns maps dispatch sort fields to SQL expressions on tickets
var dispatchColumns = map[queue.SortField]string{
	queue.SortPriorityRank:    "priority_rank",
	queue.SortHasAppointment:  "(appointment_id IS NOT NULL)",
	queue.SortAppointmentTime: "appointment_time",
	queue.SortCreatedAt:       "created_at",
	queue.SortID:              "id",
}

// DispatchOrderSQL turns a dispatch ordering into an ORDER BY list.
// Tickets without an appointment time sort last.
func DispatchOrderSQL(keys []queue.SortKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		col, ok := dispatchColumns[k.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		term := col + " " + dir
		if k.Field == queue.SortAppointmentTime {
			term += " NULLS LAST"
		}
		parts = append(parts, term)
	}
	if len(parts) == 0 {
		return "created_at ASC, id ASC"
	}
	return strings.Join(parts, ", ")
}

// GormTicketRepository implements queue.TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// FindByID finds a ticket by id alone
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*queue.Ticket, error) {
	var model models.TicketModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForOrg finds a ticket of an organization
func (r *GormTicketRepository) FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*queue.Ticket, error) {
	var model models.TicketModel
	if err := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a ticket and locks its row until the transaction ends
func (r *GormTicketRepository) FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*queue.Ticket, error) {
	var model models.TicketModel
	if err := conn(ctx, r.db).
		Clauses(forUpdate).
		Where("organization_id = ?", organizationID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindNextWaitingForUpdate locks the first waiting ticket in dispatch order.
// Rows held by concurrent dispatchers are skipped.
func (r *GormTicketRepository) FindNextWaitingForUpdate(ctx context.Context, queueID uuid.UUID, ordering []queue.SortKey) (*queue.Ticket, error) {
	var model models.TicketModel
	if err := conn(ctx, r.db).
		Clauses(forUpdateSkipLocked).
		Where("queue_id = ? AND status = ?", queueID, queue.TicketWaiting).
		Order(DispatchOrderSQL(ordering)).
		Take(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindWaiting returns up to limit waiting tickets in dispatch order
func (r *GormTicketRepository) FindWaiting(ctx context.Context, queueID uuid.UUID, ordering []queue.SortKey, limit int) ([]queue.Ticket, error) {
	var rows []models.TicketModel
	query := conn(ctx, r.db).
		Where("queue_id = ? AND status = ?", queueID, queue.TicketWaiting).
		Order(DispatchOrderSQL(ordering))
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return ticketsToDomain(rows), nil
}

// FindCurrent returns the most recently called ticket still at a counter
func (r *GormTicketRepository) FindCurrent(ctx context.Context, queueID uuid.UUID) (*queue.Ticket, error) {
	var model models.TicketModel
	if err := conn(ctx, r.db).
		Where("queue_id = ? AND status IN ?", queueID, []queue.TicketStatus{queue.TicketCalled, queue.TicketServing}).
		Order("called_at DESC").
		Take(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists the tickets of an organization
func (r *GormTicketRepository) FindAll(ctx context.Context, organizationID uuid.UUID, filter queue.TicketFilter) ([]queue.Ticket, error) {
	var rows []models.TicketModel
	query := r.applyFilter(inOrganization(conn(ctx, r.db).Model(&models.TicketModel{}), organizationID), filter)
	if err := query.Scopes(Paginate(filter.Filter, TicketSortFields)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return ticketsToDomain(rows), nil
}

// Count counts the tickets of an organization matching the filter
func (r *GormTicketRepository) Count(ctx context.Context, organizationID uuid.UUID, filter queue.TicketFilter) (int64, error) {
	var count int64
	query := r.applyFilter(inOrganization(conn(ctx, r.db).Model(&models.TicketModel{}), organizationID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsActiveForCustomer checks if the customer already holds an active ticket in the queue
func (r *GormTicketRepository) ExistsActiveForCustomer(ctx context.Context, queueID, customerID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.TicketModel{}).
		Where("queue_id = ? AND customer_id = ? AND status IN ?", queueID, customerID, queue.ActiveStatuses).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountWaiting counts the waiting tickets of a queue
func (r *GormTicketRepository) CountWaiting(ctx context.Context, queueID uuid.UUID) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.TicketModel{}).
		Where("queue_id = ? AND status = ?", queueID, queue.TicketWaiting).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindExpiredWaiting returns waiting tickets past their expiry, oldest first
func (r *GormTicketRepository) FindExpiredWaiting(ctx context.Context, now time.Time, limit int) ([]queue.Ticket, error) {
	var rows []models.TicketModel
	if err := conn(ctx, r.db).
		Where("status = ? AND expires_at < ?", queue.TicketWaiting, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ticketsToDomain(rows), nil
}

// FindByPaymentID finds the ticket a payment was made for
func (r *GormTicketRepository) FindByPaymentID(ctx context.Context, organizationID, paymentID uuid.UUID) (*queue.Ticket, error) {
	var model models.TicketModel
	if err := conn(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Where("payment_id = ?", paymentID).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// CountByStatusSince counts tickets per status created since the given time
func (r *GormTicketRepository) CountByStatusSince(ctx context.Context, organizationID uuid.UUID, queueID *uuid.UUID, since time.Time) ([]queue.StatusCount, error) {
	query := inOrganization(conn(ctx, r.db).Model(&models.TicketModel{}), organizationID).
		Where("created_at >= ?", since)
	if queueID != nil {
		query = query.Where("queue_id = ?", *queueID)
	}
	return countByStatus(query)
}

// Aggregates summarizes the tickets matching the filter
func (r *GormTicketRepository) Aggregates(ctx context.Context, organizationID uuid.UUID, filter queue.TicketFilter) (*queue.TicketAggregates, error) {
	base := func() *gorm.DB {
		return r.applyFilter(inOrganization(conn(ctx, r.db).Model(&models.TicketModel{}), organizationID), filter)
	}

	byStatus, err := countByStatus(base())
	if err != nil {
		return nil, err
	}

	var averages struct {
		AvgWait    float64
		AvgService float64
		AvgRating  float64
		Rated      int64
	}
	if err := base().
		Select("COALESCE(AVG(CASE WHEN called_at IS NOT NULL THEN wait_time_minutes END), 0) AS avg_wait, " +
			"COALESCE(AVG(CASE WHEN status = 'served' THEN service_time_minutes END), 0) AS avg_service, " +
			"COALESCE(AVG(rating), 0) AS avg_rating, COUNT(rating) AS rated").
		Scan(&averages).Error; err != nil {
		return nil, err
	}

	return &queue.TicketAggregates{
		ByStatus:           byStatus,
		AverageWaitMinutes: averages.AvgWait,
		AverageServiceTime: averages.AvgService,
		AverageRating:      averages.AvgRating,
		RatingCount:        averages.Rated,
	}, nil
}

// DailySeries returns tickets issued and served per day since the given time
func (r *GormTicketRepository) DailySeries(ctx context.Context, organizationID uuid.UUID, customerID *uuid.UUID, since time.Time) ([]queue.DailyCount, error) {
	query := inOrganization(conn(ctx, r.db).Model(&models.TicketModel{}), organizationID).
		Where("created_at >= ?", since)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	var rows []struct {
		Day    time.Time
		Issued int64
		Served int64
	}
	if err := query.
		Select("DATE(created_at) AS day, COUNT(*) AS issued, COUNT(CASE WHEN status = 'served' THEN 1 END) AS served").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	series := make([]queue.DailyCount, len(rows))
	for i, row := range rows {
		series[i] = queue.DailyCount{Day: row.Day, Issued: row.Issued, Served: row.Served}
	}
	return series, nil
}

// Create inserts a new ticket
func (r *GormTicketRepository) Create(ctx context.Context, t *queue.Ticket) error {
	return conn(ctx, r.db).Create(models.TicketModelFromDomain(t)).Error
}

// Update saves t when its stored version still matches
func (r *GormTicketRepository) Update(ctx context.Context, t *queue.Ticket) error {
	model := models.TicketModelFromDomain(t)
	model.Version = t.Version + 1
	if err := versionedUpdate(conn(ctx, r.db), model, t.ID, t.Version); err != nil {
		return err
	}
	t.IncrementVersion()
	return nil
}

func (r *GormTicketRepository) applyFilter(query *gorm.DB, filter queue.TicketFilter) *gorm.DB {
	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at < ?", *filter.Until)
	}
	if filter.Search != "" {
		query = query.Where("number ILIKE ? OR customer_phone LIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

func countByStatus(query *gorm.DB) ([]queue.StatusCount, error) {
	var rows []struct {
		Status queue.TicketStatus
		Count  int64
	}
	if err := query.
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make([]queue.StatusCount, len(rows))
	for i, row := range rows {
		counts[i] = queue.StatusCount{Status: row.Status, Count: row.Count}
	}
	return counts, nil
}

func ticketsToDomain(rows []models.TicketModel) []queue.Ticket {
	tickets := make([]queue.Ticket, len(rows))
	for i := range rows {
		tickets[i] = *rows[i].ToDomain()
	}
	return tickets
}
