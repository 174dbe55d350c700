package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return conn(ctx, r.db).Create(models.UserModelFromDomain(user)).Error
}

// Update saves user when its stored version still matches
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	model.Version = user.Version + 1
	if err := versionedUpdate(conn(ctx, r.db), model, user.ID, user.Version); err != nil {
		return err
	}
	user.IncrementVersion()
	return nil
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByPhone finds a user by normalized phone number
func (r *GormUserRepository) FindByPhone(ctx context.Context, phone string) (*identity.User, error) {
	if phone == "" {
		return nil, shared.ErrNotFound
	}
	var model models.UserModel
	if err := conn(ctx, r.db).
		Where("phone = ?", phone).
		First(&model).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsByPhone checks if a phone number is already registered
func (r *GormUserRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).
		Model(&models.UserModel{}).
		Where("phone = ?", phone).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindStaff lists the staff and admins of an organization
func (r *GormUserRepository) FindStaff(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	query := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("organization_id = ? AND role IN ?", organizationID, []identity.Role{identity.RoleStaff, identity.RoleAdmin})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("full_name ILIKE ? OR phone LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	if err := query.Scopes(Paginate(filter, UserSortFields)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, total, nil
}

// CountStaff counts active staff and admins of an organization
func (r *GormUserRepository) CountStaff(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("organization_id = ? AND role IN ? AND is_active = ?",
			organizationID, []identity.Role{identity.RoleStaff, identity.RoleAdmin}, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
