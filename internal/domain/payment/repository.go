package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Filter narrows payment listings
type Filter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *Status
	Provider   *Provider
}

// PaymentRepository persists payments
type PaymentRepository interface {
	// FindByID finds a payment in any organization; callers check access
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Payment, error)
	// FindByNumberForUpdate locks the payment a provider callback refers to
	FindByNumberForUpdate(ctx context.Context, number string) (*Payment, error)
	FindAll(ctx context.Context, organizationID *uuid.UUID, filter Filter) ([]Payment, error)
	Count(ctx context.Context, organizationID *uuid.UUID, filter Filter) (int64, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Payment, error)
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
}
