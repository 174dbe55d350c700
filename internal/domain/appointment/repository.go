package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Filter narrows appointment listings
type Filter struct {
	shared.Filter
	CustomerID *uuid.UUID
	ServiceID  *uuid.UUID
	Status     *Status
	From       *time.Time
	To         *time.Time
}

// AppointmentRepository persists appointments
type AppointmentRepository interface {
	// FindByID finds an appointment in any organization; callers check access
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	FindByIDForOrg(ctx context.Context, organizationID, id uuid.UUID) (*Appointment, error)
	FindByIDForUpdate(ctx context.Context, organizationID, id uuid.UUID) (*Appointment, error)
	FindAll(ctx context.Context, organizationID *uuid.UUID, filter Filter) ([]Appointment, error)
	Count(ctx context.Context, organizationID *uuid.UUID, filter Filter) (int64, error)
	// NextSequence reserves the next number of the calendar day of day. The
	// reservation is released when the surrounding transaction rolls back.
	NextSequence(ctx context.Context, day time.Time) (int, error)
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
}
