package notification

import (
	"context"
	"fmt"

	"github.com/smartqueue/backend/internal/domain/appointment"
	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AppointmentConfirmedHandler texts the customer when staff confirm an appointment.
// Appointments confirmed by a payment are texted by the payment handler.
type AppointmentConfirmedHandler struct {
	organizations organization.OrganizationRepository
	notifier      Notifier
	logger        *zap.Logger
}

// NewAppointmentConfirmedHandler creates a new AppointmentConfirmedHandler
func NewAppointmentConfirmedHandler(organizations organization.OrganizationRepository, notifier Notifier, logger *zap.Logger) *AppointmentConfirmedHandler {
	return &AppointmentConfirmedHandler{organizations: organizations, notifier: notifier, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *AppointmentConfirmedHandler) EventTypes() []string {
	return []string{appointment.EventTypeAppointmentConfirmed}
}

// Handle sends the confirmation SMS
func (h *AppointmentConfirmedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*appointment.AppointmentEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			appointment.EventTypeAppointmentConfirmed, event.EventType())
	}
	if e.PaymentID != nil || e.CustomerPhone == "" {
		return nil
	}

	org, err := h.organizations.FindByID(ctx, e.OrganizationID())
	if err != nil {
		return fmt.Errorf("failed to load organization: %w", err)
	}
	customerID := e.CustomerID
	appointmentID := e.AppointmentID
	_, err = h.notifier.NotifyOnce(ctx, notification.Message{
		OrganizationID: org.ID,
		CustomerID:     &customerID,
		Phone:          e.CustomerPhone,
		Kind:           notification.KindAppointmentConfirmed,
		Text:           notification.AppointmentConfirmedText(e.AppointmentNumber,
			e.ScheduledAt.In(org.Location()), org.DisplayName()),
		ReferenceID: &appointmentID,
	})
	if err != nil {
		return err
	}
	h.logger.Info("Appointment confirmation sent", zap.String("appointment_id", appointmentID.String()))
	return nil
}

var _ shared.EventHandler = (*AppointmentConfirmedHandler)(nil)
