package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Kind is what a notification is about
type Kind string

const (
	KindTicketIssued         Kind = "ticket_issued"
	KindTicketCalled         Kind = "ticket_called"
	KindTurnApproaching      Kind = "turn_approaching"
	KindPaymentConfirmed     Kind = "payment_confirmed"
	KindPaymentFailed        Kind = "payment_failed"
	KindAppointmentConfirmed Kind = "appointment_confirmed"
	KindAppointmentReminder  Kind = "appointment_reminder"
)

// Channel is how the notification reaches the recipient
type Channel string

const ChannelSMS Channel = "sms"

// Status is the delivery outcome
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Notification is a message sent to a customer
type Notification struct {
	shared.BaseEntity
	OrganizationID uuid.UUID
	CustomerID     *uuid.UUID
	RecipientPhone string
	Kind           Kind
	Channel        Channel
	Message        string
	Status         Status
	ReferenceID    *uuid.UUID
	Error          string
	SentAt         *time.Time
}

// Message is a notification ready to be sent
type Message struct {
	OrganizationID uuid.UUID
	CustomerID     *uuid.UUID
	Phone          string
	Kind           Kind
	Text           string
	ReferenceID    *uuid.UUID
}

// NewNotification records the outcome of sending msg
func NewNotification(msg Message, sendErr error, now time.Time) *Notification {
	n := &Notification{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: msg.OrganizationID,
		CustomerID:     msg.CustomerID,
		RecipientPhone: msg.Phone,
		Kind:           msg.Kind,
		Channel:        ChannelSMS,
		Message:        msg.Text,
		ReferenceID:    msg.ReferenceID,
	}
	if sendErr != nil {
		n.Status = StatusFailed
		n.Error = sendErr.Error()
		return n
	}
	n.Status = StatusSent
	n.SentAt = &now
	return n
}

// Sender delivers SMS messages
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// Filter narrows notification listings
type Filter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	CustomerID     *uuid.UUID
	Kind           *Kind
}

// NotificationRepository persists sent notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	FindAll(ctx context.Context, filter Filter) ([]Notification, int64, error)
	// ExistsForReference reports whether a notification of kind was already recorded for ref
	ExistsForReference(ctx context.Context, kind Kind, referenceID uuid.UUID) (bool, error)
}
