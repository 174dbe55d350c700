package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/notification"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationService sends SMS messages and keeps a record of each attempt
type NotificationService struct {
	repo   notification.NotificationRepository
	sender notification.Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo notification.NotificationRepository, sender notification.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, sender: sender, logger: logger, now: time.Now}
}

// Notify sends msg and records the outcome. A delivery failure is recorded and
// logged, not returned; only a failure to store the record is.
func (s *NotificationService) Notify(ctx context.Context, msg notification.Message) (*notification.Notification, error) {
	sendErr := s.sender.Send(ctx, msg.Phone, msg.Text)
	if sendErr != nil {
		s.logger.Warn("SMS delivery failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("phone", msg.Phone),
			zap.Error(sendErr))
	}
	n := notification.NewNotification(msg, sendErr, s.now())
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// NotifyOnce sends msg unless a notification of the same kind was already sent for its reference
func (s *NotificationService) NotifyOnce(ctx context.Context, msg notification.Message) (*notification.Notification, error) {
	if msg.ReferenceID != nil {
		sent, err := s.repo.ExistsForReference(ctx, msg.Kind, *msg.ReferenceID)
		if err != nil {
			return nil, err
		}
		if sent {
			s.logger.Debug("Notification already sent",
				zap.String("kind", string(msg.Kind)),
				zap.String("reference_id", msg.ReferenceID.String()))
			return nil, nil
		}
	}
	return s.Notify(ctx, msg)
}

// List lists notifications. Customers see those addressed to them, staff
// those of their organization.
func (s *NotificationService) List(ctx context.Context, actor identity.Actor, filter NotificationListFilter) (*shared.Paginated[NotificationResponse], error) {
	f := notification.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if filter.Kind != "" {
		kind := notification.Kind(filter.Kind)
		f.Kind = &kind
	}
	if actor.IsCustomer() {
		customerID := actor.UserID
		f.CustomerID = &customerID
	} else {
		orgID, err := actor.Organization(filter.OrganizationID)
		if err != nil {
			return nil, err
		}
		f.OrganizationID = &orgID
	}

	rows, total, err := s.repo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]NotificationResponse, len(rows))
	for i := range rows {
		items[i] = ToNotificationResponse(&rows[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// NotificationListFilter narrows notification listings
type NotificationListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	OrganizationID *uuid.UUID `form:"-"`
	Kind           string     `form:"kind" binding:"omitempty,oneof=ticket_issued ticket_called turn_approaching payment_confirmed payment_failed appointment_confirmed appointment_reminder"`
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	CustomerID     *uuid.UUID `json:"customer_id,omitempty"`
	RecipientPhone string     `json:"recipient_phone"`
	Kind           string     `json:"kind"`
	Channel        string     `json:"channel"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	ReferenceID    *uuid.UUID `json:"reference_id,omitempty"`
	Error          string     `json:"error,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToNotificationResponse converts a domain notification to a response
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		OrganizationID: n.OrganizationID,
		CustomerID:     n.CustomerID,
		RecipientPhone: n.RecipientPhone,
		Kind:           string(n.Kind),
		Channel:        string(n.Channel),
		Message:        n.Message,
		Status:         string(n.Status),
		ReferenceID:    n.ReferenceID,
		Error:          n.Error,
		SentAt:         n.SentAt,
		CreatedAt:      n.CreatedAt,
	}
}
