package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for the sent notification log.
type NotificationModel struct {
	BaseModel
	OrganizationID uuid.UUID            `gorm:"type:uuid;not null;index"`
	CustomerID     *uuid.UUID           `gorm:"type:uuid;index"`
	RecipientPhone string               `gorm:"type:varchar(20);not null"`
	Kind           notification.Kind    `gorm:"type:varchar(40);not null;index:idx_notifications_kind_ref,priority:1"`
	Channel        notification.Channel `gorm:"type:varchar(10);not null;default:'sms'"`
	Message        string               `gorm:"type:text;not null"`
	Status         notification.Status  `gorm:"type:varchar(10);not null"`
	ReferenceID    *uuid.UUID           `gorm:"type:uuid;index:idx_notifications_kind_ref,priority:2"`
	Error          string               `gorm:"type:text"`
	SentAt         *time.Time
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		CustomerID:     m.CustomerID,
		RecipientPhone: m.RecipientPhone,
		Kind:           m.Kind,
		Channel:        m.Channel,
		Message:        m.Message,
		Status:         m.Status,
		ReferenceID:    m.ReferenceID,
		Error:          m.Error,
		SentAt:         m.SentAt,
	}
}

// NotificationModelFromDomain builds the model for n
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{
		OrganizationID: n.OrganizationID,
		CustomerID:     n.CustomerID,
		RecipientPhone: n.RecipientPhone,
		Kind:           n.Kind,
		Channel:        n.Channel,
		Message:        n.Message,
		Status:         n.Status,
		ReferenceID:    n.ReferenceID,
		Error:          n.Error,
		SentAt:         n.SentAt,
	}
	m.fromEntity(n.BaseEntity)
	return m
}
