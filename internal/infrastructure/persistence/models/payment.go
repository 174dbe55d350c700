package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartqueue/backend/internal/domain/payment"
)

// PaymentModel is the persistence model for payments.
type PaymentModel struct {
	OrgAggregateModel
	Number            string           `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	PayerPhone        string           `gorm:"type:varchar(20)"`
	Type              payment.Type     `gorm:"type:varchar(30);not null"`
	Provider          payment.Provider `gorm:"type:varchar(30);not null"`
	Amount            decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Fees              decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Total             decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Status            payment.Status   `gorm:"type:varchar(20);not null;default:'pending';index"`
	TicketID          *uuid.UUID       `gorm:"type:uuid;index"`
	AppointmentID     *uuid.UUID       `gorm:"type:uuid;index"`
	QueueID           *uuid.UUID       `gorm:"type:uuid"`
	Description       string           `gorm:"type:text"`
	ExternalReference string           `gorm:"type:varchar(100);index"`
	CheckoutURL       string           `gorm:"type:varchar(500)"`
	FailureReason     string           `gorm:"type:text"`
	ExpiresAt         time.Time        `gorm:"not null;index"`
	CompletedAt       *time.Time
	FailedAt          *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		OrgAggregateRoot:  m.toOrgAggregate(),
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		PayerPhone:        m.PayerPhone,
		Type:              m.Type,
		Provider:          m.Provider,
		Amount:            m.Amount,
		Fees:              m.Fees,
		Total:             m.Total,
		Status:            m.Status,
		TicketID:          m.TicketID,
		AppointmentID:     m.AppointmentID,
		QueueID:           m.QueueID,
		Description:       m.Description,
		ExternalReference: m.ExternalReference,
		CheckoutURL:       m.CheckoutURL,
		FailureReason:     m.FailureReason,
		ExpiresAt:         m.ExpiresAt,
		CompletedAt:       m.CompletedAt,
		FailedAt:          m.FailedAt,
	}
}

// PaymentModelFromDomain builds the model for p
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		Number:            p.Number,
		CustomerID:        p.CustomerID,
		PayerPhone:        p.PayerPhone,
		Type:              p.Type,
		Provider:          p.Provider,
		Amount:            p.Amount,
		Fees:              p.Fees,
		Total:             p.Total,
		Status:            p.Status,
		TicketID:          p.TicketID,
		AppointmentID:     p.AppointmentID,
		QueueID:           p.QueueID,
		Description:       p.Description,
		ExternalReference: p.ExternalReference,
		CheckoutURL:       p.CheckoutURL,
		FailureReason:     p.FailureReason,
		ExpiresAt:         p.ExpiresAt,
		CompletedAt:       p.CompletedAt,
		FailedAt:          p.FailedAt,
	}
	m.fromOrgAggregate(p.OrgAggregateRoot)
	return m
}
