package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/appointment"
)

// AppointmentModel is the persistence model for appointments.
type AppointmentModel struct {
	OrgAggregateModel
	ServiceID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerPhone string             `gorm:"type:varchar(20)"`
	Number        string             `gorm:"type:varchar(20);not null;uniqueIndex"`
	ScheduledAt   time.Time          `gorm:"not null;index"`
	Duration      int                `gorm:"not null"`
	Status        appointment.Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	Notes         string             `gorm:"type:text"`
	CancelReason  string             `gorm:"type:text"`
	TicketID      *uuid.UUID         `gorm:"type:uuid"`
	PaymentID     *uuid.UUID         `gorm:"type:uuid"`
	RescheduledTo *uuid.UUID         `gorm:"type:uuid"`
	ConfirmedAt   *time.Time
	CancelledAt   *time.Time
	CheckedInAt   *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (AppointmentModel) TableName() string {
	return "appointments"
}

// ToDomain converts the model to a domain Appointment
func (m *AppointmentModel) ToDomain() *appointment.Appointment {
	return &appointment.Appointment{
		OrgAggregateRoot: m.toOrgAggregate(),
		ServiceID:        m.ServiceID,
		CustomerID:       m.CustomerID,
		CustomerPhone:    m.CustomerPhone,
		Number:           m.Number,
		ScheduledAt:      m.ScheduledAt,
		Duration:         m.Duration,
		Status:           m.Status,
		Notes:            m.Notes,
		CancelReason:     m.CancelReason,
		TicketID:         m.TicketID,
		PaymentID:        m.PaymentID,
		RescheduledTo:    m.RescheduledTo,
		ConfirmedAt:      m.ConfirmedAt,
		CancelledAt:      m.CancelledAt,
		CheckedInAt:      m.CheckedInAt,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
	}
}

// AppointmentModelFromDomain builds the model for a
func AppointmentModelFromDomain(a *appointment.Appointment) *AppointmentModel {
	m := &AppointmentModel{
		ServiceID:     a.ServiceID,
		CustomerID:    a.CustomerID,
		CustomerPhone: a.CustomerPhone,
		Number:        a.Number,
		ScheduledAt:   a.ScheduledAt,
		Duration:      a.Duration,
		Status:        a.Status,
		Notes:         a.Notes,
		CancelReason:  a.CancelReason,
		TicketID:      a.TicketID,
		PaymentID:     a.PaymentID,
		RescheduledTo: a.RescheduledTo,
		ConfirmedAt:   a.ConfirmedAt,
		CancelledAt:   a.CancelledAt,
		CheckedInAt:   a.CheckedInAt,
		StartedAt:     a.StartedAt,
		CompletedAt:   a.CompletedAt,
	}
	m.fromOrgAggregate(a.OrgAggregateRoot)
	return m
}
