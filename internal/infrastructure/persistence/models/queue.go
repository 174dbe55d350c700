package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
)

// QueueModel is the persistence model for queues.
type QueueModel struct {
	OrgAggregateModel
	ServiceID            uuid.UUID          `gorm:"type:uuid;not null;index"`
	Name                 string             `gorm:"type:varchar(200);not null"`
	Description          string             `gorm:"type:text"`
	Type                 queue.Type         `gorm:"type:varchar(20);not null;default:'normal'"`
	Status               queue.Status       `gorm:"type:varchar(20);not null;default:'closed';index"`
	Strategy             queue.Strategy     `gorm:"type:varchar(30);not null;default:'fifo'"`
	MaxCapacity          int                `gorm:"not null;default:0"`
	MaxWaitTime          int                `gorm:"not null;default:120"`
	TicketExpiryTime     int                `gorm:"not null;default:30"`
	OpeningHours         queue.OpeningHours `gorm:"type:jsonb;serializer:json"`
	LastTicketNumber     int                `gorm:"not null;default:0"`
	CurrentTicketNumber  string             `gorm:"type:varchar(10)"`
	WaitingCount         int                `gorm:"not null;default:0"`
	StatsDate            *time.Time         `gorm:"type:date"`
	DailyIssued          int                `gorm:"not null;default:0"`
	DailyServed          int                `gorm:"not null;default:0"`
	DailyAverageWait     int                `gorm:"not null;default:0"`
	NotificationsEnabled bool               `gorm:"not null;default:true"`
	NotifyBeforeTurns    int                `gorm:"not null;default:3"`
	IsActive             bool               `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (QueueModel) TableName() string {
	return "queues"
}

// ToDomain converts the model to a domain Queue
func (m *QueueModel) ToDomain() *queue.Queue {
	q := &queue.Queue{
		OrgAggregateRoot:     m.toOrgAggregate(),
		ServiceID:            m.ServiceID,
		Name:                 m.Name,
		Description:          m.Description,
		Type:                 m.Type,
		Status:               m.Status,
		Strategy:             m.Strategy,
		MaxCapacity:          m.MaxCapacity,
		MaxWaitTime:          m.MaxWaitTime,
		TicketExpiryTime:     m.TicketExpiryTime,
		OpeningHours:         m.OpeningHours,
		LastTicketNumber:     m.LastTicketNumber,
		CurrentTicketNumber:  m.CurrentTicketNumber,
		WaitingCount:         m.WaitingCount,
		DailyIssued:          m.DailyIssued,
		DailyServed:          m.DailyServed,
		DailyAverageWait:     m.DailyAverageWait,
		NotificationsEnabled: m.NotificationsEnabled,
		NotifyBeforeTurns:    m.NotifyBeforeTurns,
		IsActive:             m.IsActive,
	}
	if m.StatsDate != nil {
		q.StatsDate = *m.StatsDate
	}
	return q
}

// QueueModelFromDomain builds the model for q
func QueueModelFromDomain(q *queue.Queue) *QueueModel {
	m := &QueueModel{
		ServiceID:            q.ServiceID,
		Name:                 q.Name,
		Description:          q.Description,
		Type:                 q.Type,
		Status:               q.Status,
		Strategy:             q.Strategy,
		MaxCapacity:          q.MaxCapacity,
		MaxWaitTime:          q.MaxWaitTime,
		TicketExpiryTime:     q.TicketExpiryTime,
		OpeningHours:         q.OpeningHours,
		LastTicketNumber:     q.LastTicketNumber,
		CurrentTicketNumber:  q.CurrentTicketNumber,
		WaitingCount:         q.WaitingCount,
		DailyIssued:          q.DailyIssued,
		DailyServed:          q.DailyServed,
		DailyAverageWait:     q.DailyAverageWait,
		NotificationsEnabled: q.NotificationsEnabled,
		NotifyBeforeTurns:    q.NotifyBeforeTurns,
		IsActive:             q.IsActive,
	}
	if !q.StatsDate.IsZero() {
		d := q.StatsDate
		m.StatsDate = &d
	}
	m.fromOrgAggregate(q.OrgAggregateRoot)
	return m
}

// TicketModel is the persistence model for tickets.
type TicketModel struct {
	OrgAggregateModel
	QueueID            uuid.UUID             `gorm:"type:uuid;not null;index:idx_tickets_queue_status,priority:1"`
	ServiceID          uuid.UUID             `gorm:"type:uuid;not null"`
	CustomerID         *uuid.UUID            `gorm:"type:uuid;index"`
	CustomerPhone      string                `gorm:"type:varchar(20)"`
	Number             string                `gorm:"type:varchar(10);not null"`
	Priority           organization.Priority `gorm:"type:varchar(10);not null;default:'medium'"`
	PriorityRank       int                   `gorm:"not null;default:2"`
	Channel            queue.Channel         `gorm:"type:varchar(20);not null"`
	CustomerNotes      string                `gorm:"type:text"`
	DocumentsBrought   []string              `gorm:"type:jsonb;serializer:json"`
	Status             queue.TicketStatus    `gorm:"type:varchar(20);not null;default:'waiting';index:idx_tickets_queue_status,priority:2"`
	Position           int                   `gorm:"not null;default:0"`
	AppointmentID      *uuid.UUID            `gorm:"type:uuid;index"`
	AppointmentTime    *time.Time
	PaymentID          *uuid.UUID `gorm:"type:uuid;index"`
	IsPaid             bool       `gorm:"not null;default:false"`
	ServingAgentID     *uuid.UUID `gorm:"type:uuid"`
	CalledAt           *time.Time
	ServiceStartedAt   *time.Time
	ServiceEndedAt     *time.Time
	CancelledAt        *time.Time
	ExpiresAt          time.Time  `gorm:"not null;index"`
	WaitTimeMinutes    int        `gorm:"not null;default:0"`
	ServiceTimeMinutes int        `gorm:"not null;default:0"`
	CallCount          int        `gorm:"not null;default:0"`
	ExtensionCount     int        `gorm:"not null;default:0"`
	NotificationsSent  []string   `gorm:"type:jsonb;serializer:json"`
	CreatedIP          string     `gorm:"type:varchar(45)"`
	Notes              string     `gorm:"type:text"`
	TransferredFromID  *uuid.UUID `gorm:"type:uuid"`
	TransferredToID    *uuid.UUID `gorm:"type:uuid"`
	Rating             *int       `gorm:"type:smallint"`
	RatingComment      string     `gorm:"type:text"`
	RatedAt            *time.Time
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "tickets"
}

// ToDomain converts the model to a domain Ticket
func (m *TicketModel) ToDomain() *queue.Ticket {
	return &queue.Ticket{
		OrgAggregateRoot:   m.toOrgAggregate(),
		QueueID:            m.QueueID,
		ServiceID:          m.ServiceID,
		CustomerID:         m.CustomerID,
		CustomerPhone:      m.CustomerPhone,
		Number:             m.Number,
		Priority:           m.Priority,
		Channel:            m.Channel,
		CustomerNotes:      m.CustomerNotes,
		DocumentsBrought:   m.DocumentsBrought,
		Status:             m.Status,
		Position:           m.Position,
		AppointmentID:      m.AppointmentID,
		AppointmentTime:    m.AppointmentTime,
		PaymentID:          m.PaymentID,
		IsPaid:             m.IsPaid,
		ServingAgentID:     m.ServingAgentID,
		CalledAt:           m.CalledAt,
		ServiceStartedAt:   m.ServiceStartedAt,
		ServiceEndedAt:     m.ServiceEndedAt,
		CancelledAt:        m.CancelledAt,
		ExpiresAt:          m.ExpiresAt,
		WaitTimeMinutes:    m.WaitTimeMinutes,
		ServiceTimeMinutes: m.ServiceTimeMinutes,
		CallCount:          m.CallCount,
		ExtensionCount:     m.ExtensionCount,
		NotificationsSent:  m.NotificationsSent,
		CreatedIP:          m.CreatedIP,
		Notes:              m.Notes,
		TransferredFromID:  m.TransferredFromID,
		TransferredToID:    m.TransferredToID,
		Rating:             m.Rating,
		RatingComment:      m.RatingComment,
		RatedAt:            m.RatedAt,
	}
}

// TicketModelFromDomain builds the model for t. PriorityRank is stored so
// dispatch can order by it in SQL.
func TicketModelFromDomain(t *queue.Ticket) *TicketModel {
	m := &TicketModel{
		QueueID:            t.QueueID,
		ServiceID:          t.ServiceID,
		CustomerID:         t.CustomerID,
		CustomerPhone:      t.CustomerPhone,
		Number:             t.Number,
		Priority:           t.Priority,
		PriorityRank:       t.Priority.Rank(),
		Channel:            t.Channel,
		CustomerNotes:      t.CustomerNotes,
		DocumentsBrought:   t.DocumentsBrought,
		Status:             t.Status,
		Position:           t.Position,
		AppointmentID:      t.AppointmentID,
		AppointmentTime:    t.AppointmentTime,
		PaymentID:          t.PaymentID,
		IsPaid:             t.IsPaid,
		ServingAgentID:     t.ServingAgentID,
		CalledAt:           t.CalledAt,
		ServiceStartedAt:   t.ServiceStartedAt,
		ServiceEndedAt:     t.ServiceEndedAt,
		CancelledAt:        t.CancelledAt,
		ExpiresAt:          t.ExpiresAt,
		WaitTimeMinutes:    t.WaitTimeMinutes,
		ServiceTimeMinutes: t.ServiceTimeMinutes,
		CallCount:          t.CallCount,
		ExtensionCount:     t.ExtensionCount,
		NotificationsSent:  t.NotificationsSent,
		CreatedIP:          t.CreatedIP,
		Notes:              t.Notes,
		TransferredFromID:  t.TransferredFromID,
		TransferredToID:    t.TransferredToID,
		Rating:             t.Rating,
		RatingComment:      t.RatingComment,
		RatedAt:            t.RatedAt,
	}
	m.fromOrgAggregate(t.OrgAggregateRoot)
	return m
}
