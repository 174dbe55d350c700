package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/queue"
)

// CreateQueueRequest represents a request to create a queue
type CreateQueueRequest struct {
	ServiceID            uuid.UUID          `json:"service_id" binding:"required"`
	Name                 string             `json:"name" binding:"required,min=1,max=100"`
	Description          string             `json:"description" binding:"max=500"`
	Type                 string             `json:"queue_type" binding:"omitempty,oneof=normal priority vip appointment express"`
	Strategy             string             `json:"processing_strategy" binding:"omitempty,oneof=fifo priority appointment_first mixed"`
	MaxCapacity          int                `json:"max_capacity" binding:"min=0"`
	MaxWaitTime          int                `json:"max_wait_time" binding:"omitempty,min=5"`
	TicketExpiryTime     int                `json:"ticket_expiry_time" binding:"omitempty,min=5"`
	OpeningHours         queue.OpeningHours `json:"opening_hours"`
	NotificationsEnabled *bool              `json:"notifications_enabled"`
	NotifyBeforeTurns    int                `json:"notify_before_turns" binding:"omitempty,min=1,max=10"`
	OrganizationID       *uuid.UUID         `json:"organization_id"`
}

// UpdateQueueRequest represents a request to update a queue
type UpdateQueueRequest struct {
	Name                 *string            `json:"name" binding:"omitempty,min=1,max=100"`
	Description          *string            `json:"description" binding:"omitempty,max=500"`
	Strategy             *string            `json:"processing_strategy" binding:"omitempty,oneof=fifo priority appointment_first mixed"`
	MaxCapacity          *int               `json:"max_capacity" binding:"omitempty,min=0"`
	MaxWaitTime          *int               `json:"max_wait_time" binding:"omitempty,min=5"`
	TicketExpiryTime     *int               `json:"ticket_expiry_time" binding:"omitempty,min=5"`
	OpeningHours         queue.OpeningHours `json:"opening_hours"`
	NotificationsEnabled *bool              `json:"notifications_enabled"`
	NotifyBeforeTurns    *int               `json:"notify_before_turns" binding:"omitempty,min=1,max=10"`
}

// ChangeStatusRequest represents a queue status change
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active paused closed maintenance"`
}

// QueueListFilter narrows queue listings
type QueueListFilter struct {
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search         string     `form:"search"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	ServiceID      string     `form:"service_id" binding:"omitempty,uuid"`
	Status         string     `form:"status" binding:"omitempty,oneof=active paused closed maintenance"`
	Type           string     `form:"queue_type" binding:"omitempty,oneof=normal priority vip appointment express"`
	OrganizationID *uuid.UUID `form:"-"`
}

// QueueResponse represents a queue in API responses
type QueueResponse struct {
	ID                   uuid.UUID          `json:"id"`
	OrganizationID       uuid.UUID          `json:"organization_id"`
	ServiceID            uuid.UUID          `json:"service_id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Type                 string             `json:"queue_type"`
	Status               string             `json:"status"`
	Strategy             string             `json:"processing_strategy"`
	MaxCapacity          int                `json:"max_capacity"`
	MaxWaitTime          int                `json:"max_wait_time"`
	TicketExpiryTime     int                `json:"ticket_expiry_time"`
	OpeningHours         queue.OpeningHours `json:"opening_hours,omitempty"`
	LastTicketNumber     int                `json:"last_ticket_number"`
	CurrentTicketNumber  string             `json:"current_ticket_number"`
	WaitingCount         int                `json:"waiting_tickets_count"`
	DailyIssued          int                `json:"daily_tickets_issued"`
	DailyServed          int                `json:"daily_tickets_served"`
	DailyAverageWait     int                `json:"daily_average_wait_time"`
	IsOpen               bool               `json:"is_open"`
	IsFull               bool               `json:"is_full"`
	CapacityUsage        float64            `json:"capacity_usage"`
	NotificationsEnabled bool               `json:"notifications_enabled"`
	NotifyBeforeTurns    int                `json:"notify_before_turns"`
	IsActive             bool               `json:"is_active"`
	Version              int                `json:"version"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// ToQueueResponse converts a domain queue to a response
func ToQueueResponse(q *queue.Queue) QueueResponse {
	return QueueResponse{
		ID:                   q.ID,
		OrganizationID:       q.OrganizationID,
		ServiceID:            q.ServiceID,
		Name:                 q.Name,
		Description:          q.Description,
		Type:                 string(q.Type),
		Status:               string(q.Status),
		Strategy:             string(q.Strategy),
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
		IsOpen:               q.IsOpen(),
		IsFull:               q.IsFull(),
		CapacityUsage:        q.CapacityUsage(),
		NotificationsEnabled: q.NotificationsEnabled,
		NotifyBeforeTurns:    q.NotifyBeforeTurns,
		IsActive:             q.IsActive,
		Version:              q.Version,
		CreatedAt:            q.CreatedAt,
		UpdatedAt:            q.UpdatedAt,
	}
}

// TakeTicketRequest represents a customer or agent asking for a ticket
type TakeTicketRequest struct {
	Priority      string     `json:"priority" binding:"omitempty,ticket_priority"`
	Channel       string     `json:"creation_channel" binding:"omitempty,oneof=mobile web sms kiosk counter phone"`
	CustomerNotes string     `json:"customer_notes" binding:"max=500"`
	Documents     []string   `json:"documents_brought" binding:"omitempty,max=20,dive,max=100"`
	CustomerPhone string     `json:"customer_phone" binding:"omitempty,sn_phone"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	CreatedIP     string     `json:"-"`
}

// ReasonRequest carries an optional reason for cancel and skip
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TransferRequest moves a ticket to another queue
type TransferRequest struct {
	TargetQueueID uuid.UUID `json:"target_queue_id" binding:"required"`
	Reason        string    `json:"reason" binding:"max=500"`
}

// ExtendRequest pushes the expiry of a waiting ticket
type ExtendRequest struct {
	Minutes int `json:"minutes" binding:"omitempty,min=1,max=60"`
}

// RateRequest is the customer's satisfaction score for a served ticket
type RateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}

// TicketListFilter narrows ticket listings of a queue
type TicketListFilter struct {
	Page     int      `form:"page" binding:"omitempty,min=1"`
	PageSize int      `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string   `form:"search"`
	OrderBy  string   `form:"order_by"`
	OrderDir string   `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status   []string `form:"status" binding:"omitempty,dive,oneof=waiting called serving served cancelled expired no_show transferred skipped"`
	Today    bool     `form:"today"`
}

// TicketResponse represents a ticket in API responses
type TicketResponse struct {
	ID                   uuid.UUID  `json:"id"`
	OrganizationID       uuid.UUID  `json:"organization_id"`
	QueueID              uuid.UUID  `json:"queue_id"`
	ServiceID            uuid.UUID  `json:"service_id"`
	CustomerID           *uuid.UUID `json:"customer_id,omitempty"`
	CustomerPhone        string     `json:"customer_phone,omitempty"`
	TicketNumber         string     `json:"ticket_number"`
	Priority             string     `json:"priority"`
	Channel              string     `json:"creation_channel"`
	CustomerNotes        string     `json:"customer_notes,omitempty"`
	DocumentsBrought     []string   `json:"documents_brought,omitempty"`
	Status               string     `json:"status"`
	Position             int        `json:"queue_position"`
	EstimatedWaitMinutes *int       `json:"estimated_wait_minutes,omitempty"`
	AppointmentID        *uuid.UUID `json:"appointment_id,omitempty"`
	AppointmentTime      *time.Time `json:"appointment_time,omitempty"`
	PaymentID            *uuid.UUID `json:"payment_id,omitempty"`
	IsPaid               bool       `json:"is_paid"`
	ServingAgentID       *uuid.UUID `json:"serving_agent_id,omitempty"`
	CalledAt             *time.Time `json:"called_at,omitempty"`
	ServiceStartedAt     *time.Time `json:"service_started_at,omitempty"`
	ServiceEndedAt       *time.Time `json:"service_ended_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	ExpiresAt            time.Time  `json:"expires_at"`
	WaitTimeMinutes      int        `json:"wait_time_minutes"`
	ServiceTimeMinutes   int        `json:"service_time_minutes"`
	CallCount            int        `json:"call_count"`
	ExtensionCount       int        `json:"extension_count"`
	Notes                string     `json:"notes,omitempty"`
	TransferredFromID    *uuid.UUID `json:"transferred_from_id,omitempty"`
	TransferredToID      *uuid.UUID `json:"transferred_to_id,omitempty"`
	Rating               *int       `json:"rating,omitempty"`
	RatingComment        string     `json:"rating_comment,omitempty"`
	RatedAt              *time.Time `json:"rated_at,omitempty"`
	Version              int        `json:"version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ToTicketResponse converts a domain ticket to a response
func ToTicketResponse(t *queue.Ticket) TicketResponse {
	return TicketResponse{
		ID:                 t.ID,
		OrganizationID:     t.OrganizationID,
		QueueID:            t.QueueID,
		ServiceID:          t.ServiceID,
		CustomerID:         t.CustomerID,
		CustomerPhone:      t.CustomerPhone,
		TicketNumber:       t.Number,
		Priority:           string(t.Priority),
		Channel:            string(t.Channel),
		CustomerNotes:      t.CustomerNotes,
		DocumentsBrought:   t.DocumentsBrought,
		Status:             string(t.Status),
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
		Notes:              t.Notes,
		TransferredFromID:  t.TransferredFromID,
		TransferredToID:    t.TransferredToID,
		Rating:             t.Rating,
		RatingComment:      t.RatingComment,
		RatedAt:            t.RatedAt,
		Version:            t.Version,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func toTicketResponses(tickets []queue.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = ToTicketResponse(&tickets[i])
	}
	return out
}

// TransferResponse is the outcome of a transfer
type TransferResponse struct {
	Original TicketResponse `json:"original_ticket"`
	Ticket   TicketResponse `json:"new_ticket"`
}

// DashboardResponse is what an agent sees at the counter
type DashboardResponse struct {
	Queue         QueueResponse    `json:"queue"`
	WaitingCount  int              `json:"waiting_count"`
	CurrentTicket *TicketResponse  `json:"current_ticket"`
	NextTickets   []TicketResponse `json:"next_tickets"`
	Today         TodayCounts      `json:"today"`
}

// TodayCounts are the outcomes of today's tickets
type TodayCounts struct {
	Issued    int64 `json:"issued"`
	Served    int64 `json:"served"`
	Cancelled int64 `json:"cancelled"`
	NoShow    int64 `json:"no_show"`
	Skipped   int64 `json:"skipped"`
	Expired   int64 `json:"expired"`
}

// QueueStatsResponse summarizes a queue for today
type QueueStatsResponse struct {
	QueueID              uuid.UUID   `json:"queue_id"`
	Status               string      `json:"status"`
	WaitingCount         int         `json:"waiting_count"`
	CapacityUsage        float64     `json:"capacity_usage"`
	SuccessRate          float64     `json:"success_rate"`
	AverageWaitMinutes   int         `json:"average_wait_time"`
	EstimatedWaitMinutes int         `json:"estimated_wait_time"`
	AverageRating        float64     `json:"average_rating"`
	RatingCount          int64       `json:"rating_count"`
	Today                TodayCounts `json:"today"`
}

// MyTicketsResponse is a customer's tickets
type MyTicketsResponse struct {
	Active      []TicketResponse `json:"active"`
	Recent      []TicketResponse `json:"recent"`
	SuccessRate float64          `json:"success_rate"`
}

// DailyPoint is one day of the ticket series
type DailyPoint struct {
	Date   string `json:"date"`
	Issued int64  `json:"issued"`
	Served int64  `json:"served"`
}

// TicketStatsResponse summarizes tickets for a customer or an organization
type TicketStatsResponse struct {
	ByStatus              map[string]int64 `json:"by_status"`
	Total                 int64            `json:"total"`
	AverageWaitMinutes    float64          `json:"average_wait_time"`
	AverageServiceMinutes float64          `json:"average_service_time"`
	AverageRating         float64          `json:"average_rating"`
	RatingCount           int64            `json:"rating_count"`
	TodayIssued           int64            `json:"today_issued"`
	TodayServed           int64            `json:"today_served"`
	Last7Days             []DailyPoint     `json:"last_7_days"`
}
