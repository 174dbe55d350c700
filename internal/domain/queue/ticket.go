package queue

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// TicketStatus is the lifecycle status of a ticket
type TicketStatus string

const (
	TicketWaiting     TicketStatus = "waiting"
	TicketCalled      TicketStatus = "called"
	TicketServing     TicketStatus = "serving"
	TicketServed      TicketStatus = "served"
	TicketCancelled   TicketStatus = "cancelled"
	TicketExpired     TicketStatus = "expired"
	TicketNoShow      TicketStatus = "no_show"
	TicketTransferred TicketStatus = "transferred"
	TicketSkipped     TicketStatus = "skipped"
)

// ActiveStatuses are the statuses of tickets still in the line or at a counter
var ActiveStatuses = []TicketStatus{TicketWaiting, TicketCalled, TicketServing}

// IsValid checks if the ticket status is valid
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketWaiting, TicketCalled, TicketServing, TicketServed, TicketCancelled,
		TicketExpired, TicketNoShow, TicketTransferred, TicketSkipped:
		return true
	}
	return false
}

// IsActive reports whether the ticket still awaits or receives service
func (s TicketStatus) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

// IsTerminal reports whether the ticket is finished
func (s TicketStatus) IsTerminal() bool {
	return s.IsValid() && !s.IsActive()
}

// Channel is how the ticket was taken
type Channel string

const (
	ChannelMobile  Channel = "mobile"
	ChannelWeb     Channel = "web"
	ChannelSMS     Channel = "sms"
	ChannelKiosk   Channel = "kiosk"
	ChannelCounter Channel = "counter"
	ChannelPhone   Channel = "phone"
)

// IsValid checks if the channel is valid
func (c Channel) IsValid() bool {
	switch c {
	case ChannelMobile, ChannelWeb, ChannelSMS, ChannelKiosk, ChannelCounter, ChannelPhone:
		return true
	}
	return false
}

const (
	MaxCustomerNotes      = 500
	DefaultExtendMinutes  = 15
	MaxExtendMinutes      = 60
	MaxExtensions         = 2
	DefaultSkipReason     = "Client absent"
	DefaultTransferReason = "Transfert demandé"
	PaymentFailedReason   = "payment failed"
	MinRating             = 1
	MaxRating             = 5
	MaxRatingComment      = 1000
)

// Notification kinds tracked on the ticket so each is sent once
const (
	NotificationIssued          = "ticket_issued"
	NotificationCalled          = "ticket_called"
	NotificationTurnApproaching = "turn_approaching"
)

// Ticket is a customer's place in a queue
type Ticket struct {
	shared.OrgAggregateRoot
	QueueID            uuid.UUID
	ServiceID          uuid.UUID
	CustomerID         *uuid.UUID
	CustomerPhone      string
	Number             string
	Priority           organization.Priority
	Channel            Channel
	CustomerNotes      string
	DocumentsBrought   []string
	Status             TicketStatus
	Position           int
	AppointmentID      *uuid.UUID
	AppointmentTime    *time.Time
	PaymentID          *uuid.UUID
	IsPaid             bool
	ServingAgentID     *uuid.UUID
	CalledAt           *time.Time
	ServiceStartedAt   *time.Time
	ServiceEndedAt     *time.Time
	CancelledAt        *time.Time
	ExpiresAt          time.Time
	WaitTimeMinutes    int
	ServiceTimeMinutes int
	CallCount          int
	ExtensionCount     int
	NotificationsSent  []string
	CreatedIP          string
	Notes              string
	TransferredFromID  *uuid.UUID
	TransferredToID    *uuid.UUID
	Rating             *int
	RatingComment      string
	RatedAt            *time.Time
}

// IssueOptions describes the ticket a customer or agent asks for
type IssueOptions struct {
	CustomerID      *uuid.UUID
	CustomerPhone   string
	Priority        organization.Priority
	Channel         Channel
	CustomerNotes   string
	Documents       []string
	AppointmentID   *uuid.UUID
	AppointmentTime *time.Time
	PaymentID       *uuid.UUID
	IsPaid          bool
	CreatedIP       string
}

func (o IssueOptions) validate() error {
	if !o.Priority.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Invalid ticket priority")
	}
	if !o.Channel.IsValid() {
		return shared.NewDomainError("INVALID_CHANNEL", "Invalid creation channel")
	}
	if utf8.RuneCountInString(o.CustomerNotes) > MaxCustomerNotes {
		return shared.NewDomainErrorf("INVALID_NOTES", "Customer notes cannot exceed %d characters", MaxCustomerNotes)
	}
	return nil
}

func newTicket(q *Queue, number string, position int, opts IssueOptions, now time.Time) *Ticket {
	t := &Ticket{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(q.OrganizationID),
		QueueID:          q.ID,
		ServiceID:        q.ServiceID,
		CustomerID:       opts.CustomerID,
		CustomerPhone:    opts.CustomerPhone,
		Number:           number,
		Priority:         opts.Priority,
		Channel:          opts.Channel,
		CustomerNotes:    opts.CustomerNotes,
		DocumentsBrought: opts.Documents,
		Status:           TicketWaiting,
		Position:         position,
		AppointmentID:    opts.AppointmentID,
		AppointmentTime:  opts.AppointmentTime,
		PaymentID:        opts.PaymentID,
		IsPaid:           opts.IsPaid,
		ExpiresAt:        now.Add(time.Duration(q.TicketExpiryTime) * time.Minute),
		CreatedIP:        opts.CreatedIP,
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return t
}

// HasAppointment reports whether the ticket was issued for an appointment
func (t *Ticket) HasAppointment() bool {
	return t.AppointmentID != nil
}

// IsOwnedBy reports whether the customer holds this ticket
func (t *Ticket) IsOwnedBy(customerID uuid.UUID) bool {
	return t.CustomerID != nil && *t.CustomerID == customerID
}

// IsExpiredAt reports whether a waiting ticket passed its expiry time
func (t *Ticket) IsExpiredAt(now time.Time) bool {
	return t.Status == TicketWaiting && now.After(t.ExpiresAt)
}

func (t *Ticket) guard(action Action) error {
	if !CanPerform(action, t.Status) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot %s ticket in %s status", strings.ReplaceAll(string(action), "_", " "), t.Status))
	}
	return nil
}

func (t *Ticket) appendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if t.Notes == "" {
		t.Notes = note
		return
	}
	t.Notes += "\n" + note
}

func minutesBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Minutes())
}

// Call calls a waiting ticket to a counter
func (t *Ticket) Call(agentID *uuid.UUID, now time.Time) error {
	if err := t.guard(ActionCall); err != nil {
		return err
	}
	t.markCalled(agentID, now)
	t.AddDomainEvent(NewTicketCalledEvent(t, agentID))
	return nil
}

// CallAgain calls the ticket once more, e.g. when the customer did not come forward
func (t *Ticket) CallAgain(agentID *uuid.UUID, now time.Time) error {
	if err := t.guard(ActionCallAgain); err != nil {
		return err
	}
	t.markCalled(agentID, now)
	t.AddDomainEvent(NewTicketRecalledEvent(t, agentID))
	return nil
}

func (t *Ticket) markCalled(agentID *uuid.UUID, now time.Time) {
	if t.Status == TicketWaiting {
		t.WaitTimeMinutes = minutesBetween(t.CreatedAt, now)
	}
	t.Status = TicketCalled
	t.CalledAt = &now
	t.CallCount++
	if agentID != nil {
		t.ServingAgentID = agentID
	}
	t.UpdatedAt = now
}

// StartServing marks the customer as being served at the counter
func (t *Ticket) StartServing(agentID uuid.UUID, now time.Time) error {
	if err := t.guard(ActionStartServing); err != nil {
		return err
	}
	t.Status = TicketServing
	t.ServiceStartedAt = &now
	t.ServingAgentID = &agentID
	t.UpdatedAt = now
	t.AddDomainEvent(NewTicketServingStartedEvent(t))
	return nil
}

// MarkServed completes the ticket
func (t *Ticket) MarkServed(now time.Time) error {
	if err := t.guard(ActionServe); err != nil {
		return err
	}
	start := t.ServiceStartedAt
	if start == nil {
		start = t.CalledAt
	}
	if start != nil {
		t.ServiceTimeMinutes = minutesBetween(*start, now)
	}
	t.Status = TicketServed
	t.ServiceEndedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewTicketServedEvent(t))
	return nil
}

// Cancel cancels the ticket
func (t *Ticket) Cancel(reason string, now time.Time) error {
	if err := t.guard(ActionCancel); err != nil {
		return err
	}
	t.Status = TicketCancelled
	t.CancelledAt = &now
	t.UpdatedAt = now
	if reason != "" {
		t.appendNote("Annulé: " + reason)
	}
	t.AddDomainEvent(NewTicketStatusEvent(EventTypeTicketCancelled, t, reason))
	return nil
}

// Skip moves past a ticket whose customer is absent
func (t *Ticket) Skip(reason string, now time.Time) error {
	if err := t.guard(ActionSkip); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultSkipReason
	}
	t.Status = TicketSkipped
	t.UpdatedAt = now
	t.appendNote("Ignoré: " + reason)
	t.AddDomainEvent(NewTicketStatusEvent(EventTypeTicketSkipped, t, reason))
	return nil
}

// MarkNoShow records that a called customer never came to the counter
func (t *Ticket) MarkNoShow(now time.Time) error {
	if err := t.guard(ActionNoShow); err != nil {
		return err
	}
	t.Status = TicketNoShow
	t.UpdatedAt = now
	t.AddDomainEvent(NewTicketStatusEvent(EventTypeTicketNoShow, t, ""))
	return nil
}

// Expire expires a waiting ticket past its expiry time
func (t *Ticket) Expire(now time.Time) error {
	if err := t.guard(ActionExpire); err != nil {
		return err
	}
	if !now.After(t.ExpiresAt) {
		return shared.NewDomainError("NOT_EXPIRED", "Ticket has not reached its expiry time")
	}
	t.Status = TicketExpired
	t.UpdatedAt = now
	t.AddDomainEvent(NewTicketStatusEvent(EventTypeTicketExpired, t, ""))
	return nil
}

// Extend pushes the expiry of a waiting ticket; 0 minutes means the default
func (t *Ticket) Extend(minutes int, now time.Time) error {
	if err := t.guard(ActionExtend); err != nil {
		return err
	}
	if minutes == 0 {
		minutes = DefaultExtendMinutes
	}
	if minutes < 1 || minutes > MaxExtendMinutes {
		return shared.NewDomainErrorf("INVALID_EXTENSION", "Extension must be between 1 and %d minutes", MaxExtendMinutes)
	}
	if t.ExtensionCount >= MaxExtensions {
		return shared.NewDomainErrorf("MAX_EXTENSIONS_REACHED", "A ticket can be extended at most %d times", MaxExtensions)
	}
	t.ExpiresAt = t.ExpiresAt.Add(time.Duration(minutes) * time.Minute)
	t.ExtensionCount++
	t.UpdatedAt = now
	t.AddDomainEvent(NewTicketExtendedEvent(t, minutes))
	return nil
}

// Rate records the satisfaction score the customer gives a served ticket.
// A ticket is rated once.
func (t *Ticket) Rate(customerID uuid.UUID, score int, comment string, now time.Time) error {
	if !t.IsOwnedBy(customerID) {
		return shared.NewDomainError("FORBIDDEN", "Only the ticket holder can rate it")
	}
	if t.Status != TicketServed {
		return shared.NewDomainError("INVALID_STATE", "Only served tickets can be rated")
	}
	if t.Rating != nil {
		return shared.NewDomainError("ALREADY_RATED", "This ticket has already been rated")
	}
	if score < MinRating || score > MaxRating {
		return shared.NewDomainErrorf("INVALID_RATING", "Rating must be between %d and %d", MinRating, MaxRating)
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxRatingComment {
		return shared.NewDomainErrorf("INVALID_COMMENT", "Comment cannot exceed %d characters", MaxRatingComment)
	}
	t.Rating = &score
	t.RatingComment = comment
	t.RatedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewTicketRatedEvent(t))
	return nil
}

// MarkPaid links a completed payment to the ticket
func (t *Ticket) MarkPaid(paymentID uuid.UUID) {
	t.PaymentID = &paymentID
	t.IsPaid = true
	t.Touch()
}

// RecordNotification remembers a sent notification kind; false if it was already sent
func (t *Ticket) RecordNotification(kind string) bool {
	if slices.Contains(t.NotificationsSent, kind) {
		return false
	}
	t.NotificationsSent = append(t.NotificationsSent, kind)
	t.Touch()
	return true
}
