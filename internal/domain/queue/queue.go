package queue

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Type is the kind of queue offered for a service
type Type string

const (
	TypeNormal      Type = "normal"
	TypePriority    Type = "priority"
	TypeVIP         Type = "vip"
	TypeAppointment Type = "appointment"
	TypeExpress     Type = "express"
)

// IsValid checks if the queue type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeNormal, TypePriority, TypeVIP, TypeAppointment, TypeExpress:
		return true
	}
	return false
}

// Status is the operating status of a queue
type Status string

const (
	StatusActive      Status = "active"
	StatusPaused      Status = "paused"
	StatusClosed      Status = "closed"
	StatusMaintenance Status = "maintenance"
)

// IsValid checks if the queue status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusClosed, StatusMaintenance:
		return true
	}
	return false
}

const (
	MinWaitTimeMinutes   = 5
	DefaultMaxWaitTime   = 120
	DefaultTicketExpiry  = 30
	DefaultNotifyBefore  = 3
	MaxNotifyBeforeTurns = 10
	DefaultTicketPrefix  = "T"
	ticketNumberDigits   = 3
)

// DayHours is the opening window of one weekday, both ends in HH:MM
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OpeningHours maps a lower-case English weekday name to its opening window
type OpeningHours map[string]DayHours

// Validate checks weekday names and HH:MM times
func (h OpeningHours) Validate() error {
	for day, hours := range h {
		if !isWeekday(day) {
			return shared.NewDomainErrorf("INVALID_OPENING_HOURS", "Unknown weekday: %s", day)
		}
		open, err := parseClock(hours.Open)
		if err != nil {
			return err
		}
		closing, err := parseClock(hours.Close)
		if err != nil {
			return err
		}
		if closing <= open {
			return shared.NewDomainErrorf("INVALID_OPENING_HOURS", "Closing time must be after opening time on %s", day)
		}
	}
	return nil
}

// IsOpenAt reports whether t falls in the opening window of its weekday.
// An empty map means no restriction.
func (h OpeningHours) IsOpenAt(t time.Time) bool {
	if len(h) == 0 {
		return true
	}
	hours, ok := h[strings.ToLower(t.Weekday().String())]
	if !ok {
		return false
	}
	open, err1 := parseClock(hours.Open)
	closing, err2 := parseClock(hours.Close)
	if err1 != nil || err2 != nil {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= open && minute < closing
}

func isWeekday(day string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == day {
			return true
		}
	}
	return false
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, shared.NewDomainErrorf("INVALID_OPENING_HOURS", "Invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Queue is a waiting line for one service of an organization.
// Its counters are only changed inside the transaction that holds the queue row lock.
type Queue struct {
	shared.OrgAggregateRoot
	ServiceID            uuid.UUID
	Name                 string
	Description          string
	Type                 Type
	Status               Status
	Strategy             Strategy
	MaxCapacity          int
	MaxWaitTime          int
	TicketExpiryTime     int
	OpeningHours         OpeningHours
	LastTicketNumber     int
	CurrentTicketNumber  string
	WaitingCount         int
	StatsDate            time.Time
	DailyIssued          int
	DailyServed          int
	DailyAverageWait     int
	NotificationsEnabled bool
	NotifyBeforeTurns    int
	IsActive             bool
}

// NewQueue creates a closed queue with default limits
func NewQueue(organizationID, serviceID uuid.UUID, name string, queueType Type, strategy Strategy) (*Queue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Queue name cannot be empty")
	}
	if serviceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SERVICE", "Queue must belong to a service")
	}
	if queueType == "" {
		queueType = TypeNormal
	}
	if !queueType.IsValid() {
		return nil, shared.NewDomainError("INVALID_QUEUE_TYPE", "Invalid queue type")
	}
	if strategy == "" {
		strategy = StrategyFIFO
	}
	if !strategy.IsValid() {
		return nil, shared.NewDomainError("INVALID_STRATEGY", "Invalid processing strategy")
	}

	return &Queue{
		OrgAggregateRoot:     shared.NewOrgAggregateRoot(organizationID),
		ServiceID:            serviceID,
		Name:                 name,
		Type:                 queueType,
		Status:               StatusClosed,
		Strategy:             strategy,
		MaxWaitTime:          DefaultMaxWaitTime,
		TicketExpiryTime:     DefaultTicketExpiry,
		NotificationsEnabled: true,
		NotifyBeforeTurns:    DefaultNotifyBefore,
		IsActive:             true,
	}, nil
}

// Configure changes the limits of the queue
func (q *Queue) Configure(maxCapacity, maxWaitTime, ticketExpiryTime int) error {
	if maxCapacity < 0 {
		return shared.NewDomainError("INVALID_CAPACITY", "Max capacity cannot be negative")
	}
	if maxWaitTime < MinWaitTimeMinutes {
		return shared.NewDomainErrorf("INVALID_WAIT_TIME", "Max wait time must be at least %d minutes", MinWaitTimeMinutes)
	}
	if ticketExpiryTime < MinWaitTimeMinutes {
		return shared.NewDomainErrorf("INVALID_EXPIRY_TIME", "Ticket expiry time must be at least %d minutes", MinWaitTimeMinutes)
	}
	q.MaxCapacity = maxCapacity
	q.MaxWaitTime = maxWaitTime
	q.TicketExpiryTime = ticketExpiryTime
	q.Touch()
	return nil
}

// ConfigureNotifications sets whether customers get SMS alerts and how many turns ahead
func (q *Queue) ConfigureNotifications(enabled bool, notifyBeforeTurns int) error {
	if notifyBeforeTurns < 1 || notifyBeforeTurns > MaxNotifyBeforeTurns {
		return shared.NewDomainErrorf("INVALID_NOTIFY_BEFORE", "Notify before turns must be between 1 and %d", MaxNotifyBeforeTurns)
	}
	q.NotificationsEnabled = enabled
	q.NotifyBeforeTurns = notifyBeforeTurns
	q.Touch()
	return nil
}

// SetStrategy changes the processing strategy
func (q *Queue) SetStrategy(strategy Strategy) error {
	if !strategy.IsValid() {
		return shared.NewDomainError("INVALID_STRATEGY", "Invalid processing strategy")
	}
	q.Strategy = strategy
	q.Touch()
	return nil
}

// SetOpeningHours replaces the opening hours after validating them
func (q *Queue) SetOpeningHours(hours OpeningHours) error {
	if err := hours.Validate(); err != nil {
		return err
	}
	q.OpeningHours = hours
	q.Touch()
	return nil
}

// IsOpen reports whether the queue accepts and dispatches tickets
func (q *Queue) IsOpen() bool {
	return q.Status == StatusActive && q.IsActive
}

// IsFull reports whether the waiting line reached its capacity
func (q *Queue) IsFull() bool {
	return q.MaxCapacity > 0 && q.WaitingCount >= q.MaxCapacity
}

// CapacityUsage returns the waiting count as a percentage of capacity, 0 when unlimited
func (q *Queue) CapacityUsage() float64 {
	if q.MaxCapacity <= 0 {
		return 0
	}
	return math.Round(float64(q.WaitingCount)/float64(q.MaxCapacity)*1000) / 10
}

// EstimatedWaitTime returns the expected wait in minutes for a newcomer
func (q *Queue) EstimatedWaitTime(serviceDuration int) int {
	return q.WaitingCount * serviceDuration
}

// Pause stops dispatch temporarily
func (q *Queue) Pause() error {
	if q.Status == StatusPaused {
		return shared.NewDomainError("ALREADY_PAUSED", "Queue is already paused")
	}
	if q.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pause queue in %s status", q.Status))
	}
	return q.setStatus(StatusPaused)
}

// Resume restarts a paused queue
func (q *Queue) Resume() error {
	if q.Status != StatusPaused {
		return shared.NewDomainError("NOT_PAUSED", "Queue is not paused")
	}
	return q.setStatus(StatusActive)
}

// Open activates the queue
func (q *Queue) Open() error {
	return q.ChangeStatus(StatusActive)
}

// Close closes the queue. Waiting tickets stay in place.
func (q *Queue) Close() error {
	return q.ChangeStatus(StatusClosed)
}

// ChangeStatus moves the queue to any other valid status
func (q *Queue) ChangeStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid queue status")
	}
	if q.Status == status {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Queue is already %s", status))
	}
	return q.setStatus(status)
}

func (q *Queue) setStatus(status Status) error {
	previous := q.Status
	q.Status = status
	q.Touch()
	q.AddDomainEvent(NewQueueStatusChangedEvent(q, previous))
	return nil
}

// rollDay zeroes daily counters when the stats day differs from today
func (q *Queue) rollDay(now time.Time) {
	if sameDay(q.StatsDate, now) {
		return
	}
	q.StatsDate = truncateDay(now)
	q.LastTicketNumber = 0
	q.DailyIssued = 0
	q.DailyServed = 0
	q.DailyAverageWait = 0
}

// IssueNumber reserves the next ticket number and counts the newcomer as waiting.
// now should already be in the organization's time zone.
func (q *Queue) IssueNumber(prefix string, now time.Time) string {
	q.rollDay(now)
	q.LastTicketNumber++
	q.WaitingCount++
	q.DailyIssued++
	q.Touch()
	return FormatTicketNumber(prefix, q.LastTicketNumber)
}

// RecordCall sets the current ticket number; a called waiting ticket leaves the waiting line
func (q *Queue) RecordCall(ticketNumber string, wasWaiting bool) {
	q.CurrentTicketNumber = ticketNumber
	if wasWaiting {
		q.RecordLeftWaiting()
	}
	q.Touch()
}

// RecordServed counts a served ticket and updates the running average wait
func (q *Queue) RecordServed(waitMinutes int, now time.Time) {
	q.rollDay(now)
	q.DailyServed++
	avg := float64(q.DailyAverageWait)
	avg += (float64(waitMinutes) - avg) / float64(q.DailyServed)
	q.DailyAverageWait = int(math.Round(avg))
	q.Touch()
}

// RecordLeftWaiting removes one ticket from the waiting count
func (q *Queue) RecordLeftWaiting() {
	if q.WaitingCount > 0 {
		q.WaitingCount--
	}
	q.Touch()
}

// RecordArrival adds a ticket to the waiting count without consuming a number
func (q *Queue) RecordArrival() {
	q.WaitingCount++
	q.Touch()
}

// ResetDaily zeroes the daily counters; waiting is the actual number of waiting tickets
func (q *Queue) ResetDaily(waiting int, now time.Time) {
	q.StatsDate = truncateDay(now)
	q.LastTicketNumber = 0
	q.CurrentTicketNumber = ""
	q.DailyIssued = 0
	q.DailyServed = 0
	q.DailyAverageWait = 0
	if waiting < 0 {
		waiting = 0
	}
	q.WaitingCount = waiting
	q.Touch()
	q.AddDomainEvent(NewQueueDailyResetEvent(q))
}

// FormatTicketNumber joins the prefix and the zero-padded sequence number, e.g. B007
func FormatTicketNumber(prefix string, number int) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultTicketPrefix
	} else {
		prefix = string([]rune(prefix)[:1])
	}
	return fmt.Sprintf("%s%0*d", prefix, ticketNumberDigits, number)
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
