package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/queue"
	dailyreport "github.com/smartqueue/backend/internal/domain/report"
	"github.com/smartqueue/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DateLayout is the day format of report requests and file names
const DateLayout = "2006-01-02"

// ContentType is the media type of rendered reports
const ContentType = "text/csv; charset=utf-8"

var (
	ErrQueueNotFound = shared.NewDomainError("QUEUE_NOT_FOUND", "Queue not found")
	ErrInvalidDate   = shared.NewDomainError("INVALID_DATE", "Date must use the YYYY-MM-DD format")
)

var header = []string{
	"ticket_number", "status", "priority", "channel", "created_at",
	"called_at", "served_at", "wait_minutes", "service_minutes",
}

// Report is a rendered daily report
type Report struct {
	Filename string
	Data     []byte
	Summary  dailyreport.Summary
}

// ReportService renders per-queue daily CSV reports
type ReportService struct {
	organizations organization.OrganizationRepository
	queues        queue.QueueRepository
	tickets       queue.TicketRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	organizations organization.OrganizationRepository,
	queues queue.QueueRepository,
	tickets queue.TicketRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		organizations: organizations,
		queues:        queues,
		tickets:       tickets,
		logger:        logger,
		now:           time.Now,
	}
}

// ParseDay parses a YYYY-MM-DD day; an empty value yields the zero time, meaning today
func ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

// DailyReport renders the report of a queue for one calendar day. Staff only.
func (s *ReportService) DailyReport(ctx context.Context, actor identity.Actor, queueID uuid.UUID, day time.Time) (*Report, error) {
	q, err := s.queues.FindByID(ctx, queueID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, err
	}
	if !actor.CanManage(q.OrganizationID) {
		return nil, shared.ErrForbidden
	}
	return s.Render(ctx, q, day)
}

// Render renders the report of q for a calendar day, taken from the year, month and
// day of day in the organization's time zone. The zero time means today.
func (s *ReportService) Render(ctx context.Context, q *queue.Queue, day time.Time) (*Report, error) {
	org, err := s.organizations.FindByID(ctx, q.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	loc := org.Location()
	if day.IsZero() {
		day = s.now().In(loc)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	tickets, err := s.dayTickets(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	daily := dailyreport.NewDailyReport(q, start, tickets)

	data, err := encodeCSV(daily, loc)
	if err != nil {
		return nil, err
	}
	return &Report{
		Filename: fmt.Sprintf("%s-%s.csv", q.Name, start.Format(DateLayout)),
		Data:     data,
		Summary:  daily.Summary,
	}, nil
}

// encodeCSV writes one row per ticket followed by the summary block
func encodeCSV(daily *dailyreport.DailyReport, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range daily.Rows {
		record := []string{
			row.Number,
			string(row.Status),
			row.Priority,
			row.Channel,
			formatTime(&row.CreatedAt, loc),
			formatTime(row.CalledAt, loc),
			formatTime(row.ServedAt, loc),
			formatMinutes(row.WaitMinutes),
			formatMinutes(row.ServiceMinutes),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	summary := daily.Summary
	if err := w.WriteAll([][]string{
		{},
		{"issued", strconv.Itoa(summary.Issued)},
		{"served", strconv.Itoa(summary.Served)},
		{"cancelled", strconv.Itoa(summary.Cancelled)},
		{"no_show", strconv.Itoa(summary.NoShow)},
		{"average_wait_minutes", formatMinutes(&summary.AverageWaitMinutes)},
		{"service_rate", strconv.FormatFloat(summary.ServiceRate(), 'f', 1, 64)},
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dayTickets pages through the tickets issued in [start, end), oldest first
func (s *ReportService) dayTickets(ctx context.Context, q *queue.Queue, start, end time.Time) ([]queue.Ticket, error) {
	queueID := q.ID
	var out []queue.Ticket
	for page := 1; ; page++ {
		rows, err := s.tickets.FindAll(ctx, q.OrganizationID, queue.TicketFilter{
			Filter: shared.Filter{
				Page:     page,
				PageSize: shared.MaxPageSize,
				OrderBy:  "created_at",
				OrderDir: "asc",
			}.Normalize(),
			QueueID: &queueID,
			Since:   &start,
			Until:   &end,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(rows) < shared.MaxPageSize {
			return out, nil
		}
	}
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04:05")
}

func formatMinutes(m *float64) string {
	if m == nil {
		return ""
	}
	return strconv.FormatFloat(*m, 'f', 1, 64)
}
