package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/smartqueue/backend/internal/domain/organization"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/queue"
	"github.com/smartqueue/backend/internal/domain/shared"
)

func newTestQueueMetrics(t *testing.T) (*QueueMetrics, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewQueueMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, p := range sum.DataPoints {
		total += p.Value
	}
	return total
}

func testTicket() *queue.Ticket {
	return &queue.Ticket{
		OrgAggregateRoot:   shared.NewOrgAggregateRoot(uuid.New()),
		QueueID:            uuid.New(),
		Number:             "A-001",
		Priority:           organization.PriorityMedium,
		Channel:            queue.ChannelMobile,
		Status:             queue.TicketServed,
		WaitTimeMinutes:    12,
		ServiceTimeMinutes: 4,
	}
}

func TestNewQueueMetrics_NilMeter(t *testing.T) {
	_, err := NewQueueMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestQueueMetrics_Handle(t *testing.T) {
	m, reader := newTestQueueMetrics(t)
	ctx := context.Background()
	ticket := testTicket()

	require.NoError(t, m.Handle(ctx, queue.NewTicketIssuedEvent(ticket)))
	require.NoError(t, m.Handle(ctx, queue.NewTicketIssuedEvent(ticket)))
	require.NoError(t, m.Handle(ctx, queue.NewTicketCalledEvent(ticket, nil)))
	require.NoError(t, m.Handle(ctx, queue.NewTicketServedEvent(ticket)))
	require.NoError(t, m.Handle(ctx, queue.NewTicketStatusEvent(queue.EventTypeTicketCancelled, ticket, "")))

	p := &payment.Payment{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(ticket.OrganizationID),
		Number:           "PAY-1",
		Type:             payment.TypeTicketFee,
		Provider:         payment.ProviderWave,
		Amount:           decimal.NewFromInt(500),
	}
	require.NoError(t, m.Handle(ctx, payment.NewPaymentCompletedEvent(p)))

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["smartqueue_tickets_issued_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["smartqueue_tickets_called_total"]))
	assert.Equal(t, int64(2), sumOf(t, data["smartqueue_tickets_completed_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["smartqueue_payments_total"]))

	wait, ok := data["smartqueue_ticket_wait_minutes"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, wait.DataPoints, 1)
	assert.Equal(t, uint64(1), wait.DataPoints[0].Count)
	assert.Equal(t, 12.0, wait.DataPoints[0].Sum)
}

func TestQueueMetrics_EventTypes(t *testing.T) {
	m, _ := newTestQueueMetrics(t)
	types := m.EventTypes()
	assert.Contains(t, types, queue.EventTypeTicketIssued)
	assert.Contains(t, types, payment.EventTypePaymentFailed)
}
