package printing

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) RenderPDF(ctx context.Context, html string, size PageSize) ([]byte, error) {
	args := m.Called(ctx, html, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockRenderer) Close() error {
	return m.Called().Error(0)
}

func testSlip() Slip {
	dakar := time.FixedZone("GMT", 0)
	issued := time.Date(2026, 10, 14, 9, 5, 0, 0, time.UTC)
	return Slip{
		OrganizationName:     "Mairie de Dakar",
		ServiceName:          "État civil",
		QueueName:            "Guichet <1>",
		TicketNumber:         "EC-007",
		Priority:             "high",
		Position:             3,
		EstimatedWaitMinutes: 15,
		IssuedAt:             issued,
		ExpiresAt:            issued.Add(2 * time.Hour),
		Location:             dakar,
	}
}

func TestRenderSlipHTML(t *testing.T) {
	html, err := RenderSlipHTML(testSlip())
	require.NoError(t, err)

	assert.Contains(t, html, "EC-007")
	assert.Contains(t, html, "Mairie de Dakar")
	assert.Contains(t, html, "Position : 3")
	assert.Contains(t, html, "15 min")
	assert.Contains(t, html, "jusqu'à 11:05")
	assert.Contains(t, html, "14/10/2026 à 09:05")
	assert.Contains(t, html, "HIGH")
	assert.Contains(t, html, "Guichet &lt;1&gt;")

	slip := testSlip()
	slip.OrganizationName = "Ministère de l'Intérieur"
	html, err = RenderSlipHTML(slip)
	require.NoError(t, err)
	assert.Contains(t, html, "Ministère de l&#39;Intérieur")
}

func TestSlipPrinter(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		p := NewSlipPrinter(nil)
		assert.False(t, p.Enabled())
		_, err := p.PrintSlip(ctx, testSlip())
		assert.ErrorIs(t, err, ErrPrintingDisabled)
		assert.NoError(t, p.Close())
	})

	t.Run("renders A7", func(t *testing.T) {
		r := new(mockRenderer)
		r.On("RenderPDF", ctx, mock.MatchedBy(func(html string) bool {
			return len(html) > 0
		}), PageA7).Return([]byte("%PDF-1.4"), nil)
		r.On("Close").Return(nil)

		p := NewSlipPrinter(r)
		pdf, err := p.PrintSlip(ctx, testSlip())
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), pdf)
		assert.NoError(t, p.Close())
		r.AssertExpectations(t)
	})

	t.Run("render failure", func(t *testing.T) {
		r := new(mockRenderer)
		r.On("RenderPDF", ctx, mock.Anything, PageA7).Return(nil, ErrRenderTimeout)

		_, err := NewSlipPrinter(r).PrintSlip(ctx, testSlip())
		assert.ErrorIs(t, err, ErrRenderTimeout)
	})
}

func TestChromedpRenderer(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{NoSandbox: true, ExecPath: "/opt/chrome"}, zaptest.NewLogger(t))
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.Timeout)
	assert.Greater(t, len(r.allocatorOptions()), len(chromedp.DefaultExecAllocatorOptions))

	_, err := r.RenderPDF(context.Background(), "   ", PageA7)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.InDelta(t, 2.913, mmToInches(PageA7.WidthMM), 0.001)
}
