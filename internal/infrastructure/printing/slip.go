package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Printing errors
var (
	ErrPrintingDisabled = shared.NewDomainError("PRINTING_DISABLED", "Ticket printing is not enabled")
	ErrEmptyDocument    = shared.NewDomainError("EMPTY_DOCUMENT", "Document is empty")
	ErrRenderFailed     = shared.NewDomainError("RENDER_FAILED", "Could not render the document")
	ErrRenderTimeout    = shared.NewDomainError("RENDER_TIMEOUT", "Document rendering timed out")
)

// Slip is what a kiosk prints for a freshly issued ticket
type Slip struct {
	OrganizationName     string
	ServiceName          string
	QueueName            string
	TicketNumber         string
	Priority             string
	Position             int
	EstimatedWaitMinutes int
	IssuedAt             time.Time
	ExpiresAt            time.Time
	Location             *time.Location
}

var slipTemplate = template.Must(template.New("slip").Funcs(template.FuncMap{
	"clock": func(t time.Time, loc *time.Location) string {
		if loc != nil {
			t = t.In(loc)
		}
		return t.Format("15:04")
	},
	"date": func(t time.Time, loc *time.Location) string {
		if loc != nil {
			t = t.In(loc)
		}
		return t.Format("02/01/2006")
	},
	"upper": strings.ToUpper,
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<title>Ticket {{.TicketNumber}}</title>
<style>
  @page { size: 74mm 105mm; margin: 0; }
  body { font-family: Arial, sans-serif; margin: 0; padding: 6mm 5mm; text-align: center; }
  .org { font-size: 11pt; font-weight: bold; }
  .service { font-size: 9pt; color: #333; margin-top: 1mm; }
  .number { font-size: 40pt; font-weight: bold; margin: 5mm 0 3mm; letter-spacing: 2px; }
  .meta { font-size: 9pt; line-height: 1.5; }
  .priority { display: inline-block; border: 1px solid #000; padding: 0 2mm; font-size: 8pt; }
  .footer { font-size: 7pt; color: #555; margin-top: 4mm; }
</style>
</head>
<body>
  <div class="org">{{.OrganizationName}}</div>
  <div class="service">{{.ServiceName}}{{if .QueueName}} · {{.QueueName}}{{end}}</div>
  <div class="number">{{.TicketNumber}}</div>
  {{if .Priority}}<div class="priority">{{upper .Priority}}</div>{{end}}
  <div class="meta">
    <div>Position : {{.Position}}</div>
    <div>Attente estimée : {{.EstimatedWaitMinutes}} min</div>
    <div>Valable jusqu'à {{clock .ExpiresAt .Location}}</div>
  </div>
  <div class="footer">Émis le {{date .IssuedAt .Location}} à {{clock .IssuedAt .Location}}</div>
</body>
</html>`))

// RenderSlipHTML renders the slip page
func RenderSlipHTML(s Slip) (string, error) {
	var buf bytes.Buffer
	if err := slipTemplate.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SlipPrinter produces ticket slip PDFs
type SlipPrinter struct {
	renderer PDFRenderer
}

// NewSlipPrinter returns a printer backed by renderer. A nil renderer
// yields a printer that reports ErrPrintingDisabled.
func NewSlipPrinter(renderer PDFRenderer) *SlipPrinter {
	return &SlipPrinter{renderer: renderer}
}

// Enabled reports whether slips can be printed
func (p *SlipPrinter) Enabled() bool {
	return p != nil && p.renderer != nil
}

// PrintSlip renders s as an A7 PDF
func (p *SlipPrinter) PrintSlip(ctx context.Context, s Slip) ([]byte, error) {
	if !p.Enabled() {
		return nil, ErrPrintingDisabled
	}
	html, err := RenderSlipHTML(s)
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderPDF(ctx, html, PageA7)
}

// Close releases the renderer
func (p *SlipPrinter) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.renderer.Close()
}
