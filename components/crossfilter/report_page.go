package crossfilter

import (
	"embed"
	"fmt"
	"io"
	"time"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const (
	reportTemplate       = "report"
	defaultPreviewRows   = 50
	reportTimestampStyle = "Jan 2, 2006 15:04 MST"
)

// Renderer describes the template renderer contract used by ReportPage.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded templates.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// ReportView is the data handed to the report template.
type ReportView struct {
	Title       string
	SessionID   string
	TotalRows   int
	VisibleRows int
	Columns     []ColumnView
	Chips       []FilterChip
	Headers     []string
	Rows        [][]string
	Truncated   int
	GeneratedAt time.Time
}

// ColumnView pairs a column's summary with its rendered chart.
type ColumnView struct {
	ID            string
	Label         string
	Type          ChartType
	Summary       string
	MedianSummary string
	ChartHTML     string
}

// ReportPage renders a static HTML page for a coordinator's current state.
type ReportPage struct {
	renderer    Renderer
	charts      *EChartsRenderer
	previewRows int
	now         func() time.Time
}

// ReportPageOption customizes a ReportPage.
type ReportPageOption func(*ReportPage)

// WithTemplateRenderer swaps the embedded go-template renderer.
func WithTemplateRenderer(r Renderer) ReportPageOption {
	return func(p *ReportPage) {
		p.renderer = r
	}
}

// WithChartRenderer sets the chart renderer.
func WithChartRenderer(r *EChartsRenderer) ReportPageOption {
	return func(p *ReportPage) {
		p.charts = r
	}
}

// WithPreviewRows caps the table preview. Zero hides the table.
func WithPreviewRows(n int) ReportPageOption {
	return func(p *ReportPage) {
		if n >= 0 {
			p.previewRows = n
		}
	}
}

// NewReportPage builds a page renderer using the embedded templates.
func NewReportPage(opts ...ReportPageOption) (*ReportPage, error) {
	p := &ReportPage{previewRows: defaultPreviewRows, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.renderer == nil {
		r, err := NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("crossfilter: init template renderer: %w", err)
		}
		p.renderer = r
	}
	if p.charts == nil {
		p.charts = NewEChartsRenderer()
	}
	return p, nil
}

// Build assembles the view for the coordinator's current state.
func (p *ReportPage) Build(title string, c *Coordinator) (ReportView, error) {
	columns := c.Columns()
	results := c.Results()
	charts, err := p.charts.RenderAll(columns, results)
	if err != nil {
		return ReportView{}, err
	}
	view := ReportView{
		Title:       title,
		SessionID:   c.SessionID(),
		TotalRows:   c.TotalRows(),
		Chips:       c.Chips(),
		GeneratedAt: p.now(),
	}
	for _, result := range results {
		label := result.ColumnID
		for _, col := range columns {
			if col.ID == result.ColumnID {
				label = col.Label
				break
			}
		}
		view.Columns = append(view.Columns, ColumnView{
			ID:            result.ColumnID,
			Label:         label,
			Type:          result.Type,
			Summary:       result.Summary,
			MedianSummary: result.MedianSummary,
			ChartHTML:     charts[result.ColumnID],
		})
	}

	visible := c.VisibleRows()
	view.VisibleRows = len(visible)
	preview := visible
	if len(preview) > p.previewRows {
		preview = preview[:p.previewRows]
		view.Truncated = len(visible) - p.previewRows
	}
	if len(preview) > 0 {
		for _, col := range columns {
			view.Headers = append(view.Headers, col.Label)
		}
		for _, row := range preview {
			cells := make([]string, len(columns))
			for i, col := range columns {
				cells[i] = FormatValue(row.Get(col.ID), col)
			}
			view.Rows = append(view.Rows, cells)
		}
	}
	return view, nil
}

// Render writes the page for c to out.
func (p *ReportPage) Render(out io.Writer, title string, c *Coordinator) error {
	view, err := p.Build(title, c)
	if err != nil {
		return err
	}
	return p.RenderView(out, view)
}

// RenderView writes a prepared view to out.
func (p *ReportPage) RenderView(out io.Writer, view ReportView) error {
	data := map[string]any{
		"title":        view.Title,
		"session_id":   view.SessionID,
		"total_rows":   view.TotalRows,
		"visible_rows": view.VisibleRows,
		"columns":      view.Columns,
		"chips":        view.Chips,
		"headers":      view.Headers,
		"rows":         view.Rows,
		"truncated":    view.Truncated,
		"generated_at": view.GeneratedAt.Format(reportTimestampStyle),
	}
	if _, err := p.renderer.Render(reportTemplate, data, out); err != nil {
		return fmt.Errorf("crossfilter: render report page: %w", err)
	}
	return nil
}
