package crossfilter

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingRenderer struct {
	name string
	data any
}

func (r *capturingRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.name = name
	r.data = data
	for _, w := range out {
		if _, err := io.WriteString(w, "rendered"); err != nil {
			return "", err
		}
	}
	return "rendered", nil
}

func TestReportPageBuild(t *testing.T) {
	c := newTestCoordinator(t)
	_, err := c.Toggle(context.Background(), "plan", "Pro")
	require.NoError(t, err)

	page, err := NewReportPage(
		WithTemplateRenderer(&capturingRenderer{}),
		WithChartRenderer(NewEChartsRenderer(WithChartCache(nil))),
		WithPreviewRows(1),
	)
	require.NoError(t, err)
	page.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }

	view, err := page.Build("Churn risk", c)
	require.NoError(t, err)

	assert.Equal(t, "Churn risk", view.Title)
	assert.Equal(t, 4, view.TotalRows)
	assert.Equal(t, 2, view.VisibleRows)
	require.Len(t, view.Columns, 4)
	assert.Equal(t, "MRR", view.Columns[2].Label)
	assert.NotEmpty(t, view.Columns[2].ChartHTML)
	assert.Equal(t, []string{"Customer", "Plan", "MRR", "Last Active"}, view.Headers)
	assert.Equal(t, [][]string{{"Acme", "Pro", "$100.00", "Mar 1, 2024"}}, view.Rows)
	assert.Equal(t, 1, view.Truncated)
	assert.Len(t, view.Chips, 1)
}

func TestReportPageRender(t *testing.T) {
	renderer := &capturingRenderer{}
	page, err := NewReportPage(
		WithTemplateRenderer(renderer),
		WithChartRenderer(NewEChartsRenderer(WithChartCache(nil))),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, page.Render(&out, "Churn risk", newTestCoordinator(t)))

	assert.Equal(t, "rendered", out.String())
	assert.Equal(t, reportTemplate, renderer.name)
	data, ok := renderer.data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Churn risk", data["title"])
	assert.Equal(t, 4, data["visible_rows"])
}

func TestEmbeddedReportTemplateIsPresent(t *testing.T) {
	raw, err := embeddedTemplates.ReadFile("templates/report.html")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "{% for column in columns %}")
	assert.Contains(t, string(raw), "column.ChartHTML|safe")
}
