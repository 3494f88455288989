package crossfilter

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	defaultChartHeight = "240px"
	// envEChartsCDN overrides the host ECharts assets are loaded from.
	envEChartsCDN = "CROSSFILTER_ECHARTS_CDN"

	selectedColor = "#d9822b"
	seriesAll     = "All rows"
	seriesVisible = "Filtered"
)

var sharedChartCache = NewChartCache(5 * time.Minute)

// DefaultEChartsAssetsHost returns CROSSFILTER_ECHARTS_CDN when set. An empty
// host keeps the go-echarts default.
func DefaultEChartsAssetsHost() string {
	return ensureTrailingSlash(strings.TrimSpace(os.Getenv(envEChartsCDN)))
}

// EChartsRenderer turns AnalysisResults into server-side go-echarts markup.
type EChartsRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	height     string
}

// EChartsRendererOption customizes the renderer.
type EChartsRendererOption func(*EChartsRenderer)

// WithChartCache injects a render cache. Nil disables caching.
func WithChartCache(cache RenderCache) EChartsRendererOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the ECharts theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsRendererOption {
	return func(r *EChartsRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsRendererOption {
	return func(r *EChartsRenderer) {
		r.assetsHost = ensureTrailingSlash(host)
	}
}

// WithChartHeight sets the CSS height of each chart.
func WithChartHeight(height string) EChartsRendererOption {
	return func(r *EChartsRenderer) {
		r.height = height
	}
}

// NewEChartsRenderer builds a renderer backed by the shared chart cache.
func NewEChartsRenderer(opts ...EChartsRendererOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache:      sharedChartCache,
		theme:      types.ThemeWesteros,
		assetsHost: DefaultEChartsAssetsHost(),
		height:     defaultChartHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns chart HTML for result. Empty results render a placeholder.
func (r *EChartsRenderer) Render(column ColumnDefinition, result AnalysisResult) (string, error) {
	renderFn := func() (string, error) {
		return r.render(column, result)
	}
	if r.cache == nil {
		return renderFn()
	}
	key := fmt.Sprintf("%s:%s:%s", column.ID, result.Type, resultHash(column, result, r.theme, r.assetsHost, r.height))
	return r.cache.GetOrRender(key, renderFn)
}

// RenderAll renders every result keyed by column id.
func (r *EChartsRenderer) RenderAll(columns []ColumnDefinition, results []AnalysisResult) (map[string]string, error) {
	byID := make(map[string]ColumnDefinition, len(columns))
	for _, col := range columns {
		byID[col.ID] = col
	}
	out := make(map[string]string, len(results))
	for _, result := range results {
		col, ok := byID[result.ColumnID]
		if !ok {
			col = ColumnDefinition{ID: result.ColumnID, Label: result.ColumnID}
		}
		markup, err := r.Render(col, result)
		if err != nil {
			return nil, fmt.Errorf("crossfilter: render chart %s: %w", result.ColumnID, err)
		}
		out[result.ColumnID] = markup
	}
	return out, nil
}

func (r *EChartsRenderer) render(column ColumnDefinition, result AnalysisResult) (string, error) {
	switch result.Type {
	case ChartLine:
		return r.renderLine(column, result)
	case ChartBar:
		return r.renderHistogram(column, result)
	case ChartCategory:
		return r.renderCategories(column, result)
	case ChartEmpty:
		return fmt.Sprintf(`<div class="crossfilter-empty" data-column="%s">%s</div>`,
			html.EscapeString(column.ID), html.EscapeString(NoDataSummary)), nil
	default:
		return "", fmt.Errorf("unsupported chart type: %s", result.Type)
	}
}

func (r *EChartsRenderer) renderLine(column ColumnDefinition, result AnalysisResult) (string, error) {
	points := result.ChartData.Series
	axis := make([]string, len(points))
	all := make([]opts.LineData, len(points))
	visible := make([]opts.LineData, len(points))
	for i, p := range points {
		axis[i] = p.Label
		all[i] = opts.LineData{Name: p.Label, Value: p.Value}
		visible[i] = opts.LineData{Name: p.Label, Value: p.Filtered}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalOptions(column, result)...)
	line.SetXAxis(axis)
	line.AddSeries(seriesAll, all)
	line.AddSeries(seriesVisible, visible)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return renderChart(line)
}

func (r *EChartsRenderer) renderHistogram(column ColumnDefinition, result AnalysisResult) (string, error) {
	buckets := result.ChartData.Buckets
	axis := make([]string, len(buckets))
	all := make([]opts.BarData, len(buckets))
	visible := make([]opts.BarData, len(buckets))
	for i, b := range buckets {
		axis[i] = b.Label
		all[i] = opts.BarData{Name: b.Label, Value: b.Count}
		visible[i] = r.barPoint(result, b.Label, b.Filtered)
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(column, result)...)
	bar.SetXAxis(axis)
	bar.AddSeries(seriesAll, all)
	bar.AddSeries(seriesVisible, visible)
	return renderChart(bar)
}

func (r *EChartsRenderer) renderCategories(column ColumnDefinition, result AnalysisResult) (string, error) {
	cats := result.ChartData.Categories
	axis := make([]string, len(cats))
	all := make([]opts.BarData, len(cats))
	visible := make([]opts.BarData, len(cats))
	for i, c := range cats {
		axis[i] = c.Value
		all[i] = opts.BarData{Name: c.Value, Value: c.Count}
		visible[i] = r.barPoint(result, c.Value, c.Filtered)
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(column, result)...)
	bar.SetXAxis(axis)
	bar.AddSeries(seriesAll, all)
	bar.AddSeries(seriesVisible, visible)
	return renderChart(bar)
}

func (r *EChartsRenderer) barPoint(result AnalysisResult, label string, value int) opts.BarData {
	point := opts.BarData{Name: label, Value: value}
	if result.IsSelected(label) {
		point.ItemStyle = &opts.ItemStyle{Color: selectedColor}
	}
	return point
}

func (r *EChartsRenderer) globalOptions(column ColumnDefinition, result AnalysisResult) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	subtitle := result.Summary
	if result.MedianSummary != "" {
		subtitle += " · " + result.MedianSummary
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: column.Label, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
