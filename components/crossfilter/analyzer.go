package crossfilter

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultCategoryCap is how many categories are listed before collapsing
	// the rest into an overflow entry.
	DefaultCategoryCap = 4
	// DefaultMaxBuckets bounds the histogram bucket count.
	DefaultMaxBuckets = 10
	// NoDataSummary is shown when a column has nothing to summarize.
	NoDataSummary = "No data"

	uniqueValuesThreshold = 10
)

// Analyzer turns a column and its rows into chart-ready summaries.
// It is stateless apart from configuration and safe for concurrent use.
type Analyzer struct {
	dateColumn  string
	categoryCap int
	maxBuckets  int
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithDateColumn sets the column used to place string values on a timeline.
func WithDateColumn(id string) AnalyzerOption {
	return func(a *Analyzer) {
		a.dateColumn = id
	}
}

// WithCategoryCap overrides the number of categories listed individually.
func WithCategoryCap(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.categoryCap = n
		}
	}
}

// WithMaxBuckets overrides the histogram bucket ceiling.
func WithMaxBuckets(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxBuckets = n
		}
	}
}

// NewAnalyzer builds an analyzer for a table. The first date column becomes
// the timeline for string columns unless WithDateColumn says otherwise.
func NewAnalyzer(columns []ColumnDefinition, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		categoryCap: DefaultCategoryCap,
		maxBuckets:  DefaultMaxBuckets,
	}
	for _, col := range columns {
		if col.DataType == DataTypeDate {
			a.dateColumn = col.ID
			break
		}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DateColumn returns the timeline column id, if any.
func (a *Analyzer) DateColumn() string { return a.dateColumn }

// Analyze summarizes column over rows. Chart structure (days, buckets,
// category ranking) comes from rows; filtered only contributes the per-point
// Filtered counts and the summary strings.
func (a *Analyzer) Analyze(rows Rows, column ColumnDefinition, filtered Rows) AnalysisResult {
	if !hasValues(rows, column.ID) {
		return emptyResult(column.ID)
	}
	switch column.DataType {
	case DataTypeDate:
		return a.analyzeDate(rows, column, filtered)
	case DataTypeNumber:
		return a.analyzeNumber(rows, column, filtered)
	case DataTypeCategory:
		return a.analyzeCategory(rows, column, filtered)
	default:
		return a.analyzeString(rows, column, filtered)
	}
}

func (a *Analyzer) analyzeDate(rows Rows, col ColumnDefinition, filtered Rows) AnalysisResult {
	dateOf := func(r Row) (time.Time, bool) {
		t, err := ParseDate(r.Get(col.ID))
		return t, err == nil
	}
	series := daySeries(rows, filtered, dateOf)
	if len(series) == 0 {
		return emptyResult(col.ID)
	}
	return AnalysisResult{
		ColumnID:  col.ID,
		Type:      ChartLine,
		ChartData: ChartData{Series: series},
		Summary:   dateRangeSummary(filtered, dateOf),
	}
}

func (a *Analyzer) analyzeString(rows Rows, col ColumnDefinition, filtered Rows) AnalysisResult {
	dateOf := func(r Row) (time.Time, bool) {
		if a.dateColumn == "" || !present(r.Get(col.ID)) {
			return time.Time{}, false
		}
		t, err := ParseDate(r.Get(a.dateColumn))
		return t, err == nil
	}
	distinct := make(map[string]struct{})
	for _, r := range filtered {
		if v := r.Get(col.ID); present(v) {
			distinct[v.String()] = struct{}{}
		}
	}
	summary := NoDataSummary
	if len(distinct) > 0 {
		summary = pluralize(len(distinct), "unique value", "unique values")
	}
	return AnalysisResult{
		ColumnID:  col.ID,
		Type:      ChartLine,
		ChartData: ChartData{Series: daySeries(rows, filtered, dateOf)},
		Summary:   summary,
	}
}

func (a *Analyzer) analyzeNumber(rows Rows, col ColumnDefinition, filtered Rows) AnalysisResult {
	all := numericValues(rows, col.ID)
	layout := newHistogramLayout(all, a.maxBuckets, col)
	if layout == nil {
		return emptyResult(col.ID)
	}
	buckets := make([]HistogramBucket, layout.count)
	for i := range buckets {
		lower, upper := layout.bounds(i)
		buckets[i] = HistogramBucket{Label: layout.labels[i], Lower: lower, Upper: upper}
	}
	for _, v := range all {
		buckets[layout.index(v)].Count++
	}
	visible := numericValues(filtered, col.ID)
	for _, v := range visible {
		buckets[layout.index(v)].Filtered++
	}

	result := AnalysisResult{
		ColumnID:  col.ID,
		Type:      ChartBar,
		ChartData: ChartData{Buckets: buckets},
		Summary:   NoDataSummary,
	}
	if len(visible) > 0 {
		lo, hi := minMax(visible)
		result.Summary = FormatNumber(lo, col)
		if lo != hi {
			result.Summary += " - " + FormatNumber(hi, col)
		}
		result.MedianSummary = "Median: " + FormatNumber(Median(visible), col)
	}
	return result
}

func (a *Analyzer) analyzeCategory(rows Rows, col ColumnDefinition, filtered Rows) AnalysisResult {
	var ranked []CategoryCount
	index := make(map[string]int)
	for _, r := range rows {
		v := r.Get(col.ID)
		if !present(v) {
			continue
		}
		key := v.String()
		i, ok := index[key]
		if !ok {
			i = len(ranked)
			index[key] = i
			ranked = append(ranked, CategoryCount{Value: key})
		}
		ranked[i].Count++
	}
	if len(ranked) == 0 {
		return emptyResult(col.ID)
	}

	distinct := make(map[string]struct{})
	for _, r := range filtered {
		v := r.Get(col.ID)
		if !present(v) {
			continue
		}
		key := v.String()
		distinct[key] = struct{}{}
		if i, ok := index[key]; ok {
			ranked[i].Filtered++
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > a.categoryCap {
		rest := ranked[a.categoryCap:]
		overflow := CategoryCount{
			Value:    strconv.Itoa(len(rest)) + " more",
			Overflow: true,
		}
		for _, c := range rest {
			overflow.Count += c.Count
			overflow.Filtered += c.Filtered
		}
		ranked = append(ranked[:a.categoryCap:a.categoryCap], overflow)
	}

	return AnalysisResult{
		ColumnID:  col.ID,
		Type:      ChartCategory,
		ChartData: ChartData{Categories: ranked},
		Summary:   categorySummary(len(distinct)),
	}
}

// Labeler returns the function that maps a cell of column to the label its
// chart uses, with layout taken from rows. Filters compare these labels.
func (a *Analyzer) Labeler(rows Rows, col ColumnDefinition) Labeler {
	switch col.DataType {
	case DataTypeDate:
		return func(v Value) (string, bool) {
			t, err := ParseDate(v)
			if err != nil {
				return "", false
			}
			return dayLabel(t), true
		}
	case DataTypeNumber:
		layout := newHistogramLayout(numericValues(rows, col.ID), a.maxBuckets, col)
		if layout == nil {
			return func(Value) (string, bool) { return "", false }
		}
		return func(v Value) (string, bool) {
			f, err := ParseNumber(v)
			if err != nil {
				return "", false
			}
			return layout.label(f), true
		}
	default:
		return RawLabel
	}
}

// daySeries buckets rows by calendar day, sorted chronologically.
func daySeries(rows, filtered Rows, dateOf func(Row) (time.Time, bool)) []ChartPoint {
	index := make(map[string]int)
	var points []ChartPoint
	for _, r := range rows {
		t, ok := dateOf(r)
		if !ok {
			continue
		}
		key := dayKey(t)
		i, seen := index[key]
		if !seen {
			i = len(points)
			index[key] = i
			points = append(points, ChartPoint{Key: key, Label: dayLabel(t)})
		}
		points[i].Value++
	}
	for _, r := range filtered {
		t, ok := dateOf(r)
		if !ok {
			continue
		}
		if i, seen := index[dayKey(t)]; seen {
			points[i].Filtered++
		}
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Key < points[j].Key
	})
	return points
}

func dateRangeSummary(rows Rows, dateOf func(Row) (time.Time, bool)) string {
	var earliest, latest time.Time
	found := false
	for _, r := range rows {
		t, ok := dateOf(r)
		if !ok {
			continue
		}
		if !found || t.Before(earliest) {
			earliest = t
		}
		if !found || t.After(latest) {
			latest = t
		}
		found = true
	}
	if !found {
		return NoDataSummary
	}
	if dayKey(earliest) == dayKey(latest) {
		return dayLabel(earliest)
	}
	return dayLabel(earliest) + " - " + dayLabel(latest)
}

// numericValues coerces every cell of id, dropping anything ParseNumber rejects.
func numericValues(rows Rows, id string) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, err := ParseNumber(r.Get(id)); err == nil {
			values = append(values, f)
		}
	}
	return values
}

func categorySummary(k int) string {
	switch {
	case k == 0:
		return NoDataSummary
	case k == 1:
		return "1 category"
	case k > uniqueValuesThreshold:
		return strconv.Itoa(k) + " unique values"
	default:
		return strconv.Itoa(k) + " categories"
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

func hasValues(rows Rows, id string) bool {
	for _, r := range rows {
		if present(r.Get(id)) {
			return true
		}
	}
	return false
}

// present treats blank strings like nulls.
func present(v Value) bool {
	if v.IsNull() {
		return false
	}
	if s, ok := v.Str(); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func emptyResult(columnID string) AnalysisResult {
	return AnalysisResult{
		ColumnID: columnID,
		Type:     ChartEmpty,
		Summary:  NoDataSummary,
	}
}
