package crossfilter

// DataType classifies how a column is analyzed and filtered.
type DataType string

const (
	DataTypeString   DataType = "string"
	DataTypeNumber   DataType = "number"
	DataTypeCategory DataType = "category"
	DataTypeDate     DataType = "date"
)

// Valid reports whether the data type is one of the known kinds.
func (d DataType) Valid() bool {
	switch d {
	case DataTypeString, DataTypeNumber, DataTypeCategory, DataTypeDate:
		return true
	default:
		return false
	}
}

// ColumnDefinition describes one displayable field of a report or metric table.
// DataType is always set; the flags refine formatting and color semantics.
type ColumnDefinition struct {
	ID         string   `json:"id" yaml:"id"`
	Label      string   `json:"label" yaml:"label,omitempty"`
	DataType   DataType `json:"dataType" yaml:"data_type"`
	IsCurrency bool     `json:"isCurrency,omitempty" yaml:"is_currency,omitempty"`
	IsTrend    bool     `json:"isTrend,omitempty" yaml:"is_trend,omitempty"`
	IsNumber   bool     `json:"isNumber,omitempty" yaml:"is_number,omitempty"`
	IsPositive bool     `json:"isPositive,omitempty" yaml:"is_positive,omitempty"`
}

// ChartType identifies the chart shape of an AnalysisResult.
type ChartType string

const (
	ChartLine     ChartType = "line"
	ChartBar      ChartType = "bar"
	ChartCategory ChartType = "category"
	ChartEmpty    ChartType = "empty"
)

// AnalysisResult is the chart-ready summary of a single column.
type AnalysisResult struct {
	ColumnID      string    `json:"columnId"`
	Type          ChartType `json:"type"`
	ChartData     ChartData `json:"chartData"`
	Summary       string    `json:"summary"`
	MedianSummary string    `json:"medianSummary,omitempty"`
	Selected      []string  `json:"selected,omitempty"`
}

// ChartData carries the payload for the result type. Only one field is
// populated: Series for line, Buckets for bar, Categories for category.
type ChartData struct {
	Series     []ChartPoint      `json:"series,omitempty"`
	Buckets    []HistogramBucket `json:"buckets,omitempty"`
	Categories []CategoryCount   `json:"categories,omitempty"`
}

// ChartPoint is a single day on a line series.
type ChartPoint struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Filtered float64 `json:"filtered"`
}

// HistogramBucket is a contiguous sub-range of a numeric column.
type HistogramBucket struct {
	Label    string  `json:"label"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Count    int     `json:"count"`
	Filtered int     `json:"filtered"`
}

// CategoryCount is a ranked category entry. Overflow marks the synthetic
// "N more" bucket.
type CategoryCount struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Filtered int    `json:"filtered"`
	Overflow bool   `json:"overflow,omitempty"`
}

// Labels returns the chart labels in display order.
func (r AnalysisResult) Labels() []string {
	switch r.Type {
	case ChartLine:
		out := make([]string, len(r.ChartData.Series))
		for i, p := range r.ChartData.Series {
			out[i] = p.Label
		}
		return out
	case ChartBar:
		out := make([]string, len(r.ChartData.Buckets))
		for i, b := range r.ChartData.Buckets {
			out[i] = b.Label
		}
		return out
	case ChartCategory:
		out := make([]string, len(r.ChartData.Categories))
		for i, c := range r.ChartData.Categories {
			out[i] = c.Value
		}
		return out
	default:
		return nil
	}
}

// IsSelected reports whether label is part of the column's active filter.
func (r AnalysisResult) IsSelected(label string) bool {
	for _, s := range r.Selected {
		if s == label {
			return true
		}
	}
	return false
}
