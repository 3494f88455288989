package crossfilter

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ettle/strcase"
)

// DefaultReportSchema is substituted for unknown report ids.
const DefaultReportSchema = "churn-risk"

// SchemaRegistry maps report and metric ids to ordered column definitions.
//
// Lookups are lenient on purpose: an unknown report id resolves to the
// DefaultReportSchema table and an unknown metric id to an empty list, so a
// bad link renders a sensible view instead of failing. Use Lookup when the
// caller needs to know whether the id was recognized.
type SchemaRegistry struct {
	mu             sync.RWMutex
	reports        map[string][]ColumnDefinition
	metrics        map[string][]ColumnDefinition
	fallbackReport string
	validator      ColumnValidator
}

// SchemaRegistryOption customizes a registry.
type SchemaRegistryOption func(*SchemaRegistry)

// WithoutBuiltinSchemas starts the registry empty.
func WithoutBuiltinSchemas() SchemaRegistryOption {
	return func(r *SchemaRegistry) {
		r.reports = map[string][]ColumnDefinition{}
		r.metrics = map[string][]ColumnDefinition{}
	}
}

// WithFallbackReport changes the report substituted for unknown ids.
func WithFallbackReport(id string) SchemaRegistryOption {
	return func(r *SchemaRegistry) {
		r.fallbackReport = id
	}
}

// WithColumnValidator replaces the JSON Schema validator applied on register.
func WithColumnValidator(v ColumnValidator) SchemaRegistryOption {
	return func(r *SchemaRegistry) {
		if v == nil {
			v = noopColumnValidator{}
		}
		r.validator = v
	}
}

// NewSchemaRegistry builds a registry seeded with the built-in tables.
func NewSchemaRegistry(opts ...SchemaRegistryOption) *SchemaRegistry {
	r := &SchemaRegistry{
		reports:        map[string][]ColumnDefinition{},
		metrics:        map[string][]ColumnDefinition{},
		fallbackReport: DefaultReportSchema,
		validator:      NewJSONSchemaValidator(),
	}
	for id, cols := range builtinReportSchemas() {
		r.reports[id] = normalizeColumns(cols)
	}
	for id, cols := range builtinMetricSchemas() {
		r.metrics[id] = normalizeColumns(cols)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultSchemas = NewSchemaRegistry()

// DefaultSchemaRegistry returns the process-wide registry used by
// GetColumnSchema.
func DefaultSchemaRegistry() *SchemaRegistry { return defaultSchemas }

// GetColumnSchema resolves columns from the default registry.
func GetColumnSchema(id string, isReport bool) []ColumnDefinition {
	return defaultSchemas.ColumnSchema(id, isReport)
}

// ColumnSchema returns the columns for id, falling back as described on
// SchemaRegistry. The returned slice is a copy.
func (r *SchemaRegistry) ColumnSchema(id string, isReport bool) []ColumnDefinition {
	if cols, ok := r.Lookup(id, isReport); ok {
		return cols
	}
	if !isReport {
		return []ColumnDefinition{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ColumnDefinition{}, r.reports[r.fallbackReport]...)
}

// Lookup returns the columns for id and whether the id is registered.
func (r *SchemaRegistry) Lookup(id string, isReport bool) ([]ColumnDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table := r.metrics
	if isReport {
		table = r.reports
	}
	cols, ok := table[id]
	if !ok {
		return nil, false
	}
	return append([]ColumnDefinition{}, cols...), true
}

// RegisterReport adds or replaces a report table.
func (r *SchemaRegistry) RegisterReport(id string, cols []ColumnDefinition) error {
	return r.register(id, cols, true)
}

// RegisterMetric adds or replaces a metric table.
func (r *SchemaRegistry) RegisterMetric(id string, cols []ColumnDefinition) error {
	return r.register(id, cols, false)
}

func (r *SchemaRegistry) register(id string, cols []ColumnDefinition, isReport bool) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("crossfilter: schema id is required")
	}
	normalized := normalizeColumns(cols)
	if err := checkColumns(normalized); err != nil {
		return fmt.Errorf("crossfilter: schema %s: %w", id, err)
	}
	if err := r.validator.ValidateColumns(id, normalized); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if isReport {
		r.reports[id] = normalized
	} else {
		r.metrics[id] = normalized
	}
	return nil
}

// Reports lists registered report ids in sorted order.
func (r *SchemaRegistry) Reports() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.reports)
}

// Metrics lists registered metric ids in sorted order.
func (r *SchemaRegistry) Metrics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.metrics)
}

func sortedKeys(m map[string][]ColumnDefinition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkColumns rejects missing ids, unknown types and duplicate ids.
func checkColumns(cols []ColumnDefinition) error {
	seen := make(map[string]struct{}, len(cols))
	for i, col := range cols {
		if col.ID == "" {
			return fmt.Errorf("column at index %d is missing id", i)
		}
		if !col.DataType.Valid() {
			return fmt.Errorf("column %s has unsupported data type %q", col.ID, col.DataType)
		}
		if _, dup := seen[col.ID]; dup {
			return fmt.Errorf("duplicate column id %s", col.ID)
		}
		seen[col.ID] = struct{}{}
	}
	return nil
}

func normalizeColumns(cols []ColumnDefinition) []ColumnDefinition {
	out := make([]ColumnDefinition, len(cols))
	for i, col := range cols {
		col.ID = strings.TrimSpace(col.ID)
		if col.Label == "" {
			col.Label = LabelFromID(col.ID)
		}
		col.DataType = DataType(strings.ToLower(strings.TrimSpace(string(col.DataType))))
		out[i] = col
	}
	return out
}

var labelAcronyms = map[string]string{
	"id":   "ID",
	"mrr":  "MRR",
	"arr":  "ARR",
	"arpu": "ARPU",
	"url":  "URL",
	"nrr":  "NRR",
}

// LabelFromID derives a display label from a column id
// ("last_login_at" → "Last Login At", "mrrChange" → "MRR Change").
func LabelFromID(id string) string {
	words := strings.Split(strcase.ToSnake(id), "_")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if acronym, ok := labelAcronyms[w]; ok {
			out = append(out, acronym)
			continue
		}
		first, size := utf8.DecodeRuneInString(w)
		out = append(out, string(unicode.ToUpper(first))+w[size:])
	}
	return strings.Join(out, " ")
}

// TableColumn is the column shape used by table components.
type TableColumn struct {
	Key          string `json:"key" yaml:"key"`
	Display      string `json:"display" yaml:"display"`
	Type         string `json:"type" yaml:"type"`
	IsCurrency   bool   `json:"isCurrency,omitempty" yaml:"is_currency,omitempty"`
	IsPercentage bool   `json:"isPercentage,omitempty" yaml:"is_percentage,omitempty"`
}

// ToTableColumns converts definitions to the table shape. IsNumber and
// IsPositive have no counterpart and are dropped.
func ToTableColumns(cols []ColumnDefinition) []TableColumn {
	out := make([]TableColumn, len(cols))
	for i, col := range cols {
		out[i] = TableColumn{
			Key:          col.ID,
			Display:      col.Label,
			Type:         string(col.DataType),
			IsCurrency:   col.IsCurrency,
			IsPercentage: col.IsTrend,
		}
	}
	return out
}

// FromTableColumns converts the table shape back. IsNumber is derived from
// the type and unknown types become string columns.
func FromTableColumns(cols []TableColumn) []ColumnDefinition {
	out := make([]ColumnDefinition, len(cols))
	for i, col := range cols {
		dataType := DataType(strings.ToLower(col.Type))
		if !dataType.Valid() {
			dataType = DataTypeString
		}
		out[i] = ColumnDefinition{
			ID:         col.Key,
			Label:      col.Display,
			DataType:   dataType,
			IsCurrency: col.IsCurrency,
			IsTrend:    col.IsPercentage,
			IsNumber:   dataType == DataTypeNumber,
		}
	}
	return out
}
