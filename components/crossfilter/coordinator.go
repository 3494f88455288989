package crossfilter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownColumn is returned for column ids outside the session schema.
	ErrUnknownColumn = errors.New("crossfilter: unknown column")
	// ErrNotFilterable is returned when a column has no values to filter on.
	ErrNotFilterable = errors.New("crossfilter: column has no filterable values")
	// ErrSessionClosed is returned by mutations after Close.
	ErrSessionClosed = errors.New("crossfilter: session closed")
)

// ColumnAnalyzer produces per-column summaries and the labelers filters use.
// *Analyzer is the default implementation.
type ColumnAnalyzer interface {
	Analyze(rows Rows, column ColumnDefinition, filtered Rows) AnalysisResult
	Labeler(rows Rows, column ColumnDefinition) Labeler
}

// ChartClick is a click on a bar, point or category entry.
type ChartClick struct {
	ColumnID string `json:"columnId"`
	Label    string `json:"label"`
}

// FilterChip is the display form of one active filter value.
type FilterChip struct {
	ColumnID    string `json:"columnId"`
	ColumnLabel string `json:"columnLabel"`
	Value       string `json:"value"`
}

// Coordinator owns a FilterStore for one report view and keeps every
// column's AnalysisResult in sync with it. Chart structure is always taken
// from the unfiltered rows so layouts stay put while filters change.
type Coordinator struct {
	sessionID string
	rows      Rows
	columns   []ColumnDefinition
	byID      map[string]ColumnDefinition
	store     *FilterStore
	analyzer  ColumnAnalyzer
	logger    logrus.FieldLogger
	telemetry Telemetry
	hook      FilterHook
	labelers  map[string]Labeler

	mu          sync.RWMutex
	ready       bool
	computed    uint64
	visible     Rows
	results     []AnalysisResult
	closed      bool
	unsubscribe func()
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithFilterStore injects the store the coordinator owns.
func WithFilterStore(store *FilterStore) CoordinatorOption {
	return func(c *Coordinator) {
		c.store = store
	}
}

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(analyzer ColumnAnalyzer) CoordinatorOption {
	return func(c *Coordinator) {
		c.analyzer = analyzer
	}
}

// WithLogger sets the logger used for analysis warnings.
func WithLogger(logger logrus.FieldLogger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithTelemetry records filter mutations.
func WithTelemetry(t Telemetry) CoordinatorOption {
	return func(c *Coordinator) {
		c.telemetry = t
	}
}

// WithFilterHook notifies hook after every filter mutation.
func WithFilterHook(hook FilterHook) CoordinatorOption {
	return func(c *Coordinator) {
		c.hook = hook
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) CoordinatorOption {
	return func(c *Coordinator) {
		c.sessionID = id
	}
}

// NewCoordinator mounts a view over rows and computes the initial results.
func NewCoordinator(rows Rows, columns []ColumnDefinition, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		rows:    rows,
		columns: append([]ColumnDefinition(nil), columns...),
		byID:    make(map[string]ColumnDefinition, len(columns)),
	}
	for _, col := range c.columns {
		c.byID[col.ID] = col
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewFilterStore()
	}
	if c.analyzer == nil {
		c.analyzer = NewAnalyzer(c.columns)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.hook == nil {
		c.hook = noopFilterHook{}
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.telemetry = normalizeTelemetry(c.telemetry)

	c.labelers = make(map[string]Labeler, len(c.columns))
	for _, col := range c.columns {
		c.labelers[col.ID] = c.safeLabeler(col)
	}
	c.unsubscribe = c.store.Subscribe(func(StoreEvent) { c.recompute() })
	c.recompute()
	return c
}

// SessionID identifies the mounted view.
func (c *Coordinator) SessionID() string { return c.sessionID }

// Columns returns the session schema.
func (c *Coordinator) Columns() []ColumnDefinition {
	return append([]ColumnDefinition(nil), c.columns...)
}

// TotalRows is the size of the unfiltered row set.
func (c *Coordinator) TotalRows() int { return len(c.rows) }

// Toggle flips label in column's filter and reports whether it is now selected.
func (c *Coordinator) Toggle(ctx context.Context, columnID, label string) (bool, error) {
	if _, err := c.filterable(columnID); err != nil {
		return false, err
	}
	selected := c.store.Toggle(columnID, label)
	action := ActionDeselect
	if selected {
		action = ActionSelect
	}
	return selected, c.notify(ctx, action, columnID, label)
}

// HandleClick turns a chart click into a toggle. Clicks on the overflow
// category are ignored; clicks on a string column's activity series filter
// the timeline column.
func (c *Coordinator) HandleClick(ctx context.Context, click ChartClick) (bool, error) {
	col, err := c.filterable(click.ColumnID)
	if err != nil {
		return false, err
	}
	result, _ := c.Result(col.ID)
	switch result.Type {
	case ChartCategory:
		for _, cat := range result.ChartData.Categories {
			if cat.Value == click.Label && cat.Overflow {
				return false, nil
			}
		}
	case ChartLine:
		if col.DataType != DataTypeDate {
			if target, ok := c.timelineColumn(); ok {
				return c.Toggle(ctx, target, click.Label)
			}
		}
	}
	return c.Toggle(ctx, col.ID, click.Label)
}

// Remove drops column's filter. Removing a column without a filter is a no-op.
func (c *Coordinator) Remove(ctx context.Context, columnID string) (bool, error) {
	if c.isClosed() {
		return false, ErrSessionClosed
	}
	if !c.store.Remove(columnID) {
		return false, nil
	}
	return true, c.notify(ctx, ActionRemove, columnID, "")
}

// Clear drops every filter.
func (c *Coordinator) Clear(ctx context.Context) error {
	if c.isClosed() {
		return ErrSessionClosed
	}
	if c.store.Snapshot().IsEmpty() {
		return nil
	}
	c.store.Clear()
	return c.notify(ctx, ActionClear, "", "")
}

// Results returns every column's result in schema order.
func (c *Coordinator) Results() []AnalysisResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]AnalysisResult(nil), c.results...)
}

// Result returns the result for a single column.
func (c *Coordinator) Result(columnID string) (AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.results {
		if r.ColumnID == columnID {
			return r, true
		}
	}
	return AnalysisResult{}, false
}

// VisibleRows returns the rows passing the current filters.
func (c *Coordinator) VisibleRows() Rows {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(Rows(nil), c.visible...)
}

// Filters returns a copy of the active filter state.
func (c *Coordinator) Filters() FilterState {
	return c.store.Snapshot()
}

// Version is the store version the current results were computed for.
func (c *Coordinator) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.computed
}

// Chips lists active filters in column order for the chip bar.
func (c *Coordinator) Chips() []FilterChip {
	state := c.store.Snapshot()
	var chips []FilterChip
	for _, col := range c.columns {
		for _, v := range state[col.ID] {
			chips = append(chips, FilterChip{ColumnID: col.ID, ColumnLabel: col.Label, Value: v})
		}
	}
	return chips
}

// Close unmounts the view. Later mutations fail with ErrSessionClosed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Coordinator) recompute() {
	state, version := c.store.State()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready && version <= c.computed {
		return
	}

	opts := make([]DeriveOption, 0, len(c.labelers))
	for id, labeler := range c.labelers {
		opts = append(opts, WithLabeler(id, labeler))
	}
	visible := DeriveVisibleRows(c.rows, state, opts...)

	results := make([]AnalysisResult, len(c.columns))
	for i, col := range c.columns {
		results[i] = c.analyzeColumn(col, visible)
		if selected := state[col.ID]; len(selected) > 0 {
			results[i].Selected = append([]string(nil), selected...)
		}
	}

	c.visible = visible
	c.results = results
	c.computed = version
	c.ready = true
}

// analyzeColumn is the outermost generation boundary: a panic in analysis
// becomes an empty result and a warning.
func (c *Coordinator) analyzeColumn(col ColumnDefinition, visible Rows) AnalysisResult {
	return SafeAnalyze(c.analyzer, c.logger, logrus.Fields{"session": c.sessionID}, c.rows, col, visible)
}

func (c *Coordinator) safeLabeler(col ColumnDefinition) Labeler {
	return SafeLabeler(c.analyzer, c.logger, logrus.Fields{"session": c.sessionID}, c.rows, col)
}

func (c *Coordinator) filterable(columnID string) (ColumnDefinition, error) {
	if c.isClosed() {
		return ColumnDefinition{}, ErrSessionClosed
	}
	col, ok := c.byID[columnID]
	if !ok {
		return ColumnDefinition{}, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if result, ok := c.Result(columnID); ok && result.Type == ChartEmpty {
		return ColumnDefinition{}, fmt.Errorf("%w: %s", ErrNotFilterable, columnID)
	}
	return col, nil
}

func (c *Coordinator) timelineColumn() (string, bool) {
	timeline, ok := c.analyzer.(interface{ DateColumn() string })
	if !ok {
		return "", false
	}
	id := timeline.DateColumn()
	if _, known := c.byID[id]; !known || id == "" {
		return "", false
	}
	return id, true
}

func (c *Coordinator) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Coordinator) notify(ctx context.Context, action StoreAction, columnID, value string) error {
	c.mu.RLock()
	event := FilterEvent{
		SessionID:   c.sessionID,
		Action:      action,
		ColumnID:    columnID,
		Value:       value,
		Version:     c.computed,
		VisibleRows: len(c.visible),
		TotalRows:   len(c.rows),
	}
	c.mu.RUnlock()
	event.Filters = c.store.Snapshot()

	c.telemetry.Record(ctx, "crossfilter.filter."+string(action), map[string]any{
		"session_id":   c.sessionID,
		"column_id":    columnID,
		"value":        value,
		"visible_rows": event.VisibleRows,
	})
	if err := c.hook.FiltersChanged(ctx, event); err != nil {
		return fmt.Errorf("crossfilter: notify filter hook: %w", err)
	}
	return nil
}
