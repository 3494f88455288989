package crossfilter

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	events []FilterEvent
	err    error
}

func (h *recordingHook) FiltersChanged(_ context.Context, event FilterEvent) error {
	h.events = append(h.events, event)
	return h.err
}

type recordingTelemetry struct {
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.events = append(r.events, event)
}

type panickyAnalyzer struct {
	*Analyzer
	column string
}

func (p panickyAnalyzer) Analyze(rows Rows, column ColumnDefinition, filtered Rows) AnalysisResult {
	if column.ID == p.column {
		_ = rows[len(rows)+1]
	}
	return p.Analyzer.Analyze(rows, column, filtered)
}

func newTestCoordinator(t *testing.T, opts ...CoordinatorOption) *Coordinator {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	opts = append([]CoordinatorOption{WithLogger(logger), WithSessionID("s-1")}, opts...)
	return NewCoordinator(churnRows(), churnColumns(), opts...)
}

func TestCoordinatorInitialResults(t *testing.T) {
	c := newTestCoordinator(t)

	results := c.Results()
	require.Len(t, results, 4)
	for i, col := range churnColumns() {
		assert.Equal(t, col.ID, results[i].ColumnID)
		assert.Empty(t, results[i].Selected)
	}
	assert.Len(t, c.VisibleRows(), 4)
	assert.Equal(t, uint64(0), c.Version())
	assert.Equal(t, "s-1", c.SessionID())
}

func TestCoordinatorToggleRecomputesEveryColumn(t *testing.T) {
	c := newTestCoordinator(t)
	before, _ := c.Result("mrr")

	selected, err := c.Toggle(context.Background(), "plan", "Pro")
	require.NoError(t, err)
	assert.True(t, selected)

	assert.Len(t, c.VisibleRows(), 2)
	assert.Equal(t, uint64(1), c.Version())

	plan, _ := c.Result("plan")
	assert.Equal(t, []string{"Pro"}, plan.Selected)

	mrr, _ := c.Result("mrr")
	assert.Equal(t, before.Labels(), mrr.Labels(), "bucket layout is stable under filtering")
	assert.Equal(t, 2, mrr.ChartData.Buckets[0].Filtered)
	assert.Equal(t, 0, mrr.ChartData.Buckets[1].Filtered)
	assert.Equal(t, "$100.00 - $200.00", mrr.Summary)
	assert.Equal(t, "Median: $150.00", mrr.MedianSummary)

	dates, _ := c.Result("last_active")
	assert.Equal(t, "Mar 1, 2024", dates.Summary)

	assert.Equal(t, []FilterChip{{ColumnID: "plan", ColumnLabel: "Plan", Value: "Pro"}}, c.Chips())
}

func TestCoordinatorOrWithinAndAcross(t *testing.T) {
	c := newTestCoordinator(t)
	ctx := context.Background()

	_, err := c.Toggle(ctx, "plan", "Pro")
	require.NoError(t, err)
	_, err = c.Toggle(ctx, "plan", "Basic")
	require.NoError(t, err)
	assert.Len(t, c.VisibleRows(), 3)

	_, err = c.Toggle(ctx, "mrr", "$250.00 - $400.00")
	require.NoError(t, err)
	visible := c.VisibleRows()
	require.Len(t, visible, 1)
	assert.Equal(t, "Cobalt", visible[0].Get("customer").String())

	selected, err := c.Toggle(ctx, "mrr", "$250.00 - $400.00")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Len(t, c.VisibleRows(), 3)
}

func TestCoordinatorRejectsUnknownAndEmptyColumns(t *testing.T) {
	cols := append(churnColumns(), ColumnDefinition{ID: "notes", Label: "Notes", DataType: DataTypeString})
	logger, _ := logtest.NewNullLogger()
	c := NewCoordinator(churnRows(), cols, WithLogger(logger))

	_, err := c.Toggle(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = c.Toggle(context.Background(), "notes", "x")
	assert.ErrorIs(t, err, ErrNotFilterable)
	assert.True(t, c.Filters().IsEmpty())
}

func TestCoordinatorHandleClick(t *testing.T) {
	rows := churnRows()
	for _, plan := range []string{"Trial", "Legacy"} {
		rows = append(rows, RowFromMap(map[string]any{"customer": plan + " Co", "plan": plan, "mrr": 150, "last_active": "2024-03-04"}))
	}
	logger, _ := logtest.NewNullLogger()
	c := NewCoordinator(rows, churnColumns(), WithLogger(logger))
	ctx := context.Background()

	plan, _ := c.Result("plan")
	overflow := plan.ChartData.Categories[len(plan.ChartData.Categories)-1]
	require.True(t, overflow.Overflow)
	changed, err := c.HandleClick(ctx, ChartClick{ColumnID: "plan", Label: overflow.Value})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, c.Filters().IsEmpty())

	changed, err = c.HandleClick(ctx, ChartClick{ColumnID: "customer", Label: "Mar 1, 2024"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, FilterState{"last_active": {"Mar 1, 2024"}}, c.Filters())
	assert.Len(t, c.VisibleRows(), 2)
}

func TestCoordinatorRemoveAndClear(t *testing.T) {
	hook := &recordingHook{}
	telemetry := &recordingTelemetry{}
	c := newTestCoordinator(t, WithFilterHook(hook), WithTelemetry(telemetry))
	ctx := context.Background()

	removed, err := c.Remove(ctx, "plan")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, hook.events)

	_, err = c.Toggle(ctx, "plan", "Pro")
	require.NoError(t, err)
	removed, err = c.Remove(ctx, "plan")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = c.Toggle(ctx, "plan", "Basic")
	require.NoError(t, err)
	require.NoError(t, c.Clear(ctx))
	require.NoError(t, c.Clear(ctx))

	require.Len(t, hook.events, 4)
	assert.Equal(t, ActionSelect, hook.events[0].Action)
	assert.Equal(t, 2, hook.events[0].VisibleRows)
	assert.Equal(t, 4, hook.events[0].TotalRows)
	assert.Equal(t, ActionRemove, hook.events[1].Action)
	assert.Equal(t, ActionClear, hook.events[3].Action)
	assert.True(t, hook.events[3].Filters.IsEmpty())
	assert.Equal(t, []string{
		"crossfilter.filter.select",
		"crossfilter.filter.remove",
		"crossfilter.filter.select",
		"crossfilter.filter.clear",
	}, telemetry.events)
	assert.Len(t, c.VisibleRows(), 4)
}

func TestCoordinatorWrapsHookErrors(t *testing.T) {
	boom := errors.New("boom")
	c := newTestCoordinator(t, WithFilterHook(&recordingHook{err: boom}))

	_, err := c.Toggle(context.Background(), "plan", "Pro")

	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.VisibleRows(), 2, "state change is kept even when notification fails")
}

func TestCoordinatorRecoversAnalysisPanics(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	cols := churnColumns()
	c := NewCoordinator(churnRows(), cols,
		WithLogger(logger),
		WithAnalyzer(panickyAnalyzer{Analyzer: NewAnalyzer(cols), column: "mrr"}),
	)

	mrr, ok := c.Result("mrr")
	require.True(t, ok)
	assert.Equal(t, ChartEmpty, mrr.Type)
	assert.Equal(t, NoDataSummary, mrr.Summary)

	plan, _ := c.Result("plan")
	assert.Equal(t, ChartCategory, plan.Type)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "mrr", entry.Data["column"])
}

func TestCoordinatorClose(t *testing.T) {
	c := newTestCoordinator(t)
	c.Close()
	c.Close()

	_, err := c.Toggle(context.Background(), "plan", "Pro")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = c.Remove(context.Background(), "plan")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, c.Clear(context.Background()), ErrSessionClosed)
	assert.Len(t, c.Results(), 4, "results stay readable after close")
}

func TestCoordinatorSharedStore(t *testing.T) {
	store := NewFilterStore()
	c := newTestCoordinator(t, WithFilterStore(store))

	store.Toggle("plan", "Enterprise")

	assert.Len(t, c.VisibleRows(), 1)
	assert.Equal(t, store.Version(), c.Version())
}
