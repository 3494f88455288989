package crossfilter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterStateToggleRoundTrip(t *testing.T) {
	base := FilterState{}
	selected := base.Toggle("plan", "Pro")
	require.True(t, selected.Has("plan", "Pro"))
	assert.True(t, base.IsEmpty(), "toggle must not mutate the receiver")

	cleared := selected.Toggle("plan", "Pro")
	assert.True(t, cleared.IsEmpty())
	_, present := cleared["plan"]
	assert.False(t, present, "emptied columns are dropped")
}

func TestFilterStateSetSemantics(t *testing.T) {
	state := FilterState{}.Toggle("plan", "Pro").Toggle("plan", "Basic").Toggle("region", "EU")
	assert.Equal(t, []string{"plan", "region"}, state.Columns())
	assert.True(t, state.Equal(FilterState{"plan": {"Basic", "Pro"}, "region": {"EU"}}))

	state = state.Toggle("plan", "Pro")
	assert.Equal(t, []string{"Basic"}, state["plan"])
}

func TestFilterStateRemove(t *testing.T) {
	state := FilterState{"plan": {"Pro"}}
	assert.True(t, state.Remove("region").Equal(state))
	assert.True(t, state.Remove("plan").IsEmpty())
	assert.Equal(t, []string{"Pro"}, state["plan"])
}

func TestDeriveVisibleRowsEmptyStateReturnsAllRows(t *testing.T) {
	rows := churnRows()
	visible := DeriveVisibleRows(rows, FilterState{})
	if diff := cmp.Diff(rows, visible); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}
	visible[0] = Row{}
	assert.Equal(t, "Acme", rows[0].Get("customer").String(), "result is a new slice")
}

func TestDeriveVisibleRowsAndAcrossOrWithin(t *testing.T) {
	rows := RowsFromMaps([]map[string]any{
		{"plan": "Pro", "region": "EU"},
		{"plan": "Pro", "region": "US"},
		{"plan": "Basic", "region": "EU"},
		{"plan": "Enterprise", "region": "EU"},
		{"plan": nil, "region": "EU"},
	})

	orWithin := DeriveVisibleRows(rows, FilterState{"plan": {"Pro", "Basic"}})
	assert.Len(t, orWithin, 3)

	andAcross := DeriveVisibleRows(rows, FilterState{"plan": {"Pro", "Basic"}, "region": {"EU"}})
	require.Len(t, andAcross, 2)
	for _, r := range andAcross {
		assert.Equal(t, "EU", r.Get("region").String())
	}

	assert.Empty(t, DeriveVisibleRows(rows, FilterState{"plan": {"Missing"}}))
}

func TestDeriveVisibleRowsUsesLabelers(t *testing.T) {
	cols := churnColumns()
	rows := churnRows()
	analyzer := NewAnalyzer(cols)

	visible := DeriveVisibleRows(rows,
		FilterState{"mrr": {"$250.00 - $400.00"}, "last_active": {"Mar 3, 2024"}},
		WithLabeler("mrr", analyzer.Labeler(rows, columnByID(cols, "mrr"))),
		WithLabeler("last_active", analyzer.Labeler(rows, columnByID(cols, "last_active"))),
	)

	require.Len(t, visible, 1)
	assert.Equal(t, "Delta", visible[0].Get("customer").String())
}
