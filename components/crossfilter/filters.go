package crossfilter

import (
	"sort"
)

// FilterState maps a column id to its accepted labels. A column present in
// the state always has at least one label.
type FilterState map[string][]string

// Clone returns a deep copy.
func (s FilterState) Clone() FilterState {
	out := make(FilterState, len(s))
	for col, values := range s {
		if len(values) == 0 {
			continue
		}
		out[col] = append([]string(nil), values...)
	}
	return out
}

// Has reports whether value is selected for column.
func (s FilterState) Has(column, value string) bool {
	for _, v := range s[column] {
		if v == value {
			return true
		}
	}
	return false
}

// Toggle returns a new state with value added to, or removed from, column.
// Removing the last value drops the column entry.
func (s FilterState) Toggle(column, value string) FilterState {
	out := s.Clone()
	values := out[column]
	for i, v := range values {
		if v != value {
			continue
		}
		values = append(values[:i:i], values[i+1:]...)
		if len(values) == 0 {
			delete(out, column)
		} else {
			out[column] = values
		}
		return out
	}
	out[column] = append(values, value)
	return out
}

// Remove returns a new state without column. Removing an absent column is a
// no-op.
func (s FilterState) Remove(column string) FilterState {
	out := s.Clone()
	delete(out, column)
	return out
}

// IsEmpty reports whether no filter is active.
func (s FilterState) IsEmpty() bool {
	for _, values := range s {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Columns returns the filtered column ids in sorted order.
func (s FilterState) Columns() []string {
	cols := make([]string, 0, len(s))
	for col, values := range s {
		if len(values) > 0 {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

// Equal compares two states ignoring value order within a column.
func (s FilterState) Equal(other FilterState) bool {
	a, b := s.Columns(), other.Columns()
	if len(a) != len(b) {
		return false
	}
	for i, col := range a {
		if b[i] != col {
			return false
		}
		if !sameSet(s[col], other[col]) {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// Labeler maps a cell to the label filters compare against. ok is false when
// the cell has no label and therefore never matches.
type Labeler func(v Value) (label string, ok bool)

// RawLabel labels a cell with its raw string form.
func RawLabel(v Value) (string, bool) {
	if !present(v) {
		return "", false
	}
	return v.String(), true
}

type deriveConfig struct {
	labelers map[string]Labeler
}

// DeriveOption customizes DeriveVisibleRows.
type DeriveOption func(*deriveConfig)

// WithLabeler sets the labeler for a column, e.g. histogram buckets for
// numbers or calendar days for dates.
func WithLabeler(column string, labeler Labeler) DeriveOption {
	return func(cfg *deriveConfig) {
		if labeler != nil {
			cfg.labelers[column] = labeler
		}
	}
}

// DeriveVisibleRows returns the rows matching every active column filter.
// Columns are AND-combined; labels within a column are OR-combined. allRows
// is never modified and is rescanned on every call.
func DeriveVisibleRows(allRows Rows, state FilterState, opts ...DeriveOption) Rows {
	cfg := deriveConfig{labelers: map[string]Labeler{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	type columnFilter struct {
		id      string
		labeler Labeler
		accept  map[string]struct{}
	}
	var filters []columnFilter
	for _, col := range state.Columns() {
		accept := make(map[string]struct{}, len(state[col]))
		for _, v := range state[col] {
			accept[v] = struct{}{}
		}
		labeler := cfg.labelers[col]
		if labeler == nil {
			labeler = RawLabel
		}
		filters = append(filters, columnFilter{id: col, labeler: labeler, accept: accept})
	}

	out := make(Rows, 0, len(allRows))
	for _, row := range allRows {
		pass := true
		for _, f := range filters {
			label, ok := f.labeler(row.Get(f.id))
			if !ok {
				pass = false
				break
			}
			if _, hit := f.accept[label]; !hit {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, row)
		}
	}
	return out
}
