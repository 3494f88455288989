// Package crossfilter re-exports the session service and the stateless
// analysis entry points for host applications.
package crossfilter

import (
	core "github.com/goliatone/go-crossfilter/components/crossfilter"
)

// Service exposes the underlying components/crossfilter.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

type (
	ColumnDefinition = core.ColumnDefinition
	AnalysisResult   = core.AnalysisResult
	FilterState      = core.FilterState
	Rows             = core.Rows
	Row              = core.Row
	SessionSnapshot  = core.SessionSnapshot
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// GetColumnSchema resolves report or metric columns from the default registry.
func GetColumnSchema(id string, isReport bool) []ColumnDefinition {
	return core.GetColumnSchema(id, isReport)
}

// AnalyzeColumn summarizes one column of rows with the default analyzer
// settings. The date column is inferred from columns.
func AnalyzeColumn(rows Rows, column ColumnDefinition, columns []ColumnDefinition, filtered Rows) AnalysisResult {
	return core.NewAnalyzer(columns).Analyze(rows, column, filtered)
}

// DeriveVisibleRows applies filters using raw value labels.
func DeriveVisibleRows(rows Rows, filters FilterState) Rows {
	return core.DeriveVisibleRows(rows, filters)
}

// FormatValue renders a cell for display.
func FormatValue(v core.Value, column ColumnDefinition) string {
	return core.FormatValue(v, column)
}
