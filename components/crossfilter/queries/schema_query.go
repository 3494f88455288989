package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

// ColumnSchemaInput names a report or metric table.
type ColumnSchemaInput struct {
	ID       string `json:"id"`
	IsReport bool   `json:"is_report"`
}

type schemaLookup interface {
	ColumnSchema(id string, isReport bool) []crossfilter.ColumnDefinition
}

// ColumnSchemaQuery resolves column definitions with the registry's fallbacks.
type ColumnSchemaQuery struct {
	registry schemaLookup
}

// NewColumnSchemaQuery builds the query. A nil registry uses the default one.
func NewColumnSchemaQuery(registry schemaLookup) *ColumnSchemaQuery {
	if registry == nil {
		registry = crossfilter.DefaultSchemaRegistry()
	}
	return &ColumnSchemaQuery{registry: registry}
}

var _ gocommand.Querier[ColumnSchemaInput, []crossfilter.ColumnDefinition] = (*ColumnSchemaQuery)(nil)

// Query resolves the columns.
func (q *ColumnSchemaQuery) Query(_ context.Context, input ColumnSchemaInput) ([]crossfilter.ColumnDefinition, error) {
	return q.registry.ColumnSchema(input.ID, input.IsReport), nil
}
