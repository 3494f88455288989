package dataset

import (
	"context"
	"errors"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

// ErrNotFound is returned when no rows exist for a report or metric.
var ErrNotFound = errors.New("dataset: rows not found")

// Query names the table whose rows are requested.
type Query struct {
	SchemaID string `json:"schema_id"`
	IsReport bool   `json:"is_report"`
}

// Kind returns "reports" or "metrics".
func (q Query) Kind() string {
	if q.IsReport {
		return "reports"
	}
	return "metrics"
}

// Client fetches raw row records from an upstream store.
type Client interface {
	FetchRows(ctx context.Context, query Query) ([]map[string]any, error)
}

// NewRowSource adapts a Client into a crossfilter.RowSource.
func NewRowSource(client Client) crossfilter.RowSource {
	return &rowSource{client: client}
}

type rowSource struct {
	client Client
}

func (s *rowSource) Rows(ctx context.Context, schemaID string, isReport bool) (crossfilter.Rows, error) {
	records, err := s.client.FetchRows(ctx, Query{SchemaID: schemaID, IsReport: isReport})
	if err != nil {
		return nil, err
	}
	return crossfilter.RowsFromMaps(records), nil
}
