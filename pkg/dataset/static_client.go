package dataset

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// StaticClient serves rows from memory for tests and local demos.
type StaticClient struct {
	mu      sync.RWMutex
	reports map[string][]map[string]any
	metrics map[string][]map[string]any
}

// NewStaticClient builds an empty in-memory client.
func NewStaticClient() *StaticClient {
	return &StaticClient{
		reports: map[string][]map[string]any{},
		metrics: map[string][]map[string]any{},
	}
}

// SetReport replaces the rows of a report table.
func (c *StaticClient) SetReport(id string, rows []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[id] = cloneRecords(rows)
}

// SetMetric replaces the rows of a metric table.
func (c *StaticClient) SetMetric(id string, rows []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics[id] = cloneRecords(rows)
}

// FetchRows implements Client.
func (c *StaticClient) FetchRows(_ context.Context, query Query) ([]map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table := c.metrics
	if query.IsReport {
		table = c.reports
	}
	rows, ok := table[query.SchemaID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, query.Kind(), query.SchemaID)
	}
	return cloneRecords(rows), nil
}

func cloneRecords(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = maps.Clone(row)
	}
	return out
}
