package crossfilter

import "context"

// Telemetry records cross-filter events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// FilterHook notifies transports (SSE/WebSocket/chip UIs) about filter changes.
type FilterHook interface {
	FiltersChanged(ctx context.Context, event FilterEvent) error
}

// FilterEvent describes a filter mutation and its effect on the visible rows.
type FilterEvent struct {
	SessionID   string      `json:"sessionId"`
	Action      StoreAction `json:"action"`
	ColumnID    string      `json:"columnId,omitempty"`
	Value       string      `json:"value,omitempty"`
	Filters     FilterState `json:"filters"`
	Version     uint64      `json:"version"`
	VisibleRows int         `json:"visibleRows"`
	TotalRows   int         `json:"totalRows"`
}

type noopFilterHook struct{}

func (noopFilterHook) FiltersChanged(context.Context, FilterEvent) error { return nil }

// FilterHooks fans a single event out to several hooks, stopping at the
// first error.
type FilterHooks []FilterHook

// FiltersChanged implements FilterHook.
func (hooks FilterHooks) FiltersChanged(ctx context.Context, event FilterEvent) error {
	for _, h := range hooks {
		if h == nil {
			continue
		}
		if err := h.FiltersChanged(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
