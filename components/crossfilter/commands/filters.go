package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

type filterService interface {
	Toggle(ctx context.Context, sessionID, columnID, value string) (crossfilter.SessionSnapshot, error)
	Click(ctx context.Context, sessionID string, click crossfilter.ChartClick) (crossfilter.SessionSnapshot, error)
	RemoveFilter(ctx context.Context, sessionID, columnID string) (crossfilter.SessionSnapshot, error)
	ClearFilters(ctx context.Context, sessionID string) (crossfilter.SessionSnapshot, error)
}

// ToggleFilterInput flips one value of a column filter. Setting Click routes
// the value through chart click handling instead (overflow entries are
// ignored and string activity charts filter the timeline column).
type ToggleFilterInput struct {
	SessionID string                       `json:"session_id"`
	ColumnID  string                       `json:"column_id"`
	Value     string                       `json:"value"`
	Click     bool                         `json:"click,omitempty"`
	Result    *crossfilter.SessionSnapshot `json:"-"`
}

// ToggleFilterCommand toggles a filter value on a session.
type ToggleFilterCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewToggleFilterCommand creates the command.
func NewToggleFilterCommand(service filterService, telemetry Telemetry) *ToggleFilterCommand {
	return &ToggleFilterCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleFilterInput] = (*ToggleFilterCommand)(nil)

// Execute applies the toggle.
func (c *ToggleFilterCommand) Execute(ctx context.Context, msg ToggleFilterInput) error {
	if c.service == nil {
		return errors.New("toggle filter command requires service")
	}
	if msg.SessionID == "" || msg.ColumnID == "" {
		return invalidInput("toggle filter command requires session id and column id")
	}
	var (
		snap crossfilter.SessionSnapshot
		err  error
	)
	if msg.Click {
		snap, err = c.service.Click(ctx, msg.SessionID, crossfilter.ChartClick{ColumnID: msg.ColumnID, Label: msg.Value})
	} else {
		snap, err = c.service.Toggle(ctx, msg.SessionID, msg.ColumnID, msg.Value)
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = snap
	}
	c.telemetry.Record(ctx, "crossfilter.command.toggle", map[string]any{
		"session_id":   msg.SessionID,
		"column_id":    msg.ColumnID,
		"visible_rows": snap.VisibleRows,
	})
	return nil
}

// RemoveFilterInput drops one column's filter.
type RemoveFilterInput struct {
	SessionID string                       `json:"session_id"`
	ColumnID  string                       `json:"column_id"`
	Result    *crossfilter.SessionSnapshot `json:"-"`
}

// RemoveFilterCommand backs the chip bar's per-column remove action.
type RemoveFilterCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewRemoveFilterCommand creates the command.
func NewRemoveFilterCommand(service filterService, telemetry Telemetry) *RemoveFilterCommand {
	return &RemoveFilterCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveFilterInput] = (*RemoveFilterCommand)(nil)

// Execute removes the filter.
func (c *RemoveFilterCommand) Execute(ctx context.Context, msg RemoveFilterInput) error {
	if c.service == nil {
		return errors.New("remove filter command requires service")
	}
	if msg.SessionID == "" || msg.ColumnID == "" {
		return invalidInput("remove filter command requires session id and column id")
	}
	snap, err := c.service.RemoveFilter(ctx, msg.SessionID, msg.ColumnID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = snap
	}
	c.telemetry.Record(ctx, "crossfilter.command.remove", map[string]any{
		"session_id": msg.SessionID,
		"column_id":  msg.ColumnID,
	})
	return nil
}

// ClearFiltersInput drops every filter of a session.
type ClearFiltersInput struct {
	SessionID string                       `json:"session_id"`
	Result    *crossfilter.SessionSnapshot `json:"-"`
}

// ClearFiltersCommand backs the "clear all" action.
type ClearFiltersCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewClearFiltersCommand creates the command.
func NewClearFiltersCommand(service filterService, telemetry Telemetry) *ClearFiltersCommand {
	return &ClearFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ClearFiltersInput] = (*ClearFiltersCommand)(nil)

// Execute clears the filters.
func (c *ClearFiltersCommand) Execute(ctx context.Context, msg ClearFiltersInput) error {
	if c.service == nil {
		return errors.New("clear filters command requires service")
	}
	if msg.SessionID == "" {
		return invalidInput("clear filters command requires session id")
	}
	snap, err := c.service.ClearFilters(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = snap
	}
	c.telemetry.Record(ctx, "crossfilter.command.clear", map[string]any{
		"session_id": msg.SessionID,
	})
	return nil
}
