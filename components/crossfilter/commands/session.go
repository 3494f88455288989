package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

// ErrInvalidInput marks a command rejected for missing or malformed input.
var ErrInvalidInput = errors.New("invalid command input")

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// OpenSessionInput mounts a report or metric view. Result receives the
// initial snapshot when set.
type OpenSessionInput struct {
	SchemaID  string                       `json:"schema_id"`
	IsReport  bool                         `json:"is_report"`
	SessionID string                       `json:"session_id,omitempty"`
	Filters   crossfilter.FilterState      `json:"filters,omitempty"`
	Rows      crossfilter.Rows             `json:"rows,omitempty"`
	Result    *crossfilter.SessionSnapshot `json:"-"`
}

type sessionOpener interface {
	OpenSession(ctx context.Context, req crossfilter.OpenSessionRequest) (crossfilter.SessionSnapshot, error)
}

// OpenSessionCommand wraps Service.OpenSession so transports can mount views
// without linking directly against the service.
type OpenSessionCommand struct {
	service   sessionOpener
	telemetry Telemetry
}

// NewOpenSessionCommand creates the command.
func NewOpenSessionCommand(service sessionOpener, telemetry Telemetry) *OpenSessionCommand {
	return &OpenSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenSessionInput] = (*OpenSessionCommand)(nil)

// Execute opens the session.
func (c *OpenSessionCommand) Execute(ctx context.Context, msg OpenSessionInput) error {
	if c.service == nil {
		return errors.New("open session command requires service")
	}
	if msg.SchemaID == "" {
		return invalidInput("open session command requires schema id")
	}
	snap, err := c.service.OpenSession(ctx, crossfilter.OpenSessionRequest{
		SchemaID:  msg.SchemaID,
		IsReport:  msg.IsReport,
		SessionID: msg.SessionID,
		Filters:   msg.Filters,
		Rows:      msg.Rows,
	})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = snap
	}
	c.telemetry.Record(ctx, "crossfilter.command.open_session", map[string]any{
		"session_id": snap.SessionID,
		"schema_id":  msg.SchemaID,
	})
	return nil
}

// CloseSessionInput identifies the view to unmount.
type CloseSessionInput struct {
	SessionID string `json:"session_id"`
}

type sessionCloser interface {
	CloseSession(ctx context.Context, sessionID string) error
}

// CloseSessionCommand discards a session and its filters.
type CloseSessionCommand struct {
	service   sessionCloser
	telemetry Telemetry
}

// NewCloseSessionCommand creates the command.
func NewCloseSessionCommand(service sessionCloser, telemetry Telemetry) *CloseSessionCommand {
	return &CloseSessionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseSessionInput] = (*CloseSessionCommand)(nil)

// Execute closes the session.
func (c *CloseSessionCommand) Execute(ctx context.Context, msg CloseSessionInput) error {
	if c.service == nil {
		return errors.New("close session command requires service")
	}
	if msg.SessionID == "" {
		return invalidInput("close session command requires session id")
	}
	if err := c.service.CloseSession(ctx, msg.SessionID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "crossfilter.command.close_session", map[string]any{
		"session_id": msg.SessionID,
	})
	return nil
}
