package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/goliatone/go-crossfilter/components/crossfilter/commands"
	"github.com/goliatone/go-crossfilter/components/crossfilter/queries"
)

// Executor abstracts how transports run crossfilter commands and queries.
type Executor interface {
	Open(ctx context.Context, input commands.OpenSessionInput) error
	Close(ctx context.Context, input commands.CloseSessionInput) error
	Toggle(ctx context.Context, input commands.ToggleFilterInput) error
	Remove(ctx context.Context, input commands.RemoveFilterInput) error
	Clear(ctx context.Context, input commands.ClearFiltersInput) error
	Snapshot(ctx context.Context, input queries.SessionInput) (crossfilter.SessionSnapshot, error)
}

var errCommandMissing = errors.New("httpapi: command not configured")

// CommandExecutor adapts go-command commanders and queriers to Executor.
type CommandExecutor struct {
	OpenCommander   gocommand.Commander[commands.OpenSessionInput]
	CloseCommander  gocommand.Commander[commands.CloseSessionInput]
	ToggleCommander gocommand.Commander[commands.ToggleFilterInput]
	RemoveCommander gocommand.Commander[commands.RemoveFilterInput]
	ClearCommander  gocommand.Commander[commands.ClearFiltersInput]
	SnapshotQuerier gocommand.Querier[queries.SessionInput, crossfilter.SessionSnapshot]
}

// NewCommandExecutor wires every command against a single service.
func NewCommandExecutor(service *crossfilter.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		OpenCommander:   commands.NewOpenSessionCommand(service, telemetry),
		CloseCommander:  commands.NewCloseSessionCommand(service, telemetry),
		ToggleCommander: commands.NewToggleFilterCommand(service, telemetry),
		RemoveCommander: commands.NewRemoveFilterCommand(service, telemetry),
		ClearCommander:  commands.NewClearFiltersCommand(service, telemetry),
		SnapshotQuerier: queries.NewSessionSnapshotQuery(service),
	}
}

func (e *CommandExecutor) Open(ctx context.Context, input commands.OpenSessionInput) error {
	if e.OpenCommander == nil {
		return errCommandMissing
	}
	return e.OpenCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Close(ctx context.Context, input commands.CloseSessionInput) error {
	if e.CloseCommander == nil {
		return errCommandMissing
	}
	return e.CloseCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Toggle(ctx context.Context, input commands.ToggleFilterInput) error {
	if e.ToggleCommander == nil {
		return errCommandMissing
	}
	return e.ToggleCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Remove(ctx context.Context, input commands.RemoveFilterInput) error {
	if e.RemoveCommander == nil {
		return errCommandMissing
	}
	return e.RemoveCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Clear(ctx context.Context, input commands.ClearFiltersInput) error {
	if e.ClearCommander == nil {
		return errCommandMissing
	}
	return e.ClearCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Snapshot(ctx context.Context, input queries.SessionInput) (crossfilter.SessionSnapshot, error) {
	if e.SnapshotQuerier == nil {
		return crossfilter.SessionSnapshot{}, errCommandMissing
	}
	return e.SnapshotQuerier.Query(ctx, input)
}

var _ Executor = (*CommandExecutor)(nil)
