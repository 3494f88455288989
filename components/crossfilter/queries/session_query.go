package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

// SessionInput identifies a mounted view.
type SessionInput struct {
	SessionID string `json:"session_id"`
}

type snapshotService interface {
	Snapshot(ctx context.Context, sessionID string) (crossfilter.SessionSnapshot, error)
}

// SessionSnapshotQuery returns a session's results, filters and chips.
type SessionSnapshotQuery struct {
	service snapshotService
}

// NewSessionSnapshotQuery builds the query.
func NewSessionSnapshotQuery(service snapshotService) *SessionSnapshotQuery {
	return &SessionSnapshotQuery{service: service}
}

var _ gocommand.Querier[SessionInput, crossfilter.SessionSnapshot] = (*SessionSnapshotQuery)(nil)

// Query resolves the snapshot.
func (q *SessionSnapshotQuery) Query(ctx context.Context, input SessionInput) (crossfilter.SessionSnapshot, error) {
	return q.service.Snapshot(ctx, input.SessionID)
}

// FiltersQuery returns only the active filter state of a session.
type FiltersQuery struct {
	service snapshotService
}

// NewFiltersQuery builds the query.
func NewFiltersQuery(service snapshotService) *FiltersQuery {
	return &FiltersQuery{service: service}
}

var _ gocommand.Querier[SessionInput, crossfilter.FilterState] = (*FiltersQuery)(nil)

// Query resolves the filters.
func (q *FiltersQuery) Query(ctx context.Context, input SessionInput) (crossfilter.FilterState, error) {
	snap, err := q.service.Snapshot(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	return snap.Filters, nil
}
