package crossfilter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrSessionNotFound is returned for unknown or closed session ids.
	ErrSessionNotFound = errors.New("crossfilter: session not found")
	// ErrInvalidSchemaID is returned when a session is opened without a schema id.
	ErrInvalidSchemaID = errors.New("crossfilter: schema id is required")
	// ErrSessionLimit is returned when MaxSessions sessions are already open.
	ErrSessionLimit = errors.New("crossfilter: session limit reached")

	errMissingRowSource = errors.New("crossfilter: row source not configured")
)

// RowSource loads the rows behind a report or metric view.
type RowSource interface {
	Rows(ctx context.Context, schemaID string, isReport bool) (Rows, error)
}

// RowSourceFunc adapts a function to RowSource.
type RowSourceFunc func(ctx context.Context, schemaID string, isReport bool) (Rows, error)

// Rows implements RowSource.
func (f RowSourceFunc) Rows(ctx context.Context, schemaID string, isReport bool) (Rows, error) {
	return f(ctx, schemaID, isReport)
}

// Options configures the Service. Every collaborator is an interface or
// option so hosts can swap implementations.
type Options struct {
	Schemas         *SchemaRegistry
	Source          RowSource
	FilterHook      FilterHook
	Telemetry       Telemetry
	Logger          logrus.FieldLogger
	AnalyzerOptions []AnalyzerOption
	// MaxSessions caps concurrently open sessions. Zero means unlimited.
	MaxSessions int
}

// Service manages cross-filter sessions, one Coordinator per mounted view.
type Service struct {
	opts     Options
	mu       sync.RWMutex
	sessions map[string]*session
	// pending counts opens that hold a slot but have not been inserted yet.
	pending int
}

type session struct {
	schemaID    string
	isReport    bool
	coordinator *Coordinator
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Schemas == nil {
		opts.Schemas = DefaultSchemaRegistry()
	}
	if opts.FilterHook == nil {
		opts.FilterHook = noopFilterHook{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Schemas exposes the registry sessions resolve columns from.
func (s *Service) Schemas() *SchemaRegistry { return s.opts.Schemas }

// OpenSessionRequest mounts a view.
type OpenSessionRequest struct {
	SchemaID string
	IsReport bool
	// Rows bypasses the configured RowSource when non-nil.
	Rows Rows
	// Filters seeds the session's filter state.
	Filters FilterState
	// SessionID overrides the generated id.
	SessionID string
}

// SessionSnapshot is the complete observable state of a session.
type SessionSnapshot struct {
	SessionID   string             `json:"sessionId"`
	SchemaID    string             `json:"schemaId"`
	IsReport    bool               `json:"isReport"`
	Columns     []ColumnDefinition `json:"columns"`
	Results     []AnalysisResult   `json:"results"`
	Filters     FilterState        `json:"filters"`
	Chips       []FilterChip       `json:"chips"`
	Version     uint64             `json:"version"`
	VisibleRows int                `json:"visibleRows"`
	TotalRows   int                `json:"totalRows"`
}

// OpenSession loads rows, resolves columns and mounts a Coordinator.
func (s *Service) OpenSession(ctx context.Context, req OpenSessionRequest) (SessionSnapshot, error) {
	if req.SchemaID == "" {
		return SessionSnapshot{}, ErrInvalidSchemaID
	}
	if _, known := s.opts.Schemas.Lookup(req.SchemaID, req.IsReport); !known {
		s.opts.Logger.WithFields(logrus.Fields{
			"schema":    req.SchemaID,
			"is_report": req.IsReport,
		}).Debug("crossfilter: unknown schema, using fallback columns")
	}
	columns := s.opts.Schemas.ColumnSchema(req.SchemaID, req.IsReport)

	rows := req.Rows
	if rows == nil {
		if s.opts.Source == nil {
			return SessionSnapshot{}, errMissingRowSource
		}
		loaded, err := s.opts.Source.Rows(ctx, req.SchemaID, req.IsReport)
		if err != nil {
			return SessionSnapshot{}, fmt.Errorf("crossfilter: load rows for %s: %w", req.SchemaID, err)
		}
		rows = loaded
	}

	store, err := seededStore(columns, req.Filters)
	if err != nil {
		return SessionSnapshot{}, err
	}

	if err := s.reserveSlot(); err != nil {
		return SessionSnapshot{}, err
	}

	opts := []CoordinatorOption{
		WithFilterStore(store),
		WithAnalyzer(NewAnalyzer(columns, s.opts.AnalyzerOptions...)),
		WithLogger(s.opts.Logger),
		WithTelemetry(s.opts.Telemetry),
		WithFilterHook(s.opts.FilterHook),
	}
	if req.SessionID != "" {
		opts = append(opts, WithSessionID(req.SessionID))
	}
	coord := NewCoordinator(rows, columns, opts...)

	for _, columnID := range req.Filters.Columns() {
		if result, ok := coord.Result(columnID); ok && result.Type == ChartEmpty {
			s.releaseSlot()
			coord.Close()
			return SessionSnapshot{}, fmt.Errorf("%w: %s", ErrNotFilterable, columnID)
		}
	}

	s.mu.Lock()
	s.pending--
	if _, exists := s.sessions[coord.SessionID()]; exists {
		s.mu.Unlock()
		coord.Close()
		return SessionSnapshot{}, fmt.Errorf("crossfilter: session %s already open", coord.SessionID())
	}
	s.sessions[coord.SessionID()] = &session{schemaID: req.SchemaID, isReport: req.IsReport, coordinator: coord}
	s.mu.Unlock()

	s.opts.Telemetry.Record(ctx, "crossfilter.session.open", map[string]any{
		"session_id": coord.SessionID(),
		"schema_id":  req.SchemaID,
		"rows":       len(rows),
	})
	s.opts.Logger.WithFields(logrus.Fields{
		"session": coord.SessionID(),
		"schema":  req.SchemaID,
		"rows":    len(rows),
	}).Info("crossfilter: session opened")

	return s.snapshot(coord.SessionID())
}

// CloseSession unmounts a view and discards its filter state.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	sess.coordinator.Close()
	s.opts.Telemetry.Record(ctx, "crossfilter.session.close", map[string]any{
		"session_id": sessionID,
	})
	return nil
}

// Session returns the coordinator behind sessionID.
func (s *Service) Session(sessionID string) (*Coordinator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess.coordinator, nil
}

// Sessions lists open session ids in sorted order.
func (s *Service) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Toggle flips a filter value and returns the updated snapshot.
func (s *Service) Toggle(ctx context.Context, sessionID, columnID, value string) (SessionSnapshot, error) {
	coord, err := s.Session(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if _, err := coord.Toggle(ctx, columnID, value); err != nil {
		return SessionSnapshot{}, err
	}
	return s.snapshot(sessionID)
}

// Click routes a chart click and returns the updated snapshot.
func (s *Service) Click(ctx context.Context, sessionID string, click ChartClick) (SessionSnapshot, error) {
	coord, err := s.Session(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if _, err := coord.HandleClick(ctx, click); err != nil {
		return SessionSnapshot{}, err
	}
	return s.snapshot(sessionID)
}

// RemoveFilter drops one column's filter and returns the updated snapshot.
func (s *Service) RemoveFilter(ctx context.Context, sessionID, columnID string) (SessionSnapshot, error) {
	coord, err := s.Session(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if _, err := coord.Remove(ctx, columnID); err != nil {
		return SessionSnapshot{}, err
	}
	return s.snapshot(sessionID)
}

// ClearFilters drops every filter and returns the updated snapshot.
func (s *Service) ClearFilters(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	coord, err := s.Session(sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	if err := coord.Clear(ctx); err != nil {
		return SessionSnapshot{}, err
	}
	return s.snapshot(sessionID)
}

// Snapshot returns the session's current state.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	return s.snapshot(sessionID)
}

func (s *Service) snapshot(sessionID string) (SessionSnapshot, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return SessionSnapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return SnapshotOf(sess.coordinator, sess.schemaID, sess.isReport), nil
}

// SnapshotOf captures a coordinator's observable state.
func SnapshotOf(c *Coordinator, schemaID string, isReport bool) SessionSnapshot {
	filters := c.Filters()
	return SessionSnapshot{
		SessionID:   c.SessionID(),
		SchemaID:    schemaID,
		IsReport:    isReport,
		Columns:     c.Columns(),
		Results:     c.Results(),
		Filters:     filters,
		Chips:       c.Chips(),
		Version:     c.Version(),
		VisibleRows: len(c.VisibleRows()),
		TotalRows:   c.TotalRows(),
	}
}

// reserveSlot claims room for one more session under MaxSessions. The claim
// is held in pending until the session is inserted or releaseSlot runs.
func (s *Service) reserveSlot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.MaxSessions > 0 && len(s.sessions)+s.pending >= s.opts.MaxSessions {
		return ErrSessionLimit
	}
	s.pending++
	return nil
}

func (s *Service) releaseSlot() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

func seededStore(columns []ColumnDefinition, filters FilterState) (*FilterStore, error) {
	store := NewFilterStore()
	if filters.IsEmpty() {
		return store, nil
	}
	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[col.ID] = struct{}{}
	}
	for _, columnID := range filters.Columns() {
		if _, ok := known[columnID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
		}
		for _, value := range filters[columnID] {
			if !store.Has(columnID, value) {
				store.Toggle(columnID, value)
			}
		}
	}
	return store, nil
}
