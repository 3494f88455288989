package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/goliatone/go-crossfilter/components/crossfilter/commands"
	"github.com/goliatone/go-crossfilter/components/crossfilter/queries"
)

type stubExecutor struct {
	open   commands.OpenSessionInput
	toggle commands.ToggleFilterInput
	remove commands.RemoveFilterInput
	closed string
	calls  int
	err    error
}

func (s *stubExecutor) Open(_ context.Context, input commands.OpenSessionInput) error {
	s.calls++
	s.open = input
	if input.Result != nil {
		*input.Result = crossfilter.SessionSnapshot{SessionID: "s-1", SchemaID: input.SchemaID}
	}
	return s.err
}

func (s *stubExecutor) Close(_ context.Context, input commands.CloseSessionInput) error {
	s.calls++
	s.closed = input.SessionID
	return s.err
}

func (s *stubExecutor) Toggle(_ context.Context, input commands.ToggleFilterInput) error {
	s.calls++
	s.toggle = input
	if input.Result != nil {
		*input.Result = crossfilter.SessionSnapshot{SessionID: input.SessionID, VisibleRows: 2}
	}
	return s.err
}

func (s *stubExecutor) Remove(_ context.Context, input commands.RemoveFilterInput) error {
	s.calls++
	s.remove = input
	return s.err
}

func (s *stubExecutor) Clear(_ context.Context, input commands.ClearFiltersInput) error {
	s.calls++
	return s.err
}

func (s *stubExecutor) Snapshot(_ context.Context, input queries.SessionInput) (crossfilter.SessionSnapshot, error) {
	s.calls++
	return crossfilter.SessionSnapshot{SessionID: input.SessionID}, s.err
}

func TestHandleOpenSession(t *testing.T) {
	exec := &stubExecutor{}
	api := &Handlers{API: exec}
	buf, _ := json.Marshal(commands.OpenSessionInput{SchemaID: "churn-risk", IsReport: true})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleOpenSession(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if exec.open.SchemaID != "churn-risk" || !exec.open.IsReport {
		t.Fatalf("expected payload propagation, got %+v", exec.open)
	}
	var snap crossfilter.SessionSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.SessionID != "s-1" {
		t.Fatalf("expected snapshot in response, got %+v", snap)
	}
}

func TestHandleOpenSessionBadPayload(t *testing.T) {
	exec := &stubExecutor{}
	api := &Handlers{API: exec}
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	api.HandleOpenSession(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if exec.calls != 0 {
		t.Fatalf("expected executor to be skipped")
	}
}

func TestHandleToggle(t *testing.T) {
	exec := &stubExecutor{}
	api := &Handlers{API: exec}
	buf, _ := json.Marshal(TogglePayload{ColumnID: "plan", Value: "Pro", Click: true})
	req := httptest.NewRequest(http.MethodPost, "/sessions/s-1/filters", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleToggle(rec, req, "s-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if exec.toggle.SessionID != "s-1" || exec.toggle.ColumnID != "plan" || !exec.toggle.Click {
		t.Fatalf("unexpected toggle input %+v", exec.toggle)
	}
}

func TestHandleErrorsMapToStatus(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("%w: s-9", crossfilter.ErrSessionNotFound): http.StatusNotFound,
		fmt.Errorf("%w: nope", crossfilter.ErrUnknownColumn):  http.StatusUnprocessableEntity,
		crossfilter.ErrNotFilterable:                          http.StatusUnprocessableEntity,
		crossfilter.ErrSessionClosed:                          http.StatusGone,
		crossfilter.ErrInvalidSchemaID:                        http.StatusBadRequest,
		fmt.Errorf("%w: missing", commands.ErrInvalidInput):   http.StatusBadRequest,
		crossfilter.ErrSessionLimit:                           http.StatusTooManyRequests,
		io.ErrUnexpectedEOF:                                   http.StatusInternalServerError,
	}
	for err, want := range cases {
		api := &Handlers{API: &stubExecutor{err: err}}
		rec := httptest.NewRecorder()
		api.HandleRemoveFilter(rec, httptest.NewRequest(http.MethodDelete, "/", nil), "s-9", "plan")
		if rec.Code != want {
			t.Fatalf("%v: expected %d, got %d", err, want, rec.Code)
		}
	}
}

func TestHandleCloseSession(t *testing.T) {
	exec := &stubExecutor{}
	api := &Handlers{API: exec}
	rec := httptest.NewRecorder()
	api.HandleCloseSession(rec, httptest.NewRequest(http.MethodDelete, "/sessions/s-1", nil), "s-1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if exec.closed != "s-1" {
		t.Fatalf("expected session id propagation")
	}
}

func TestMuxRoutesAgainstService(t *testing.T) {
	service := crossfilter.NewService(crossfilter.Options{})
	api := &Handlers{API: NewCommandExecutor(service, nil), Sessions: service}
	mux := api.Mux("/api")

	rows := crossfilter.RowsFromMaps([]map[string]any{
		{"customer": "Acme", "plan": "Pro", "mrr": 120},
		{"customer": "Globex", "plan": "Basic", "mrr": 40},
	})
	body, _ := json.Marshal(commands.OpenSessionInput{SchemaID: "churn-risk", IsReport: true, SessionID: "s-1", Rows: rows})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body, _ = json.Marshal(TogglePayload{ColumnID: "plan", Value: "Pro"})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/s-1/filters", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap crossfilter.SessionSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.VisibleRows != 1 || !snap.Filters.Has("plan", "Pro") {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/s-1/filters/plan", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/s-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("snapshot after close: expected 404, got %d", rec.Code)
	}
}

func TestMuxRejectsBadInputAndSessionLimit(t *testing.T) {
	service := crossfilter.NewService(crossfilter.Options{MaxSessions: 1})
	api := &Handlers{API: NewCommandExecutor(service, nil), Sessions: service}
	mux := api.Mux("/api")
	rows := crossfilter.RowsFromMaps([]map[string]any{{"plan": "Pro", "mrr": 120}})

	open := func(input commands.OpenSessionInput) int {
		body, _ := json.Marshal(input)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body)))
		return rec.Code
	}

	if code := open(commands.OpenSessionInput{IsReport: true, Rows: rows}); code != http.StatusBadRequest {
		t.Fatalf("missing schema id: expected 400, got %d", code)
	}
	if code := open(commands.OpenSessionInput{SchemaID: "churn-risk", IsReport: true, SessionID: "s-1", Rows: rows}); code != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d", code)
	}
	if code := open(commands.OpenSessionInput{SchemaID: "churn-risk", IsReport: true, Rows: rows}); code != http.StatusTooManyRequests {
		t.Fatalf("over limit: expected 429, got %d", code)
	}

	body, _ := json.Marshal(TogglePayload{Value: "Pro"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/s-1/filters", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("toggle without column: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html>ok</html>"))
	}
	return "ok", nil
}

func TestHandleReport(t *testing.T) {
	service := crossfilter.NewService(crossfilter.Options{})
	rows := crossfilter.RowsFromMaps([]map[string]any{{"plan": "Pro"}})
	if _, err := service.OpenSession(context.Background(), crossfilter.OpenSessionRequest{
		SchemaID: "churn-risk", IsReport: true, SessionID: "s-1", Rows: rows,
	}); err != nil {
		t.Fatalf("open session: %v", err)
	}
	renderer := &stubRenderer{}
	page, err := crossfilter.NewReportPage(
		crossfilter.WithTemplateRenderer(renderer),
		crossfilter.WithChartRenderer(crossfilter.NewEChartsRenderer(crossfilter.WithChartCache(nil))),
	)
	if err != nil {
		t.Fatalf("report page: %v", err)
	}
	api := &Handlers{Sessions: service, Report: page}

	rec := httptest.NewRecorder()
	api.HandleReport(rec, httptest.NewRequest(http.MethodGet, "/sessions/s-1/report", nil), "s-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if renderer.calls != 1 || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("expected rendered page, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}

	rec = httptest.NewRecorder()
	api.HandleReport(rec, httptest.NewRequest(http.MethodGet, "/sessions/missing/report", nil), "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}
}
