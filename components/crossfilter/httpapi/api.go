package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/goliatone/go-crossfilter/components/crossfilter/commands"
	"github.com/goliatone/go-crossfilter/components/crossfilter/queries"
)

// SessionLookup resolves the coordinator behind a session id.
type SessionLookup interface {
	Session(sessionID string) (*crossfilter.Coordinator, error)
}

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	API       Executor
	Sessions  SessionLookup
	Report    *crossfilter.ReportPage
	Broadcast *crossfilter.BroadcastHook
}

// TogglePayload is the body of a toggle or chart click request.
type TogglePayload struct {
	ColumnID string `json:"column_id"`
	Value    string `json:"value"`
	Click    bool   `json:"click,omitempty"`
}

// StatusFor maps crossfilter errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, crossfilter.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, crossfilter.ErrUnknownColumn), errors.Is(err, crossfilter.ErrNotFilterable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, crossfilter.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, commands.ErrInvalidInput), errors.Is(err, crossfilter.ErrInvalidSchemaID):
		return http.StatusBadRequest
	case errors.Is(err, crossfilter.ErrSessionLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Mux routes every handler on a net/http ServeMux under prefix.
func (h *Handlers) Mux(prefix string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/sessions", h.HandleOpenSession)
	mux.HandleFunc("GET "+prefix+"/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSnapshot(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE "+prefix+"/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleCloseSession(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+prefix+"/sessions/{id}/filters", func(w http.ResponseWriter, r *http.Request) {
		h.HandleToggle(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE "+prefix+"/sessions/{id}/filters", func(w http.ResponseWriter, r *http.Request) {
		h.HandleClearFilters(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE "+prefix+"/sessions/{id}/filters/{column}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRemoveFilter(w, r, r.PathValue("id"), r.PathValue("column"))
	})
	mux.HandleFunc("GET "+prefix+"/sessions/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		h.HandleReport(w, r, r.PathValue("id"))
	})
	if h.Broadcast != nil {
		mux.HandleFunc("GET "+prefix+"/events", h.Broadcast.ServeSSE)
		mux.HandleFunc("GET "+prefix+"/ws", h.Broadcast.ServeWebSocket)
	}
	return mux
}

func (h *Handlers) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var payload commands.OpenSessionInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var snap crossfilter.SessionSnapshot
	payload.Result = &snap
	if err := h.API.Open(r.Context(), payload); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handlers) HandleCloseSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.API.Close(r.Context(), commands.CloseSessionInput{SessionID: sessionID}); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request, sessionID string) {
	snap, err := h.API.Snapshot(r.Context(), queries.SessionInput{SessionID: sessionID})
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload TogglePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var snap crossfilter.SessionSnapshot
	input := commands.ToggleFilterInput{
		SessionID: sessionID,
		ColumnID:  payload.ColumnID,
		Value:     payload.Value,
		Click:     payload.Click,
		Result:    &snap,
	}
	if err := h.API.Toggle(r.Context(), input); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleRemoveFilter(w http.ResponseWriter, r *http.Request, sessionID, columnID string) {
	var snap crossfilter.SessionSnapshot
	input := commands.RemoveFilterInput{SessionID: sessionID, ColumnID: columnID, Result: &snap}
	if err := h.API.Remove(r.Context(), input); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleClearFilters(w http.ResponseWriter, r *http.Request, sessionID string) {
	var snap crossfilter.SessionSnapshot
	if err := h.API.Clear(r.Context(), commands.ClearFiltersInput{SessionID: sessionID, Result: &snap}); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleReport renders the static HTML page for a session.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.Sessions == nil || h.Report == nil {
		http.Error(w, "report page not configured", http.StatusNotImplemented)
		return
	}
	coord, err := h.Sessions.Session(sessionID)
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = sessionID
	}
	var buf bytes.Buffer
	if err := h.Report.Render(&buf, title, coord); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
