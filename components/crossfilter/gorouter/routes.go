package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/goliatone/go-crossfilter/components/crossfilter/commands"
	"github.com/goliatone/go-crossfilter/components/crossfilter/httpapi"
	"github.com/goliatone/go-crossfilter/components/crossfilter/queries"
)

// Config wires go-router with crossfilter commands, pages and hooks.
type Config[T any] struct {
	Router    router.Router[T]
	API       httpapi.Executor
	Sessions  httpapi.SessionLookup
	Report    *crossfilter.ReportPage
	Schemas   *crossfilter.SchemaRegistry
	Broadcast *crossfilter.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for crossfilter endpoints.
type RouteConfig struct {
	Sessions  string
	SessionID string
	Filters   string
	FilterCol string
	Report    string
	Schemas   string
	SchemaID  string
	WebSocket string
}

// Register mounts crossfilter routes (JSON, HTML report, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api executor is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/crossfilter"
	}
	schemas := cfg.Schemas
	if schemas == nil {
		schemas = crossfilter.DefaultSchemaRegistry()
	}

	group := cfg.Router.Group(base)
	registerSessions(group, cfg.API, routes)
	registerSchemas(group, schemas, routes)

	if cfg.Sessions != nil && cfg.Report != nil {
		group.Get(routes.Report, router.WrapHandler(func(ctx router.Context) error {
			id := ctx.Param("id")
			coord, err := cfg.Sessions.Session(id)
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			title := strings.TrimSpace(ctx.Query("title"))
			if title == "" {
				title = id
			}
			var buf bytes.Buffer
			if err := cfg.Report.Render(&buf, title, coord); err != nil {
				return respondError(ctx, http.StatusInternalServerError, err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}))
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerSessions[T any](r router.Router[T], api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Sessions, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.OpenSessionInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var snap crossfilter.SessionSnapshot
		payload.Result = &snap
		if err := api.Open(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, snap)
	}))

	r.Get(routes.SessionID, router.WrapHandler(func(ctx router.Context) error {
		snap, err := api.Snapshot(ctx.Context(), queries.SessionInput{SessionID: ctx.Param("id")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Delete(routes.SessionID, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Close(ctx.Context(), commands.CloseSessionInput{SessionID: ctx.Param("id")}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "closed"})
	}))

	r.Post(routes.Filters, router.WrapHandler(func(ctx router.Context) error {
		var payload httpapi.TogglePayload
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var snap crossfilter.SessionSnapshot
		input := commands.ToggleFilterInput{
			SessionID: ctx.Param("id"),
			ColumnID:  payload.ColumnID,
			Value:     payload.Value,
			Click:     payload.Click,
			Result:    &snap,
		}
		if err := api.Toggle(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Delete(routes.Filters, router.WrapHandler(func(ctx router.Context) error {
		var snap crossfilter.SessionSnapshot
		if err := api.Clear(ctx.Context(), commands.ClearFiltersInput{SessionID: ctx.Param("id"), Result: &snap}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Delete(routes.FilterCol, router.WrapHandler(func(ctx router.Context) error {
		var snap crossfilter.SessionSnapshot
		input := commands.RemoveFilterInput{SessionID: ctx.Param("id"), ColumnID: ctx.Param("column"), Result: &snap}
		if err := api.Remove(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))
}

func registerSchemas[T any](r router.Router[T], schemas *crossfilter.SchemaRegistry, routes RouteConfig) {
	r.Get(routes.Schemas, router.WrapHandler(func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, map[string][]string{
			"reports": schemas.Reports(),
			"metrics": schemas.Metrics(),
		})
	}))

	r.Get(routes.SchemaID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		isReport := ctx.Query("kind") != "metric"
		cols, ok := schemas.Lookup(id, isReport)
		if !ok {
			return respondError(ctx, http.StatusNotFound, errors.New("schema not found: "+id))
		}
		return ctx.JSON(http.StatusOK, map[string]any{
			"id":      id,
			"report":  isReport,
			"columns": crossfilter.ToTableColumns(cols),
		})
	}))
}

// registerWebSocket streams every session's filter events. Clients filter on
// the event's session id.
func registerWebSocket[T any](r router.Router[T], hook *crossfilter.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Sessions == "" {
		routes.Sessions = "/sessions"
	}
	if routes.SessionID == "" {
		routes.SessionID = "/sessions/:id"
	}
	if routes.Filters == "" {
		routes.Filters = "/sessions/:id/filters"
	}
	if routes.FilterCol == "" {
		routes.FilterCol = "/sessions/:id/filters/:column"
	}
	if routes.Report == "" {
		routes.Report = "/sessions/:id/report"
	}
	if routes.Schemas == "" {
		routes.Schemas = "/schemas"
	}
	if routes.SchemaID == "" {
		routes.SchemaID = "/schemas/:id"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
