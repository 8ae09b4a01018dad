// Package handler contains the HTTP handlers of the desk planner API.
package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/application/dto"
	"github.com/hapkiduki/desk-planner/internal/application/port"
	"github.com/hapkiduki/desk-planner/internal/application/service"
	"github.com/hapkiduki/desk-planner/internal/domain/entity"
	"github.com/hapkiduki/desk-planner/internal/domain/repository"
	"github.com/hapkiduki/desk-planner/internal/interfaces/http/middleware"
	"github.com/hapkiduki/desk-planner/pkg/logger"
)

// MonitorHandler serves the monitor, geometry and drawing endpoints.
type MonitorHandler struct {
	svc     *service.LayoutService
	log     port.Logger
	version string
}

// NewMonitorHandler creates the handler.
//
// Parameters:
//   - svc: the application controller
//   - log: logger for unexpected failures
//   - version: API version reported in response metadata
//
// Returns:
//   - *MonitorHandler: the handler
func NewMonitorHandler(svc *service.LayoutService, log port.Logger, version string) *MonitorHandler {
	return &MonitorHandler{svc: svc, log: log, version: version}
}

// Routes mounts the API under the returned router.
//
//	GET    /monitors                  list (limit, offset)
//	POST   /monitors                  add
//	GET    /monitors/{id}             get
//	PUT    /monitors/{id}/spec        replace the spec
//	POST   /monitors/{id}/commands    dispatch a command
//	DELETE /monitors/{id}             remove
//	GET    /monitors/{id}/label.png   label texture
//	GET    /layout.svg                top view
//	POST   /geometry/derive           stateless derivation
func (h *MonitorHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/monitors", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(monitorContext)
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Put("/spec", h.UpdateSpec)
			r.Post("/commands", h.Command)
			r.Get("/label.png", h.Label)
		})
	})

	r.Get("/layout.svg", h.Layout)
	r.Post("/geometry/derive", h.Derive)
	return r
}

type monitorIDKey struct{}

// monitorContext parses {id} and stores it for handlers and log lines.
func monitorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_ID", "Monitor ID must be a UUID")
			return
		}
		ctx := context.WithValue(r.Context(), monitorIDKey{}, id)
		ctx = context.WithValue(ctx, logger.MonitorIDKey, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func monitorID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(monitorIDKey{}).(uuid.UUID)
	return id
}

// List handles GET /monitors.
func (h *MonitorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_QUERY", "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_QUERY", "offset must be an integer")
		return
	}

	views, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, dto.Paginate(dto.NewMonitorResponses(views), limit, offset))
}

// Create handles POST /monitors. An empty body adds a default monitor.
func (h *MonitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMonitorRequest
	if !h.bind(w, r, &req) {
		return
	}

	view, err := h.svc.AddMonitor(r.Context(), req.Name, req.Spec.ToSpec())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/monitors/"+view.Monitor.ID.String())
	h.respond(w, r, http.StatusCreated, dto.NewMonitorResponse(view))
}

// Get handles GET /monitors/{id}.
func (h *MonitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), monitorID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, dto.NewMonitorResponse(view))
}

// UpdateSpec handles PUT /monitors/{id}/spec. Omitted fields take defaults.
func (h *MonitorHandler) UpdateSpec(w http.ResponseWriter, r *http.Request) {
	var req dto.SpecRequest
	if !h.bind(w, r, &req) {
		return
	}

	view, err := h.svc.UpdateSpec(r.Context(), monitorID(r), req.ToSpec())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, dto.NewMonitorResponse(view))
}

// Command handles POST /monitors/{id}/commands.
func (h *MonitorHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req dto.CommandRequest
	if !h.bind(w, r, &req) {
		return
	}

	view, err := h.svc.Execute(r.Context(), monitorID(r), req.ToCommand())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, dto.NewMonitorResponse(view))
}

// Delete handles DELETE /monitors/{id}.
func (h *MonitorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveMonitor(r.Context(), monitorID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// Label handles GET /monitors/{id}/label.png.
func (h *MonitorHandler) Label(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.RenderLabel(r.Context(), monitorID(r), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, "image/png", &buf)
}

// Layout handles GET /layout.svg.
func (h *MonitorHandler) Layout(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.RenderLayout(r.Context(), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	writeImage(w, "image/svg+xml", &buf)
}

// Derive handles POST /geometry/derive.
func (h *MonitorHandler) Derive(w http.ResponseWriter, r *http.Request) {
	var req dto.SpecRequest
	if !h.bind(w, r, &req) {
		return
	}

	h.respond(w, r, http.StatusOK, dto.NewGeometryResponse(h.svc.Preview(r.Context(), req.ToSpec())))
}

// bind decodes an optional JSON body and runs its validation. It writes the
// error response and returns false on failure.
func (h *MonitorHandler) bind(w http.ResponseWriter, r *http.Request, v render.Binder) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, r, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body is too large")
			return false
		}
		middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body is not valid JSON: "+err.Error())
		return false
	}

	if err := v.Bind(r); err != nil {
		var verrs dto.ValidationErrors
		if errors.As(err, &verrs) {
			resp := dto.NewValidationErrorResponse[any](verrs)
			resp.Meta = h.meta(r)
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp)
			return false
		}
		middleware.WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return false
	}
	return true
}

// fail maps application errors to HTTP responses.
func (h *MonitorHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrMonitorNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, "MONITOR_NOT_FOUND", "Monitor not found")
	case errors.Is(err, entity.ErrMonitorLocked):
		middleware.WriteError(w, r, http.StatusConflict, "MONITOR_LOCKED", "Monitor is locked")
	case errors.Is(err, repository.ErrOptimisticLock):
		middleware.WriteError(w, r, http.StatusConflict, "VERSION_CONFLICT", "Monitor was modified concurrently, retry the request")
	case errors.Is(err, service.ErrTooManyMonitors):
		middleware.WriteError(w, r, http.StatusConflict, "MONITOR_LIMIT", "Monitor limit reached")
	case errors.Is(err, service.ErrUnknownAction):
		middleware.WriteError(w, r, http.StatusBadRequest, "UNKNOWN_ACTION", err.Error())
	case errors.Is(err, service.ErrMissingArgument):
		middleware.WriteError(w, r, http.StatusBadRequest, "MISSING_ARGUMENT", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, r, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request was cancelled")
	default:
		h.log.WithContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		middleware.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func (h *MonitorHandler) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := dto.NewSuccessResponse(data)
	resp.Meta = h.meta(r)
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func (h *MonitorHandler) meta(r *http.Request) *dto.ResponseMeta {
	return &dto.ResponseMeta{
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}
}

func writeImage(w http.ResponseWriter, contentType string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
