// Package handler provides HTTP request handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/launchdeck/launchdeck/internal/auth"
	"github.com/launchdeck/launchdeck/internal/booking"
	"github.com/launchdeck/launchdeck/internal/catalog"
	"github.com/launchdeck/launchdeck/internal/graph"
	"github.com/launchdeck/launchdeck/internal/handler/dto"
	"github.com/launchdeck/launchdeck/internal/middleware"
	"github.com/launchdeck/launchdeck/internal/model"
)

// API is the query and mutation surface served over HTTP.
// *graph.Resolver implements it.
type API interface {
	Launches(ctx context.Context, rc *graph.RequestContext, pageSize int, after *string) (model.Page, error)
	Launch(ctx context.Context, rc *graph.RequestContext, id int) (*graph.LaunchView, error)
	LaunchViews(ctx context.Context, rc *graph.RequestContext, launches []model.Launch) ([]graph.LaunchView, error)
	Me(ctx context.Context, rc *graph.RequestContext) (*graph.UserView, error)
	Login(ctx context.Context, email string) (string, error)
	BookTrips(ctx context.Context, rc *graph.RequestContext, launchIDs []int) (model.TripUpdateResponse, error)
	CancelTrip(ctx context.Context, rc *graph.RequestContext, launchID int) (model.TripUpdateResponse, error)
	MissionPatch(m model.Mission, size model.PatchSize) *string
}

// Handler serves the launch, user and trip endpoints.
type Handler struct {
	api    API
	logger *slog.Logger
}

// New creates a new Handler instance.
func New(api API, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		api:    api,
		logger: logger.With("component", "handler"),
	}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// requestContext builds the caller state for one request.
func requestContext(r *http.Request) *graph.RequestContext {
	return &graph.RequestContext{
		Identity:  auth.IdentityFromContext(r.Context()),
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

// patchFunc reads the patchSize query parameter. Anything but SMALL
// resolves to the large patch.
func (h *Handler) patchFunc(r *http.Request) dto.PatchFunc {
	size := model.PatchSize(strings.ToUpper(r.URL.Query().Get("patchSize")))
	return func(m model.Mission) *string {
		return h.api.MissionPatch(m, size)
	}
}

// decodeJSON decodes the request body and writes the error response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// handleError maps domain errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "LAUNCH_NOT_FOUND", "Launch not found")
	case errors.Is(err, catalog.ErrUpstreamUnavailable):
		h.logger.Warn("upstream_unavailable",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Launch catalog is unavailable")
	case errors.Is(err, graph.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	default:
		h.logger.Error("internal_error",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
