package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/launchdeck/launchdeck/internal/handler/dto"
	"github.com/launchdeck/launchdeck/internal/middleware"
)

// BookTrips handles POST /api/v1/trips.
func (h *Handler) BookTrips(w http.ResponseWriter, r *http.Request) {
	var req dto.BookTripsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LaunchIDs == nil {
		writeError(w, http.StatusBadRequest, "MISSING_LAUNCH_IDS", "launchIds is required")
		return
	}

	result, err := h.api.BookTrips(r.Context(), requestContext(r), req.LaunchIDs)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.Info("trips_booked",
		"request_id", middleware.GetRequestID(r.Context()),
		"requested", len(req.LaunchIDs),
		"success", result.Success,
	)

	writeJSON(w, http.StatusOK, dto.ToTripUpdateResponse(result, true, h.patchFunc(r)))
}

// CancelTrip handles DELETE /api/v1/trips/{launchId}.
func (h *Handler) CancelTrip(w http.ResponseWriter, r *http.Request) {
	launchID, err := strconv.Atoi(chi.URLParam(r, "launchId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_LAUNCH_ID", "Launch ID must be an integer")
		return
	}

	result, err := h.api.CancelTrip(r.Context(), requestContext(r), launchID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.Info("trip_cancelled",
		"request_id", middleware.GetRequestID(r.Context()),
		"launch_id", launchID,
		"success", result.Success,
	)

	writeJSON(w, http.StatusOK, dto.ToTripUpdateResponse(result, false, h.patchFunc(r)))
}
