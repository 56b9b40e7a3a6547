package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/launchdeck/launchdeck/internal/handler/dto"
	"github.com/launchdeck/launchdeck/internal/pagination"
)

// ListLaunches handles GET /api/v1/launches.
func (h *Handler) ListLaunches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	pageSize := pagination.DefaultPageSize
	if s := query.Get("pageSize"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "INVALID_PAGE_SIZE", "pageSize must be a positive integer")
			return
		}
		pageSize = parsed
	}

	// An empty cursor means the first page.
	var after *string
	if cursor := query.Get("after"); cursor != "" {
		after = &cursor
	}

	rc := requestContext(r)
	page, err := h.api.Launches(r.Context(), rc, pageSize, after)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	views, err := h.api.LaunchViews(r.Context(), rc, page.Launches)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LaunchListResponse{
		Launches: dto.ToLaunchViewResponses(views, h.patchFunc(r)),
		Cursor:   page.EndCursor,
		HasMore:  page.HasMore,
	})
}

// GetLaunch handles GET /api/v1/launches/{id}.
func (h *Handler) GetLaunch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_LAUNCH_ID", "Launch ID must be an integer")
		return
	}

	view, err := h.api.Launch(r.Context(), requestContext(r), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLaunchResponse(view.Launch, view.IsBooked, h.patchFunc(r)))
}
