package handler

import (
	"net/http"

	"github.com/launchdeck/launchdeck/internal/handler/dto"
)

// Me handles GET /api/v1/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.api.Me(r.Context(), requestContext(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user, h.patchFunc(r)))
}

// Login handles POST /api/v1/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.api.Login(r.Context(), req.Email)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{Token: token})
}
