package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redibo/rental-api/internal/application/rating"
	"github.com/redibo/rental-api/internal/domain"
	"github.com/redibo/rental-api/internal/transport/http/middleware"
)

// RatingHandler handles post-rental ratings.
type RatingHandler struct {
	svc rating.Service
}

func NewRatingHandler(svc rating.Service) *RatingHandler {
	return &RatingHandler{svc: svc}
}

func (h *RatingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateRatingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rt, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *RatingHandler) Get(w http.ResponseWriter, r *http.Request) {
	rt, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}
