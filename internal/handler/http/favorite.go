package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sefaaycicek/fakestore/internal/service"
	"github.com/sefaaycicek/fakestore/pkg/httputil"
	"github.com/sefaaycicek/fakestore/pkg/middleware"
	"github.com/sefaaycicek/fakestore/pkg/validator"
)

// FavoriteHandler handles HTTP requests for favorites.
type FavoriteHandler struct {
	service *service.FavoriteService
	logger  *slog.Logger
}

// NewFavoriteHandler creates a new favorite HTTP handler.
func NewFavoriteHandler(svc *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{service: svc, logger: logger}
}

// AddFavoriteRequest is the JSON request body for adding a favorite.
type AddFavoriteRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// List handles GET /api/v1/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), middleware.OwnerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// Add handles POST /api/v1/favorites
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddFavoriteRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.Add(r.Context(), middleware.OwnerFromRequest(r), req.ProductID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, map[string]int{"product_id": req.ProductID})
}

// Remove handles DELETE /api/v1/favorites/{productId}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), middleware.OwnerFromRequest(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
