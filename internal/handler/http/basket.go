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

// BasketHandler handles HTTP requests for the basket and checkout.
type BasketHandler struct {
	basket   *service.BasketService
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewBasketHandler creates a new basket HTTP handler.
func NewBasketHandler(basket *service.BasketService, checkout *service.CheckoutService, logger *slog.Logger) *BasketHandler {
	return &BasketHandler{basket: basket, checkout: checkout, logger: logger}
}

// Get handles GET /api/v1/basket
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.basket.View(r.Context(), middleware.OwnerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/basket/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	qty, err := h.basket.Add(r.Context(), middleware.OwnerFromRequest(r), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]int{"product_id": req.ProductID, "quantity": qty})
}

// UpdateItem handles PUT /api/v1/basket/items/{productId}
func (h *BasketHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	var req service.UpdateQuantityInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.basket.UpdateQuantity(r.Context(), middleware.OwnerFromRequest(r), id, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]int{"product_id": id, "quantity": req.Quantity})
}

// RemoveItem handles DELETE /api/v1/basket/items/{productId}
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	if err := h.basket.Remove(r.Context(), middleware.OwnerFromRequest(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/basket
func (h *BasketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.basket.Clear(r.Context(), middleware.OwnerFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /api/v1/checkout
func (h *BasketHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), middleware.OwnerFromRequest(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, receipt)
}
