package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/listing"
	"github.com/sefaaycicek/fakestore/internal/service"
	"github.com/sefaaycicek/fakestore/pkg/httputil"
	"github.com/sefaaycicek/fakestore/pkg/middleware"
)

// ProductHandler handles catalog lookups: products, categories and the sort
// menu.
type ProductHandler struct {
	products *service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(products *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// SortOptions handles GET /api/v1/sort-options?active=
func (h *ProductHandler) SortOptions(w http.ResponseWriter, r *http.Request) {
	active, err := domain.ParseSort(r.URL.Query().Get("active"))
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}
	httputil.WriteData(w, http.StatusOK, domain.SortOptions(active))
}

// Categories handles GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, categories)
}

// CategoryProducts handles GET /api/v1/categories/{slug}/products?limit=&skip=
func (h *ProductHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	limit, skip, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := h.products.CategoryProducts(r.Context(), middleware.OwnerFromRequest(r), chi.URLParam(r, "slug"), limit, skip)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// Get handles GET /api/v1/products/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), middleware.OwnerFromRequest(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, product)
}

// pageParams reads limit and skip query parameters. limit defaults to the
// listing page size and is capped at 100.
func pageParams(w http.ResponseWriter, r *http.Request) (limit, skip int, ok bool) {
	limit = listing.DefaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			httputil.WriteBadRequest(w, r, "limit must be between 1 and 100")
			return 0, 0, false
		}
		limit = n
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, r, "skip must not be negative")
			return 0, 0, false
		}
		skip = n
	}
	return limit, skip, true
}
