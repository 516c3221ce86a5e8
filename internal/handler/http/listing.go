package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/listing"
	"github.com/sefaaycicek/fakestore/internal/service"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
	"github.com/sefaaycicek/fakestore/pkg/httputil"
	"github.com/sefaaycicek/fakestore/pkg/logger"
	"github.com/sefaaycicek/fakestore/pkg/middleware"
	"github.com/sefaaycicek/fakestore/pkg/validator"
)

// ListingHandler handles HTTP requests for listing sessions.
type ListingHandler struct {
	sessions  *service.SessionService
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewListingHandler creates a new listing HTTP handler. heartbeat is the
// event stream keep-alive interval; zero selects DefaultHeartbeat.
func NewListingHandler(sessions *service.SessionService, heartbeat time.Duration, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{sessions: sessions, logger: logger, heartbeat: heartbeat}
}

// --- Request DTOs ---

// SearchRequest is the JSON request body for submitting search text.
type SearchRequest struct {
	Query string `json:"query" validate:"max=100"`
}

// FilterRequest is the JSON request body for applying a filter. Absent
// bounds are unbounded; an empty category list matches every category.
type FilterRequest struct {
	MinPrice   *decimal.Decimal `json:"min_price"`
	MaxPrice   *decimal.Decimal `json:"max_price"`
	Categories []string         `json:"categories" validate:"max=50,dive,required,max=64"`
}

func (req FilterRequest) toDomain() (domain.FilterSpec, error) {
	if req.MinPrice != nil && req.MinPrice.IsNegative() {
		return domain.FilterSpec{}, apperrors.InvalidInput("min_price must not be negative")
	}
	if req.MaxPrice != nil && req.MaxPrice.IsNegative() {
		return domain.FilterSpec{}, apperrors.InvalidInput("max_price must not be negative")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && req.MinPrice.GreaterThan(*req.MaxPrice) {
		return domain.FilterSpec{}, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return domain.FilterSpec{
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		Categories: req.Categories,
	}, nil
}

// SortRequest is the JSON request body for choosing a sort.
type SortRequest struct {
	Sort string `json:"sort" validate:"required"`
}

// --- Response DTOs ---

// ListingResponse pairs a session ID with its state.
type ListingResponse struct {
	ID    string              `json:"id"`
	State domain.ListingState `json:"state"`
}

func listingResponse(sess *service.Session) ListingResponse {
	return ListingResponse{ID: sess.ID.String(), State: sess.Controller.State()}
}

// --- Handlers ---

// Create handles POST /api/v1/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromRequest(r)

	sess, err := h.sessions.Create(r.Context(), owner)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	ctx := logger.WithSessionID(r.Context(), sess.ID.String())
	if err := sess.Controller.LoadInitial(ctx); err != nil {
		h.writeControllerError(w, r, err)
		return
	}

	httputil.WriteData(w, http.StatusCreated, listingResponse(sess))
}

// Get handles GET /api/v1/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, listingResponse(sess))
}

// Delete handles DELETE /api/v1/listings/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.sessions.Close(r.Context(), middleware.OwnerFromRequest(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reload handles POST /api/v1/listings/{id}/load
func (h *ListingHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, http.StatusOK, func(ctx context.Context, c *listing.Controller) error {
		return c.LoadInitial(ctx)
	})
}

// Next handles POST /api/v1/listings/{id}/next
func (h *ListingHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, http.StatusOK, func(ctx context.Context, c *listing.Controller) error {
		return c.LoadNextPage(ctx)
	})
}

// Search handles PUT /api/v1/listings/{id}/query. The query is committed
// after the debounce period, so the returned state predates it.
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.withSession(w, r, http.StatusAccepted, func(_ context.Context, c *listing.Controller) error {
		return c.Search(req.Query)
	})
}

// Filter handles PUT /api/v1/listings/{id}/filter
func (h *ListingHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	filter, err := req.toDomain()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.withSession(w, r, http.StatusOK, func(_ context.Context, c *listing.Controller) error {
		return c.ApplyFilter(filter)
	})
}

// Sort handles PUT /api/v1/listings/{id}/sort
func (h *ListingHandler) Sort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	sort, err := domain.ParseSort(req.Sort)
	if err != nil {
		httputil.WriteBadRequest(w, r, err.Error())
		return
	}
	h.withSession(w, r, http.StatusOK, func(_ context.Context, c *listing.Controller) error {
		return c.SetSort(sort)
	})
}

// Refresh handles POST /api/v1/listings/{id}/refresh. It re-reads favorite
// and basket flags after they changed elsewhere.
func (h *ListingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, http.StatusOK, func(ctx context.Context, c *listing.Controller) error {
		return c.RefreshAnnotations(ctx)
	})
}

// --- Helpers ---

func (h *ListingHandler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return nil, false
	}
	sess, err := h.sessions.Get(middleware.OwnerFromRequest(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return sess, true
}

// withSession resolves the session, runs fn against its controller and
// writes the resulting state with status.
func (h *ListingHandler) withSession(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, *listing.Controller) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := logger.WithSessionID(r.Context(), sess.ID.String())
	if err := fn(ctx, sess.Controller); err != nil {
		h.writeControllerError(w, r, err)
		return
	}
	httputil.WriteData(w, status, listingResponse(sess))
}

func (h *ListingHandler) writeControllerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, listing.ErrClosed):
		err = apperrors.NotFound("listing", chi.URLParam(r, "id"))
	case errors.Is(err, listing.ErrInvalidSort):
		err = apperrors.InvalidInput(err.Error())
	}
	httputil.WriteError(w, r, err, h.logger)
}
