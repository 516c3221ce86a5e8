package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/event"
	"github.com/sefaaycicek/fakestore/internal/service"
	"github.com/sefaaycicek/fakestore/pkg/health"
	"github.com/sefaaycicek/fakestore/pkg/logger"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockFavoriteRepository struct {
	mock.Mock
}

func (m *mockFavoriteRepository) Add(ctx context.Context, ownerID string, productID int) (bool, error) {
	args := m.Called(ctx, ownerID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, ownerID string, productID int) error {
	return m.Called(ctx, ownerID, productID).Error(0)
}

func (m *mockFavoriteRepository) IDs(ctx context.Context, ownerID string) ([]int, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockFavoriteRepository) Contains(ctx context.Context, ownerID string, ids []int) (map[int]bool, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]bool), args.Error(1)
}

type mockBasketRepository struct {
	mock.Mock
}

func (m *mockBasketRepository) Lines(ctx context.Context, ownerID string) ([]domain.BasketLine, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BasketLine), args.Error(1)
}

func (m *mockBasketRepository) Quantities(ctx context.Context, ownerID string, ids []int) (map[int]int, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *mockBasketRepository) Increment(ctx context.Context, ownerID string, productID, by int) (int, error) {
	args := m.Called(ctx, ownerID, productID, by)
	return args.Int(0), args.Error(1)
}

func (m *mockBasketRepository) SetQuantity(ctx context.Context, ownerID string, productID, quantity int) error {
	return m.Called(ctx, ownerID, productID, quantity).Error(0)
}

func (m *mockBasketRepository) Remove(ctx context.Context, ownerID string, productID int) error {
	return m.Called(ctx, ownerID, productID).Error(0)
}

func (m *mockBasketRepository) Clear(ctx context.Context, ownerID string) error {
	return m.Called(ctx, ownerID).Error(0)
}

// ============================================================================
// Fake catalog
// ============================================================================

// fakeCatalog serves total products with IDs 1..total. Search matches titles
// containing the query.
type fakeCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	down     bool
}

func newFakeCatalog(total int) *fakeCatalog {
	products := make([]domain.Product, total)
	for i := range products {
		products[i] = domain.Product{
			ID:       i + 1,
			Title:    fmt.Sprintf("Phone %02d", i+1),
			Category: "smartphones",
			Stock:    10,
			Price:    decimal.NewFromInt(int64(10 * (i + 1))),
			Images:   []string{},
		}
	}
	return &fakeCatalog{products: products}
}

func (f *fakeCatalog) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeCatalog) unavailable() error {
	if f.down {
		return &catalog.Error{Kind: catalog.KindNetwork, Op: "test", Message: "could not reach the catalog"}
	}
	return nil
}

func (f *fakeCatalog) slice(products []domain.Product, limit, skip int) *domain.PageResult {
	end := min(skip+limit, len(products))
	start := min(skip, end)
	page := make([]domain.Product, end-start)
	copy(page, products[start:end])
	return &domain.PageResult{Products: page, Total: len(products), Skip: skip, Limit: limit}
}

func (f *fakeCatalog) FetchPage(_ context.Context, limit, skip int) (*domain.PageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}
	return f.slice(f.products, limit, skip), nil
}

func (f *fakeCatalog) SearchPage(_ context.Context, query string, limit, skip int) (*domain.PageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}
	var matched []domain.Product
	for _, p := range f.products {
		if strings.Contains(p.Title, query) {
			matched = append(matched, p)
		}
	}
	return f.slice(matched, limit, skip), nil
}

func (f *fakeCatalog) CategoryPage(ctx context.Context, _ string, limit, skip int) (*domain.PageResult, error) {
	return f.FetchPage(ctx, limit, skip)
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}
	if id < 1 || id > len(f.products) {
		return nil, &catalog.Error{Kind: catalog.KindNotFound, Op: "test", Message: "product not found"}
	}
	p := f.products[id-1]
	return &p, nil
}

func (f *fakeCatalog) Categories(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.unavailable(); err != nil {
		return nil, err
	}
	return []string{"laptops", "smartphones"}, nil
}

// ============================================================================
// Test helpers
// ============================================================================

type testEnv struct {
	router    http.Handler
	catalog   *fakeCatalog
	favorites *mockFavoriteRepository
	basket    *mockBasketRepository
	sessions  *service.SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, RouterConfig{Heartbeat: 20 * time.Millisecond})
}

func newTestEnvWith(t *testing.T, cfg RouterConfig) *testEnv {
	t.Helper()

	log := logger.Discard()
	cat := newFakeCatalog(45)
	favorites := new(mockFavoriteRepository)
	basket := new(mockBasketRepository)
	events := event.NoopPublisher{}

	annotator := service.NewAnnotator(favorites, basket)
	basketSvc := service.NewBasketService(basket, favorites, cat, events, log)
	sessions := service.NewSessionService(cat, nil, events, service.SessionConfig{
		QuietPeriod: 10 * time.Millisecond,
		MaxSessions: 5,
	}, log)
	t.Cleanup(sessions.Shutdown)

	svcs := Services{
		Sessions:  sessions,
		Products:  service.NewProductService(cat, annotator, log),
		Favorites: service.NewFavoriteService(favorites, basket, cat, events, log),
		Basket:    basketSvc,
		Checkout:  service.NewCheckoutService(basketSvc, events, log),
	}

	hh := health.NewHandler()
	return &testEnv{
		router:    NewRouter(svcs, hh, cfg, log),
		catalog:   cat,
		favorites: favorites,
		basket:    basket,
		sessions:  sessions,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewReader([]byte(raw))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}
