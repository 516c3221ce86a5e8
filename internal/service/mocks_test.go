package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/event"
	"github.com/sefaaycicek/fakestore/pkg/logger"
)

// --- Mock Repositories ---

type mockFavoriteRepository struct {
	mock.Mock
}

func (m *mockFavoriteRepository) Add(ctx context.Context, ownerID string, productID int) (bool, error) {
	args := m.Called(ctx, ownerID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, ownerID string, productID int) error {
	args := m.Called(ctx, ownerID, productID)
	return args.Error(0)
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
	args := m.Called(ctx, ownerID, productID, quantity)
	return args.Error(0)
}

func (m *mockBasketRepository) Remove(ctx context.Context, ownerID string, productID int) error {
	args := m.Called(ctx, ownerID, productID)
	return args.Error(0)
}

func (m *mockBasketRepository) Clear(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) SearchCommitted(ctx context.Context, data event.SearchCommittedData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockPublisher) FavoriteAdded(ctx context.Context, ownerID string, productID int) error {
	return m.Called(ctx, ownerID, productID).Error(0)
}

func (m *mockPublisher) FavoriteRemoved(ctx context.Context, ownerID string, productID int) error {
	return m.Called(ctx, ownerID, productID).Error(0)
}

func (m *mockPublisher) BasketUpdated(ctx context.Context, ownerID string, productID, quantity int) error {
	return m.Called(ctx, ownerID, productID, quantity).Error(0)
}

func (m *mockPublisher) BasketCleared(ctx context.Context, ownerID string) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *mockPublisher) CheckoutCompleted(ctx context.Context, ownerID, orderRef string, summary domain.BasketSummary, cardLast4 string) error {
	return m.Called(ctx, ownerID, orderRef, summary, cardLast4).Error(0)
}

// --- Fake Catalog ---

// fakeProducts serves products by ID and fails for IDs listed in errs.
type fakeProducts struct {
	mu       sync.Mutex
	products map[int]domain.Product
	errs     map[int]error
	calls    []int

	categories  []string
	categoryErr error
}

func newFakeProducts(products ...domain.Product) *fakeProducts {
	f := &fakeProducts{
		products: make(map[int]domain.Product, len(products)),
		errs:     make(map[int]error),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) GetProduct(_ context.Context, id int) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)

	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, &catalog.Error{Kind: catalog.KindNotFound, Op: "get_product", Message: "product not found"}
	}
	return &p, nil
}

func (f *fakeProducts) FetchPage(_ context.Context, limit, skip int) (*domain.PageResult, error) {
	return &domain.PageResult{Products: []domain.Product{}, Total: 0, Skip: skip, Limit: limit}, nil
}

func (f *fakeProducts) SearchPage(_ context.Context, _ string, limit, skip int) (*domain.PageResult, error) {
	return &domain.PageResult{Products: []domain.Product{}, Total: 0, Skip: skip, Limit: limit}, nil
}

func (f *fakeProducts) CategoryPage(_ context.Context, category string, limit, skip int) (*domain.PageResult, error) {
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	out := []domain.Product{}
	for _, id := range slices.Sorted(maps.Keys(f.products)) {
		if p := f.products[id]; p.Category == category && len(out) < limit {
			out = append(out, p)
		}
	}
	return &domain.PageResult{Products: out, Total: len(out), Skip: skip, Limit: limit}, nil
}

func (f *fakeProducts) Categories(context.Context) ([]string, error) {
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return f.categories, nil
}

// --- Test Helpers ---

const owner = "user-1"

func product(id int, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    fmt.Sprintf("Product %d", id),
		Category: "smartphones",
		Stock:    50,
		Price:    decimal.RequireFromString(price),
		Images:   []string{},
	}
}

func networkError() error {
	return &catalog.Error{Kind: catalog.KindNetwork, Op: "get_product", Message: "could not reach the catalog"}
}

type serviceFixture struct {
	favorites *mockFavoriteRepository
	basket    *mockBasketRepository
	events    *mockPublisher
	products  *fakeProducts
}

func newFixture(t *testing.T, products ...domain.Product) *serviceFixture {
	t.Helper()
	return &serviceFixture{
		favorites: new(mockFavoriteRepository),
		basket:    new(mockBasketRepository),
		events:    new(mockPublisher),
		products:  newFakeProducts(products...),
	}
}

func (f *serviceFixture) favoriteService() *FavoriteService {
	return NewFavoriteService(f.favorites, f.basket, f.products, f.events, logger.Discard())
}

func (f *serviceFixture) basketService() *BasketService {
	return NewBasketService(f.basket, f.favorites, f.products, f.events, logger.Discard())
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.favorites.AssertExpectations(t)
	f.basket.AssertExpectations(t)
	f.events.AssertExpectations(t)
}
