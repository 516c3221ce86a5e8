package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sefaaycicek/fakestore/internal/domain"
)

const testQuiet = 10 * time.Millisecond

type fetchCall struct {
	Endpoint string
	Query    string
	Limit    int
	Skip     int
}

// fakeCatalog records every call and delegates to handle.
type fakeCatalog struct {
	mu     sync.Mutex
	calls  []fetchCall
	handle func(ctx context.Context, call fetchCall) (*domain.PageResult, error)
}

func (f *fakeCatalog) FetchPage(ctx context.Context, limit, skip int) (*domain.PageResult, error) {
	return f.do(ctx, fetchCall{Endpoint: endpointListing, Limit: limit, Skip: skip})
}

func (f *fakeCatalog) SearchPage(ctx context.Context, query string, limit, skip int) (*domain.PageResult, error) {
	return f.do(ctx, fetchCall{Endpoint: endpointSearch, Query: query, Limit: limit, Skip: skip})
}

func (f *fakeCatalog) do(ctx context.Context, call fetchCall) (*domain.PageResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	handle := f.handle
	f.mu.Unlock()
	return handle(ctx, call)
}

func (f *fakeCatalog) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fetchCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeCatalog) setHandler(h func(ctx context.Context, call fetchCall) (*domain.PageResult, error)) {
	f.mu.Lock()
	f.handle = h
	f.mu.Unlock()
}

// pagedCatalog serves listing pages from a catalog of n products and search
// pages from results keyed by query.
func pagedCatalog(n int, results map[string][]domain.Product) *fakeCatalog {
	all := makeProducts("item", 1, n)
	return &fakeCatalog{
		handle: func(_ context.Context, call fetchCall) (*domain.PageResult, error) {
			if call.Endpoint == endpointSearch {
				return servePage(results[call.Query], call.Limit, call.Skip), nil
			}
			return servePage(all, call.Limit, call.Skip), nil
		},
	}
}

func servePage(all []domain.Product, limit, skip int) *domain.PageResult {
	start := min(skip, len(all))
	end := min(skip+limit, len(all))
	page := make([]domain.Product, end-start)
	copy(page, all[start:end])
	return &domain.PageResult{Products: page, Total: len(all), Skip: skip, Limit: limit}
}

func makeProducts(prefix string, firstID, n int) []domain.Product {
	out := make([]domain.Product, n)
	for i := range out {
		out[i] = domain.Product{
			ID:       firstID + i,
			Title:    fmt.Sprintf("%s %03d", prefix, firstID+i),
			Category: "smartphones",
			Price:    decimal.NewFromInt(int64(10 * (i + 1))),
		}
	}
	return out
}

func pricedProducts(prices ...int64) []domain.Product {
	out := make([]domain.Product, len(prices))
	for i, p := range prices {
		out[i] = domain.Product{ID: i + 1, Title: fmt.Sprintf("p%d", i+1), Price: decimal.NewFromInt(p)}
	}
	return out
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, cat Catalog, opts Options) *Controller {
	t.Helper()
	if opts.QuietPeriod == 0 {
		opts.QuietPeriod = testQuiet
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	c := NewController(cat, opts)
	t.Cleanup(c.Close)
	return c
}
