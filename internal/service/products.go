package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/domain"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

// maxConcurrentLookups bounds concurrent product lookups per request.
const maxConcurrentLookups = 8

// ProductGetter looks up single products in the catalog.
type ProductGetter interface {
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
}

// fetchProducts looks up ids concurrently and returns the products in the
// order of ids. Products the catalog no longer knows are skipped.
func fetchProducts(ctx context.Context, getter ProductGetter, ids []int, logger *slog.Logger) ([]domain.Product, error) {
	found := make([]*domain.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, id := range ids {
		g.Go(func() error {
			p, err := getter.GetProduct(gctx, id)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					logger.WarnContext(ctx, "skipping product missing from catalog", slog.Int("product_id", id))
					return nil
				}
				return fmt.Errorf("get product %d: %w", id, err)
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, catalogError(err, 0)
	}

	out := make([]domain.Product, 0, len(ids))
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// requireProduct returns the product or a NotFound error.
func requireProduct(ctx context.Context, getter ProductGetter, id int) (*domain.Product, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("product id must be positive")
	}
	p, err := getter.GetProduct(ctx, id)
	if err != nil {
		return nil, catalogError(err, id)
	}
	return p, nil
}

// catalogError maps catalog failures to application errors. id names the
// product for NotFound.
func catalogError(err error, id int) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return apperrors.NotFound("product", strconv.Itoa(id))
	case errors.Is(err, catalog.ErrNetwork), errors.Is(err, catalog.ErrDecoding):
		return apperrors.ServiceUnavailable("catalog", err)
	}
	return err
}
