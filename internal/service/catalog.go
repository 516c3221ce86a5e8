package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/domain"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

// ProductService serves catalog lookups annotated for the requesting owner.
type ProductService struct {
	catalog   catalog.Client
	annotator *Annotator
	logger    *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(client catalog.Client, annotator *Annotator, logger *slog.Logger) *ProductService {
	return &ProductService{catalog: client, annotator: annotator, logger: logger}
}

// Get returns one product annotated with the owner's favorite and basket
// state. Annotation failures are logged and the bare product is returned.
func (s *ProductService) Get(ctx context.Context, ownerID string, id int) (*domain.Product, error) {
	p, err := requireProduct(ctx, s.catalog, id)
	if err != nil {
		return nil, err
	}

	annotated, err := s.annotator.AnnotateProduct(ctx, ownerID, *p)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to annotate product",
			slog.Int("product_id", id),
			slog.String("error", err.Error()),
		)
		return p, nil
	}
	return &annotated, nil
}

// Categories returns the catalog's category slugs.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, catalogError(err, 0)
	}
	return categories, nil
}

// CategoryProducts returns one annotated page of a category.
func (s *ProductService) CategoryProducts(ctx context.Context, ownerID, category string, limit, skip int) (*domain.PageResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperrors.InvalidInput("category is required")
	}
	if limit <= 0 || skip < 0 {
		return nil, apperrors.InvalidInput("limit must be positive and skip must not be negative")
	}

	page, err := s.catalog.CategoryPage(ctx, category, limit, skip)
	if err != nil {
		return nil, catalogError(err, 0)
	}

	annotations, err := s.annotator.Annotations(ctx, ownerID, domain.ProductIDs(page.Products))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to annotate category page",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return page, nil
	}
	for i, p := range page.Products {
		page.Products[i] = p.Annotate(annotations[p.ID])
	}
	return page, nil
}
