package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/event"
	"github.com/sefaaycicek/fakestore/internal/repository"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

// FavoriteService implements the business logic for favorites.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	basket    repository.BasketRepository
	products  ProductGetter
	events    event.Publisher
	logger    *slog.Logger
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(
	favorites repository.FavoriteRepository,
	basket repository.BasketRepository,
	products ProductGetter,
	events event.Publisher,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		basket:    basket,
		products:  products,
		events:    events,
		logger:    logger,
	}
}

// Add marks a catalog product as favorite. Adding an existing favorite is a
// no-op.
func (s *FavoriteService) Add(ctx context.Context, ownerID string, productID int) error {
	if ownerID == "" {
		return apperrors.InvalidInput("owner id is required")
	}
	if _, err := requireProduct(ctx, s.products, productID); err != nil {
		return err
	}

	added, err := s.favorites.Add(ctx, ownerID, productID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if !added {
		return nil
	}

	s.logger.InfoContext(ctx, "favorite added", slog.Int("product_id", productID))
	if err := s.events.FavoriteAdded(ctx, ownerID, productID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish favorite.added event",
			slog.Int("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Remove unmarks a favorite.
func (s *FavoriteService) Remove(ctx context.Context, ownerID string, productID int) error {
	if productID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if err := s.favorites.Remove(ctx, ownerID, productID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "favorite removed", slog.Int("product_id", productID))
	if err := s.events.FavoriteRemoved(ctx, ownerID, productID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish favorite.removed event",
			slog.Int("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// IDs returns the owner's favorite product IDs, most recent first.
func (s *FavoriteService) IDs(ctx context.Context, ownerID string) ([]int, error) {
	ids, err := s.favorites.IDs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list favorite ids: %w", err)
	}
	return ids, nil
}

// List returns the owner's favorite products, most recent first, annotated
// with basket quantities.
func (s *FavoriteService) List(ctx context.Context, ownerID string) ([]domain.Product, error) {
	ids, err := s.IDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	products, err := fetchProducts(ctx, s.products, ids, s.logger)
	if err != nil {
		return nil, err
	}

	quantities, err := s.basket.Quantities(ctx, ownerID, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read basket quantities for favorites",
			slog.String("error", err.Error()),
		)
	}
	for i := range products {
		products[i] = products[i].Annotate(domain.Annotation{
			IsFavorite:     true,
			BasketQuantity: quantities[products[i].ID],
		})
	}
	return products, nil
}
