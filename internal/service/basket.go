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

// MaxQuantityPerItem is the largest quantity a basket line may hold.
const MaxQuantityPerItem = 100

// UpdateQuantityInput holds the parameters for updating a basket line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=100"`
}

// AddItemInput holds the parameters for adding a product to the basket.
type AddItemInput struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// BasketService implements the business logic for the basket.
type BasketService struct {
	basket    repository.BasketRepository
	favorites repository.FavoriteRepository
	products  ProductGetter
	events    event.Publisher
	logger    *slog.Logger
}

// NewBasketService creates a new basket service.
func NewBasketService(
	basket repository.BasketRepository,
	favorites repository.FavoriteRepository,
	products ProductGetter,
	events event.Publisher,
	logger *slog.Logger,
) *BasketService {
	return &BasketService{
		basket:    basket,
		favorites: favorites,
		products:  products,
		events:    events,
		logger:    logger,
	}
}

// Add puts one unit of a catalog product in the basket and returns the new
// quantity of its line.
func (s *BasketService) Add(ctx context.Context, ownerID string, productID int) (int, error) {
	if ownerID == "" {
		return 0, apperrors.InvalidInput("owner id is required")
	}
	product, err := requireProduct(ctx, s.products, productID)
	if err != nil {
		return 0, err
	}

	current, err := s.basket.Quantities(ctx, ownerID, []int{productID})
	if err != nil {
		return 0, fmt.Errorf("read basket quantity: %w", err)
	}
	if current[productID] >= MaxQuantityPerItem {
		return 0, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if product.Stock > 0 && current[productID] >= product.Stock {
		return 0, apperrors.Conflict(fmt.Sprintf("only %d of product %d in stock", product.Stock, productID))
	}

	qty, err := s.basket.Increment(ctx, ownerID, productID, 1)
	if err != nil {
		return 0, fmt.Errorf("add to basket: %w", err)
	}

	s.logger.InfoContext(ctx, "basket item added",
		slog.Int("product_id", productID),
		slog.Int("quantity", qty),
	)
	s.publishUpdated(ctx, ownerID, productID, qty)
	return qty, nil
}

// UpdateQuantity overwrites the quantity of a line. Zero removes it.
func (s *BasketService) UpdateQuantity(ctx context.Context, ownerID string, productID, quantity int) error {
	if productID <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if quantity < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > MaxQuantityPerItem {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	if quantity == 0 {
		if err := s.basket.Remove(ctx, ownerID, productID); err != nil {
			return err
		}
	} else if err := s.basket.SetQuantity(ctx, ownerID, productID, quantity); err != nil {
		return fmt.Errorf("update basket quantity: %w", err)
	}

	s.publishUpdated(ctx, ownerID, productID, quantity)
	return nil
}

// Remove deletes a line from the basket.
func (s *BasketService) Remove(ctx context.Context, ownerID string, productID int) error {
	return s.UpdateQuantity(ctx, ownerID, productID, 0)
}

// Clear empties the basket.
func (s *BasketService) Clear(ctx context.Context, ownerID string) error {
	if err := s.basket.Clear(ctx, ownerID); err != nil {
		return fmt.Errorf("clear basket: %w", err)
	}

	s.logger.InfoContext(ctx, "basket cleared")
	if err := s.events.BasketCleared(ctx, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish basket.cleared event",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// List returns the basket lines joined with catalog products, annotated with
// favorite flags. Lines whose product left the catalog are omitted.
func (s *BasketService) List(ctx context.Context, ownerID string) ([]domain.BasketItem, error) {
	lines, err := s.basket.Lines(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list basket: %w", err)
	}
	if len(lines) == 0 {
		return []domain.BasketItem{}, nil
	}

	ids := make([]int, len(lines))
	quantities := make(map[int]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
		quantities[l.ProductID] = l.Quantity
	}

	products, err := fetchProducts(ctx, s.products, ids, s.logger)
	if err != nil {
		return nil, err
	}

	favorites, err := s.favorites.Contains(ctx, ownerID, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read favorites for basket",
			slog.String("error", err.Error()),
		)
	}

	items := make([]domain.BasketItem, len(products))
	for i, p := range products {
		qty := quantities[p.ID]
		items[i] = domain.BasketItem{
			Product:  p.Annotate(domain.Annotation{IsFavorite: favorites[p.ID], BasketQuantity: qty}),
			Quantity: qty,
		}
	}
	return items, nil
}

// BasketView is a basket listing with its totals.
type BasketView struct {
	Items   []domain.BasketItem  `json:"items"`
	Summary domain.BasketSummary `json:"summary"`
}

// View returns the basket with its summary.
func (s *BasketService) View(ctx context.Context, ownerID string) (*BasketView, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &BasketView{Items: items, Summary: domain.Summarize(items)}, nil
}

// Summary returns the unit count and total effective price of the basket.
func (s *BasketService) Summary(ctx context.Context, ownerID string) (domain.BasketSummary, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return domain.BasketSummary{}, err
	}
	return domain.Summarize(items), nil
}

func (s *BasketService) publishUpdated(ctx context.Context, ownerID string, productID, quantity int) {
	if err := s.events.BasketUpdated(ctx, ownerID, productID, quantity); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish basket.updated event",
			slog.Int("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
