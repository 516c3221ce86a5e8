// Package repository declares the storage contracts of the storefront.
package repository

import (
	"context"

	"github.com/sefaaycicek/fakestore/internal/domain"
)

// FavoriteRepository persists the products an owner marked as favorite.
type FavoriteRepository interface {
	// Add marks productID as a favorite. It reports false when it already was.
	Add(ctx context.Context, ownerID string, productID int) (bool, error)

	// Remove unmarks productID. A product that is not a favorite yields a
	// NotFound error.
	Remove(ctx context.Context, ownerID string, productID int) error

	// IDs returns the owner's favorite product IDs, most recent first.
	IDs(ctx context.Context, ownerID string) ([]int, error)

	// Contains reports which of ids are favorites of the owner.
	Contains(ctx context.Context, ownerID string, ids []int) (map[int]bool, error)
}

// BasketRepository persists per-owner basket quantities.
type BasketRepository interface {
	// Lines returns every basket line ordered by product ID.
	Lines(ctx context.Context, ownerID string) ([]domain.BasketLine, error)

	// Quantities returns the quantities of ids that are in the basket.
	Quantities(ctx context.Context, ownerID string, ids []int) (map[int]int, error)

	// Increment adds by to the quantity of productID and returns the result.
	Increment(ctx context.Context, ownerID string, productID, by int) (int, error)

	// SetQuantity overwrites the quantity of productID. Zero removes the line.
	SetQuantity(ctx context.Context, ownerID string, productID, quantity int) error

	// Remove deletes a line. A missing line yields a NotFound error.
	Remove(ctx context.Context, ownerID string, productID int) error

	// Clear empties the basket.
	Clear(ctx context.Context, ownerID string) error
}
