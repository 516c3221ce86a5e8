package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sefaaycicek/fakestore/pkg/database"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

const dbSystem = "postgresql"

const (
	addFavoriteSQL = `INSERT INTO favorite_products (owner_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, product_id) DO NOTHING`

	removeFavoriteSQL = `DELETE FROM favorite_products WHERE owner_id = $1 AND product_id = $2`

	listFavoriteIDsSQL = `SELECT product_id FROM favorite_products
		WHERE owner_id = $1
		ORDER BY created_at DESC, product_id`

	containsFavoritesSQL = `SELECT product_id FROM favorite_products
		WHERE owner_id = $1 AND product_id = ANY($2)`
)

// FavoriteRepository implements repository.FavoriteRepository using PostgreSQL.
type FavoriteRepository struct {
	db database.DBTX
}

// NewFavoriteRepository creates a new PostgreSQL-backed favorite repository.
func NewFavoriteRepository(db database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add inserts a favorite. Uses ON CONFLICT DO NOTHING for idempotent behavior.
func (r *FavoriteRepository) Add(ctx context.Context, ownerID string, productID int) (added bool, err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "AddFavorite", addFavoriteSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, addFavoriteSQL, ownerID, productID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// Remove deletes a favorite.
func (r *FavoriteRepository) Remove(ctx context.Context, ownerID string, productID int) (err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "RemoveFavorite", removeFavoriteSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, removeFavoriteSQL, ownerID, productID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("favorite", strconv.Itoa(productID))
	}
	return nil
}

// IDs returns the owner's favorite product IDs, most recent first.
func (r *FavoriteRepository) IDs(ctx context.Context, ownerID string) (_ []int, err error) {
	ctx, end := database.TraceQuery(ctx, dbSystem, "ListFavoriteIDs", listFavoriteIDsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listFavoriteIDsSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite rows: %w", err)
	}
	return ids, nil
}

// Contains reports which of ids are favorites. IDs that are not favorites
// are absent from the result.
func (r *FavoriteRepository) Contains(ctx context.Context, ownerID string, ids []int) (_ map[int]bool, err error) {
	out := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, end := database.TraceQuery(ctx, dbSystem, "ContainsFavorites", containsFavoritesSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, containsFavoritesSQL, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("check favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite rows: %w", err)
	}
	return out, nil
}
