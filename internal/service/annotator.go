package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/listing"
	"github.com/sefaaycicek/fakestore/internal/repository"
)

// Annotator joins the favorites and basket stores into per-product
// annotations.
type Annotator struct {
	favorites repository.FavoriteRepository
	basket    repository.BasketRepository
}

// NewAnnotator creates a new annotator.
func NewAnnotator(favorites repository.FavoriteRepository, basket repository.BasketRepository) *Annotator {
	return &Annotator{favorites: favorites, basket: basket}
}

// Annotations returns an annotation for every id, reading both stores
// concurrently.
func (a *Annotator) Annotations(ctx context.Context, ownerID string, ids []int) (map[int]domain.Annotation, error) {
	if len(ids) == 0 {
		return map[int]domain.Annotation{}, nil
	}

	var (
		favorites  map[int]bool
		quantities map[int]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		favorites, err = a.favorites.Contains(gctx, ownerID, ids)
		if err != nil {
			return fmt.Errorf("read favorites: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		quantities, err = a.basket.Quantities(gctx, ownerID, ids)
		if err != nil {
			return fmt.Errorf("read basket quantities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int]domain.Annotation, len(ids))
	for _, id := range ids {
		out[id] = domain.Annotation{
			IsFavorite:     favorites[id],
			BasketQuantity: quantities[id],
		}
	}
	return out, nil
}

// ForOwner binds the annotator to one owner for use by a listing controller.
func (a *Annotator) ForOwner(ownerID string) listing.Annotator {
	return ownerAnnotator{annotator: a, ownerID: ownerID}
}

type ownerAnnotator struct {
	annotator *Annotator
	ownerID   string
}

func (o ownerAnnotator) Annotations(ctx context.Context, ids []int) (map[int]domain.Annotation, error) {
	return o.annotator.Annotations(ctx, o.ownerID, ids)
}

// AnnotateProduct applies the owner's annotation to a single product.
func (a *Annotator) AnnotateProduct(ctx context.Context, ownerID string, p domain.Product) (domain.Product, error) {
	annotations, err := a.Annotations(ctx, ownerID, []int{p.ID})
	if err != nil {
		return p, err
	}
	return p.Annotate(annotations[p.ID]), nil
}
