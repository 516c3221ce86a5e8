package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sefaaycicek/fakestore/internal/domain"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
)

func TestBasketAdd_IncrementsAndPublishes(t *testing.T) {
	f := newFixture(t, product(1, "10"))
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Quantities", ctx, owner, []int{1}).Return(map[int]int{1: 2}, nil)
	f.basket.On("Increment", ctx, owner, 1, 1).Return(3, nil)
	f.events.On("BasketUpdated", ctx, owner, 1, 3).Return(nil)

	qty, err := svc.Add(ctx, owner, 1)

	require.NoError(t, err)
	assert.Equal(t, 3, qty)
	f.assertExpectations(t)
}

func TestBasketAdd_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()

	_, err := svc.Add(context.Background(), owner, 9)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.basket.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBasketAdd_RespectsLimits(t *testing.T) {
	p := product(1, "10")
	p.Stock = 2
	f := newFixture(t, p, product(2, "5"))
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Quantities", ctx, owner, []int{1}).Return(map[int]int{1: 2}, nil)
	f.basket.On("Quantities", ctx, owner, []int{2}).Return(map[int]int{2: MaxQuantityPerItem}, nil)

	_, err := svc.Add(ctx, owner, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Add(ctx, owner, 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	f.basket.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBasketUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("SetQuantity", ctx, owner, 1, 5).Return(nil)
	f.events.On("BasketUpdated", ctx, owner, 1, 5).Return(nil)

	require.NoError(t, svc.UpdateQuantity(ctx, owner, 1, 5))
	f.assertExpectations(t)
}

func TestBasketUpdateQuantity_ZeroRemoves(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Remove", ctx, owner, 1).Return(nil)
	f.events.On("BasketUpdated", ctx, owner, 1, 0).Return(nil)

	require.NoError(t, svc.UpdateQuantity(ctx, owner, 1, 0))
	f.basket.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestBasketUpdateQuantity_Invalid(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()
	ctx := context.Background()

	tests := []struct {
		name      string
		productID int
		quantity  int
	}{
		{"negative quantity", 1, -1},
		{"above maximum", 1, MaxQuantityPerItem + 1},
		{"bad product", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateQuantity(ctx, owner, tt.productID, tt.quantity)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestBasketRemove_MissingLine(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Remove", ctx, owner, 4).Return(apperrors.NotFound("basket item", "4"))

	err := svc.Remove(ctx, owner, 4)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.events.AssertNotCalled(t, "BasketUpdated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBasketClear(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Clear", ctx, owner).Return(nil)
	f.events.On("BasketCleared", ctx, owner).Return(nil)

	require.NoError(t, svc.Clear(ctx, owner))
	f.assertExpectations(t)
}

func TestBasketView(t *testing.T) {
	discounted := product(2, "100")
	pct := decimal.NewFromInt(10)
	discounted.DiscountPercentage = &pct
	f := newFixture(t, product(1, "9.99"), discounted)
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Lines", ctx, owner).Return([]domain.BasketLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, nil)
	f.favorites.On("Contains", ctx, owner, []int{1, 2}).Return(map[int]bool{2: true}, nil)

	view, err := svc.View(ctx, owner)

	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 2, view.Items[0].Product.BasketQuantity)
	assert.False(t, view.Items[0].Product.IsFavorite)
	assert.True(t, view.Items[1].Product.IsFavorite)
	assert.Equal(t, 3, view.Summary.ItemCount)
	assert.Equal(t, "109.98", view.Summary.TotalPrice.StringFixed(2))
	f.assertExpectations(t)
}

func TestBasketList_Empty(t *testing.T) {
	f := newFixture(t)
	svc := f.basketService()
	ctx := context.Background()

	f.basket.On("Lines", ctx, owner).Return([]domain.BasketLine{}, nil)

	items, err := svc.List(ctx, owner)

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	f.favorites.AssertNotCalled(t, "Contains", mock.Anything, mock.Anything, mock.Anything)
}
