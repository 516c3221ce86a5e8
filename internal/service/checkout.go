package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/event"
	apperrors "github.com/sefaaycicek/fakestore/pkg/errors"
	"github.com/sefaaycicek/fakestore/pkg/validator"
)

// CheckoutInput is the payment form. No payment is actually taken.
type CheckoutInput struct {
	HolderName string `json:"holder_name" validate:"required,max=100,holder_name"`
	Email      string `json:"email" validate:"required,email"`
	CardNumber string `json:"card_number" validate:"required,card_number"`
}

// Receipt is the result of a completed checkout.
type Receipt struct {
	OrderRef   string               `json:"order_ref"`
	Summary    domain.BasketSummary `json:"summary"`
	CardLast4  string               `json:"card_last4"`
	HolderName string               `json:"holder_name"`
}

// CheckoutService completes purchases by emptying the basket.
type CheckoutService struct {
	basket *BasketService
	events event.Publisher
	logger *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(basket *BasketService, events event.Publisher, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{basket: basket, events: events, logger: logger}
}

// Checkout validates the payment form, refuses an empty basket, clears the
// basket and publishes checkout.completed.
func (s *CheckoutService) Checkout(ctx context.Context, ownerID string, in CheckoutInput) (*Receipt, error) {
	in.HolderName = strings.TrimSpace(in.HolderName)
	in.CardNumber = strings.TrimSpace(in.CardNumber)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	summary, err := s.basket.Summary(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if summary.ItemCount == 0 {
		return nil, apperrors.Unprocessable("EMPTY_BASKET", "the basket is empty")
	}

	if err := s.basket.Clear(ctx, ownerID); err != nil {
		return nil, err
	}

	card := validator.NormalizeCardNumber(in.CardNumber)
	receipt := &Receipt{
		OrderRef:   uuid.NewString(),
		Summary:    summary,
		CardLast4:  card[len(card)-4:],
		HolderName: in.HolderName,
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_ref", receipt.OrderRef),
		slog.Int("item_count", summary.ItemCount),
		slog.String("total_price", summary.TotalPrice.StringFixed(2)),
	)
	if err := s.events.CheckoutCompleted(ctx, ownerID, receipt.OrderRef, summary, receipt.CardLast4); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("order_ref", receipt.OrderRef),
			slog.String("error", err.Error()),
		)
	}
	return receipt, nil
}
