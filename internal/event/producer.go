// Package event publishes storefront domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sefaaycicek/fakestore/internal/domain"
	pkgkafka "github.com/sefaaycicek/fakestore/pkg/kafka"
	"github.com/sefaaycicek/fakestore/pkg/logger"
)

// Kafka topics of storefront domain events.
var (
	TopicSearchCommitted   = pkgkafka.Topic("search", "committed")
	TopicFavoriteAdded     = pkgkafka.Topic("favorite", "added")
	TopicFavoriteRemoved   = pkgkafka.Topic("favorite", "removed")
	TopicBasketUpdated     = pkgkafka.Topic("basket", "updated")
	TopicBasketCleared     = pkgkafka.Topic("basket", "cleared")
	TopicCheckoutCompleted = pkgkafka.Topic("checkout", "completed")
)

// Aggregate types.
const (
	AggregateListing  = "listing"
	AggregateFavorite = "favorite"
	AggregateBasket   = "basket"
	AggregateCheckout = "checkout"
)

// Source identifies events emitted by this service.
const Source = "storefront"

// SearchCommittedData is the payload of search.committed.
type SearchCommittedData struct {
	SessionID string `json:"session_id"`
	OwnerID   string `json:"owner_id"`
	Query     string `json:"query"`
}

// FavoriteData is the payload of favorite.added and favorite.removed.
type FavoriteData struct {
	OwnerID   string `json:"owner_id"`
	ProductID int    `json:"product_id"`
}

// BasketUpdatedData is the payload of basket.updated.
type BasketUpdatedData struct {
	OwnerID   string `json:"owner_id"`
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// BasketClearedData is the payload of basket.cleared.
type BasketClearedData struct {
	OwnerID string `json:"owner_id"`
}

// CheckoutCompletedData is the payload of checkout.completed.
type CheckoutCompletedData struct {
	OrderRef   string          `json:"order_ref"`
	OwnerID    string          `json:"owner_id"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CardLast4  string          `json:"card_last4"`
}

// Publisher emits storefront domain events.
type Publisher interface {
	SearchCommitted(ctx context.Context, data SearchCommittedData) error
	FavoriteAdded(ctx context.Context, ownerID string, productID int) error
	FavoriteRemoved(ctx context.Context, ownerID string, productID int) error
	BasketUpdated(ctx context.Context, ownerID string, productID, quantity int) error
	BasketCleared(ctx context.Context, ownerID string) error
	CheckoutCompleted(ctx context.Context, ownerID string, orderRef string, summary domain.BasketSummary, cardLast4 string) error
}

// kafkaPublisher is the part of pkgkafka.Producer used here.
type kafkaPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  kafkaPublisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka kafkaPublisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) SearchCommitted(ctx context.Context, data SearchCommittedData) error {
	return p.publish(ctx, TopicSearchCommitted, data.SessionID, AggregateListing, data)
}

func (p *Producer) FavoriteAdded(ctx context.Context, ownerID string, productID int) error {
	return p.publish(ctx, TopicFavoriteAdded, ownerID, AggregateFavorite, FavoriteData{OwnerID: ownerID, ProductID: productID})
}

func (p *Producer) FavoriteRemoved(ctx context.Context, ownerID string, productID int) error {
	return p.publish(ctx, TopicFavoriteRemoved, ownerID, AggregateFavorite, FavoriteData{OwnerID: ownerID, ProductID: productID})
}

func (p *Producer) BasketUpdated(ctx context.Context, ownerID string, productID, quantity int) error {
	return p.publish(ctx, TopicBasketUpdated, ownerID, AggregateBasket, BasketUpdatedData{
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func (p *Producer) BasketCleared(ctx context.Context, ownerID string) error {
	return p.publish(ctx, TopicBasketCleared, ownerID, AggregateBasket, BasketClearedData{OwnerID: ownerID})
}

func (p *Producer) CheckoutCompleted(ctx context.Context, ownerID, orderRef string, summary domain.BasketSummary, cardLast4 string) error {
	return p.publish(ctx, TopicCheckoutCompleted, orderRef, AggregateCheckout, CheckoutCompletedData{
		OrderRef:   orderRef,
		OwnerID:    ownerID,
		ItemCount:  summary.ItemCount,
		TotalPrice: summary.TotalPrice,
		CardLast4:  cardLast4,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// NoopPublisher discards every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) SearchCommitted(context.Context, SearchCommittedData) error { return nil }
func (NoopPublisher) FavoriteAdded(context.Context, string, int) error           { return nil }
func (NoopPublisher) FavoriteRemoved(context.Context, string, int) error         { return nil }
func (NoopPublisher) BasketUpdated(context.Context, string, int, int) error      { return nil }
func (NoopPublisher) BasketCleared(context.Context, string) error                { return nil }
func (NoopPublisher) CheckoutCompleted(context.Context, string, string, domain.BasketSummary, string) error {
	return nil
}

var (
	_ Publisher = (*Producer)(nil)
	_ Publisher = NoopPublisher{}
)
