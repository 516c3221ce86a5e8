package event

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sefaaycicek/fakestore/internal/domain"
	pkgkafka "github.com/sefaaycicek/fakestore/pkg/kafka"
	"github.com/sefaaycicek/fakestore/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakeKafka struct {
	sent []published
	err  error
}

func (f *fakeKafka) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: e})
	return nil
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "fakestore.search.committed", TopicSearchCommitted)
	assert.Equal(t, "fakestore.favorite.added", TopicFavoriteAdded)
	assert.Equal(t, "fakestore.favorite.removed", TopicFavoriteRemoved)
	assert.Equal(t, "fakestore.basket.updated", TopicBasketUpdated)
	assert.Equal(t, "fakestore.basket.cleared", TopicBasketCleared)
	assert.Equal(t, "fakestore.checkout.completed", TopicCheckoutCompleted)
}

func TestProducer_BasketUpdated(t *testing.T) {
	k := &fakeKafka{}
	p := NewProducer(k, logger.Discard())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.BasketUpdated(ctx, "user-1", 5, 3))
	require.Len(t, k.sent, 1)

	sent := k.sent[0]
	assert.Equal(t, TopicBasketUpdated, sent.topic)
	assert.Equal(t, "user-1", sent.event.AggregateID)
	assert.Equal(t, AggregateBasket, sent.event.AggregateType)
	assert.Equal(t, Source, sent.event.Source)
	assert.Equal(t, "corr-1", sent.event.CorrelationID)

	var data BasketUpdatedData
	require.NoError(t, sent.event.UnmarshalData(&data))
	assert.Equal(t, BasketUpdatedData{OwnerID: "user-1", ProductID: 5, Quantity: 3}, data)
}

func TestProducer_CheckoutCompleted(t *testing.T) {
	k := &fakeKafka{}
	p := NewProducer(k, logger.Discard())

	summary := domain.BasketSummary{ItemCount: 2, TotalPrice: decimal.RequireFromString("19.90")}
	require.NoError(t, p.CheckoutCompleted(context.Background(), "user-1", "ord-1", summary, "4242"))

	sent := k.sent[0]
	assert.Equal(t, TopicCheckoutCompleted, sent.topic)
	assert.Equal(t, "ord-1", sent.event.AggregateID)
	assert.Empty(t, sent.event.CorrelationID)
	assert.JSONEq(t,
		`{"order_ref":"ord-1","owner_id":"user-1","item_count":2,"total_price":"19.9","card_last4":"4242"}`,
		string(sent.event.Data))
}

func TestProducer_AllEvents(t *testing.T) {
	k := &fakeKafka{}
	p := NewProducer(k, logger.Discard())
	ctx := context.Background()

	require.NoError(t, p.SearchCommitted(ctx, SearchCommittedData{SessionID: "s-1", OwnerID: "u", Query: "phone"}))
	require.NoError(t, p.FavoriteAdded(ctx, "u", 1))
	require.NoError(t, p.FavoriteRemoved(ctx, "u", 1))
	require.NoError(t, p.BasketCleared(ctx, "u"))

	topics := make([]string, len(k.sent))
	for i, s := range k.sent {
		topics[i] = s.topic
	}
	assert.Equal(t, []string{TopicSearchCommitted, TopicFavoriteAdded, TopicFavoriteRemoved, TopicBasketCleared}, topics)
	assert.Equal(t, "s-1", k.sent[0].event.AggregateID)
}

func TestProducer_PublishError(t *testing.T) {
	k := &fakeKafka{err: errors.New("broker down")}
	p := NewProducer(k, logger.Discard())

	err := p.FavoriteAdded(context.Background(), "u", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish fakestore.favorite.added event")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	ctx := context.Background()
	assert.NoError(t, p.SearchCommitted(ctx, SearchCommittedData{}))
	assert.NoError(t, p.FavoriteAdded(ctx, "u", 1))
	assert.NoError(t, p.FavoriteRemoved(ctx, "u", 1))
	assert.NoError(t, p.BasketUpdated(ctx, "u", 1, 1))
	assert.NoError(t, p.BasketCleared(ctx, "u"))
	assert.NoError(t, p.CheckoutCompleted(ctx, "u", "o", domain.BasketSummary{}, "0000"))
}
