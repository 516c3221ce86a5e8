package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sefaaycicek/fakestore/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type basketPayload struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

func TestNewEvent_Fields(t *testing.T) {
	ev, err := NewEvent("basket.updated", "user-1", "basket", "storefront", basketPayload{ProductID: 3, Quantity: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "basket.updated", ev.EventType)
	assert.Equal(t, "user-1", ev.AggregateID)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())

	var got basketPayload
	require.NoError(t, ev.UnmarshalData(&got))
	assert.Equal(t, basketPayload{ProductID: 3, Quantity: 2}, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("x", "id", "agg", "src", make(chan int))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "fakestore.search.committed", Topic("search", "committed"))
	assert.Equal(t, "fakestore.checkout.completed", Topic("checkout", "completed"))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: logger.Discard()}

	ev, err := NewEvent("favorite.added", "user-1", "favorites", "storefront", map[string]int{"product_id": 9})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")

	topic := Topic("favorite", "added")
	before := testutil.ToFloat64(messagesPublished.WithLabelValues(topic))

	require.NoError(t, p.Publish(context.Background(), topic, ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, []byte("user-1"), msg.Key)

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Equal(t, "favorite.added", carrier.Get("event_type"))
	assert.Equal(t, "corr-1", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.EventID, decoded.EventID)

	assert.Equal(t, before+1, testutil.ToFloat64(messagesPublished.WithLabelValues(topic)))
}

func TestProducer_PublishFailure(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, logger: logger.Discard()}
	ev, err := NewEvent("basket.cleared", "user-1", "basket", "storefront", struct{}{})
	require.NoError(t, err)

	topic := Topic("basket", "cleared")
	before := testutil.ToFloat64(messagesFailed.WithLabelValues(topic))

	err = p.Publish(context.Background(), topic, ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, before+1, testutil.ToFloat64(messagesFailed.WithLabelValues(topic)))
}

func TestBuildMessage_InjectsTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	ev, err := NewEvent("search.committed", "s-1", "listing", "storefront", map[string]string{"query": "phone"})
	require.NoError(t, err)

	msg, err := buildMessage(ctx, Topic("search", "committed"), ev)
	require.NoError(t, err)

	carrier := NewHeaderCarrier(&msg.Headers)
	assert.Contains(t, carrier.Get("traceparent"), span.SpanContext().TraceID().String())
	assert.Contains(t, carrier.Keys(), "traceparent")
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	var headers []kafka.Header
	c := NewHeaderCarrier(&headers)

	c.Set("k", "v1")
	c.Set("k", "v2")

	assert.Len(t, headers, 1)
	assert.Equal(t, "v2", c.Get("k"))
	assert.Equal(t, "", c.Get("missing"))
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	p := NewProducer(DefaultProducerConfig(nil), logger.Discard())
	assert.Error(t, p.Ping(context.Background()))
	assert.NoError(t, p.Close())
}
