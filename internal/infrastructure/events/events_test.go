package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/salesboard-service/internal/config"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

var completedAt = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func sampleEvent() sale.CheckoutCompleted {
	return sale.CheckoutCompleted{
		EventID: "evt-1",
		CartID:  "cart-1",
		Buyer:   "carol",
		Sales: []*sale.Record{
			{ID: 1, Buyer: "carol", Seller: "alice", Name: "Lamp", ItemRef: 9, Quantity: 2, CreatedAt: completedAt},
		},
		TotalUnits:  2,
		CompletedAt: completedAt,
	}
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestRabbitMQPublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitMQPublisher(ch, "salesboard", sale.CheckoutCompletedTopic, logger.Discard())

	require.NoError(t, p.PublishCheckoutCompleted(context.Background(), sampleEvent()))

	assert.Equal(t, "salesboard", ch.exchange)
	assert.Equal(t, sale.CheckoutCompletedTopic, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "evt-1", ch.msg.MessageId)

	var got sale.CheckoutCompleted
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, sampleEvent(), got)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQPublishFailureIsReturned(t *testing.T) {
	p := newRabbitMQPublisher(&fakeChannel{err: amqp.ErrClosed}, "salesboard", "t", logger.Discard())
	err := p.PublishCheckoutCompleted(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestKafkaKeysByCart(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, sale.CheckoutCompletedTopic, logger.Discard())

	require.NoError(t, p.PublishCheckoutCompleted(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("cart-1"), w.msgs[0].Key)
	assert.Equal(t, completedAt, w.msgs[0].Time)
	assert.JSONEq(t, `{
		"event_id": "evt-1",
		"cart_id": "cart-1",
		"buyer": "carol",
		"sales": [{"id": 1, "buyer": "carol", "seller": "alice", "name": "Lamp", "item_id": 9, "quantity": 2, "created_at": "2026-10-14T12:00:00Z"}],
		"total_units": 2,
		"completed_at": "2026-10-14T12:00:00Z"
	}`, string(w.msgs[0].Value))
}

func TestKafkaPublishFailureIsReturned(t *testing.T) {
	boom := errors.New("leader not available")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "t", logger.Discard())
	assert.ErrorIs(t, p.PublishCheckoutCompleted(context.Background(), sampleEvent()), boom)
}

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(config.EventsConfig{Driver: "none"}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &NoopPublisher{}, p)
	assert.NoError(t, p.PublishCheckoutCompleted(context.Background(), sampleEvent()))

	p, err = New(config.EventsConfig{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.Equal(t, sale.CheckoutCompletedTopic, p.(*KafkaPublisher).topic)

	_, err = New(config.EventsConfig{Driver: "carrier-pigeon"}, logger.Discard())
	assert.Error(t, err)
}
