package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/pkg/logger"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeue  bool
	rejected bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked, f.requeue = true, requeue
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error { f.rejected = true; return nil }

func delivery(t *testing.T, ack *fakeAck, eventType string, data any, headers amqp.Table) amqp.Delivery {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, Headers: headers}
}

func newTestConsumer() *Consumer {
	return &Consumer{handlers: make(map[string]MessageHandler), logger: logger.Nop()}
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("dispatches and acks", func(t *testing.T) {
		c := newTestConsumer()
		var got UserEvent
		var correlation string
		c.RegisterHandler(EventUserLogin, func(ctx context.Context, e *Event) error {
			correlation = CorrelationID(ctx)
			return e.UnmarshalData(&got)
		})

		ack := &fakeAck{}
		c.handleMessage(context.Background(), delivery(t, ack, EventUserLogin, UserEvent{UserID: 7}, nil))

		assert.True(t, ack.acked)
		assert.Equal(t, int64(7), got.UserID)
		assert.Equal(t, "corr-1", correlation)
	})

	t.Run("unknown type is acked", func(t *testing.T) {
		ack := &fakeAck{}
		newTestConsumer().handleMessage(context.Background(), delivery(t, ack, "user.other", UserEvent{}, nil))
		assert.True(t, ack.acked)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		ack := &fakeAck{}
		newTestConsumer().handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})
		assert.True(t, ack.rejected)
	})

	t.Run("handler failure requeues", func(t *testing.T) {
		c := newTestConsumer()
		c.RegisterHandler(EventUserUpdated, func(context.Context, *Event) error { return errors.New("db down") })

		ack := &fakeAck{}
		c.handleMessage(context.Background(), delivery(t, ack, EventUserUpdated, UserEvent{UserID: 1}, nil))
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("retry budget exhausted dead-letters", func(t *testing.T) {
		c := newTestConsumer()
		c.RegisterHandler(EventUserUpdated, func(context.Context, *Event) error { return errors.New("db down") })

		headers := amqp.Table{"x-death": []interface{}{amqp.Table{"count": int64(MaxRedeliveries)}}}
		ack := &fakeAck{}
		c.handleMessage(context.Background(), delivery(t, ack, EventUserUpdated, UserEvent{UserID: 1}, headers))
		assert.True(t, ack.rejected)
		assert.False(t, ack.nacked)
	})
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent(EventHierarchyPathSynced, "analytics-service", "", PathSyncedEvent{UserID: 3, NewPath: "D1 > D3", Level: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventHierarchyPathSynced, e.Type)

	var data PathSyncedEvent
	require.NoError(t, e.UnmarshalData(&data))
	assert.Equal(t, "D1 > D3", data.NewPath)
}
