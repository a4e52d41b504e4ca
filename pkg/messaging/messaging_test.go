package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worktime/worktime-backend/pkg/logger"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

type fakeAck struct {
	acked, nacked, rejected, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func (f *fakeAck) Reject(requeue bool) error {
	f.rejected, f.requeued = true, requeue
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: ExchangeTimesheetEvents, source: "timesheet-service", logger: logger.Nop()}

	ctx := WithCorrelationID(context.Background(), "corr-1")
	err := p.Publish(ctx, EventTaskDeleted, TaskDeletedEvent{TaskID: "t1", TaskName: "Build", EntriesDeleted: 2})
	require.NoError(t, err)

	assert.Equal(t, ExchangeTimesheetEvents, ch.exchange)
	assert.Equal(t, EventTaskDeleted, ch.key)
	assert.Equal(t, "corr-1", ch.msg.CorrelationId)

	var event Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, EventTaskDeleted, event.Type)
	assert.Equal(t, "timesheet-service", event.Source)
	assert.Equal(t, ch.msg.MessageId, event.ID)

	var data TaskDeletedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, int64(2), data.EntriesDeleted)
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{channel: &fakeChannel{err: errors.New("channel closed")}, logger: logger.Nop()}
	assert.Error(t, p.Publish(context.Background(), EventImportCompleted, ImportCompletedEvent{}))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(logger.NewWithWriter("test", &buf))

	require.NoError(t, p.Publish(context.Background(), EventImportCompleted, ImportCompletedEvent{
		Passes: []ImportPassSummary{{Pass: "positions", Created: 3}},
	}))
	assert.Contains(t, buf.String(), EventImportCompleted)
	assert.Contains(t, buf.String(), `"created":3`)
}

func TestConsumer_Handle(t *testing.T) {
	body, err := json.Marshal(Event{ID: "e1", Type: EventTaskDeleted, CorrelationID: "c1"})
	require.NoError(t, err)

	t.Run("acks on success", func(t *testing.T) {
		var gotCorrelation string
		c := &Consumer{logger: logger.Nop(), handler: func(ctx context.Context, e *Event) error {
			gotCorrelation = getCorrelationID(ctx)
			return nil
		}}
		ack := &fakeAck{}
		c.handle(context.Background(), body, false, ack)
		assert.True(t, ack.acked)
		assert.Equal(t, "c1", gotCorrelation)
	})

	t.Run("requeues first failure", func(t *testing.T) {
		c := &Consumer{logger: logger.Nop(), handler: func(context.Context, *Event) error { return errors.New("x") }}
		ack := &fakeAck{}
		c.handle(context.Background(), body, false, ack)
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeued)
	})

	t.Run("dead-letters redelivered failure", func(t *testing.T) {
		c := &Consumer{logger: logger.Nop(), handler: func(context.Context, *Event) error { return errors.New("x") }}
		ack := &fakeAck{}
		c.handle(context.Background(), body, true, ack)
		assert.True(t, ack.rejected)
		assert.False(t, ack.requeued)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		c := &Consumer{logger: logger.Nop(), handler: func(context.Context, *Event) error { return nil }}
		ack := &fakeAck{}
		c.handle(context.Background(), []byte("{"), false, ack)
		assert.True(t, ack.rejected)
	})
}
