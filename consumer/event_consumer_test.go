package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultlabs-io/defi-vault-engine/internal/queue"
)

type nackCall struct {
	tag     uint64
	requeue bool
}

// recordingAcknowledger stands in for the broker channel and records every
// settlement decision.
type recordingAcknowledger struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []nackCall
}

func (a *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, nackCall{tag: tag, requeue: requeue})
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func eventDelivery(t *testing.T, ack amqp.Acknowledger, tag uint64, event *queue.VaultEvent) amqp.Delivery {
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  tag,
		Body:         body,
	}
}

func TestForward(t *testing.T) {
	t.Run("delivery is acked after handoff", func(t *testing.T) {
		ack := &recordingAcknowledger{}
		deliveries := make(chan amqp.Delivery, 1)
		deliveries <- eventDelivery(t, ack, 7, &queue.VaultEvent{
			Depositor: "depositor",
			Amount:    1_000,
		})
		close(deliveries)

		events := make(chan *queue.VaultEvent)
		go forward(context.Background(), deliveries, events)

		event, ok := <-events
		require.True(t, ok)
		assert.Equal(t, "depositor", event.Depositor)
		assert.Equal(t, uint64(1_000), event.Amount)

		// events closes once the delivery stream drains
		_, ok = <-events
		require.False(t, ok)

		assert.Equal(t, []uint64{7}, ack.acked)
		assert.Empty(t, ack.nacked)
	})

	t.Run("malformed payload is rejected without requeue", func(t *testing.T) {
		ack := &recordingAcknowledger{}
		deliveries := make(chan amqp.Delivery, 1)
		deliveries <- amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  3,
			Body:         []byte("not an event"),
		}
		close(deliveries)

		events := make(chan *queue.VaultEvent)
		go forward(context.Background(), deliveries, events)

		_, ok := <-events
		require.False(t, ok)

		assert.Empty(t, ack.acked)
		assert.Equal(t, []nackCall{{tag: 3, requeue: false}}, ack.nacked)
	})

	t.Run("shutdown before handoff requeues instead of dropping", func(t *testing.T) {
		ack := &recordingAcknowledger{}
		deliveries := make(chan amqp.Delivery, 1)
		deliveries <- eventDelivery(t, ack, 11, &queue.VaultEvent{Amount: 500})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// nobody reads events, so the handoff can only end via ctx
		events := make(chan *queue.VaultEvent)
		forward(ctx, deliveries, events)

		assert.Empty(t, ack.acked)
		assert.Equal(t, []nackCall{{tag: 11, requeue: true}}, ack.nacked)
	})
}
