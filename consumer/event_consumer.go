package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/queue"
)

// EventConsumer receives the engine's committed vault events from the broker.
type EventConsumer interface {
	Start(ctx context.Context) (<-chan *queue.VaultEvent, error)
	Stop() error
}

// VaultEventConsumer is the RabbitMQ-backed EventConsumer. Malformed
// messages are rejected without requeue so one bad payload cannot wedge the
// queue.
type VaultEventConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewVaultEventConsumer(cfg *config.QueueConfig) (*VaultEventConsumer, error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s/", cfg.User, cfg.Password, cfg.URL)

	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue broker at %s: %w", cfg.URL, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// same declaration as the publisher, so either side can start first
	if _, err := channel.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	return &VaultEventConsumer{
		conn:      conn,
		channel:   channel,
		queueName: cfg.QueueName,
	}, nil
}

// Start consumes from the event queue and decodes each delivery into a
// VaultEvent. The returned channel closes when ctx is cancelled or the
// broker connection drops.
func (c *VaultEventConsumer) Start(ctx context.Context) (<-chan *queue.VaultEvent, error) {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queueName,
		"",    // consumer tag, broker assigns one
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume queue %s: %w", c.queueName, err)
	}

	events := make(chan *queue.VaultEvent)
	go forward(ctx, deliveries, events)

	return events, nil
}

// forward decodes deliveries onto events. A delivery is acknowledged only
// after the receiver has taken it, so shutdown between decode and handoff
// requeues the event instead of dropping an acked message.
func forward(ctx context.Context, deliveries <-chan amqp.Delivery, events chan<- *queue.VaultEvent) {
	defer close(events)
	for delivery := range deliveries {
		var event queue.VaultEvent
		if err := json.Unmarshal(delivery.Body, &event); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to decode vault event, rejecting")
			if err := delivery.Nack(false, false); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to nack vault event")
			}
			continue
		}

		select {
		case events <- &event:
			if err := delivery.Ack(false); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to ack vault event")
			}
		case <-ctx.Done():
			if err := delivery.Nack(false, true); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to requeue vault event on shutdown")
			}
			return
		}
	}
}

func (c *VaultEventConsumer) Stop() error {
	if err := c.channel.Close(); err != nil {
		return fmt.Errorf("failed to close consumer channel: %w", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close consumer connection: %w", err)
	}
	return nil
}
