package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
)

const (
	connectMaxRetryTimes = 5
	connectRetryInterval = 2 * time.Second
)

// EventEmitter is the engine's outbound event surface. The queue-backed
// implementation below is the production one; tests substitute their own.
type EventEmitter interface {
	PushDepositEvent(ctx context.Context, event *VaultEvent) error
	PushWithdrawEvent(ctx context.Context, event *VaultEvent) error
	Shutdown()
}

type QueueManager struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	queueName      string
	publishTimeout time.Duration
}

// NewQueueManager connects to the broker and declares the durable event
// queue. The connection is retried with backoff: the broker routinely comes
// up after the engine in containerized deployments.
func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s/", cfg.User, cfg.Password, cfg.URL)

	conn, err := retry.DoWithData(
		func() (*amqp.Connection, error) {
			return amqp.Dial(amqpURI)
		},
		retry.Attempts(connectMaxRetryTimes),
		retry.Delay(connectRetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().
				Uint("attempt", n+1).
				Err(err).
				Msg("failed to connect to queue broker, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue broker at %s: %w", cfg.URL, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

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

	return &QueueManager{
		conn:           conn,
		channel:        channel,
		queueName:      cfg.QueueName,
		publishTimeout: cfg.PublishTimeout,
	}, nil
}

func (qm *QueueManager) PushDepositEvent(ctx context.Context, event *VaultEvent) error {
	event.EventType = DepositEventType
	return qm.publish(ctx, event)
}

func (qm *QueueManager) PushWithdrawEvent(ctx context.Context, event *VaultEvent) error {
	event.EventType = WithdrawEventType
	return qm.publish(ctx, event)
}

func (qm *QueueManager) publish(ctx context.Context, event *VaultEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, qm.publishTimeout)
	defer cancel()

	err = qm.channel.PublishWithContext(
		ctx,
		"", // default exchange
		qm.queueName,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		metrics.IncQueuePublishFailures()
		return fmt.Errorf("failed to publish %s event: %w", event.EventType, err)
	}
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all
// resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	if err := qm.channel.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue connection")
	}
}
