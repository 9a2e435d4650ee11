package e2etest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vaultlabs-io/defi-vault-engine/consumer"
	"github.com/vaultlabs-io/defi-vault-engine/e2etest/container"
	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
	"github.com/vaultlabs-io/defi-vault-engine/internal/queue"
	"github.com/vaultlabs-io/defi-vault-engine/internal/services"
)

var (
	eventuallyWaitTimeOut = 20 * time.Second
	eventuallyPollTime    = 200 * time.Millisecond
)

type TestManager struct {
	Config        *config.Config
	Service       *services.Service
	DbClient      *db.Database
	QueueManager  *queue.QueueManager
	EventChan     <-chan *queue.VaultEvent
	manager       *container.Manager
	eventConsumer *consumer.VaultEventConsumer
	stopConsumer  context.CancelFunc
}

// StartManager boots mongo and rabbitmq containers and wires a full engine
// on top of them: db client, queue publisher, service, and a consumer
// tailing the event queue.
func StartManager(t *testing.T) *TestManager {
	ctx := context.Background()

	manager, err := container.NewManager()
	require.NoError(t, err)

	dbCfg, err := manager.RunMongoResource()
	require.NoError(t, err)

	queueCfg, err := manager.RunRabbitResource("vault_events_e2e")
	require.NoError(t, err)

	cfg := defaultEngineConfig(dbCfg, queueCfg)

	err = model.Setup(ctx, &cfg.Db)
	require.NoError(t, err)

	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)

	queueManager, err := queue.NewQueueManager(&cfg.Queue)
	require.NoError(t, err)

	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), queueManager)

	// initialize metrics with the metrics port from config
	metrics.Init(cfg.Metrics.GetMetricsPort())

	eventConsumer, err := consumer.NewVaultEventConsumer(&cfg.Queue)
	require.NoError(t, err)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	eventChan, err := eventConsumer.Start(consumerCtx)
	if err != nil {
		stopConsumer()
		t.Fatalf("failed to start event consumer: %v", err)
	}

	return &TestManager{
		Config:        cfg,
		Service:       service,
		DbClient:      dbClient,
		QueueManager:  queueManager,
		EventChan:     eventChan,
		manager:       manager,
		eventConsumer: eventConsumer,
		stopConsumer:  stopConsumer,
	}
}

func (tm *TestManager) Stop(t *testing.T) {
	tm.stopConsumer()
	if err := tm.eventConsumer.Stop(); err != nil {
		t.Logf("failed to stop event consumer: %v", err)
	}
	tm.QueueManager.Shutdown()
	require.NoError(t, tm.manager.ClearResources())
}

// WaitForEvent blocks until the consumer delivers the next vault event.
func (tm *TestManager) WaitForEvent(t *testing.T) *queue.VaultEvent {
	select {
	case event, ok := <-tm.EventChan:
		require.True(t, ok, "event channel closed before event arrived")
		return event
	case <-time.After(eventuallyWaitTimeOut):
		t.Fatal("timed out waiting for vault event")
		return nil
	}
}

func defaultEngineConfig(dbCfg *config.DbConfig, queueCfg *config.QueueConfig) *config.Config {
	return &config.Config{
		Db: *dbCfg,
		Api: config.ApiConfig{
			Host:         "127.0.0.1",
			Port:         8090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Engine: config.EngineConfig{
			ProgramID:         "vault-engine-e2e",
			DefaultRateBps:    500,
			DefaultMinDeposit: 100,
		},
		Queue: *queueCfg,
		Metrics: config.MetricsConfig{
			Host: "127.0.0.1",
			Port: 2113,
		},
	}
}
