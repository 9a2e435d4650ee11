package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vaultlabs-io/defi-vault-engine/internal/api"
	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	dbmodel "github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/tracing"
	"github.com/vaultlabs-io/defi-vault-engine/internal/queue"
	"github.com/vaultlabs-io/defi-vault-engine/internal/services"
	"github.com/vaultlabs-io/defi-vault-engine/internal/utils/poller"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the vault accounting engine server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		log.Fatal().Err(err).Msg("error while setting up vault db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	queueManager, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating queue manager")
	}
	defer queueManager.Shutdown()

	service := services.NewService(cfg, dbClient, queueManager)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	if interval := cfg.Engine.AuditInterval; interval > 0 {
		auditPoller := poller.NewPoller(interval, service.AuditAllVaults)
		go auditPoller.Start(ctx)
	}

	server := api.New(&cfg.Api, service)
	return server.Start(ctx)
}
