package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaultlabs-io/defi-vault-engine/consumer"
	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
)

// Tail the engine's event queue and print every deposit/withdraw event.
// Useful against a local broker while poking the API by hand:
//
//	go run ./test_scripts --config config.yml
func main() {
	cfgPath := flag.String("config", "config.yml", "path to engine config file")
	flag.Parse()

	cfg, err := config.New(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	eventConsumer, err := consumer.NewVaultEventConsumer(&cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to create event consumer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := eventConsumer.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start event consumer: %v", err)
	}

	fmt.Printf("watching queue %q, ctrl-c to stop\n", cfg.Queue.QueueName)
	for event := range events {
		fmt.Printf("%s %s asset=%s depositor=%s amount=%d principal=%d\n",
			time.Unix(event.Timestamp, 0).Format(time.RFC3339),
			event.EventType,
			event.AssetID,
			event.Depositor,
			event.Amount,
			event.ResultingPrincipal,
		)
	}

	if err := eventConsumer.Stop(); err != nil {
		log.Printf("Failed to stop event consumer: %v", err)
	}
}
