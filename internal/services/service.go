package services

import (
	"context"
	"time"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/queue"
)

// Service implements the accounting program: vault and position lifecycle,
// the deposit/withdraw state transitions, and the balance view. Each
// operation is atomic from the caller's perspective; operations on the same
// position are expected to be serialized by the hosting environment, and the
// storage layer's checkpointed writes turn any breach of that assumption
// into an explicit error instead of a lost update.
type Service struct {
	cfg     *config.Config
	db      db.DbInterface
	emitter queue.EventEmitter

	// now returns the current unix time; overridable in tests.
	now func() int64
}

func NewService(cfg *config.Config, db db.DbInterface, emitter queue.EventEmitter) *Service {
	return &Service{
		cfg:     cfg,
		db:      db,
		emitter: emitter,
		now: func() int64 {
			return time.Now().Unix()
		},
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
