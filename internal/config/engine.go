package config

import (
	"errors"
	"fmt"
	"time"
)

// maxRateBps caps vault rates at 1000% annual. Anything above it is far more
// likely a mistyped config than an intended rate.
const maxRateBps = 100_000

// EngineConfig carries the accounting program's identity and the vault
// configuration applied when a deposit implicitly creates a missing vault.
type EngineConfig struct {
	// ProgramID seeds every derived record address. Changing it orphans all
	// existing records, so it is effectively write-once per deployment.
	ProgramID         string `mapstructure:"program-id"`
	DefaultRateBps    uint32 `mapstructure:"default-rate-bps"`
	DefaultMinDeposit uint64 `mapstructure:"default-min-deposit"`
	// AuditInterval is how often the background audit recomputes every
	// vault's principal sum. Zero disables the audit poller.
	AuditInterval time.Duration `mapstructure:"audit-interval"`
}

func (cfg *EngineConfig) Validate() error {
	if cfg.ProgramID == "" {
		return errors.New("engine program-id is required")
	}
	if cfg.DefaultRateBps > maxRateBps {
		return fmt.Errorf("engine default-rate-bps must not exceed %d, got %d", maxRateBps, cfg.DefaultRateBps)
	}
	if cfg.DefaultMinDeposit == 0 {
		return errors.New("engine default-min-deposit must be positive")
	}
	if cfg.AuditInterval < 0 {
		return errors.New("engine audit-interval must not be negative")
	}

	return nil
}
