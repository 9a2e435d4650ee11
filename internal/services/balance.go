package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

type BalanceInfo struct {
	VaultAddress    string
	PositionAddress string
	Principal       uint64
	AccruedInterest uint64
	TotalBalance    uint64
	LastUpdateTime  int64
}

// GetBalance returns the depositor's live balance: stored principal, stored
// accrued interest plus interest earned since the last settlement, and their
// sum. It never mutates the position; the stored accrued field is only a
// settlement checkpoint and would understate the balance on its own.
func (s *Service) GetBalance(ctx context.Context, assetID, depositor string) (result *BalanceInfo, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordOperationDuration(time.Since(start), "get_balance", err != nil)
	}()

	programID := s.cfg.Engine.ProgramID
	vaultAddress := keys.VaultAddress(programID, assetID)
	vault, err := s.db.GetVault(ctx, vaultAddress)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(fmt.Errorf("no vault for asset %s", assetID))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load vault: %w", err))
	}

	positionAddress := keys.PositionAddress(programID, vaultAddress, depositor)
	position, err := s.db.GetPosition(ctx, positionAddress)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(fmt.Errorf("no position for depositor %s", depositor))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load position: %w", err))
	}

	accrued := saturatingAdd(position.AccruedInterest, position.PendingInterest(vault.InterestRateBps, s.now()))

	return &BalanceInfo{
		VaultAddress:    vault.Address,
		PositionAddress: position.Address,
		Principal:       position.Principal,
		AccruedInterest: accrued,
		TotalBalance:    saturatingAdd(position.Principal, accrued),
		LastUpdateTime:  position.LastUpdateTime,
	}, nil
}

func saturatingAdd(a, b uint64) uint64 {
	if b > math.MaxUint64-a {
		return math.MaxUint64
	}
	return a + b
}
