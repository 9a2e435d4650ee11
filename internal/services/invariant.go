package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

type InvariantReport struct {
	VaultAddress   string
	TotalDeposited uint64
	PrincipalSum   uint64
	Positions      int
	Consistent     bool
}

// CheckVaultInvariant verifies that the vault's running total equals the sum
// of principals across all its positions. It is a diagnostic read used by the
// audit CLI and tests; a false report means an operation committed partially.
func (s *Service) CheckVaultInvariant(ctx context.Context, assetID string) (*InvariantReport, error) {
	vaultAddress := keys.VaultAddress(s.cfg.Engine.ProgramID, assetID)
	vault, err := s.db.GetVault(ctx, vaultAddress)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(fmt.Errorf("no vault for asset %s", assetID))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load vault: %w", err))
	}

	positions, err := s.db.GetPositionsByVault(ctx, vaultAddress)
	if err != nil {
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to list positions: %w", err))
	}

	var sum uint64
	for i := range positions {
		sum += positions[i].Principal
	}

	consistent := sum == vault.TotalDeposited
	if !consistent {
		metrics.IncInvariantViolations("audit")
	}

	return &InvariantReport{
		VaultAddress:   vault.Address,
		TotalDeposited: vault.TotalDeposited,
		PrincipalSum:   sum,
		Positions:      len(positions),
		Consistent:     consistent,
	}, nil
}

// AuditAllVaults runs the consistency check across every vault. It is the
// poll method of the background audit poller.
func (s *Service) AuditAllVaults(ctx context.Context) *types.Error {
	vaults, err := s.db.GetVaults(ctx)
	if err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to list vaults: %w", err))
	}

	for i := range vaults {
		report, err := s.CheckVaultInvariant(ctx, vaults[i].AssetID)
		if err != nil {
			var serviceErr *types.Error
			if errors.As(err, &serviceErr) {
				return serviceErr
			}
			return types.NewInternalServiceError(err)
		}
		if !report.Consistent {
			log.Ctx(ctx).Error().
				Str("vault_address", report.VaultAddress).
				Uint64("total_deposited", report.TotalDeposited).
				Uint64("principal_sum", report.PrincipalSum).
				Msg("vault total diverged from position principals")
		}
	}

	return nil
}
