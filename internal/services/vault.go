package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

type InitializeVaultRequest struct {
	Authority       string
	AssetID         string
	InterestRateBps uint32
	MinDeposit      uint64
}

func (r *InitializeVaultRequest) Validate() error {
	if r.Authority == "" {
		return errors.New("authority is required")
	}
	if r.AssetID == "" {
		return errors.New("asset id is required")
	}
	if r.MinDeposit == 0 {
		return errors.New("min deposit must be positive")
	}
	return nil
}

type InitializeVaultResult struct {
	VaultAddress   string
	CustodyAddress string
	Created        bool
}

// InitializeVault creates the vault record for an asset at its derived
// address. Initialization is idempotent: when the record already exists the
// existing configuration wins and the call reports success with Created
// false, so concurrent creators never fail each other.
func (s *Service) InitializeVault(ctx context.Context, req *InitializeVaultRequest) (*InitializeVaultResult, error) {
	if err := req.Validate(); err != nil {
		return nil, types.NewValidationFailedError(types.InvalidRequest, err)
	}

	programID := s.cfg.Engine.ProgramID
	vaultAddress := keys.VaultAddress(programID, req.AssetID)
	custodyAddress := keys.CustodyAddress(programID, req.AssetID)

	vaultDoc := model.NewVaultDocument(
		vaultAddress,
		req.Authority,
		req.AssetID,
		custodyAddress,
		req.InterestRateBps,
		req.MinDeposit,
		s.now(),
	)

	if err := s.db.SaveNewVault(ctx, vaultDoc); err != nil {
		if db.IsDuplicateKeyError(err) {
			log.Ctx(ctx).Debug().
				Str("vault", vaultAddress).
				Str("asset_id", req.AssetID).
				Msg("vault already initialized, proceeding with existing configuration")
			return &InitializeVaultResult{
				VaultAddress:   vaultAddress,
				CustodyAddress: custodyAddress,
				Created:        false,
			}, nil
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to save vault: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("vault", vaultAddress).
		Str("asset_id", req.AssetID).
		Uint32("interest_rate_bps", req.InterestRateBps).
		Uint64("min_deposit", req.MinDeposit).
		Msg("vault initialized")

	return &InitializeVaultResult{
		VaultAddress:   vaultAddress,
		CustodyAddress: custodyAddress,
		Created:        true,
	}, nil
}

// getOrCreateVault resolves the vault for an asset, creating it on first use
// with the supplied depositor identity as authority. Creation races resolve
// first-creator-wins: a duplicate-key loss is followed by a fresh read of
// whatever configuration won.
func (s *Service) getOrCreateVault(
	ctx context.Context,
	assetID, authority string,
	rateBps uint32,
	minDeposit uint64,
) (*model.VaultDocument, error) {
	vaultAddress := keys.VaultAddress(s.cfg.Engine.ProgramID, assetID)

	vault, err := s.db.GetVault(ctx, vaultAddress)
	if err == nil {
		return vault, nil
	}
	if !db.IsNotFoundError(err) {
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load vault: %w", err))
	}

	vaultDoc := model.NewVaultDocument(
		vaultAddress,
		authority,
		assetID,
		keys.CustodyAddress(s.cfg.Engine.ProgramID, assetID),
		rateBps,
		minDeposit,
		s.now(),
	)
	if err := s.db.SaveNewVault(ctx, vaultDoc); err != nil {
		if db.IsDuplicateKeyError(err) {
			// Lost the creation race; the winner's configuration applies.
			vault, err := s.db.GetVault(ctx, vaultAddress)
			if err != nil {
				return nil, types.NewInternalServiceError(fmt.Errorf("failed to load vault after creation race: %w", err))
			}
			return vault, nil
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to create vault: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("vault", vaultAddress).
		Str("asset_id", assetID).
		Msg("vault created on first deposit")

	return vaultDoc, nil
}
