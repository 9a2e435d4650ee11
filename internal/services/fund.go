package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

// FundTokenAccount credits an owner's holding out of thin air. Devnet
// tooling only: production holdings are funded by the external wallet layer,
// not by the engine.
func (s *Service) FundTokenAccount(ctx context.Context, assetID, owner string, amount uint64) (string, error) {
	if assetID == "" || owner == "" {
		return "", types.NewValidationFailedError(types.InvalidRequest, errors.New("asset id and owner are required"))
	}
	if amount == 0 {
		return "", types.NewValidationFailedError(types.InvalidRequest, errors.New("amount must be positive"))
	}

	address := keys.TokenAccountAddress(s.cfg.Engine.ProgramID, assetID, owner)
	account := model.NewTokenAccountDocument(address, assetID, owner, 0)
	if err := s.db.CreditTokenAccount(ctx, account, amount); err != nil {
		return "", types.NewInternalServiceError(fmt.Errorf("failed to credit token account: %w", err))
	}
	return address, nil
}

// FundVaultCustody tops up a vault's pooled custody account. Interest is paid
// from custody but only principal ever flows in through deposits, so the
// vault authority subsidizes the difference.
func (s *Service) FundVaultCustody(ctx context.Context, assetID string, amount uint64) (string, error) {
	if assetID == "" {
		return "", types.NewValidationFailedError(types.InvalidRequest, errors.New("asset id is required"))
	}
	if amount == 0 {
		return "", types.NewValidationFailedError(types.InvalidRequest, errors.New("amount must be positive"))
	}

	programID := s.cfg.Engine.ProgramID
	address := keys.CustodyAddress(programID, assetID)
	account := model.NewTokenAccountDocument(address, assetID, keys.VaultAddress(programID, assetID), 0)
	if err := s.db.CreditTokenAccount(ctx, account, amount); err != nil {
		return "", types.NewInternalServiceError(fmt.Errorf("failed to credit vault custody: %w", err))
	}
	return address, nil
}
