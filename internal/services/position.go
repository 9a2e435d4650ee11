package services

import (
	"context"
	"fmt"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

// loadOrCreatePosition locates the depositor's position for a vault,
// initializing a zeroed record when this is their first deposit. The
// returned flag tells the caller whether commit must insert or replace.
func (s *Service) loadOrCreatePosition(
	ctx context.Context,
	vaultAddress, depositor string,
	now int64,
) (position *model.PositionDocument, isNew bool, err error) {
	positionAddress := keys.PositionAddress(s.cfg.Engine.ProgramID, vaultAddress, depositor)

	position, getErr := s.db.GetPosition(ctx, positionAddress)
	if getErr == nil {
		return position, false, nil
	}
	if !db.IsNotFoundError(getErr) {
		return nil, false, types.NewInternalServiceError(fmt.Errorf("failed to load position: %w", getErr))
	}

	return model.NewPositionDocument(positionAddress, depositor, vaultAddress, now), true, nil
}

// commitPosition persists a settled and mutated position. New positions are
// inserted; existing ones are replaced against the exact record the
// operation read, so serialization breaches surface instead of losing
// updates. Both failure modes mean the externally-provided per-record
// serialization did not hold.
func (s *Service) commitPosition(
	ctx context.Context,
	prev, updated *model.PositionDocument,
	isNew bool,
) error {
	if isNew {
		if err := s.db.SaveNewPosition(ctx, updated); err != nil {
			if db.IsDuplicateKeyError(err) {
				return types.NewInvariantViolationError(
					fmt.Errorf("position %s created concurrently: %w", updated.Address, err))
			}
			return types.NewInternalServiceError(fmt.Errorf("failed to save position: %w", err))
		}
		return nil
	}

	if err := s.db.UpdatePositionCheckpoint(ctx, prev, updated); err != nil {
		if db.IsStaleDocumentError(err) {
			return types.NewInvariantViolationError(
				fmt.Errorf("position %s modified concurrently: %w", updated.Address, err))
		}
		return types.NewInternalServiceError(fmt.Errorf("failed to update position: %w", err))
	}
	return nil
}
