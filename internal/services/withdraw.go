package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/keys"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
	"github.com/vaultlabs-io/defi-vault-engine/internal/queue"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

type WithdrawRequest struct {
	AssetID   string
	Depositor string
	Amount    uint64
}

func (r *WithdrawRequest) Validate() error {
	if r.AssetID == "" {
		return errors.New("asset id is required")
	}
	if r.Depositor == "" {
		return errors.New("depositor is required")
	}
	if r.Amount == 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

// Withdraw pays out amount from the depositor's settled balance, accrued
// interest first and principal for the remainder, and moves the funds from
// vault custody back to the depositor's holding. The balance check runs
// after settlement, so interest earned up to this instant is withdrawable.
func (s *Service) Withdraw(ctx context.Context, req *WithdrawRequest) (result *OperationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordOperationDuration(time.Since(start), "withdraw", err != nil)
	}()

	if err := req.Validate(); err != nil {
		return nil, types.NewValidationFailedError(types.InvalidRequest, err)
	}

	programID := s.cfg.Engine.ProgramID
	vaultAddress := keys.VaultAddress(programID, req.AssetID)
	vault, err := s.db.GetVault(ctx, vaultAddress)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(fmt.Errorf("no vault for asset %s", req.AssetID))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load vault: %w", err))
	}

	positionAddress := keys.PositionAddress(programID, vaultAddress, req.Depositor)
	position, err := s.db.GetPosition(ctx, positionAddress)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewNotFoundError(fmt.Errorf("no position for depositor %s", req.Depositor))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load position: %w", err))
	}

	now := s.now()
	prev := *position
	if err := position.Settle(vault.InterestRateBps, now); err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	if req.Amount > position.Available() {
		return nil, types.NewValidationFailedError(types.InsufficientBalance,
			fmt.Errorf("amount %d exceeds available balance %d", req.Amount, position.Available()))
	}

	fromPrincipal, err := position.ApplyWithdraw(req.Amount)
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	// Custody covers every settled balance as long as the accounting
	// invariant holds; a shortfall here is a bug elsewhere, not a
	// user-correctable condition.
	if err := s.db.DebitTokenAccount(ctx, vault.CustodyAddress, req.Amount); err != nil {
		if db.IsInsufficientFundsError(err) {
			metrics.IncInvariantViolations("withdraw")
			return nil, types.NewInvariantViolationError(
				fmt.Errorf("vault custody cannot cover withdrawal of %d: %w", req.Amount, err))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to debit vault custody: %w", err))
	}

	depositorAccount := model.NewTokenAccountDocument(
		keys.TokenAccountAddress(programID, req.AssetID, req.Depositor),
		req.AssetID,
		req.Depositor,
		0,
	)
	if err := s.db.CreditTokenAccount(ctx, depositorAccount, req.Amount); err != nil {
		metrics.IncInvariantViolations("withdraw")
		return nil, types.NewInvariantViolationError(
			fmt.Errorf("failed to credit depositor holding after custody debit: %w", err))
	}

	if err := s.commitPosition(ctx, &prev, position, false); err != nil {
		return nil, err
	}
	// A zero decrement still matches the vault, so an interest-only
	// withdrawal reports the stored total rather than the start snapshot.
	totalDeposited, err := s.db.DecVaultTotalDeposited(ctx, vault.Address, fromPrincipal)
	if err != nil {
		metrics.IncInvariantViolations("withdraw")
		return nil, types.NewInvariantViolationError(
			fmt.Errorf("failed to update vault total after withdrawal: %w", err))
	}
	metrics.RecordVaultTotalDeposited(vault.AssetID, totalDeposited)

	event := &queue.VaultEvent{
		Depositor:          req.Depositor,
		VaultAddress:       vault.Address,
		PositionAddress:    position.Address,
		AssetID:            req.AssetID,
		Amount:             req.Amount,
		ResultingPrincipal: position.Principal,
		Timestamp:          now,
	}
	if err := s.emitter.PushWithdrawEvent(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("position", position.Address).
			Msg("failed to publish withdraw event")
	}

	log.Ctx(ctx).Info().
		Str("vault", vault.Address).
		Str("position", position.Address).
		Uint64("amount", req.Amount).
		Uint64("from_principal", fromPrincipal).
		Uint64("principal", position.Principal).
		Msg("withdrawal committed")

	return &OperationResult{
		VaultAddress:    vault.Address,
		PositionAddress: position.Address,
		Principal:       position.Principal,
		AccruedInterest: position.AccruedInterest,
		TotalDeposited:  totalDeposited,
		Timestamp:       now,
	}, nil
}
