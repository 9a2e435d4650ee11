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

type DepositRequest struct {
	AssetID   string
	Depositor string
	Amount    uint64

	// InterestRateBps and MinDeposit apply only when this deposit creates
	// the vault; for an existing vault they are ignored (first-creator
	// wins). Zero values fall back to the engine defaults.
	InterestRateBps uint32
	MinDeposit      uint64
}

func (r *DepositRequest) Validate() error {
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

type OperationResult struct {
	VaultAddress    string
	PositionAddress string
	Principal       uint64
	AccruedInterest uint64
	TotalDeposited  uint64
	Timestamp       int64
}

// Deposit moves amount from the depositor's holding into the vault's pooled
// custody and books it as principal. Interest earned since the position's
// last settlement is folded into the accrued accumulator before the
// principal changes, so the settled interest reflects the principal that
// existed for the whole elapsed window.
func (s *Service) Deposit(ctx context.Context, req *DepositRequest) (result *OperationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordOperationDuration(time.Since(start), "deposit", err != nil)
	}()

	if err := req.Validate(); err != nil {
		return nil, types.NewValidationFailedError(types.InvalidRequest, err)
	}

	rateBps := req.InterestRateBps
	if rateBps == 0 {
		rateBps = s.cfg.Engine.DefaultRateBps
	}
	minDeposit := req.MinDeposit
	if minDeposit == 0 {
		minDeposit = s.cfg.Engine.DefaultMinDeposit
	}

	vault, err := s.getOrCreateVault(ctx, req.AssetID, req.Depositor, rateBps, minDeposit)
	if err != nil {
		return nil, err
	}

	// Both validations precede any mutation: a rejected deposit leaves
	// vault, position and token accounts untouched.
	if req.Amount < vault.MinDeposit {
		return nil, types.NewValidationFailedError(types.InsufficientDepositAmount,
			fmt.Errorf("amount %d below vault minimum %d", req.Amount, vault.MinDeposit))
	}

	now := s.now()
	position, isNew, err := s.loadOrCreatePosition(ctx, vault.Address, req.Depositor, now)
	if err != nil {
		return nil, err
	}

	prev := *position
	if err := position.Settle(vault.InterestRateBps, now); err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	if err := position.ApplyDeposit(req.Amount); err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	// New state computed; attempt the transfer, then commit. A failed
	// debit aborts with nothing written.
	depositorAccount := keys.TokenAccountAddress(s.cfg.Engine.ProgramID, req.AssetID, req.Depositor)
	if err := s.db.DebitTokenAccount(ctx, depositorAccount, req.Amount); err != nil {
		if db.IsInsufficientFundsError(err) {
			return nil, types.NewTransferFailedError(
				fmt.Errorf("depositor holding cannot cover deposit of %d: %w", req.Amount, err))
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to debit depositor holding: %w", err))
	}

	custody := model.NewTokenAccountDocument(vault.CustodyAddress, req.AssetID, vault.Address, 0)
	if err := s.db.CreditTokenAccount(ctx, custody, req.Amount); err != nil {
		// The depositor was debited but custody was not credited; this
		// must never be silently swallowed.
		metrics.IncInvariantViolations("deposit")
		return nil, types.NewInvariantViolationError(
			fmt.Errorf("failed to credit vault custody after debit: %w", err))
	}

	if err := s.commitPosition(ctx, &prev, position, isNew); err != nil {
		return nil, err
	}
	// The stored post-increment total feeds the result and the gauge, so
	// concurrent deposits into other positions of the vault are reflected.
	totalDeposited, err := s.db.IncVaultTotalDeposited(ctx, vault.Address, req.Amount)
	if err != nil {
		metrics.IncInvariantViolations("deposit")
		return nil, types.NewInvariantViolationError(
			fmt.Errorf("failed to update vault total after deposit: %w", err))
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
	if err := s.emitter.PushDepositEvent(ctx, event); err != nil {
		// The state transition committed; event delivery is best-effort
		// and history consumers reconcile from storage.
		log.Ctx(ctx).Error().Err(err).
			Str("position", position.Address).
			Msg("failed to publish deposit event")
	}

	log.Ctx(ctx).Info().
		Str("vault", vault.Address).
		Str("position", position.Address).
		Uint64("amount", req.Amount).
		Uint64("principal", position.Principal).
		Msg("deposit committed")

	return &OperationResult{
		VaultAddress:    vault.Address,
		PositionAddress: position.Address,
		Principal:       position.Principal,
		AccruedInterest: position.AccruedInterest,
		TotalDeposited:  totalDeposited,
		Timestamp:       now,
	}, nil
}
