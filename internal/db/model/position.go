package model

import (
	"fmt"
	"math"

	"github.com/vaultlabs-io/defi-vault-engine/internal/accrual"
)

type PositionDocument struct {
	// Address is the derived position address, primary key.
	Address         string `bson:"_id"`
	Owner           string `bson:"owner"`
	VaultAddress    string `bson:"vault_address"`
	Principal       uint64 `bson:"principal"`
	AccruedInterest uint64 `bson:"accrued_interest"`
	LastUpdateTime  int64  `bson:"last_update_time"`
	DepositCount    uint64 `bson:"deposit_count"`
	WithdrawCount   uint64 `bson:"withdraw_count"`
}

func NewPositionDocument(address, owner, vaultAddress string, now int64) *PositionDocument {
	return &PositionDocument{
		Address:        address,
		Owner:          owner,
		VaultAddress:   vaultAddress,
		LastUpdateTime: now,
	}
}

// Settle folds the interest earned since the last settlement into the
// accrued accumulator and advances the settlement checkpoint to now.
//
// Every mutating operation must call Settle before touching the principal,
// so the interest always reflects the principal that existed for the whole
// elapsed window. The checkpoint never moves backwards, so a non-monotonic
// clock yields zero interest rather than a rewound window.
func (p *PositionDocument) Settle(interestRateBps uint32, now int64) error {
	settled := accrual.Interest(p.Principal, interestRateBps, now-p.LastUpdateTime)
	if settled > math.MaxUint64-p.AccruedInterest {
		return fmt.Errorf("position %s accrued_interest overflow: %d + %d", p.Address, p.AccruedInterest, settled)
	}
	p.AccruedInterest += settled
	if now > p.LastUpdateTime {
		p.LastUpdateTime = now
	}
	return nil
}

// ApplyDeposit adds amount to the principal. Callers settle first.
func (p *PositionDocument) ApplyDeposit(amount uint64) error {
	if amount > math.MaxUint64-p.Principal {
		return fmt.Errorf("position %s principal overflow: %d + %d", p.Address, p.Principal, amount)
	}
	p.Principal += amount
	p.DepositCount++
	return nil
}

// ApplyWithdraw drains amount from the position, accrued interest first and
// principal for the remainder, returning the principal share so the caller
// can mirror it on the vault total. Callers settle and check Available first;
// an amount beyond the available balance is rejected with no mutation.
func (p *PositionDocument) ApplyWithdraw(amount uint64) (fromPrincipal uint64, err error) {
	fromInterest := min(amount, p.AccruedInterest)
	fromPrincipal = amount - fromInterest
	if fromPrincipal > p.Principal {
		return 0, fmt.Errorf("position %s principal underflow: %d - %d", p.Address, p.Principal, fromPrincipal)
	}
	p.AccruedInterest -= fromInterest
	p.Principal -= fromPrincipal
	p.WithdrawCount++
	return fromPrincipal, nil
}

// Available returns the balance withdrawable right now, assuming interest has
// just been settled. The sum saturates rather than wrapping.
func (p *PositionDocument) Available() uint64 {
	if p.AccruedInterest > math.MaxUint64-p.Principal {
		return math.MaxUint64
	}
	return p.Principal + p.AccruedInterest
}

// PendingInterest returns the interest earned since the last settlement
// without mutating the position. Readers must add it on top of the stored
// accrued value: the stored field is a settlement checkpoint, not a live
// balance.
func (p *PositionDocument) PendingInterest(interestRateBps uint32, now int64) uint64 {
	return accrual.Interest(p.Principal, interestRateBps, now-p.LastUpdateTime)
}
