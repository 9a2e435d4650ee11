package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleAccumulatesInterest(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = 1_000_000_000

	require.NoError(t, p.Settle(500, 3600))
	assert.Equal(t, uint64(5707), p.AccruedInterest)
	assert.Equal(t, int64(3600), p.LastUpdateTime)

	// A second settlement over the same instant adds nothing.
	require.NoError(t, p.Settle(500, 3600))
	assert.Equal(t, uint64(5707), p.AccruedInterest)
}

func TestSettleClockGoingBackwards(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 1000)
	p.Principal = 1_000_000_000

	require.NoError(t, p.Settle(500, 500))
	assert.Equal(t, uint64(0), p.AccruedInterest)
	// Checkpoint must never rewind.
	assert.Equal(t, int64(1000), p.LastUpdateTime)
}

func TestApplyWithdrawInterestFirst(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = 1_000_000_000
	p.AccruedInterest = 5707

	// Fully covered by accrued interest: principal untouched.
	fromPrincipal, err := p.ApplyWithdraw(5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), fromPrincipal)
	assert.Equal(t, uint64(1_000_000_000), p.Principal)
	assert.Equal(t, uint64(707), p.AccruedInterest)
	assert.Equal(t, uint64(1), p.WithdrawCount)

	// Beyond accrued interest: interest zeroed, remainder from principal.
	fromPrincipal, err = p.ApplyWithdraw(1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(293), fromPrincipal)
	assert.Equal(t, uint64(999_999_707), p.Principal)
	assert.Equal(t, uint64(0), p.AccruedInterest)
	assert.Equal(t, uint64(2), p.WithdrawCount)
}

func TestApplyWithdrawBeyondPrincipalRejected(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = 100
	p.AccruedInterest = 10

	_, err := p.ApplyWithdraw(111)
	require.Error(t, err)
	// Failed withdrawal leaves the position untouched.
	assert.Equal(t, uint64(100), p.Principal)
	assert.Equal(t, uint64(10), p.AccruedInterest)
	assert.Equal(t, uint64(0), p.WithdrawCount)
}

func TestFullWithdrawalLeavesReusablePosition(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = 100
	p.AccruedInterest = 10

	fromPrincipal, err := p.ApplyWithdraw(p.Available())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), fromPrincipal)
	assert.Equal(t, uint64(0), p.Principal)
	assert.Equal(t, uint64(0), p.AccruedInterest)

	// The record persists with zero principal and accepts new deposits.
	require.NoError(t, p.ApplyDeposit(50))
	assert.Equal(t, uint64(50), p.Principal)
}

// Mirrors the documented deposit/deposit/withdraw walkthrough: 10 units at
// t=0 into a 500 bps vault, 5 more at t=1000, then accrued+3 at t=2000.
func TestDepositDepositWithdrawScenario(t *testing.T) {
	const rateBps = 500

	p := NewPositionDocument("pos", "alice", "vault", 0)
	require.NoError(t, p.Settle(rateBps, 0))
	require.NoError(t, p.ApplyDeposit(10))
	assert.Equal(t, uint64(10), p.Principal)
	assert.Equal(t, uint64(0), p.AccruedInterest)

	require.NoError(t, p.Settle(rateBps, 1000))
	require.NoError(t, p.ApplyDeposit(5))
	assert.Equal(t, uint64(15), p.Principal)

	require.NoError(t, p.Settle(rateBps, 2000))
	fromPrincipal, err := p.ApplyWithdraw(p.AccruedInterest + 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), fromPrincipal)
	assert.Equal(t, uint64(12), p.Principal)
	assert.Equal(t, uint64(0), p.AccruedInterest)
	assert.Equal(t, uint64(2), p.DepositCount)
	assert.Equal(t, uint64(1), p.WithdrawCount)
}

func TestApplyDepositOverflowRejected(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = math.MaxUint64 - 1

	require.Error(t, p.ApplyDeposit(2))
	assert.Equal(t, uint64(math.MaxUint64-1), p.Principal)
	assert.Equal(t, uint64(0), p.DepositCount)
}

func TestAvailableSaturates(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = math.MaxUint64
	p.AccruedInterest = 10
	assert.Equal(t, uint64(math.MaxUint64), p.Available())
}

func TestPendingInterestDoesNotMutate(t *testing.T) {
	p := NewPositionDocument("pos", "alice", "vault", 0)
	p.Principal = 1_000_000_000

	pending := p.PendingInterest(500, 3600)
	assert.Equal(t, uint64(5707), pending)
	assert.Equal(t, uint64(0), p.AccruedInterest)
	assert.Equal(t, int64(0), p.LastUpdateTime)
}

func TestVaultTotalsChecked(t *testing.T) {
	v := NewVaultDocument("vault", "auth", "usdc", "custody", 500, 1, 0)

	require.NoError(t, v.AddDeposited(100))
	require.NoError(t, v.SubDeposited(40))
	assert.Equal(t, uint64(60), v.TotalDeposited)

	require.Error(t, v.SubDeposited(61))
	assert.Equal(t, uint64(60), v.TotalDeposited)

	v.TotalDeposited = math.MaxUint64
	require.Error(t, v.AddDeposited(1))
}
