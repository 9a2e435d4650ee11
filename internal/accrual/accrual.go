// Package accrual computes fixed-rate simple interest with integer-only
// arithmetic. It is a pure function of its inputs: interest is re-derived
// from the position's last settlement time on every mutating operation, there
// is no background accrual process.
package accrual

import (
	"math"

	sdkmath "cosmossdk.io/math"
)

const (
	// BpsDenominator converts basis points to a rate (1 bps = 0.01%).
	BpsDenominator = 10_000

	// SecondsPerYear uses a 365-day year with no leap adjustment.
	SecondsPerYear = 365 * 24 * 60 * 60
)

// Interest returns floor(principal * rateBps * elapsedSeconds /
// (10000 * SecondsPerYear)), in the asset's smallest unit.
//
// The product is taken over arbitrary-precision integers, so there is no
// intermediate overflow and no precision loss before the single final
// division. Non-positive elapsed time yields zero; a non-monotonic wall
// clock must never produce negative interest. A result beyond uint64
// saturates, which cannot occur for any realistic principal and rate.
func Interest(principal uint64, rateBps uint32, elapsedSeconds int64) uint64 {
	if principal == 0 || rateBps == 0 || elapsedSeconds <= 0 {
		return 0
	}

	interest := sdkmath.NewIntFromUint64(principal).
		MulRaw(int64(rateBps)).
		MulRaw(elapsedSeconds).
		QuoRaw(BpsDenominator * SecondsPerYear)

	if !interest.IsUint64() {
		return math.MaxUint64
	}
	return interest.Uint64()
}
