package model

import (
	"fmt"
	"math"
)

type VaultDocument struct {
	// Address is the derived vault address, primary key.
	Address         string `bson:"_id"`
	Authority       string `bson:"authority"`
	AssetID         string `bson:"asset_id"`
	CustodyAddress  string `bson:"custody_address"`
	InterestRateBps uint32 `bson:"interest_rate_bps"`
	MinDeposit      uint64 `bson:"min_deposit"`
	TotalDeposited  uint64 `bson:"total_deposited"`
	CreatedAt       int64  `bson:"created_at"`
}

// NewVaultDocument returns a fresh vault. Rate and min-deposit are write-once:
// nothing in the engine updates them after creation.
func NewVaultDocument(
	address, authority, assetID, custodyAddress string,
	interestRateBps uint32,
	minDeposit uint64,
	createdAt int64,
) *VaultDocument {
	return &VaultDocument{
		Address:         address,
		Authority:       authority,
		AssetID:         assetID,
		CustodyAddress:  custodyAddress,
		InterestRateBps: interestRateBps,
		MinDeposit:      minDeposit,
		TotalDeposited:  0,
		CreatedAt:       createdAt,
	}
}

// AddDeposited grows the running principal total, rejecting overflow so the
// total can never wrap past the asset's representable supply.
func (v *VaultDocument) AddDeposited(amount uint64) error {
	if amount > math.MaxUint64-v.TotalDeposited {
		return fmt.Errorf("vault %s total_deposited overflow: %d + %d", v.Address, v.TotalDeposited, amount)
	}
	v.TotalDeposited += amount
	return nil
}

// SubDeposited shrinks the running principal total. A subtraction below zero
// means the per-position principal bookkeeping diverged from the vault total.
func (v *VaultDocument) SubDeposited(amount uint64) error {
	if amount > v.TotalDeposited {
		return fmt.Errorf("vault %s total_deposited underflow: %d - %d", v.Address, v.TotalDeposited, amount)
	}
	v.TotalDeposited -= amount
	return nil
}
