package db

import (
	"context"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	SaveNewVault(ctx context.Context, vaultDoc *model.VaultDocument) error
	GetVault(ctx context.Context, address string) (*model.VaultDocument, error)
	GetVaults(ctx context.Context) ([]model.VaultDocument, error)
	IncVaultTotalDeposited(ctx context.Context, address string, amount uint64) (uint64, error)
	DecVaultTotalDeposited(ctx context.Context, address string, amount uint64) (uint64, error)

	SaveNewPosition(ctx context.Context, positionDoc *model.PositionDocument) error
	GetPosition(ctx context.Context, address string) (*model.PositionDocument, error)
	UpdatePositionCheckpoint(ctx context.Context, prev, updated *model.PositionDocument) error
	GetPositionsByVault(ctx context.Context, vaultAddress string) ([]model.PositionDocument, error)

	GetTokenAccount(ctx context.Context, address string) (*model.TokenAccountDocument, error)
	CreditTokenAccount(ctx context.Context, account *model.TokenAccountDocument, amount uint64) error
	DebitTokenAccount(ctx context.Context, address string, amount uint64) error
}
