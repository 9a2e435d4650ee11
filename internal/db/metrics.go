package db

import (
	"context"
	"time"

	"github.com/vaultlabs-io/defi-vault-engine/internal/db/model"
	"github.com/vaultlabs-io/defi-vault-engine/internal/observability/metrics"
)

// DbWithMetrics decorates a DbInterface with latency/outcome observations
// per storage method.
type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	start := time.Now()
	err := f()
	metrics.RecordDbLatency(time.Since(start), method, err != nil)
	return err
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveNewVault(ctx context.Context, vaultDoc *model.VaultDocument) error {
	return d.run("SaveNewVault", func() error {
		return d.db.SaveNewVault(ctx, vaultDoc)
	})
}

func (d *DbWithMetrics) GetVault(ctx context.Context, address string) (result *model.VaultDocument, err error) {
	//nolint:errcheck
	d.run("GetVault", func() error {
		result, err = d.db.GetVault(ctx, address)
		return err
	})
	return
}

func (d *DbWithMetrics) GetVaults(ctx context.Context) (result []model.VaultDocument, err error) {
	//nolint:errcheck
	d.run("GetVaults", func() error {
		result, err = d.db.GetVaults(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) IncVaultTotalDeposited(ctx context.Context, address string, amount uint64) (total uint64, err error) {
	//nolint:errcheck
	d.run("IncVaultTotalDeposited", func() error {
		total, err = d.db.IncVaultTotalDeposited(ctx, address, amount)
		return err
	})
	return
}

func (d *DbWithMetrics) DecVaultTotalDeposited(ctx context.Context, address string, amount uint64) (total uint64, err error) {
	//nolint:errcheck
	d.run("DecVaultTotalDeposited", func() error {
		total, err = d.db.DecVaultTotalDeposited(ctx, address, amount)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveNewPosition(ctx context.Context, positionDoc *model.PositionDocument) error {
	return d.run("SaveNewPosition", func() error {
		return d.db.SaveNewPosition(ctx, positionDoc)
	})
}

func (d *DbWithMetrics) GetPosition(ctx context.Context, address string) (result *model.PositionDocument, err error) {
	//nolint:errcheck
	d.run("GetPosition", func() error {
		result, err = d.db.GetPosition(ctx, address)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdatePositionCheckpoint(ctx context.Context, prev, updated *model.PositionDocument) error {
	return d.run("UpdatePositionCheckpoint", func() error {
		return d.db.UpdatePositionCheckpoint(ctx, prev, updated)
	})
}

func (d *DbWithMetrics) GetPositionsByVault(ctx context.Context, vaultAddress string) (result []model.PositionDocument, err error) {
	//nolint:errcheck
	d.run("GetPositionsByVault", func() error {
		result, err = d.db.GetPositionsByVault(ctx, vaultAddress)
		return err
	})
	return
}

func (d *DbWithMetrics) GetTokenAccount(ctx context.Context, address string) (result *model.TokenAccountDocument, err error) {
	//nolint:errcheck
	d.run("GetTokenAccount", func() error {
		result, err = d.db.GetTokenAccount(ctx, address)
		return err
	})
	return
}

func (d *DbWithMetrics) CreditTokenAccount(ctx context.Context, account *model.TokenAccountDocument, amount uint64) error {
	return d.run("CreditTokenAccount", func() error {
		return d.db.CreditTokenAccount(ctx, account, amount)
	})
}

func (d *DbWithMetrics) DebitTokenAccount(ctx context.Context, address string, amount uint64) error {
	return d.run("DebitTokenAccount", func() error {
		return d.db.DebitTokenAccount(ctx, address, amount)
	})
}
