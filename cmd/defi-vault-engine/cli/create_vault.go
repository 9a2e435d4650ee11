package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/internal/services"
)

// adminService builds a service backed by the configured database but with no
// event emitter. Admin commands only run operations that never publish.
func adminService(ctx context.Context) (*services.Service, error) {
	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("error while loading config file: %w", err)
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return nil, fmt.Errorf("error while creating db client: %w", err)
	}

	return services.NewService(cfg, dbClient, nil), nil
}

func CreateVaultCmd() *cobra.Command {
	var (
		authority string
		assetID   string
		rateBps   uint32
		minDep    uint64
	)

	cmd := &cobra.Command{
		Use:   "create-vault",
		Short: "Creates the vault for an asset at its derived address",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			service, err := adminService(ctx)
			if err != nil {
				return err
			}

			result, err := service.InitializeVault(ctx, &services.InitializeVaultRequest{
				Authority:       authority,
				AssetID:         assetID,
				InterestRateBps: rateBps,
				MinDeposit:      minDep,
			})
			if err != nil {
				return err
			}

			if result.Created {
				cmd.Printf("vault created at %s (custody %s)\n", result.VaultAddress, result.CustodyAddress)
			} else {
				cmd.Printf("vault already exists at %s (custody %s)\n", result.VaultAddress, result.CustodyAddress)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&authority, "authority", "", "authority identity recorded on the vault")
	cmd.Flags().StringVar(&assetID, "asset-id", "", "asset the vault pools")
	cmd.Flags().Uint32Var(&rateBps, "rate-bps", 0, "annual simple interest rate in basis points")
	cmd.Flags().Uint64Var(&minDep, "min-deposit", 0, "minimum accepted deposit in base units")
	_ = cmd.MarkFlagRequired("authority")
	_ = cmd.MarkFlagRequired("asset-id")
	_ = cmd.MarkFlagRequired("min-deposit")

	return cmd
}
