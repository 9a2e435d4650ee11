package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func AuditVaultCmd() *cobra.Command {
	var assetID string

	cmd := &cobra.Command{
		Use:   "audit-vault",
		Short: "Checks that a vault's running total matches the sum of its position principals",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			service, err := adminService(ctx)
			if err != nil {
				return err
			}

			report, err := service.CheckVaultInvariant(ctx, assetID)
			if err != nil {
				return err
			}

			cmd.Printf(
				"vault %s: total_deposited=%d principal_sum=%d positions=%d\n",
				report.VaultAddress, report.TotalDeposited, report.PrincipalSum, report.Positions,
			)
			if !report.Consistent {
				return fmt.Errorf("vault %s is inconsistent", report.VaultAddress)
			}

			cmd.Println("consistent")
			return nil
		},
	}

	cmd.Flags().StringVar(&assetID, "asset-id", "", "asset whose vault to audit")
	_ = cmd.MarkFlagRequired("asset-id")

	return cmd
}
