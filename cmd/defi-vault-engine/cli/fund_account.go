package cli

import (
	"github.com/spf13/cobra"
)

func FundAccountCmd() *cobra.Command {
	var (
		assetID string
		owner   string
		amount  uint64
	)

	cmd := &cobra.Command{
		Use:   "fund-account",
		Short: "Credits a token account, or the vault custody when no owner is given",
		Long: "Credits freshly minted base units to a depositor's token account for the " +
			"given asset. When --owner is omitted the vault custody account is credited " +
			"instead, which is how interest payouts are subsidized on devnet.",
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			service, err := adminService(ctx)
			if err != nil {
				return err
			}

			var address string
			if owner == "" {
				address, err = service.FundVaultCustody(ctx, assetID, amount)
			} else {
				address, err = service.FundTokenAccount(ctx, assetID, owner, amount)
			}
			if err != nil {
				return err
			}

			cmd.Printf("credited %d to %s\n", amount, address)
			return nil
		},
	}

	cmd.Flags().StringVar(&assetID, "asset-id", "", "asset to mint")
	cmd.Flags().StringVar(&owner, "owner", "", "token account owner; empty targets the vault custody")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to credit in base units")
	_ = cmd.MarkFlagRequired("asset-id")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
