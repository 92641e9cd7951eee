package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vobaolong/shopify-be-sub001/internal/query"
)

var errDrift = errors.New("wallet does not match transaction log")

func (a *app) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare an account's wallet with its transaction log",
		Long: `Compare the stored e-wallet balance of one account with the signed sum
of its transactions. Exits non-zero when they differ.

Examples:
  ledgerctl audit --user 6f1c...
  ledgerctl audit --store 91ab...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := accountFromFlags(cmd)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := query.NewHandler(s).AuditAccount(cmd.Context(), ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account:  %s\n", res.Account)
			fmt.Fprintf(out, "Wallet:   %s\n", res.Wallet.StringFixed(2))
			fmt.Fprintf(out, "Log sum:  %s\n", res.LogSum.StringFixed(2))
			if !res.Balanced {
				fmt.Fprintf(out, "Drift:    %s\n", res.Drift.StringFixed(2))
				return fmt.Errorf("%w: %s", errDrift, res.Account)
			}
			fmt.Fprintln(out, "Status:   balanced")
			return nil
		},
	}

	accountFlags(cmd)
	return cmd
}
