package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vobaolong/shopify-be-sub001/internal/auth"
)

// tokenCmd mints access tokens for operators and local testing. Login is
// handled by the user service, not here.
func (a *app) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		Example: `  ledgerctl token --user admin-1 --role admin
  ledgerctl token --user staff-7 --role store --store store-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			storeIDs, _ := cmd.Flags().GetStringSlice("store")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			switch role {
			case auth.RoleBuyer, auth.RoleAdmin:
			case auth.RoleStore:
				if len(storeIDs) == 0 {
					return fmt.Errorf("--store is required for role %q", role)
				}
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			if err := cfg.RequireJWTSecret(); err != nil {
				return err
			}

			token, expiresAt, err := auth.NewJWTService(cfg.JWTSecret, ttl).GenerateAccessToken(userID, email, role, storeIDs...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().String("user", "", "Subject user ID")
	cmd.Flags().String("email", "", "Email claim")
	cmd.Flags().String("role", auth.RoleBuyer, "buyer, store or admin")
	cmd.Flags().StringSlice("store", nil, "Store IDs the token may manage")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
