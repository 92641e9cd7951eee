package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vobaolong/shopify-be-sub001/internal/config"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is shared by every subcommand. Configuration is loaded lazily so
// --help works without a database.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the marketplace order and ledger database",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(a.migrateCmd())
	rootCmd.AddCommand(a.auditCmd())
	rootCmd.AddCommand(a.transactionsCmd())
	rootCmd.AddCommand(a.tokenCmd())
	return rootCmd
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) openStore() (*store.SQLStore, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s, nil
}

// accountFlags registers --user and --store on cmd.
func accountFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "User account ID")
	cmd.Flags().String("store", "", "Store account ID")
	cmd.MarkFlagsMutuallyExclusive("user", "store")
	cmd.MarkFlagsOneRequired("user", "store")
}

func accountFromFlags(cmd *cobra.Command) (ledger.AccountRef, error) {
	userID, _ := cmd.Flags().GetString("user")
	storeID, _ := cmd.Flags().GetString("store")
	var ref ledger.AccountRef
	if userID != "" {
		ref = ledger.User(userID)
	} else {
		ref = ledger.Store(storeID)
	}
	return ref, ref.Validate()
}
