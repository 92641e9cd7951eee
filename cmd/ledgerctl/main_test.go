package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vobaolong/shopify-be-sub001/internal/auth"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

const testSecret = "ledgerctl-test-secret-at-least-32-chars"

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_DRIVER", store.DriverSQLite)
	t.Setenv("DATABASE_URL", path)
	t.Setenv("JWT_SECRET", testSecret)
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// seedLedger credits buyer-1 twice, keeping wallet and log in step.
func seedLedger(t *testing.T, path string) {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.DB().Exec(`INSERT INTO users (id, name, email) VALUES ('buyer-1', 'Buyer One', 'buyer@example.com')`)
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err = s.WithTx(ctx, func(tx store.Tx) error {
		for i, amount := range []int64{1500, 2500} {
			tr, err := ledger.NewTransaction(ledger.User("buyer-1"), true, decimal.NewFromInt(amount), "order-1", now.Add(time.Duration(i)*time.Minute))
			if err != nil {
				return err
			}
			if err := tx.AppendTransaction(ctx, tr); err != nil {
				return err
			}
			if err := tx.IncrementWallet(ctx, tr.Account, tr.Signed()); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func corruptWallet(t *testing.T, path string) {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.DB().Exec(`UPDATE users SET e_wallet = 10 WHERE id = 'buyer-1'`)
	require.NoError(t, err)
}

// ============================================
// migrate / audit / transactions
// ============================================

func TestLedgerctl_MigrateAuditTransactions(t *testing.T) {
	path := setupEnv(t)

	out, _, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema up to date (sqlite3)")

	// Running twice is harmless.
	_, _, err = run(t, "migrate")
	require.NoError(t, err)

	seedLedger(t, path)

	out, _, err = run(t, "audit", "--user", "buyer-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Wallet:   4000.00")
	assert.Contains(t, out, "Status:   balanced")

	out, _, err = run(t, "transactions", "--user", "buyer-1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "DIRECTION")
	assert.Contains(t, lines[1], "2500.00", "newest first")
	assert.Equal(t, "2 of 2 transactions", lines[3])

	out, _, err = run(t, "transactions", "--user", "buyer-1", "--json", "--limit", "1")
	require.NoError(t, err)
	var page struct {
		Items []ledger.Transaction `json:"items"`
		Total int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(2500)))

	corruptWallet(t, path)
	out, _, err = run(t, "audit", "--user", "buyer-1")
	assert.ErrorIs(t, err, errDrift)
	assert.Contains(t, out, "Drift:    -3990.00")
}

func TestLedgerctl_AccountFlags(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"neither", []string{"audit"}},
		{"both", []string{"audit", "--user", "u", "--store", "s"}},
		{"transactions neither", []string{"transactions"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

// ============================================
// token
// ============================================

func TestLedgerctl_Token(t *testing.T) {
	setupEnv(t)

	out, stderr, err := run(t, "token", "--user", "staff-1", "--role", "store", "--store", "store-1,store-2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "expires")

	claims, err := auth.NewJWTService(testSecret, time.Hour).ValidateAccessToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.UserID)
	assert.Equal(t, auth.RoleStore, claims.Role)
	assert.True(t, claims.ManagesStore("store-2"))
}

func TestLedgerctl_Token_Errors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing user", []string{"token", "--role", "admin"}},
		{"unknown role", []string{"token", "--user", "u", "--role", "owner"}},
		{"store without ids", []string{"token", "--user", "u", "--role", "store"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}

	t.Run("short secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")
		_, _, err := run(t, "token", "--user", "u", "--role", "admin")
		assert.Error(t, err)
	})
}
