package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRef_Validate(t *testing.T) {
	assert.NoError(t, User("user-1").Validate())
	assert.NoError(t, Store("store-1").Validate())
	assert.ErrorIs(t, User("").Validate(), ErrInvalidAccount)
	assert.ErrorIs(t, AccountRef{Kind: "bank", ID: "x"}.Validate(), ErrInvalidAccount)
}

func TestNewTransaction_Success(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tx, err := NewTransaction(User("user-1"), true, decimal.NewFromInt(100000), "order-1", now)

	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, User("user-1"), tx.Account)
	assert.True(t, tx.IsUp)
	assert.True(t, decimal.NewFromInt(100000).Equal(tx.Amount))
	assert.Equal(t, "order-1", tx.OrderID)
	assert.Equal(t, now, tx.CreatedAt)
}

func TestNewTransaction_RejectsNonPositiveAmount(t *testing.T) {
	_, err := NewTransaction(Store("store-1"), false, decimal.Zero, "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewTransaction(Store("store-1"), false, decimal.NewFromInt(-5), "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNewTransaction_RejectsInvalidAccount(t *testing.T) {
	_, err := NewTransaction(AccountRef{}, true, decimal.NewFromInt(1), "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestSum(t *testing.T) {
	txs := []Transaction{
		{IsUp: true, Amount: decimal.NewFromInt(100000)},
		{IsUp: false, Amount: decimal.NewFromInt(90000)},
		{IsUp: true, Amount: decimal.RequireFromString("0.50")},
	}

	assert.True(t, decimal.RequireFromString("10000.50").Equal(Sum(txs)))
	assert.True(t, decimal.Zero.Equal(Sum(nil)))
}

func TestLevelFor(t *testing.T) {
	levels := []Level{
		{Name: "Gold", MinPoint: 100},
		{Name: "Bronze", MinPoint: 0},
		{Name: "Silver", MinPoint: 20},
	}

	tests := []struct {
		name  string
		point int64
		want  string
	}{
		{"negative clamps to lowest", -3, "Bronze"},
		{"zero", 0, "Bronze"},
		{"just below silver", 19, "Bronze"},
		{"exactly silver", 20, "Silver"},
		{"above gold", 500, "Gold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := LevelFor(tt.point, levels)
			require.True(t, ok)
			assert.Equal(t, tt.want, level.Name)
		})
	}
}

func TestLevelFor_NoLevels(t *testing.T) {
	_, ok := LevelFor(10, nil)
	assert.False(t, ok)
}
