package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccount  = errors.New("account reference must name exactly one user or store")
	ErrInvalidAmount   = errors.New("transaction amount must be positive")
	ErrAccountNotFound = errors.New("account not found")
)

type AccountKind string

const (
	AccountUser  AccountKind = "user"
	AccountStore AccountKind = "store"
)

// AccountRef points at the owner of a wallet and point counter.
type AccountRef struct {
	Kind AccountKind `json:"kind"`
	ID   string      `json:"id"`
}

func User(id string) AccountRef  { return AccountRef{Kind: AccountUser, ID: id} }
func Store(id string) AccountRef { return AccountRef{Kind: AccountStore, ID: id} }

func (a AccountRef) Validate() error {
	if a.ID == "" {
		return ErrInvalidAccount
	}
	switch a.Kind {
	case AccountUser, AccountStore:
		return nil
	default:
		return ErrInvalidAccount
	}
}

func (a AccountRef) String() string {
	return fmt.Sprintf("%s:%s", a.Kind, a.ID)
}

// Account is the live counter state owned by a user or store aggregate.
type Account struct {
	Ref    AccountRef      `json:"account"`
	Wallet decimal.Decimal `json:"e_wallet"`
	Point  int64           `json:"point"`
}

// Transaction is an immutable wallet ledger entry. IsUp marks a credit.
type Transaction struct {
	ID        string          `json:"id"`
	Account   AccountRef      `json:"account"`
	IsUp      bool            `json:"is_up"`
	Amount    decimal.Decimal `json:"amount"`
	Code      string          `json:"code,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewTransaction(account AccountRef, isUp bool, amount decimal.Decimal, orderID string, now time.Time) (Transaction, error) {
	if err := account.Validate(); err != nil {
		return Transaction{}, err
	}
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return Transaction{
		ID:        uuid.New().String(),
		Account:   account,
		IsUp:      isUp,
		Amount:    amount,
		OrderID:   orderID,
		CreatedAt: now,
	}, nil
}

// Signed returns the amount with the sign applied to the wallet counter.
func (t Transaction) Signed() decimal.Decimal {
	if t.IsUp {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Sum returns the net wallet movement described by txs.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Signed())
	}
	return total
}

// Level is a loyalty tier reached once an account's point counter hits MinPoint.
type Level struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	MinPoint int64           `json:"min_point"`
	Discount decimal.Decimal `json:"discount"`
}

// LevelFor returns the highest level whose threshold the point counter reaches.
// Negative counters are treated as zero.
func LevelFor(point int64, levels []Level) (Level, bool) {
	if len(levels) == 0 {
		return Level{}, false
	}
	if point < 0 {
		point = 0
	}

	sorted := make([]Level, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPoint < sorted[j].MinPoint })

	var (
		found Level
		ok    bool
	)
	for _, l := range sorted {
		if l.MinPoint > point {
			break
		}
		found, ok = l, true
	}
	return found, ok
}
