package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/cart"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
	"github.com/vobaolong/shopify-be-sub001/internal/domain/order"
	"github.com/vobaolong/shopify-be-sub001/internal/infrastructure/store"
)

// Product is the inventory state of one product.
type Product struct {
	ID       string
	StoreID  string
	Quantity int
	Sold     int
}

type account struct {
	name   string
	email  string
	wallet decimal.Decimal
	point  int64
}

type state struct {
	carts        map[string]cart.Cart
	orders       map[string]order.Order
	items        map[string][]order.Item
	users        map[string]account
	stores       map[string]account
	products     map[string]Product
	transactions []ledger.Transaction
	events       []store.Event
}

func newState() *state {
	return &state{
		carts:    make(map[string]cart.Cart),
		orders:   make(map[string]order.Order),
		items:    make(map[string][]order.Item),
		users:    make(map[string]account),
		stores:   make(map[string]account),
		products: make(map[string]Product),
	}
}

// clone copies everything a transaction can touch so it can be discarded
// on rollback.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.carts {
		v.Items = append([]cart.Item(nil), v.Items...)
		c.carts[k] = v
	}
	for k, v := range s.orders {
		if v.ReturnRequest != nil {
			rr := *v.ReturnRequest
			v.ReturnRequest = &rr
		}
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]order.Item(nil), v...)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.stores {
		c.stores[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	c.transactions = append([]ledger.Transaction(nil), s.transactions...)
	c.events = append([]store.Event(nil), s.events...)
	return c
}

// MockStore is an in-memory implementation of store.Store for testing.
// Transactions are serialized and work on a copy that replaces the
// committed state only when fn succeeds.
type MockStore struct {
	mu     sync.Mutex
	state  *state
	levels []ledger.Level

	// For tracking calls in tests
	WithTxCalls      int
	Commits          int
	AppendEventCalls []AppendEventCall
	WalletCalls      []WalletCall
	InventoryCalls   []InventoryCall

	// Errors returned by the matching Tx method when set
	BeginErr               error
	CompareAndSetStatusErr error
	SaveReturnRequestErr   error
	IncrementPointErr      error
	IncrementWalletErr     error
	AppendTransactionErr   error
	AdjustInventoryErr     error
	AppendEventErr         error
	MarkPublishedErr       error

	// TransientFailures makes the next N commits fail with store.ErrTransient.
	TransientFailures int
	// BeforeCommit runs inside the transaction after fn succeeds.
	BeforeCommit func()
}

// AppendEventCall records parameters passed to AppendEvent
type AppendEventCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

// WalletCall records parameters passed to IncrementWallet
type WalletCall struct {
	Account ledger.AccountRef
	Delta   decimal.Decimal
}

// InventoryCall records parameters passed to AdjustInventory
type InventoryCall struct {
	ProductID     string
	QuantityDelta int
	SoldDelta     int
}

func NewMockStore() *MockStore {
	return &MockStore{state: newState()}
}

var _ store.Store = (*MockStore)(nil)

// ============================================
// Seeding and inspection
// ============================================

func (m *MockStore) AddUser(id, name, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.users[id] = account{name: name, email: email}
}

func (m *MockStore) AddStore(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.stores[id] = account{}
}

func (m *MockStore) AddProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.products[p.ID] = p
}

func (m *MockStore) AddCart(c cart.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.carts[c.ID] = c
}

func (m *MockStore) AddLevel(l ledger.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels = append(m.levels, l)
}

// SetOrder stores an order and its items directly, bypassing CreateOrder.
func (m *MockStore) SetOrder(o order.Order, items []order.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.orders[o.ID] = o
	m.state.items[o.ID] = items
}

// SetWallet overwrites an account's wallet counter without logging a
// transaction, to simulate drift in audit tests.
func (m *MockStore) SetWallet(ref ledger.AccountRef, wallet decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := m.state.accounts(ref)
	a := accounts[ref.ID]
	a.wallet = wallet
	accounts[ref.ID] = a
}

func (m *MockStore) Account(ref ledger.AccountRef) ledger.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.state.accounts(ref)[ref.ID]
	return ledger.Account{Ref: ref, Wallet: a.wallet, Point: a.point}
}

func (m *MockStore) Product(id string) Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.products[id]
}

func (m *MockStore) Cart(id string) (cart.Cart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.carts[id]
	return c, ok
}

func (m *MockStore) Transactions() []ledger.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledger.Transaction(nil), m.state.transactions...)
}

func (m *MockStore) Events() []store.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Event(nil), m.state.events...)
}

// Reset clears recorded calls and injected errors, keeping the data.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WithTxCalls, m.Commits = 0, 0
	m.AppendEventCalls = nil
	m.WalletCalls = nil
	m.InventoryCalls = nil
	m.BeginErr = nil
	m.CompareAndSetStatusErr = nil
	m.SaveReturnRequestErr = nil
	m.IncrementPointErr = nil
	m.IncrementWalletErr = nil
	m.AppendTransactionErr = nil
	m.AdjustInventoryErr = nil
	m.AppendEventErr = nil
	m.MarkPublishedErr = nil
	m.TransientFailures = 0
	m.BeforeCommit = nil
}

func (s *state) accounts(ref ledger.AccountRef) map[string]account {
	if ref.Kind == ledger.AccountStore {
		return s.stores
	}
	return s.users
}

// ============================================
// store.Store
// ============================================

func (m *MockStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WithTxCalls++
	if m.BeginErr != nil {
		return m.BeginErr
	}

	tx := &mockTx{m: m, st: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if m.BeforeCommit != nil {
		m.BeforeCommit()
	}
	if m.TransientFailures > 0 {
		m.TransientFailures--
		return fmt.Errorf("%w: simulated serialization failure", store.ErrTransient)
	}

	m.state = tx.st
	m.Commits++
	return nil
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return getOrder(m.state, orderID)
}

func (m *MockStore) ListOrderItems(ctx context.Context, orderID string) ([]order.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]order.Item(nil), m.state.items[orderID]...), nil
}

func (m *MockStore) ListOrders(ctx context.Context, f store.OrderFilter) ([]order.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []order.Order
	for _, o := range m.state.orders {
		if f.BuyerID != "" && o.BuyerID != f.BuyerID {
			continue
		}
		if f.StoreID != "" && o.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (m *MockStore) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]ledger.Transaction, int, error) {
	if err := f.Account.Validate(); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []ledger.Transaction
	for _, t := range m.state.transactions {
		if t.Account != f.Account {
			continue
		}
		if f.IsUp != nil && t.IsUp != *f.IsUp {
			continue
		}
		if f.OrderID != "" && t.OrderID != f.OrderID {
			continue
		}
		if !f.Since.IsZero() && t.CreatedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !t.CreatedAt.Before(f.Until) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (m *MockStore) SumTransactions(ctx context.Context, ref ledger.AccountRef) (decimal.Decimal, error) {
	if err := ref.Validate(); err != nil {
		return decimal.Zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var own []ledger.Transaction
	for _, t := range m.state.transactions {
		if t.Account == ref {
			own = append(own, t)
		}
	}
	return ledger.Sum(own), nil
}

func (m *MockStore) GetAccount(ctx context.Context, ref ledger.AccountRef) (*ledger.Account, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.state.accounts(ref)[ref.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, ref)
	}
	return &ledger.Account{Ref: ref, Wallet: a.wallet, Point: a.point}, nil
}

func (m *MockStore) ListLevels(ctx context.Context) ([]ledger.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := append([]ledger.Level(nil), m.levels...)
	sort.Slice(levels, func(i, j int) bool { return levels[i].MinPoint < levels[j].MinPoint })
	return levels, nil
}

func (m *MockStore) GetContact(ctx context.Context, userID string) (*store.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, ledger.User(userID))
	}
	return &store.Contact{UserID: userID, Name: a.name, Email: a.email}, nil
}

func getOrder(s *state, orderID string) (*order.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	if o.ReturnRequest != nil {
		rr := *o.ReturnRequest
		o.ReturnRequest = &rr
	}
	return &o, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
