package order

import (
	"github.com/shopspring/decimal"

	"github.com/vobaolong/shopify-be-sub001/internal/domain/ledger"
)

// PointIntent adds Delta to an account's loyalty point counter.
type PointIntent struct {
	Account ledger.AccountRef
	Delta   int64
}

// WalletIntent records one Transaction and moves the account's e-wallet by
// +Amount when IsUp, -Amount otherwise.
type WalletIntent struct {
	Account ledger.AccountRef
	IsUp    bool
	Amount  decimal.Decimal
}

// InventoryEffect says how order items move product stock.
type InventoryEffect int

const (
	InventoryNone InventoryEffect = iota
	// InventoryConsume: quantity -= count, sold += count.
	InventoryConsume
	// InventoryRestock: quantity += count, sold -= count.
	InventoryRestock
)

// Intents are the ledger and inventory side effects of one accepted change.
// They are data only; the reconcile package applies them.
type Intents struct {
	Points    []PointIntent
	Wallet    []WalletIntent
	Inventory InventoryEffect
}

func (i Intents) Empty() bool {
	return len(i.Points) == 0 && len(i.Wallet) == 0 && i.Inventory == InventoryNone
}

func cancellationIntents(o *Order) Intents {
	in := Intents{
		Points: []PointIntent{
			{Account: ledger.User(o.BuyerID), Delta: -1},
			{Account: ledger.Store(o.StoreID), Delta: -1},
		},
	}
	if o.IsPaidBefore {
		in.Wallet = append(in.Wallet, WalletIntent{
			Account: ledger.User(o.BuyerID),
			IsUp:    true,
			Amount:  o.AmountFromUser,
		})
	}
	return in
}

// deliveryIntents credits the store only for prepaid orders. Pay-on-delivery
// orders are settled with the store offline.
func deliveryIntents(o *Order) Intents {
	in := Intents{
		Points: []PointIntent{
			{Account: ledger.User(o.BuyerID), Delta: 1},
			{Account: ledger.Store(o.StoreID), Delta: 1},
		},
		Inventory: InventoryConsume,
	}
	if o.IsPaidBefore {
		in.Wallet = append(in.Wallet, WalletIntent{
			Account: ledger.Store(o.StoreID),
			IsUp:    true,
			Amount:  o.AmountToStore,
		})
	}
	return in
}

// returnIntents reverses a delivery: stock goes back, the store gives up the
// order revenue and the buyer is refunded.
func returnIntents(o *Order) Intents {
	return Intents{
		Inventory: InventoryRestock,
		Wallet: []WalletIntent{
			{
				Account: ledger.Store(o.StoreID),
				IsUp:    false,
				Amount:  o.AmountToStore.Add(o.AmountFromStore),
			},
			{
				Account: ledger.User(o.BuyerID),
				IsUp:    true,
				Amount:  o.AmountFromUser,
			},
		},
		Points: []PointIntent{
			{Account: ledger.Store(o.StoreID), Delta: -1},
			{Account: ledger.User(o.BuyerID), Delta: -1},
		},
	}
}
