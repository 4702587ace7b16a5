// Package store is the persistence boundary of the ledger engine. It
// owns the record types and offers two interchangeable backends: a
// SQLite file and an in-memory map store. The accounting components
// above it hold no state of their own; every read goes back to the
// store, and both backends behave identically.
package store

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound reports a missing order, lot or currency record. Callers
// branch on it with errors.Is; any other error is a backend failure.
var ErrNotFound = errors.New("record not found")

// Side of an executed order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is one executed trade. Orders never change after Append except
// through an explicit ledger amendment.
type Order struct {
	ID       int64
	Time     time.Time
	Side     Side
	Currency string
	Amount   decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	Tax      decimal.Decimal
}

// Lot is one FIFO acquisition batch: the amount still unconsumed and
// the cost attributed to that amount.
type Lot struct {
	Currency string
	Time     time.Time
	Cost     decimal.Decimal
	Amount   decimal.Decimal
}

// Average is the single weighted-average cost record of a currency.
type Average struct {
	Currency string
	Cost     decimal.Decimal
	Amount   decimal.Decimal
}

// Store is the keyed persistence capability consumed by the ledger
// components. Implementations must round-trip decimals exactly and
// keep timestamps at millisecond precision in UTC.
type Store interface {
	// Orders.
	InsertOrder(o Order) error
	UpdateOrder(o Order) error
	GetOrder(id int64) (Order, error)
	Orders() ([]Order, error)    // id ascending
	MaxOrderID() (int64, error)  // 0 when the table is empty
	DeleteOrders() error

	// FIFO lots. Lots are keyed by (currency, acquisition time).
	InsertLot(l Lot) error
	UpdateLot(l Lot) error
	DeleteLot(currency string, at time.Time) error
	LotsByCurrency(currency string) ([]Lot, error) // acquisition time ascending; empty when none
	LotCurrencies() ([]string, error)
	DeleteLots() error

	// Average cost records, keyed by currency.
	InsertAverage(a Average) error
	UpdateAverage(a Average) error
	GetAverage(currency string) (Average, error)
	DeleteAverage(currency string) error
	AverageCurrencies() ([]string, error)
	DeleteAverages() error

	// Wallet entries, keyed by currency.
	GetBalance(currency string) (decimal.Decimal, error)
	SetBalance(currency string, balance decimal.Decimal) error // insert or update
	Balances() (map[string]decimal.Decimal, error)
	DeleteBalances() error

	Close() error
}

// Millis normalizes a timestamp to the store's precision: UTC,
// truncated to the millisecond.
func Millis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
