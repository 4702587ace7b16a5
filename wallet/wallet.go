// Package wallet holds per-currency balances. It is pure bookkeeping:
// money enters through Credit and leaves through Debit, and a balance
// can never go negative.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/ledger/internal/locks"
	"github.com/rustyeddy/ledger/store"
)

var (
	// ErrInvalidAmount reports a negative credit or debit amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds reports a debit larger than the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Wallet reads and writes balances through the store. Currency codes
// are case-insensitive and kept uppercase.
type Wallet struct {
	store store.Store
	locks *locks.Keyed
}

func New(s store.Store) *Wallet {
	return &Wallet{store: s, locks: locks.NewKeyed()}
}

// Balance returns the currency's balance. A currency that has never
// been credited fails with store.ErrNotFound.
func (w *Wallet) Balance(currency string) (decimal.Decimal, error) {
	bal, err := w.store.GetBalance(normalize(currency))
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance %s: %w", currency, err)
	}
	return bal, nil
}

// Balances returns every known currency and its balance.
func (w *Wallet) Balances() (map[string]decimal.Decimal, error) {
	return w.store.Balances()
}

// Credit adds amount to the currency's balance and returns the new
// balance. The first credit creates the entry.
func (w *Wallet) Credit(currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("credit %s %s: %w", amount, currency, ErrInvalidAmount)
	}
	currency = normalize(currency)

	w.locks.Lock(currency)
	defer w.locks.Unlock(currency)

	bal, err := w.balance(currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit %s: %w", currency, err)
	}
	bal = bal.Add(amount)
	if err := w.store.SetBalance(currency, bal); err != nil {
		return decimal.Zero, fmt.Errorf("credit %s: %w", currency, err)
	}
	return bal, nil
}

// Debit subtracts amount from the currency's balance and returns the
// new balance. A debit beyond the balance fails with
// ErrInsufficientFunds and writes nothing; a zero debit of an unknown
// currency returns zero without creating an entry.
func (w *Wallet) Debit(currency string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("debit %s %s: %w", amount, currency, ErrInvalidAmount)
	}
	currency = normalize(currency)

	w.locks.Lock(currency)
	defer w.locks.Unlock(currency)

	bal, err := w.store.GetBalance(currency)
	if errors.Is(err, store.ErrNotFound) {
		if amount.IsZero() {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("debit %s %s of 0: %w", amount, currency, ErrInsufficientFunds)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("debit %s: %w", currency, err)
	}
	if bal.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("debit %s %s of %s: %w",
			amount, currency, bal, ErrInsufficientFunds)
	}
	bal = bal.Sub(amount)
	if err := w.store.SetBalance(currency, bal); err != nil {
		return decimal.Zero, fmt.Errorf("debit %s: %w", currency, err)
	}
	return bal, nil
}

// Reset drops every balance.
func (w *Wallet) Reset() error {
	return w.store.DeleteBalances()
}

func (w *Wallet) balance(currency string) (decimal.Decimal, error) {
	bal, err := w.store.GetBalance(currency)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, nil
	}
	return bal, err
}

func normalize(currency string) string {
	return strings.ToUpper(currency)
}
