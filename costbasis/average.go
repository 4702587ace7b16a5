package costbasis

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/ledger/internal/locks"
	"github.com/rustyeddy/ledger/money"
	"github.com/rustyeddy/ledger/store"
)

// Average tracks one weighted-average record per currency. Unlike a
// FIFO lot, the record's Cost is a unit price: each acquisition blends
// into it weighted by amount, and removals change only the quantity.
type Average struct {
	store store.Store
	locks *locks.Keyed
}

func NewAverage(s store.Store) *Average {
	return &Average{store: s, locks: locks.NewKeyed()}
}

// Add blends an acquisition of amount units at the given unit cost
// into the currency's record, creating the record on first sight.
func (a *Average) Add(currency string, amount, cost decimal.Decimal) error {
	currency = normalize(currency)

	a.locks.Lock(currency)
	defer a.locks.Unlock(currency)

	rec, err := a.store.GetAverage(currency)
	if errors.Is(err, store.ErrNotFound) {
		err = a.store.InsertAverage(store.Average{Currency: currency, Cost: cost, Amount: amount})
		if err != nil {
			return fmt.Errorf("average add %s: %w", currency, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("average add %s: %w", currency, err)
	}

	newAmount := rec.Amount.Add(amount)
	rec.Cost = money.Div(rec.Cost.Mul(rec.Amount).Add(cost.Mul(amount)), newAmount)
	rec.Amount = newAmount
	if err := a.store.UpdateAverage(rec); err != nil {
		return fmt.Errorf("average add %s: %w", currency, err)
	}
	return nil
}

// Remove takes amount units out of the record and returns the removed
// portion: the unit cost at removal time and the amount taken. The
// unit cost is unchanged by removal; the record is deleted when the
// quantity reaches exactly zero. Removing more than is tracked fails
// with ErrInsufficientAmount.
func (a *Average) Remove(currency string, amount decimal.Decimal) (store.Average, error) {
	currency = normalize(currency)

	a.locks.Lock(currency)
	defer a.locks.Unlock(currency)

	rec, err := a.store.GetAverage(currency)
	if errors.Is(err, store.ErrNotFound) {
		return store.Average{}, fmt.Errorf("average remove %s %s of 0: %w", amount, currency, ErrInsufficientAmount)
	}
	if err != nil {
		return store.Average{}, fmt.Errorf("average remove %s: %w", currency, err)
	}
	if rec.Amount.LessThan(amount) {
		return store.Average{}, fmt.Errorf("average remove %s %s of %s: %w",
			amount, currency, rec.Amount, ErrInsufficientAmount)
	}

	removed := store.Average{Currency: currency, Cost: rec.Cost, Amount: amount}
	rec.Amount = rec.Amount.Sub(amount)
	if rec.Amount.IsZero() {
		if err := a.store.DeleteAverage(currency); err != nil {
			return store.Average{}, fmt.Errorf("average remove %s: %w", currency, err)
		}
		return removed, nil
	}
	if err := a.store.UpdateAverage(rec); err != nil {
		return store.Average{}, fmt.Errorf("average remove %s: %w", currency, err)
	}
	return removed, nil
}

// Record returns the currency's average record. An untracked currency
// yields a zero record, not an error.
func (a *Average) Record(currency string) (store.Average, error) {
	rec, err := a.store.GetAverage(normalize(currency))
	if errors.Is(err, store.ErrNotFound) {
		return store.Average{Currency: normalize(currency)}, nil
	}
	if err != nil {
		return store.Average{}, fmt.Errorf("average %s: %w", currency, err)
	}
	return rec, nil
}

// TotalAmount reports the tracked quantity, zero when untracked.
func (a *Average) TotalAmount(currency string) (decimal.Decimal, error) {
	rec, err := a.Record(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return rec.Amount, nil
}

// Currencies lists every currency with a live record.
func (a *Average) Currencies() ([]string, error) {
	return a.store.AverageCurrencies()
}

// Reset drops every average record.
func (a *Average) Reset() error {
	return a.store.DeleteAverages()
}
