package costbasis

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/ledger/internal/locks"
	"github.com/rustyeddy/ledger/money"
	"github.com/rustyeddy/ledger/store"
)

// FIFO tracks acquisition lots per currency and consumes them oldest
// first. Lot.Cost is the total cost attributed to the lot's remaining
// amount, not a unit price.
type FIFO struct {
	store store.Store
	locks *locks.Keyed
}

func NewFIFO(s store.Store) *FIFO {
	return &FIFO{store: s, locks: locks.NewKeyed()}
}

// AddLot records an acquisition. Two lots of the same currency landing
// in the same millisecond are merged into one.
func (f *FIFO) AddLot(currency string, at time.Time, cost, amount decimal.Decimal) error {
	currency = normalize(currency)
	at = store.Millis(at)

	f.locks.Lock(currency)
	defer f.locks.Unlock(currency)

	lots, err := f.store.LotsByCurrency(currency)
	if err != nil {
		return fmt.Errorf("add lot %s: %w", currency, err)
	}
	for _, l := range lots {
		if l.Time.Equal(at) {
			l.Cost = l.Cost.Add(cost)
			l.Amount = l.Amount.Add(amount)
			if err := f.store.UpdateLot(l); err != nil {
				return fmt.Errorf("add lot %s: %w", currency, err)
			}
			return nil
		}
	}
	err = f.store.InsertLot(store.Lot{Currency: currency, Time: at, Cost: cost, Amount: amount})
	if err != nil {
		return fmt.Errorf("add lot %s: %w", currency, err)
	}
	return nil
}

// RemoveAmount consumes amount from the oldest lots and returns the
// consumed pieces, each carrying the cost portion attributed to the
// piece. A lot split keeps the cost proportional: taking 5 from a lot
// of 10 that cost 220 takes 110 of cost and leaves 110 behind. When
// the tracked total is short the store is left untouched and
// ErrInsufficientAmount is returned.
func (f *FIFO) RemoveAmount(currency string, amount decimal.Decimal) ([]store.Lot, error) {
	currency = normalize(currency)

	f.locks.Lock(currency)
	defer f.locks.Unlock(currency)

	lots, err := f.store.LotsByCurrency(currency)
	if err != nil {
		return nil, fmt.Errorf("remove %s: %w", currency, err)
	}

	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.Amount)
	}
	if total.LessThan(amount) {
		return nil, fmt.Errorf("remove %s %s of %s: %w",
			amount, currency, total, ErrInsufficientAmount)
	}

	var consumed []store.Lot
	need := amount
	for _, l := range lots {
		if need.Sign() <= 0 {
			break
		}
		if l.Amount.LessThanOrEqual(need) {
			if err := f.store.DeleteLot(currency, l.Time); err != nil {
				return nil, fmt.Errorf("remove %s: %w", currency, err)
			}
			consumed = append(consumed, l)
			need = need.Sub(l.Amount)
			continue
		}

		costTaken := money.Div(l.Cost.Mul(need), l.Amount)
		rest := l
		rest.Cost = l.Cost.Sub(costTaken)
		rest.Amount = l.Amount.Sub(need)
		if err := f.store.UpdateLot(rest); err != nil {
			return nil, fmt.Errorf("remove %s: %w", currency, err)
		}
		taken := l
		taken.Cost = costTaken
		taken.Amount = need
		consumed = append(consumed, taken)
		need = decimal.Zero
	}
	return consumed, nil
}

// TotalAmount sums the remaining lot amounts. An untracked currency
// totals zero.
func (f *FIFO) TotalAmount(currency string) (decimal.Decimal, error) {
	lots, err := f.store.LotsByCurrency(normalize(currency))
	if err != nil {
		return decimal.Zero, fmt.Errorf("total %s: %w", currency, err)
	}
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.Amount)
	}
	return total, nil
}

// Lots returns the open lots of a currency, oldest first.
func (f *FIFO) Lots(currency string) ([]store.Lot, error) {
	return f.store.LotsByCurrency(normalize(currency))
}

// Currencies lists every currency with at least one open lot.
func (f *FIFO) Currencies() ([]string, error) {
	return f.store.LotCurrencies()
}

// Reset drops every lot of every currency.
func (f *FIFO) Reset() error {
	return f.store.DeleteLots()
}
