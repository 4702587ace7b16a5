// Package ledger is the append-only order book. Every order gets a
// Verhoeff-checksummed id derived from the highest id already stored,
// so the sequence survives restarts and the ids self-validate.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/ledger/orderid"
	"github.com/rustyeddy/ledger/store"
)

// Ledger appends and amends orders. Appends serialize on one mutex so
// the max-id read and the insert cannot interleave across goroutines.
type Ledger struct {
	mu    sync.Mutex
	store store.Store
}

func New(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// Append stores a new order, assigning the next id in the sequence.
// The order's ID field is ignored on the way in. A failed insert does
// not consume the id; the next Append recomputes it from the store.
func (l *Ledger) Append(o store.Order) (store.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, err := l.store.MaxOrderID()
	if err != nil {
		return store.Order{}, fmt.Errorf("append: %w", err)
	}
	id, err := orderid.Generate(last)
	if err != nil {
		return store.Order{}, fmt.Errorf("append: %w", err)
	}
	o.ID = id
	o.Time = store.Millis(o.Time)
	if err := l.store.InsertOrder(o); err != nil {
		return store.Order{}, fmt.Errorf("append order %d: %w", id, err)
	}
	return o, nil
}

// Get returns the order with the given id.
func (l *Ledger) Get(id int64) (store.Order, error) {
	return l.store.GetOrder(id)
}

// Orders returns every order, id ascending.
func (l *Ledger) Orders() ([]store.Order, error) {
	return l.store.Orders()
}

// Patch selects the order fields an amendment replaces. Nil fields
// keep their stored value.
type Patch struct {
	Time     *time.Time
	Side     *store.Side
	Currency *string
	Amount   *decimal.Decimal
	Price    *decimal.Decimal
	Fee      *decimal.Decimal
	Tax      *decimal.Decimal
}

// Amend overwrites the selected fields of a stored order and returns
// the order as it was before the change. The id itself never changes.
func (l *Ledger) Amend(id int64, p Patch) (store.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, err := l.store.GetOrder(id)
	if err != nil {
		return store.Order{}, fmt.Errorf("amend order %d: %w", id, err)
	}

	next := prev
	if p.Time != nil {
		next.Time = store.Millis(*p.Time)
	}
	if p.Side != nil {
		next.Side = *p.Side
	}
	if p.Currency != nil {
		next.Currency = *p.Currency
	}
	if p.Amount != nil {
		next.Amount = *p.Amount
	}
	if p.Price != nil {
		next.Price = *p.Price
	}
	if p.Fee != nil {
		next.Fee = *p.Fee
	}
	if p.Tax != nil {
		next.Tax = *p.Tax
	}
	if err := l.store.UpdateOrder(next); err != nil {
		return store.Order{}, fmt.Errorf("amend order %d: %w", id, err)
	}
	return prev, nil
}

// Remaining reports how many ids the ledger can still issue before the
// id space is exhausted.
func (l *Ledger) Remaining() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, err := l.store.MaxOrderID()
	if err != nil {
		return 0, fmt.Errorf("remaining: %w", err)
	}
	return orderid.Remaining(last)
}

// Reset drops every order; the id sequence starts over.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.DeleteOrders()
}
