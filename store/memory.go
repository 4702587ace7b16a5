package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is the in-process Store backend. It mirrors the SQLite
// backend exactly, including key constraints and ErrNotFound
// semantics, so the two are interchangeable in tests and backtests.
type Memory struct {
	mu       sync.RWMutex
	orders   map[int64]Order
	lots     map[string][]Lot // per currency, acquisition time ascending
	averages map[string]Average
	wallet   map[string]decimal.Decimal
}

func NewMemory() *Memory {
	return &Memory{
		orders:   make(map[int64]Order),
		lots:     make(map[string][]Lot),
		averages: make(map[string]Average),
		wallet:   make(map[string]decimal.Decimal),
	}
}

func (m *Memory) Close() error {
	return nil
}

// Orders

func (m *Memory) InsertOrder(o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; ok {
		return fmt.Errorf("insert order %d: duplicate id", o.ID)
	}
	o.Time = Millis(o.Time)
	m.orders[o.ID] = o
	return nil
}

func (m *Memory) UpdateOrder(o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; !ok {
		return fmt.Errorf("order %d: %w", o.ID, ErrNotFound)
	}
	o.Time = Millis(o.Time)
	m.orders[o.ID] = o
	return nil
}

func (m *Memory) GetOrder(id int64) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return o, nil
}

func (m *Memory) Orders() ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	if len(orders) == 0 {
		return nil, nil
	}
	return orders, nil
}

func (m *Memory) MaxOrderID() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var max int64
	for id := range m.orders {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (m *Memory) DeleteOrders() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = make(map[int64]Order)
	return nil
}

// FIFO lots

func (m *Memory) InsertLot(l Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.Time = Millis(l.Time)
	lots := m.lots[l.Currency]
	i := sort.Search(len(lots), func(i int) bool { return !lots[i].Time.Before(l.Time) })
	if i < len(lots) && lots[i].Time.Equal(l.Time) {
		return fmt.Errorf("insert lot %s@%d: duplicate key", l.Currency, l.Time.UnixMilli())
	}

	lots = append(lots, Lot{})
	copy(lots[i+1:], lots[i:])
	lots[i] = l
	m.lots[l.Currency] = lots
	return nil
}

func (m *Memory) UpdateLot(l Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.Time = Millis(l.Time)
	lots := m.lots[l.Currency]
	for i := range lots {
		if lots[i].Time.Equal(l.Time) {
			lots[i] = l
			return nil
		}
	}
	return fmt.Errorf("lot %s@%d: %w", l.Currency, l.Time.UnixMilli(), ErrNotFound)
}

func (m *Memory) DeleteLot(currency string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	at = Millis(at)
	lots := m.lots[currency]
	for i := range lots {
		if lots[i].Time.Equal(at) {
			m.lots[currency] = append(lots[:i], lots[i+1:]...)
			if len(m.lots[currency]) == 0 {
				delete(m.lots, currency)
			}
			return nil
		}
	}
	return fmt.Errorf("lot %s@%d: %w", currency, at.UnixMilli(), ErrNotFound)
}

func (m *Memory) LotsByCurrency(currency string) ([]Lot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lots := m.lots[currency]
	if len(lots) == 0 {
		return nil, nil
	}
	out := make([]Lot, len(lots))
	copy(out, lots)
	return out, nil
}

func (m *Memory) LotCurrencies() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.lots))
	for c := range m.lots {
		out = append(out, c)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (m *Memory) DeleteLots() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lots = make(map[string][]Lot)
	return nil
}

// Average cost

func (m *Memory) InsertAverage(a Average) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.averages[a.Currency]; ok {
		return fmt.Errorf("insert average %s: duplicate currency", a.Currency)
	}
	m.averages[a.Currency] = a
	return nil
}

func (m *Memory) UpdateAverage(a Average) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.averages[a.Currency]; !ok {
		return fmt.Errorf("average %s: %w", a.Currency, ErrNotFound)
	}
	m.averages[a.Currency] = a
	return nil
}

func (m *Memory) GetAverage(currency string) (Average, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.averages[currency]
	if !ok {
		return Average{}, fmt.Errorf("average %s: %w", currency, ErrNotFound)
	}
	return a, nil
}

func (m *Memory) DeleteAverage(currency string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.averages[currency]; !ok {
		return fmt.Errorf("average %s: %w", currency, ErrNotFound)
	}
	delete(m.averages, currency)
	return nil
}

func (m *Memory) AverageCurrencies() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.averages))
	for c := range m.averages {
		out = append(out, c)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (m *Memory) DeleteAverages() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.averages = make(map[string]Average)
	return nil
}

// Wallet

func (m *Memory) GetBalance(currency string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bal, ok := m.wallet[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("balance %s: %w", currency, ErrNotFound)
	}
	return bal, nil
}

func (m *Memory) SetBalance(currency string, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wallet[currency] = balance
	return nil
}

func (m *Memory) Balances() (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(m.wallet))
	for c, b := range m.wallet {
		out[c] = b
	}
	return out, nil
}

func (m *Memory) DeleteBalances() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wallet = make(map[string]decimal.Decimal)
	return nil
}
