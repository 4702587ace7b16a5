package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLite is the durable Store backend.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) the ledger database at path
// and ensures the schema exists. Use ":memory:" for a throwaway
// database in tests.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Orders

func (s *SQLite) InsertOrder(o Order) error {
	_, err := s.db.Exec(`
		INSERT INTO orders (id, order_time, side, currency, amount, price, fee, tax)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, Millis(o.Time).UnixMilli(), string(o.Side), o.Currency,
		o.Amount.String(), o.Price.String(), o.Fee.String(), o.Tax.String(),
	)
	if err != nil {
		return fmt.Errorf("insert order %d: %w", o.ID, err)
	}
	return nil
}

func (s *SQLite) UpdateOrder(o Order) error {
	res, err := s.db.Exec(`
		UPDATE orders
		SET order_time = ?, side = ?, currency = ?, amount = ?, price = ?, fee = ?, tax = ?
		WHERE id = ?`,
		Millis(o.Time).UnixMilli(), string(o.Side), o.Currency,
		o.Amount.String(), o.Price.String(), o.Fee.String(), o.Tax.String(), o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	return requireRow(res, fmt.Sprintf("order %d", o.ID))
}

func (s *SQLite) GetOrder(id int64) (Order, error) {
	row := s.db.QueryRow(`
		SELECT id, order_time, side, currency, amount, price, fee, tax
		FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	return o, nil
}

func (s *SQLite) Orders() ([]Order, error) {
	rows, err := s.db.Query(`
		SELECT id, order_time, side, currency, amount, price, fee, tax
		FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	return orders, nil
}

func (s *SQLite) MaxOrderID() (int64, error) {
	var max int64
	err := s.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM orders`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max order id: %w", err)
	}
	return max, nil
}

func (s *SQLite) DeleteOrders() error {
	if _, err := s.db.Exec(`DELETE FROM orders`); err != nil {
		return fmt.Errorf("delete orders: %w", err)
	}
	return nil
}

// FIFO lots

func (s *SQLite) InsertLot(l Lot) error {
	_, err := s.db.Exec(`
		INSERT INTO fifo_lots (currency, acquired_at, cost, amount)
		VALUES (?, ?, ?, ?)`,
		l.Currency, Millis(l.Time).UnixMilli(), l.Cost.String(), l.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("insert lot %s@%d: %w", l.Currency, Millis(l.Time).UnixMilli(), err)
	}
	return nil
}

func (s *SQLite) UpdateLot(l Lot) error {
	res, err := s.db.Exec(`
		UPDATE fifo_lots SET cost = ?, amount = ?
		WHERE currency = ? AND acquired_at = ?`,
		l.Cost.String(), l.Amount.String(), l.Currency, Millis(l.Time).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("update lot %s@%d: %w", l.Currency, Millis(l.Time).UnixMilli(), err)
	}
	return requireRow(res, fmt.Sprintf("lot %s@%d", l.Currency, Millis(l.Time).UnixMilli()))
}

func (s *SQLite) DeleteLot(currency string, at time.Time) error {
	res, err := s.db.Exec(`
		DELETE FROM fifo_lots WHERE currency = ? AND acquired_at = ?`,
		currency, Millis(at).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("delete lot %s@%d: %w", currency, Millis(at).UnixMilli(), err)
	}
	return requireRow(res, fmt.Sprintf("lot %s@%d", currency, Millis(at).UnixMilli()))
}

func (s *SQLite) LotsByCurrency(currency string) ([]Lot, error) {
	rows, err := s.db.Query(`
		SELECT currency, acquired_at, cost, amount
		FROM fifo_lots WHERE currency = ? ORDER BY acquired_at`, currency)
	if err != nil {
		return nil, fmt.Errorf("lots for %s: %w", currency, err)
	}
	defer rows.Close()

	var lots []Lot
	for rows.Next() {
		var (
			l      Lot
			at     int64
			cost   string
			amount string
		)
		if err := rows.Scan(&l.Currency, &at, &cost, &amount); err != nil {
			return nil, fmt.Errorf("lots for %s: %w", currency, err)
		}
		l.Time = time.UnixMilli(at).UTC()
		if l.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("lots for %s: cost %q: %w", currency, cost, err)
		}
		if l.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("lots for %s: amount %q: %w", currency, amount, err)
		}
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lots for %s: %w", currency, err)
	}
	return lots, nil
}

func (s *SQLite) LotCurrencies() ([]string, error) {
	return s.currencies(`SELECT DISTINCT currency FROM fifo_lots ORDER BY currency`)
}

func (s *SQLite) DeleteLots() error {
	if _, err := s.db.Exec(`DELETE FROM fifo_lots`); err != nil {
		return fmt.Errorf("delete lots: %w", err)
	}
	return nil
}

// Average cost

func (s *SQLite) InsertAverage(a Average) error {
	_, err := s.db.Exec(`
		INSERT INTO average_costs (currency, cost, amount) VALUES (?, ?, ?)`,
		a.Currency, a.Cost.String(), a.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("insert average %s: %w", a.Currency, err)
	}
	return nil
}

func (s *SQLite) UpdateAverage(a Average) error {
	res, err := s.db.Exec(`
		UPDATE average_costs SET cost = ?, amount = ? WHERE currency = ?`,
		a.Cost.String(), a.Amount.String(), a.Currency,
	)
	if err != nil {
		return fmt.Errorf("update average %s: %w", a.Currency, err)
	}
	return requireRow(res, fmt.Sprintf("average %s", a.Currency))
}

func (s *SQLite) GetAverage(currency string) (Average, error) {
	var (
		a      Average
		cost   string
		amount string
	)
	err := s.db.QueryRow(`
		SELECT currency, cost, amount FROM average_costs WHERE currency = ?`,
		currency,
	).Scan(&a.Currency, &cost, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return Average{}, fmt.Errorf("average %s: %w", currency, ErrNotFound)
	}
	if err != nil {
		return Average{}, fmt.Errorf("get average %s: %w", currency, err)
	}
	if a.Cost, err = decimal.NewFromString(cost); err != nil {
		return Average{}, fmt.Errorf("average %s: cost %q: %w", currency, cost, err)
	}
	if a.Amount, err = decimal.NewFromString(amount); err != nil {
		return Average{}, fmt.Errorf("average %s: amount %q: %w", currency, amount, err)
	}
	return a, nil
}

func (s *SQLite) DeleteAverage(currency string) error {
	res, err := s.db.Exec(`DELETE FROM average_costs WHERE currency = ?`, currency)
	if err != nil {
		return fmt.Errorf("delete average %s: %w", currency, err)
	}
	return requireRow(res, fmt.Sprintf("average %s", currency))
}

func (s *SQLite) AverageCurrencies() ([]string, error) {
	return s.currencies(`SELECT currency FROM average_costs ORDER BY currency`)
}

func (s *SQLite) DeleteAverages() error {
	if _, err := s.db.Exec(`DELETE FROM average_costs`); err != nil {
		return fmt.Errorf("delete averages: %w", err)
	}
	return nil
}

// Wallet

func (s *SQLite) GetBalance(currency string) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRow(`SELECT balance FROM wallet WHERE currency = ?`, currency).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("balance %s: %w", currency, ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance %s: %w", currency, err)
	}
	bal, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance %s: %q: %w", currency, raw, err)
	}
	return bal, nil
}

func (s *SQLite) SetBalance(currency string, balance decimal.Decimal) error {
	_, err := s.db.Exec(`
		INSERT INTO wallet (currency, balance) VALUES (?, ?)
		ON CONFLICT(currency) DO UPDATE SET balance = excluded.balance`,
		currency, balance.String(),
	)
	if err != nil {
		return fmt.Errorf("set balance %s: %w", currency, err)
	}
	return nil
}

func (s *SQLite) Balances() (map[string]decimal.Decimal, error) {
	rows, err := s.db.Query(`SELECT currency, balance FROM wallet`)
	if err != nil {
		return nil, fmt.Errorf("scan balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal)
	for rows.Next() {
		var currency, raw string
		if err := rows.Scan(&currency, &raw); err != nil {
			return nil, fmt.Errorf("scan balances: %w", err)
		}
		bal, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("balance %s: %q: %w", currency, raw, err)
		}
		balances[currency] = bal
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan balances: %w", err)
	}
	return balances, nil
}

func (s *SQLite) DeleteBalances() error {
	if _, err := s.db.Exec(`DELETE FROM wallet`); err != nil {
		return fmt.Errorf("delete balances: %w", err)
	}
	return nil
}

// helpers

func (s *SQLite) currencies(query string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("scan currencies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan currencies: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan currencies: %w", err)
	}
	return out, nil
}

func scanOrder(scan func(dest ...any) error) (Order, error) {
	var (
		o      Order
		at     int64
		side   string
		amount string
		price  string
		fee    string
		tax    string
	)
	if err := scan(&o.ID, &at, &side, &o.Currency, &amount, &price, &fee, &tax); err != nil {
		return Order{}, err
	}

	o.Time = time.UnixMilli(at).UTC()
	o.Side = Side(side)

	var err error
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return Order{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	if o.Price, err = decimal.NewFromString(price); err != nil {
		return Order{}, fmt.Errorf("price %q: %w", price, err)
	}
	if o.Fee, err = decimal.NewFromString(fee); err != nil {
		return Order{}, fmt.Errorf("fee %q: %w", fee, err)
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return Order{}, fmt.Errorf("tax %q: %w", tax, err)
	}
	return o, nil
}

// requireRow turns a zero-row update or delete into ErrNotFound so
// both backends agree on what touching a missing record means.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
