package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both backends must pass the identical suite.
func TestBackends(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}

	for name, open := range backends {
		name, open := name, open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			t.Run("orders", func(t *testing.T) { testOrders(t, open(t)) })
			t.Run("lots", func(t *testing.T) { testLots(t, open(t)) })
			t.Run("averages", func(t *testing.T) { testAverages(t, open(t)) })
			t.Run("wallet", func(t *testing.T) { testWallet(t, open(t)) })
			t.Run("decimal round-trip", func(t *testing.T) { testDecimalRoundTrip(t, open(t)) })
		})
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testOrders(t *testing.T, s Store) {
	max, err := s.MaxOrderID()
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	at := time.Date(2024, 5, 1, 12, 30, 45, 123_456_789, time.UTC)
	o := Order{
		ID:       13,
		Time:     at,
		Side:     Buy,
		Currency: "BTC",
		Amount:   dec(t, "1.5"),
		Price:    dec(t, "100.25"),
		Fee:      dec(t, "0.1"),
		Tax:      dec(t, "0"),
	}
	require.NoError(t, s.InsertOrder(o))

	got, err := s.GetOrder(13)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, Buy, got.Side)
	assert.Equal(t, "BTC", got.Currency)
	assert.True(t, got.Amount.Equal(o.Amount))
	// Timestamps survive at millisecond precision.
	assert.Equal(t, at.Truncate(time.Millisecond), got.Time)

	_, err = s.GetOrder(99)
	assert.ErrorIs(t, err, ErrNotFound)

	o.Price = dec(t, "101")
	require.NoError(t, s.UpdateOrder(o))
	got, err = s.GetOrder(13)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(dec(t, "101")))

	missing := o
	missing.ID = 99
	assert.ErrorIs(t, s.UpdateOrder(missing), ErrNotFound)

	o2 := o
	o2.ID = 21
	require.NoError(t, s.InsertOrder(o2))

	max, err = s.MaxOrderID()
	require.NoError(t, err)
	assert.Equal(t, int64(21), max)

	all, err := s.Orders()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(13), all[0].ID)
	assert.Equal(t, int64(21), all[1].ID)

	require.NoError(t, s.DeleteOrders())
	max, err = s.MaxOrderID()
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)
}

func testLots(t *testing.T, s Store) {
	lots, err := s.LotsByCurrency("BTC")
	require.NoError(t, err)
	assert.Empty(t, lots)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	// Insert out of order; reads must come back sorted by time.
	require.NoError(t, s.InsertLot(Lot{Currency: "BTC", Time: t2, Cost: dec(t, "220"), Amount: dec(t, "10")}))
	require.NoError(t, s.InsertLot(Lot{Currency: "BTC", Time: t1, Cost: dec(t, "100"), Amount: dec(t, "10")}))
	require.NoError(t, s.InsertLot(Lot{Currency: "ETH", Time: t3, Cost: dec(t, "50"), Amount: dec(t, "2")}))

	lots, err = s.LotsByCurrency("BTC")
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, t1, lots[0].Time)
	assert.Equal(t, t2, lots[1].Time)
	assert.True(t, lots[0].Cost.Equal(dec(t, "100")))

	// Duplicate (currency, time) is a key violation on both backends.
	assert.Error(t, s.InsertLot(Lot{Currency: "BTC", Time: t1, Cost: dec(t, "1"), Amount: dec(t, "1")}))

	require.NoError(t, s.UpdateLot(Lot{Currency: "BTC", Time: t2, Cost: dec(t, "110"), Amount: dec(t, "5")}))
	lots, err = s.LotsByCurrency("BTC")
	require.NoError(t, err)
	assert.True(t, lots[1].Amount.Equal(dec(t, "5")))

	assert.ErrorIs(t, s.UpdateLot(Lot{Currency: "BTC", Time: t3, Cost: dec(t, "1"), Amount: dec(t, "1")}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteLot("BTC", t3), ErrNotFound)

	require.NoError(t, s.DeleteLot("BTC", t1))
	lots, err = s.LotsByCurrency("BTC")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, t2, lots[0].Time)

	currencies, err := s.LotCurrencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, currencies)

	require.NoError(t, s.DeleteLots())
	currencies, err = s.LotCurrencies()
	require.NoError(t, err)
	assert.Empty(t, currencies)
}

func testAverages(t *testing.T, s Store) {
	_, err := s.GetAverage("BTC")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.InsertAverage(Average{Currency: "BTC", Cost: dec(t, "200"), Amount: dec(t, "2")}))
	assert.Error(t, s.InsertAverage(Average{Currency: "BTC", Cost: dec(t, "1"), Amount: dec(t, "1")}))

	a, err := s.GetAverage("BTC")
	require.NoError(t, err)
	assert.True(t, a.Cost.Equal(dec(t, "200")))

	require.NoError(t, s.UpdateAverage(Average{Currency: "BTC", Cost: dec(t, "200"), Amount: dec(t, "1")}))
	a, err = s.GetAverage("BTC")
	require.NoError(t, err)
	assert.True(t, a.Amount.Equal(dec(t, "1")))

	assert.ErrorIs(t, s.UpdateAverage(Average{Currency: "ETH"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteAverage("ETH"), ErrNotFound)

	require.NoError(t, s.InsertAverage(Average{Currency: "ETH", Cost: dec(t, "10"), Amount: dec(t, "1")}))
	currencies, err := s.AverageCurrencies()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, currencies)

	require.NoError(t, s.DeleteAverage("BTC"))
	_, err = s.GetAverage("BTC")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteAverages())
	currencies, err = s.AverageCurrencies()
	require.NoError(t, err)
	assert.Empty(t, currencies)
}

func testWallet(t *testing.T, s Store) {
	_, err := s.GetBalance("THB")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetBalance("THB", dec(t, "1000")))
	bal, err := s.GetBalance("THB")
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec(t, "1000")))

	// SetBalance is an upsert.
	require.NoError(t, s.SetBalance("THB", dec(t, "900")))
	bal, err = s.GetBalance("THB")
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec(t, "900")))

	require.NoError(t, s.SetBalance("BTC", dec(t, "1")))
	balances, err := s.Balances()
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances["THB"].Equal(dec(t, "900")))

	require.NoError(t, s.DeleteBalances())
	balances, err = s.Balances()
	require.NoError(t, err)
	assert.Empty(t, balances)
}

// The engine promises exact decimals: ten fractional digits must come
// back bit-for-bit, with no float in between.
func testDecimalRoundTrip(t *testing.T, s Store) {
	small := dec(t, "0.0000000001")
	big := dec(t, "123456789.9999999999")

	require.NoError(t, s.SetBalance("X", small))
	bal, err := s.GetBalance("X")
	require.NoError(t, err)
	assert.Equal(t, "0.0000000001", bal.String())

	require.NoError(t, s.SetBalance("Y", big))
	bal, err = s.GetBalance("Y")
	require.NoError(t, err)
	assert.Equal(t, "123456789.9999999999", bal.String())
}
