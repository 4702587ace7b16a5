package costbasis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ledger/store"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestFIFOPartialLotSplit(t *testing.T) {
	t.Parallel()

	f := NewFIFO(store.NewMemory())
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	require.NoError(t, f.AddLot("btc", t1, dec(t, "100"), dec(t, "10")))
	require.NoError(t, f.AddLot("btc", t2, dec(t, "220"), dec(t, "10")))

	consumed, err := f.RemoveAmount("BTC", dec(t, "15"))
	require.NoError(t, err)
	require.Len(t, consumed, 2)

	// Oldest lot goes whole.
	assert.True(t, consumed[0].Cost.Equal(dec(t, "100")))
	assert.True(t, consumed[0].Amount.Equal(dec(t, "10")))

	// Second lot splits, cost prorated: 5 of 10 units takes 110 of 220.
	assert.True(t, consumed[1].Cost.Equal(dec(t, "110")), "got %s", consumed[1].Cost)
	assert.True(t, consumed[1].Amount.Equal(dec(t, "5")))

	lots, err := f.Lots("BTC")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Cost.Equal(dec(t, "110")))
	assert.True(t, lots[0].Amount.Equal(dec(t, "5")))

	total, err := f.TotalAmount("BTC")
	require.NoError(t, err)
	assert.True(t, total.Equal(dec(t, "5")))
}

func TestFIFOInsufficientLeavesLotsAlone(t *testing.T) {
	t.Parallel()

	f := NewFIFO(store.NewMemory())
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.AddLot("BTC", at, dec(t, "100"), dec(t, "10")))

	_, err := f.RemoveAmount("BTC", dec(t, "10.0000000001"))
	assert.ErrorIs(t, err, ErrInsufficientAmount)

	lots, err := f.Lots("BTC")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Amount.Equal(dec(t, "10")))

	_, err = f.RemoveAmount("ETH", dec(t, "1"))
	assert.ErrorIs(t, err, ErrInsufficientAmount)
}

func TestFIFOExactDrain(t *testing.T) {
	t.Parallel()

	f := NewFIFO(store.NewMemory())
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.AddLot("BTC", at, dec(t, "100"), dec(t, "10")))
	require.NoError(t, f.AddLot("BTC", at.Add(time.Minute), dec(t, "50"), dec(t, "5")))

	consumed, err := f.RemoveAmount("BTC", dec(t, "15"))
	require.NoError(t, err)
	assert.Len(t, consumed, 2)

	total, err := f.TotalAmount("BTC")
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	currencies, err := f.Currencies()
	require.NoError(t, err)
	assert.Empty(t, currencies)
}

func TestFIFOSameMillisecondMerges(t *testing.T) {
	t.Parallel()

	f := NewFIFO(store.NewMemory())
	at := time.Date(2024, 1, 1, 0, 0, 0, 500_000, time.UTC) // sub-ms offsets collapse
	require.NoError(t, f.AddLot("BTC", at, dec(t, "100"), dec(t, "1")))
	require.NoError(t, f.AddLot("BTC", at.Add(100*time.Microsecond), dec(t, "50"), dec(t, "0.5")))

	lots, err := f.Lots("BTC")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Cost.Equal(dec(t, "150")))
	assert.True(t, lots[0].Amount.Equal(dec(t, "1.5")))
}

func TestFIFOUntrackedTotalsZero(t *testing.T) {
	t.Parallel()

	f := NewFIFO(store.NewMemory())
	total, err := f.TotalAmount("XRP")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestFIFOReset(t *testing.T) {
	t.Parallel()

	f := NewFIFO(store.NewMemory())
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.AddLot("BTC", at, dec(t, "100"), dec(t, "10")))
	require.NoError(t, f.AddLot("ETH", at, dec(t, "40"), dec(t, "2")))

	require.NoError(t, f.Reset())

	currencies, err := f.Currencies()
	require.NoError(t, err)
	assert.Empty(t, currencies)
}
