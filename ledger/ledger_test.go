package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/ledger/orderid"
	"github.com/rustyeddy/ledger/store"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testOrder(t *testing.T) store.Order {
	t.Helper()
	return store.Order{
		Time:     time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Side:     store.Buy,
		Currency: "BTC",
		Amount:   dec(t, "1"),
		Price:    dec(t, "100"),
		Fee:      dec(t, "0.25"),
		Tax:      dec(t, "0"),
	}
}

func TestAppendAssignsSequentialValidIDs(t *testing.T) {
	t.Parallel()

	l := New(store.NewMemory())

	var last int64
	for i := 0; i < 50; i++ {
		o, err := l.Append(testOrder(t))
		require.NoError(t, err)
		assert.True(t, orderid.Validate(o.ID), "id %d fails checksum", o.ID)
		assert.Greater(t, o.ID, last)
		assert.Equal(t, last/10+1, o.ID/10, "counter must advance by one")
		last = o.ID
	}

	orders, err := l.Orders()
	require.NoError(t, err)
	assert.Len(t, orders, 50)
}

func TestAppendSequenceSurvivesReopen(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	l := New(s)
	first, err := l.Append(testOrder(t))
	require.NoError(t, err)

	// A fresh Ledger over the same store continues the sequence.
	l2 := New(s)
	second, err := l2.Append(testOrder(t))
	require.NoError(t, err)
	assert.Equal(t, first.ID/10+1, second.ID/10)
}

func TestConcurrentAppendsAreUnique(t *testing.T) {
	t.Parallel()

	l := New(store.NewMemory())
	const n = 50

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := l.Append(testOrder(t))
			assert.NoError(t, err)
			ids <- o.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestAmendReturnsPrevious(t *testing.T) {
	t.Parallel()

	l := New(store.NewMemory())
	o, err := l.Append(testOrder(t))
	require.NoError(t, err)

	price := dec(t, "123.45")
	side := store.Sell
	prev, err := l.Amend(o.ID, Patch{Price: &price, Side: &side})
	require.NoError(t, err)
	assert.True(t, prev.Price.Equal(dec(t, "100")))
	assert.Equal(t, store.Buy, prev.Side)

	got, err := l.Get(o.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(price))
	assert.Equal(t, store.Sell, got.Side)
	// Untouched fields keep their values.
	assert.True(t, got.Amount.Equal(dec(t, "1")))
	assert.Equal(t, o.ID, got.ID)
}

func TestAmendMissingOrder(t *testing.T) {
	t.Parallel()

	l := New(store.NewMemory())
	_, err := l.Amend(12345678901234567, Patch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResetRestartsSequence(t *testing.T) {
	t.Parallel()

	l := New(store.NewMemory())
	first, err := l.Append(testOrder(t))
	require.NoError(t, err)
	_, err = l.Append(testOrder(t))
	require.NoError(t, err)

	require.NoError(t, l.Reset())

	again, err := l.Append(testOrder(t))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	l := New(store.NewMemory())
	before, err := l.Remaining()
	require.NoError(t, err)
	assert.Equal(t, orderid.Capacity(), before)

	_, err = l.Append(testOrder(t))
	require.NoError(t, err)

	after, err := l.Remaining()
	require.NoError(t, err)
	assert.Equal(t, before-1, after)
}
