package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedSerializesSameKey(t *testing.T) {
	t.Parallel()

	k := NewKeyed()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("BTC")
			defer k.Unlock("BTC")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedIndependentKeys(t *testing.T) {
	t.Parallel()

	k := NewKeyed()
	k.Lock("BTC")

	// A different key must not block.
	done := make(chan struct{})
	go func() {
		k.Lock("ETH")
		k.Unlock("ETH")
		close(done)
	}()
	<-done

	k.Unlock("BTC")
}
