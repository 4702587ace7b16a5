// Package locks provides keyed mutual exclusion: one mutex per
// currency, created on first use, so mutations on unrelated currencies
// never serialize against each other.
package locks

import "sync"

type Keyed struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func NewKeyed() *Keyed {
	return &Keyed{m: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it if needed.
func (k *Keyed) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key. Unlocking a key that was never
// locked panics, same as sync.Mutex.
func (k *Keyed) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.m[key]
	if !ok {
		m = &sync.Mutex{}
		k.m[key] = m
	}
	return m
}
