// Package ref issues ULID reference strings used to correlate one
// executor run across log lines and results.
package ref

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues ULIDs from a single entropy stream. Refs sort by
// creation time, so the refs of one session line up chronologically in
// logs; within one millisecond the monotonic reader keeps them in
// issue order.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func NewGenerator() *Generator {
	// Seed from crypto/rand so refs are unpredictable across runs.
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		// Only reachable if the clock jumps past the ULID epoch range.
		panic(err)
	}
	return id.String()
}
