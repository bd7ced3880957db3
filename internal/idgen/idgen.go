// Package idgen assigns node ids within a session: sequential for the
// common case, random when a caller wants ids that don't reveal creation
// order. Both disciplines share the same collision check so a caller can
// mix them in a single session.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"coreemu"
)

// maxID bounds both disciplines: ids must fit the 16-bit fields used by
// the interface-naming and control-net addressing schemes downstream.
const maxID = 0xFFFF

// LiveChecker reports whether id is already in use. The registry
// implements this; idgen never holds node state itself.
type LiveChecker func(id coreemu.NodeID) bool

// Generator produces sequential ids, wrapping back to 1 after maxID.
type Generator struct {
	mu   sync.Mutex
	next uint32
}

// NewGenerator returns a Generator that starts handing out ids at 1.
func NewGenerator() *Generator {
	return &Generator{next: 1}
}

// Next returns the next sequential id from the generator's counter,
// skipping any id for which isLive reports true. Ids freed below the
// counter are not reused until it wraps or Reset is called. Returns an
// error if the id space is exhausted.
func (g *Generator) Next(isLive LiveChecker) (coreemu.NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := g.next
	for {
		candidate := coreemu.NodeID(g.next)
		g.next++
		if g.next > maxID {
			g.next = 1
		}
		if !isLive(candidate) {
			return candidate, nil
		}
		if g.next == start {
			return 0, fmt.Errorf("idgen: sequential id space exhausted")
		}
	}
}

// Reset returns the generator to its initial state. Used by Session.Clear.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 1
}

// Random returns a cryptographically-random unused id in [1, maxID].
// Returns an error after a bounded number of collisions, treating a dense
// id space as exhausted rather than looping forever.
func Random(isLive LiveChecker) (coreemu.NodeID, error) {
	const attempts = 1024
	for i := 0; i < attempts; i++ {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("idgen: read random bytes: %w", err)
		}
		candidate := coreemu.NodeID(binary.BigEndian.Uint32(b[:])%maxID + 1)
		if !isLive(candidate) {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("idgen: random id space exhausted after %d attempts", attempts)
}
