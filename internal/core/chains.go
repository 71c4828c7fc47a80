package core

import (
	"sync"

	"github.com/google/uuid"
)

// ChainTracker counts the hops of every redirect chain in flight. It is
// shared by all workers; each counter update is a single locked
// read-modify-write and no lock is held across network calls.
type ChainTracker struct {
	mu     sync.Mutex
	chains map[uuid.UUID]int
}

// NewChainTracker creates an empty tracker
func NewChainTracker() *ChainTracker {
	return &ChainTracker{
		chains: make(map[uuid.UUID]int),
	}
}

// Begin mints a fresh chain identifier with a hop count of zero
func (t *ChainTracker) Begin() uuid.UUID {
	id := uuid.New()
	t.mu.Lock()
	t.chains[id] = 0
	t.mu.Unlock()
	return id
}

// Track registers an externally supplied identifier, keeping its count if
// it is already known
func (t *ChainTracker) Track(id uuid.UUID) {
	t.mu.Lock()
	if _, ok := t.chains[id]; !ok {
		t.chains[id] = 0
	}
	t.mu.Unlock()
}

// Hops returns the current hop count for a chain
func (t *ChainTracker) Hops(id uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chains[id]
}

// Advance increments the hop count unless it has already reached limit.
// It returns the new count and whether the increment happened.
func (t *ChainTracker) Advance(id uuid.UUID, limit int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hops := t.chains[id]
	if hops >= limit {
		return hops, false
	}
	hops++
	t.chains[id] = hops
	return hops, true
}

// End forgets a chain
func (t *ChainTracker) End(id uuid.UUID) {
	t.mu.Lock()
	delete(t.chains, id)
	t.mu.Unlock()
}

// Len returns the number of chains in flight
func (t *ChainTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.chains)
}
