package verify

import (
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Cache memoizes a Report by the blake2b hash of the formula's rendered
// SMT-LIB2 script, so re-verifying a function unchanged by an unrelated
// edit elsewhere in the module is a cache hit instead of a fresh solver
// round trip. A function that contains calls gets fresh call-site names on
// every encode, so its script differs from run to run and it never hits.
type Cache struct {
	mu      sync.RWMutex
	entries map[[32]byte]*Report
}

func NewCache() *Cache {
	return &Cache{entries: map[[32]byte]*Report{}}
}

func HashScript(script string) [32]byte {
	return blake2b.Sum256([]byte(script))
}

func (c *Cache) Get(key [32]byte) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *Cache) Put(key [32]byte, r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = r
}
