package detect

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Cache stores detection results by Key.
type Cache interface {
	Get(key string) (Result, bool, error)
	Set(key string, r Result) error
}

// Cached consults Cache before running the wrapped Detector. Threshold
// changes go to the wrapped Detector.
type Cached struct {
	Detector
	Cache Cache
}

func NewCached(d Detector, c Cache) *Cached {
	return &Cached{Detector: d, Cache: c}
}

func (c *Cached) Detect(p []byte) (Result, error) {
	key := Key(p, c.MinConfidence())
	if r, ok, err := c.Cache.Get(key); err == nil && ok {
		return r, nil
	}
	r, err := c.Detector.Detect(p)
	if err != nil {
		return r, err
	}
	// a failing cache only costs another detection next time
	_ = c.Cache.Set(key, r)
	return r, nil
}

// Key identifies a sample together with the threshold it was judged under.
func Key(p []byte, threshold float64) string {
	var t [8]byte
	binary.BigEndian.PutUint64(t[:], math.Float64bits(threshold))

	h, _ := blake2b.New256(nil)
	h.Write(t[:])
	h.Write(p)
	return hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]Result
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string]Result{}}
}

func (c *MemoryCache) Get(key string) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.m[key]
	return r, ok, nil
}

func (c *MemoryCache) Set(key string, r Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
