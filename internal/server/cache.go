package server

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// defaultCacheBytes bounds the total size of cached responses.
const defaultCacheBytes int64 = 64 << 20

// pageCache holds rendered responses keyed by route.
type pageCache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

func newPageCache(maxCostBytes int64, ttl time.Duration) (*pageCache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = defaultCacheBytes
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &pageCache{c: c, ttl: ttl}, nil
}

func (p *pageCache) get(key string) ([]byte, bool) {
	return p.c.Get(key)
}

// set stores value and waits for the write buffer to drain so the next get
// observes it.
func (p *pageCache) set(key string, value []byte) {
	if p.ttl > 0 {
		p.c.SetWithTTL(key, value, int64(len(value)), p.ttl)
	} else {
		p.c.Set(key, value, int64(len(value)))
	}
	p.c.Wait()
}

func (p *pageCache) clear() {
	p.c.Clear()
}

func (p *pageCache) close() {
	p.c.Close()
}
