package transport

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/jmhodges/clock"
)

// responseCache is a small LRU of service responses whose entries expire
// after a fixed TTL. It is safe for concurrent access.
type responseCache struct {
	sync.Mutex
	ttl   time.Duration
	cache *lru.Cache
	clk   clock.Clock
}

func newResponseCache(maxEntries int, ttl time.Duration, clk clock.Clock) *responseCache {
	return &responseCache{
		ttl:   ttl,
		cache: lru.New(maxEntries),
		clk:   clk,
	}
}

type responseEntry struct {
	response []byte
	expires  time.Time
}

// get returns a copy of the cached response for key, if there is one that
// has not expired.
func (rc *responseCache) get(key string) ([]byte, bool) {
	rc.Lock()
	defer rc.Unlock()
	val, ok := rc.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := val.(responseEntry)
	if !entry.expires.After(rc.clk.Now()) {
		// Expired entries have to be removed actively, otherwise every lookup
		// counts as a use and keeps them at the front of the LRU.
		rc.cache.Remove(key)
		return nil, false
	}
	return append([]byte(nil), entry.response...), true
}

func (rc *responseCache) add(key string, response []byte) {
	rc.Lock()
	defer rc.Unlock()
	rc.cache.Add(key, responseEntry{
		response: append([]byte(nil), response...),
		expires:  rc.clk.Now().Add(rc.ttl),
	})
}
