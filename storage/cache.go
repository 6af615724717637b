package storage

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/DmitriyVTitov/size"
	"github.com/coocood/freecache"
	"github.com/dustin/go-humanize"
	"github.com/golang/groupcache/lru"
	"github.com/janelia-flyem/seisvds/vds"
)

// CacheConfig selects the brick cache of a grid store.
type CacheConfig struct {
	// Kind is "lru" (bounded by entries), "freecache" (bounded by MB) or "none".
	Kind    string `toml:"kind" yaml:"kind"`
	Entries int    `toml:"entries" yaml:"entries"`
	MB      int    `toml:"mb" yaml:"mb"`
}

// ChunkCache holds decompressed bricks.  Cached slices are shared and must not be
// modified by callers.
type ChunkCache interface {
	Get(key ChunkKey) ([]byte, bool)
	Add(key ChunkKey, data []byte)
	Stats() CacheStats
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Kind    string `json:"kind"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Entries int64  `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

// freecache refuses entries over 1/1024 of its size, counting a 24 byte entry
// header and the key.
const (
	freecacheRatio    = 1024
	freecacheOverhead = 64
)

// NewCache returns the cache described by the configuration for bricks of up to
// brickBytes decompressed bytes.  A freecache with no size is made large enough
// to hold such bricks; one configured too small to hold them is an error.
func NewCache(config CacheConfig, brickBytes int) (ChunkCache, error) {
	switch config.Kind {
	case "", "lru":
		entries := config.Entries
		if entries <= 0 {
			entries = DefaultOptions().Cache.Entries
		}
		return newLRUCache(entries), nil
	case "freecache":
		need := freecacheRatio * (brickBytes + freecacheOverhead)
		if config.MB > 0 {
			if config.MB<<20 < need {
				return nil, fmt.Errorf("freecache of %d MB cannot hold %s bricks, need at least %d MB",
					config.MB, humanize.IBytes(uint64(brickBytes)), (need+(1<<20)-1)>>20)
			}
			return newFreeCache(config.MB << 20), nil
		}
		bytes := 64 << 20
		if bytes < need {
			bytes = (need + (1 << 20) - 1) &^ ((1 << 20) - 1)
			vds.Infof("Sizing freecache to %s for %s bricks\n", humanize.IBytes(uint64(bytes)), humanize.IBytes(uint64(brickBytes)))
		}
		return newFreeCache(bytes), nil
	case "none":
		return noCache{}, nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q, expected lru, freecache or none", config.Kind)
	}
}

type lruCache struct {
	mu     sync.Mutex
	cache  *lru.Cache
	bytes  int64
	hits   atomic.Int64
	misses atomic.Int64
}

func newLRUCache(entries int) *lruCache {
	c := &lruCache{cache: lru.New(entries)}
	c.cache.OnEvicted = func(key lru.Key, value interface{}) {
		c.bytes -= int64(len(value.([]byte)))
	}
	return c
}

func (c *lruCache) Get(key ChunkKey) ([]byte, bool) {
	c.mu.Lock()
	v, found := c.cache.Get(key)
	c.mu.Unlock()
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]byte), true
}

func (c *lruCache) Add(key ChunkKey, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, found := c.cache.Get(key); found {
		c.bytes -= int64(len(old.([]byte)))
	}
	c.cache.Add(key, data)
	c.bytes += int64(len(data))
}

func (c *lruCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Kind:    "lru",
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: int64(c.cache.Len()),
		Bytes:   c.bytes,
	}
}

// freeCache bounds memory by bytes.  NewCache sizes it so that every brick of
// the store fits.
type freeCache struct {
	cache *freecache.Cache
}

func newFreeCache(bytes int) *freeCache {
	return &freeCache{cache: freecache.NewCache(bytes)}
}

func (c *freeCache) Get(key ChunkKey) ([]byte, bool) {
	data, err := c.cache.Get(key.Bytes())
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *freeCache) Add(key ChunkKey, data []byte) {
	if err := c.cache.Set(key.Bytes(), data, 0); err != nil {
		vds.Debugf("not caching brick %s (%d bytes): %v\n", key, len(data), err)
	}
}

func (c *freeCache) Stats() CacheStats {
	return CacheStats{
		Kind:    "freecache",
		Hits:    c.cache.HitCount(),
		Misses:  c.cache.MissCount(),
		Entries: c.cache.EntryCount(),
		Bytes:   int64(size.Of(c.cache)),
	}
}

type noCache struct{}

func (noCache) Get(ChunkKey) ([]byte, bool) { return nil, false }
func (noCache) Add(ChunkKey, []byte)        {}
func (noCache) Stats() CacheStats           { return CacheStats{Kind: "none"} }
