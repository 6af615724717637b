package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/googleapis/gax-go/v2"
	"github.com/janelia-flyem/seisvds/vds"
	"golang.org/x/sync/errgroup"
)

// GridStore answers subset requests over a ChunkBackend holding a regular brick
// grid.  It is safe for concurrent use.
type GridStore struct {
	backend ChunkBackend
	owned   bool
	layout  *vds.Layout
	opts    Options
	cache   ChunkCache

	mu     sync.RWMutex
	closed bool

	stats gridStats
}

type gridStats struct {
	requests atomic.Int64
	fetched  atomic.Int64
	missing  atomic.Int64
	retries  atomic.Int64
	bytes    atomic.Int64
}

// FetchStats reports the brick traffic of a grid store.
type FetchStats struct {
	Requests     int64      `json:"requests"`
	BricksRead   int64      `json:"bricks_read"`
	BricksAbsent int64      `json:"bricks_absent"`
	Retries      int64      `json:"retries"`
	BytesRead    int64      `json:"bytes_read"`
	Cache        CacheStats `json:"cache"`
}

// OpenBackend reads the layout of the volume in the backend and returns a grid store
// that owns the backend.
func OpenBackend(ctx context.Context, backend ChunkBackend, opts Options) (*GridStore, error) {
	data, err := backend.GetMeta(ctx, LayoutMeta)
	if err != nil {
		backend.Close()
		return nil, vds.StoreError(backend.String(), err)
	}
	if data == nil {
		backend.Close()
		return nil, vds.StoreError(fmt.Sprintf("%s has no volume layout", backend), nil)
	}
	layout, err := DecodeLayout(data)
	if err != nil {
		backend.Close()
		return nil, vds.StoreError(fmt.Sprintf("%s has a bad layout", backend), err)
	}
	g, err := newGridStore(backend, layout, opts)
	if err != nil {
		backend.Close()
		return nil, vds.StoreError(backend.String(), err)
	}
	g.owned = true
	vds.Infof("Opened %s: %s\n", backend, layout)
	return g, nil
}

func newGridStore(backend ChunkBackend, layout *vds.Layout, opts Options) (*GridStore, error) {
	opts.setDefaults()
	cache, err := NewCache(opts.Cache, maxBrickBytes(layout))
	if err != nil {
		return nil, err
	}
	return &GridStore{backend: backend, layout: layout, opts: opts, cache: cache}, nil
}

// maxBrickBytes returns the decompressed size of the largest brick of any channel.
func maxBrickBytes(layout *vds.Layout) int {
	var n int
	for _, ch := range layout.Channels {
		b := int(layout.ChannelBrick(ch).Prod()) * ch.Format.ElementSize()
		if b > n {
			n = b
		}
	}
	return n
}

// Layout returns the volume layout.
func (g *GridStore) Layout() *vds.Layout {
	return g.layout
}

// Stats returns counters of brick traffic since the store was opened.
func (g *GridStore) Stats() FetchStats {
	return FetchStats{
		Requests:     g.stats.requests.Load(),
		BricksRead:   g.stats.fetched.Load(),
		BricksAbsent: g.stats.missing.Load(),
		Retries:      g.stats.retries.Load(),
		BytesRead:    g.stats.bytes.Load(),
		Cache:        g.cache.Stats(),
	}
}

func (g *GridStore) String() string {
	return fmt.Sprintf("grid store over %s", g.backend)
}

// Close releases the backend if the store owns it.  Close is idempotent.
func (g *GridStore) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	if g.owned {
		return g.backend.Close()
	}
	return nil
}

// RequestSubset fetches every brick overlapping [min, max) through a bounded pool of
// workers and assembles them in store order.  On the first failure or cancellation
// the remaining fetches are abandoned and no data is returned.
func (g *GridStore) RequestSubset(ctx context.Context, channel string, lod int, min, max vds.Point3d) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, fmt.Errorf("grid store: %w", vds.ErrClosed)
	}

	ch, found := g.layout.Channel(channel)
	if !found {
		return nil, fmt.Errorf("%w: no channel %q in store", vds.ErrOutOfRange, channel)
	}
	if lod < 0 || lod >= g.layout.NumLODs(ch) {
		return nil, &vds.RangeError{What: channel + " lod", Value: lod, Min: 0, Max: g.layout.NumLODs(ch)}
	}
	extent := g.layout.ChannelExtent(ch, lod)
	for d := 0; d < 3; d++ {
		if min[d] < 0 || min[d] > max[d] || max[d] > extent[d] {
			return nil, &vds.RangeError{What: fmt.Sprintf("%s dim %d", channel, d), Value: int(max[d]), Min: int(min[d]), Max: int(extent[d]) + 1}
		}
	}
	g.stats.requests.Add(1)

	elem := ch.Format.ElementSize()
	shape := max.Sub(min)
	out := make([]byte, int(shape.Prod())*elem)
	if len(out) == 0 {
		return out, nil
	}

	timedLog := vds.NewTimeLog()
	brick := g.layout.ChannelBrick(ch)
	minChunk := min.Chunk(brick)
	maxChunk := max.Sub(vds.Point3d{1, 1, 1}).Chunk(brick)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	var nbricks int
	for c2 := minChunk[2]; c2 <= maxChunk[2]; c2++ {
		for c1 := minChunk[1]; c1 <= maxChunk[1]; c1++ {
			for c0 := minChunk[0]; c0 <= maxChunk[0]; c0++ {
				key := ChunkKey{Channel: channel, LOD: lod, Coord: vds.ChunkPoint3d{c0, c1, c2}}
				nbricks++
				eg.Go(func() error {
					data, err := g.getBrick(egCtx, key, brick, elem)
					if err != nil {
						return err
					}
					if data != nil {
						copyOverlap(out, min, shape, data, key.Coord.MinPoint(brick), brick, elem)
					}
					return nil
				})
			}
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	timedLog.Debugf("Read %s lod %d %s-%s (%d bricks, %s)", channel, lod, min, max, nbricks, humanize.Bytes(uint64(len(out))))
	return out, nil
}

// getBrick returns the decompressed brick, or nil if the brick was never written.
func (g *GridStore) getBrick(ctx context.Context, key ChunkKey, brick vds.Point3d, elem int) ([]byte, error) {
	if data, found := g.cache.Get(key); found {
		return data, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bo := gax.Backoff{
		Initial:    g.opts.BackoffInitial,
		Max:        g.opts.BackoffMax,
		Multiplier: 2,
	}
	var serialized []byte
	for attempt := 0; ; attempt++ {
		var err error
		serialized, err = g.backend.GetChunk(ctx, key)
		if err == nil {
			break
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !IsTransient(err) || attempt >= g.opts.Retries {
			return nil, vds.FetchError(key.Channel, key.LOD, key.Coord, err)
		}
		g.stats.retries.Add(1)
		pause := bo.Pause()
		vds.Debugf("retrying brick %s in %s after: %v\n", key, pause, err)
		if err := gax.Sleep(ctx, pause); err != nil {
			return nil, err
		}
	}
	if serialized == nil {
		g.stats.missing.Add(1)
		return nil, nil
	}
	data, _, err := vds.DeserializeData(serialized)
	if err != nil {
		return nil, vds.FetchError(key.Channel, key.LOD, key.Coord, err)
	}
	if want := int(brick.Prod()) * elem; len(data) != want {
		return nil, vds.FetchError(key.Channel, key.LOD, key.Coord,
			fmt.Errorf("brick has %d bytes, expected %d", len(data), want))
	}
	g.stats.fetched.Add(1)
	g.stats.bytes.Add(int64(len(serialized)))
	g.cache.Add(key, data)
	return data, nil
}

// copyOverlap copies the part of a brick that falls inside the destination box.
// Both buffers are in store order with dim 0 fastest, and runs along dim 0 are
// contiguous in each.
func copyOverlap(dst []byte, dstMin, dstShape vds.Point3d, src []byte, srcMin, srcShape vds.Point3d, elem int) {
	var lo, hi vds.Point3d
	for d := 0; d < 3; d++ {
		lo[d] = dstMin[d]
		if srcMin[d] > lo[d] {
			lo[d] = srcMin[d]
		}
		hi[d] = dstMin[d] + dstShape[d]
		if end := srcMin[d] + srcShape[d]; end < hi[d] {
			hi[d] = end
		}
		if hi[d] <= lo[d] {
			return
		}
	}
	run := int(hi[0]-lo[0]) * elem
	for d2 := lo[2]; d2 < hi[2]; d2++ {
		for d1 := lo[1]; d1 < hi[1]; d1++ {
			s := ((int(d2-srcMin[2])*int(srcShape[1])+int(d1-srcMin[1]))*int(srcShape[0]) + int(lo[0]-srcMin[0])) * elem
			t := ((int(d2-dstMin[2])*int(dstShape[1])+int(d1-dstMin[1]))*int(dstShape[0]) + int(lo[0]-dstMin[0])) * elem
			copy(dst[t:t+run], src[s:s+run])
		}
	}
}
