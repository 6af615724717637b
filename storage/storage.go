/*
	Package storage provides the chunked volume store: a registry of storage engines
	that persist compressed bricks, and a grid store that answers subset requests by
	fetching, caching and assembling the bricks a request overlaps.

	Each storage engine must implement the Engine interface and register itself
	in an init() function:

		NewBackend(ctx context.Context, config vds.StoreConfig) (ChunkBackend, error)

	Values are opaque []byte at the backend level.  Serialization and compression
	happen in the grid store through vds.SerializeData.
*/
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blang/semver"
	"github.com/janelia-flyem/seisvds/vds"
)

// LayoutMeta is the metadata name under which a store's layout is saved.
const LayoutMeta = "VolumeDataLayout"

// ErrTransient marks backend failures worth retrying, e.g., timeouts or throttling.
var ErrTransient = errors.New("transient storage error")

// IsTransient returns true if the error can be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Engine is a storage engine that can open chunk backends.
type Engine interface {
	fmt.Stringer
	GetName() string
	GetDescription() string
	GetSemVer() semver.Version

	// NewBackend returns a backend for the given configuration, creating the
	// underlying store if it does not exist.
	NewBackend(ctx context.Context, config vds.StoreConfig) (ChunkBackend, error)
}

// ChunkBackend persists serialized bricks and named metadata blobs.  A missing
// brick or blob is returned as nil data with a nil error.  Implementations must be
// safe for concurrent use.
type ChunkBackend interface {
	fmt.Stringer

	GetChunk(ctx context.Context, key ChunkKey) ([]byte, error)
	PutChunk(ctx context.Context, key ChunkKey, data []byte) error

	GetMeta(ctx context.Context, name string) ([]byte, error)
	PutMeta(ctx context.Context, name string, data []byte) error

	Close() error
}

// Store is the chunk store contract consumed by volume sessions.
type Store interface {
	// Layout returns the store layout.  It must not be modified.
	Layout() *vds.Layout

	// RequestSubset returns the raw elements of the store-order box [min, max) of a
	// channel at a level of detail, with dim 0 varying fastest.
	RequestSubset(ctx context.Context, channel string, lod int, min, max vds.Point3d) ([]byte, error)

	Close() error
}

// ChunkKey identifies one brick.
type ChunkKey struct {
	Channel string
	LOD     int
	Coord   vds.ChunkPoint3d
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%s/%d/%d_%d_%d", k.Channel, k.LOD, k.Coord[2], k.Coord[1], k.Coord[0])
}

// Bytes returns a binary key that sorts by channel, level of detail, then inline,
// crossline and sample brick coordinates.
func (k ChunkKey) Bytes() []byte {
	b := make([]byte, 0, len(k.Channel)+14)
	b = append(b, k.Channel...)
	b = append(b, 0, byte(k.LOD))
	return append(b, k.Coord.Bytes()...)
}

// ParseChunkKey decodes a key produced by ChunkKey.Bytes.
func ParseChunkKey(b []byte) (ChunkKey, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 || len(b) != i+14 {
		return ChunkKey{}, fmt.Errorf("malformed chunk key %x", b)
	}
	coord, err := vds.ChunkPointFromBytes(b[i+2:])
	if err != nil {
		return ChunkKey{}, err
	}
	return ChunkKey{Channel: string(b[:i]), LOD: int(b[i+1]), Coord: coord}, nil
}

// Options control how a grid store reads and caches bricks.
type Options struct {
	// Concurrency is the maximum number of in-flight brick fetches per request.
	Concurrency int `toml:"concurrency" yaml:"concurrency"`

	// Retries is the number of times a transient brick failure is retried.
	Retries int `toml:"retries" yaml:"retries"`

	BackoffInitial time.Duration `toml:"-" yaml:"-"`
	BackoffMax     time.Duration `toml:"-" yaml:"-"`

	Cache CacheConfig `toml:"-" yaml:"-"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Concurrency:    8,
		Retries:        3,
		BackoffInitial: 50 * time.Millisecond,
		BackoffMax:     2 * time.Second,
		Cache:          CacheConfig{Kind: "lru", Entries: 512},
	}
}

func (opts *Options) setDefaults() {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.BackoffInitial <= 0 {
		opts.BackoffInitial = def.BackoffInitial
	}
	if opts.BackoffMax < opts.BackoffInitial {
		opts.BackoffMax = opts.BackoffInitial
	}
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// RegisterEngine makes an engine available by name.  It is meant to be called from
// the init() of engine packages.
func RegisterEngine(e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if _, dup := engines[e.GetName()]; dup {
		vds.Errorf("storage engine %q registered twice\n", e.GetName())
	}
	engines[e.GetName()] = e
}

// GetEngine returns the registered engine with the given name.
func GetEngine(name string) (Engine, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	e, found := engines[name]
	if !found {
		return nil, fmt.Errorf("no storage engine %q registered, available: %s", name, strings.Join(engineNames(), ", "))
	}
	return e, nil
}

// EngineNames returns the sorted names of the registered engines.
func EngineNames() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	return engineNames()
}

func engineNames() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnginesAvailable returns a description of the registered engines.
func EnginesAvailable() string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	var lines []string
	for _, name := range engineNames() {
		e := engines[name]
		lines = append(lines, fmt.Sprintf("%s: %s", e, e.GetDescription()))
	}
	return strings.Join(lines, "\n")
}

// NewBackend opens a backend using the engine named by the configuration.
func NewBackend(ctx context.Context, config vds.StoreConfig) (ChunkBackend, error) {
	e, err := GetEngine(config.Engine)
	if err != nil {
		return nil, vds.StoreError(config.String(), err)
	}
	backend, err := e.NewBackend(ctx, config)
	if err != nil {
		return nil, vds.StoreError(config.String(), err)
	}
	return backend, nil
}

// Open returns a grid store over the backend named by the configuration.  The store
// owns the backend and closes it on Close.
func Open(ctx context.Context, config vds.StoreConfig, opts Options) (*GridStore, error) {
	backend, err := NewBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	return OpenBackend(ctx, backend, opts)
}

// Create returns a writer for a new volume in the store named by the configuration.
// The writer owns the backend and closes it on Close.
func Create(ctx context.Context, config vds.StoreConfig, layout *vds.Layout) (*Writer, error) {
	backend, err := NewBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(ctx, backend, layout)
	if err != nil {
		backend.Close()
		return nil, err
	}
	w.owned = true
	return w, nil
}
