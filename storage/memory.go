package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blang/semver"
	"github.com/janelia-flyem/seisvds/vds"
)

func init() {
	ver, err := semver.Make("1.0.0")
	if err != nil {
		vds.Errorf("Unable to make semver in memory engine: %v\n", err)
	}
	RegisterEngine(memoryEngine{"memory", "In-process memory store", ver})
}

type memoryEngine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e memoryEngine) GetName() string {
	return e.name
}

func (e memoryEngine) GetDescription() string {
	return e.desc
}

func (e memoryEngine) GetSemVer() semver.Version {
	return e.semver
}

func (e memoryEngine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewBackend returns a memory backend.  Backends configured with the same "name"
// share one volume that lives until the process exits, so a volume made with
// Create can later be opened.  Without a name each call returns an independent,
// empty store.
func (e memoryEngine) NewBackend(ctx context.Context, config vds.StoreConfig) (ChunkBackend, error) {
	name, found, err := config.GetString("name")
	if err != nil {
		return nil, err
	}
	if !found || name == "" {
		return NewMemoryBackend(), nil
	}
	namedMu.Lock()
	defer namedMu.Unlock()
	vol, found := namedVolumes[name]
	if !found {
		vol = newMemoryVolume()
		namedVolumes[name] = vol
	}
	return &MemoryBackend{name: name, vol: vol}, nil
}

var (
	namedMu      sync.Mutex
	namedVolumes = make(map[string]*memoryVolume)
)

type memoryVolume struct {
	mu     sync.RWMutex
	chunks map[ChunkKey][]byte
	meta   map[string][]byte
}

func newMemoryVolume() *memoryVolume {
	return &memoryVolume{
		chunks: make(map[ChunkKey][]byte),
		meta:   make(map[string][]byte),
	}
}

// MemoryBackend keeps bricks in process memory.
type MemoryBackend struct {
	name   string
	vol    *memoryVolume
	closed atomic.Bool
}

// NewMemoryBackend returns an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{vol: newMemoryVolume()}
}

func (m *MemoryBackend) String() string {
	if m.name != "" {
		return fmt.Sprintf("memory store %q", m.name)
	}
	return fmt.Sprintf("memory store %p", m)
}

// NumChunks returns the number of stored bricks.
func (m *MemoryBackend) NumChunks() int {
	m.vol.mu.RLock()
	defer m.vol.mu.RUnlock()
	return len(m.vol.chunks)
}

func (m *MemoryBackend) GetChunk(ctx context.Context, key ChunkKey) ([]byte, error) {
	if m.closed.Load() {
		return nil, vds.ErrClosed
	}
	m.vol.mu.RLock()
	defer m.vol.mu.RUnlock()
	return m.vol.chunks[key], nil
}

func (m *MemoryBackend) PutChunk(ctx context.Context, key ChunkKey, data []byte) error {
	if m.closed.Load() {
		return vds.ErrClosed
	}
	m.vol.mu.Lock()
	defer m.vol.mu.Unlock()
	m.vol.chunks[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) GetMeta(ctx context.Context, name string) ([]byte, error) {
	if m.closed.Load() {
		return nil, vds.ErrClosed
	}
	m.vol.mu.RLock()
	defer m.vol.mu.RUnlock()
	return m.vol.meta[name], nil
}

func (m *MemoryBackend) PutMeta(ctx context.Context, name string, data []byte) error {
	if m.closed.Load() {
		return vds.ErrClosed
	}
	m.vol.mu.Lock()
	defer m.vol.mu.Unlock()
	m.vol.meta[name] = append([]byte(nil), data...)
	return nil
}

// Close marks this backend closed.  A named volume stays available to other
// backends.
func (m *MemoryBackend) Close() error {
	m.closed.Store(true)
	return nil
}
