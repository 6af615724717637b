package storage

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/janelia-flyem/seisvds/vds"
)

func TestEngineRegistry(t *testing.T) {
	e, err := GetEngine("memory")
	if err != nil {
		t.Fatal(err)
	}
	if e.GetName() != "memory" || e.GetSemVer().Major != 1 {
		t.Errorf("unexpected engine %s", e)
	}
	if _, err := GetEngine("basholeveldb"); err == nil {
		t.Errorf("expected unknown engine to fail")
	}
	found := false
	for _, name := range EngineNames() {
		if name == "memory" {
			found = true
		}
	}
	if !found {
		t.Errorf("memory engine not listed in %v", EngineNames())
	}
	if !strings.Contains(EnginesAvailable(), "In-process memory store") {
		t.Errorf("bad engine description:\n%s", EnginesAvailable())
	}
}

func TestCreateAndOpenUnknownEngine(t *testing.T) {
	ctx := context.Background()
	cfg := vds.StoreConfig{Config: vds.NewConfig(), Engine: "nosuch"}
	if _, err := Open(ctx, cfg, DefaultOptions()); !errors.Is(err, vds.ErrStoreUnavailable) {
		t.Errorf("expected store unavailable, got %v", err)
	}
	w, err := Create(ctx, vds.StoreConfig{Config: vds.NewConfig(), Engine: "memory"}, testLayout(t, 1, vds.Snappy))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestNamedMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := vds.StoreConfig{Config: vds.NewConfig(), Engine: "memory"}
	cfg.Set("name", "TestNamedMemoryStore")
	w, err := Create(ctx, cfg, testLayout(t, 1, vds.Snappy))
	if err != nil {
		t.Fatal(err)
	}
	shape := w.Layout().Shape()
	samples := make([]float32, shape[vds.Sample])
	for il := 0; il < shape[vds.Inline]; il++ {
		for xl := 0; xl < shape[vds.Crossline]; xl++ {
			samples[0] = sampleValue(il, xl, 0)
			if err := w.WriteTrace(ctx, il, xl, samples, testHeader(il, xl)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}

	g, err := Open(ctx, cfg, DefaultOptions())
	if err != nil {
		t.Fatalf("unable to reopen named memory store: %v", err)
	}
	defer g.Close()
	raw, err := g.RequestSubset(ctx, vds.AmplitudeChannel, 0, vds.Point3d{0, 3, 2}, vds.Point3d{1, 4, 3})
	if err != nil {
		t.Fatal(err)
	}
	if got := vds.Float32sFromBytes(raw); got[0] != sampleValue(2, 3, 0) {
		t.Errorf("expected %g from reopened store, got %g", sampleValue(2, 3, 0), got[0])
	}

	anon := vds.StoreConfig{Config: vds.NewConfig(), Engine: "memory"}
	if _, err := Open(ctx, anon, DefaultOptions()); !errors.Is(err, vds.ErrStoreUnavailable) {
		t.Errorf("expected unnamed memory store to have no volume, got %v", err)
	}
}

func TestChunkKey(t *testing.T) {
	k := ChunkKey{Channel: vds.AmplitudeChannel, LOD: 2, Coord: vds.ChunkPoint3d{3, 4, 5}}
	if k.String() != "Amplitude/2/5_4_3" {
		t.Errorf("bad key string %q", k)
	}
	got, err := ParseChunkKey(k.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got != k {
		t.Errorf("expected %v, got %v", k, got)
	}
	lo := ChunkKey{Channel: vds.AmplitudeChannel, Coord: vds.ChunkPoint3d{9, 9, 0}}.Bytes()
	hi := ChunkKey{Channel: vds.AmplitudeChannel, Coord: vds.ChunkPoint3d{0, 0, 1}}.Bytes()
	if bytes.Compare(lo, hi) >= 0 {
		t.Errorf("keys should sort with inline brick most significant")
	}
	if _, err := ParseChunkKey([]byte("Amplitude")); err == nil {
		t.Errorf("expected malformed key error")
	}
}

func TestLayoutEncoding(t *testing.T) {
	l := testLayout(t, 3, vds.Zstd)
	l.Metadata[vds.TextHeaderMeta] = []byte("C 1 CLIENT")
	l.Metadata[vds.BinaryHeaderMeta] = make([]byte, 400)
	l.Axes[2].Unit = "ms"

	data, err := EncodeLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeLayout(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, l) {
		t.Errorf("layout changed on round trip:\n%+v\n%+v", l, got)
	}

	l.Version = "2.1.0"
	if _, err := EncodeLayout(l); err == nil {
		t.Errorf("expected invalid layout to fail encoding")
	}
	if _, err := DecodeLayout(data[:len(data)/2]); err == nil {
		t.Errorf("expected truncated layout to fail decoding")
	}
}

func TestNewCache(t *testing.T) {
	key := ChunkKey{Channel: vds.AmplitudeChannel, Coord: vds.ChunkPoint3d{1, 2, 3}}
	for _, kind := range []string{"lru", "freecache"} {
		c, err := NewCache(CacheConfig{Kind: kind, Entries: 2, MB: 1}, 16)
		if err != nil {
			t.Fatal(err)
		}
		if _, found := c.Get(key); found {
			t.Errorf("%s: unexpected hit on empty cache", kind)
		}
		c.Add(key, []byte{1, 2, 3})
		data, found := c.Get(key)
		if !found || !bytes.Equal(data, []byte{1, 2, 3}) {
			t.Errorf("%s: expected cached brick, got %v", kind, data)
		}
		stats := c.Stats()
		if stats.Kind != kind || stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
			t.Errorf("%s: unexpected stats %+v", kind, stats)
		}
	}

	c, _ := NewCache(CacheConfig{Kind: "lru", Entries: 2}, 16)
	for i := int32(0); i < 3; i++ {
		c.Add(ChunkKey{Coord: vds.ChunkPoint3d{i, 0, 0}}, make([]byte, 10))
	}
	if stats := c.Stats(); stats.Entries != 2 || stats.Bytes != 20 {
		t.Errorf("expected eviction to 2 entries / 20 bytes, got %+v", stats)
	}
	if _, found := c.Get(ChunkKey{Coord: vds.ChunkPoint3d{0, 0, 0}}); found {
		t.Errorf("oldest brick should have been evicted")
	}

	if _, err := NewCache(CacheConfig{Kind: "arc"}, 16); err == nil {
		t.Errorf("expected unknown cache kind to fail")
	}
	none, _ := NewCache(CacheConfig{Kind: "none"}, 16)
	none.Add(key, []byte{1})
	if _, err := NewCache(CacheConfig{Kind: "freecache", MB: 64}, 1<<20); err == nil {
		t.Errorf("expected a freecache too small for 1 MiB bricks to fail")
	}
	if _, found := none.Get(key); found {
		t.Errorf("none cache should never hit")
	}
}
