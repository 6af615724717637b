package badger

import (
	"context"
	"testing"

	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := vds.NewConfig()
	cfg.Set("inmemory", true)
	db, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	key := storage.ChunkKey{Channel: vds.TraceHeaderChannel, Coord: vds.ChunkPoint3d{0, 1, 2}}
	data, err := db.GetChunk(ctx, key)
	if err != nil || data != nil {
		t.Fatalf("expected missing brick to be nil/nil, got %v, %v", data, err)
	}
	if err := db.PutChunk(ctx, key, []byte("brick")); err != nil {
		t.Fatal(err)
	}
	if data, err = db.GetChunk(ctx, key); err != nil || string(data) != "brick" {
		t.Fatalf("bad brick read: %q, %v", data, err)
	}
	if err := db.PutMeta(ctx, storage.LayoutMeta, []byte("layout")); err != nil {
		t.Fatal(err)
	}
	if data, err = db.GetMeta(ctx, storage.LayoutMeta); err != nil || string(data) != "layout" {
		t.Fatalf("bad meta read: %q, %v", data, err)
	}
	n, err := db.NumChunks(vds.TraceHeaderChannel, 0)
	if err != nil || n != 1 {
		t.Errorf("expected 1 header brick, got %d (%v)", n, err)
	}
	n, _ = db.NumChunks(vds.AmplitudeChannel, 0)
	if n != 0 {
		t.Errorf("expected no amplitude bricks, got %d", n)
	}
}

func TestPersistentVolume(t *testing.T) {
	ctx := context.Background()
	cfg := vds.StoreConfig{Config: vds.NewConfig(), Engine: "badger"}
	cfg.Set("path", t.TempDir())

	ad, _ := vds.AxisFromCount("Inline", "", 1, 1, 2)
	xd, _ := vds.AxisFromCount("Crossline", "", 1, 1, 2)
	zd, _ := vds.AxisFromCount("Sample", "m", 100, 5, 4)
	w, err := storage.Create(ctx, cfg, vds.NewLayout([vds.NumAxes]vds.AxisDescriptor{ad, xd, zd}, vds.Point3d{4, 2, 2}, 1, vds.Snappy))
	if err != nil {
		t.Fatal(err)
	}
	for il := 0; il < 2; il++ {
		for xl := 0; xl < 2; xl++ {
			if err := w.WriteTrace(ctx, il, xl, []float32{1, 2, 3, float32(il*2 + xl)}, nil); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}

	cfg.Set("readonly", true)
	g, err := storage.Open(ctx, cfg, storage.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	raw, err := g.RequestSubset(ctx, vds.AmplitudeChannel, 0, vds.Point3d{3, 0, 0}, vds.Point3d{4, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	got := vds.Float32sFromBytes(raw)
	for i, v := range got {
		if v != float32(i) {
			t.Errorf("trace %d: expected last sample %d, got %g", i, i, v)
		}
	}
}

func TestConfigErrors(t *testing.T) {
	if _, err := Open(vds.NewConfig()); err == nil {
		t.Errorf("expected missing path to fail")
	}
	cfg := vds.NewConfig()
	cfg.Set("inmemory", "maybe")
	if _, err := Open(cfg); err == nil {
		t.Errorf("expected bad inmemory setting to fail")
	}
}
