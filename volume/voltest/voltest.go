// Package voltest builds small synthetic volumes for tests.  Every sample encodes
// its own position, so tests can check reads for exact equality.
package voltest

import (
	"context"
	"testing"

	"github.com/janelia-flyem/seisvds/segy"
	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"
)

// Value returns the sample stored at inline, crossline and sample ordinals.
func Value(il, xl, z int) float32 {
	return float32(il*10000 + xl*100 + z)
}

// SmallAxes returns the axes of a 5 x 5 x 50 survey: inlines 1..5, crosslines
// 20..24 and samples 0, 4, ..., 196 ms.
func SmallAxes() [vds.NumAxes]vds.AxisDescriptor {
	return [vds.NumAxes]vds.AxisDescriptor{
		{Name: "Inline", Min: 1, Max: 5, Step: 1},
		{Name: "Crossline", Min: 20, Max: 24, Step: 1},
		{Name: "Sample", Unit: "ms", Min: 0, Max: 196, Step: 4},
	}
}

// SmallBrick splits the small survey into several bricks along every axis,
// including partial edge bricks.
var SmallBrick = vds.Point3d{16, 2, 2}

// NewLayout returns a layout with SEG-Y file headers describing the axes.
func NewLayout(axes [vds.NumAxes]vds.AxisDescriptor, brick vds.Point3d, lods int) *vds.Layout {
	layout := vds.NewLayout(axes, brick, lods, vds.Zstd)
	text, err := segy.EncodeText(segy.CardImages("synthetic test volume", "value = il*10000 + xl*100 + z"))
	if err != nil {
		panic(err)
	}
	bin := segy.BinaryHeader{
		segy.BinSamples:  int32(axes[vds.Sample].Len()),
		segy.BinInterval: int32(axes[vds.Sample].Step * 1000),
		segy.BinFormat:   int32(segy.FormatIEEE),
	}
	layout.Metadata[vds.TextHeaderMeta] = text
	layout.Metadata[vds.BinaryHeaderMeta] = bin.Bytes()
	return layout
}

// Header returns the trace header written for a trace.
func Header(layout *vds.Layout, il, xl int) segy.TraceHeader {
	axes := layout.Axes
	return segy.TraceHeader{
		segy.TraceSequenceFile:   int32(il*axes[vds.Crossline].Len() + xl + 1),
		segy.Inline3D:            int32(axes[vds.Inline].Coordinate(il)),
		segy.Crossline3D:         int32(axes[vds.Crossline].Coordinate(xl)),
		segy.TraceSampleCount:    int32(axes[vds.Sample].Len()),
		segy.TraceSampleInterval: int32(axes[vds.Sample].Step * 1000),
	}
}

// Write fills the backend with the synthetic volume described by layout.
func Write(ctx context.Context, backend storage.ChunkBackend, layout *vds.Layout) error {
	w, err := storage.NewWriter(ctx, backend, layout)
	if err != nil {
		return err
	}
	shape := layout.Shape()
	samples := make([]float32, shape[vds.Sample])
	for il := 0; il < shape[vds.Inline]; il++ {
		for xl := 0; xl < shape[vds.Crossline]; xl++ {
			for z := range samples {
				samples[z] = Value(il, xl, z)
			}
			if err := w.WriteTrace(ctx, il, xl, samples, Header(layout, il, xl).Bytes()); err != nil {
				return err
			}
		}
	}
	return w.Close(ctx)
}

// NewStore writes the synthetic volume into a memory backend and opens it.
func NewStore(tb testing.TB, layout *vds.Layout, opts storage.Options) *storage.GridStore {
	tb.Helper()
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	if err := Write(ctx, backend, layout); err != nil {
		tb.Fatalf("unable to write test volume: %v", err)
	}
	store, err := storage.OpenBackend(ctx, backend, opts)
	if err != nil {
		tb.Fatalf("unable to open test volume: %v", err)
	}
	return store
}

// Small returns a store holding the 5 x 5 x 50 survey.
func Small(tb testing.TB) *storage.GridStore {
	return NewStore(tb, NewLayout(SmallAxes(), SmallBrick, 1), storage.DefaultOptions())
}
