package segy

import (
	"context"
	"fmt"
	"sort"

	"github.com/janelia-flyem/seisvds/vds"
)

// ImportOptions control how a SEG-Y file is converted into a volume.
type ImportOptions struct {
	// Header fields holding the inline and crossline numbers, by default bytes 189 and 193.
	InlineField    TraceField
	CrosslineField TraceField

	BrickSize   vds.Point3d
	LODLevels   int
	Compression vds.Compression
}

// DefaultImportOptions returns the options used by segyimport when none are given.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		InlineField:    Inline3D,
		CrosslineField: Crossline3D,
		BrickSize:      vds.DefaultBrickSize,
		LODLevels:      1,
		Compression:    vds.Zstd,
	}
}

// Geometry is the regular survey grid of a post-stack SEG-Y file.
type Geometry struct {
	Axes   [vds.NumAxes]vds.AxisDescriptor
	Traces int
}

// TraceWriter accepts traces by inline and crossline ordinal.
type TraceWriter interface {
	WriteTrace(ctx context.Context, il, xl int, samples []float32, header []byte) error
}

// ScanGeometry reads every trace header and derives the inline, crossline and sample
// axes.  Line numbers must form evenly spaced progressions, though traces may be
// missing.
func ScanGeometry(f *File, opts ImportOptions) (*Geometry, error) {
	if f.TraceCount == 0 {
		return nil, fmt.Errorf("file has no traces")
	}
	ilSet := make(map[int32]struct{})
	xlSet := make(map[int32]struct{})
	var delay int32
	for i := 0; i < f.TraceCount; i++ {
		h, err := f.TraceHeader(i)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			delay = h[DelayRecordingTime]
		}
		ilSet[h[opts.InlineField]] = struct{}{}
		xlSet[h[opts.CrosslineField]] = struct{}{}
	}
	il, err := progression("Inline", ilSet)
	if err != nil {
		return nil, err
	}
	xl, err := progression("Crossline", xlSet)
	if err != nil {
		return nil, err
	}
	interval := float64(f.Interval) / 1000
	if interval <= 0 {
		interval = 1
	}
	z, err := vds.AxisFromCount("Sample", "ms", float64(delay), interval, f.Samples)
	if err != nil {
		return nil, err
	}
	return &Geometry{Axes: [vds.NumAxes]vds.AxisDescriptor{il, xl, z}, Traces: f.TraceCount}, nil
}

func progression(name string, set map[int32]struct{}) (vds.AxisDescriptor, error) {
	values := make([]int, 0, len(set))
	for v := range set {
		values = append(values, int(v))
	}
	sort.Ints(values)
	if len(values) == 1 {
		return vds.AxisFromCount(name, "", float64(values[0]), 1, 1)
	}
	step := values[1] - values[0]
	for i := 2; i < len(values); i++ {
		if d := values[i] - values[i-1]; d < step {
			step = d
		}
	}
	for _, v := range values {
		if (v-values[0])%step != 0 {
			return vds.AxisDescriptor{}, fmt.Errorf("%s number %d is off the grid %d + n*%d", name, v, values[0], step)
		}
	}
	return vds.NewAxisDescriptor(name, "", float64(values[0]), float64(values[len(values)-1]), float64(step))
}

// Layout returns a store layout for the geometry carrying the file's text and
// binary headers as metadata.
func (g *Geometry) Layout(f *File, opts ImportOptions) *vds.Layout {
	brick := opts.BrickSize
	if brick == (vds.Point3d{}) {
		brick = vds.DefaultBrickSize
	}
	l := vds.NewLayout(g.Axes, brick, opts.LODLevels, opts.Compression)
	l.Metadata[vds.TextHeaderMeta] = append([]byte(nil), f.RawText...)
	l.Metadata[vds.BinaryHeaderMeta] = append([]byte(nil), f.RawBinary...)
	return l
}

// Import copies every trace of the file to w at the ordinals given by its header
// line numbers.  It returns the number of traces written.
func Import(ctx context.Context, f *File, g *Geometry, w TraceWriter, opts ImportOptions) (int, error) {
	timedLog := vds.NewTimeLog()
	for i := 0; i < f.TraceCount; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		raw, samples, err := f.ReadTrace(i)
		if err != nil {
			return i, fmt.Errorf("trace %d: %w", i, err)
		}
		h, _ := ParseTraceHeader(raw)
		il, err := g.Axes[vds.Inline].Ordinal(float64(h[opts.InlineField]), false)
		if err != nil {
			return i, fmt.Errorf("trace %d: %w", i, err)
		}
		xl, err := g.Axes[vds.Crossline].Ordinal(float64(h[opts.CrosslineField]), false)
		if err != nil {
			return i, fmt.Errorf("trace %d: %w", i, err)
		}
		if err := w.WriteTrace(ctx, il, xl, samples, raw); err != nil {
			return i, fmt.Errorf("trace %d: %w", i, err)
		}
		if (i+1)%10000 == 0 {
			timedLog.Infof("Imported %d of %d traces", i+1, f.TraceCount)
		}
	}
	return f.TraceCount, nil
}
