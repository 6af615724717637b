package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/seisvds/vds"
)

// Writer stores traces as compressed bricks.  Traces may arrive in any order; each
// brick row of inlines is buffered until all of its traces are written, so sorted
// input keeps a single row in memory.  The layout is written by Close, so a volume
// whose writer was never closed cannot be opened.
type Writer struct {
	backend ChunkBackend
	owned   bool
	layout  *vds.Layout

	amp, hdr   vds.Channel
	ampExtent  vds.Point3d
	rowInlines int
	paddedXL   int

	mu      sync.Mutex
	rows    map[int]*brickRow
	flushed map[int]bool
	closed  bool

	bricks int
	bytes  int64
}

type brickRow struct {
	amp     []float32
	hdr     []byte
	written []bool
	count   int
}

// NewWriter returns a writer for a new volume in the backend.  The caller keeps
// ownership of the backend.
func NewWriter(ctx context.Context, backend ChunkBackend, layout *vds.Layout) (*Writer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	amp, _ := layout.Channel(vds.AmplitudeChannel)
	hdr, found := layout.Channel(vds.TraceHeaderChannel)
	if !found {
		return nil, fmt.Errorf("layout has no %s channel", vds.TraceHeaderChannel)
	}
	if hdr.Dim0 != vds.TraceHeaderSize || hdr.BrickDim0 != vds.TraceHeaderSize {
		return nil, fmt.Errorf("%s channel must hold whole %d-byte headers per brick", vds.TraceHeaderChannel, vds.TraceHeaderSize)
	}
	ext := layout.Extent()
	brick := layout.BrickSize
	return &Writer{
		backend:    backend,
		layout:     layout,
		amp:        amp,
		hdr:        hdr,
		ampExtent:  ext,
		rowInlines: int(brick[2]),
		paddedXL:   int(vds.NumChunks(ext, brick)[1] * brick[1]),
		rows:       make(map[int]*brickRow),
		flushed:    make(map[int]bool),
	}, nil
}

// Layout returns the layout being written.  Metadata may be added until Close.
func (w *Writer) Layout() *vds.Layout {
	return w.layout
}

func (w *Writer) paddedSamples() int {
	b := int(w.layout.BrickSize[0])
	return (int(w.ampExtent[0]) + b - 1) / b * b
}

// WriteTrace stores the samples and the 240-byte header of the trace at the given
// inline and crossline ordinals.
func (w *Writer) WriteTrace(ctx context.Context, il, xl int, samples []float32, header []byte) error {
	nIL, nXL, nZ := int(w.ampExtent[2]), int(w.ampExtent[1]), int(w.ampExtent[0])
	if il < 0 || il >= nIL {
		return &vds.RangeError{What: "inline ordinal", Value: il, Min: 0, Max: nIL}
	}
	if xl < 0 || xl >= nXL {
		return &vds.RangeError{What: "crossline ordinal", Value: xl, Min: 0, Max: nXL}
	}
	if len(samples) != nZ {
		return fmt.Errorf("trace (%d, %d) has %d samples, volume has %d", il, xl, len(samples), nZ)
	}
	if header != nil && len(header) != vds.TraceHeaderSize {
		return fmt.Errorf("trace (%d, %d) header has %d bytes, expected %d", il, xl, len(header), vds.TraceHeaderSize)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("writer: %w", vds.ErrClosed)
	}
	r := il / w.rowInlines
	if w.flushed[r] {
		return fmt.Errorf("trace (%d, %d) arrived after its brick row was stored", il, xl)
	}
	row, found := w.rows[r]
	if !found {
		pz := w.paddedSamples()
		row = &brickRow{
			amp:     make([]float32, w.rowInlines*w.paddedXL*pz),
			hdr:     make([]byte, w.rowInlines*w.paddedXL*vds.TraceHeaderSize),
			written: make([]bool, w.rowInlines*nXL),
		}
		w.rows[r] = row
	}
	local := il % w.rowInlines
	trace := local*w.paddedXL + xl
	copy(row.amp[trace*w.paddedSamples():], samples)
	if header != nil {
		copy(row.hdr[trace*vds.TraceHeaderSize:], header)
	}
	if !row.written[local*nXL+xl] {
		row.written[local*nXL+xl] = true
		row.count++
	}

	rowEnd := (r + 1) * w.rowInlines
	if rowEnd > nIL {
		rowEnd = nIL
	}
	if row.count == (rowEnd-r*w.rowInlines)*nXL {
		return w.flushRow(ctx, r)
	}
	return nil
}

// flushRow stores the bricks of a buffered row.  All-zero bricks are skipped since
// missing bricks read as zeros.
func (w *Writer) flushRow(ctx context.Context, r int) error {
	row := w.rows[r]
	delete(w.rows, r)
	w.flushed[r] = true

	brick := w.layout.BrickSize
	pz := w.paddedSamples()
	nChunks := vds.NumChunks(w.ampExtent, brick)
	for c1 := int32(0); c1 < nChunks[1]; c1++ {
		for c0 := int32(0); c0 < nChunks[0]; c0++ {
			data := make([]float32, brick.Prod())
			nonzero := false
			for k := 0; k < int(brick[2]); k++ {
				for j := 0; j < int(brick[1]); j++ {
					src := (k*w.paddedXL+int(c1*brick[1])+j)*pz + int(c0*brick[0])
					dst := (k*int(brick[1]) + j) * int(brick[0])
					copy(data[dst:dst+int(brick[0])], row.amp[src:src+int(brick[0])])
				}
			}
			for _, v := range data {
				if v != 0 {
					nonzero = true
					break
				}
			}
			if !nonzero {
				continue
			}
			key := ChunkKey{Channel: w.amp.Name, Coord: vds.ChunkPoint3d{c0, c1, int32(r)}}
			if err := w.putBrick(ctx, key, vds.Float32sToBytes(data)); err != nil {
				return err
			}
		}

		hsize := vds.TraceHeaderSize * int(brick[1]) * int(brick[2])
		data := make([]byte, hsize)
		nonzero := false
		for k := 0; k < int(brick[2]); k++ {
			src := (k*w.paddedXL + int(c1*brick[1])) * vds.TraceHeaderSize
			dst := k * int(brick[1]) * vds.TraceHeaderSize
			copy(data[dst:dst+int(brick[1])*vds.TraceHeaderSize], row.hdr[src:])
		}
		for _, v := range data {
			if v != 0 {
				nonzero = true
				break
			}
		}
		if nonzero {
			key := ChunkKey{Channel: w.hdr.Name, Coord: vds.ChunkPoint3d{0, c1, int32(r)}}
			if err := w.putBrick(ctx, key, data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) putBrick(ctx context.Context, key ChunkKey, data []byte) error {
	s, err := vds.SerializeData(data, w.layout.Compression, vds.CRC32)
	if err != nil {
		return err
	}
	if err := w.backend.PutChunk(ctx, key, s); err != nil {
		return fmt.Errorf("storing brick %s: %w", key, err)
	}
	w.bricks++
	w.bytes += int64(len(s))
	return nil
}

// Close flushes incomplete rows, builds the coarser levels of detail and writes the
// layout.  Close is idempotent.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.owned {
		defer w.backend.Close()
	}

	timedLog := vds.NewTimeLog()
	for r := range w.rows {
		if err := w.flushRow(ctx, r); err != nil {
			return err
		}
	}
	for lod := 1; lod < w.layout.LODLevels; lod++ {
		if err := w.buildLOD(ctx, lod); err != nil {
			return fmt.Errorf("building lod %d: %w", lod, err)
		}
	}
	data, err := EncodeLayout(w.layout)
	if err != nil {
		return err
	}
	if err := w.backend.PutMeta(ctx, LayoutMeta, data); err != nil {
		return fmt.Errorf("storing layout: %w", err)
	}
	timedLog.Infof("Stored %d bricks (%s) to %s", w.bricks, humanize.Bytes(uint64(w.bytes)), w.backend)
	return nil
}

// buildLOD decimates the amplitudes of the previous level by two along every axis,
// reading it back through a grid store without a cache.
func (w *Writer) buildLOD(ctx context.Context, lod int) error {
	src, err := newGridStore(w.backend, w.layout, Options{Cache: CacheConfig{Kind: "none"}})
	if err != nil {
		return err
	}
	srcExt := w.layout.ChannelExtent(w.amp, lod-1)
	dstExt := w.layout.ChannelExtent(w.amp, lod)
	brick := w.layout.BrickSize
	nChunks := vds.NumChunks(dstExt, brick)
	for c2 := int32(0); c2 < nChunks[2]; c2++ {
		for c1 := int32(0); c1 < nChunks[1]; c1++ {
			for c0 := int32(0); c0 < nChunks[0]; c0++ {
				coord := vds.ChunkPoint3d{c0, c1, c2}
				dstMin := coord.MinPoint(brick)
				var srcMin, srcMax vds.Point3d
				for d := 0; d < 3; d++ {
					srcMin[d] = 2 * dstMin[d]
					srcMax[d] = 2 * (dstMin[d] + brick[d])
					if srcMax[d] > srcExt[d] {
						srcMax[d] = srcExt[d]
					}
				}
				raw, err := src.RequestSubset(ctx, w.amp.Name, lod-1, srcMin, srcMax)
				if err != nil {
					return err
				}
				samples := vds.Float32sFromBytes(raw)
				shape := srcMax.Sub(srcMin)
				data := make([]float32, brick.Prod())
				nonzero := false
				for k := int32(0); k < brick[2] && 2*k < shape[2]; k++ {
					for j := int32(0); j < brick[1] && 2*j < shape[1]; j++ {
						for i := int32(0); i < brick[0] && 2*i < shape[0]; i++ {
							v := samples[(int(2*k)*int(shape[1])+int(2*j))*int(shape[0])+int(2*i)]
							data[(int(k)*int(brick[1])+int(j))*int(brick[0])+int(i)] = v
							if v != 0 {
								nonzero = true
							}
						}
					}
				}
				if !nonzero {
					continue
				}
				key := ChunkKey{Channel: w.amp.Name, LOD: lod, Coord: coord}
				if err := w.putBrick(ctx, key, vds.Float32sToBytes(data)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
