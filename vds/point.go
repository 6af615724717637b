package vds

import (
	"encoding/binary"
	"fmt"
)

// Point3d is an ordinal position in store order: dim 0 is the sample axis, dim 1
// the crossline axis and dim 2 the inline axis.
type Point3d [3]int32

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Value returns the value at the given dimension.
func (p Point3d) Value(dim uint8) int32 {
	return p[dim]
}

// Add returns the component-wise sum.
func (p Point3d) Add(x Point3d) Point3d {
	return Point3d{p[0] + x[0], p[1] + x[1], p[2] + x[2]}
}

// Sub returns the component-wise difference.
func (p Point3d) Sub(x Point3d) Point3d {
	return Point3d{p[0] - x[0], p[1] - x[1], p[2] - x[2]}
}

// Prod returns the product of the point's components.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

// SetMinimum sets the point to the minimum elements of current and passed points.
func (p *Point3d) SetMinimum(p2 Point3d) {
	for i := range p {
		if p2[i] < p[i] {
			p[i] = p2[i]
		}
	}
}

// SetMaximum sets the point to the maximum elements of current and passed points.
func (p *Point3d) SetMaximum(p2 Point3d) {
	for i := range p {
		if p2[i] > p[i] {
			p[i] = p2[i]
		}
	}
}

// Chunk returns the chunk containing this point for the given chunk size.
// Ordinals are never negative, so plain integer division suffices.
func (p Point3d) Chunk(size Point3d) ChunkPoint3d {
	return ChunkPoint3d{p[0] / size[0], p[1] / size[1], p[2] / size[2]}
}

// PointInChunk returns the offset of this point within its chunk.
func (p Point3d) PointInChunk(size Point3d) Point3d {
	return Point3d{p[0] % size[0], p[1] % size[1], p[2] % size[2]}
}

// Halve returns the extent at the next coarser level of detail.
func (p Point3d) Halve() Point3d {
	return Point3d{(p[0] + 1) / 2, (p[1] + 1) / 2, (p[2] + 1) / 2}
}

// ChunkPoint3d handles 3d chunk (brick) coordinates in store order.
type ChunkPoint3d [3]int32

func (c ChunkPoint3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}

// MinPoint returns the smallest ordinal covered by the chunk.
func (c ChunkPoint3d) MinPoint(size Point3d) Point3d {
	return Point3d{c[0] * size[0], c[1] * size[1], c[2] * size[2]}
}

// MaxPoint returns the largest ordinal covered by the chunk, inclusive.
func (c ChunkPoint3d) MaxPoint(size Point3d) Point3d {
	return Point3d{
		(c[0]+1)*size[0] - 1,
		(c[1]+1)*size[1] - 1,
		(c[2]+1)*size[2] - 1,
	}
}

// Bytes returns a 12-byte big-endian encoding that sorts chunks with the inline
// coordinate most significant.
func (c ChunkPoint3d) Bytes() []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint32(b[0:4], uint32(c[2]))
	binary.BigEndian.PutUint32(b[4:8], uint32(c[1]))
	binary.BigEndian.PutUint32(b[8:12], uint32(c[0]))
	return b
}

// ChunkPointFromBytes decodes the encoding returned by ChunkPoint3d.Bytes.
func ChunkPointFromBytes(b []byte) (ChunkPoint3d, error) {
	if len(b) != 12 {
		return ChunkPoint3d{}, fmt.Errorf("chunk point encoding needs 12 bytes, got %d", len(b))
	}
	return ChunkPoint3d{
		int32(binary.BigEndian.Uint32(b[8:12])),
		int32(binary.BigEndian.Uint32(b[4:8])),
		int32(binary.BigEndian.Uint32(b[0:4])),
	}, nil
}

// NumChunks returns the number of chunks along each dimension needed to cover extent.
func NumChunks(extent, size Point3d) Point3d {
	var n Point3d
	for i := range n {
		n[i] = (extent[i] + size[i] - 1) / size[i]
	}
	return n
}
