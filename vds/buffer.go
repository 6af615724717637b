package vds

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleBuffer is a dense row-major array of single-precision samples.  The last
// dimension varies fastest.  Buffers returned by reads are never shared between
// requests.
type SampleBuffer struct {
	Shape []int
	Data  []float32
}

// NewSampleBuffer allocates a zeroed buffer of the given shape.
func NewSampleBuffer(shape ...int) *SampleBuffer {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &SampleBuffer{Shape: append([]int(nil), shape...), Data: make([]float32, n)}
}

// NumDims returns the number of dimensions.
func (b *SampleBuffer) NumDims() int {
	return len(b.Shape)
}

// Len returns the number of samples.
func (b *SampleBuffer) Len() int {
	return len(b.Data)
}

// Offset returns the flat index of a multi-dimensional index.
func (b *SampleBuffer) Offset(idx ...int) int {
	if len(idx) != len(b.Shape) {
		panic(fmt.Sprintf("index of %d dims into buffer of %d dims", len(idx), len(b.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= b.Shape[i] {
			panic(fmt.Sprintf("index %v out of bounds for shape %v", idx, b.Shape))
		}
		off = off*b.Shape[i] + v
	}
	return off
}

// At returns the sample at a multi-dimensional index.
func (b *SampleBuffer) At(idx ...int) float32 {
	return b.Data[b.Offset(idx...)]
}

// Reshape returns a buffer viewing the same samples with a new shape.
func (b *SampleBuffer) Reshape(shape ...int) (*SampleBuffer, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(b.Data) {
		return nil, fmt.Errorf("cannot reshape %v (%d samples) into %v", b.Shape, len(b.Data), shape)
	}
	return &SampleBuffer{Shape: append([]int(nil), shape...), Data: b.Data}, nil
}

// Clone returns a deep copy.
func (b *SampleBuffer) Clone() *SampleBuffer {
	return &SampleBuffer{
		Shape: append([]int(nil), b.Shape...),
		Data:  append([]float32(nil), b.Data...),
	}
}

// Equal is true if the shapes and samples are identical.
func (b *SampleBuffer) Equal(o *SampleBuffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if len(b.Shape) != len(o.Shape) || len(b.Data) != len(o.Data) {
		return false
	}
	for i := range b.Shape {
		if b.Shape[i] != o.Shape[i] {
			return false
		}
	}
	for i := range b.Data {
		if b.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Concat joins buffers along the first dimension.  All buffers must agree in the
// remaining dimensions.
func Concat(bufs ...*SampleBuffer) (*SampleBuffer, error) {
	if len(bufs) == 0 {
		return nil, fmt.Errorf("no buffers to concatenate")
	}
	rest := bufs[0].Shape[1:]
	total := 0
	for _, b := range bufs {
		if len(b.Shape) != len(rest)+1 {
			return nil, fmt.Errorf("cannot concatenate shape %v with %v", b.Shape, bufs[0].Shape)
		}
		for i, s := range rest {
			if b.Shape[i+1] != s {
				return nil, fmt.Errorf("cannot concatenate shape %v with %v", b.Shape, bufs[0].Shape)
			}
		}
		total += b.Shape[0]
	}
	out := NewSampleBuffer(append([]int{total}, rest...)...)
	off := 0
	for _, b := range bufs {
		off += copy(out.Data[off:], b.Data)
	}
	return out, nil
}

// Bytes returns the samples as little-endian IEEE float32.
func (b *SampleBuffer) Bytes() []byte {
	return Float32sToBytes(b.Data)
}

// SampleStats summarizes the amplitudes of a buffer.
type SampleStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	RMS    float64 `json:"rms"`
}

// Stats computes summary statistics.  An empty buffer returns zero stats.
func (b *SampleBuffer) Stats() SampleStats {
	if len(b.Data) == 0 {
		return SampleStats{}
	}
	x := make([]float64, len(b.Data))
	for i, v := range b.Data {
		x[i] = float64(v)
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		std = 0
	}
	return SampleStats{
		Count:  len(x),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Mean:   mean,
		StdDev: std,
		RMS:    floats.Norm(x, 2) / math.Sqrt(float64(len(x))),
	}
}

func (b *SampleBuffer) String() string {
	return fmt.Sprintf("SampleBuffer%v", b.Shape)
}
