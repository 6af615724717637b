package volume

import (
	"context"
	"fmt"

	"github.com/janelia-flyem/seisvds/vds"
)

// ReadSubset returns the samples of an ordinal box with shape (inlines,
// crosslines, samples).  The box is checked against the volume before any brick
// is read and the result is never shared with another request.
func (s *Session) ReadSubset(ctx context.Context, box vds.OrdinalBox) (*vds.SampleBuffer, error) {
	return s.ReadSubsetLOD(ctx, 0, box)
}

// ReadSubsetLOD returns the samples of an ordinal box at a level of detail.  Each
// level halves the volume along every axis, so the box is in the ordinals of that
// level, and LODShape gives its bounds.
func (s *Session) ReadSubsetLOD(ctx context.Context, lod int, box vds.OrdinalBox) (*vds.SampleBuffer, error) {
	shape, err := s.LODShape(lod)
	if err != nil {
		return nil, err
	}
	if err := box.Validate(shape); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, vds.ErrClosed
	}
	bufShape := box.Shape()
	buf := vds.NewSampleBuffer(bufShape[:]...)
	if box.Empty() {
		return buf, nil
	}
	// Store order puts the sample axis fastest and the inline axis slowest, which
	// is row-major (inline, crossline, sample), so the raw samples need no permuting.
	min, max := box.StoreOrder()
	data, err := s.store.RequestSubset(ctx, vds.AmplitudeChannel, lod, min, max)
	if err != nil {
		return nil, err
	}
	buf.Data = vds.Float32sFromBytes(data)
	if len(buf.Data) != box.NumSamples() {
		return nil, vds.FetchError(vds.AmplitudeChannel, lod, min.Chunk(s.layout.BrickSize),
			fmt.Errorf("store returned %d samples, expected %d", len(buf.Data), box.NumSamples()))
	}
	return buf, nil
}

// LODShape returns the number of inlines, crosslines and samples at a level of
// detail.
func (s *Session) LODShape(lod int) ([vds.NumAxes]int, error) {
	ch, _ := s.layout.Channel(vds.AmplitudeChannel)
	if n := s.layout.NumLODs(ch); lod < 0 || lod >= n {
		return [vds.NumAxes]int{}, &vds.RangeError{What: "level of detail", Value: lod, Min: 0, Max: n}
	}
	ext := s.layout.ChannelExtent(ch, lod)
	var shape [vds.NumAxes]int
	for a := vds.Inline; a <= vds.Sample; a++ {
		shape[a] = int(ext[a.StoreDim()])
	}
	return shape, nil
}
