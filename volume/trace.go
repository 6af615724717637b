package volume

import (
	"context"

	"github.com/janelia-flyem/seisvds/segy"
	"github.com/janelia-flyem/seisvds/vds"
)

// TracePosition returns the inline and crossline ordinals of a trace.  Traces are
// numbered with the crossline varying fastest; headers and samples share this
// numbering.
func (s *Session) TracePosition(i int) (il, xl int, err error) {
	n := s.TraceCount()
	if i < 0 || i >= n {
		return 0, 0, &vds.RangeError{What: "trace", Value: i, Min: 0, Max: n}
	}
	nxl := s.shape[vds.Crossline]
	return i / nxl, i % nxl, nil
}

// TraceIndex returns the trace ordinal at an inline and crossline ordinal.
func (s *Session) TraceIndex(il, xl int) (int, error) {
	if err := s.checkOrdinal(vds.Inline, il); err != nil {
		return 0, err
	}
	if err := s.checkOrdinal(vds.Crossline, xl); err != nil {
		return 0, err
	}
	return il*s.shape[vds.Crossline] + xl, nil
}

// GetTrace returns the samples of trace i.
func (s *Session) GetTrace(ctx context.Context, i int) (*vds.SampleBuffer, error) {
	il, xl, err := s.TracePosition(i)
	if err != nil {
		return nil, err
	}
	buf, err := s.ReadSubset(ctx, vds.Box(il, il+1, xl, xl+1, 0, s.shape[vds.Sample]))
	if err != nil {
		return nil, err
	}
	return buf.Reshape(s.shape[vds.Sample])
}

// RawHeader returns the 240 header bytes of trace i.  Volumes written without
// headers return zeros.
func (s *Session) RawHeader(ctx context.Context, i int) ([]byte, error) {
	il, xl, err := s.TracePosition(i)
	if err != nil {
		return nil, err
	}
	ch, found := s.layout.Channel(vds.TraceHeaderChannel)
	if !found {
		return nil, vds.StoreError("volume has no trace header channel", nil)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, vds.ErrClosed
	}
	min := vds.Point3d{0, int32(xl), int32(il)}
	max := vds.Point3d{ch.Dim0, int32(xl + 1), int32(il + 1)}
	return s.store.RequestSubset(ctx, vds.TraceHeaderChannel, 0, min, max)
}

// GetHeader returns the decoded header of trace i.
func (s *Session) GetHeader(ctx context.Context, i int) (segy.TraceHeader, error) {
	raw, err := s.RawHeader(ctx, i)
	if err != nil {
		return nil, err
	}
	return segy.ParseTraceHeader(raw)
}
