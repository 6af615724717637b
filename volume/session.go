package volume

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/janelia-flyem/seisvds/segy"
	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"

	"github.com/twinj/uuid"
)

// Session is an open volume.  It owns its store, which is released by Close, and is
// safe for concurrent use: reads share the session while Close waits for them.
type Session struct {
	id  string
	log vds.PrefixLog

	mu     sync.RWMutex
	store  storage.Store
	closed bool

	layout *vds.Layout
	axes   [vds.NumAxes]vds.AxisDescriptor
	shape  [vds.NumAxes]int
	text   string
	lines  []string
	binary segy.BinaryHeader

	// Inline returns (crossline, sample) sections keyed by inline number.
	Inline *Accessor[int, *vds.SampleBuffer]

	// Crossline returns (inline, sample) sections keyed by crossline number.
	Crossline *Accessor[int, *vds.SampleBuffer]

	// DepthSlice returns (inline, crossline) slices keyed by sample coordinate.
	DepthSlice *Accessor[float64, *vds.SampleBuffer]

	// Trace returns traces keyed by trace ordinal.
	Trace *Accessor[int, *vds.SampleBuffer]

	// Header returns decoded trace headers keyed by trace ordinal.
	Header *Accessor[int, segy.TraceHeader]
}

// Open opens the store named by config and returns a session over it.  Failures
// wrap vds.ErrStoreUnavailable.
func Open(ctx context.Context, config vds.StoreConfig, opts storage.Options) (*Session, error) {
	store, err := storage.Open(ctx, config, opts)
	if err != nil {
		return nil, err
	}
	return OpenStore(store)
}

// OpenStore returns a session owning an already open store.  The store is closed
// if the session cannot be created.
func OpenStore(store storage.Store) (*Session, error) {
	layout := store.Layout()
	if layout == nil {
		store.Close()
		return nil, vds.StoreError(fmt.Sprintf("store %s has no layout", store), nil)
	}
	if err := layout.Validate(); err != nil {
		store.Close()
		return nil, vds.StoreError("bad layout", err)
	}
	s := &Session{
		id:     fmt.Sprintf("%x", uuid.NewV4().Bytes()[:4]),
		store:  store,
		layout: layout,
		axes:   layout.Axes,
		shape:  layout.Shape(),
	}
	s.log = vds.NewPrefixLog("session " + s.id)
	if err := s.readFileHeaders(); err != nil {
		store.Close()
		return nil, vds.StoreError("bad file headers", err)
	}
	s.buildAccessors()
	s.log.Debugf("Opened %s: %s\n", store, layout)
	return s, nil
}

func (s *Session) readFileHeaders() error {
	if b, found := s.layout.Metadata[vds.TextHeaderMeta]; found {
		text, err := segy.DecodeTextAuto(b)
		if err != nil {
			return err
		}
		s.text = text
		if s.lines, err = segy.DecodeTextLines(b); err != nil {
			return err
		}
	}
	if b, found := s.layout.Metadata[vds.BinaryHeaderMeta]; found {
		bin, err := segy.ParseBinaryHeader(b)
		if err != nil {
			return err
		}
		s.binary = bin
	}
	return nil
}

// lineNumbers returns the integer line numbers of an inline or crossline axis.
func lineNumbers(ad vds.AxisDescriptor) []int {
	coords := ad.Coordinates()
	keys := make([]int, len(coords))
	for i, c := range coords {
		keys[i] = int(math.Round(c))
	}
	return keys
}

func ordinals(n int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}
	return keys
}

func (s *Session) buildAccessors() {
	ilAxis, xlAxis, zAxis := s.axes[vds.Inline], s.axes[vds.Crossline], s.axes[vds.Sample]
	s.Inline = NewAccessor(AccessorConfig[int, *vds.SampleBuffer]{
		Name: "inline",
		Keys: lineNumbers(ilAxis),
		Step: int(math.Round(ilAxis.Step)),
		Resolve: func(k int) (int, error) {
			return ilAxis.Ordinal(float64(k), false)
		},
		Read: s.ReadInline,
	})
	s.Crossline = NewAccessor(AccessorConfig[int, *vds.SampleBuffer]{
		Name: "crossline",
		Keys: lineNumbers(xlAxis),
		Step: int(math.Round(xlAxis.Step)),
		Resolve: func(k int) (int, error) {
			return xlAxis.Ordinal(float64(k), false)
		},
		Read: s.ReadCrossline,
	})
	s.DepthSlice = NewAccessor(AccessorConfig[float64, *vds.SampleBuffer]{
		Name: "depth slice",
		Keys: zAxis.Coordinates(),
		Step: zAxis.Step,
		Resolve: func(k float64) (int, error) {
			return zAxis.Ordinal(k, false)
		},
		Read: s.ReadDepthSlice,
	})
	traces := s.TraceCount()
	resolveTrace := func(k int) (int, error) {
		if k < 0 || k >= traces {
			return 0, &vds.RangeError{What: "trace", Value: k, Min: 0, Max: traces}
		}
		return k, nil
	}
	s.Trace = NewAccessor(AccessorConfig[int, *vds.SampleBuffer]{
		Name:    "trace",
		Keys:    ordinals(traces),
		Ordinal: true,
		Resolve: resolveTrace,
		Read:    s.GetTrace,
	})
	s.Header = NewAccessor(AccessorConfig[int, segy.TraceHeader]{
		Name:    "header",
		Keys:    ordinals(traces),
		Ordinal: true,
		Resolve: resolveTrace,
		Read:    s.GetHeader,
	})
}

// ID returns the random identifier prefixed to the session's log messages.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s on %s", s.id, s.store)
}

// Close releases the store.  It is safe to call more than once; later reads fail
// with vds.ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Debugf("Closing\n")
	return s.store.Close()
}

// Store returns the store read by the session.
func (s *Session) Store() storage.Store {
	return s.store
}

// Layout returns the store layout.  It must not be modified.
func (s *Session) Layout() *vds.Layout {
	return s.layout
}

// Axes returns the inline, crossline and sample axis descriptors.
func (s *Session) Axes() [vds.NumAxes]vds.AxisDescriptor {
	return s.axes
}

// Shape returns the number of inlines, crosslines and samples.
func (s *Session) Shape() [vds.NumAxes]int {
	return s.shape
}

// TraceCount returns the number of traces, inlines times crosslines.
func (s *Session) TraceCount() int {
	return s.shape[vds.Inline] * s.shape[vds.Crossline]
}

// Text returns the SEG-Y text header decoded to ASCII, or an empty string if the
// volume was not imported from SEG-Y.
func (s *Session) Text() string {
	return s.text
}

// TextLines returns the text header split into its 80-column card images.
func (s *Session) TextLines() []string {
	return append([]string(nil), s.lines...)
}

// BinaryHeader returns the SEG-Y binary header, or nil if the volume has none.
func (s *Session) BinaryHeader() segy.BinaryHeader {
	return s.binary
}

// ReadInline returns the (crossline, sample) section at an inline ordinal.
func (s *Session) ReadInline(ctx context.Context, il int) (*vds.SampleBuffer, error) {
	if err := s.checkOrdinal(vds.Inline, il); err != nil {
		return nil, err
	}
	buf, err := s.ReadSubset(ctx, vds.Box(il, il+1, 0, s.shape[1], 0, s.shape[2]))
	if err != nil {
		return nil, err
	}
	return buf.Reshape(s.shape[1], s.shape[2])
}

// ReadCrossline returns the (inline, sample) section at a crossline ordinal.
func (s *Session) ReadCrossline(ctx context.Context, xl int) (*vds.SampleBuffer, error) {
	if err := s.checkOrdinal(vds.Crossline, xl); err != nil {
		return nil, err
	}
	buf, err := s.ReadSubset(ctx, vds.Box(0, s.shape[0], xl, xl+1, 0, s.shape[2]))
	if err != nil {
		return nil, err
	}
	return buf.Reshape(s.shape[0], s.shape[2])
}

// ReadDepthSlice returns the (inline, crossline) slice at a sample ordinal.
func (s *Session) ReadDepthSlice(ctx context.Context, z int) (*vds.SampleBuffer, error) {
	if err := s.checkOrdinal(vds.Sample, z); err != nil {
		return nil, err
	}
	buf, err := s.ReadSubset(ctx, vds.Box(0, s.shape[0], 0, s.shape[1], z, z+1))
	if err != nil {
		return nil, err
	}
	return buf.Reshape(s.shape[0], s.shape[1])
}

// ReadInlineNumber returns the section at an inline number.
func (s *Session) ReadInlineNumber(ctx context.Context, il int) (*vds.SampleBuffer, error) {
	return s.Inline.Get(ctx, il)
}

// ReadCrosslineNumber returns the section at a crossline number.
func (s *Session) ReadCrosslineNumber(ctx context.Context, xl int) (*vds.SampleBuffer, error) {
	return s.Crossline.Get(ctx, xl)
}

// ReadDepthSliceCoordinate returns the slice at a sample time or depth.
func (s *Session) ReadDepthSliceCoordinate(ctx context.Context, z float64) (*vds.SampleBuffer, error) {
	return s.DepthSlice.Get(ctx, z)
}

// ReadSubvolume returns the (inline, crossline, sample) block of ordinals
// [ilMin, ilMax) x [xlMin, xlMax) x [zMin, zMax).
func (s *Session) ReadSubvolume(ctx context.Context, ilMin, ilMax, xlMin, xlMax, zMin, zMax int) (*vds.SampleBuffer, error) {
	return s.ReadSubset(ctx, vds.Box(ilMin, ilMax, xlMin, xlMax, zMin, zMax))
}

// ReadVolume returns the whole volume as one (inline, crossline, sample) buffer.
// It holds inlines x crosslines x samples float32 values in memory at once, so
// callers with large volumes should iterate over one of the accessors instead.
func (s *Session) ReadVolume(ctx context.Context) (*vds.SampleBuffer, error) {
	return s.ReadSubset(ctx, vds.FullBox(s.shape))
}

func (s *Session) checkOrdinal(a vds.Axis, i int) error {
	if i < 0 || i >= s.shape[a] {
		return &vds.RangeError{What: a.String() + " ordinal", Value: i, Min: 0, Max: s.shape[a]}
	}
	return nil
}
