package vds

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/blang/semver"
)

// FormatVersion is the store layout version written by this package.  Stores with a
// different major version cannot be read.
var FormatVersion = semver.MustParse("1.0.0")

// Names of the channels every store carries.
const (
	AmplitudeChannel   = "Amplitude"
	TraceHeaderChannel = "TraceHeader"
)

// Names of metadata blobs carried over from an imported SEG-Y file.
const (
	TextHeaderMeta   = "SEGY/TextHeader"
	BinaryHeaderMeta = "SEGY/BinaryHeader"
)

// TraceHeaderSize is the number of bytes in one trace header.
const TraceHeaderSize = 240

// DefaultBrickSize is the brick size in store order used when none is configured.
var DefaultBrickSize = Point3d{64, 64, 64}

// ChannelFormat is the element type of a channel.
type ChannelFormat uint8

const (
	FormatFloat32 ChannelFormat = iota
	FormatUint8
)

// ElementSize returns the number of bytes in one element.
func (f ChannelFormat) ElementSize() int {
	switch f {
	case FormatFloat32:
		return 4
	default:
		return 1
	}
}

func (f ChannelFormat) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	case FormatUint8:
		return "uint8"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Channel describes one channel of the store.  Dims 1 and 2 of a channel always
// match the crossline and inline axes; dim 0 is the sample axis for amplitudes or a
// byte offset for header channels.
type Channel struct {
	Name      string        `json:"name"`
	Format    ChannelFormat `json:"format"`
	Dim0      int32         `json:"dim0"`
	BrickDim0 int32         `json:"brick_dim0"`
	// MultiLOD is true if the channel is stored at every level of detail.
	MultiLOD bool `json:"multi_lod"`
}

// Layout describes a stored volume: its axes, brick grid and channels.
type Layout struct {
	Version     string                  `json:"version"`
	Axes        [NumAxes]AxisDescriptor `json:"axes"`
	BrickSize   Point3d                 `json:"brick_size"`
	LODLevels   int                     `json:"lod_levels"`
	Compression Compression             `json:"compression"`
	Channels    []Channel               `json:"channels"`
	Metadata    map[string][]byte       `json:"-"`
}

// NewLayout returns a layout with amplitude and trace header channels for the
// given axes in (inline, crossline, sample) order.
func NewLayout(axes [NumAxes]AxisDescriptor, brick Point3d, lods int, compress Compression) *Layout {
	if lods < 1 {
		lods = 1
	}
	return &Layout{
		Version:     FormatVersion.String(),
		Axes:        axes,
		BrickSize:   brick,
		LODLevels:   lods,
		Compression: compress,
		Channels: []Channel{
			{Name: AmplitudeChannel, Format: FormatFloat32, Dim0: int32(axes[Sample].Len()), BrickDim0: brick[0], MultiLOD: true},
			{Name: TraceHeaderChannel, Format: FormatUint8, Dim0: TraceHeaderSize, BrickDim0: TraceHeaderSize},
		},
		Metadata: make(map[string][]byte),
	}
}

// Shape returns the number of ordinals on each axis in user order.
func (l *Layout) Shape() [NumAxes]int {
	return [NumAxes]int{l.Axes[Inline].Len(), l.Axes[Crossline].Len(), l.Axes[Sample].Len()}
}

// TraceCount returns the number of traces, inlines times crosslines.
func (l *Layout) TraceCount() int {
	return l.Axes[Inline].Len() * l.Axes[Crossline].Len()
}

// Extent returns the amplitude extent at LOD 0 in store order.
func (l *Layout) Extent() Point3d {
	s := l.Shape()
	return Point3d{int32(s[Sample]), int32(s[Crossline]), int32(s[Inline])}
}

// Channel returns the named channel.
func (l *Layout) Channel(name string) (Channel, bool) {
	for _, ch := range l.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// ChannelExtent returns the store-order extent of a channel at a level of detail.
func (l *Layout) ChannelExtent(ch Channel, lod int) Point3d {
	ext := l.Extent()
	ext[0] = ch.Dim0
	for i := 0; i < lod; i++ {
		ext = ext.Halve()
	}
	return ext
}

// ChannelBrick returns the store-order brick size of a channel.
func (l *Layout) ChannelBrick(ch Channel) Point3d {
	return Point3d{ch.BrickDim0, l.BrickSize[1], l.BrickSize[2]}
}

// NumLODs returns the number of levels of detail stored for a channel.
func (l *Layout) NumLODs(ch Channel) int {
	if ch.MultiLOD {
		return l.LODLevels
	}
	return 1
}

// Validate checks the version, axes, brick size and channels.
func (l *Layout) Validate() error {
	v, err := semver.Parse(l.Version)
	if err != nil {
		return fmt.Errorf("bad layout version %q: %w", l.Version, err)
	}
	if v.Major != FormatVersion.Major {
		return fmt.Errorf("unsupported layout version %s, can read %d.x", v, FormatVersion.Major)
	}
	for i := range l.Axes {
		if err := l.Axes[i].Validate(); err != nil {
			return err
		}
	}
	for i, s := range l.BrickSize {
		if s <= 0 {
			return fmt.Errorf("brick size %s has nonpositive dim %d", l.BrickSize, i)
		}
	}
	if l.LODLevels < 1 {
		return fmt.Errorf("layout needs at least one level of detail, got %d", l.LODLevels)
	}
	amp, found := l.Channel(AmplitudeChannel)
	if !found {
		return fmt.Errorf("layout has no %s channel", AmplitudeChannel)
	}
	if amp.Format != FormatFloat32 {
		return fmt.Errorf("%s channel must be float32, got %s", AmplitudeChannel, amp.Format)
	}
	if int(amp.Dim0) != l.Axes[Sample].Len() {
		return fmt.Errorf("%s channel has %d samples but sample axis has %d", AmplitudeChannel, amp.Dim0, l.Axes[Sample].Len())
	}
	for _, ch := range l.Channels {
		if ch.Dim0 <= 0 || ch.BrickDim0 <= 0 {
			return fmt.Errorf("channel %s has bad dim 0 extent %d / brick %d", ch.Name, ch.Dim0, ch.BrickDim0)
		}
	}
	return nil
}

func (l *Layout) String() string {
	s := l.Shape()
	return fmt.Sprintf("layout v%s: %d x %d x %d (il, xl, z), brick %s, %d lod, %s",
		l.Version, s[0], s[1], s[2], l.BrickSize, l.LODLevels, l.Compression)
}

// Float32sFromBytes decodes little-endian IEEE float32 samples.
func Float32sFromBytes(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// Float32sToBytes encodes samples as little-endian IEEE float32.
func Float32sToBytes(f []float32) []byte {
	out := make([]byte, 4*len(f))
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
