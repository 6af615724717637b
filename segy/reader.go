package segy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// SampleFormat is the data sample format code of the binary header.
type SampleFormat int32

const (
	FormatIBM   SampleFormat = 1
	FormatInt32 SampleFormat = 2
	FormatInt16 SampleFormat = 3
	FormatIEEE  SampleFormat = 5
	FormatInt8  SampleFormat = 8
)

// SampleSize returns the bytes per sample, or 0 for unsupported formats.
func (f SampleFormat) SampleSize() int {
	switch f {
	case FormatIBM, FormatInt32, FormatIEEE:
		return 4
	case FormatInt16:
		return 2
	case FormatInt8:
		return 1
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatIBM:
		return "4-byte IBM float"
	case FormatInt32:
		return "4-byte int"
	case FormatInt16:
		return "2-byte int"
	case FormatIEEE:
		return "4-byte IEEE float"
	case FormatInt8:
		return "1-byte int"
	default:
		return fmt.Sprintf("format %d", int32(f))
	}
}

// File reads traces from a SEG-Y file with fixed-length traces.
type File struct {
	r      io.ReaderAt
	closer io.Closer

	RawText   []byte
	RawBinary []byte
	Binary    BinaryHeader

	Format     SampleFormat
	Samples    int
	Interval   int // microseconds
	TraceCount int

	dataStart int64
	traceSize int64
}

// Open opens the SEG-Y file at path.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, err
	}
	f, err := NewFile(fh, fi.Size())
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.closer = fh
	return f, nil
}

// NewFile reads the file headers from r, which holds size bytes.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	head := make([]byte, TextHeaderSize+BinaryHeaderSize)
	if _, err := r.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("reading file headers: %w", err)
	}
	f := &File{
		r:         r,
		RawText:   head[:TextHeaderSize],
		RawBinary: head[TextHeaderSize:],
	}
	var err error
	if f.Binary, err = ParseBinaryHeader(f.RawBinary); err != nil {
		return nil, err
	}
	f.Format = SampleFormat(f.Binary[BinFormat])
	if f.Format.SampleSize() == 0 {
		return nil, fmt.Errorf("unsupported sample format %d", f.Format)
	}
	f.dataStart = int64(TextHeaderSize + BinaryHeaderSize + TextHeaderSize*int(f.Binary[BinExtendedHeaders]))
	f.Samples = int(f.Binary[BinSamples])
	f.Interval = int(f.Binary[BinInterval])
	if f.Samples <= 0 || f.Interval <= 0 {
		// Fall back to the first trace header.
		th := make([]byte, TraceHeaderSize)
		if _, err := r.ReadAt(th, f.dataStart); err != nil {
			return nil, fmt.Errorf("reading first trace header: %w", err)
		}
		first, _ := ParseTraceHeader(th)
		if f.Samples <= 0 {
			f.Samples = int(first[TraceSampleCount])
		}
		if f.Interval <= 0 {
			f.Interval = int(first[TraceSampleInterval])
		}
	}
	if f.Samples <= 0 {
		return nil, fmt.Errorf("no sample count in binary or trace header")
	}
	f.traceSize = int64(TraceHeaderSize + f.Samples*f.Format.SampleSize())
	data := size - f.dataStart
	if data < 0 || data%f.traceSize != 0 {
		return nil, fmt.Errorf("file size %d is not headers plus whole traces of %d bytes", size, f.traceSize)
	}
	f.TraceCount = int(data / f.traceSize)
	return f, nil
}

// Text returns the decoded text header.
func (f *File) Text() (string, error) {
	return DecodeTextAuto(f.RawText)
}

// RawTraceHeader returns the 240 header bytes of trace i.
func (f *File) RawTraceHeader(i int) ([]byte, error) {
	if i < 0 || i >= f.TraceCount {
		return nil, fmt.Errorf("trace %d out of range [0, %d)", i, f.TraceCount)
	}
	b := make([]byte, TraceHeaderSize)
	if _, err := f.r.ReadAt(b, f.dataStart+int64(i)*f.traceSize); err != nil {
		return nil, err
	}
	return b, nil
}

// TraceHeader returns the decoded header of trace i.
func (f *File) TraceHeader(i int) (TraceHeader, error) {
	b, err := f.RawTraceHeader(i)
	if err != nil {
		return nil, err
	}
	return ParseTraceHeader(b)
}

// ReadTrace returns the raw header and samples of trace i.
func (f *File) ReadTrace(i int) (header []byte, samples []float32, err error) {
	if i < 0 || i >= f.TraceCount {
		return nil, nil, fmt.Errorf("trace %d out of range [0, %d)", i, f.TraceCount)
	}
	b := make([]byte, f.traceSize)
	if _, err := f.r.ReadAt(b, f.dataStart+int64(i)*f.traceSize); err != nil {
		return nil, nil, err
	}
	return b[:TraceHeaderSize], decodeSamples(b[TraceHeaderSize:], f.Format, f.Samples), nil
}

func decodeSamples(b []byte, format SampleFormat, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		switch format {
		case FormatIBM:
			out[i] = IBMToFloat32(binary.BigEndian.Uint32(b[i*4:]))
		case FormatIEEE:
			out[i] = math.Float32frombits(binary.BigEndian.Uint32(b[i*4:]))
		case FormatInt32:
			out[i] = float32(int32(binary.BigEndian.Uint32(b[i*4:])))
		case FormatInt16:
			out[i] = float32(int16(binary.BigEndian.Uint16(b[i*2:])))
		case FormatInt8:
			out[i] = float32(int8(b[i]))
		}
	}
	return out
}

func encodeSamples(samples []float32, format SampleFormat) []byte {
	b := make([]byte, len(samples)*format.SampleSize())
	for i, v := range samples {
		switch format {
		case FormatIBM:
			binary.BigEndian.PutUint32(b[i*4:], Float32ToIBM(v))
		case FormatIEEE:
			binary.BigEndian.PutUint32(b[i*4:], math.Float32bits(v))
		case FormatInt32:
			binary.BigEndian.PutUint32(b[i*4:], uint32(int32(v)))
		case FormatInt16:
			binary.BigEndian.PutUint16(b[i*2:], uint16(int16(v)))
		case FormatInt8:
			b[i] = byte(int8(v))
		}
	}
	return b
}

// Close closes the underlying file if it was opened by Open.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Writer writes a SEG-Y file with fixed-length traces.
type Writer struct {
	w       io.Writer
	format  SampleFormat
	samples int
	traces  int
}

// NewWriter writes the text and binary headers and returns a writer for traces.
// The binary header must specify the sample format and count.
func NewWriter(w io.Writer, text []byte, bin BinaryHeader) (*Writer, error) {
	format := SampleFormat(bin[BinFormat])
	if format.SampleSize() == 0 {
		return nil, fmt.Errorf("unsupported sample format %d", format)
	}
	if len(text) != TextHeaderSize {
		return nil, fmt.Errorf("text header must be %d bytes, got %d", TextHeaderSize, len(text))
	}
	if _, err := w.Write(text); err != nil {
		return nil, err
	}
	if _, err := w.Write(bin.Bytes()); err != nil {
		return nil, err
	}
	return &Writer{w: w, format: format, samples: int(bin[BinSamples])}, nil
}

// WriteTrace appends one trace.
func (sw *Writer) WriteTrace(header TraceHeader, samples []float32) error {
	if len(samples) != sw.samples {
		return fmt.Errorf("trace has %d samples, file has %d", len(samples), sw.samples)
	}
	if _, err := sw.w.Write(header.Bytes()); err != nil {
		return err
	}
	if _, err := sw.w.Write(encodeSamples(samples, sw.format)); err != nil {
		return err
	}
	sw.traces++
	return nil
}

// Traces returns the number of traces written.
func (sw *Writer) Traces() int {
	return sw.traces
}
