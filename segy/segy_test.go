package segy

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janelia-flyem/seisvds/vds"
)

func TestTraceHeader(t *testing.T) {
	h := TraceHeader{
		TraceSequenceFile:   7,
		Inline3D:            1234,
		Crossline3D:         -56,
		TraceSampleCount:    50,
		TraceSampleInterval: 4000,
		SourceGroupScalar:   -100,
	}
	b := h.Bytes()
	if len(b) != TraceHeaderSize {
		t.Fatalf("expected %d bytes, got %d", TraceHeaderSize, len(b))
	}
	if !bytes.Equal(b[188:192], []byte{0, 0, 0x04, 0xd2}) {
		t.Errorf("INLINE_3D not big-endian at byte 189: %x", b[188:192])
	}
	got, err := ParseTraceHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	for f, v := range h {
		if got[f] != v {
			t.Errorf("%s: expected %d, got %d", f, v, got[f])
		}
	}
	if got[CDPX] != 0 {
		t.Errorf("unset field should be zero, got %d", got[CDPX])
	}
	if len(got) != len(TraceFields()) {
		t.Errorf("expected every field decoded, got %d of %d", len(got), len(TraceFields()))
	}
	named := got.Named()
	if named["INLINE_3D"] != 1234 || named["CROSSLINE_3D"] != -56 {
		t.Errorf("bad named fields: %v", named)
	}
	if _, err := ParseTraceHeader(b[:200]); err == nil {
		t.Errorf("expected short header to fail")
	}

	// Sample counts are unsigned, other 2-byte fields are signed.
	long := TraceHeader{TraceSampleCount: 40000, SourceGroupScalar: -100}
	got, err = ParseTraceHeader(long.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got[TraceSampleCount] != 40000 || got[SourceGroupScalar] != -100 {
		t.Errorf("expected 40000 samples and scalar -100, got %d and %d", got[TraceSampleCount], got[SourceGroupScalar])
	}
	bin, err := ParseBinaryHeader(BinaryHeader{BinSamples: 65535, BinInterval: 50000}.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if bin[BinSamples] != 65535 || bin[BinInterval] != 50000 {
		t.Errorf("expected unsigned binary header counts, got %d and %d", bin[BinSamples], bin[BinInterval])
	}
}

func TestFieldTables(t *testing.T) {
	// Fields must tile the header without overlap.
	end := 1
	for _, f := range TraceFields() {
		if int(f) < end {
			t.Fatalf("field %s at byte %d overlaps previous field ending at %d", f, f, end)
		}
		end = int(f) + f.Size()
	}
	if end != TraceHeaderSize+1 {
		t.Errorf("trace fields end at byte %d", end)
	}
	f, found := TraceFieldByName("CDP_X")
	if !found || f != CDPX || f.Size() != 4 {
		t.Errorf("bad CDP_X lookup: %d %t", f, found)
	}
	if TraceField(3).String() != "TraceField(3)" {
		t.Errorf("bad unknown field name %q", TraceField(3))
	}
	bf, found := BinFieldByName("Samples")
	if !found || bf != BinSamples {
		t.Errorf("bad Samples lookup")
	}
	for _, f := range BinFields() {
		if off := int(f) - TextHeaderSize - 1; off < 0 || off+f.Size() > BinaryHeaderSize {
			t.Errorf("binary field %s outside header", f)
		}
	}
}

func TestBinaryHeader(t *testing.T) {
	h := BinaryHeader{BinInterval: 4000, BinSamples: 50, BinFormat: int32(FormatIEEE), BinSEGYRevision: 0x0100}
	b := h.Bytes()
	if !bytes.Equal(b[24:26], []byte{0, 5}) {
		t.Errorf("format not at byte 3225: %x", b[24:26])
	}
	got, err := ParseBinaryHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	for f, v := range h {
		if got[f] != v {
			t.Errorf("%s: expected %d, got %d", f, v, got[f])
		}
	}
	if got.Named()["Samples"] != 50 {
		t.Errorf("bad named binary header")
	}
}

func TestText(t *testing.T) {
	text := CardImages("CLIENT: EQUINOR", "SURVEY: SMALL", "")
	if len(text) != TextHeaderSize {
		t.Fatalf("card images should fill %d bytes, got %d", TextHeaderSize, len(text))
	}
	ebcdic, err := EncodeText(text)
	if err != nil {
		t.Fatal(err)
	}
	if ebcdic[0] != 0xc3 {
		t.Errorf("expected EBCDIC 'C' (0xc3), got %x", ebcdic[0])
	}
	decoded, err := DecodeText(ebcdic)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != text {
		t.Errorf("text changed on round trip")
	}
	lines := TextLines(decoded)
	if len(lines) != TextHeaderLines || lines[0] != "C 1 CLIENT: EQUINOR" || lines[2] != "C 3" {
		t.Errorf("bad lines: %q", lines[:3])
	}
	auto, _ := DecodeTextAuto([]byte(text))
	if auto != text {
		t.Errorf("ASCII header not detected")
	}

	// Characters with no ASCII equivalent are dropped.
	lossy, err := DecodeText([]byte{0xc3, 0x40, 0x4a, 0xc1})
	if err != nil {
		t.Fatal(err)
	}
	if lossy != "C A" {
		t.Errorf("expected lossy decode to drop cent sign, got %q", lossy)
	}

	// Split into cards, an unmappable character must not shift later cards.
	withCent := append([]byte(nil), ebcdic...)
	withCent[10] = 0x4a
	cards, err := DecodeTextLines(withCent)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != TextHeaderLines || cards[0] != "C 1 CLIENT  EQUINOR" || cards[1] != "C 2 SURVEY: SMALL" {
		t.Errorf("bad lines after unmappable character: %q", cards[:2])
	}
	if cards, _ := DecodeTextLines([]byte(text)); cards[1] != "C 2 SURVEY: SMALL" {
		t.Errorf("bad ASCII lines: %q", cards[:2])
	}
}

func TestIBM(t *testing.T) {
	cases := map[uint32]float32{
		0x00000000: 0,
		0x41100000: 1,
		0xc1100000: -1,
		0x42640000: 100,
		0xc276a000: -118.625,
		0x40800000: 0.5,
	}
	for ibm, f := range cases {
		if got := IBMToFloat32(ibm); got != f {
			t.Errorf("IBMToFloat32(%x): expected %g, got %g", ibm, f, got)
		}
		if got := Float32ToIBM(f); got != ibm {
			t.Errorf("Float32ToIBM(%g): expected %x, got %x", f, ibm, got)
		}
	}
	if Float32ToIBM(float32(math.Inf(1))) != 0x7fffffff {
		t.Errorf("infinity should saturate")
	}
}

type traceSample struct {
	il, xl  int
	samples []float32
	header  []byte
}

type recorder struct {
	traces []traceSample
}

func (r *recorder) WriteTrace(ctx context.Context, il, xl int, samples []float32, header []byte) error {
	r.traces = append(r.traces, traceSample{il, xl, samples, header})
	return nil
}

// writeSmall writes a 5x5x50 file with inlines 1..5, crosslines 20..24 and 4 ms
// sampling, sorted by inline.
func writeSmall(t *testing.T, format SampleFormat) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "small.sgy")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	text, err := EncodeText(CardImages("small test survey"))
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWriter(fh, text, BinaryHeader{BinInterval: 4000, BinSamples: 50, BinFormat: int32(format)})
	if err != nil {
		t.Fatal(err)
	}
	seq := int32(1)
	for il := 1; il <= 5; il++ {
		for xl := 20; xl <= 24; xl++ {
			samples := make([]float32, 50)
			for z := range samples {
				samples[z] = float32(il) + float32(xl)/100 + float32(z)/1e4
			}
			h := TraceHeader{
				TraceSequenceFile:   seq,
				Inline3D:            int32(il),
				Crossline3D:         int32(xl),
				TraceSampleCount:    50,
				TraceSampleInterval: 4000,
			}
			if err := w.WriteTrace(h, samples); err != nil {
				t.Fatal(err)
			}
			seq++
		}
	}
	if w.Traces() != 25 {
		t.Fatalf("expected 25 traces written, got %d", w.Traces())
	}
	return path
}

func TestReadAndImport(t *testing.T) {
	for _, format := range []SampleFormat{FormatIEEE, FormatIBM} {
		f, err := Open(writeSmall(t, format))
		if err != nil {
			t.Fatal(err)
		}
		if f.TraceCount != 25 || f.Samples != 50 || f.Interval != 4000 || f.Format != format {
			t.Fatalf("bad file description: %d traces, %d samples, %d us, %s", f.TraceCount, f.Samples, f.Interval, f.Format)
		}
		text, err := f.Text()
		if err != nil || !strings.HasPrefix(text, "C 1 small test survey") {
			t.Errorf("bad text header (%v)", err)
		}

		opts := DefaultImportOptions()
		g, err := ScanGeometry(f, opts)
		if err != nil {
			t.Fatal(err)
		}
		want := [vds.NumAxes]vds.AxisDescriptor{
			{Name: "Inline", Min: 1, Max: 5, Step: 1},
			{Name: "Crossline", Min: 20, Max: 24, Step: 1},
			{Name: "Sample", Unit: "ms", Min: 0, Max: 196, Step: 4},
		}
		if g.Axes != want {
			t.Errorf("expected axes %v, got %v", want, g.Axes)
		}

		layout := g.Layout(f, opts)
		if err := layout.Validate(); err != nil {
			t.Fatal(err)
		}
		if len(layout.Metadata[vds.TextHeaderMeta]) != TextHeaderSize || len(layout.Metadata[vds.BinaryHeaderMeta]) != BinaryHeaderSize {
			t.Errorf("file headers not carried into layout metadata")
		}

		rec := &recorder{}
		n, err := Import(context.Background(), f, g, rec, opts)
		if err != nil || n != 25 {
			t.Fatalf("import wrote %d traces: %v", n, err)
		}
		last := rec.traces[24]
		if last.il != 4 || last.xl != 4 {
			t.Errorf("last trace at ordinals (%d, %d)", last.il, last.xl)
		}
		if math.Abs(float64(last.samples[49]-(5+0.24+0.0049))) > 1e-5 {
			t.Errorf("bad sample value %g", last.samples[49])
		}
		h, _ := ParseTraceHeader(last.header)
		if h[TraceSequenceFile] != 25 {
			t.Errorf("header not passed through, sequence %d", h[TraceSequenceFile])
		}
		f.Close()
	}
}

func TestIrregularGrid(t *testing.T) {
	set := map[int32]struct{}{10: {}, 14: {}, 18: {}, 20: {}}
	if _, err := progression("Inline", set); err != nil {
		t.Errorf("step-2 grid with gaps should parse: %v", err)
	}
	set = map[int32]struct{}{10: {}, 13: {}, 15: {}}
	if _, err := progression("Inline", set); err == nil {
		t.Errorf("expected irregular line numbers to fail")
	}
}
