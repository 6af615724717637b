package segy

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Number of 80-column card images in a text header.
const (
	TextHeaderLines   = 40
	TextHeaderColumns = 80
)

// DecodeText decodes an EBCDIC (code page 037) text header into ASCII.  Characters
// without an ASCII equivalent are dropped.
func DecodeText(b []byte) (string, error) {
	utf, err := charmap.CodePage037.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return toASCII(utf, false), nil
}

// DecodeTextAuto decodes a text header that may be stored as either EBCDIC or ASCII.
// Headers starting with an ASCII 'C' card marker are taken as ASCII.
func DecodeTextAuto(b []byte) (string, error) {
	if isASCII(b) {
		return toASCII(b, false), nil
	}
	return DecodeText(b)
}

// DecodeTextLines decodes a text header like DecodeTextAuto and splits it into
// card images.  Characters without an ASCII equivalent become spaces so every
// card keeps its 80 columns.
func DecodeTextLines(b []byte) ([]string, error) {
	if isASCII(b) {
		return TextLines(toASCII(b, true)), nil
	}
	utf, err := charmap.CodePage037.NewDecoder().Bytes(b)
	if err != nil {
		return nil, err
	}
	return TextLines(toASCII(utf, true)), nil
}

func isASCII(b []byte) bool {
	return len(b) > 0 && b[0] == 'C'
}

// toASCII keeps ASCII runes and drops or blanks the rest.  Code page 037 maps
// each byte to one rune, and bytes of an ASCII header that are not valid UTF-8
// decode to one rune each.
func toASCII(b []byte, blank bool) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, r := range string(b) {
		switch {
		case r <= unicode.MaxASCII:
			sb.WriteRune(r)
		case blank:
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// EncodeText returns a 3200-byte EBCDIC text header.  The text is padded with
// spaces or truncated; unmappable characters become the EBCDIC substitute byte.
func EncodeText(text string) ([]byte, error) {
	if len(text) > TextHeaderSize {
		text = text[:TextHeaderSize]
	}
	text += strings.Repeat(" ", TextHeaderSize-len(text))
	enc := encoding.ReplaceUnsupported(charmap.CodePage037.NewEncoder())
	b, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, err
	}
	if len(b) != TextHeaderSize {
		return nil, fmt.Errorf("encoded text header has %d bytes, expected %d", len(b), TextHeaderSize)
	}
	return b, nil
}

// TextLines splits a decoded text header into its 80-column card images with
// trailing blanks removed.
func TextLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		n := TextHeaderColumns
		if n > len(text) {
			n = len(text)
		}
		lines = append(lines, strings.TrimRight(text[:n], " \x00"))
		text = text[n:]
	}
	return lines
}

// CardImages formats lines as numbered "C01 ..." cards, 40 lines of 80 columns.
func CardImages(lines ...string) string {
	var buf bytes.Buffer
	for i := 0; i < TextHeaderLines; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		card := fmt.Sprintf("C%2d %s", i+1, line)
		if len(card) > TextHeaderColumns {
			card = card[:TextHeaderColumns]
		}
		buf.WriteString(card)
		buf.WriteString(strings.Repeat(" ", TextHeaderColumns-len(card)))
	}
	return buf.String()
}
