// Package container reads and writes the byte-level structure of the image
// containers picscrub touches: JPEG segments, PNG chunks, RIFF/WebP chunks,
// GIF blocks and ISOBMFF (HEIF) items. It never interprets metadata payloads.
package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed container")

// JPEG markers.
const (
	MarkerSOI   byte = 0xD8
	MarkerEOI   byte = 0xD9
	MarkerSOS   byte = 0xDA
	MarkerAPP0  byte = 0xE0
	MarkerAPP1  byte = 0xE1
	MarkerAPP2  byte = 0xE2
	MarkerAPP13 byte = 0xED
	MarkerAPP14 byte = 0xEE
	MarkerCOM   byte = 0xFE

	// MarkerScan is a pseudo marker holding entropy-coded data after SOS,
	// carried verbatim up to and including EOI.
	MarkerScan byte = 0x00
)

// Segment is one JPEG marker segment. Data excludes the marker and length.
type Segment struct {
	Marker byte
	Data   []byte
}

// IsAPPn reports whether s is an application segment.
func (s Segment) IsAPPn() bool { return s.Marker >= 0xE0 && s.Marker <= 0xEF }

// HasPrefix reports whether the payload starts with p.
func (s Segment) HasPrefix(p string) bool { return bytes.HasPrefix(s.Data, []byte(p)) }

func standalone(m byte) bool {
	return m == 0x01 || (m >= 0xD0 && m <= 0xD7)
}

// ParseJPEG splits data into segments. Parsing stops at SOS; everything
// after the SOS header is returned as one MarkerScan segment.
func ParseJPEG(data []byte) ([]Segment, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != MarkerSOI {
		return nil, fmt.Errorf("%w: not a JPEG", ErrMalformed)
	}
	segs := []Segment{{Marker: MarkerSOI}}

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, fmt.Errorf("%w: expected marker at offset %d", ErrMalformed, i)
		}
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			break
		}
		marker := data[i]
		i++

		if marker == MarkerEOI {
			segs = append(segs, Segment{Marker: MarkerEOI})
			return segs, nil
		}
		if standalone(marker) || marker == MarkerSOI {
			segs = append(segs, Segment{Marker: marker})
			continue
		}

		if i+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated segment header", ErrMalformed)
		}
		segLen := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		i += 2
		if segLen < 0 || i+segLen > len(data) {
			return nil, fmt.Errorf("%w: segment 0x%02X overruns file", ErrMalformed, marker)
		}
		segs = append(segs, Segment{Marker: marker, Data: append([]byte{}, data[i:i+segLen]...)})
		i += segLen

		if marker == MarkerSOS {
			segs = append(segs, Segment{Marker: MarkerScan, Data: append([]byte{}, data[i:]...)})
			return segs, nil
		}
	}
	return segs, nil
}

// WriteJPEG serialises segments back into a JPEG stream.
func WriteJPEG(segs []Segment) []byte {
	var buf bytes.Buffer
	for _, seg := range segs {
		switch {
		case seg.Marker == MarkerScan:
			buf.Write(seg.Data)
		case seg.Marker == MarkerSOI || seg.Marker == MarkerEOI || standalone(seg.Marker):
			buf.Write([]byte{0xFF, seg.Marker})
		default:
			buf.Write([]byte{0xFF, seg.Marker})
			length := uint16(len(seg.Data) + 2)
			buf.WriteByte(byte(length >> 8))
			buf.WriteByte(byte(length))
			buf.Write(seg.Data)
		}
	}
	return buf.Bytes()
}

// JPEGEnd returns the offset one past the EOI marker of the JPEG stream
// starting at start, or -1 if the stream is not complete.
func JPEGEnd(data []byte, start int) int {
	if start+4 > len(data) || data[start] != 0xFF || data[start+1] != MarkerSOI {
		return -1
	}
	i := start + 2
	for i+1 < len(data) {
		if data[i] != 0xFF {
			return -1
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			i++
			continue
		case marker == MarkerEOI:
			return i + 2
		case standalone(marker):
			i += 2
			continue
		}
		if i+4 > len(data) {
			return -1
		}
		i += 2 + int(binary.BigEndian.Uint16(data[i+2:i+4]))
		if marker != MarkerSOS {
			continue
		}
		// Entropy-coded data: FF is followed by 00 (stuffing) or RSTn
		// until the next real marker.
		for i+1 < len(data) {
			if data[i] == 0xFF && data[i+1] != 0x00 && !standalone(data[i+1]) {
				break
			}
			i++
		}
	}
	return -1
}

// EmbeddedJPEG returns the largest complete JPEG stream embedded in data,
// or nil. Camera raw files carry their previews this way.
func EmbeddedJPEG(data []byte) []byte {
	var best []byte
	soi := []byte{0xFF, MarkerSOI, 0xFF}
	for i := 0; i < len(data); {
		n := bytes.Index(data[i:], soi)
		if n < 0 {
			break
		}
		start := i + n
		if end := JPEGEnd(data, start); end > start {
			if end-start > len(best) {
				best = data[start:end]
			}
			i = end
			continue
		}
		i = start + 1
	}
	return best
}
