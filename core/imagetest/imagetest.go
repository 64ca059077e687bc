// Package imagetest builds small, fully controlled image files for tests:
// TIFF/EXIF blocks, JPEG segment streams, PNG chunk lists and GIFs.
package imagetest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sort"

	"github.com/ankit-chaubey/picscrub/core/container"
)

// TIFF field types.
const (
	TypeASCII    uint16 = 2
	TypeShort    uint16 = 3
	TypeLong     uint16 = 4
	TypeRational uint16 = 5
)

// EXIF tag IDs used by the fixtures.
const (
	TagImageDescription uint16 = 0x010E
	TagMake             uint16 = 0x010F
	TagModel            uint16 = 0x0110
	TagOrientation      uint16 = 0x0112
	TagSoftware         uint16 = 0x0131
	TagArtist           uint16 = 0x013B
	TagCopyright        uint16 = 0x8298
	TagGPSPointer       uint16 = 0x8825

	TagGPSLatitudeRef  uint16 = 0x0001
	TagGPSLatitude     uint16 = 0x0002
	TagGPSLongitudeRef uint16 = 0x0003
	TagGPSLongitude    uint16 = 0x0004
)

// IFDEntry is one TIFF directory entry. Value holds the little-endian
// encoded payload.
type IFDEntry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte
}

// ASCII builds a NUL-terminated string entry.
func ASCII(tag uint16, s string) IFDEntry {
	v := append([]byte(s), 0)
	return IFDEntry{Tag: tag, Type: TypeASCII, Count: uint32(len(v)), Value: v}
}

// Short builds a single SHORT entry.
func Short(tag uint16, v uint16) IFDEntry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return IFDEntry{Tag: tag, Type: TypeShort, Count: 1, Value: b}
}

// Rational builds a RATIONAL entry from numerator/denominator pairs.
func Rational(tag uint16, pairs ...[2]uint32) IFDEntry {
	b := make([]byte, 0, 8*len(pairs))
	for _, p := range pairs {
		b = binary.LittleEndian.AppendUint32(b, p[0])
		b = binary.LittleEndian.AppendUint32(b, p[1])
	}
	return IFDEntry{Tag: tag, Type: TypeRational, Count: uint32(len(pairs)), Value: b}
}

// Degrees encodes a coordinate as the three GPS rationals
// (degrees, minutes, seconds/100).
func Degrees(tag uint16, deg, min, centiSec uint32) IFDEntry {
	return Rational(tag, [2]uint32{deg, 1}, [2]uint32{min, 1}, [2]uint32{centiSec, 100})
}

// GPS returns the four entries of a GPS sub-IFD for the given position.
func GPS(latRef string, lat IFDEntry, lonRef string, lon IFDEntry) []IFDEntry {
	lat.Tag, lon.Tag = TagGPSLatitude, TagGPSLongitude
	return []IFDEntry{
		ASCII(TagGPSLatitudeRef, latRef),
		lat,
		ASCII(TagGPSLongitudeRef, lonRef),
		lon,
	}
}

// TIFF writes a little-endian TIFF structure with ifd0 and, when gps is
// non-empty, a GPS sub-IFD linked from ifd0.
func TIFF(ifd0, gps []IFDEntry) []byte {
	ifd0 = append([]IFDEntry{}, ifd0...)
	if len(gps) > 0 {
		ifd0 = append(ifd0, IFDEntry{Tag: TagGPSPointer, Type: TypeLong, Count: 1, Value: make([]byte, 4)})
	}
	sort.Slice(ifd0, func(i, j int) bool { return ifd0[i].Tag < ifd0[j].Tag })
	sort.Slice(gps, func(i, j int) bool { return gps[i].Tag < gps[j].Tag })

	const ifd0Off = 8
	gpsOff := ifd0Off + dirSize(ifd0)

	out := []byte{'I', 'I', 0x2A, 0x00}
	out = binary.LittleEndian.AppendUint32(out, ifd0Off)
	if len(gps) > 0 {
		for i := range ifd0 {
			if ifd0[i].Tag == TagGPSPointer {
				binary.LittleEndian.PutUint32(ifd0[i].Value, uint32(gpsOff))
			}
		}
	}
	out = appendDir(out, ifd0)
	if len(gps) > 0 {
		out = appendDir(out, gps)
	}
	return out
}

// dirSize is the encoded size of a directory including its overflow values.
func dirSize(entries []IFDEntry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.Value) > 4 {
			n += len(e.Value) + len(e.Value)%2
		}
	}
	return n
}

// appendDir writes a directory at len(out), followed by its overflow values.
func appendDir(out []byte, entries []IFDEntry) []byte {
	base := len(out)
	valOff := base + 2 + 12*len(entries) + 4
	var values []byte

	out = binary.LittleEndian.AppendUint16(out, uint16(len(entries)))
	for _, e := range entries {
		out = binary.LittleEndian.AppendUint16(out, e.Tag)
		out = binary.LittleEndian.AppendUint16(out, e.Type)
		out = binary.LittleEndian.AppendUint32(out, e.Count)
		if len(e.Value) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Value)
			out = append(out, v...)
			continue
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(valOff+len(values)))
		values = append(values, e.Value...)
		if len(e.Value)%2 != 0 {
			values = append(values, 0)
		}
	}
	out = binary.LittleEndian.AppendUint32(out, 0)
	return append(out, values...)
}

// Scan is the entropy-coded payload every fixture JPEG carries, including
// a stuffed FF 00 pair.
var Scan = []byte{0x12, 0x34, 0xFF, 0x00, 0x56}

// sosHeader is a one-component scan header.
var sosHeader = []byte{0x01, 0x01, 0x00, 0x00, 0x3F, 0x00}

// JPEG builds SOI, segs, a scan and EOI. It is structurally valid but not
// decodable.
func JPEG(segs ...container.Segment) []byte {
	all := []container.Segment{{Marker: container.MarkerSOI}}
	all = append(all, segs...)
	all = append(all,
		container.Segment{Marker: container.MarkerSOS, Data: sosHeader},
		container.Segment{Marker: container.MarkerScan, Data: append(append([]byte{}, Scan...), 0xFF, container.MarkerEOI)},
	)
	return container.WriteJPEG(all)
}

// JFIFSegment is a minimal APP0 JFIF header.
func JFIFSegment() container.Segment {
	return container.Segment{
		Marker: container.MarkerAPP0,
		Data:   []byte{'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00},
	}
}

// ExifSegment wraps a TIFF block in an APP1 EXIF segment.
func ExifSegment(tiff []byte) container.Segment {
	return container.Segment{Marker: container.MarkerAPP1, Data: append([]byte("Exif\x00\x00"), tiff...)}
}

// XMPSegment wraps an XMP packet in an APP1 segment.
func XMPSegment(packet string) container.Segment {
	return container.Segment{Marker: container.MarkerAPP1, Data: append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...)}
}

// ICCSegment wraps a profile in a single APP2 chunk.
func ICCSegment(profile []byte) container.Segment {
	return container.Segment{Marker: container.MarkerAPP2, Data: append([]byte("ICC_PROFILE\x00\x01\x01"), profile...)}
}

// CommentSegment is a COM segment.
func CommentSegment(s string) container.Segment {
	return container.Segment{Marker: container.MarkerCOM, Data: []byte(s)}
}

// XMP returns a minimal XMP packet with the given dc/xmp properties as
// attributes of rdf:Description.
func XMP(attrs string) string {
	return `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmlns:photoshop="http://ns.adobe.com/photoshop/1.0/" ` +
		attrs + `/></rdf:RDF></x:xmpmeta>`
}

// ICCProfile returns a 132-byte ICC header with an empty tag table. Device
// class is mntr, colour space RGB, PCS XYZ.
func ICCProfile() []byte {
	p := make([]byte, 132)
	binary.BigEndian.PutUint32(p[0:4], 132)
	copy(p[12:16], "mntr")
	copy(p[16:20], "RGB ")
	copy(p[20:24], "XYZ ")
	copy(p[36:40], "acsp")
	return p
}

// PNG encodes a 2×2 image and inserts chunks right after IHDR.
func PNG(chunks ...container.Chunk) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	base, err := container.ParsePNG(buf.Bytes())
	if err != nil {
		panic(err)
	}
	out := []container.Chunk{base[0]}
	out = append(out, chunks...)
	out = append(out, base[1:]...)
	return container.WritePNG(out)
}

// TextChunk builds a tEXt chunk.
func TextChunk(key, val string) container.Chunk {
	return container.Chunk{Type: "tEXt", Data: append(append([]byte(key), 0), val...)}
}

// GIF layout pieces.
var (
	gifScreen   = []byte{'G', 'I', 'F', '8', '9', 'a', 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00}
	gifPalette  = []byte{0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF}
	GIFNetscape = []byte{0x21, 0xFF, 0x0B, 'N', 'E', 'T', 'S', 'C', 'A', 'P', 'E', '2', '.', '0', 0x03, 0x01, 0x00, 0x00, 0x00}
	GIFImage    = []byte{0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00}
)

// GIFComment builds a comment extension holding s in one sub-block.
func GIFComment(s string) []byte {
	b := []byte{0x21, 0xFE, byte(len(s))}
	b = append(b, s...)
	return append(b, 0x00)
}

// GIFApp builds an application extension with an 11-byte identifier and
// one data sub-block.
func GIFApp(id string, payload []byte) []byte {
	b := []byte{0x21, 0xFF, 0x0B}
	b = append(b, id...)
	b = append(b, byte(len(payload)))
	b = append(b, payload...)
	return append(b, 0x00)
}

// GIF builds a 1×1 GIF89a with a two-colour global table, the given
// blocks and a trailer.
func GIF(blocks ...[]byte) []byte {
	out := append([]byte{}, gifScreen...)
	out = append(out, gifPalette...)
	for _, b := range blocks {
		out = append(out, b...)
	}
	return append(out, 0x3B)
}

// WebP builds a RIFF/WEBP file from chunks.
func WebP(chunks ...container.Chunk) []byte {
	return container.WriteWebP(chunks)
}

// VP8X returns an extended-format header chunk for a w×h canvas.
func VP8X(flags byte, w, h int) container.Chunk {
	d := make([]byte, 10)
	d[0] = flags
	w--
	h--
	d[4], d[5], d[6] = byte(w), byte(w>>8), byte(w>>16)
	d[7], d[8], d[9] = byte(h), byte(h>>8), byte(h>>16)
	return container.Chunk{Type: "VP8X", Data: d}
}

// HEIFItem describes one item of a fixture HEIC file.
type HEIFItem struct {
	ID          uint16
	Type        string // 4CC
	ContentType string // for "mime" items
	Data        []byte
}

// HEIFExifPayload prefixes a TIFF block the way HEIF Exif items carry it.
func HEIFExifPayload(tiff []byte) []byte {
	return append([]byte{0, 0, 0, 6, 'E', 'x', 'i', 'f', 0, 0}, tiff...)
}

// HEIC builds ftyp, a meta box (iinf + iloc) and an mdat holding every
// item's data back to back.
func HEIC(items ...HEIFItem) []byte {
	ftyp := box("ftyp", []byte("heic\x00\x00\x00\x00mif1heic"))
	build := func(dataStart int) []byte {
		var infes []byte
		for _, it := range items {
			p := []byte{2, 0, 0, 0}
			p = binary.BigEndian.AppendUint16(p, it.ID)
			p = append(p, 0, 0) // protection index
			p = append(p, it.Type...)
			p = append(p, 0) // empty item name
			if it.Type == "mime" {
				p = append(p, it.ContentType...)
				p = append(p, 0)
			}
			infes = append(infes, box("infe", p)...)
		}
		iinf := binary.BigEndian.AppendUint16([]byte{0, 0, 0, 0}, uint16(len(items)))
		iinf = append(iinf, infes...)

		iloc := []byte{0, 0, 0, 0, 0x44, 0x00}
		iloc = binary.BigEndian.AppendUint16(iloc, uint16(len(items)))
		off := dataStart
		for _, it := range items {
			iloc = binary.BigEndian.AppendUint16(iloc, it.ID)
			iloc = append(iloc, 0, 0) // data reference index
			iloc = binary.BigEndian.AppendUint16(iloc, 1)
			iloc = binary.BigEndian.AppendUint32(iloc, uint32(off))
			iloc = binary.BigEndian.AppendUint32(iloc, uint32(len(it.Data)))
			off += len(it.Data)
		}
		meta := []byte{0, 0, 0, 0}
		meta = append(meta, box("iinf", iinf)...)
		meta = append(meta, box("iloc", iloc)...)
		return box("meta", meta)
	}
	meta := build(0)
	meta = build(len(ftyp) + len(meta) + 8)

	var mdat []byte
	for _, it := range items {
		mdat = append(mdat, it.Data...)
	}
	out := append(append([]byte{}, ftyp...), meta...)
	return append(out, box("mdat", mdat)...)
}

func box(typ string, payload []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(8+len(payload)))
	b = append(b, typ...)
	return append(b, payload...)
}
