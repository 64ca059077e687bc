package image

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/rwcarlsen/goexif/exif"
)

const exifHeader = "Exif\x00\x00"

// EXIF tag IDs that can survive a clean.
const (
	tagOrientation uint16 = 0x0112
	tagCopyright   uint16 = 0x8298
)

// TIFF field types.
const (
	typeASCII uint16 = 2
	typeShort uint16 = 3
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

// noteEXIF records the EXIF removal, and GPS when the block carried a
// location.
func noteEXIF(tiffData []byte, rm *removed) {
	rm.add(catEXIF)
	x, err := exif.Decode(bytes.NewReader(bytes.TrimPrefix(tiffData, []byte(exifHeader))))
	if err != nil {
		return
	}
	if _, _, err := x.LatLong(); err == nil {
		rm.add(catGPS)
	}
}

// keptEXIF returns a minimal TIFF-structured EXIF block holding only the
// fields the options preserve, or nil when nothing is kept.
func keptEXIF(tiffData []byte, opts core.Options) []byte {
	if !opts.Enabled(core.PreserveOrientation) && !opts.Enabled(core.PreserveCopyright) {
		return nil
	}
	x, err := exif.Decode(bytes.NewReader(bytes.TrimPrefix(tiffData, []byte(exifHeader))))
	if err != nil {
		return nil
	}

	var entries []ifdEntry
	if opts.Enabled(core.PreserveOrientation) {
		if tag, err := x.Get(exif.Orientation); err == nil {
			if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
				val := make([]byte, 2)
				binary.LittleEndian.PutUint16(val, uint16(v))
				entries = append(entries, ifdEntry{tag: tagOrientation, typ: typeShort, count: 1, value: val})
			}
		}
	}
	if opts.Enabled(core.PreserveCopyright) {
		if tag, err := x.Get(exif.Copyright); err == nil {
			if s, err := tag.StringVal(); err == nil && s != "" {
				val := append([]byte(s), 0)
				entries = append(entries, ifdEntry{tag: tagCopyright, typ: typeASCII, count: uint32(len(val)), value: val})
			}
		}
	}
	if len(entries) == 0 {
		return nil
	}
	return buildEXIF(entries)
}

// buildEXIF writes a little-endian TIFF header and a single IFD.
func buildEXIF(entries []ifdEntry) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	var buf bytes.Buffer
	buf.WriteString("II")
	buf.Write([]byte{0x2A, 0x00})
	buf.Write([]byte{0x08, 0x00, 0x00, 0x00}) // offset to IFD0

	// Each entry: 2 tag + 2 type + 4 count + 4 value/offset = 12 bytes
	const ifdBase = 8
	valOffset := ifdBase + 2 + len(entries)*12 + 4

	le16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	le32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }

	var values bytes.Buffer
	le16(uint16(len(entries)))
	for _, e := range entries {
		le16(e.tag)
		le16(e.typ)
		le32(e.count)
		if len(e.value) <= 4 {
			padded := make([]byte, 4)
			copy(padded, e.value)
			buf.Write(padded)
			continue
		}
		le32(uint32(valOffset + values.Len()))
		values.Write(e.value)
		if values.Len()%2 != 0 {
			values.WriteByte(0) // word alignment
		}
	}
	le32(0) // next IFD offset = 0

	buf.Write(values.Bytes())
	return buf.Bytes()
}
