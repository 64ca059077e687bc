package core

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"sort"
	"strings"
)

// FormatID enumerates every recognised image format.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtWebP FormatID = "webp"
	FmtGIF  FormatID = "gif"
	FmtSVG  FormatID = "svg"
	FmtTIFF FormatID = "tiff"
	FmtHEIC FormatID = "heic"
	FmtDNG  FormatID = "dng"
	FmtRAW  FormatID = "raw"

	FmtUnknown FormatID = "unknown"
)

// Extension returns the file extension (without dot) used for output files.
func (f FormatID) Extension() string {
	if f == FmtJPEG {
		return "jpg"
	}
	return string(f)
}

// acceptedFormats is the intake allow-list: declared MIME type → extensions.
var acceptedFormats = map[string][]string{
	"image/jpeg":        {".jpg", ".jpeg"},
	"image/png":         {".png"},
	"image/webp":        {".webp"},
	"image/gif":         {".gif"},
	"image/svg+xml":     {".svg"},
	"image/tiff":        {".tiff", ".tif"},
	"image/heic":        {".heic", ".heif"},
	"image/heif":        {".heic", ".heif"},
	"image/x-adobe-dng": {".dng"},
	"image/x-raw":       {".cr2", ".cr3", ".nef", ".arw", ".orf", ".rw2", ".raf", ".pef", ".srw"},
}

// AcceptedFormat is one row of the intake allow-list.
type AcceptedFormat struct {
	MIME       string
	Extensions []string
}

// AcceptedFormats returns the intake allow-list sorted by MIME type.
func AcceptedFormats() []AcceptedFormat {
	out := make([]AcceptedFormat, 0, len(acceptedFormats))
	for m, exts := range acceptedFormats {
		out = append(out, AcceptedFormat{MIME: m, Extensions: exts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MIME < out[j].MIME })
	return out
}

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".png":  FmtPNG,
	".webp": FmtWebP,
	".gif":  FmtGIF,
	".svg":  FmtSVG,
	".tiff": FmtTIFF,
	".tif":  FmtTIFF,
	".heic": FmtHEIC,
	".heif": FmtHEIC,
	".dng":  FmtDNG,
	".cr2":  FmtRAW,
	".cr3":  FmtRAW,
	".nef":  FmtRAW,
	".arw":  FmtRAW,
	".orf":  FmtRAW,
	".rw2":  FmtRAW,
	".raf":  FmtRAW,
	".pef":  FmtRAW,
	".srw":  FmtRAW,
}

var mimeTypes = map[FormatID]string{
	FmtJPEG:    "image/jpeg",
	FmtPNG:     "image/png",
	FmtWebP:    "image/webp",
	FmtGIF:     "image/gif",
	FmtSVG:     "image/svg+xml",
	FmtTIFF:    "image/tiff",
	FmtHEIC:    "image/heic",
	FmtDNG:     "image/x-adobe-dng",
	FmtRAW:     "image/x-raw",
	FmtUnknown: "application/octet-stream",
}

// MIMEType returns the media type used when serving a file of format f.
func MIMEType(f FormatID) string {
	if m, ok := mimeTypes[f]; ok {
		return m
	}
	return "application/octet-stream"
}

// FormatForName guesses a format from the file extension alone.
func FormatForName(name string) FormatID {
	if id, ok := extMap[strings.ToLower(filepath.Ext(name))]; ok {
		return id
	}
	return FmtUnknown
}

// MIMEForName returns the declared MIME type implied by the extension of name.
func MIMEForName(name string) string {
	return MIMEType(FormatForName(name))
}

// Accepts reports whether a file with this name and declared MIME type is on
// the intake allow-list. Either a known MIME type or a known extension is
// enough.
func Accepts(name, mime string) bool {
	if _, ok := acceptedFormats[strings.ToLower(mime)]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, exts := range acceptedFormats {
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
	}
	return false
}

// DetectFormat returns the FormatID for data by reading magic bytes only.
func DetectFormat(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return FmtPNG
	// GIF: GIF87a or GIF89a
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return FmtGIF
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	// Fujifilm RAF
	case bytes.HasPrefix(b, []byte("FUJIFILMCCD-RAW")):
		return FmtRAW
	// Olympus ORF and Panasonic RW2 use private TIFF magics
	case bytes.HasPrefix(b, []byte("IIRO")) || bytes.HasPrefix(b, []byte("IIRS")) ||
		bytes.HasPrefix(b, []byte("MMOR")) || bytes.HasPrefix(b, []byte{'I', 'I', 'U', 0x00}):
		return FmtRAW
	// TIFF: 49 49 2A 00 (little-endian) or 4D 4D 00 2A (big-endian)
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return detectTIFFSubtype(b)
	// ISOBMFF: ftyp box at offset 4
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectBMFFSubtype(b)
	}
	if looksLikeSVG(b) {
		return FmtSVG
	}
	return FmtUnknown
}

var heifBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true,
	"heim": true, "heis": true, "mif1": true, "msf1": true,
}

func detectBMFFSubtype(b []byte) FormatID {
	brand := string(b[8:12])
	if brand == "crx " {
		return FmtRAW // Canon CR3
	}
	if heifBrands[brand] {
		return FmtHEIC
	}
	return FmtUnknown
}

// TIFF tags that tell camera raw files apart from plain TIFF.
const (
	tagMake       = 0x010F
	tagSubIFDs    = 0x014A
	tagDNGVersion = 0xC612
)

func detectTIFFSubtype(b []byte) FormatID {
	// Canon CR2 carries "CR" right after the TIFF header.
	if len(b) >= 10 && b[8] == 'C' && b[9] == 'R' {
		return FmtRAW
	}
	tags := ifd0Tags(b)
	if tags[tagDNGVersion] {
		return FmtDNG
	}
	if tags[tagSubIFDs] && tags[tagMake] {
		return FmtRAW
	}
	return FmtTIFF
}

// ifd0Tags returns the set of tag IDs present in the first IFD.
func ifd0Tags(b []byte) map[uint16]bool {
	var order binary.ByteOrder = binary.LittleEndian
	if b[0] == 'M' {
		order = binary.BigEndian
	}
	out := map[uint16]bool{}
	if len(b) < 8 {
		return out
	}
	off := int(order.Uint32(b[4:8]))
	if off < 8 || off+2 > len(b) {
		return out
	}
	n := int(order.Uint16(b[off : off+2]))
	p := off + 2
	for i := 0; i < n && p+12 <= len(b); i++ {
		out[order.Uint16(b[p:p+2])] = true
		p += 12
	}
	return out
}

func looksLikeSVG(b []byte) bool {
	head := b
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.TrimPrefix(head, []byte("\xEF\xBB\xBF"))
	head = bytes.TrimLeft(head, " \t\r\n")
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
