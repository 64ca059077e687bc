// Package meta reads embedded metadata from image bytes into a flat tag map
// and infers which preserve options make sense for a file.
package meta

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"encoding/xml"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

// Extractor adapts Extract to the job manager.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor that logs parse failures at debug level.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns the tag map for src, or nil when nothing could be read.
func (e *Extractor) Extract(ctx context.Context, src core.SourceFile) core.Tags {
	if ctx.Err() != nil {
		return nil
	}
	tags := Extract(src.Data)
	e.logger.Debug("metadata extracted", "file", src.Name, "tags", len(tags))
	return tags
}

// Extract reads every metadata block it recognises in data. It never fails:
// unreadable, unsupported or metadata-free input all yield nil.
func Extract(data []byte) (tags core.Tags) {
	defer func() {
		if recover() != nil {
			tags = nil
		}
	}()

	tags = core.Tags{}
	switch core.DetectFormat(data) {
	case core.FmtJPEG:
		extractJPEG(data, tags)
	case core.FmtPNG:
		extractPNG(data, tags)
	case core.FmtWebP:
		extractWebP(data, tags)
	case core.FmtGIF:
		extractGIF(data, tags)
	case core.FmtSVG:
		extractSVG(data, tags)
	case core.FmtHEIC:
		extractHEIC(data, tags)
	case core.FmtTIFF, core.FmtDNG, core.FmtRAW:
		extractRaw(data, tags)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// ─── JPEG ────────────────────────────────────────────────────────────────────

var (
	prefixEXIF = "Exif\x00\x00"
	prefixXMP  = "http://ns.adobe.com/xap/1.0/\x00"
	prefixICC  = "ICC_PROFILE\x00"
	prefixPS   = "Photoshop 3.0\x00"
)

func extractJPEG(data []byte, tags core.Tags) {
	segs, err := container.ParseJPEG(data)
	if err != nil {
		return
	}
	var icc [][]byte
	var comments []string
	for _, seg := range segs {
		switch {
		case seg.Marker == container.MarkerAPP1 && seg.HasPrefix(prefixEXIF):
			decodeEXIF(seg.Data[len(prefixEXIF):], tags)
		case seg.Marker == container.MarkerAPP1 && seg.HasPrefix(prefixXMP):
			parseXMP(seg.Data[len(prefixXMP):], tags)
		case seg.Marker == container.MarkerAPP2 && seg.HasPrefix(prefixICC) && len(seg.Data) > 14:
			icc = append(icc, seg.Data)
		case seg.Marker == container.MarkerAPP13 && seg.HasPrefix(prefixPS):
			parseIPTC(seg.Data[len(prefixPS):], tags)
		case seg.Marker == container.MarkerCOM:
			if s := strings.TrimSpace(string(seg.Data)); s != "" {
				comments = append(comments, s)
			}
		}
	}
	if len(icc) > 0 {
		parseICC(joinICCChunks(icc), tags)
	}
	addComments(tags, comments)
}

// joinICCChunks orders APP2 ICC chunks by their sequence number.
func joinICCChunks(chunks [][]byte) []byte {
	out := make([][]byte, 256)
	for _, c := range chunks {
		out[c[12]] = c[14:]
	}
	return bytes.Join(out, nil)
}

func addComments(tags core.Tags, comments []string) {
	switch len(comments) {
	case 0:
	case 1:
		tags["Comment"] = comments[0]
	default:
		tags["Comment"] = comments
	}
}

// ─── PNG ─────────────────────────────────────────────────────────────────────

func extractPNG(data []byte, tags core.Tags) {
	chunks, err := container.ParsePNG(data)
	if err != nil {
		return
	}
	for _, c := range chunks {
		switch c.Type {
		case "IHDR":
			if len(c.Data) >= 8 {
				tags["ImageWidth"] = int(binary.BigEndian.Uint32(c.Data[0:4]))
				tags["ImageHeight"] = int(binary.BigEndian.Uint32(c.Data[4:8]))
			}
		case "tEXt", "zTXt", "iTXt":
			key, val, ok := pngText(c)
			if !ok {
				continue
			}
			if key == "XML:com.adobe.xmp" {
				parseXMP([]byte(val), tags)
				continue
			}
			if _, exists := tags[key]; !exists {
				tags[key] = val
			}
		case "eXIf":
			decodeEXIF(c.Data, tags)
		case "iCCP":
			if p, ok := pngCompressed(c.Data); ok {
				parseICC(p, tags)
			}
		case "tIME":
			if len(c.Data) == 7 {
				year := int(binary.BigEndian.Uint16(c.Data[0:2]))
				tags["LastModified"] = time.Date(year, time.Month(c.Data[2]), int(c.Data[3]),
					int(c.Data[4]), int(c.Data[5]), int(c.Data[6]), 0, time.UTC)
			}
		}
	}
}

// pngCompressed decodes "name\0 method zlib-data" payloads (iCCP, zTXt).
func pngCompressed(b []byte) ([]byte, bool) {
	null := bytes.IndexByte(b, 0)
	if null < 0 || null+2 > len(b) {
		return nil, false
	}
	return inflate(b[null+2:])
}

func inflate(b []byte) ([]byte, bool) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, false
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, 16<<20))
	if err != nil {
		return nil, false
	}
	return out, true
}

func pngText(c container.Chunk) (string, string, bool) {
	null := bytes.IndexByte(c.Data, 0)
	if null <= 0 {
		return "", "", false
	}
	key := string(c.Data[:null])
	rest := c.Data[null+1:]
	switch c.Type {
	case "tEXt":
		return key, string(rest), true
	case "zTXt":
		if len(rest) < 1 {
			return "", "", false
		}
		p, ok := inflate(rest[1:])
		return key, string(p), ok
	}
	// iTXt: flag, method, language\0, translated keyword\0, text
	if len(rest) < 2 {
		return "", "", false
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	for i := 0; i < 2; i++ {
		n := bytes.IndexByte(rest, 0)
		if n < 0 {
			return "", "", false
		}
		rest = rest[n+1:]
	}
	if compressed {
		p, ok := inflate(rest)
		return key, string(p), ok
	}
	return key, string(rest), true
}

// ─── WebP ────────────────────────────────────────────────────────────────────

func extractWebP(data []byte, tags core.Tags) {
	chunks, err := container.ParseWebP(data)
	if err != nil {
		return
	}
	for _, c := range chunks {
		switch c.Type {
		case "VP8X":
			if len(c.Data) >= 10 {
				tags["ImageWidth"] = int(uint32(c.Data[4])|uint32(c.Data[5])<<8|uint32(c.Data[6])<<16) + 1
				tags["ImageHeight"] = int(uint32(c.Data[7])|uint32(c.Data[8])<<8|uint32(c.Data[9])<<16) + 1
			}
		case "EXIF":
			decodeEXIF(c.Data, tags)
		case "XMP ":
			parseXMP(c.Data, tags)
		case "ICCP":
			parseICC(c.Data, tags)
		}
	}
}

// ─── GIF ─────────────────────────────────────────────────────────────────────

func extractGIF(data []byte, tags core.Tags) {
	_, blocks, err := container.ParseGIF(data)
	if err != nil {
		return
	}
	var comments []string
	for _, b := range blocks {
		if b.Kind != container.GIFExtension {
			continue
		}
		switch {
		case b.Label == container.GIFLabelComment:
			if s := strings.TrimSpace(string(b.Payload())); s != "" {
				comments = append(comments, s)
			}
		case b.AppID == "XMP DataXMP":
			if p := findXMPPacket(b.Raw); p != nil {
				parseXMP(p, tags)
			}
		}
	}
	addComments(tags, comments)
}

// ─── SVG ─────────────────────────────────────────────────────────────────────

var svgMetadataRe = regexp.MustCompile(`(?is)<metadata[^>]*>(.*?)</metadata>`)

func extractSVG(data []byte, tags core.Tags) {
	type svgMeta struct {
		Title string `xml:"title"`
		Desc  string `xml:"desc"`
	}
	var svg svgMeta
	if err := xml.Unmarshal(data, &svg); err == nil {
		if s := strings.TrimSpace(svg.Title); s != "" {
			tags["Title"] = s
		}
		if s := strings.TrimSpace(svg.Desc); s != "" {
			tags["Description"] = s
		}
	}
	if match := svgMetadataRe.FindSubmatch(data); match != nil {
		parseXMP(match[1], tags)
	}
}

// ─── HEIC ────────────────────────────────────────────────────────────────────

func extractHEIC(data []byte, tags core.Tags) {
	items, err := container.HEIFItems(data)
	if err != nil {
		return
	}
	for _, it := range items {
		switch {
		case it.Type == "Exif":
			p, err := it.Bytes(data)
			if err != nil || len(p) < 4 {
				continue
			}
			// Payload starts with the offset of the TIFF header.
			skip := int(binary.BigEndian.Uint32(p[0:4]))
			if 4+skip <= len(p) {
				decodeEXIF(p[4+skip:], tags)
			}
		case it.IsXMP():
			if p, err := it.Bytes(data); err == nil {
				parseXMP(p, tags)
			}
		}
	}
}

// ─── TIFF / DNG / RAW ────────────────────────────────────────────────────────

func extractRaw(data []byte, tags core.Tags) {
	if decodeEXIF(data, tags) {
		return
	}
	// RAF and other non-TIFF raws embed a JPEG preview carrying the EXIF.
	if preview := container.EmbeddedJPEG(data); preview != nil {
		extractJPEG(preview, tags)
	}
}
