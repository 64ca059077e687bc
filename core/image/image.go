// Package image removes metadata from every supported image format:
// JPEG, PNG, WebP, GIF, SVG, TIFF, HEIC/HEIF and camera raw (DNG, CR2, NEF, …).
//
// Each format honours the preserve options it can represent; options a
// format cannot carry are ignored.
package image

import (
	"fmt"

	"github.com/ankit-chaubey/picscrub/core"
)

// Remove strips metadata from data and reports what was removed. The output
// format can differ from the input: camera raw files yield their embedded
// JPEG preview.
func Remove(data []byte, opts core.Options) (*core.Result, error) {
	if len(data) == 0 {
		return nil, core.ErrEmptyInput
	}
	format := core.DetectFormat(data)

	var (
		out    []byte
		outFmt = format
		rm     = &removed{}
		err    error
	)
	switch format {
	case core.FmtJPEG:
		out, err = cleanJPEG(data, opts, rm)
	case core.FmtPNG:
		out, err = cleanPNG(data, opts, rm)
	case core.FmtWebP:
		out, err = cleanWebP(data, opts, rm)
	case core.FmtGIF:
		out, err = cleanGIF(data, opts, rm)
	case core.FmtSVG:
		out, err = cleanSVG(data, opts, rm)
	case core.FmtTIFF:
		out, err = cleanTIFF(data, opts, rm)
	case core.FmtHEIC:
		out, err = cleanHEIC(data, opts, rm)
	case core.FmtDNG, core.FmtRAW:
		out, err = cleanRaw(data, opts, rm)
		outFmt = core.FmtJPEG
	default:
		return nil, core.ErrFormatUnsupported
	}
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", format, err)
	}

	return &core.Result{
		OriginalFormat: format,
		OutputFormat:   outFmt,
		OriginalSize:   int64(len(data)),
		CleanedSize:    int64(len(out)),
		Data:           out,
		Removed:        rm.list(),
	}, nil
}

// Removed-category names reported to the user.
const (
	catEXIF        = "EXIF"
	catGPS         = "GPS location"
	catXMP         = "XMP"
	catIPTC        = "IPTC"
	catICC         = "ICC profile"
	catComments    = "Comments"
	catText        = "Text chunks"
	catTimestamps  = "Timestamps"
	catAppData     = "Application data"
	catTrailing    = "Trailing data"
	catMetadata    = "Metadata"
	catEditor      = "Editor data"
	catTitle       = "Title"
	catDescription = "Description"
	catTIFFTags    = "TIFF tags"
	catRawData     = "Raw sensor data"
)

// removed collects category names once each, in first-seen order.
type removed struct {
	names []string
}

func (r *removed) add(name string) {
	for _, n := range r.names {
		if n == name {
			return
		}
	}
	r.names = append(r.names, name)
}

func (r *removed) list() []string {
	if r.names == nil {
		return []string{}
	}
	return r.names
}
