package meta

import (
	"bytes"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifAliases renames goexif field names to the names the rest of picscrub
// (and most tag readers) use.
var exifAliases = map[string]string{
	"DateTime":          "ModifyDate",
	"DateTimeDigitized": "CreateDate",
	"ISOSpeedRatings":   "ISO",
	"PixelXDimension":   "ExifImageWidth",
	"PixelYDimension":   "ExifImageHeight",
	"ImageLength":       "ImageHeight",
}

// Structural tags with no meaning to a user.
var exifSkip = map[string]bool{
	"ExifIFDPointer":                   true,
	"GPSInfoIFDPointer":                true,
	"InteroperabilityIFDPointer":       true,
	"MakerNote":                        true,
	"ThumbJPEGInterchangeFormat":       true,
	"ThumbJPEGInterchangeFormatLength": true,
}

var exifDateKeys = map[string]bool{
	"ModifyDate":       true,
	"DateTimeOriginal": true,
	"CreateDate":       true,
}

const exifDateLayout = "2006:01:02 15:04:05"

// decodeEXIF parses a TIFF-structured EXIF block (or a whole TIFF/JPEG) and
// merges its fields into tags.
func decodeEXIF(data []byte, tags core.Tags) bool {
	data = bytes.TrimPrefix(data, []byte("Exif\x00\x00"))
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}
	x.Walk(exifWalker{tags: tags})

	if lat, long, err := x.LatLong(); err == nil {
		tags["latitude"] = lat
		tags["longitude"] = long
	}
	return true
}

type exifWalker struct {
	tags core.Tags
}

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	if exifSkip[key] {
		return nil
	}
	if alias, ok := exifAliases[key]; ok {
		key = alias
	}
	if v, ok := tagValue(key, tag); ok {
		w.tags[key] = v
	}
	return nil
}

func tagValue(key string, tag *tiff.Tag) (any, bool) {
	n := int(tag.Count)
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		s = strings.TrimRight(s, "\x00 ")
		if s == "" {
			return nil, false
		}
		if exifDateKeys[key] {
			if t, err := time.Parse(exifDateLayout, s); err == nil {
				return t, true
			}
		}
		return s, true
	case tiff.IntVal:
		vals := make([]int, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Int(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, v)
		}
		return collapseInts(vals)
	case tiff.RatVal:
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil || den == 0 {
				return nil, false
			}
			vals = append(vals, float64(num)/float64(den))
		}
		return collapseFloats(vals)
	case tiff.FloatVal:
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Float(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, v)
		}
		return collapseFloats(vals)
	default:
		return printable(tag.Val)
	}
}

func collapseInts(v []int) (any, bool) {
	switch len(v) {
	case 0:
		return nil, false
	case 1:
		return v[0], true
	}
	return v, true
}

func collapseFloats(v []float64) (any, bool) {
	switch len(v) {
	case 0:
		return nil, false
	case 1:
		return v[0], true
	}
	return v, true
}

// printable returns b as a string when it is short readable text.
func printable(b []byte) (any, bool) {
	// UserComment carries an 8-byte character code prefix.
	for _, prefix := range []string{"ASCII\x00\x00\x00", "UNICODE\x00", "\x00\x00\x00\x00\x00\x00\x00\x00"} {
		b = bytes.TrimPrefix(b, []byte(prefix))
	}
	b = bytes.TrimRight(b, "\x00 ")
	if len(b) == 0 || len(b) > 256 || !utf8.Valid(b) {
		return nil, false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return nil, false
		}
	}
	return string(b), true
}
