package image

import (
	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

const (
	prefixXMP = "http://ns.adobe.com/" // standard and extended XMP
	prefixICC = "ICC_PROFILE\x00"
)

// cleanJPEG drops every metadata segment. JFIF (APP0) and Adobe (APP14)
// are kept because decoders need them to interpret the pixels.
func cleanJPEG(data []byte, opts core.Options, rm *removed) ([]byte, error) {
	// Anything after the primary image's EOI (MPF secondary images,
	// vendor trailers) goes too.
	if end := container.JPEGEnd(data, 0); end > 0 && end < len(data) {
		data = data[:end]
		rm.add(catTrailing)
	}
	segs, err := container.ParseJPEG(data)
	if err != nil {
		return nil, err
	}

	out := make([]container.Segment, 0, len(segs))
	exifKept := false
	for _, seg := range segs {
		switch {
		case seg.Marker == container.MarkerAPP1 && seg.HasPrefix(exifHeader):
			tiffData := seg.Data[len(exifHeader):]
			noteEXIF(tiffData, rm)
			if exifKept {
				continue
			}
			if kept := keptEXIF(tiffData, opts); kept != nil {
				out = append(out, container.Segment{
					Marker: container.MarkerAPP1,
					Data:   append([]byte(exifHeader), kept...),
				})
				exifKept = true
			}
		case seg.Marker == container.MarkerAPP1 && seg.HasPrefix(prefixXMP):
			rm.add(catXMP)
		case seg.Marker == container.MarkerAPP2 && seg.HasPrefix(prefixICC):
			if opts.Enabled(core.PreserveColorProfile) {
				out = append(out, seg)
				continue
			}
			rm.add(catICC)
		case seg.Marker == container.MarkerAPP13:
			rm.add(catIPTC)
		case seg.Marker == container.MarkerCOM:
			rm.add(catComments)
		case seg.Marker == container.MarkerAPP0 && (seg.HasPrefix("JFIF\x00") || seg.HasPrefix("JFXX\x00")):
			out = append(out, seg)
		case seg.Marker == container.MarkerAPP14 && seg.HasPrefix("Adobe"):
			out = append(out, seg)
		case seg.IsAPPn():
			rm.add(catAppData)
		default:
			out = append(out, seg)
		}
	}
	return container.WriteJPEG(out), nil
}
