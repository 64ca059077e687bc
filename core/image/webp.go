package image

import (
	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

func cleanWebP(data []byte, opts core.Options, rm *removed) ([]byte, error) {
	chunks, err := container.ParseWebP(data)
	if err != nil {
		return nil, err
	}

	out := make([]container.Chunk, 0, len(chunks))
	var hasICC, hasEXIF bool
	for _, c := range chunks {
		switch c.Type {
		case "EXIF":
			noteEXIF(c.Data, rm)
			if kept := keptEXIF(c.Data, opts); kept != nil {
				out = append(out, container.Chunk{Type: "EXIF", Data: kept})
				hasEXIF = true
			}
		case "XMP ":
			rm.add(catXMP)
		case "ICCP":
			if opts.Enabled(core.PreserveColorProfile) {
				out = append(out, c)
				hasICC = true
				continue
			}
			rm.add(catICC)
		default:
			out = append(out, c)
		}
	}

	// VP8X advertises which optional chunks are present.
	for i, c := range out {
		if c.Type != "VP8X" || len(c.Data) == 0 {
			continue
		}
		d := append([]byte{}, c.Data...)
		d[0] &^= container.VP8XFlagICC | container.VP8XFlagEXIF | container.VP8XFlagXMP
		if hasICC {
			d[0] |= container.VP8XFlagICC
		}
		if hasEXIF {
			d[0] |= container.VP8XFlagEXIF
		}
		out[i].Data = d
	}
	return container.WriteWebP(out), nil
}
