package image

import (
	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

// Application extensions that control playback and are kept.
var gifPlaybackApps = map[string]bool{
	"NETSCAPE2.0": true,
	"ANIMEXTS1.0": true,
}

const gifICCApp = "ICCRGBG1012"

func cleanGIF(data []byte, opts core.Options, rm *removed) ([]byte, error) {
	header, blocks, err := container.ParseGIF(data)
	if err != nil {
		return nil, err
	}

	out := make([]container.GIFBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind != container.GIFExtension {
			out = append(out, b)
			continue
		}
		switch {
		case b.Label == container.GIFLabelComment:
			rm.add(catComments)
		case b.Label != container.GIFLabelApplication:
			out = append(out, b) // graphic control, plain text
		case gifPlaybackApps[b.AppID]:
			out = append(out, b)
		case b.AppID == gifICCApp:
			if opts.Enabled(core.PreserveColorProfile) {
				out = append(out, b)
				continue
			}
			rm.add(catICC)
		case b.AppID == "XMP DataXMP":
			rm.add(catXMP)
		default:
			rm.add(catAppData)
		}
	}
	return container.WriteGIF(header, out), nil
}
