package image

import (
	"unicode"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

// Ancillary PNG chunks that affect rendering or animation and are kept.
var pngSafeChunks = map[string]bool{
	"tRNS": true, "gAMA": true, "cHRM": true, "sRGB": true, "sBIT": true,
	"bKGD": true, "pHYs": true, "hIST": true, "sPLT": true,
	"cICP": true, "mDCv": true, "cLLi": true,
	"acTL": true, "fcTL": true, "fdAT": true,
}

func cleanPNG(data []byte, opts core.Options, rm *removed) ([]byte, error) {
	chunks, err := container.ParsePNG(data)
	if err != nil {
		return nil, err
	}

	out := make([]container.Chunk, 0, len(chunks))
	for _, c := range chunks {
		switch c.Type {
		case "tEXt", "zTXt", "iTXt":
			kw := container.TextKeyword(c)
			if kw == "Copyright" && opts.Enabled(core.PreserveCopyright) {
				out = append(out, c)
				continue
			}
			if kw == "XML:com.adobe.xmp" {
				rm.add(catXMP)
				continue
			}
			rm.add(catText)
		case "eXIf":
			noteEXIF(c.Data, rm)
			if kept := keptEXIF(c.Data, opts); kept != nil {
				out = append(out, container.Chunk{Type: "eXIf", Data: kept})
			}
		case "iCCP":
			if opts.Enabled(core.PreserveColorProfile) {
				out = append(out, c)
				continue
			}
			rm.add(catICC)
		case "tIME":
			rm.add(catTimestamps)
		default:
			// Critical chunks start with an upper-case letter.
			if unicode.IsUpper(rune(c.Type[0])) || pngSafeChunks[c.Type] {
				out = append(out, c)
				continue
			}
			rm.add(catAppData)
		}
	}
	return container.WritePNG(out), nil
}
