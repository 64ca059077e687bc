package meta

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/ankit-chaubey/picscrub/core"
)

var iccClasses = map[string]string{
	"scnr": "Input Device Profile",
	"mntr": "Display Device Profile",
	"prtr": "Output Device Profile",
	"link": "DeviceLink Profile",
	"spac": "ColorSpace Conversion Profile",
	"abst": "Abstract Profile",
	"nmcl": "NamedColor Profile",
}

var iccIntents = map[uint32]string{
	0: "Perceptual",
	1: "Media-Relative Colorimetric",
	2: "Saturation",
	3: "ICC-Absolute Colorimetric",
}

// Text tags read from the ICC tag table.
var iccTextTags = map[string]string{
	"desc": "ProfileDescription",
	"dmnd": "DeviceMfgDesc",
	"dmdd": "DeviceModelDesc",
	"cprt": "ProfileCopyright",
}

// parseICC reads the profile header and descriptive text tags.
func parseICC(p []byte, tags core.Tags) {
	if len(p) < 132 || string(p[36:40]) != "acsp" {
		return
	}
	if c, ok := iccClasses[string(p[12:16])]; ok {
		tags["ProfileClass"] = c
	}
	if s := strings.TrimSpace(string(p[16:20])); s != "" {
		tags["ColorSpaceData"] = s
	}
	if s := strings.TrimSpace(string(p[20:24])); s != "" {
		tags["ConnectionSpaceType"] = s
	}
	if intent, ok := iccIntents[binary.BigEndian.Uint32(p[64:68])]; ok {
		tags["RenderingIntent"] = intent
	}

	count := int(binary.BigEndian.Uint32(p[128:132]))
	for i := 0; i < count; i++ {
		e := 132 + i*12
		if e+12 > len(p) {
			break
		}
		name, ok := iccTextTags[string(p[e:e+4])]
		if !ok {
			continue
		}
		off := int(binary.BigEndian.Uint32(p[e+4 : e+8]))
		size := int(binary.BigEndian.Uint32(p[e+8 : e+12]))
		if off < 0 || size < 12 || off+size > len(p) {
			continue
		}
		if s := iccText(p[off : off+size]); s != "" {
			tags[name] = s
		}
	}
}

// iccText decodes desc (v2), text and mluc (v4) tag types.
func iccText(b []byte) string {
	switch string(b[0:4]) {
	case "desc":
		n := int(binary.BigEndian.Uint32(b[8:12]))
		if 12+n > len(b) {
			return ""
		}
		return strings.TrimRight(string(b[12:12+n]), "\x00 ")
	case "text":
		return strings.TrimRight(string(b[8:]), "\x00 ")
	case "mluc":
		if len(b) < 28 || binary.BigEndian.Uint32(b[8:12]) == 0 {
			return ""
		}
		length := int(binary.BigEndian.Uint32(b[20:24]))
		off := int(binary.BigEndian.Uint32(b[24:28]))
		if off+length > len(b) || length%2 != 0 {
			return ""
		}
		u := make([]uint16, length/2)
		for i := range u {
			u[i] = binary.BigEndian.Uint16(b[off+2*i:])
		}
		return strings.TrimRight(string(utf16.Decode(u)), "\x00 ")
	}
	return ""
}
