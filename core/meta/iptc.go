package meta

import (
	"bytes"
	"encoding/binary"

	"github.com/ankit-chaubey/picscrub/core"
)

var iptcFieldNames = map[byte]string{
	0x05: "ObjectName",
	0x0F: "Category",
	0x14: "SupplementalCategories",
	0x19: "Keywords",
	0x1E: "ReleaseDate",
	0x28: "SpecialInstructions",
	0x37: "DateCreated",
	0x3C: "TimeCreated",
	0x50: "Byline",
	0x55: "BylineTitle",
	0x5A: "City",
	0x5C: "Sublocation",
	0x5F: "State",
	0x65: "Country",
	0x67: "OriginalTransmissionReference",
	0x69: "Headline",
	0x6E: "Credit",
	0x73: "Source",
	0x74: "CopyrightNotice",
	0x76: "Contact",
	0x78: "Caption",
	0x7A: "Writer",
}

// parseIPTC walks Photoshop image resource blocks looking for the IPTC-NAA
// record (resource 0x0404).
func parseIPTC(data []byte, tags core.Tags) {
	i := 0
	for i+12 <= len(data) {
		if !bytes.Equal(data[i:i+4], []byte("8BIM")) {
			i++
			continue
		}
		resType := binary.BigEndian.Uint16(data[i+4 : i+6])
		nameLen := int(data[i+6])
		if nameLen%2 == 0 {
			nameLen++
		}
		i += 7 + nameLen
		if i+4 > len(data) {
			break
		}
		blockLen := int(binary.BigEndian.Uint32(data[i : i+4]))
		i += 4
		if blockLen < 0 || i+blockLen > len(data) {
			break
		}
		if resType == 0x0404 {
			parseIPTCBlock(data[i:i+blockLen], tags)
		}
		i += blockLen
		if blockLen%2 != 0 {
			i++
		}
	}
}

func parseIPTCBlock(data []byte, tags core.Tags) {
	i := 0
	for i+5 <= len(data) {
		if data[i] != 0x1C {
			i++
			continue
		}
		record := data[i+1]
		dataset := data[i+2]
		length := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
		i += 5
		if i+length > len(data) {
			break
		}
		val := string(bytes.TrimRight(data[i:i+length], "\x00"))
		i += length

		name, ok := iptcFieldNames[dataset]
		if record != 2 || !ok || val == "" {
			continue
		}
		if _, exists := tags[name]; exists && name != "Keywords" {
			continue
		}
		switch prev := tags[name].(type) {
		case nil:
			tags[name] = val
		case string:
			tags[name] = []string{prev, val}
		case []string:
			tags[name] = append(prev, val)
		}
	}
}
