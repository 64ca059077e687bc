package meta

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
)

const rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

var xmpDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseXMP reads an XMP packet and adds every property as a tag named by its
// local name. Existing tags are never overwritten: EXIF wins over XMP.
func parseXMP(data []byte, tags core.Tags) {
	found := core.Tags{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var stack []xml.Name
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name)
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" ||
					attr.Name.Space == rdfNS || attr.Name.Local == "xmptk" || attr.Value == "" {
					continue
				}
				addXMP(found, attr.Name.Local, attr.Value)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val == "" {
				continue
			}
			if key := propertyName(stack); key != "" {
				addXMP(found, key, val)
			}
		}
	}

	for k, v := range found {
		if _, ok := tags[k]; !ok {
			tags[k] = v
		}
	}
}

// propertyName returns the innermost element that is not RDF plumbing
// (rdf:Seq, rdf:li, …), so list items are attributed to their property.
func propertyName(stack []xml.Name) string {
	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i]
		if n.Space == rdfNS || n.Local == "RDF" || n.Local == "li" ||
			n.Local == "Seq" || n.Local == "Bag" || n.Local == "Alt" || n.Local == "Description" {
			continue
		}
		if n.Local == "xmpmeta" {
			return ""
		}
		return n.Local
	}
	return ""
}

func addXMP(found core.Tags, key, val string) {
	var v any = val
	for _, layout := range xmpDateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			v = t
			break
		}
	}
	switch prev := found[key].(type) {
	case nil:
		found[key] = v
	case []string:
		found[key] = append(prev, val)
	case string:
		found[key] = []string{prev, val}
	}
}

// findXMPPacket locates an embedded <x:xmpmeta> document in raw bytes.
func findXMPPacket(data []byte) []byte {
	start := bytes.Index(data, []byte("<x:xmpmeta"))
	if start < 0 {
		return nil
	}
	end := bytes.Index(data[start:], []byte("</x:xmpmeta>"))
	if end < 0 {
		return nil
	}
	return data[start : start+end+len("</x:xmpmeta>")]
}
