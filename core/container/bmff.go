package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Extent is a byte range inside the file.
type Extent struct {
	Offset int64
	Length int64
}

// Item is one HEIF item as described by the meta box.
type Item struct {
	ID          uint32
	Type        string // 4CC, e.g. "hvc1", "Exif", "mime"
	ContentType string // for "mime" items
	Method      int    // iloc construction method; 0 means file offsets
	Extents     []Extent
}

// IsXMP reports whether the item carries an XMP packet.
func (it Item) IsXMP() bool {
	return it.Type == "mime" && bytes.Contains([]byte(it.ContentType), []byte("rdf+xml"))
}

// Bytes returns the concatenated payload of a file-offset item.
func (it Item) Bytes(data []byte) ([]byte, error) {
	if it.Method != 0 {
		return nil, fmt.Errorf("%w: construction method %d", ErrMalformed, it.Method)
	}
	var out []byte
	for _, e := range it.Extents {
		if e.Offset < 0 || e.Length < 0 || e.Offset+e.Length > int64(len(data)) {
			return nil, fmt.Errorf("%w: item %d extent overruns file", ErrMalformed, it.ID)
		}
		out = append(out, data[e.Offset:e.Offset+e.Length]...)
	}
	return out, nil
}

type box struct {
	typ     string
	payload []byte // content after the header
	start   int64  // absolute offset of the payload
}

func readBoxes(data []byte, base int64) ([]box, error) {
	var boxes []box
	i := 0
	for i+8 <= len(data) {
		size := int64(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		hdr := int64(8)
		switch size {
		case 1:
			if i+16 > len(data) {
				return nil, fmt.Errorf("%w: truncated box %q", ErrMalformed, typ)
			}
			size = int64(binary.BigEndian.Uint64(data[i+8 : i+16]))
			hdr = 16
		case 0:
			size = int64(len(data) - i)
		}
		if size < hdr || int64(i)+size > int64(len(data)) {
			return nil, fmt.Errorf("%w: box %q overruns parent", ErrMalformed, typ)
		}
		boxes = append(boxes, box{
			typ:     typ,
			payload: data[int64(i)+hdr : int64(i)+size],
			start:   base + int64(i) + hdr,
		})
		i += int(size)
	}
	return boxes, nil
}

// HEIFItems parses the top-level meta box and returns every item with its
// type and location.
func HEIFItems(data []byte) ([]Item, error) {
	top, err := readBoxes(data, 0)
	if err != nil {
		return nil, err
	}
	for _, b := range top {
		if b.typ != "meta" || len(b.payload) < 4 {
			continue
		}
		children, err := readBoxes(b.payload[4:], b.start+4) // skip version/flags
		if err != nil {
			return nil, err
		}
		items := map[uint32]*Item{}
		var order []uint32
		get := func(id uint32) *Item {
			if it, ok := items[id]; ok {
				return it
			}
			it := &Item{ID: id}
			items[id] = it
			order = append(order, id)
			return it
		}
		for _, c := range children {
			switch c.typ {
			case "iinf":
				if err := parseIINF(c.payload, get); err != nil {
					return nil, err
				}
			case "iloc":
				if err := parseILOC(c.payload, get); err != nil {
					return nil, err
				}
			}
		}
		out := make([]Item, 0, len(order))
		for _, id := range order {
			out = append(out, *items[id])
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: no meta box", ErrMalformed)
}

func parseIINF(p []byte, get func(uint32) *Item) error {
	if len(p) < 6 {
		return fmt.Errorf("%w: short iinf", ErrMalformed)
	}
	off := 6
	if p[0] != 0 {
		off = 8
	}
	if off > len(p) {
		return fmt.Errorf("%w: short iinf", ErrMalformed)
	}
	entries, err := readBoxes(p[off:], 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.typ != "infe" || len(e.payload) < 4 {
			continue
		}
		version := e.payload[0]
		q := e.payload[4:]
		if version < 2 {
			continue // pre-HEIF infe carries no item type
		}
		var id uint32
		if version == 2 {
			if len(q) < 8 {
				continue
			}
			id = uint32(binary.BigEndian.Uint16(q[0:2]))
			q = q[2:]
		} else {
			if len(q) < 10 {
				continue
			}
			id = binary.BigEndian.Uint32(q[0:4])
			q = q[4:]
		}
		q = q[2:] // protection index
		it := get(id)
		it.Type = string(q[0:4])
		q = q[4:]
		if n := bytes.IndexByte(q, 0); n >= 0 {
			q = q[n+1:] // item name
			if it.Type == "mime" {
				if m := bytes.IndexByte(q, 0); m >= 0 {
					it.ContentType = string(q[:m])
				} else {
					it.ContentType = string(q)
				}
			}
		}
	}
	return nil
}

func readUint(p []byte, size int) (uint64, []byte, error) {
	if len(p) < size {
		return 0, nil, fmt.Errorf("%w: short iloc", ErrMalformed)
	}
	var v uint64
	for i := 0; i < size; i++ {
		v = v<<8 | uint64(p[i])
	}
	return v, p[size:], nil
}

func parseILOC(p []byte, get func(uint32) *Item) error {
	if len(p) < 8 {
		return fmt.Errorf("%w: short iloc", ErrMalformed)
	}
	version := p[0]
	offsetSize := int(p[4] >> 4)
	lengthSize := int(p[4] & 0x0F)
	baseOffsetSize := int(p[5] >> 4)
	indexSize := 0
	if version == 1 || version == 2 {
		indexSize = int(p[5] & 0x0F)
	}
	q := p[6:]

	var count uint64
	var err error
	if version < 2 {
		count, q, err = readUint(q, 2)
	} else {
		count, q, err = readUint(q, 4)
	}
	if err != nil {
		return err
	}
	for n := uint64(0); n < count; n++ {
		var id uint64
		if version < 2 {
			id, q, err = readUint(q, 2)
		} else {
			id, q, err = readUint(q, 4)
		}
		if err != nil {
			return err
		}
		it := get(uint32(id))
		if version == 1 || version == 2 {
			var cm uint64
			if cm, q, err = readUint(q, 2); err != nil {
				return err
			}
			it.Method = int(cm & 0x0F)
		}
		if _, q, err = readUint(q, 2); err != nil { // data reference index
			return err
		}
		var base, extents uint64
		if base, q, err = readUint(q, baseOffsetSize); err != nil {
			return err
		}
		if extents, q, err = readUint(q, 2); err != nil {
			return err
		}
		for e := uint64(0); e < extents; e++ {
			if indexSize > 0 {
				if _, q, err = readUint(q, indexSize); err != nil {
					return err
				}
			}
			var off, length uint64
			if off, q, err = readUint(q, offsetSize); err != nil {
				return err
			}
			if length, q, err = readUint(q, lengthSize); err != nil {
				return err
			}
			it.Extents = append(it.Extents, Extent{Offset: int64(base + off), Length: int64(length)})
		}
	}
	return nil
}
