package container

import (
	"bytes"
	"fmt"
)

// GIF block kinds.
const (
	GIFExtension byte = 0x21
	GIFImage     byte = 0x2C
	GIFTrailer   byte = 0x3B

	GIFLabelComment     byte = 0xFE
	GIFLabelApplication byte = 0xFF
)

// GIFBlock is one top-level block after the logical screen descriptor.
// Raw holds the complete block bytes, ready to be written back.
type GIFBlock struct {
	Kind  byte
	Label byte   // extension label, zero for images
	AppID string // application identifier + auth code for application extensions
	Raw   []byte
}

// Payload concatenates the sub-block data of an extension block.
func (b GIFBlock) Payload() []byte {
	if b.Kind != GIFExtension || len(b.Raw) < 3 {
		return nil
	}
	var out []byte
	i := 2
	for i < len(b.Raw) {
		n := int(b.Raw[i])
		i++
		if n == 0 || i+n > len(b.Raw) {
			break
		}
		out = append(out, b.Raw[i:i+n]...)
		i += n
	}
	return out
}

// ParseGIF returns the header (signature, screen descriptor and global
// colour table) and the block list up to the trailer.
func ParseGIF(data []byte) ([]byte, []GIFBlock, error) {
	if len(data) < 13 || !(bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))) {
		return nil, nil, fmt.Errorf("%w: not a GIF", ErrMalformed)
	}
	i := 13
	if data[10]&0x80 != 0 {
		i += 3 * (1 << (int(data[10]&0x07) + 1))
	}
	if i > len(data) {
		return nil, nil, fmt.Errorf("%w: GIF truncated", ErrMalformed)
	}
	header := data[:i]

	var blocks []GIFBlock
	for i < len(data) {
		start := i
		switch data[i] {
		case GIFTrailer:
			return header, blocks, nil
		case GIFExtension:
			if i+2 > len(data) {
				return nil, nil, fmt.Errorf("%w: GIF truncated", ErrMalformed)
			}
			blk := GIFBlock{Kind: GIFExtension, Label: data[i+1]}
			if blk.Label == GIFLabelApplication && i+3 < len(data) && data[i+2] == 11 && i+14 <= len(data) {
				blk.AppID = string(data[i+3 : i+14])
			}
			end, err := skipSubBlocks(data, i+2)
			if err != nil {
				return nil, nil, err
			}
			blk.Raw = data[start:end]
			blocks = append(blocks, blk)
			i = end
		case GIFImage:
			if i+10 > len(data) {
				return nil, nil, fmt.Errorf("%w: GIF truncated", ErrMalformed)
			}
			flags := data[i+9]
			i += 10
			if flags&0x80 != 0 {
				i += 3 * (1 << (int(flags&0x07) + 1))
			}
			i++ // LZW minimum code size
			end, err := skipSubBlocks(data, i)
			if err != nil {
				return nil, nil, err
			}
			blocks = append(blocks, GIFBlock{Kind: GIFImage, Raw: data[start:end]})
			i = end
		default:
			return nil, nil, fmt.Errorf("%w: unexpected GIF block 0x%02X", ErrMalformed, data[i])
		}
	}
	// Missing trailer: tolerate, the writer adds one.
	return header, blocks, nil
}

func skipSubBlocks(data []byte, i int) (int, error) {
	for i < len(data) {
		n := int(data[i])
		i++
		if n == 0 {
			return i, nil
		}
		i += n
	}
	return 0, fmt.Errorf("%w: GIF sub-block overruns file", ErrMalformed)
}

// WriteGIF serialises header and blocks followed by a trailer.
func WriteGIF(header []byte, blocks []GIFBlock) []byte {
	var out bytes.Buffer
	out.Write(header)
	for _, b := range blocks {
		out.Write(b.Raw)
	}
	out.WriteByte(GIFTrailer)
	return out.Bytes()
}
