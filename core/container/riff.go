package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VP8X feature flags.
const (
	VP8XFlagICC  byte = 0x20
	VP8XFlagEXIF byte = 0x08
	VP8XFlagXMP  byte = 0x04
)

// ParseWebP reads the chunks of a RIFF/WEBP file.
func ParseWebP(data []byte) ([]Chunk, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, fmt.Errorf("%w: not a WebP", ErrMalformed)
	}
	var chunks []Chunk
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("%w: chunk %q overruns file", ErrMalformed, id)
		}
		chunks = append(chunks, Chunk{Type: id, Data: data[offset : offset+size]})
		offset += size
		if size%2 != 0 {
			offset++ // padding
		}
	}
	return chunks, nil
}

// WriteWebP serialises chunks into a RIFF/WEBP file with a correct size.
func WriteWebP(chunks []Chunk) []byte {
	var body bytes.Buffer
	for _, c := range chunks {
		body.WriteString(c.Type)
		var size [4]byte
		binary.LittleEndian.PutUint32(size[:], uint32(len(c.Data)))
		body.Write(size[:])
		body.Write(c.Data)
		if len(c.Data)%2 != 0 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	var total [4]byte
	binary.LittleEndian.PutUint32(total[:], uint32(body.Len()+4))
	out.Write(total[:])
	out.WriteString("WEBP")
	out.Write(body.Bytes())
	return out.Bytes()
}
