package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk is one PNG or RIFF chunk.
type Chunk struct {
	Type string
	Data []byte
}

// ParsePNG reads every chunk up to and including IEND. CRCs are not checked.
func ParsePNG(data []byte) ([]Chunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("%w: not a PNG", ErrMalformed)
	}
	var chunks []Chunk
	i := len(pngSignature)
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		i += 8
		if length < 0 || i+length+4 > len(data) {
			return nil, fmt.Errorf("%w: chunk %q overruns file", ErrMalformed, typ)
		}
		chunks = append(chunks, Chunk{Type: typ, Data: data[i : i+length]})
		i += length + 4
		if typ == "IEND" {
			return chunks, nil
		}
	}
	return nil, fmt.Errorf("%w: missing IEND", ErrMalformed)
}

// WritePNG serialises chunks with freshly computed CRCs.
func WritePNG(chunks []Chunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, c := range chunks {
		var hdr [4]byte
		binary.BigEndian.PutUint32(hdr[:], uint32(len(c.Data)))
		buf.Write(hdr[:])
		buf.WriteString(c.Type)
		buf.Write(c.Data)

		crc := crc32.NewIEEE()
		crc.Write([]byte(c.Type))
		crc.Write(c.Data)
		binary.BigEndian.PutUint32(hdr[:], crc.Sum32())
		buf.Write(hdr[:])
	}
	return buf.Bytes()
}

// TextKeyword returns the keyword of a tEXt, zTXt or iTXt chunk.
func TextKeyword(c Chunk) string {
	if n := bytes.IndexByte(c.Data, 0); n > 0 {
		return string(c.Data[:n])
	}
	return ""
}
