package image

import (
	"bytes"
	"fmt"

	"github.com/ankit-chaubey/picscrub/core"
	"golang.org/x/image/tiff"
)

// cleanTIFF re-encodes the first page's pixels into a fresh TIFF carrying
// only the structural tags the encoder writes. Orientation and copyright
// cannot be carried over.
func cleanTIFF(data []byte, _ core.Options, rm *removed) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode tiff: %w", err)
	}
	noteEXIF(data, rm)
	rm.add(catTIFFTags)

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return nil, fmt.Errorf("encode tiff: %w", err)
	}
	return buf.Bytes(), nil
}
