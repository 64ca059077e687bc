package image

import (
	"fmt"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

// cleanHEIC zeroes the payload of Exif and XMP items in place. Item
// locations stay valid, so the container needs no rewriting. Orientation
// and colour live in item properties (irot, imir, colr) and survive.
func cleanHEIC(data []byte, _ core.Options, rm *removed) ([]byte, error) {
	items, err := container.HEIFItems(data)
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, data...)
	for _, it := range items {
		var category string
		switch {
		case it.Type == "Exif":
			category = catEXIF
		case it.IsXMP():
			category = catXMP
		default:
			continue
		}
		if it.Method != 0 {
			return nil, fmt.Errorf("%s item %d uses construction method %d", category, it.ID, it.Method)
		}
		for _, e := range it.Extents {
			if e.Offset < 0 || e.Length <= 0 || e.Offset+e.Length > int64(len(out)) {
				return nil, fmt.Errorf("%w: %s item %d extent out of range", container.ErrMalformed, category, it.ID)
			}
			clear(out[e.Offset : e.Offset+e.Length])
		}
		rm.add(category)
	}
	return out, nil
}
