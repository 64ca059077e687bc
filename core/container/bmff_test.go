package container_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ankit-chaubey/picscrub/core/container"
	"github.com/ankit-chaubey/picscrub/core/imagetest"
)

func TestHEIFItems(t *testing.T) {
	exif := imagetest.HEIFExifPayload(imagetest.TIFF([]imagetest.IFDEntry{imagetest.ASCII(imagetest.TagMake, "Acme")}, nil))
	xmp := []byte(imagetest.XMP(`xmp:CreatorTool="Editor"`))
	data := imagetest.HEIC(
		imagetest.HEIFItem{ID: 1, Type: "hvc1", Data: []byte("pixels")},
		imagetest.HEIFItem{ID: 2, Type: "Exif", Data: exif},
		imagetest.HEIFItem{ID: 3, Type: "mime", ContentType: "application/rdf+xml", Data: xmp},
	)

	items, err := container.HEIFItems(data)
	if err != nil {
		t.Fatalf("HEIFItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	want := map[uint32][]byte{1: []byte("pixels"), 2: exif, 3: xmp}
	for _, it := range items {
		got, err := it.Bytes(data)
		if err != nil {
			t.Fatalf("item %d Bytes: %v", it.ID, err)
		}
		if !bytes.Equal(got, want[it.ID]) {
			t.Errorf("item %d payload = %q, want %q", it.ID, got, want[it.ID])
		}
	}
	if items[1].Type != "Exif" || items[1].IsXMP() {
		t.Errorf("item 2 = %+v", items[1])
	}
	if !items[2].IsXMP() {
		t.Errorf("item 3 not recognised as XMP: %+v", items[2])
	}
}

func TestHEIFItemsErrors(t *testing.T) {
	if _, err := container.HEIFItems([]byte("\x00\x00\x00\x10ftypheic\x00\x00\x00\x00")); !errors.Is(err, container.ErrMalformed) {
		t.Errorf("no meta box: err = %v", err)
	}
	if _, err := container.HEIFItems([]byte("\x00\x00\x00\x40ftypheic")); !errors.Is(err, container.ErrMalformed) {
		t.Errorf("overrunning box: err = %v", err)
	}

	it := container.Item{ID: 9, Extents: []container.Extent{{Offset: 4, Length: 100}}}
	if _, err := it.Bytes(make([]byte, 10)); !errors.Is(err, container.ErrMalformed) {
		t.Errorf("extent overrun: err = %v", err)
	}
	it = container.Item{ID: 9, Method: 1}
	if _, err := it.Bytes(nil); !errors.Is(err, container.ErrMalformed) {
		t.Errorf("construction method: err = %v", err)
	}
}
