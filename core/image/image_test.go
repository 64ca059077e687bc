package image_test

import (
	"bytes"
	"errors"
	stdimage "image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
	"github.com/ankit-chaubey/picscrub/core/image"
	"github.com/ankit-chaubey/picscrub/core/imagetest"
	"github.com/ankit-chaubey/picscrub/core/meta"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/tiff"
)

func richEXIF() []byte {
	return imagetest.TIFF(
		[]imagetest.IFDEntry{
			imagetest.ASCII(imagetest.TagMake, "Acme"),
			imagetest.ASCII(imagetest.TagModel, "Cam 1"),
			imagetest.Short(imagetest.TagOrientation, 6),
			imagetest.ASCII(imagetest.TagCopyright, "Jane Doe"),
		},
		imagetest.GPS(
			"N", imagetest.Degrees(0, 45, 27, 5112),
			"E", imagetest.Degrees(0, 9, 11, 2400),
		),
	)
}

func richJPEG() []byte {
	return imagetest.JPEG(
		imagetest.JFIFSegment(),
		imagetest.ExifSegment(richEXIF()),
		imagetest.XMPSegment(imagetest.XMP(`xmp:CreatorTool="Editor"`)),
		imagetest.ICCSegment(imagetest.ICCProfile()),
		container.Segment{Marker: container.MarkerAPP13, Data: []byte("Photoshop 3.0\x008BIM")},
		imagetest.CommentSegment("secret"),
		container.Segment{Marker: 0xE5, Data: []byte("vendor")},
	)
}

func TestRemoveJPEG(t *testing.T) {
	res, err := image.Remove(richJPEG(), nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if want := imagetest.JPEG(imagetest.JFIFSegment()); !bytes.Equal(res.Data, want) {
		t.Errorf("cleaned JPEG = %x\nwant %x", res.Data, want)
	}
	wantRemoved := []string{"EXIF", "GPS location", "XMP", "ICC profile", "IPTC", "Comments", "Application data"}
	if diff := cmp.Diff(wantRemoved, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}
	if res.OriginalFormat != core.FmtJPEG || res.OutputFormat != core.FmtJPEG {
		t.Errorf("formats = %s → %s", res.OriginalFormat, res.OutputFormat)
	}
	if res.CleanedSize != int64(len(res.Data)) || res.OriginalSize != int64(len(richJPEG())) {
		t.Errorf("sizes = %d → %d", res.OriginalSize, res.CleanedSize)
	}
	if tags := meta.Extract(res.Data); tags != nil {
		t.Errorf("metadata left behind: %v", tags)
	}
}

func TestRemoveJPEGPreservesOrientationAndCopyright(t *testing.T) {
	opts := core.Options{core.PreserveOrientation: true, core.PreserveCopyright: true}
	res, err := image.Remove(richJPEG(), opts)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := core.Tags{"Orientation": 6, "Copyright": "Jane Doe"}
	if diff := cmp.Diff(want, meta.Extract(res.Data)); diff != "" {
		t.Errorf("kept tags mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveJPEGPreservesColorProfile(t *testing.T) {
	res, err := image.Remove(richJPEG(), core.Options{core.PreserveColorProfile: true})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := imagetest.JPEG(imagetest.JFIFSegment(), imagetest.ICCSegment(imagetest.ICCProfile()))
	if !bytes.Equal(res.Data, want) {
		t.Error("ICC segment not kept verbatim")
	}
	for _, r := range res.Removed {
		if r == "ICC profile" {
			t.Error("ICC profile reported as removed")
		}
	}
}

func TestRemoveJPEGTrailingData(t *testing.T) {
	clean := imagetest.JPEG(imagetest.JFIFSegment())
	data := append(append([]byte{}, clean...), []byte("\xFF\xD8\xFFsecond image")...)
	res, err := image.Remove(data, nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !bytes.Equal(res.Data, clean) {
		t.Error("trailing bytes not dropped")
	}
	if diff := cmp.Diff([]string{"Trailing data"}, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}
}

func pngChunks() []container.Chunk {
	return []container.Chunk{
		imagetest.TextChunk("Author", "Jane"),
		imagetest.TextChunk("Copyright", "Jane Doe"),
		{Type: "iTXt", Data: []byte("XML:com.adobe.xmp\x00\x00\x00\x00\x00" + imagetest.XMP(`xmp:CreatorTool="Editor"`))},
		{Type: "iCCP", Data: []byte("sRGB\x00\x00\x78\x9c\x03\x00\x00\x00\x00\x01")},
		{Type: "tIME", Data: []byte{0x07, 0xE8, 1, 2, 3, 4, 5}},
		{Type: "eXIf", Data: imagetest.TIFF([]imagetest.IFDEntry{imagetest.ASCII(imagetest.TagMake, "Acme")}, nil)},
		{Type: "prVt", Data: []byte("private")},
		{Type: "pHYs", Data: []byte{0, 0, 0x0B, 0x13, 0, 0, 0x0B, 0x13, 1}},
	}
}

func TestRemovePNG(t *testing.T) {
	res, err := image.Remove(imagetest.PNG(pngChunks()...), nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := imagetest.PNG(container.Chunk{Type: "pHYs", Data: []byte{0, 0, 0x0B, 0x13, 0, 0, 0x0B, 0x13, 1}})
	if !bytes.Equal(res.Data, want) {
		t.Error("cleaned PNG differs from the metadata-free original")
	}
	wantRemoved := []string{"Text chunks", "XMP", "ICC profile", "Timestamps", "EXIF", "Application data"}
	if diff := cmp.Diff(wantRemoved, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}

	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("cleaned PNG does not decode: %v", err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 0xFF {
		t.Errorf("pixel changed: %v", img.At(0, 0))
	}
}

func TestRemovePNGPreserves(t *testing.T) {
	opts := core.Options{core.PreserveCopyright: true, core.PreserveColorProfile: true}
	res, err := image.Remove(imagetest.PNG(pngChunks()...), opts)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	chunks, err := container.ParsePNG(res.Data)
	if err != nil {
		t.Fatalf("ParsePNG: %v", err)
	}
	var types []string
	for _, c := range chunks {
		types = append(types, c.Type)
	}
	if diff := cmp.Diff([]string{"IHDR", "tEXt", "iCCP", "pHYs", "IDAT", "IEND"}, types); diff != "" {
		t.Errorf("chunk types mismatch (-want +got):\n%s", diff)
	}
	if kw := container.TextKeyword(chunks[1]); kw != "Copyright" {
		t.Errorf("kept text chunk %q", kw)
	}
}

func TestRemoveWebP(t *testing.T) {
	vp8 := container.Chunk{Type: "VP8 ", Data: []byte{1, 2, 3, 4}}
	icc := container.Chunk{Type: "ICCP", Data: imagetest.ICCProfile()}
	data := imagetest.WebP(
		imagetest.VP8X(container.VP8XFlagICC|container.VP8XFlagEXIF|container.VP8XFlagXMP|0x10, 8, 8),
		icc,
		vp8,
		container.Chunk{Type: "EXIF", Data: richEXIF()},
		container.Chunk{Type: "XMP ", Data: []byte(imagetest.XMP(`xmp:CreatorTool="Editor"`))},
	)

	res, err := image.Remove(data, nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if want := imagetest.WebP(imagetest.VP8X(0x10, 8, 8), vp8); !bytes.Equal(res.Data, want) {
		t.Errorf("cleaned WebP = %x\nwant %x", res.Data, want)
	}
	if diff := cmp.Diff([]string{"ICC profile", "EXIF", "GPS location", "XMP"}, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}

	res, err = image.Remove(data, core.Options{core.PreserveColorProfile: true, core.PreserveOrientation: true})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	chunks, err := container.ParseWebP(res.Data)
	if err != nil {
		t.Fatalf("ParseWebP: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want VP8X ICCP VP8 EXIF", len(chunks))
	}
	if flags := chunks[0].Data[0]; flags != container.VP8XFlagICC|container.VP8XFlagEXIF|0x10 {
		t.Errorf("VP8X flags = %#x", flags)
	}
	if tags := meta.Extract(res.Data); tags["Orientation"] != 6 || tags["Make"] != nil {
		t.Errorf("kept EXIF tags = %v", tags)
	}
}

func gifFixture() []byte {
	return imagetest.GIF(
		imagetest.GIFComment("made with love"),
		imagetest.GIFNetscape,
		imagetest.GIFApp("XMP DataXMP", []byte("<x:xmpmeta/>")),
		imagetest.GIFApp("ICCRGBG1012", []byte("profile")),
		imagetest.GIFApp("MGK8BIM0000", []byte("iptc")),
		imagetest.GIFImage,
	)
}

func TestRemoveGIF(t *testing.T) {
	res, err := image.Remove(gifFixture(), nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if want := imagetest.GIF(imagetest.GIFNetscape, imagetest.GIFImage); !bytes.Equal(res.Data, want) {
		t.Errorf("cleaned GIF = %x\nwant %x", res.Data, want)
	}
	if diff := cmp.Diff([]string{"Comments", "XMP", "ICC profile", "Application data"}, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}

	res, err = image.Remove(gifFixture(), core.Options{core.PreserveColorProfile: true})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := imagetest.GIF(imagetest.GIFNetscape, imagetest.GIFApp("ICCRGBG1012", []byte("profile")), imagetest.GIFImage)
	if !bytes.Equal(res.Data, want) {
		t.Error("ICC application extension not kept")
	}
}

const svgFixture = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:inkscape="http://www.inkscape.org/namespaces/inkscape" inkscape:version="1.3">` +
	`<!-- made by hand --><metadata><rdf:RDF/></metadata><sodipodi:namedview id="nv" pagecolor="#fff"/>` +
	`<title>Map</title><desc>Route</desc><path d="M0 0"/></svg>`

func TestRemoveSVG(t *testing.T) {
	tests := []struct {
		name        string
		opts        core.Options
		want        string
		wantRemoved []string
	}{
		{
			name:        "everything",
			want:        `<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0"/></svg>`,
			wantRemoved: []string{"Metadata", "Comments", "Editor data", "Title", "Description"},
		},
		{
			name:        "keep title",
			opts:        core.Options{core.PreserveTitle: true},
			want:        `<svg xmlns="http://www.w3.org/2000/svg"><title>Map</title><path d="M0 0"/></svg>`,
			wantRemoved: []string{"Metadata", "Comments", "Editor data", "Description"},
		},
		{
			name:        "keep both",
			opts:        core.Options{core.PreserveTitle: true, core.PreserveDescription: true},
			want:        `<svg xmlns="http://www.w3.org/2000/svg"><title>Map</title><desc>Route</desc><path d="M0 0"/></svg>`,
			wantRemoved: []string{"Metadata", "Comments", "Editor data"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := image.Remove([]byte(svgFixture), tt.opts)
			if err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if got := string(res.Data); got != tt.want {
				t.Errorf("cleaned SVG = %s\nwant %s", got, tt.want)
			}
			if diff := cmp.Diff(tt.wantRemoved, res.Removed); diff != "" {
				t.Errorf("Removed mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemoveCleanSVGReportsNothing(t *testing.T) {
	res, err := image.Remove([]byte(`<svg><path d="M0 0"/></svg>`), nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(res.Removed) != 0 || res.Removed == nil {
		t.Errorf("Removed = %#v, want empty non-nil", res.Removed)
	}
}

func TestRemoveTIFF(t *testing.T) {
	src := stdimage.NewNRGBA(stdimage.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, src, nil); err != nil {
		t.Fatalf("tiff.Encode: %v", err)
	}

	res, err := image.Remove(buf.Bytes(), core.Options{core.PreserveOrientation: true})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if res.OutputFormat != core.FmtTIFF {
		t.Errorf("OutputFormat = %s", res.OutputFormat)
	}
	out, err := tiff.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("cleaned TIFF does not decode: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	if got := color.NRGBAModel.Convert(out.At(1, 1)); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestRemoveHEIC(t *testing.T) {
	exif := imagetest.HEIFExifPayload(richEXIF())
	xmp := []byte(imagetest.XMP(`xmp:CreatorTool="Editor"`))
	data := imagetest.HEIC(
		imagetest.HEIFItem{ID: 1, Type: "hvc1", Data: []byte("pixels")},
		imagetest.HEIFItem{ID: 2, Type: "Exif", Data: exif},
		imagetest.HEIFItem{ID: 3, Type: "mime", ContentType: "application/rdf+xml", Data: xmp},
	)

	res, err := image.Remove(data, nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(res.Data) != len(data) {
		t.Errorf("size changed: %d → %d", len(data), len(res.Data))
	}
	if !bytes.Contains(res.Data, []byte("pixels")) {
		t.Error("image item damaged")
	}
	if bytes.Contains(res.Data, []byte("Acme")) || bytes.Contains(res.Data, []byte("Editor")) {
		t.Error("metadata bytes survived")
	}
	if diff := cmp.Diff([]string{"EXIF", "XMP"}, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}
	if tags := meta.Extract(res.Data); tags != nil {
		t.Errorf("metadata left behind: %v", tags)
	}
}

func rawFixture(preview []byte) []byte {
	hdr := imagetest.TIFF([]imagetest.IFDEntry{
		imagetest.ASCII(imagetest.TagMake, "Acme"),
		{Tag: 0x014A, Type: imagetest.TypeLong, Count: 1, Value: make([]byte, 4)},
	}, nil)
	return append(append(hdr, "SENSORDATA"...), preview...)
}

func TestRemoveRawYieldsPreview(t *testing.T) {
	preview := imagetest.JPEG(imagetest.JFIFSegment(), imagetest.ExifSegment(richEXIF()), imagetest.CommentSegment("c"))
	data := rawFixture(preview)
	if f := core.DetectFormat(data); f != core.FmtRAW {
		t.Fatalf("fixture detected as %s", f)
	}

	res, err := image.Remove(data, nil)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if res.OriginalFormat != core.FmtRAW || res.OutputFormat != core.FmtJPEG {
		t.Errorf("formats = %s → %s", res.OriginalFormat, res.OutputFormat)
	}
	if want := imagetest.JPEG(imagetest.JFIFSegment()); !bytes.Equal(res.Data, want) {
		t.Error("cleaned preview mismatch")
	}
	if diff := cmp.Diff([]string{"EXIF", "Raw sensor data", "GPS location", "Comments"}, res.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}

	if _, err := image.Remove(rawFixture(nil), nil); !errors.Is(err, core.ErrNoPreview) {
		t.Errorf("raw without preview: err = %v, want ErrNoPreview", err)
	}
}

func TestRemoveErrors(t *testing.T) {
	if _, err := image.Remove(nil, nil); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("empty: err = %v", err)
	}
	if _, err := image.Remove([]byte("not an image at all"), nil); !errors.Is(err, core.ErrFormatUnsupported) {
		t.Errorf("unknown: err = %v", err)
	}
	truncated := imagetest.PNG()[:40]
	if _, err := image.Remove(truncated, nil); !errors.Is(err, container.ErrMalformed) {
		t.Errorf("truncated png: err = %v", err)
	}
}
