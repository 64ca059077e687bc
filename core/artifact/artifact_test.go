package artifact

import (
	"sync"
	"testing"

	"github.com/ankit-chaubey/picscrub/core"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	h := s.CreateNamed([]byte("data"), "image/png", "a-picscrub.png")
	other := s.Create([]byte("preview"), "image/png")
	if h == other {
		t.Fatal("handles are not unique")
	}

	b, ok := s.Open(h)
	if !ok || string(b.Data) != "data" || b.MIME != "image/png" || b.Name != "a-picscrub.png" {
		t.Fatalf("Open = %+v, %v", b, ok)
	}
	if !s.Revoke(h) {
		t.Error("first Revoke = false")
	}
	if s.Revoke(h) {
		t.Error("second Revoke = true")
	}
	if _, ok := s.Open(h); ok {
		t.Error("revoked handle still opens")
	}
	if s.Revoke("blob:unknown") {
		t.Error("unknown handle revoked")
	}

	want := Stats{Created: 2, Revoked: 1, Live: 1}
	if got := s.Stats(); got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
	if s.Live() != 1 {
		t.Errorf("Live = %d", s.Live())
	}
}

func TestStoreConcurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := s.Create([]byte{1}, "")
			s.Open(h)
			s.Revoke(h)
		}()
	}
	wg.Wait()
	if got := s.Stats(); got.Created != 50 || got.Revoked != 50 || got.Live != 0 {
		t.Errorf("Stats = %+v", got)
	}
}

func TestParseHandle(t *testing.T) {
	h := NewStore().Create(nil, "")
	for _, in := range []string{string(h), h.ID()} {
		got, ok := ParseHandle(in)
		if !ok || got != h {
			t.Errorf("ParseHandle(%q) = %q, %v", in, got, ok)
		}
	}
	for _, in := range []string{"", "blob:", "blob:nope", "../etc/passwd"} {
		if _, ok := ParseHandle(in); ok {
			t.Errorf("ParseHandle(%q) accepted", in)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		original string
		format   core.FormatID
		want     string
	}{
		{"IMG_0001.JPG", core.FmtJPEG, "IMG_0001-picscrub.jpg"},
		{"holiday.photo.png", core.FmtPNG, "holiday.photo-picscrub.png"},
		{"shot.dng", core.FmtJPEG, "shot-picscrub.jpg"},
		{"scan.tif", core.FmtTIFF, "scan-picscrub.tiff"},
		{"noext", core.FmtWebP, "noext-picscrub.webp"},
		{"dir/sub/pic.heic", core.FmtHEIC, "pic-picscrub.heic"},
		{".png", core.FmtPNG, "image-picscrub.png"},
		{"", core.FmtGIF, "image-picscrub.gif"},
	}
	for _, tt := range tests {
		if got := FileName(tt.original, tt.format); got != tt.want {
			t.Errorf("FileName(%q, %s) = %q, want %q", tt.original, tt.format, got, tt.want)
		}
	}
}
