package scrub

import (
	"context"
	"errors"
	"testing"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/imagetest"
	"github.com/google/go-cmp/cmp"
)

func TestCleanJPEG(t *testing.T) {
	data := imagetest.JPEG(imagetest.JFIFSegment(), imagetest.CommentSegment("hi"))
	res, err := NewCleaner(nil).Clean(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.OutputFormat != core.FmtJPEG || res.CleanedSize != int64(len(res.Data)) {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestCleanSanitizesOptions(t *testing.T) {
	var got core.Options
	c := NewCleaner(nil)
	c.remove = func(_ []byte, opts core.Options) (*core.Result, error) {
		got = opts
		return &core.Result{}, nil
	}
	opts := core.Options{core.PreserveTitle: true, core.PreserveCopyright: false, "bogus": true}
	if _, err := c.Clean(context.Background(), []byte(`<svg/>`), opts); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if diff := cmp.Diff(core.Options{core.PreserveTitle: true}, got); diff != "" {
		t.Errorf("engine options mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanErrors(t *testing.T) {
	failing := NewCleaner(nil)
	failing.remove = func([]byte, core.Options) (*core.Result, error) {
		return nil, errors.New("boom")
	}
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		cleaner  *Cleaner
		ctx      context.Context
		data     []byte
		wantErr  error
		wantCode string
	}{
		{"cancelled", NewCleaner(nil), cancelled, []byte(`<svg/>`), context.Canceled, ""},
		{"empty", NewCleaner(nil), context.Background(), nil, core.ErrEmptyInput, ""},
		{"unknown", NewCleaner(nil), context.Background(), []byte("hello"), core.ErrFormatUnsupported, "FORMAT_UNSUPPORTED"},
		{"engine failure", failing, context.Background(), []byte(`<svg/>`), nil, "CLEAN_FAILED"},
		{"malformed", NewCleaner(nil), context.Background(), imagetest.PNG()[:40], nil, "CLEAN_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.cleaner.Clean(tt.ctx, tt.data, nil)
			if err == nil || res != nil {
				t.Fatalf("Clean = %v, %v; want error", res, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			var appErr *core.AppError
			if tt.wantCode != "" && (!errors.As(err, &appErr) || appErr.Code != tt.wantCode) {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}
