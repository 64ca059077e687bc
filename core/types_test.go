package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOptionKey(t *testing.T) {
	for _, k := range OptionKeys {
		got, ok := ParseOptionKey(string(k))
		if !ok || got != k {
			t.Errorf("ParseOptionKey(%q) = %q, %v", k, got, ok)
		}
		if OptionLabels[k] == "" {
			t.Errorf("missing label for %q", k)
		}
	}
	if _, ok := ParseOptionKey("preserveEverything"); ok {
		t.Error("unknown key accepted")
	}
}

func TestOptionsSanitize(t *testing.T) {
	in := Options{
		PreserveOrientation:  true,
		PreserveCopyright:    false,
		"preserveEverything": true,
	}
	want := Options{PreserveOrientation: true}
	if diff := cmp.Diff(want, in.Sanitize()); diff != "" {
		t.Errorf("Sanitize() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsClone(t *testing.T) {
	a := Options{PreserveTitle: true}
	b := a.Clone()
	b[PreserveTitle] = false
	if !a.Enabled(PreserveTitle) {
		t.Error("Clone shares storage with the original")
	}
}

func TestOptionSetKeysOrder(t *testing.T) {
	s := NewOptionSet(PreserveDescription, PreserveColorProfile, PreserveTitle)
	want := []OptionKey{PreserveColorProfile, PreserveTitle, PreserveDescription}
	if diff := cmp.Diff(want, s.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if s.Has(PreserveCopyright) {
		t.Error("Has reports a missing key")
	}
}

func TestTagsKeys(t *testing.T) {
	tags := Tags{"b": 1, "a": 2, "C": 3}
	if diff := cmp.Diff([]string{"C", "a", "b"}, tags.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestAppError(t *testing.T) {
	err := NewAppError("CLEAN_FAILED", "could not clean", ErrFormatUnsupported)
	if !errors.Is(err, ErrFormatUnsupported) {
		t.Error("AppError does not unwrap to its cause")
	}
	if got := err.Error(); !strings.HasPrefix(got, "CLEAN_FAILED: could not clean: ") {
		t.Errorf("Error() = %q", got)
	}
	if got := NewAppError("X", "msg", nil).Error(); got != "X: msg" {
		t.Errorf("Error() = %q", got)
	}
	if WrapError(nil, "ctx") != nil {
		t.Error("WrapError(nil) != nil")
	}
	if !errors.Is(WrapError(ErrJobNotFound, "lookup"), ErrJobNotFound) {
		t.Error("WrapError loses the cause")
	}
}

func TestPrinterReport(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Writer: &buf}
	p.PrintReport(Report{
		File:   "a.jpg",
		Format: FmtJPEG,
		Size:   1536,
		Fields: []MetaField{{Label: "Software", Value: "Editor", Risk: RiskLow}},
		Tags:   []TagRow{{Key: "Software", Value: "Editor"}},
	})
	out := buf.String()
	for _, want := range []string{"a.jpg", "1.5 KiB", "[low]", "use -all"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	p.PrintReport(Report{File: "b.png", Format: FmtPNG})
	if !strings.Contains(buf.String(), "(no metadata found)") {
		t.Errorf("empty report output:\n%s", buf.String())
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(-5); got != "0 B" {
		t.Errorf("FormatSize(-5) = %q", got)
	}
	if got := FormatSize(2048); got != "2.0 KiB" {
		t.Errorf("FormatSize(2048) = %q", got)
	}
}
