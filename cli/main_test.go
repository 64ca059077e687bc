package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/job"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestParseKeep(t *testing.T) {
	got, err := parseKeep(" preserveOrientation, ,preserveCopyright")
	if err != nil {
		t.Fatalf("parseKeep: %v", err)
	}
	want := []core.OptionKey{core.PreserveOrientation, core.PreserveCopyright}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseKeep mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseKeep("preserveOrientation,everything"); err == nil {
		t.Error("unknown option accepted")
	}
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	s := &dirSink{dir: dir, paths: map[string]string{}}
	id := uuid.New()
	if err := s.save(context.Background(), job.Download{JobID: id, Name: "a-picscrub.jpg", Data: []byte("x")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path := filepath.Join(dir, "a-picscrub.jpg")
	if got, err := os.ReadFile(path); err != nil || string(got) != "x" {
		t.Errorf("written = %q, %v", got, err)
	}
	if s.paths[id.String()] != path {
		t.Errorf("paths = %v", s.paths)
	}

	bad := &dirSink{dir: filepath.Join(dir, "missing"), paths: map[string]string{}}
	if err := bad.save(context.Background(), job.Download{Name: "x.jpg"}); err == nil {
		t.Error("save into missing directory succeeded")
	}
}
