package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/motion/pkg/style"
)

func writeSample(s *MemorySurface) {
	box := s.Add("box", "card")
	s.Add("other")
	s.SetProperty(box, "width", "10px", style.PriorityNormal)
	s.SetProperty(box, "opacity", "0.5", style.PriorityImportant)
	s.RemoveProperty(box, "width")
	s.SetProperty(box, "width", "20px", style.PriorityNormal)
}

func TestCaptureSnapshot(t *testing.T) {
	s := NewMemorySurface()
	writeSample(s)

	snap := s.CaptureSnapshot()
	if got := snap.Props["box"]["opacity"]; got != "0.5 !important" {
		t.Errorf("opacity = %q, want 0.5 !important", got)
	}
	if got := snap.Props["box"]["width"]; got != "20px" {
		t.Errorf("width = %q, want 20px", got)
	}
	if props, ok := snap.Props["other"]; !ok || len(props) != 0 {
		t.Errorf("other = %v, want empty", props)
	}
	if len(snap.Ops) != 4 || snap.Ops[2] != "#box remove width" {
		t.Errorf("ops = %v", snap.Ops)
	}
}

func TestSnapshot_MatchesGolden(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	s := NewMemorySurface()
	writeSample(s)
	s.CaptureSnapshot().MatchesFile(t, filepath.Join("testdata", "surface.snapshot.json"))
}

func TestSnapshot_Diff(t *testing.T) {
	a := NewMemorySurface()
	writeSample(a)
	b := NewMemorySurface()
	writeSample(b)

	if diff := a.CaptureSnapshot().Diff(b.CaptureSnapshot()); diff != "" {
		t.Errorf("expected no diff for identical surfaces, got:\n%s", diff)
	}

	b.SetProperty(b.Node("other"), "left", "4px", style.PriorityNormal)
	diff := b.CaptureSnapshot().Diff(a.CaptureSnapshot())
	if !strings.Contains(diff, `+      "left": "4px"`) {
		t.Errorf("expected added line in diff, got:\n%s", diff)
	}
}

func TestSnapshot_UpdateAndMatch(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	s := NewMemorySurface()
	writeSample(s)
	snap := s.CaptureSnapshot()

	path := filepath.Join(t.TempDir(), "testdata", "sample.snapshot.json")
	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("snapshot file should exist after UpdateFile")
	}

	snap.MatchesFile(t, path)
}

func TestSnapshot_MatchesFile_MissingFile(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	s := NewMemorySurface()
	writeSample(s)

	failed := false
	sub := &fatalRecorder{name: t.Name(), onFatal: func() { failed = true }}
	s.CaptureSnapshot().MatchesFile(sub, filepath.Join(t.TempDir(), "missing.json"))

	if !failed {
		t.Error("expected MatchesFile to fail for missing file")
	}
}

func TestSnapshot_MatchesFile_Mismatch(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "")
	s := NewMemorySurface()
	writeSample(s)

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := s.CaptureSnapshot().UpdateFile(path); err != nil {
		t.Fatal(err)
	}

	s.SetProperty(s.Node("box"), "width", "99px", style.PriorityNormal)
	errored := false
	sub := &errorRecorder{name: t.Name(), onError: func() { errored = true }}
	s.CaptureSnapshot().MatchesFile(sub, path)

	if !errored {
		t.Error("expected MatchesFile to report error for mismatch")
	}
}

func TestSnapshot_UpdateMode(t *testing.T) {
	s := NewMemorySurface()
	writeSample(s)
	path := filepath.Join(t.TempDir(), "update.snapshot.json")

	t.Setenv(UpdateSnapshotsEnv, "1")
	s.CaptureSnapshot().MatchesFile(t, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("snapshot file should be created in update mode")
	}
}

// fatalRecorder intercepts Fatalf calls for testing MatchesFile failures.
type fatalRecorder struct {
	name    string
	onFatal func()
}

func (r *fatalRecorder) Fatalf(format string, args ...any) { r.onFatal() }
func (r *fatalRecorder) Errorf(format string, args ...any) {}
func (r *fatalRecorder) Helper()                           {}
func (r *fatalRecorder) Name() string                      { return r.name }

// errorRecorder intercepts Errorf calls for testing MatchesFile mismatches.
type errorRecorder struct {
	name    string
	onError func()
}

func (r *errorRecorder) Fatalf(format string, args ...any) {}
func (r *errorRecorder) Errorf(format string, args ...any) { r.onError() }
func (r *errorRecorder) Helper()                           {}
func (r *errorRecorder) Name() string                      { return r.name }
