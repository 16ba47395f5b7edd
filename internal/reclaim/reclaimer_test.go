package reclaim

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"murmur/internal/logging"
)

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte("audio"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return paths
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestObserveDeletesPreviousOccupantOfSameSlot(t *testing.T) {
	paths := writeFiles(t, "f1.flac", "f2.flac", "f3.flac")
	r := New(logging.NewNop())

	r.Observe(Event{Path: paths[0], Slot: 0})
	r.Observe(Event{Path: paths[1], Slot: 1})
	r.Observe(Event{Path: paths[2], Slot: 0})

	if exists(paths[0]) {
		t.Fatal("expected f1 to be deleted")
	}
	if !exists(paths[1]) || !exists(paths[2]) {
		t.Fatal("expected f2 and f3 to remain")
	}
	got := r.Retained()
	want := []Event{{Path: paths[1], Slot: 1}, {Path: paths[2], Slot: 0}}
	if len(got) != len(want) {
		t.Fatalf("unexpected retained list %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("retained[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if r.Deleted() != 1 {
		t.Fatalf("expected 1 deletion, got %d", r.Deleted())
	}
}

func TestRetainedNeverExceedsSlotCount(t *testing.T) {
	const players = 3
	r := New(logging.NewNop())
	r.remove = func(string) error { return nil }
	for i := range 50 {
		r.Observe(Event{Path: filepath.Join("clips", string(rune('a'+i%26))), Slot: (i * 7) % players})
		if n := len(r.Retained()); n > players {
			t.Fatalf("retained %d events with %d slots", n, players)
		}
	}
}

func TestEachFileDeletedAtMostOnce(t *testing.T) {
	calls := make(map[string]int)
	r := New(logging.NewNop())
	r.remove = func(path string) error {
		calls[path]++
		return nil
	}
	r.Observe(Event{Path: "a", Slot: 0})
	r.Observe(Event{Path: "b", Slot: 0})
	r.Observe(Event{Path: "c", Slot: 0})
	r.Release()
	r.Release()
	for path, n := range calls {
		if n != 1 {
			t.Fatalf("%s deleted %d times", path, n)
		}
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 files deleted, got %v", calls)
	}
}

func TestDeletionErrorsAreNotFatal(t *testing.T) {
	r := New(logging.NewNop())
	r.remove = func(string) error { return errors.New("permission denied") }
	r.Observe(Event{Path: "a", Slot: 0})
	r.Observe(Event{Path: "b", Slot: 0})
	if r.Deleted() != 0 {
		t.Fatal("failed removal should not count as deleted")
	}
	if len(r.Retained()) != 1 {
		t.Fatalf("expected newest event retained, got %+v", r.Retained())
	}
}

func TestDiscardAndRelease(t *testing.T) {
	paths := writeFiles(t, "orphan.flac", "kept.flac")
	r := New(logging.NewNop())
	r.Discard(paths[0])
	if exists(paths[0]) {
		t.Fatal("expected discarded file to be removed")
	}
	r.Observe(Event{Path: paths[1], Slot: 2})
	r.Release()
	if exists(paths[1]) {
		t.Fatal("expected released file to be removed")
	}
	if len(r.Retained()) != 0 {
		t.Fatal("expected no retained events after release")
	}
	r.Discard(filepath.Join(t.TempDir(), "missing.flac"))
}

func TestSidecarRemovedWithClip(t *testing.T) {
	paths := writeFiles(t, "a.flac", "a.jpg", "b.flac")
	r := New(logging.NewNop())
	r.Observe(Event{Path: paths[0], Slot: 0, Sidecar: paths[1]})
	r.Observe(Event{Path: paths[2], Slot: 0})
	if exists(paths[0]) || exists(paths[1]) {
		t.Fatal("expected clip and sidecar to be removed")
	}
	if r.Deleted() != 1 {
		t.Fatalf("sidecars should not count as clip deletions, got %d", r.Deleted())
	}
}
