// Package reclaim deletes clip files once they can no longer be heard.
//
// A clip becomes an occupant of a slot when its crossfade swaps it in. The
// reclaimer retains one event per slot; when a newer occupant arrives on the
// same slot the previous occupant's file is removed.
package reclaim

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"murmur/internal/logging"
)

// Event records that Path became the occupant of Slot. Sidecar, when set,
// is a companion file (the clip's thumbnail) removed together with Path.
type Event struct {
	Path    string
	Slot    int
	Sidecar string
}

// Reclaimer tracks retained occupant files. Safe for concurrent use.
type Reclaimer struct {
	mu       sync.Mutex
	retained []Event
	logger   *slog.Logger
	remove   func(string) error
	deleted  int
}

// New creates a reclaimer that removes files with os.Remove.
func New(logger *slog.Logger) *Reclaimer {
	return &Reclaimer{
		logger: logging.NewComponentLogger(logger, "reclaim"),
		remove: os.Remove,
	}
}

// Observe records ev and deletes the file of any earlier retained event on
// the same slot.
func (r *Reclaimer) Observe(ev Event) {
	r.mu.Lock()
	var stale []Event
	kept := r.retained[:0]
	for _, prev := range r.retained {
		if prev.Slot == ev.Slot {
			stale = append(stale, prev)
			continue
		}
		kept = append(kept, prev)
	}
	r.retained = append(kept, ev)
	r.mu.Unlock()

	for _, prev := range stale {
		if prev.Path == ev.Path {
			continue
		}
		r.delete(prev.Path, prev.Slot, "replaced")
		r.deleteSidecar(prev)
	}
}

// Discard deletes files that never became an occupant.
func (r *Reclaimer) Discard(paths ...string) {
	for _, path := range paths {
		if path != "" {
			r.delete(path, -1, "discarded")
		}
	}
}

// Release deletes every retained file and forgets them.
func (r *Reclaimer) Release() {
	r.mu.Lock()
	retained := r.retained
	r.retained = nil
	r.mu.Unlock()

	for _, ev := range retained {
		r.delete(ev.Path, ev.Slot, "released")
		r.deleteSidecar(ev)
	}
}

func (r *Reclaimer) deleteSidecar(ev Event) {
	if ev.Sidecar == "" || ev.Sidecar == ev.Path {
		return
	}
	if err := r.remove(ev.Sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("sidecar removal failed", logging.String("path", ev.Sidecar), logging.Error(err))
	}
}

// Retained returns a copy of the retained events in arrival order.
func (r *Reclaimer) Retained() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.retained...)
}

// Deleted reports how many clip files were removed so far.
func (r *Reclaimer) Deleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted
}

func (r *Reclaimer) delete(path string, slot int, reason string) {
	err := r.remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(r.logger, "clip file removal failed", "reclaim_failed",
			logging.String("path", path),
			logging.Int(logging.FieldSlot, slot),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check clip_dir permissions"),
			logging.String(logging.FieldImpact, "clip file remains on disk until the run directory is removed"),
		)
		return
	}
	r.mu.Lock()
	r.deleted++
	r.mu.Unlock()
	r.logger.Debug("clip file removed",
		logging.String("path", path),
		logging.Int(logging.FieldSlot, slot),
		logging.String("reason", reason),
		logging.String(logging.FieldEventType, "clip_reclaimed"),
	)
}
