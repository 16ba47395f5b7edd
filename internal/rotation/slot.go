package rotation

import (
	"time"

	"murmur/internal/clip"
)

// Slot is one playback unit. Fields are written only by the scheduler loop.
type Slot struct {
	Index        int
	ClipID       string
	Path         string
	Link         string
	Amplitude    float64
	Speed        float64
	Effective    time.Duration
	DispatchedAt time.Time

	fade *crossfade
}

// Occupied reports whether a clip was ever dispatched to the slot.
func (s Slot) Occupied() bool { return s.Path != "" }

// Active reports whether the slot's occupant is still sounding at now.
func (s Slot) Active(now time.Time) bool {
	return s.Occupied() && now.Before(s.DispatchedAt.Add(s.Effective))
}

// selectSlot picks the slot for c. A valid pre-assigned slot wins. Otherwise
// the lowest-index slot without an active occupant is used, and when every
// slot is active the one dispatched longest ago is reused.
func selectSlot(slots []Slot, c clip.Clip, now time.Time) int {
	if c.HasSlot(len(slots)) {
		return c.Slot
	}
	for i := range slots {
		if !slots[i].Active(now) {
			return i
		}
	}
	oldest := 0
	for i := 1; i < len(slots); i++ {
		if slots[i].DispatchedAt.Before(slots[oldest].DispatchedAt) {
			oldest = i
		}
	}
	return oldest
}
