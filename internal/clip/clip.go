// Package clip defines the fetched audio clip and the bounded ready queue
// that hands clips from the fetch pipeline to the rotation scheduler.
package clip

import (
	"time"

	"murmur/internal/candidate"
)

// NoSlot marks a clip without a pre-assigned playback slot.
const NoSlot = -1

// Clip is a trimmed audio file on local storage ready for playback.
type Clip struct {
	ID        string
	Link      string
	Title     string
	Path      string
	Duration  time.Duration
	Stats     candidate.Stats
	Slot      int
	Thumbnail string
	FetchedAt time.Time
}

// HasSlot reports whether the clip was pre-assigned a slot in [0, players).
func (c Clip) HasSlot(players int) bool {
	return c.Slot >= 0 && c.Slot < players
}
