package audio

import (
	"context"
	"errors"
	"time"
)

// ErrNotStarted is returned by engines used before Start or after Stop.
var ErrNotStarted = errors.New("audio engine not started")

// Voice describes one clip assigned to a slot.
type Voice struct {
	ClipID string
	Path   string
	// Speed multiplies the playback rate. Values are taken by magnitude.
	Speed     float64
	Amplitude float64
	// Pan is the stereo position in [0, 1], 0 hard left.
	Pan     float64
	Attack  time.Duration
	Release time.Duration
	// Gain is the slot gain the voice starts at; a following Fade raises it.
	Gain float64
}

// Engine is the audio backend driven by the rotation scheduler.
type Engine interface {
	Start(ctx context.Context) error
	Stop() error
	Duration(ctx context.Context, path string) (time.Duration, error)
	Assign(slot int, v Voice) error
	Fade(slot int, target float64, ramp time.Duration) error
}

// Prober reports the length of a local audio file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// SlotPan spreads players evenly across the stereo field, centring each slot
// in its share: slot/players + 1/(2*players).
func SlotPan(slot, players int) float64 {
	if players <= 0 {
		return 0.5
	}
	n := float64(players)
	return float64(slot)/n + 1/(2*n)
}
