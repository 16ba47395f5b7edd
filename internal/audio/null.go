package audio

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// NullEngine implements Engine without producing sound. Gains jump to their
// fade target immediately.
type NullEngine struct {
	prober Prober
	slots  int

	mu      sync.Mutex
	started bool
	voices  []Voice
	gains   []float64
	assigns int
}

// NewNullEngine creates a headless engine. prober answers Duration; when nil
// every clip is reported as one second long.
func NewNullEngine(slots int, prober Prober) *NullEngine {
	return &NullEngine{
		prober: prober,
		slots:  slots,
		voices: make([]Voice, slots),
		gains:  make([]float64, slots),
	}
}

func (e *NullEngine) Start(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = true
	return nil
}

func (e *NullEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false
	return nil
}

func (e *NullEngine) Duration(ctx context.Context, path string) (time.Duration, error) {
	if e.prober == nil {
		return time.Second, nil
	}
	return e.prober.Duration(ctx, path)
}

func (e *NullEngine) Assign(slot int, v Voice) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(slot); err != nil {
		return err
	}
	e.voices[slot] = v
	e.gains[slot] = v.Gain
	e.assigns++
	return nil
}

func (e *NullEngine) Fade(slot int, target float64, _ time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(slot); err != nil {
		return err
	}
	e.gains[slot] = target
	return nil
}

// Voice returns the voice last assigned to slot and its current gain.
func (e *NullEngine) Voice(slot int) (Voice, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot < 0 || slot >= e.slots {
		return Voice{}, 0
	}
	return e.voices[slot], e.gains[slot]
}

// Assigns reports how many voices were assigned.
func (e *NullEngine) Assigns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assigns
}

func (e *NullEngine) check(slot int) error {
	if !e.started {
		return ErrNotStarted
	}
	if slot < 0 || slot >= e.slots {
		return fmt.Errorf("audio: slot %d out of range [0,%d)", slot, e.slots)
	}
	return nil
}
