package rotation

import (
	"sync"
	"time"

	"murmur/internal/audio"
)

// Phase is the state of one crossfade.
type Phase int

const (
	PhaseFadingOut Phase = iota
	PhaseSwapped
	PhaseFadingIn
	PhaseDone
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseFadingOut:
		return "fading_out"
	case PhaseSwapped:
		return "swapped"
	case PhaseFadingIn:
		return "fading_in"
	case PhaseDone:
		return "done"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

const fadeFrame = 10 * time.Millisecond

// crossfade drives one slot from its current voice to next.
type crossfade struct {
	engine  audio.Engine
	slot    int
	next    audio.Voice
	window  time.Duration
	fadeOut bool

	// onSwap runs after the engine accepted next; onAbort runs when next
	// never reached the engine.
	onSwap  func()
	onAbort func(err error)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	phase Phase
}

func startCrossfade(cf *crossfade) *crossfade {
	cf.stop = make(chan struct{})
	cf.done = make(chan struct{})
	go cf.run()
	return cf
}

func (cf *crossfade) run() {
	defer close(cf.done)

	cf.setPhase(PhaseFadingOut)
	if cf.fadeOut {
		_ = cf.engine.Fade(cf.slot, 0, cf.window)
		if !cf.wait(cf.window) {
			cf.setPhase(PhaseCancelled)
			cf.onAbort(nil)
			return
		}
	}

	if err := cf.engine.Assign(cf.slot, cf.next); err != nil {
		cf.setPhase(PhaseCancelled)
		cf.onAbort(err)
		return
	}
	cf.setPhase(PhaseSwapped)
	cf.onSwap()

	cf.setPhase(PhaseFadingIn)
	_ = cf.engine.Fade(cf.slot, 1, cf.window)
	if !cf.wait(cf.window) {
		cf.setPhase(PhaseCancelled)
		return
	}
	cf.setPhase(PhaseDone)
}

// wait sleeps for d in frames, returning false if stopped first.
func (cf *crossfade) wait(d time.Duration) bool {
	deadline := time.Now().Add(d)
	ticker := time.NewTicker(fadeFrame)
	defer ticker.Stop()
	for {
		select {
		case <-cf.stop:
			return false
		default:
		}
		if !time.Now().Before(deadline) {
			return true
		}
		select {
		case <-cf.stop:
			return false
		case <-ticker.C:
		}
	}
}

// Stop signals the crossfade and waits for it to exit.
func (cf *crossfade) Stop() {
	cf.stopOnce.Do(func() { close(cf.stop) })
	<-cf.done
}

// Done reports whether the crossfade goroutine has exited.
func (cf *crossfade) Done() bool {
	select {
	case <-cf.done:
		return true
	default:
		return false
	}
}

func (cf *crossfade) Phase() Phase {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.phase
}

func (cf *crossfade) setPhase(p Phase) {
	cf.mu.Lock()
	cf.phase = p
	cf.mu.Unlock()
}
