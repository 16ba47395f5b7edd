package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// slotMixer sums every slot's voice into one endless stereo stream.
type slotMixer struct {
	mu     sync.Mutex
	voices []*voice
	buf    [][2]float64
	shelf  *lowShelf
}

func newSlotMixer(slots int) *slotMixer {
	return &slotMixer{voices: make([]*voice, slots)}
}

var _ beep.Streamer = (*slotMixer)(nil)

func (m *slotMixer) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(samples)
	if cap(m.buf) < len(samples) {
		m.buf = make([][2]float64, len(samples))
	}
	buf := m.buf[:len(samples)]
	for _, v := range m.voices {
		if v != nil {
			v.mixInto(samples, buf)
		}
	}
	if m.shelf != nil {
		m.shelf.process(samples)
	}
	for i := range samples {
		samples[i][0] = clampSample(samples[i][0])
		samples[i][1] = clampSample(samples[i][1])
	}
	return len(samples), true
}

func (m *slotMixer) Err() error { return nil }

func (m *slotMixer) setShelf(f *lowShelf) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shelf = f
}

// swap installs v on slot and returns the previous voice.
func (m *slotMixer) swap(slot int, v *voice) *voice {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.voices[slot]
	m.voices[slot] = v
	return prev
}

func (m *slotMixer) ramp(slot int, target float64, samples int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.voices[slot]
	if v == nil {
		return false
	}
	v.rampTo(target, samples)
	return true
}

// reset removes every voice and returns them for closing.
func (m *slotMixer) reset() []*voice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*voice, 0, len(m.voices))
	for i, v := range m.voices {
		if v != nil {
			out = append(out, v)
		}
		m.voices[i] = nil
	}
	return out
}

func clampSample(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	default:
		return x
	}
}
