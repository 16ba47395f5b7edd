package audio

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// voice is the mixer-side state of one slot. All fields are owned by the
// mixer goroutine; callers mutate them only under the speaker lock.
type voice struct {
	id       string
	streamer beep.Streamer
	closer   func() error

	amplitude float64
	panL      float64
	panR      float64

	// envelope, in output samples
	pos     int
	total   int
	attack  int
	release int

	gain     float64
	target   float64
	step     float64
	finished bool
}

func newVoice(id string, s beep.Streamer, closer func() error, v Voice, totalSamples, attackSamples, releaseSamples int) *voice {
	theta := clamp01(v.Pan) * math.Pi / 2
	return &voice{
		id:        id,
		streamer:  s,
		closer:    closer,
		amplitude: v.Amplitude,
		panL:      math.Cos(theta) * math.Sqrt2,
		panR:      math.Sin(theta) * math.Sqrt2,
		total:     max(totalSamples, 1),
		attack:    attackSamples,
		release:   releaseSamples,
		gain:      v.Gain,
		target:    v.Gain,
	}
}

// rampTo moves the gain linearly to target over n output samples.
func (v *voice) rampTo(target float64, n int) {
	v.target = target
	if n <= 0 {
		v.gain = target
		v.step = 0
		return
	}
	v.step = (target - v.gain) / float64(n)
}

func (v *voice) envelope() float64 {
	e := 1.0
	if v.attack > 0 && v.pos < v.attack {
		e = float64(v.pos) / float64(v.attack)
	}
	if v.release > 0 {
		if left := v.total - v.pos; left < v.release {
			e = math.Min(e, math.Max(0, float64(left)/float64(v.release)))
		}
	}
	return e
}

// mixInto adds the voice's next len(dst) frames into dst using buf as scratch.
func (v *voice) mixInto(dst, buf [][2]float64) {
	if v.finished {
		return
	}
	n, ok := v.streamer.Stream(buf[:len(dst)])
	for i := range n {
		g := v.gain * v.amplitude * v.envelope()
		dst[i][0] += buf[i][0] * g * v.panL
		dst[i][1] += buf[i][1] * g * v.panR
		v.pos++
		if v.step != 0 {
			v.gain += v.step
			if (v.step > 0 && v.gain >= v.target) || (v.step < 0 && v.gain <= v.target) {
				v.gain = v.target
				v.step = 0
			}
		}
	}
	if !ok || n < len(dst) {
		v.finished = true
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
