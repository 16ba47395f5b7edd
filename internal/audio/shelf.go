package audio

import "math"

// lowShelf is a stereo biquad low-shelf filter (RBJ cookbook, shelf slope 1)
// applied to the summed mix.
type lowShelf struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
}

// newLowShelf returns nil when the shelf would be a no-op or cannot be
// realised at sampleRate.
func newLowShelf(sampleRate, freq, gainDB float64) *lowShelf {
	if gainDB == 0 || freq <= 0 || sampleRate <= 0 || freq >= sampleRate/2 {
		return nil
	}
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / 2 * math.Sqrt2
	sq := 2 * math.Sqrt(a) * alpha

	a0 := (a + 1) + (a-1)*cosw + sq
	return &lowShelf{
		b0: a * ((a + 1) - (a-1)*cosw + sq) / a0,
		b1: 2 * a * ((a - 1) - (a+1)*cosw) / a0,
		b2: a * ((a + 1) - (a-1)*cosw - sq) / a0,
		a1: -2 * ((a - 1) + (a+1)*cosw) / a0,
		a2: ((a + 1) + (a-1)*cosw - sq) / a0,
	}
}

func (f *lowShelf) process(samples [][2]float64) {
	for i := range samples {
		for c := range 2 {
			x := samples[i][c]
			y := f.b0*x + f.b1*f.x1[c] + f.b2*f.x2[c] - f.a1*f.y1[c] - f.a2*f.y2[c]
			f.x2[c], f.x1[c] = f.x1[c], x
			f.y2[c], f.y1[c] = f.y1[c], y
			samples[i][c] = y
		}
	}
}
