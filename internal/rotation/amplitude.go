package rotation

import (
	"math"
	"time"

	"murmur/internal/candidate"
)

// Amplitude maps popularity counters to a gain of at least 0.5.
//
// The visited counter is used whenever it is non-zero, otherwise seen. The
// value is log(base+1) in the base of the pool-wide maximum, halved and
// offset by 0.5, so base == max lands near 1. A maximum of 1 would make the
// logarithm degenerate and is treated as base 2. The result is not clamped:
// counters that outgrew the snapshotted maxima yield values above 1.
func Amplitude(stats candidate.Stats, maxSeen, maxVisited uint64) float64 {
	base, normalizer := float64(stats.Seen), float64(maxSeen)
	if stats.Visited != 0 {
		base, normalizer = float64(stats.Visited), float64(maxVisited)
	}
	normalizer = math.Max(1, normalizer)
	if normalizer == 1 {
		normalizer = 2
	}
	return math.Log(base+1)/math.Log(normalizer)*0.5 + 0.5
}

// Pacing returns the delay before the next tick after dispatching a clip of
// length dur: ((dur - min) / max) * scale seconds + floor. A clip shorter
// than min waits slightly less than floor.
func Pacing(dur, minDur, maxDur time.Duration, scale float64, floor time.Duration) time.Duration {
	if maxDur <= 0 {
		return floor
	}
	ratio := (dur - minDur).Seconds() / maxDur.Seconds()
	return time.Duration(ratio*scale*float64(time.Second)) + floor
}
