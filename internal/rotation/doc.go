// Package rotation implements the playback scheduler: a single loop that
// takes ready clips off the queue, picks a slot for each, and crossfades the
// slot from its previous occupant to the new clip.
//
// Each tick either dispatches one clip and waits an adaptive delay that grows
// with the clip's length, or finds the queue empty and waits a short idle
// interval. Slot state is written only by the loop. Crossfades run in their
// own goroutine as a FadingOut, Swapped, FadingIn state machine that checks a
// stop channel at every frame; a new dispatch to a slot stops and joins the
// slot's running crossfade first.
//
// Loudness comes from Amplitude, which weights a clip by the popularity
// counters of the link it was cut from.
package rotation
