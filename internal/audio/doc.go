// Package audio renders clips to an output device.
//
// The Engine interface is what the rotation scheduler drives: Assign replaces
// the voice on a slot, Fade ramps a slot's gain, and Duration reports a
// clip's length. SpeakerEngine mixes every slot into one stereo stream on the
// system speaker through gopxl/beep; each slot is a voice with its own
// playback speed, amplitude, pan position, attack/release envelope, and gain
// ramp. NullEngine accepts the same calls without producing sound, for
// headless runs and tests.
package audio
