// Package ffprobe runs ffprobe against finished clips.
//
// Inspect returns the parsed stream and format sections. Prober adapts it
// to the audio engine's duration query, preferring the container duration
// and falling back to the first audio stream.
package ffprobe
