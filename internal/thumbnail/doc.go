// Package thumbnail keeps a "now playing" image on disk for external
// displays.
//
// Fetcher downloads a clip's remote thumbnail once, at fetch time, and stores
// it next to the clip as a JPEG. Renderer cross-dissolves from the image
// currently shown to the next one over a configurable transition, rewriting
// the output file frame by frame. Starting a new transition stops the one in
// flight; the new dissolve begins from whatever frame was last written.
//
// Both are best-effort: failures are logged by callers and never affect
// playback.
package thumbnail
