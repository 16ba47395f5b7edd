// Package fetch turns candidate links into trimmed clips on local storage.
//
// A Worker handles one candidate: it validates the link, resolves metadata
// through yt-dlp, picks a random window and trims it with ffmpeg. The
// Pipeline draws candidates from the pool and runs workers on a bounded
// errgroup, pausing while the ready queue is full. Worker failures are typed
// *services.Error values, logged at the worker boundary and never propagated.
package fetch
