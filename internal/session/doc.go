// Package session runs one playback session: it takes the single-instance
// lock, loads the candidate pool, starts the audio engine, and runs the fetch
// pipeline and rotation scheduler until the pool is exhausted or the process
// is signalled.
//
// Shutdown is ordered. The scheduler stops its crossfades, the engine is
// stopped, fetch workers are joined, and only then are queued and retained
// clip files deleted together with the run's clip directory.
package session
