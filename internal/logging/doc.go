// Package logging assembles the structured slog loggers murmur uses.
//
// It owns the console and JSON handlers, writes each playback run to its own
// log file alongside stdout, and exposes context-aware helpers so fetch and
// rotation code can tag lines with run, clip, link, and slot identifiers.
// Use NewNop in tests and wiring code that has no logger yet.
package logging
