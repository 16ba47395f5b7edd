// Package logs reads the per-run log files a playback session writes.
//
// Latest picks the most recent run log in a directory, Last returns its
// final lines with bounded memory, and Follow streams lines appended after
// an offset until the context ends. The CLI `murmur logs` command is the
// only consumer.
package logs
