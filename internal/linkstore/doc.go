// Package linkstore persists the candidate link pool and dispatch history in
// SQLite.
//
// The links table is the durable form of the harvester file: `murmur pool
// import` upserts it and a playback session with pool.source = "sqlite"
// snapshots it into a candidate.Pool. The plays table is write-only telemetry
// from the rotation scheduler; nothing is restored from it at startup.
//
// Schema changes bump schemaVersion; users delete the database to adopt the
// new schema.
package linkstore
