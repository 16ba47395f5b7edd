// Package services defines the shared failure taxonomy and context helpers
// used by the fetch pipeline, the rotation scheduler, and the session.
//
// Key responsibilities:
//   - Kind and *Error, the typed failure carried from workers and the
//     scheduler to the log boundary, where it is reported and swallowed.
//   - Context helpers that stamp run IDs, clip IDs, links, and slot indexes
//     so loggers can pick them up without threading extra arguments.
package services
