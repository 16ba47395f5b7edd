// Package preflight provides readiness checks for the filesystem paths, link
// pool, and external binaries murmur depends on.
//
// These checks run in two contexts:
//   - `murmur play` refuses to start when a required binary is missing and
//     logs any failed directory or pool check before loading the pool.
//   - `murmur status` renders every result as a table.
package preflight
