// Package textutil turns remote media titles into short display strings for
// dispatch logs and the history table.
package textutil
