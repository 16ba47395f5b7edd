// Command murmur plays a never-ending ambient collage of short clips cut from
// a pool of YouTube links.
//
// `murmur play` runs a playback session. The pool, history, config, and status
// subcommands inspect and maintain the state that sessions read.
package main
