// Package config loads, normalizes, and validates murmur's TOML configuration.
//
// Loading starts from Default(), decodes the user file on top of it, expands
// every path field, applies environment overrides, and finally validates the
// numeric bounds the fetch pipeline and rotation scheduler depend on. The
// sample file embedded here backs `murmur config init`.
package config
