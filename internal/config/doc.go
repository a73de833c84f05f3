// Package config loads, normalizes, and validates the TOML configuration
// that drives the fetch/transcode pipeline.
package config
