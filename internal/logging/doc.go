// Package logging constructs slog loggers with console and JSON handlers
// and provides the standardized attribute helpers used across the pipeline.
package logging
