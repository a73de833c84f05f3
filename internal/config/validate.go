package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == c.Paths.OutputDir {
		return errors.New("paths.staging_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if len(c.Transcode.Renditions) == 0 {
		return errors.New("transcode.renditions must list at least one rendition")
	}
	for i, r := range c.Transcode.Renditions {
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("transcode.renditions[%d]: width and height must be positive", i)
		}
		if r.BitrateKbps <= 0 {
			return fmt.Errorf("transcode.renditions[%d]: bitrate_kbps must be positive", i)
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.QueueCapacity < 1 {
		return errors.New("pipeline.queue_capacity must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
