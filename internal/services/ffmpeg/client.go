// Package ffmpeg wraps the external transcode tool used by the transcoding
// stage. Each invocation produces one HLS rendition: a segment index file
// plus numbered segment files inside the rendition directory.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bobbin/internal/invoker"
)

// IndexFileName is the per-rendition segment index written by the tool.
const IndexFileName = "index.m3u8"

// Rendition describes one encoded variant of a source asset.
type Rendition struct {
	Width       int
	Height      int
	BitrateKbps int
}

// Resolution returns the WxH form used in manifests and directory names.
func (r Rendition) Resolution() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Bandwidth returns the approximate bandwidth advertised in the manifest.
func (r Rendition) Bandwidth() int {
	return r.BitrateKbps * 1000
}

// IndexPath returns the rendition's index file path relative to the asset
// directory.
func (r Rendition) IndexPath() string {
	return r.Resolution() + "/" + IndexFileName
}

// Transcoder defines the behaviour required by the transcoding stage.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, assetDir string, rendition Rendition) error
}

// Option configures the client.
type Option func(*Client)

// WithSegmentSeconds overrides the HLS segment duration.
func WithSegmentSeconds(seconds int) Option {
	return func(c *Client) {
		if seconds > 0 {
			c.segmentSeconds = seconds
		}
	}
}

// WithTimeout bounds each transcode invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client wraps the transcode tool CLI.
type Client struct {
	binary         string
	segmentSeconds int
	timeout        time.Duration
}

// New constructs a transcode client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("transcode binary required")
	}
	client := &Client{binary: binary, segmentSeconds: 4}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcode produces one rendition of inputPath under assetDir.
func (c *Client) Transcode(ctx context.Context, inputPath, assetDir string, rendition Rendition) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("input path required")
	}
	if strings.TrimSpace(assetDir) == "" {
		return errors.New("asset directory required")
	}

	renditionDir := filepath.Join(assetDir, rendition.Resolution())
	if err := os.MkdirAll(renditionDir, 0o755); err != nil {
		return fmt.Errorf("create rendition directory: %w", err)
	}

	args := buildArgs(inputPath, renditionDir, rendition, c.segmentSeconds)
	if _, err := invoker.Run(ctx, invoker.Command{
		Name:    c.binary,
		Args:    args,
		Timeout: c.timeout,
	}); err != nil {
		return fmt.Errorf("transcode %s: %w", rendition.Resolution(), err)
	}
	return nil
}

func buildArgs(inputPath, renditionDir string, r Rendition, segmentSeconds int) []string {
	return []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-vf", fmt.Sprintf("scale=%d:%d", r.Width, r.Height),
		"-b:v", strconv.Itoa(r.BitrateKbps) + "k",
		"-f", "hls",
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(renditionDir, "segment_%03d.ts"),
		filepath.Join(renditionDir, IndexFileName),
	}
}

var _ Transcoder = (*Client)(nil)
