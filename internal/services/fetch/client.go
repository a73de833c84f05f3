// Package fetch wraps the external download tool used by the ingestion stage.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bobbin/internal/invoker"
	"bobbin/internal/sources"
)

// Fetcher defines the behaviour required by the ingestion stage.
type Fetcher interface {
	Fetch(ctx context.Context, ref sources.Reference, destDir string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExtraArgs inserts additional arguments before the output template.
func WithExtraArgs(args []string) Option {
	return func(c *Client) {
		c.extraArgs = append([]string(nil), args...)
	}
}

// WithTimeout bounds each fetch invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client wraps the fetch tool CLI. The tool contract: given a source
// location and an output template, write exactly one file named by the
// derived identifier into the destination directory on success.
type Client struct {
	binary    string
	extraArgs []string
	timeout   time.Duration
}

// New constructs a fetch client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("fetch binary required")
	}
	client := &Client{binary: binary}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Fetch downloads one asset into destDir and returns the local path the
// tool was instructed to produce.
func (c *Client) Fetch(ctx context.Context, ref sources.Reference, destDir string) (string, error) {
	if strings.TrimSpace(ref.URL) == "" {
		return "", errors.New("source url required")
	}
	if strings.TrimSpace(destDir) == "" {
		return "", errors.New("destination directory required")
	}

	outputTemplate := filepath.Join(destDir, ref.ID+".%(ext)s")
	args := make([]string, 0, len(c.extraArgs)+3)
	args = append(args, ref.URL)
	args = append(args, c.extraArgs...)
	args = append(args, "-o", outputTemplate)

	if _, err := invoker.Run(ctx, invoker.Command{
		Name:    c.binary,
		Args:    args,
		Timeout: c.timeout,
	}); err != nil {
		return "", fmt.Errorf("fetch %s: %w", ref.ID, err)
	}

	return locateOutput(destDir, ref.ID)
}

var _ Fetcher = (*Client)(nil)
