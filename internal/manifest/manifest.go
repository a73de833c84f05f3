// Package manifest writes and parses the per-asset master playlist that
// lists every rendition produced for an asset.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bobbin/internal/fileutil"
)

// FileName is the master playlist file written into each asset directory.
const FileName = "master.m3u8"

const (
	header         = "#EXTM3U"
	streamInfTag   = "#EXT-X-STREAM-INF:"
	bandwidthAttr  = "BANDWIDTH"
	resolutionAttr = "RESOLUTION"
)

// Entry describes one rendition listed in a manifest: its approximate
// bandwidth, resolution, and the path of its segment index relative to the
// manifest location.
type Entry struct {
	Bandwidth  int
	Resolution string
	URI        string
}

// Write renders entries to path in ladder order. The file content is built
// in full before anything touches the filesystem, and the write itself is
// atomic, so a failed write never leaves an empty or truncated manifest.
func Write(path string, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("manifest requires at least one rendition entry")
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')
	for _, entry := range entries {
		if entry.URI == "" {
			return fmt.Errorf("manifest entry for %s missing index path", entry.Resolution)
		}
		fmt.Fprintf(&buf, "%s%s=%d,%s=%s\n", streamInfTag, bandwidthAttr, entry.Bandwidth, resolutionAttr, entry.Resolution)
		buf.WriteString(entry.URI)
		buf.WriteByte('\n')
	}

	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// ReadFile parses the manifest at path.
func ReadFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads a master playlist back into its ordered rendition entries.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, fmt.Errorf("manifest is empty")
	}
	if line := strings.TrimSpace(scanner.Text()); line != header {
		return nil, fmt.Errorf("manifest missing %s header, got %q", header, line)
	}

	var entries []Entry
	var pending *Entry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, streamInfTag) {
			if pending != nil {
				return nil, fmt.Errorf("stream entry for %s missing index path", pending.Resolution)
			}
			entry, err := parseStreamInf(line)
			if err != nil {
				return nil, err
			}
			pending = &entry
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if pending == nil {
			return nil, fmt.Errorf("unexpected path line %q before stream metadata", line)
		}
		pending.URI = line
		entries = append(entries, *pending)
		pending = nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, fmt.Errorf("stream entry for %s missing index path", pending.Resolution)
	}
	return entries, nil
}

func parseStreamInf(line string) (Entry, error) {
	var entry Entry
	attrs := strings.TrimPrefix(line, streamInfTag)
	for _, attr := range strings.Split(attrs, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(attr), "=")
		if !ok {
			continue
		}
		switch key {
		case bandwidthAttr:
			bandwidth, err := strconv.Atoi(value)
			if err != nil {
				return Entry{}, fmt.Errorf("parse bandwidth %q: %w", value, err)
			}
			entry.Bandwidth = bandwidth
		case resolutionAttr:
			entry.Resolution = value
		}
	}
	if entry.Bandwidth == 0 {
		return Entry{}, fmt.Errorf("stream metadata missing %s: %q", bandwidthAttr, line)
	}
	return entry, nil
}
