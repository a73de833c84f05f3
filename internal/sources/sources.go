// Package sources parses the newline-separated source list and derives a
// stable identifier for each remote asset.
package sources

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"bobbin/internal/services"
)

// Reference identifies one remote asset. Immutable once parsed.
type Reference struct {
	URL string
	ID  string
}

// Load reads a source list file: one location per line, whitespace-trimmed,
// blank lines and #-comments skipped. Order is preserved. A repeated
// location keeps its first occurrence; distinct locations that derive the
// same identifier get a digest suffix so no source is dropped.
func Load(path string) ([]Reference, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sources", "open list", fmt.Sprintf("cannot read source list %s", path), err)
	}
	defer file.Close()

	var refs []Reference
	seen := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id := DeriveID(line)
		if prev, taken := seen[id]; taken {
			if prev == line {
				continue
			}
			id = suffixID(id, line)
			if prev, taken := seen[id]; taken && prev == line {
				continue
			}
		}
		seen[id] = line
		refs = append(refs, Reference{URL: line, ID: id})
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sources", "read list", fmt.Sprintf("cannot read source list %s", path), err)
	}
	return refs, nil
}

// DeriveID produces a stable filesystem-safe identifier for a source
// location. The last path segment is preferred; locations without a usable
// segment fall back to a short content hash so the identifier is never empty.
func DeriveID(location string) string {
	location = strings.TrimSpace(location)

	segment := location
	if parsed, err := url.Parse(location); err == nil && parsed.Path != "" {
		segment = path.Base(parsed.Path)
	} else if idx := strings.LastIndexByte(location, '/'); idx >= 0 {
		segment = location[idx+1:]
	}
	if dot := strings.LastIndexByte(segment, '.'); dot > 0 {
		segment = segment[:dot]
	}

	id := sanitize(segment)
	if id == "" || id == "/" || id == "." {
		sum := sha256.Sum256([]byte(location))
		id = "asset-" + hex.EncodeToString(sum[:6])
	}
	return id
}

// suffixID appends a short digest of the full location so sources sharing a
// basename stem stay distinct.
func suffixID(id, location string) string {
	sum := sha256.Sum256([]byte(location))
	return id + "-" + hex.EncodeToString(sum[:4])
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-.")
}
