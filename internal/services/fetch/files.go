package fetch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalPath returns the materialized path for an identifier inside destDir,
// or "" when no fetched file exists yet.
func LocalPath(destDir, assetID string) string {
	path, err := locateOutput(destDir, assetID)
	if err != nil {
		return ""
	}
	return path
}

// locateOutput finds the file the fetch tool produced for assetID. The tool
// chooses the extension, so the lookup matches on the identifier stem. When
// several candidates exist the newest wins.
func locateOutput(destDir, assetID string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("fetch produced no output for %s", assetID)
		}
		return "", fmt.Errorf("inspect fetch outputs: %w", err)
	}

	var best string
	var bestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem != assetID {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = filepath.Join(destDir, name)
			bestMod = info.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("fetch produced no output for %s", assetID)
	}
	return best, nil
}
