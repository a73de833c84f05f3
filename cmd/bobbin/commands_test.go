package main

import (
	"os"
	"path/filepath"
	"testing"

	"bobbin/internal/manifest"
	"bobbin/internal/testsupport"
)

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error without --overwrite when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestStatusCommandReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Fetch tool")
	requireContains(t, out, "Output directory")
	requireContains(t, out, "OK")
}

func TestRunCommandProcessesSourceList(t *testing.T) {
	env := setupCLITestEnv(t)
	list := testsupport.WriteSourceList(t, env.baseDir,
		"https://example.com/media/alpha.mp4",
		"https://example.com/media/beta.mp4",
	)

	out, _, err := runCLI(t, []string{"run", list}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Transcoded")

	for _, id := range []string{"alpha", "beta"} {
		path := filepath.Join(env.cfg.Paths.OutputDir, id, manifest.FileName)
		entries, err := manifest.ReadFile(path)
		if err != nil {
			t.Fatalf("read manifest for %s: %v", id, err)
		}
		if len(entries) != len(env.cfg.Transcode.Renditions) {
			t.Fatalf("manifest for %s: expected %d entries, got %d",
				id, len(env.cfg.Transcode.Renditions), len(entries))
		}
	}
}

func TestHistoryCommandListsRecordedRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	list := testsupport.WriteSourceList(t, env.baseDir, "https://example.com/media/alpha.mp4")

	if _, _, err := runCLI(t, []string{"run", list}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// StyleRounded renders headers uppercase.
	requireContains(t, out, "FETCHED")
	if out == "No runs recorded yet.\n" {
		t.Fatal("expected at least one recorded run")
	}
}

func TestManifestShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	assetDir := filepath.Join(env.cfg.Paths.OutputDir, "alpha")
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		t.Fatalf("mkdir asset dir: %v", err)
	}
	entries := []manifest.Entry{
		{Bandwidth: 360000, Resolution: "360x360", URI: "360x360/index.m3u8"},
		{Bandwidth: 870000, Resolution: "720x720", URI: "720x720/index.m3u8"},
	}
	if err := manifest.Write(filepath.Join(assetDir, manifest.FileName), entries); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	out, _, err := runCLI(t, []string{"manifest", "show", "alpha"}, env.configPath)
	if err != nil {
		t.Fatalf("manifest show: %v", err)
	}
	requireContains(t, out, "720x720")
	requireContains(t, out, "870000")

	if _, _, err := runCLI(t, []string{"manifest", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
