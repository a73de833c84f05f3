package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRenditionHelpers(t *testing.T) {
	r := Rendition{Width: 720, Height: 720, BitrateKbps: 870}
	if r.Resolution() != "720x720" {
		t.Fatalf("unexpected resolution %q", r.Resolution())
	}
	if r.Bandwidth() != 870000 {
		t.Fatalf("unexpected bandwidth %d", r.Bandwidth())
	}
	if r.IndexPath() != "720x720/index.m3u8" {
		t.Fatalf("unexpected index path %q", r.IndexPath())
	}
}

func TestBuildArgs(t *testing.T) {
	r := Rendition{Width: 360, Height: 360, BitrateKbps: 360}
	args := buildArgs("/staging/clip.mp4", "/out/clip/360x360", r, 4)

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i /staging/clip.mp4",
		"scale=360:360",
		"-b:v 360k",
		"-f hls",
		"-hls_time 4",
		"-hls_list_size 0",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args %q", want, joined)
		}
	}
	if args[len(args)-1] != filepath.Join("/out/clip/360x360", IndexFileName) {
		t.Fatalf("expected index file as final argument, got %q", args[len(args)-1])
	}
}

func TestTranscodeCreatesRenditionDirAndInvokesTool(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "transcoder")
	script := "#!/bin/sh\n# last argument is the segment index path\nfor last; do :; done\ntouch \"$last\"\nexit 0\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	client, err := New(binary, WithSegmentSeconds(6))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	assetDir := filepath.Join(dir, "asset")
	r := Rendition{Width: 360, Height: 360, BitrateKbps: 360}
	if err := client.Transcode(context.Background(), filepath.Join(dir, "in.mp4"), assetDir, r); err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	index := filepath.Join(assetDir, "360x360", IndexFileName)
	if _, err := os.Stat(index); err != nil {
		t.Fatalf("expected index file at %s: %v", index, err)
	}
}

func TestTranscodeFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "transcoder")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\necho 'codec not found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	client, err := New(binary)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := Rendition{Width: 360, Height: 360, BitrateKbps: 360}
	err = client.Transcode(context.Background(), filepath.Join(dir, "in.mp4"), filepath.Join(dir, "asset"), r)
	if err == nil {
		t.Fatal("expected transcode failure")
	}
	if !strings.Contains(err.Error(), "codec not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
