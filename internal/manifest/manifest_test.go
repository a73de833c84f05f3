package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func ladderEntries() []Entry {
	return []Entry{
		{Bandwidth: 360000, Resolution: "360x360", URI: "360x360/index.m3u8"},
		{Bandwidth: 870000, Resolution: "720x720", URI: "720x720/index.m3u8"},
		{Bandwidth: 2100000, Resolution: "1080x1080", URI: "1080x1080/index.m3u8"},
	}
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	want := ladderEntries()

	if err := Write(path, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestWriteStartsWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := Write(path, ladderEntries()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "#EXTM3U\n") {
		t.Fatalf("expected header first, got:\n%s", data)
	}
}

func TestWriteRejectsEmptyEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := Write(path, nil); err == nil {
		t.Fatal("expected error for empty entry list")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file may exist after a rejected write")
	}
}

func TestWriteRejectsEntryWithoutURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	entries := []Entry{{Bandwidth: 360000, Resolution: "360x360"}}
	if err := Write(path, entries); err == nil {
		t.Fatal("expected error for entry without index path")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file may exist after a rejected write")
	}
}

func TestParseRejectsMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("#EXT-X-STREAM-INF:BANDWIDTH=1,RESOLUTION=1x1\na/index.m3u8\n"))
	if err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestParseRejectsDanglingMetadata(t *testing.T) {
	_, err := Parse(strings.NewReader("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=360000,RESOLUTION=360x360\n"))
	if err == nil {
		t.Fatal("expected error for metadata without path")
	}
}

func TestParseSkipsUnknownComments(t *testing.T) {
	content := "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-STREAM-INF:BANDWIDTH=360000,RESOLUTION=360x360\n360x360/index.m3u8\n"
	entries, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Bandwidth != 360000 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
