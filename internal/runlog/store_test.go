package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bobbin/internal/config"
	"bobbin/internal/pipeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LogDir = filepath.Join(root, "logs")

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	result := &pipeline.Result{
		RunID:      "run-1",
		Sources:    3,
		Fetched:    2,
		Transcoded: 2,
		Skipped:    0,
		Failed:     1,
		Failures: []pipeline.AssetFailure{
			{AssetID: "beta", Stage: "transcode", Rendition: "720x720", Err: errors.New("render tool exited 1")},
		},
		StartedAt:  started,
		FinishedAt: started.Add(30 * time.Second),
	}
	if err := store.RecordRun(ctx, result); err != nil {
		t.Fatalf("record run: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.RunID != "run-1" || run.Sources != 3 || run.Fetched != 2 || run.Failed != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if !run.FinishedAt.After(run.StartedAt) {
		t.Fatalf("expected finished after started: %+v", run)
	}

	failures, err := store.Failures(ctx, "run-1")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].AssetID != "beta" || failures[0].Rendition != "720x720" || failures[0].Message == "" {
		t.Fatalf("unexpected failure: %+v", failures[0])
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-old", "run-new"} {
		result := &pipeline.Result{
			RunID:      id,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 10*time.Second),
		}
		if err := store.RecordRun(ctx, result); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-new" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}
}

func TestRecordRunRequiresRunID(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordRun(context.Background(), &pipeline.Result{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LogDir = filepath.Join(root, "logs")

	first, err := Open(&cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	result := &pipeline.Result{RunID: "run-1", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := first.RecordRun(context.Background(), result); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	runs, err := second.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected recorded run to survive reopen, got %d", len(runs))
	}
}
