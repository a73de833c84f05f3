// Package pipeline coordinates the ingestion and transcoding stages over a
// shared bounded work queue and aggregates the outcome of a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bobbin/internal/config"
	"bobbin/internal/ingest"
	"bobbin/internal/logging"
	"bobbin/internal/services"
	"bobbin/internal/services/fetch"
	"bobbin/internal/services/ffmpeg"
	"bobbin/internal/sources"
	"bobbin/internal/transcode"
	"bobbin/internal/workqueue"
)

// LockFileName is the advisory lock taken on the output directory so that
// concurrent runs cannot interleave writes into the same rendition tree.
const LockFileName = ".bobbin.lock"

// ErrOutputLocked indicates another run holds the output directory lock.
var ErrOutputLocked = errors.New("output directory is locked by another run")

// AssetFailure records one asset that did not reach the destination.
type AssetFailure struct {
	AssetID   string
	Stage     string
	Rendition string
	Err       error
}

// Result aggregates a finished run. Skipped counts assets that were already
// materialized at the destination when the run started.
type Result struct {
	RunID      string
	Sources    int
	Fetched    int
	Transcoded int
	Skipped    int
	Failed     int
	Failures   []AssetFailure
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall-clock time the run took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Options carries the collaborators for one run. Fetcher and Transcoder
// default to clients built from the configuration when nil.
type Options struct {
	Config     *config.Config
	SourceList string
	Fetcher    fetch.Fetcher
	Transcoder ffmpeg.Transcoder
	Logger     *slog.Logger
}

// Run executes one complete pipeline pass: it loads the source list, takes
// the output lock, and drives both stages concurrently over a shared queue.
// Setup errors and stage-internal errors abort the run; per-asset failures
// are collected into the result and abort it only when the configured
// failure policy says so.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "configuration required", nil)
	}
	cfg := opts.Config
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")

	refs, err := sources.Load(opts.SourceList)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "create directories", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.OutputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return nil, ErrOutputLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release output lock", logging.Error(err))
		}
	}()

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher, err = fetch.New(cfg.Fetch.Binary,
			fetch.WithExtraArgs(cfg.Fetch.ExtraArgs),
			fetch.WithTimeout(time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "build fetch client", err)
		}
	}
	transcoder := opts.Transcoder
	if transcoder == nil {
		transcoder, err = ffmpeg.New(cfg.Transcode.Binary,
			ffmpeg.WithSegmentSeconds(cfg.Transcode.SegmentSeconds),
			ffmpeg.WithTimeout(time.Duration(cfg.Transcode.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "build transcode client", err)
		}
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Sources:   len(refs),
		StartedAt: time.Now(),
	}
	runCtx, cancel := context.WithCancel(services.WithRunID(ctx, result.RunID))
	defer cancel()

	logger.Info("run started",
		logging.String(logging.FieldRunID, result.RunID),
		logging.Int("sources", len(refs)),
		logging.Int("queue_capacity", cfg.Pipeline.QueueCapacity),
	)

	queue := workqueue.New(cfg.Pipeline.QueueCapacity)
	materialized := func(assetID string) bool {
		return transcode.Materialized(cfg.Paths.OutputDir, assetID)
	}
	producer := ingest.New(fetcher, queue, cfg.Paths.StagingDir, materialized, opts.Logger)
	consumer := transcode.New(transcoder, queue, cfg.Paths.OutputDir, transcode.Ladder(cfg.Transcode.Renditions), opts.Logger)

	var (
		wg              sync.WaitGroup
		ingestReport    ingest.Report
		ingestErr       error
		transcodeReport transcode.Report
		transcodeErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ingestReport, ingestErr = producer.Run(runCtx, refs)
		if ingestErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		transcodeReport, transcodeErr = consumer.Run(runCtx)
		if transcodeErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	result.Fetched = ingestReport.Fetched
	result.Transcoded = transcodeReport.Transcoded
	result.Skipped = ingestReport.Skipped + transcodeReport.Skipped
	for _, failure := range ingestReport.Failures {
		result.Failures = append(result.Failures, AssetFailure{
			AssetID: failure.AssetID,
			Stage:   ingest.StageName,
			Err:     failure.Err,
		})
	}
	for _, failure := range transcodeReport.Failures {
		result.Failures = append(result.Failures, AssetFailure{
			AssetID:   failure.AssetID,
			Stage:     transcode.StageName,
			Rendition: failure.Rendition,
			Err:       failure.Err,
		})
	}
	result.Failed = len(result.Failures)
	result.FinishedAt = time.Now()

	if err := runError(ctx, ingestErr, transcodeErr); err != nil {
		logger.Error("run aborted",
			logging.String(logging.FieldRunID, result.RunID),
			logging.Error(err),
		)
		return result, err
	}

	logger.Info("run finished",
		logging.String(logging.FieldRunID, result.RunID),
		logging.Int("fetched", result.Fetched),
		logging.Int("transcoded", result.Transcoded),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Duration("duration", result.Duration()),
	)

	if cfg.Pipeline.FailOnAssetErrors && result.Failed > 0 {
		return result, fmt.Errorf("%d of %d assets failed", result.Failed, result.Sources)
	}
	return result, nil
}

// runError selects the error that should abort the run. Context errors that
// merely echo a cancellation triggered by the other stage are folded into
// the original cause.
func runError(ctx context.Context, ingestErr, transcodeErr error) error {
	if ingestErr != nil && !isContextError(ingestErr) {
		return fmt.Errorf("ingest stage: %w", ingestErr)
	}
	if transcodeErr != nil && !isContextError(transcodeErr) {
		return fmt.Errorf("transcode stage: %w", transcodeErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ingestErr != nil {
		return fmt.Errorf("ingest stage: %w", ingestErr)
	}
	if transcodeErr != nil {
		return fmt.Errorf("transcode stage: %w", transcodeErr)
	}
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
