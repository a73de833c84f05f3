// Package ingest implements the producer stage: it fetches each source
// asset into the staging directory and enqueues one work item per
// materialized original.
package ingest

import (
	"context"
	"log/slog"

	"bobbin/internal/logging"
	"bobbin/internal/services"
	"bobbin/internal/services/fetch"
	"bobbin/internal/sources"
	"bobbin/internal/workqueue"
)

// StageName identifies this stage in logs and failure records.
const StageName = "ingest"

// Failure records one non-fatal per-asset fetch failure.
type Failure struct {
	AssetID string
	Err     error
}

// Report summarizes a completed ingestion pass. It is only read after the
// stage has terminated. Reused counts staged originals enqueued without a
// fetch; Skipped counts assets already materialized at the destination,
// which are not enqueued at all.
type Report struct {
	Fetched  int
	Reused   int
	Skipped  int
	Failures []Failure
}

// Ingestor drives the fetch side of the pipeline.
type Ingestor struct {
	fetcher      fetch.Fetcher
	queue        *workqueue.Queue
	stagingDir   string
	materialized func(assetID string) bool
	logger       *slog.Logger
}

// New constructs an ingestor. The materialized predicate reports whether an
// asset already has a complete rendition set at the destination, allowing
// safe re-runs without re-fetching.
func New(fetcher fetch.Fetcher, queue *workqueue.Queue, stagingDir string, materialized func(string) bool, logger *slog.Logger) *Ingestor {
	if materialized == nil {
		materialized = func(string) bool { return false }
	}
	return &Ingestor{
		fetcher:      fetcher,
		queue:        queue,
		stagingDir:   stagingDir,
		materialized: materialized,
		logger:       logging.NewComponentLogger(logger, StageName),
	}
}

// Run processes refs in order. A single asset's fetch failure is recorded
// and does not abort the pass; only fatal (configuration-class) fetch
// errors do. After the input is exhausted the end-of-work marker is
// enqueued unconditionally so the consumer always terminates; only run
// cancellation skips the marker, and then the consumer stops on the same
// signal.
func (i *Ingestor) Run(ctx context.Context, refs []sources.Reference) (Report, error) {
	var report Report
	ctx = services.WithStage(ctx, StageName)

	defer func() {
		if err := i.queue.Finish(ctx); err != nil {
			logging.WithContext(ctx, i.logger).Debug("end-of-work not delivered", logging.Error(err))
		}
	}()

	for _, ref := range refs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		assetCtx := services.WithAssetID(ctx, ref.ID)
		logger := logging.WithContext(assetCtx, i.logger)

		localPath := fetch.LocalPath(i.stagingDir, ref.ID)
		if localPath == "" && i.materialized(ref.ID) {
			report.Skipped++
			logger.Debug("asset already materialized; nothing to do")
			continue
		}

		if localPath != "" {
			report.Reused++
			logger.Debug("reusing staged original", logging.String("path", localPath))
		} else {
			fetched, err := i.fetcher.Fetch(assetCtx, ref, i.stagingDir)
			if err != nil {
				if services.IsFatal(err) {
					return report, err
				}
				report.Failures = append(report.Failures, Failure{AssetID: ref.ID, Err: err})
				logger.Warn("fetch failed; continuing with next source", logging.Error(err))
				continue
			}
			report.Fetched++
			localPath = fetched
		}

		item := workqueue.Item{AssetID: ref.ID, SourcePath: localPath}
		if err := i.queue.Enqueue(ctx, item); err != nil {
			return report, err
		}
		logger.Debug("work item enqueued", logging.String("path", localPath))
	}

	return report, nil
}
