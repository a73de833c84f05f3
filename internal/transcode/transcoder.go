// Package transcode implements the consumer stage: it drains the work
// queue, renders the full rendition ladder for each asset, and publishes
// the asset's master manifest once every rendition succeeds.
package transcode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"bobbin/internal/config"
	"bobbin/internal/fileutil"
	"bobbin/internal/logging"
	"bobbin/internal/manifest"
	"bobbin/internal/services"
	"bobbin/internal/services/ffmpeg"
	"bobbin/internal/workqueue"
)

// StageName identifies this stage in logs and failure records.
const StageName = "transcode"

// Failure records one abandoned asset. Rendition names the variant whose
// render failed; it is empty when the manifest write itself failed.
type Failure struct {
	AssetID   string
	Rendition string
	Err       error
}

// Report summarizes a completed transcoding pass. It is only read after the
// stage has terminated.
type Report struct {
	Transcoded int
	Skipped    int
	Failures   []Failure
}

// Transcoder drives the render side of the pipeline.
type Transcoder struct {
	client    ffmpeg.Transcoder
	queue     *workqueue.Queue
	outputDir string
	ladder    []ffmpeg.Rendition
	logger    *slog.Logger
}

// New constructs a transcoder rendering the given ladder under outputDir.
func New(client ffmpeg.Transcoder, queue *workqueue.Queue, outputDir string, ladder []ffmpeg.Rendition, logger *slog.Logger) *Transcoder {
	return &Transcoder{
		client:    client,
		queue:     queue,
		outputDir: outputDir,
		ladder:    ladder,
		logger:    logging.NewComponentLogger(logger, StageName),
	}
}

// Ladder converts the configured rendition ladder into render parameters.
func Ladder(renditions []config.Rendition) []ffmpeg.Rendition {
	out := make([]ffmpeg.Rendition, 0, len(renditions))
	for _, r := range renditions {
		out = append(out, ffmpeg.Rendition{
			Width:       r.Width,
			Height:      r.Height,
			BitrateKbps: r.BitrateKbps,
		})
	}
	return out
}

// Materialized reports whether the asset already has a published master
// manifest under outputDir. Partial rendition output without a manifest does
// not count; such assets are rendered again from scratch.
func Materialized(outputDir, assetID string) bool {
	return fileutil.PathExists(filepath.Join(outputDir, assetID, manifest.FileName))
}

// Run drains the queue until the end-of-work marker arrives. One asset's
// render failure abandons that asset and continues with the next; the
// manifest is written only after every rendition in the ladder succeeds.
func (t *Transcoder) Run(ctx context.Context) (Report, error) {
	var report Report
	ctx = services.WithStage(ctx, StageName)

	for {
		item, ok, err := t.queue.Dequeue(ctx)
		if err != nil {
			return report, err
		}
		if !ok {
			return report, nil
		}

		assetCtx := services.WithAssetID(ctx, item.AssetID)
		logger := logging.WithContext(assetCtx, t.logger)
		if Materialized(t.outputDir, item.AssetID) {
			report.Skipped++
			logger.Debug("asset already materialized")
			continue
		}

		if failure, failed := t.process(assetCtx, item); failed {
			report.Failures = append(report.Failures, failure)
			logger.Warn("asset abandoned; continuing with next item",
				logging.String(logging.FieldRendition, failure.Rendition),
				logging.Error(failure.Err),
			)
			continue
		}
		report.Transcoded++
	}
}

// process renders every rendition for one asset and publishes its manifest.
func (t *Transcoder) process(ctx context.Context, item workqueue.Item) (Failure, bool) {
	logger := logging.WithContext(ctx, t.logger)
	assetDir := filepath.Join(t.outputDir, item.AssetID)
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return Failure{AssetID: item.AssetID, Err: err}, true
	}

	for _, rendition := range t.ladder {
		logger.Info("rendering",
			logging.String(logging.FieldRendition, rendition.Resolution()),
		)
		if err := t.client.Transcode(ctx, item.SourcePath, assetDir, rendition); err != nil {
			return Failure{
				AssetID:   item.AssetID,
				Rendition: rendition.Resolution(),
				Err:       err,
			}, true
		}
	}

	entries := make([]manifest.Entry, 0, len(t.ladder))
	for _, rendition := range t.ladder {
		entries = append(entries, manifest.Entry{
			Bandwidth:  rendition.Bandwidth(),
			Resolution: rendition.Resolution(),
			URI:        rendition.IndexPath(),
		})
	}
	if err := manifest.Write(filepath.Join(assetDir, manifest.FileName), entries); err != nil {
		return Failure{AssetID: item.AssetID, Err: err}, true
	}

	logger.Info("asset materialized", logging.Int("renditions", len(t.ladder)))
	return Failure{}, false
}
