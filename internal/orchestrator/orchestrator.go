// File: internal/orchestrator/orchestrator.go
// Description: Manages the high-level lifecycle of one triage run. It is
// injected with a detector runner and a model loader via interfaces and
// constructors, keeping it decoupled and testable.

package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/intellisa/iacsec/api/schemas"
	"github.com/intellisa/iacsec/internal/config"
	"github.com/intellisa/iacsec/internal/policy"
	"github.com/intellisa/iacsec/internal/postfilter"
	"github.com/intellisa/iacsec/internal/reporting"
	"github.com/intellisa/iacsec/internal/triage"
)

// Orchestrator runs the detect → triage → score → export pipeline.
type Orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	detector schemas.DetectorRunner
	loader   *postfilter.Loader
}

// Summary is the outcome of one pipeline run, consumed by the CLI for the
// exit decision.
type Summary struct {
	Detections  []schemas.Detection
	Predictions []schemas.Prediction
	Blocking    []schemas.Pair
	Threshold   float64
	Model       postfilter.ModelHandle
}

// New creates an Orchestrator with its dependencies provided up front.
func New(cfg *config.Config, logger *zap.Logger, detector schemas.DetectorRunner, loader *postfilter.Loader) (*Orchestrator, error) {
	if cfg == nil || logger == nil || detector == nil || loader == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		detector: detector,
		loader:   loader,
	}, nil
}

// Run executes the full triage workflow for one invocation.
func (o *Orchestrator) Run(ctx context.Context, scanID string) (*Summary, error) {
	scan := o.cfg.Scan

	o.logger.Info("Orchestrator starting triage run",
		zap.String("scanID", scanID),
		zap.String("path", scan.Path),
		zap.String("tech", scan.Tech),
		zap.Strings("formats", scan.Formats),
	)

	// 1. Detector. Failures here are opaque and fatal.
	raw, err := o.detector.Run(ctx, scan.Path, schemas.Tech(scan.Tech))
	if err != nil {
		return nil, err
	}

	// 2. Triage split.
	categoryA, acceptedPreds, categoryB := triage.Split(raw)
	o.logger.Info("Detector returned detections",
		zap.Int("total", len(raw)),
		zap.Int("accepted", len(categoryA)),
		zap.Int("postfilter", len(categoryB)),
	)

	// 3. Model lifecycle. Cache resolution completes once, before any scoring,
	// and the handle is immutable from here on.
	handle, err := o.loader.Load(scan.Postfilter)
	if err != nil {
		return nil, err
	}
	threshold := postfilter.EffectiveThreshold(handle, scan.Threshold, scan.ThresholdSet)

	// 4. Score category B on the worker pool.
	scoredPreds, err := postfilter.Predict(ctx, categoryB, scan.Path, handle, threshold, o.cfg.Engine.WorkerConcurrency)
	if err != nil {
		return nil, err
	}

	detections, predictions := triage.Merge(categoryA, acceptedPreds, categoryB, scoredPreds)

	tpCount := 0
	for _, pred := range predictions {
		if pred.Label == schemas.LabelTP {
			tpCount++
		}
	}
	o.logger.Info("Post-filter complete",
		zap.Float64("threshold", threshold),
		zap.Int("tp", tpCount),
		zap.Int("fp", len(predictions)-tpCount),
	)

	// 5. Export.
	if err := o.export(detections, predictions, handle, threshold); err != nil {
		return nil, err
	}

	// 6. Blocking decision.
	pairs := schemas.Zip(detections, predictions)
	blocking := policy.Blocking(pairs, scan.FailOnHigh)

	return &Summary{
		Detections:  detections,
		Predictions: predictions,
		Blocking:    blocking,
		Threshold:   threshold,
		Model:       handle,
	}, nil
}

// export renders every requested format. Exporters are independent and never
// share a destination, so they run concurrently.
func (o *Orchestrator) export(detections []schemas.Detection, predictions []schemas.Prediction, handle postfilter.ModelHandle, threshold float64) error {
	scan := o.cfg.Scan

	report := &reporting.Report{
		Detections:   detections,
		Predictions:  predictions,
		Threshold:    threshold,
		ModelName:    handle.Name,
		ModelVersion: handle.Version,
		ScanRoot:     scan.Path,
		Tech:         schemas.Tech(scan.Tech),
	}

	var g errgroup.Group
	for _, format := range scan.Formats {
		format := format
		path := reporting.OutputPath(scan.Out, format, len(scan.Formats) == 1)
		g.Go(func() error {
			reporter, err := reporting.New(format, path, o.logger)
			if err != nil {
				return err
			}
			if err := reporter.Write(report); err != nil {
				reporter.Close()
				return fmt.Errorf("failed to write %s report: %w", format, err)
			}
			if err := reporter.Close(); err != nil {
				return fmt.Errorf("failed to finalize %s report: %w", format, err)
			}
			if format != reporting.FormatTable {
				o.logger.Info("Report written", zap.String("format", format), zap.String("path", path))
			}
			return nil
		})
	}
	return g.Wait()
}
