package morph

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-morph-detector/internal/logger"
	"go-morph-detector/pkg/models"
)

// Engine runs the full morph-detection pipeline for one request: preprocess,
// concurrent signal extraction, aggregation, decision, report assembly.
// Engines hold no per-request state and are safe for concurrent use.
type Engine interface {
	AnalyzeImage(ctx context.Context, src image.Image, cfg AnalysisConfig) (*models.MorphReport, error)
	AnalyzeBytes(ctx context.Context, data []byte, cfg AnalysisConfig) (*models.MorphReport, error)
}

type engine struct {
	extractors []Extractor
}

// NewEngine creates an engine with the six standard signal extractors.
func NewEngine() Engine {
	return &engine{
		extractors: []Extractor{
			NewCompressionAnalyzer(),
			NewNoiseAnalyzer(),
			NewEdgeAnalyzer(),
			NewLightingAnalyzer(),
			NewColorAnalyzer(),
			NewTextureAnalyzer(),
		},
	}
}

// AnalyzeBytes decodes raw image bytes and analyzes them.
func (e *engine) AnalyzeBytes(ctx context.Context, data []byte, cfg AnalysisConfig) (*models.MorphReport, error) {
	src, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return e.AnalyzeImage(ctx, src, cfg)
}

// AnalyzeImage runs the pipeline over a decoded image.
func (e *engine) AnalyzeImage(ctx context.Context, src image.Image, cfg AnalysisConfig) (*models.MorphReport, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	img, grid, err := Preprocess(src, cfg)
	if err != nil {
		return nil, err
	}

	enabled := make([]Extractor, 0, len(e.extractors))
	for _, ex := range e.extractors {
		if cfg.SignalEnabled(ex.Name()) {
			enabled = append(enabled, ex)
		}
	}

	// Fan-out over the shared read-only buffer. Extractor failures are
	// captured in place; only cancellation aborts the whole group.
	type outcome struct {
		score   *SignalScore
		failure *ExtractorFailure
	}
	outcomes := make([]outcome, len(enabled))

	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range enabled {
		i, ex := i, ex
		g.Go(func() error {
			score, err := runExtractor(gctx, ex, img, grid, cfg)
			if err != nil {
				var ef *ExtractorFailure
				if errors.As(err, &ef) {
					logger.WithSignal(ex.Name()).WithError(ef.Cause).Warn("Signal extractor failed")
					outcomes[i] = outcome{failure: ef}
					return nil
				}
				return err
			}
			outcomes[i] = outcome{score: &score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]SignalScore, 0, len(enabled))
	failures := make([]*ExtractorFailure, 0)
	for _, o := range outcomes {
		switch {
		case o.score != nil:
			scores = append(scores, *o.score)
		case o.failure != nil:
			failures = append(failures, o.failure)
		}
	}

	composite, weighted, err := Aggregate(scores, cfg.Weights)
	if err != nil {
		return nil, err
	}
	decision := Decide(composite, cfg)

	report := buildReport(reportInput{
		image:     img,
		scores:    weighted,
		failures:  failures,
		composite: composite,
		decision:  decision,
		enabled:   len(enabled),
		elapsed:   time.Since(start),
	})

	logger.WithFields(logrus.Fields{
		"composite":      report.CompositeScore,
		"verdict":        report.Verdict,
		"confidence":     report.Confidence,
		"failed_signals": len(report.FailedSignals),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	}).Debug("Morph analysis completed")

	return report, nil
}

// runExtractor bounds one extractor invocation by the per-signal timeout. A
// timed-out extractor is treated as a failed signal; its late result, if
// any, is discarded. Context cancellation propagates as a request abort.
func runExtractor(ctx context.Context, ex Extractor, img *Image, grid *Grid, cfg AnalysisConfig) (SignalScore, error) {
	type result struct {
		score SignalScore
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		score, err := ex.Extract(img, grid, cfg)
		ch <- result{score: score, err: err}
	}()

	timer := time.NewTimer(cfg.SignalTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.score, r.err
	case <-timer.C:
		return SignalScore{}, &ExtractorFailure{
			Signal: ex.Name(),
			Cause:  fmt.Errorf("timed out after %s", cfg.SignalTimeout),
		}
	case <-ctx.Done():
		return SignalScore{}, ctx.Err()
	}
}
