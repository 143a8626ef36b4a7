package service

import (
	"context"
	"time"

	apperrors "go-morph-detector/internal/errors"
	"go-morph-detector/internal/morph"
	"go-morph-detector/internal/observer"
	"go-morph-detector/internal/repository"
	"go-morph-detector/pkg/models"
)

// MorphAnalysisService orchestrates one analysis request: URL validation,
// image fetch, engine invocation, event publication.
type MorphAnalysisService interface {
	// AnalyzeImageURL fetches the image behind the URL and runs the morph
	// detection pipeline with the given configuration.
	AnalyzeImageURL(ctx context.Context, imageURL string, cfg morph.AnalysisConfig) (*models.MorphReport, error)

	// ValidateImageURL checks a URL without fetching it.
	ValidateImageURL(imageURL string) error
}

type morphAnalysisService struct {
	imageRepo repository.ImageRepository
	engine    morph.Engine
	events    *observer.Publisher
}

// NewMorphAnalysisService creates the analysis service.
func NewMorphAnalysisService(repo repository.ImageRepository, engine morph.Engine, events *observer.Publisher) MorphAnalysisService {
	return &morphAnalysisService{
		imageRepo: repo,
		engine:    engine,
		events:    events,
	}
}

func (s *morphAnalysisService) AnalyzeImageURL(ctx context.Context, imageURL string, cfg morph.AnalysisConfig) (*models.MorphReport, error) {
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Timestamp: start,
		ImageURL:  imageURL,
	})

	if err := s.imageRepo.ValidateImageURL(imageURL); err != nil {
		s.publishFailure(ctx, imageURL, start, err)
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	img, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		s.publishFailure(ctx, imageURL, start, err)
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("image fetch aborted", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}

	report, err := s.engine.AnalyzeImage(ctx, img, cfg)
	if err != nil {
		s.publishFailure(ctx, imageURL, start, err)
		return nil, err
	}
	report.ImageURL = imageURL

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Timestamp:      time.Now(),
		ImageURL:       imageURL,
		ProcessingTime: time.Since(start),
		Verdict:        report.Verdict,
		CompositeScore: report.CompositeScore,
		Degraded:       report.Degraded(),
	})
	return report, nil
}

func (s *morphAnalysisService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}

func (s *morphAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events != nil {
		s.events.Publish(ctx, event)
	}
}

func (s *morphAnalysisService) publishFailure(ctx context.Context, imageURL string, start time.Time, err error) {
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		Timestamp:      time.Now(),
		ImageURL:       imageURL,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}
