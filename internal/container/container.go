package container

import (
	"fmt"
	"net/http"

	"go-morph-detector/internal/config"
	"go-morph-detector/internal/factory"
	"go-morph-detector/internal/logger"
	"go-morph-detector/internal/morph"
	"go-morph-detector/internal/observer"
	"go-morph-detector/internal/repository"
	"go-morph-detector/internal/service"
	"go-morph-detector/internal/storage"
	"go-morph-detector/internal/transport"
)

// Container holds all application dependencies.
type Container struct {
	config       *config.Config
	imageFetcher storage.ImageFetcher
	engine       morph.Engine
	imageRepo    repository.ImageRepository
	morphService service.MorphAnalysisService
	metrics      *observer.MetricsObserver
	handler      http.Handler
}

// NewContainer builds the dependency graph from configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	imageFetcher, err := factory.NewImageFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}

	engine := morph.NewEngine()
	imageRepo := repository.NewImageRepository(imageFetcher)

	metrics := observer.NewMetricsObserver()
	events := observer.NewPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	morphService := service.NewMorphAnalysisService(imageRepo, engine, events)
	handler := transport.NewHandler(morphService, metrics, cfg)

	return &Container{
		config:       cfg,
		imageFetcher: imageFetcher,
		engine:       engine,
		imageRepo:    imageRepo,
		morphService: morphService,
		metrics:      metrics,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
