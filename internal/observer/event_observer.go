package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-morph-detector/pkg/models"
)

// EventType represents the lifecycle stage of a morph analysis.
type EventType string

const (
	AnalysisStarted   EventType = "analysis_started"
	AnalysisCompleted EventType = "analysis_completed"
	AnalysisFailed    EventType = "analysis_failed"
)

// AnalysisEvent describes one analysis lifecycle transition.
type AnalysisEvent struct {
	EventType      EventType      `json:"event_type"`
	Timestamp      time.Time      `json:"timestamp"`
	ImageURL       string         `json:"image_url"`
	ProcessingTime time.Duration  `json:"processing_time"`
	Verdict        models.Verdict `json:"verdict,omitempty"`
	CompositeScore float64        `json:"composite_score,omitempty"`
	Degraded       bool           `json:"degraded,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
}

// Observer consumes analysis events.
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	Name() string
}

// Publisher fans analysis events out to subscribed observers.
type Publisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewPublisher creates an empty event publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe adds an observer.
func (p *Publisher) Subscribe(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// Publish notifies all observers. Observer panics are contained so a broken
// observer cannot take down the request path.
func (p *Publisher) Publish(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, o := range observers {
		func(o Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", o.Name()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			o.OnEvent(ctx, event)
		}(o)
	}
}

// LoggingObserver logs analysis events through logrus.
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a logging observer.
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"image_url":       event.ImageURL,
		"processing_time": event.ProcessingTime,
	}
	switch event.EventType {
	case AnalysisStarted:
		o.logger.WithFields(fields).Info("Morph analysis started")
	case AnalysisCompleted:
		fields["verdict"] = event.Verdict
		fields["composite_score"] = event.CompositeScore
		fields["degraded"] = event.Degraded
		o.logger.WithFields(fields).Info("Morph analysis completed")
	case AnalysisFailed:
		fields["error"] = event.ErrorMessage
		o.logger.WithFields(fields).Error("Morph analysis failed")
	default:
		o.logger.WithFields(fields).Info("Analysis event occurred")
	}
}

func (o *LoggingObserver) Name() string {
	return "logging_observer"
}

// MetricsObserver counts analysis outcomes.
type MetricsObserver struct {
	mu        sync.RWMutex
	started   int64
	completed int64
	failed    int64
	degraded  int64
	totalTime time.Duration
}

// NewMetricsObserver creates a metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.started++
	case AnalysisCompleted:
		o.completed++
		o.totalTime += event.ProcessingTime
		if event.Degraded {
			o.degraded++
		}
	case AnalysisFailed:
		o.failed++
	}
}

func (o *MetricsObserver) Name() string {
	return "metrics_observer"
}

// Metrics returns a snapshot of the collected counters.
func (o *MetricsObserver) Metrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avg := time.Duration(0)
	if o.completed > 0 {
		avg = o.totalTime / time.Duration(o.completed)
	}
	return map[string]interface{}{
		"analyses_started":    o.started,
		"analyses_completed":  o.completed,
		"analyses_failed":     o.failed,
		"analyses_degraded":   o.degraded,
		"avg_processing_time": avg,
	}
}
