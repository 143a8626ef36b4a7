package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-morph-detector/internal/config"
	apperrors "go-morph-detector/internal/errors"
	"go-morph-detector/internal/morph"
	"go-morph-detector/internal/observer"
	"go-morph-detector/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	report  *models.MorphReport
	err     error
	lastURL string
	lastCfg morph.AnalysisConfig
}

func (s *stubService) AnalyzeImageURL(ctx context.Context, imageURL string, cfg morph.AnalysisConfig) (*models.MorphReport, error) {
	s.lastURL = imageURL
	s.lastCfg = cfg
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubService) ValidateImageURL(imageURL string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  5 * time.Second,
		SignalTimeout:      5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		StorageBackend:     "http",
		PatchSize:          32,
		MaxDimension:       1024,
		LowThreshold:       0.25,
		HighThreshold:      0.6,
	}
}

func sampleReport() *models.MorphReport {
	return &models.MorphReport{
		ID:             uuid.NewString(),
		ImageURL:       "https://example.com/face.jpg",
		Timestamp:      time.Now().UTC(),
		ImageWidth:     640,
		ImageHeight:    480,
		CompositeScore: 0.12,
		Verdict:        models.VerdictAuthentic,
		Confidence:     0.52,
		Explanation:    "verdict authentic (composite score 0.12); no significant anomalies across 6 signals",
	}
}

func postAnalyze(t *testing.T, handler http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEndpoint_Success(t *testing.T) {
	svc := &stubService{report: sampleReport()}
	handler := NewHandler(svc, observer.NewMetricsObserver(), testConfig())

	w := postAnalyze(t, handler, AnalyzeRequest{URL: "https://example.com/face.jpg"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var report models.MorphReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.Verdict != models.VerdictAuthentic {
		t.Errorf("Expected authentic verdict, got %s", report.Verdict)
	}
	if svc.lastURL != "https://example.com/face.jpg" {
		t.Errorf("Unexpected URL passed to service: %q", svc.lastURL)
	}
	// Server defaults flow into the analysis config.
	if svc.lastCfg.PatchSize != 32 || svc.lastCfg.LowThreshold != 0.25 {
		t.Errorf("Expected server defaults in analysis config, got %+v", svc.lastCfg)
	}
}

func TestAnalyzeEndpoint_Overrides(t *testing.T) {
	svc := &stubService{report: sampleReport()}
	handler := NewHandler(svc, nil, testConfig())

	patch := 64
	low := 0.1
	w := postAnalyze(t, handler, AnalyzeRequest{
		URL:            "https://example.com/face.jpg",
		PatchSize:      &patch,
		LowThreshold:   &low,
		Weights:        map[string]float64{models.SignalNoise: 0.5},
		DisableSignals: []string{models.SignalTexture},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if svc.lastCfg.PatchSize != 64 {
		t.Errorf("Expected patch size override 64, got %d", svc.lastCfg.PatchSize)
	}
	if svc.lastCfg.LowThreshold != 0.1 {
		t.Errorf("Expected low threshold override 0.1, got %f", svc.lastCfg.LowThreshold)
	}
	if svc.lastCfg.HighThreshold != 0.6 {
		t.Errorf("Expected high threshold untouched, got %f", svc.lastCfg.HighThreshold)
	}
	if svc.lastCfg.Weights[models.SignalNoise] != 0.5 {
		t.Errorf("Expected noise weight override, got %f", svc.lastCfg.Weights[models.SignalNoise])
	}
	// Untouched weights survive a partial override.
	if svc.lastCfg.Weights[models.SignalEdges] != 0.15 {
		t.Errorf("Expected default edges weight, got %f", svc.lastCfg.Weights[models.SignalEdges])
	}
	if svc.lastCfg.SignalEnabled(models.SignalTexture) {
		t.Error("Expected texture disabled")
	}
}

func TestAnalyzeEndpoint_BadRequests(t *testing.T) {
	svc := &stubService{report: sampleReport()}
	handler := NewHandler(svc, nil, testConfig())

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing URL", map[string]string{}},
		{"malformed URL", map[string]string{"url": "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postAnalyze(t, handler, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestAnalyzeEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", apperrors.NewValidationError("bad URL", nil), http.StatusBadRequest},
		{"invalid image", apperrors.NewInvalidImageError("too small", nil), http.StatusBadRequest},
		{"insufficient signals", apperrors.NewInsufficientSignalsError("all failed", nil), http.StatusUnprocessableEntity},
		{"network error", apperrors.NewNetworkError("unreachable", nil), http.StatusBadGateway},
		{"timeout", apperrors.NewTimeoutError("too slow", nil), http.StatusGatewayTimeout},
		{"context deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&stubService{err: tt.err}, nil, testConfig())
			w := postAnalyze(t, handler, AnalyzeRequest{URL: "https://example.com/face.jpg"})
			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHandler(&stubService{report: sampleReport()}, nil, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "available" {
		t.Errorf("Unexpected status %v", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	metrics.OnEvent(context.Background(), observer.AnalysisEvent{EventType: observer.AnalysisStarted})
	handler := NewHandler(&stubService{report: sampleReport()}, metrics, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["analyses_started"] != float64(1) {
		t.Errorf("Expected 1 started analysis, got %v", body["analyses_started"])
	}
}
