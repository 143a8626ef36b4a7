package morph

import (
	"math"
	"strings"
	"testing"
	"time"

	"go-morph-detector/pkg/models"
)

func testReportImage(scale float64) *Image {
	return &Image{
		Width:          512,
		Height:         512,
		OriginalWidth:  int(math.Round(512 / scale)),
		OriginalHeight: int(math.Round(512 / scale)),
		Scale:          scale,
	}
}

func TestBuildReport_RemapsEvidenceToOriginalCoordinates(t *testing.T) {
	in := reportInput{
		image: testReportImage(0.5),
		scores: []SignalScore{{
			Name:   models.SignalNoise,
			Score:  0.8,
			Weight: 1,
			Evidence: []models.PatchEvidence{
				{X: 32, Y: 64, Width: 32, Height: 32, Deviation: 5},
			},
		}},
		composite: 0.8,
		decision:  Decision{Verdict: models.VerdictMorphed, Confidence: 0.5},
		enabled:   1,
		elapsed:   time.Millisecond,
	}

	report := buildReport(in)
	e := report.Signals[0].Evidence[0]
	if e.X != 64 || e.Y != 128 || e.Width != 64 || e.Height != 64 {
		t.Errorf("Expected evidence remapped to (64,128,64,64), got (%d,%d,%d,%d)",
			e.X, e.Y, e.Width, e.Height)
	}
	if e.Deviation != 5 {
		t.Errorf("Expected deviation preserved, got %f", e.Deviation)
	}
}

func TestBuildReport_NoRemapAtUnitScale(t *testing.T) {
	in := reportInput{
		image: testReportImage(1.0),
		scores: []SignalScore{{
			Name:     models.SignalNoise,
			Score:    0.3,
			Weight:   1,
			Evidence: []models.PatchEvidence{{X: 32, Y: 64, Width: 32, Height: 32, Deviation: 4}},
		}},
		composite: 0.3,
		decision:  Decision{Verdict: models.VerdictUncertain, Confidence: 0.2},
		enabled:   1,
		elapsed:   time.Millisecond,
	}

	report := buildReport(in)
	e := report.Signals[0].Evidence[0]
	if e.X != 32 || e.Y != 64 {
		t.Errorf("Expected coordinates untouched at unit scale, got (%d,%d)", e.X, e.Y)
	}
}

func TestBuildReport_ConfidenceDiscountedByFailedSignals(t *testing.T) {
	in := reportInput{
		image: testReportImage(1.0),
		scores: []SignalScore{
			{Name: models.SignalNoise, Score: 0.1, Weight: 0.5},
			{Name: models.SignalEdges, Score: 0.1, Weight: 0.5},
			{Name: models.SignalColor, Score: 0.1, Weight: 0},
		},
		failures: []*ExtractorFailure{
			{Signal: models.SignalLighting, Cause: errTest("degenerate shading geometry")},
			{Signal: models.SignalTexture, Cause: errTest("too coarse")},
			{Signal: models.SignalCompression, Cause: errTest("flat")},
		},
		composite: 0.1,
		decision:  Decision{Verdict: models.VerdictAuthentic, Confidence: 0.9},
		enabled:   6,
		elapsed:   time.Millisecond,
	}

	report := buildReport(in)

	// 3 of 6 enabled signals produced scores.
	want := 0.9 * 3.0 / 6.0
	if math.Abs(report.Confidence-want) > 1e-12 {
		t.Errorf("Expected confidence %f, got %f", want, report.Confidence)
	}
	if len(report.FailedSignals) != 3 {
		t.Fatalf("Expected 3 failed signals, got %d", len(report.FailedSignals))
	}
	if report.FailedSignals[0].Reason != "degenerate shading geometry" {
		t.Errorf("Unexpected failure reason %q", report.FailedSignals[0].Reason)
	}
	if !strings.Contains(report.Explanation, "unavailable signals") {
		t.Errorf("Expected explanation to list unavailable signals, got %q", report.Explanation)
	}
}

func TestBuildExplanation(t *testing.T) {
	signals := []models.SignalScore{
		{Name: models.SignalNoise, Score: 0.7, Weight: 0.4,
			Evidence: []models.PatchEvidence{{}, {}}},
		{Name: models.SignalTexture, Score: 0.5, Weight: 0.3},
		{Name: models.SignalEdges, Score: 0.02, Weight: 0.3},
	}

	text := buildExplanation(models.VerdictMorphed, 0.53, signals, nil)
	if !strings.Contains(text, "verdict morphed") {
		t.Errorf("Expected verdict in explanation, got %q", text)
	}
	if !strings.Contains(text, "noise 0.70 (2 flagged patches)") {
		t.Errorf("Expected strongest signal detail, got %q", text)
	}
	// Signals below the contribution floor are left out.
	if strings.Contains(text, "edges") {
		t.Errorf("Expected weak signal omitted, got %q", text)
	}

	quiet := buildExplanation(models.VerdictAuthentic, 0.01, []models.SignalScore{
		{Name: models.SignalNoise, Score: 0.01, Weight: 1},
	}, nil)
	if !strings.Contains(quiet, "no significant anomalies") {
		t.Errorf("Expected quiet explanation, got %q", quiet)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
