package morph

import (
	"math"
	"testing"

	apperrors "go-morph-detector/internal/errors"
	"go-morph-detector/pkg/models"
)

func TestAggregate_NoScores(t *testing.T) {
	_, _, err := Aggregate(nil, DefaultConfig().Weights)
	if err == nil {
		t.Fatal("Expected error when no signal succeeded")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInsufficientSignals) {
		t.Errorf("Expected insufficient_signals error, got %v", err)
	}
}

func TestAggregate_ZeroTotalWeight(t *testing.T) {
	scores := []SignalScore{{Name: models.SignalNoise, Score: 0.9}}
	_, _, err := Aggregate(scores, map[string]float64{models.SignalNoise: 0})
	if err == nil {
		t.Fatal("Expected error when succeeding signals carry no weight")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeInsufficientSignals) {
		t.Errorf("Expected insufficient_signals error, got %v", err)
	}
}

func TestAggregate_SingleSignal(t *testing.T) {
	scores := []SignalScore{{Name: models.SignalTexture, Score: 0.42}}
	composite, weighted, err := Aggregate(scores, DefaultConfig().Weights)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	// The only succeeding signal absorbs the full weight.
	if math.Abs(composite-0.42) > 1e-12 {
		t.Errorf("Expected composite 0.42, got %f", composite)
	}
	if math.Abs(weighted[0].Weight-1.0) > 1e-12 {
		t.Errorf("Expected renormalized weight 1.0, got %f", weighted[0].Weight)
	}
}

func TestAggregate_Reweighting(t *testing.T) {
	// Noise failed; compression and edges split its weight proportionally.
	scores := []SignalScore{
		{Name: models.SignalCompression, Score: 0.5},
		{Name: models.SignalEdges, Score: 0.1},
	}
	weights := map[string]float64{
		models.SignalCompression: 0.20,
		models.SignalNoise:       0.20,
		models.SignalEdges:       0.15,
	}

	composite, weighted, err := Aggregate(scores, weights)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	// 0.20/0.35 and 0.15/0.35 after renormalization.
	wantCompression := 0.20 / 0.35
	wantEdges := 0.15 / 0.35
	if math.Abs(weighted[0].Weight-wantCompression) > 1e-12 {
		t.Errorf("Expected compression weight %f, got %f", wantCompression, weighted[0].Weight)
	}
	if math.Abs(weighted[1].Weight-wantEdges) > 1e-12 {
		t.Errorf("Expected edges weight %f, got %f", wantEdges, weighted[1].Weight)
	}

	want := wantCompression*0.5 + wantEdges*0.1
	if math.Abs(composite-want) > 1e-12 {
		t.Errorf("Expected composite %f, got %f", want, composite)
	}

	// The relative influence of the survivors is preserved.
	if math.Abs(weighted[0].Weight/weighted[1].Weight-0.20/0.15) > 1e-12 {
		t.Error("Renormalization changed the relative weight ratio")
	}
}

func TestAggregate_WeightsSumToOne(t *testing.T) {
	scores := []SignalScore{
		{Name: models.SignalCompression, Score: 0.3},
		{Name: models.SignalLighting, Score: 0.7},
		{Name: models.SignalColor, Score: 0.0},
	}
	_, weighted, err := Aggregate(scores, DefaultConfig().Weights)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	var total float64
	for _, s := range weighted {
		total += s.Weight
	}
	if math.Abs(total-1.0) > 1e-12 {
		t.Errorf("Expected applied weights to sum to 1, got %f", total)
	}
}

func TestAggregate_CompositeStaysInRange(t *testing.T) {
	scores := []SignalScore{
		{Name: models.SignalCompression, Score: 1.0},
		{Name: models.SignalNoise, Score: 1.0},
	}
	composite, _, err := Aggregate(scores, DefaultConfig().Weights)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if composite < 0 || composite > 1 {
		t.Errorf("Composite %f out of [0,1]", composite)
	}
}
