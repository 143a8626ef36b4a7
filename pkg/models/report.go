package models

import "time"

// Verdict is the discrete classification derived from the composite score.
type Verdict string

const (
	VerdictAuthentic Verdict = "authentic"
	VerdictUncertain Verdict = "uncertain"
	VerdictMorphed   Verdict = "morphed"
)

// Signal names as they appear in reports and weight maps.
const (
	SignalCompression = "compression"
	SignalNoise       = "noise"
	SignalEdges       = "edges"
	SignalLighting    = "lighting"
	SignalColor       = "color"
	SignalTexture     = "texture"
)

// AllSignals lists every signal name in report order.
func AllSignals() []string {
	return []string{
		SignalCompression,
		SignalNoise,
		SignalEdges,
		SignalLighting,
		SignalColor,
		SignalTexture,
	}
}

// PatchEvidence pinpoints one flagged patch in original-image coordinates,
// together with the deviation magnitude that got it flagged.
type PatchEvidence struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Deviation float64 `json:"deviation"`
}

// SignalScore is the outcome of a single extractor for one request.
// Score is the normalized value in [0,1]; Raw keeps the underlying statistic
// for inspection. Evidence is sorted by deviation descending and capped.
type SignalScore struct {
	Name     string          `json:"name"`
	Raw      float64         `json:"raw"`
	Score    float64         `json:"score"`
	Weight   float64         `json:"weight"`
	Evidence []PatchEvidence `json:"evidence,omitempty"`
}

// FailedSignal marks an extractor that produced no usable score.
type FailedSignal struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// MorphReport is the sole externally visible artifact of the engine.
// It is immutable once built; CompositeScore is a deterministic function of
// Signals and the active weight map.
type MorphReport struct {
	ID                string         `json:"id"`
	ImageURL          string         `json:"image_url,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
	ProcessingTimeSec float64        `json:"processing_time_sec"`
	ImageWidth        int            `json:"image_width"`
	ImageHeight       int            `json:"image_height"`
	Signals           []SignalScore  `json:"signals"`
	FailedSignals     []FailedSignal `json:"failed_signals,omitempty"`
	CompositeScore    float64        `json:"composite_score"`
	Verdict           Verdict        `json:"verdict"`
	Confidence        float64        `json:"confidence"`
	Explanation       string         `json:"explanation"`
}

// Degraded reports true when at least one enabled signal failed.
func (r *MorphReport) Degraded() bool {
	return len(r.FailedSignals) > 0
}
