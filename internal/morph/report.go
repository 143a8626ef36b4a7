package morph

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-morph-detector/pkg/models"
)

// reportInput collects everything the report builder needs. Assembly is a
// pure function of this input plus the generated ID and timestamp.
type reportInput struct {
	imageURL  string
	image     *Image
	scores    []SignalScore
	failures  []*ExtractorFailure
	composite float64
	decision  Decision
	enabled   int
	elapsed   time.Duration
}

// buildReport assembles the immutable MorphReport. Evidence coordinates are
// mapped back to original-image space using the preprocessor's scale factor,
// and confidence is discounted when signals were unavailable.
func buildReport(in reportInput) *models.MorphReport {
	signals := make([]models.SignalScore, len(in.scores))
	for i, s := range in.scores {
		signals[i] = remapEvidence(s, in.image.Scale)
	}

	failed := make([]models.FailedSignal, 0, len(in.failures))
	for _, f := range in.failures {
		failed = append(failed, models.FailedSignal{Name: f.Signal, Reason: f.Cause.Error()})
	}

	confidence := in.decision.Confidence
	if in.enabled > 0 {
		confidence = clamp01(confidence * float64(len(in.scores)) / float64(in.enabled))
	}

	return &models.MorphReport{
		ID:                uuid.NewString(),
		ImageURL:          in.imageURL,
		Timestamp:         time.Now().UTC(),
		ProcessingTimeSec: in.elapsed.Seconds(),
		ImageWidth:        in.image.OriginalWidth,
		ImageHeight:       in.image.OriginalHeight,
		Signals:           signals,
		FailedSignals:     failed,
		CompositeScore:    in.composite,
		Verdict:           in.decision.Verdict,
		Confidence:        confidence,
		Explanation:       buildExplanation(in.decision.Verdict, in.composite, signals, failed),
	}
}

func remapEvidence(s models.SignalScore, scale float64) models.SignalScore {
	if scale == 1.0 || len(s.Evidence) == 0 {
		return s
	}
	mapped := make([]models.PatchEvidence, len(s.Evidence))
	for i, e := range s.Evidence {
		mapped[i] = models.PatchEvidence{
			X:         int(math.Round(float64(e.X) / scale)),
			Y:         int(math.Round(float64(e.Y) / scale)),
			Width:     int(math.Round(float64(e.Width) / scale)),
			Height:    int(math.Round(float64(e.Height) / scale)),
			Deviation: e.Deviation,
		}
	}
	s.Evidence = mapped
	return s
}

func buildExplanation(verdict models.Verdict, composite float64, signals []models.SignalScore, failed []models.FailedSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "verdict %s (composite score %.2f)", verdict, composite)

	contributors := make([]models.SignalScore, 0, len(signals))
	for _, s := range signals {
		if s.Score > 0.05 {
			contributors = append(contributors, s)
		}
	}
	sort.Slice(contributors, func(i, j int) bool {
		wi, wj := contributors[i].Weight*contributors[i].Score, contributors[j].Weight*contributors[j].Score
		if wi != wj {
			return wi > wj
		}
		return contributors[i].Name < contributors[j].Name
	})
	if len(contributors) > 3 {
		contributors = contributors[:3]
	}

	if len(contributors) == 0 {
		fmt.Fprintf(&b, "; no significant anomalies across %d signals", len(signals))
	} else {
		b.WriteString("; strongest signals:")
		for i, s := range contributors {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s %.2f (%d flagged patches)", s.Name, s.Score, len(s.Evidence))
		}
	}

	if len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = f.Name
		}
		fmt.Fprintf(&b, "; unavailable signals: %s", strings.Join(names, ", "))
	}
	return b.String()
}
