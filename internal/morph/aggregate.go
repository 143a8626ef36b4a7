package morph

import (
	apperrors "go-morph-detector/internal/errors"
)

// Aggregate combines the succeeding signal scores into the composite score.
// Only the weights of succeeding signals are used, renormalized so they sum
// to 1; a signal's relative influence is preserved even when others are
// missing. The returned scores carry their final applied weights.
func Aggregate(scores []SignalScore, weights map[string]float64) (float64, []SignalScore, error) {
	if len(scores) == 0 {
		return 0, nil, apperrors.NewInsufficientSignalsError("no signal produced a usable score", nil)
	}

	var total float64
	for _, s := range scores {
		total += weights[s.Name]
	}
	if total <= 0 {
		return 0, nil, apperrors.NewInsufficientSignalsError("succeeding signals carry zero total weight", nil)
	}

	weighted := make([]SignalScore, len(scores))
	var composite float64
	for i, s := range scores {
		s.Weight = weights[s.Name] / total
		weighted[i] = s
		composite += s.Weight * s.Score
	}
	return clamp01(composite), weighted, nil
}
