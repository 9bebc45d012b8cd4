package evaluation

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"comicflow/internal/services"
	"comicflow/internal/timeline"
)

// ScoreNames lists the sub-scores in report order.
var ScoreNames = []string{"narrative", "consistency", "motion_naturalness", "style_unity", "av_sync"}

var baselineScores = map[string]float64{
	"narrative":          82,
	"consistency":        79,
	"motion_naturalness": 76,
	"style_unity":        80,
	"av_sync":            78,
}

// Scorer produces named sub-scores for a run.
type Scorer interface {
	Score(ctx context.Context, tl timeline.Timeline) (map[string]float64, error)
}

// FixedScorer returns the baseline sub-scores with optional overrides.
type FixedScorer struct {
	Overrides map[string]float64
}

// Score implements Scorer.
func (s FixedScorer) Score(_ context.Context, _ timeline.Timeline) (map[string]float64, error) {
	scores := maps.Clone(baselineScores)
	for name, value := range s.Overrides {
		if _, ok := scores[name]; !ok {
			return nil, services.Wrap(services.ErrConfiguration, "eval", "score", fmt.Sprintf("unknown score %q", name), nil)
		}
		scores[name] = value
	}
	return scores, nil
}

// Total averages scores with equal weight, rounded to two decimals. Scores
// are summed in key order so the result does not depend on map iteration.
func Total(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, name := range slices.Sorted(maps.Keys(scores)) {
		sum += scores[name]
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}
