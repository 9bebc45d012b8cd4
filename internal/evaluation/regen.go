package evaluation

import (
	"fmt"
	"strings"

	"comicflow/internal/services"
	"comicflow/internal/timeline"
)

// Regeneration policy names accepted in eval.regen_policy.
const (
	PolicyFirstShot = "first_shot"
	PolicyAllShots  = "all_shots"
	PolicyNone      = "none"
)

// RegenSelector picks shots to regenerate when the run scores below threshold.
type RegenSelector interface {
	Select(tl timeline.Timeline, scores map[string]float64) []string
}

// SelectorFunc adapts a function to RegenSelector.
type SelectorFunc func(tl timeline.Timeline, scores map[string]float64) []string

// Select implements RegenSelector.
func (f SelectorFunc) Select(tl timeline.Timeline, scores map[string]float64) []string {
	return f(tl, scores)
}

// FirstShot queues the first shot in the timeline.
var FirstShot = SelectorFunc(func(tl timeline.Timeline, _ map[string]float64) []string {
	if len(tl.Shots) == 0 {
		return []string{}
	}
	return []string{tl.Shots[0].ShotID}
})

// AllShots queues every shot in timeline order.
var AllShots = SelectorFunc(func(tl timeline.Timeline, _ map[string]float64) []string {
	return tl.ShotIDs()
})

// NoShots never queues anything.
var NoShots = SelectorFunc(func(timeline.Timeline, map[string]float64) []string {
	return []string{}
})

// SelectorForPolicy maps a policy name to its selector.
func SelectorForPolicy(policy string) (RegenSelector, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", PolicyFirstShot:
		return FirstShot, nil
	case PolicyAllShots:
		return AllShots, nil
	case PolicyNone:
		return NoShots, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "eval", "select regen policy",
			fmt.Sprintf("unsupported regen_policy %q", policy), nil)
	}
}
