package engine

// #region imports
import (
	"math"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region types

// TransitionClass labels one parent→child step in the lineage DAG.
type TransitionClass string

const (
	TransitionSame     TransitionClass = "same"
	TransitionInverted TransitionClass = "inverted"
	TransitionRebound  TransitionClass = "rebound"
	TransitionDiverged TransitionClass = "diverged"
	TransitionUnknown  TransitionClass = "unknown"
)

// LineageSummary quantifies how much a forecast family's narrative changes
// across refinement.
type LineageSummary struct {
	Transitions map[TransitionClass]int `json:"transitions"`
	AvgDrift    float64                 `json:"avg_symbolic_drift"`
	Edges       int                     `json:"edges"`
}

// #endregion types

// #region lineage

// LineageArcSummary walks an externally built parent→child graph (keyed by
// trace ID), classifies every transition, and accumulates the mean Euclidean
// symbolic drift over shared overlay keys. Forecasts missing from byID are
// counted as unknown transitions with no drift contribution.
func (e *Engine) LineageArcSummary(children map[string][]string, byID map[string]*forecast.Forecast) LineageSummary {
	summary := LineageSummary{
		Transitions: make(map[TransitionClass]int),
	}
	var driftSum float64
	var driftN int

	for parentID, kids := range children {
		parent := byID[parentID]
		for _, childID := range kids {
			child := byID[childID]
			summary.Edges++
			summary.Transitions[classifyTransition(parent, child)]++
			if parent == nil || child == nil {
				continue
			}
			if d, ok := overlayDrift(parent.Overlays, child.Overlays); ok {
				driftSum += d
				driftN++
			}
		}
	}

	if driftN > 0 {
		summary.AvgDrift = driftSum / float64(driftN)
	}
	return summary
}

// classifyTransition labels a single parent→child tag movement.
func classifyTransition(parent, child *forecast.Forecast) TransitionClass {
	if parent == nil || child == nil || parent.SymbolicTag == "" || child.SymbolicTag == "" {
		return TransitionUnknown
	}
	pt, ct := parent.SymbolicTag, child.SymbolicTag
	switch {
	case pt == ct:
		return TransitionSame
	case opposedTags[pt] == ct:
		return TransitionInverted
	case pt != "Neutral" && ct == "Neutral", pt == "Neutral" && ct != "Neutral":
		return TransitionRebound
	default:
		return TransitionDiverged
	}
}

// overlayDrift is the Euclidean distance over shared overlay keys. ok is
// false when the two maps share no keys.
func overlayDrift(a, b map[string]float64) (float64, bool) {
	var sum float64
	shared := 0
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		d := av - bv
		sum += d * d
		shared++
	}
	if shared == 0 {
		return 0, false
	}
	return math.Sqrt(sum), true
}

// #endregion lineage
