package align

// #region imports
import (
	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region scorer

// Scorer computes the composite 0-100 alignment index.
type Scorer struct {
	cfg config.Align
}

// New creates a scorer from the align section of the pipeline config.
func New(cfg config.Align) *Scorer {
	return &Scorer{cfg: cfg}
}

// Result is the alignment index plus its per-component breakdown.
type Result struct {
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
}

// Input carries the optional collaborators for one scoring call. Any field
// may be zero/nil; the corresponding sub-score degrades rather than failing.
type Input struct {
	CurrentState  *forecast.State
	Memory        []forecast.MemoryEntry
	ArcVolatility float64
	// Divergence parameters, shared with retrodiction scoring.
	OverlayWeight float64
	CapitalWeight float64
	CapitalScale  float64
}

// #endregion scorer

// #region compute

// ComputeAlignmentIndex blends five independent sub-scores — confidence,
// retrodiction accuracy, arc stability, tag trust-membership, and novelty —
// under normalized weights, scaled to [0,100]. Each sub-score is computed
// behind its own guard and degrades to 0.0 on any internal failure;
// alignment scoring never panics, including for nil forecasts.
func (s *Scorer) ComputeAlignmentIndex(f *forecast.Forecast, in Input) Result {
	components := map[string]float64{
		"confidence":    guard(func() float64 { return confidenceScore(f) }),
		"retrodiction":  guard(func() float64 { return retrodictionScore(f, in) }),
		"arc_stability": guard(func() float64 { return clamp01(1 - in.ArcVolatility) }),
		"tag_trust":     guard(func() float64 { return s.tagTrustScore(f) }),
		"novelty":       guard(func() float64 { return noveltyScore(f, in.Memory) }),
	}

	weights := map[string]float64{
		"confidence":    s.cfg.ConfidenceWeight,
		"retrodiction":  s.cfg.RetrodictionWeight,
		"arc_stability": s.cfg.ArcStabilityWeight,
		"tag_trust":     s.cfg.TagTrustWeight,
		"novelty":       s.cfg.NoveltyWeight,
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		for k := range weights {
			weights[k] = 1
		}
		total = float64(len(weights))
	}

	var score float64
	for name, c := range components {
		score += c * (weights[name] / total)
	}

	result := Result{
		Score:      clamp01(score) * 100,
		Components: components,
	}
	if f != nil {
		v := result.Score
		f.AlignmentScore = &v
		f.Components = components
	}
	return result
}

// #endregion compute

// #region sub-scores

func confidenceScore(f *forecast.Forecast) float64 {
	if f == nil {
		return 0
	}
	return clamp01(f.Confidence)
}

// retrodictionScore is 1 - error. A forecast never retrodiction-scored falls
// back to divergence against the supplied current state; with neither, 0.
func retrodictionScore(f *forecast.Forecast, in Input) float64 {
	if f == nil {
		return 0
	}
	if f.RetrodictionScore != nil {
		return clamp01(1 - *f.RetrodictionScore)
	}
	if in.CurrentState == nil {
		return 0
	}
	ow, cw := in.OverlayWeight, in.CapitalWeight
	if ow == 0 && cw == 0 {
		ow, cw = 1, 1
	}
	d := forecast.Divergence(f.Projected(), *in.CurrentState, ow, cw, in.CapitalScale)
	return clamp01(1 - d)
}

// tagTrustScore is 1 when the symbolic tag belongs to the configured trusted
// set, 0 otherwise.
func (s *Scorer) tagTrustScore(f *forecast.Forecast) float64 {
	if f == nil || f.SymbolicTag == "" {
		return 0
	}
	for _, t := range s.cfg.TrustedTags {
		if f.SymbolicTag == t {
			return 1
		}
	}
	return 0
}

// noveltyScore is 1 minus the frequency of the forecast's symbolic delta in
// memory: repeating a delta the memory already holds scores low.
func noveltyScore(f *forecast.Forecast, memory []forecast.MemoryEntry) float64 {
	if f == nil {
		return 0
	}
	if len(memory) == 0 || len(f.SymbolicChange) == 0 {
		return 1
	}
	matches := 0
	for _, m := range memory {
		if forecast.SameDelta(f.SymbolicChange, m.SymbolicDelta) {
			matches++
		}
	}
	return clamp01(1 - float64(matches)/float64(len(memory)))
}

// #endregion sub-scores

// #region helpers

// guard runs one sub-score computation and converts any panic into the
// degraded 0.0 score. Alignment must never raise.
func guard(fn func() float64) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
		}
	}()
	return clamp01(fn())
}

// clamp01 restricts v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
