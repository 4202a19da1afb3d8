package engine

// #region imports
import (
	"math"

	"github.com/pulsehq/pulse-trust/internal/forecast"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

// #endregion imports

// #region score-forecast

// ScoreForecast computes a forecast's confidence as a weighted sum of
// stability (1 - fragility), capital signal magnitude, and a binary novelty
// term. The result is floor-clamped to the configured minimum, written to
// f.Confidence, and returned. Returns ErrNilForecast for nil input.
func (e *Engine) ScoreForecast(f *forecast.Forecast, memory []forecast.MemoryEntry) (float64, error) {
	if f == nil {
		return 0, forecast.ErrNilForecast
	}

	stability := clamp01(1 - f.Fragility)
	signal := e.capitalSignal(f)
	novelty := noveltyTerm(f, memory)

	total := e.score.StabilityWeight + e.score.SignalWeight + e.score.NoveltyWeight
	if total <= 0 {
		total = 1
	}
	score := (e.score.StabilityWeight*stability +
		e.score.SignalWeight*signal +
		e.score.NoveltyWeight*novelty) / total

	if score < e.score.MinConfidence {
		score = e.score.MinConfidence
	}
	score = clamp01(score)
	f.Confidence = score
	return score, nil
}

// capitalSignal normalizes the total capital movement magnitude to [0,1]
// with a soft tanh scale, so large moves saturate instead of dominating.
func (e *Engine) capitalSignal(f *forecast.Forecast) float64 {
	scale := e.score.CapitalScale
	if scale <= 0 {
		scale = 1000
	}
	var magnitude float64
	for asset := range f.StartCapital {
		magnitude += math.Abs(f.CapitalDelta(asset))
	}
	return clamp01(math.Tanh(magnitude / scale))
}

// noveltyTerm is 1 unless the forecast's symbolic delta exactly matches one
// of the last 3 memory entries (duplicate-forecast penalty).
func noveltyTerm(f *forecast.Forecast, memory []forecast.MemoryEntry) float64 {
	if len(f.SymbolicChange) == 0 || len(memory) == 0 {
		return 1
	}
	recent := memory
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for _, m := range recent {
		if forecast.SameDelta(f.SymbolicChange, m.SymbolicDelta) {
			return 0
		}
	}
	return 1
}

// #endregion score-forecast

// #region risk-score

// RiskScore blends overlay volatility, historical rule reliability, and the
// forecast's own fragility adjustment into one [0,1] risk figure. tracker
// may be nil; the historical term then sits at the neutral prior. The weight
// split is empirically tuned and kept in config rather than treated as a
// constant of the model.
func (e *Engine) RiskScore(f *forecast.Forecast, tracker trust.Tracker) float64 {
	if f == nil {
		return 0
	}

	volatility := overlayVolatility(f.Overlays)

	historical := 0.5
	if tracker != nil && len(f.RuleIDs) > 0 {
		var sum float64
		for _, id := range f.RuleIDs {
			sum += tracker.Trust(id)
		}
		historical = 1 - sum/float64(len(f.RuleIDs))
	}

	adjustment := clamp01(f.Fragility)

	wv, wh, wa := e.score.RiskVolatilityWeight, e.score.RiskHistoricalWeight, e.score.RiskAdjustmentWeight
	total := wv + wh + wa
	if total <= 0 {
		wv, wh, wa, total = 0.5, 0.3, 0.2, 1
	}
	return clamp01((wv*volatility + wh*historical + wa*adjustment) / total)
}

// overlayVolatility is the population standard deviation of the overlay
// values, scaled into [0,1] (overlays live in [0,1], so stddev ≤ 0.5).
func overlayVolatility(overlays map[string]float64) float64 {
	if len(overlays) == 0 {
		return 0
	}
	var sum float64
	for _, v := range overlays {
		sum += v
	}
	mean := sum / float64(len(overlays))
	var variance float64
	for _, v := range overlays {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(overlays))
	return clamp01(math.Sqrt(variance) * 2)
}

// #endregion risk-score

// #region helpers

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
