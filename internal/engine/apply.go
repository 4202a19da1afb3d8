package engine

// #region imports
import (
	"github.com/pulsehq/pulse-trust/internal/forecast"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

// #endregion imports

// #region drift-flags

const (
	// DriftStable marks a forecast whose projection stays within the
	// retrodiction error threshold of the current worldstate.
	DriftStable = "Stable"
	// DriftRetrodiction marks a forecast whose projection has drifted past
	// the threshold; the licensing gate blocks these.
	DriftRetrodiction = "Retrodiction Drift"
)

// #endregion drift-flags

// #region apply-all

// ApplyAllOptions carries the optional collaborators for a batch pass.
type ApplyAllOptions struct {
	// Memory is the recent forecast memory used by the novelty penalty.
	Memory []forecast.MemoryEntry
	// CurrentState, when set, enables retrodiction flagging before scoring.
	CurrentState *forecast.State
	// RetroThreshold is the divergence above which a forecast is drift-flagged.
	RetroThreshold float64
	// OverlayWeight/CapitalWeight/CapitalScale parameterize the shared
	// divergence metric; zero values take the metric's defaults.
	OverlayWeight float64
	CapitalWeight float64
	CapitalScale  float64
	// Tracker, when set, feeds the risk blend's historical term.
	Tracker trust.Tracker
}

// ApplyAll is the batch entry point: optional retrodiction flagging first,
// then tag/score/gate for every item. A single item's failure is logged and
// that item skipped; the batch always completes. The input slice itself is
// never reordered or truncated — enrichment is additive per forecast.
func (e *Engine) ApplyAll(batch []*forecast.Forecast, opts ApplyAllOptions) {
	ow, cw := opts.OverlayWeight, opts.CapitalWeight
	if ow == 0 && cw == 0 {
		ow, cw = 1, 1
	}

	for _, f := range batch {
		if f == nil {
			e.log.Warn("apply_all: skipping nil forecast")
			continue
		}

		if opts.CurrentState != nil {
			score := forecast.Divergence(f.Projected(), *opts.CurrentState, ow, cw, opts.CapitalScale)
			f.RetrodictionScore = &score
			if opts.RetroThreshold > 0 && score > opts.RetroThreshold {
				f.DriftFlag = DriftRetrodiction
			} else {
				f.DriftFlag = DriftStable
			}
		}

		e.TagForecast(f)

		if _, err := e.ScoreForecast(f, opts.Memory); err != nil {
			e.log.Warn("apply_all: score failed", "trace_id", f.TraceID, "error", err)
			continue
		}

		risk := e.RiskScore(f, opts.Tracker)
		if _, err := e.ConfidenceGate(f, risk); err != nil {
			e.log.Warn("apply_all: gate failed", "trace_id", f.TraceID, "error", err)
		}
	}
}

// #endregion apply-all
