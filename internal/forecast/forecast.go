package forecast

import (
	"errors"
	"time"
)

// #region errors

// ErrNilForecast is returned by pure scoring functions handed a nil forecast.
// It signals an upstream contract violation, not a recoverable data problem.
var ErrNilForecast = errors.New("forecast: nil forecast")

// #endregion errors

// #region trust-label

// TrustLabel is the 3-state verdict of the confidence gate.
type TrustLabel string

const (
	LabelTrusted  TrustLabel = "Trusted"
	LabelUnstable TrustLabel = "Unstable"
	LabelRejected TrustLabel = "Rejected"
	LabelModerate TrustLabel = "Moderate"
	LabelNone     TrustLabel = ""
)

// Licensable reports whether a label is acceptable to the licensing gate.
func (l TrustLabel) Licensable() bool {
	return l == LabelTrusted || l == LabelModerate
}

// #endregion trust-label

// #region forecast

// Forecast is one candidate produced by the external simulation engine.
// The core's stages enrich it additively: they fill TrustLabel,
// RetrodictionScore, AlignmentScore, and LicenseStatus but never remove or
// rewrite engine-owned fields. Experimental fields ride in Extensions so the
// required surface stays typed.
type Forecast struct {
	TraceID    string `json:"trace_id"`
	ParentID   string `json:"parent_id,omitempty"`
	OriginTurn int    `json:"origin_turn"`
	Horizon    int    `json:"horizon_days"`

	Confidence float64 `json:"confidence"`
	Fragility  float64 `json:"fragility"`

	SymbolicTag    string             `json:"symbolic_tag,omitempty"`
	ArcLabel       string             `json:"arc_label,omitempty"`
	Overlays       map[string]float64 `json:"overlays,omitempty"`
	SymbolicChange map[string]float64 `json:"symbolic_change,omitempty"`

	StartCapital map[string]float64 `json:"start_capital,omitempty"`
	EndCapital   map[string]float64 `json:"end_capital,omitempty"`

	RuleIDs []string `json:"rule_ids,omitempty"`

	// Filled by the core's stages.
	RetrodictionScore *float64           `json:"retrodiction_score,omitempty"`
	AlignmentScore    *float64           `json:"alignment_score,omitempty"`
	Components        map[string]float64 `json:"alignment_components,omitempty"`
	TrustLabel        TrustLabel         `json:"trust_label,omitempty"`
	LicenseStatus     string             `json:"license_status,omitempty"`
	DriftFlag         string             `json:"drift_flag,omitempty"`

	Extensions map[string]any `json:"extensions,omitempty"`
}

// #endregion forecast

// #region accessors

// Retrodiction returns the retrodiction error score, or fallback when the
// forecast was never retrodiction-scored.
func (f *Forecast) Retrodiction(fallback float64) float64 {
	if f == nil || f.RetrodictionScore == nil {
		return fallback
	}
	return *f.RetrodictionScore
}

// Alignment returns the 0-100 alignment index, or fallback when unset.
func (f *Forecast) Alignment(fallback float64) float64 {
	if f == nil || f.AlignmentScore == nil {
		return fallback
	}
	return *f.AlignmentScore
}

// CapitalDelta returns end minus start for one asset, 0 when either side is
// missing.
func (f *Forecast) CapitalDelta(asset string) float64 {
	if f == nil {
		return 0
	}
	start, okS := f.StartCapital[asset]
	end, okE := f.EndCapital[asset]
	if !okS || !okE {
		return 0
	}
	return end - start
}

// #endregion accessors

// #region memory

// MemoryEntry is one prior forecast the novelty term compares against:
// just the symbolic delta of its overlays, as recorded by the memory layer.
type MemoryEntry struct {
	TraceID       string             `json:"trace_id"`
	SymbolicDelta map[string]float64 `json:"symbolic_change"`
	RecordedAt    time.Time          `json:"recorded_at"`
}

// SameDelta reports whether two symbolic deltas match exactly, key for key.
// Used by the duplicate-forecast novelty penalty.
func SameDelta(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || v != w {
			return false
		}
	}
	return true
}

// #endregion memory
