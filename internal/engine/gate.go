package engine

import (
	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #region confidence-gate

// ConfidenceGate classifies a forecast into one of three trust labels with
// short-circuit precedence: confidence is checked first, then fragility and
// risk. It is total over forecast records — an empty forecast still gets a
// label — and errors only for nil input.
func (e *Engine) ConfidenceGate(f *forecast.Forecast, risk float64) (forecast.TrustLabel, error) {
	if f == nil {
		return forecast.LabelNone, forecast.ErrNilForecast
	}

	if f.Confidence < e.gate.ConfidenceThreshold {
		f.TrustLabel = forecast.LabelRejected
		return forecast.LabelRejected, nil
	}
	if f.Fragility > e.gate.FragilityThreshold || risk > e.gate.RiskThreshold {
		f.TrustLabel = forecast.LabelUnstable
		return forecast.LabelUnstable, nil
	}
	f.TrustLabel = forecast.LabelTrusted
	return forecast.LabelTrusted, nil
}

// #endregion confidence-gate
