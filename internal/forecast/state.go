package forecast

import "math"

// #region state

// State is one day's worldstate: symbolic overlays plus per-asset capital.
// Retrodiction replays sequences of these; the engine compares forecasts
// against the current one.
type State struct {
	Date     string             `json:"date,omitempty"`
	Overlays map[string]float64 `json:"overlays"`
	Capital  map[string]float64 `json:"capital"`
}

// Projected returns the worldstate a forecast claims at its horizon.
func (f *Forecast) Projected() State {
	return State{
		Overlays: f.Overlays,
		Capital:  f.EndCapital,
	}
}

// #endregion state

// #region divergence

// Divergence is the weighted root-mean-square distance between two states
// over their shared overlay keys and shared capital keys. Capital deltas are
// normalized by capScale so dollar magnitudes and overlay magnitudes mix on
// one scale. This is the single distance function shared by retrodiction
// scoring and the alignment index's retrodiction term.
func Divergence(a, b State, overlayWeight, capitalWeight, capScale float64) float64 {
	if capScale <= 0 {
		capScale = 1000
	}
	var sum, weight float64

	for k, av := range a.Overlays {
		bv, ok := b.Overlays[k]
		if !ok {
			continue
		}
		d := av - bv
		sum += overlayWeight * d * d
		weight += overlayWeight
	}
	for k, av := range a.Capital {
		bv, ok := b.Capital[k]
		if !ok {
			continue
		}
		d := (av - bv) / capScale
		sum += capitalWeight * d * d
		weight += capitalWeight
	}

	if weight == 0 {
		return 0
	}
	return math.Sqrt(sum / weight)
}

// #endregion divergence
