package engine

import (
	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #region tag-rules

// tagRule maps an overlay condition to a narrative classification.
// Rules are evaluated in order; the first match wins.
type tagRule struct {
	match func(o map[string]float64) bool
	tag   string
	arc   string
}

// TagUnknown is assigned when no overlay rule matches.
const TagUnknown = "Unknown"

var tagRules = []tagRule{
	{
		match: func(o map[string]float64) bool { return o["hope"] >= 0.6 && o["despair"] < 0.4 },
		tag:   "Hope",
		arc:   "Hope Surge",
	},
	{
		match: func(o map[string]float64) bool { return o["despair"] >= 0.6 },
		tag:   "Despair",
		arc:   "Collapse Risk",
	},
	{
		match: func(o map[string]float64) bool { return o["rage"] >= 0.6 },
		tag:   "Rage",
		arc:   "Rage Spiral",
	},
	{
		match: func(o map[string]float64) bool { return o["fatigue"] >= 0.6 },
		tag:   "Fatigue",
		arc:   "Fatigue Plateau",
	},
	{
		match: func(o map[string]float64) bool {
			for _, k := range []string{"hope", "despair", "rage", "fatigue"} {
				v := o[k]
				if v < 0.3 || v > 0.6 {
					return false
				}
			}
			return true
		},
		tag: "Neutral",
		arc: "Stable Core",
	},
}

// #endregion tag-rules

// #region tag-forecast

// TagForecast annotates a forecast with its arc label and symbolic tag from
// first-match-wins overlay thresholds. No match yields TagUnknown and an
// empty arc. Pure beyond the annotation; nil forecasts are ignored.
func (e *Engine) TagForecast(f *forecast.Forecast) {
	if f == nil {
		return
	}
	for _, r := range tagRules {
		if r.match(f.Overlays) {
			f.SymbolicTag = r.tag
			f.ArcLabel = r.arc
			return
		}
	}
	f.SymbolicTag = TagUnknown
	f.ArcLabel = ""
}

// #endregion tag-forecast
