package engine

// #region imports
import (
	"fmt"
	"math"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region tables

// opposedTags pairs symbolic tags that cannot honestly co-occur for the
// same origin turn.
var opposedTags = map[string]string{
	"Hope":    "Despair",
	"Despair": "Hope",
	"Rage":    "Fatigue",
	"Fatigue": "Rage",
}

// opposedArcs pairs antagonistic arc families.
var opposedArcs = map[string]string{
	"Hope Surge":    "Collapse Risk",
	"Collapse Risk": "Hope Surge",
	"Stable Core":   "Rage Spiral",
	"Rage Spiral":   "Stable Core",
}

// #endregion tables

// #region tag-conflicts

// SymbolicTagConflicts scans a batch pairwise for opposite symbolic tags
// sharing an origin turn. Each conflicting pair yields exactly one triple
// (i<j ordering dedupes the symmetric case). Inputs are not mutated.
func (e *Engine) SymbolicTagConflicts(batch []*forecast.Forecast) []Conflict {
	var out []Conflict
	for i := 0; i < len(batch); i++ {
		for j := i + 1; j < len(batch); j++ {
			a, b := batch[i], batch[j]
			if a == nil || b == nil || a.OriginTurn != b.OriginTurn {
				continue
			}
			if opposedTags[a.SymbolicTag] == b.SymbolicTag && a.SymbolicTag != "" {
				out = append(out, Conflict{
					IDA:    a.TraceID,
					IDB:    b.TraceID,
					Reason: fmt.Sprintf("opposite symbolic tags %s vs %s at turn %d", a.SymbolicTag, b.SymbolicTag, a.OriginTurn),
				})
			}
		}
	}
	return out
}

// #endregion tag-conflicts

// #region arc-conflicts

// ArcConflicts scans a batch pairwise for antagonistic arc families
// co-occurring at the same origin turn.
func (e *Engine) ArcConflicts(batch []*forecast.Forecast) []Conflict {
	var out []Conflict
	for i := 0; i < len(batch); i++ {
		for j := i + 1; j < len(batch); j++ {
			a, b := batch[i], batch[j]
			if a == nil || b == nil || a.OriginTurn != b.OriginTurn {
				continue
			}
			if opposedArcs[a.ArcLabel] == b.ArcLabel && a.ArcLabel != "" {
				out = append(out, Conflict{
					IDA:    a.TraceID,
					IDB:    b.TraceID,
					Reason: fmt.Sprintf("antagonistic arcs %q vs %q at turn %d", a.ArcLabel, b.ArcLabel, a.OriginTurn),
				})
			}
		}
	}
	return out
}

// #endregion arc-conflicts

// #region capital-conflicts

// CapitalConflicts scans a batch pairwise for same-asset capital outcomes
// diverging in sign beyond threshold on both sides.
func (e *Engine) CapitalConflicts(batch []*forecast.Forecast, threshold float64) []Conflict {
	if threshold <= 0 {
		threshold = 1
	}
	var out []Conflict
	for i := 0; i < len(batch); i++ {
		for j := i + 1; j < len(batch); j++ {
			a, b := batch[i], batch[j]
			if a == nil || b == nil {
				continue
			}
			for asset := range a.EndCapital {
				da := a.CapitalDelta(asset)
				db := b.CapitalDelta(asset)
				if math.Abs(da) < threshold || math.Abs(db) < threshold {
					continue
				}
				if (da > 0) != (db > 0) {
					out = append(out, Conflict{
						IDA:    a.TraceID,
						IDB:    b.TraceID,
						Reason: fmt.Sprintf("capital outcome for %s diverges in sign (%.2f vs %.2f)", asset, da, db),
					})
				}
			}
		}
	}
	return out
}

// #endregion capital-conflicts
