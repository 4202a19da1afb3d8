package engine

// #region imports
import (
	"fmt"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region integrity

// CheckTrustLoopIntegrity cross-checks each forecast's trust label against
// its underlying retrodiction score and fragility, catching internally
// inconsistent scoring. retroThreshold is the error above which a Trusted
// label is no longer defensible.
func (e *Engine) CheckTrustLoopIntegrity(batch []*forecast.Forecast, retroThreshold float64) []string {
	var issues []string
	for _, f := range batch {
		if f == nil {
			continue
		}
		retro := f.Retrodiction(0)
		switch f.TrustLabel {
		case forecast.LabelTrusted:
			if f.RetrodictionScore != nil && retro > retroThreshold {
				issues = append(issues, fmt.Sprintf("%s labeled Trusted but retrodiction error %.3f exceeds %.3f", f.TraceID, retro, retroThreshold))
			}
			if f.Fragility > e.gate.FragilityThreshold {
				issues = append(issues, fmt.Sprintf("%s labeled Trusted but fragility %.3f exceeds %.3f", f.TraceID, f.Fragility, e.gate.FragilityThreshold))
			}
		case forecast.LabelRejected:
			if f.RetrodictionScore != nil && retro <= retroThreshold/2 && f.Fragility < e.gate.FragilityThreshold/2 {
				issues = append(issues, fmt.Sprintf("%s labeled Rejected despite retrodiction error %.3f and fragility %.3f", f.TraceID, retro, f.Fragility))
			}
		}
	}
	return issues
}

// #endregion integrity

// #region coherence

// CoherenceReport is the aggregated verdict a batch must clear before
// licensing or export.
type CoherenceReport struct {
	Passed bool     `json:"passed"`
	Issues []string `json:"issues,omitempty"`
}

// CheckForecastCoherence runs the pairwise conflict scans and the trust-loop
// integrity check in one pass and flattens everything into a single issue
// list. capitalThreshold and retroThreshold come from the caller's config.
func (e *Engine) CheckForecastCoherence(batch []*forecast.Forecast, capitalThreshold, retroThreshold float64) CoherenceReport {
	var issues []string

	for _, c := range e.SymbolicTagConflicts(batch) {
		issues = append(issues, fmt.Sprintf("tag conflict %s/%s: %s", c.IDA, c.IDB, c.Reason))
	}
	for _, c := range e.ArcConflicts(batch) {
		issues = append(issues, fmt.Sprintf("arc conflict %s/%s: %s", c.IDA, c.IDB, c.Reason))
	}
	for _, c := range e.CapitalConflicts(batch, capitalThreshold) {
		issues = append(issues, fmt.Sprintf("capital conflict %s/%s: %s", c.IDA, c.IDB, c.Reason))
	}
	issues = append(issues, e.CheckTrustLoopIntegrity(batch, retroThreshold)...)

	return CoherenceReport{
		Passed: len(issues) == 0,
		Issues: issues,
	}
}

// #endregion coherence
