package license

// #region imports
import (
	"fmt"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region status

// Status is the final accept/reject decision for one forecast.
type Status string

const (
	Approved     Status = "Approved"
	NoConfidence Status = "NoConfidence"
	Untrusted    Status = "Untrusted"
	Blocked      Status = "Blocked"
	LowAlignment Status = "LowAlignment"
)

// Decision pairs the status with the drift reason when the status is
// Blocked.
type Decision struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// String renders the decision the way the audit trail and digests record it.
func (d Decision) String() string {
	if d.Status == Blocked && d.Reason != "" {
		return fmt.Sprintf("Blocked(%s)", d.Reason)
	}
	return string(d.Status)
}

// #endregion status

// #region gate

// Gate issues deterministic, ordered-precedence license decisions.
type Gate struct {
	cfg config.License
}

// New creates a gate from the license section of the pipeline config.
func New(cfg config.License) *Gate {
	return &Gate{cfg: cfg}
}

// LicenseForecast applies the precedence chain: confidence below minimum →
// NoConfidence; unlicensable trust label → Untrusted; drift flag present and
// not Stable → Blocked(reason); alignment below minimum → LowAlignment;
// otherwise Approved. Alignment and MinAlignment share the scorer's 0-100
// index scale. Total over forecast records; errors only for nil input, which
// is an upstream contract violation. The decision is also written to
// f.LicenseStatus.
func (g *Gate) LicenseForecast(f *forecast.Forecast) (Decision, error) {
	if f == nil {
		return Decision{}, forecast.ErrNilForecast
	}

	d := g.decide(f)
	f.LicenseStatus = d.String()
	return d, nil
}

func (g *Gate) decide(f *forecast.Forecast) Decision {
	if f.Confidence < g.cfg.MinConfidence {
		return Decision{Status: NoConfidence}
	}
	if !f.TrustLabel.Licensable() {
		return Decision{Status: Untrusted}
	}
	if f.DriftFlag != "" && f.DriftFlag != "Stable" {
		return Decision{Status: Blocked, Reason: f.DriftFlag}
	}
	if f.Alignment(0) < g.cfg.MinAlignment {
		return Decision{Status: LowAlignment}
	}
	return Decision{Status: Approved}
}

// ExplainForecastLicense mirrors the same precedence to produce a
// human-readable rationale.
func (g *Gate) ExplainForecastLicense(f *forecast.Forecast) (string, error) {
	if f == nil {
		return "", forecast.ErrNilForecast
	}

	switch d := g.decide(f); d.Status {
	case NoConfidence:
		return fmt.Sprintf("confidence %.2f is below the %.2f minimum", f.Confidence, g.cfg.MinConfidence), nil
	case Untrusted:
		return fmt.Sprintf("trust label %q is not Trusted or Moderate", string(f.TrustLabel)), nil
	case Blocked:
		return fmt.Sprintf("blocked by drift flag %q", d.Reason), nil
	case LowAlignment:
		return fmt.Sprintf("alignment %.2f is below the %.2f minimum", f.Alignment(0), g.cfg.MinAlignment), nil
	default:
		return "all licensing checks passed", nil
	}
}

// #endregion gate

// #region batch

// BatchCounts tallies decisions per status for the digest layer.
type BatchCounts map[Status]int

// LicenseBatch licenses every forecast in a batch, isolating nil entries,
// and returns the per-status counts.
func (g *Gate) LicenseBatch(batch []*forecast.Forecast) BatchCounts {
	counts := make(BatchCounts)
	for _, f := range batch {
		d, err := g.LicenseForecast(f)
		if err != nil {
			continue
		}
		counts[d.Status]++
	}
	return counts
}

// #endregion batch
