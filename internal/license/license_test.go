package license

import (
	"strings"
	"testing"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/forecast"
)

func newTestGate() *Gate {
	return New(config.Default().License)
}

func approvable() *forecast.Forecast {
	score := 0.9 * 100
	return &forecast.Forecast{
		TraceID:        "f1",
		Confidence:     0.8,
		TrustLabel:     forecast.LabelTrusted,
		AlignmentScore: &score,
		DriftFlag:      "Stable",
	}
}

func TestLicenseApproved(t *testing.T) {
	g := newTestGate()
	d, err := g.LicenseForecast(approvable())
	if err != nil {
		t.Fatalf("license: %v", err)
	}
	if d.Status != Approved {
		t.Fatalf("expected Approved, got %s", d.Status)
	}
}

func TestLicenseNoConfidenceBeatsEverything(t *testing.T) {
	g := newTestGate()
	f := approvable()
	f.Confidence = 0.4
	// Even with a drift flag that would otherwise block, confidence wins.
	f.DriftFlag = "Rule Drift"

	d, err := g.LicenseForecast(f)
	if err != nil {
		t.Fatalf("license: %v", err)
	}
	if d.Status != NoConfidence {
		t.Fatalf("expected NoConfidence, got %s", d.Status)
	}
}

func TestLicenseUntrusted(t *testing.T) {
	g := newTestGate()
	f := approvable()
	f.TrustLabel = forecast.LabelRejected

	d, _ := g.LicenseForecast(f)
	if d.Status != Untrusted {
		t.Fatalf("expected Untrusted, got %s", d.Status)
	}

	f.TrustLabel = forecast.LabelModerate
	if d, _ = g.LicenseForecast(f); d.Status != Approved {
		t.Fatalf("Moderate is licensable, got %s", d.Status)
	}
}

func TestLicenseBlockedOnDrift(t *testing.T) {
	g := newTestGate()
	f := approvable()
	f.DriftFlag = "Retrodiction Drift"

	d, _ := g.LicenseForecast(f)
	if d.Status != Blocked {
		t.Fatalf("expected Blocked, got %s", d.Status)
	}
	if d.Reason != "Retrodiction Drift" {
		t.Fatalf("expected drift reason carried, got %q", d.Reason)
	}
	if f.LicenseStatus != "Blocked(Retrodiction Drift)" {
		t.Fatalf("expected rendered status on forecast, got %q", f.LicenseStatus)
	}
}

func TestLicenseLowAlignment(t *testing.T) {
	g := newTestGate()
	f := approvable()
	low := 40.0
	f.AlignmentScore = &low

	d, _ := g.LicenseForecast(f)
	if d.Status != LowAlignment {
		t.Fatalf("expected LowAlignment, got %s", d.Status)
	}
}

func TestLicenseAlignmentUsesIndexScale(t *testing.T) {
	g := newTestGate()
	f := approvable()
	onePercent := 1.0 // 1 on the 0-100 index, not a normalized 100%
	f.AlignmentScore = &onePercent

	d, _ := g.LicenseForecast(f)
	if d.Status != LowAlignment {
		t.Fatalf("expected LowAlignment for an index of 1, got %s", d.Status)
	}
}

func TestLicenseNilForecast(t *testing.T) {
	g := newTestGate()
	if _, err := g.LicenseForecast(nil); err == nil {
		t.Fatal("expected error for nil forecast")
	}
	if _, err := g.ExplainForecastLicense(nil); err == nil {
		t.Fatal("expected error for nil forecast")
	}
}

func TestExplainMirrorsPrecedence(t *testing.T) {
	g := newTestGate()

	f := approvable()
	f.Confidence = 0.4
	reason, err := g.ExplainForecastLicense(f)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(reason, "confidence") {
		t.Fatalf("expected confidence rationale, got %q", reason)
	}

	ok, _ := g.ExplainForecastLicense(approvable())
	if !strings.Contains(ok, "passed") {
		t.Fatalf("expected pass rationale, got %q", ok)
	}
}

func TestLicenseBatchCounts(t *testing.T) {
	g := newTestGate()
	weak := approvable()
	weak.Confidence = 0.1

	counts := g.LicenseBatch([]*forecast.Forecast{approvable(), weak, nil})
	if counts[Approved] != 1 || counts[NoConfidence] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
