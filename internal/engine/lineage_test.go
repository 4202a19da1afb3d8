package engine

import (
	"math"
	"testing"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

func TestLineageArcSummary(t *testing.T) {
	e := newTestEngine()

	root := makeForecast("root", map[string]float64{"hope": 0.8, "despair": 0.2})
	root.SymbolicTag = "Hope"
	same := makeForecast("same", map[string]float64{"hope": 0.8, "despair": 0.2})
	same.SymbolicTag = "Hope"
	inverted := makeForecast("inv", map[string]float64{"hope": 0.2, "despair": 0.8})
	inverted.SymbolicTag = "Despair"
	rebound := makeForecast("reb", map[string]float64{"hope": 0.5, "despair": 0.5})
	rebound.SymbolicTag = "Neutral"

	byID := map[string]*forecast.Forecast{
		"root": root, "same": same, "inv": inverted, "reb": rebound,
	}
	children := map[string][]string{
		"root": {"same", "inv", "reb", "missing"},
	}

	sum := e.LineageArcSummary(children, byID)

	if sum.Edges != 4 {
		t.Fatalf("expected 4 edges, got %d", sum.Edges)
	}
	if sum.Transitions[TransitionSame] != 1 {
		t.Fatalf("expected 1 same transition, got %d", sum.Transitions[TransitionSame])
	}
	if sum.Transitions[TransitionInverted] != 1 {
		t.Fatalf("expected 1 inverted transition, got %d", sum.Transitions[TransitionInverted])
	}
	if sum.Transitions[TransitionRebound] != 1 {
		t.Fatalf("expected 1 rebound transition, got %d", sum.Transitions[TransitionRebound])
	}
	if sum.Transitions[TransitionUnknown] != 1 {
		t.Fatalf("missing child should count as unknown, got %d", sum.Transitions[TransitionUnknown])
	}

	// same child contributes drift 0; inverted contributes sqrt(0.36+0.36);
	// rebound contributes sqrt(0.09+0.09). Average over the three resolvable.
	want := (0 + math.Sqrt(0.72) + math.Sqrt(0.18)) / 3
	if math.Abs(sum.AvgDrift-want) > 1e-9 {
		t.Fatalf("expected avg drift %v, got %v", want, sum.AvgDrift)
	}
}

func TestApplyAllEnrichesAdditively(t *testing.T) {
	e := newTestEngine()
	state := &forecast.State{
		Overlays: map[string]float64{"hope": 0.5, "despair": 0.5},
		Capital:  map[string]float64{"nvda_cash": 1000},
	}

	near := makeForecast("near", map[string]float64{"hope": 0.55, "despair": 0.5})
	near.EndCapital = map[string]float64{"nvda_cash": 1000}
	far := makeForecast("far", map[string]float64{"hope": 0.5, "despair": 0.5})
	far.EndCapital = map[string]float64{"nvda_cash": 900000}

	batch := []*forecast.Forecast{near, nil, far}
	e.ApplyAll(batch, ApplyAllOptions{
		CurrentState:   state,
		RetroThreshold: 1.5,
		CapitalScale:   1000,
	})

	if near.RetrodictionScore == nil || near.DriftFlag != DriftStable {
		t.Fatalf("expected near forecast flagged Stable, got %q", near.DriftFlag)
	}
	if far.DriftFlag != DriftRetrodiction {
		t.Fatalf("expected far forecast drift-flagged, got %q", far.DriftFlag)
	}
	for _, f := range []*forecast.Forecast{near, far} {
		if f.SymbolicTag == "" {
			t.Fatalf("%s not tagged", f.TraceID)
		}
		if f.TrustLabel == forecast.LabelNone {
			t.Fatalf("%s not gated", f.TraceID)
		}
	}
	if len(batch) != 3 {
		t.Fatal("apply_all must not reorder or truncate the batch")
	}
}
