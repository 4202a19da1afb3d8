package sim

// #region imports
import (
	"context"
	"math"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region engine

// Engine is the external turn engine: given one day's worldstate it produces
// the next. The retrodiction runner drives it step by step; implementations
// live outside this core and are injected.
type Engine interface {
	Step(ctx context.Context, state forecast.State) (forecast.State, error)
}

// StepFunc adapts a plain function to Engine.
type StepFunc func(ctx context.Context, state forecast.State) (forecast.State, error)

// Step implements Engine.
func (fn StepFunc) Step(ctx context.Context, state forecast.State) (forecast.State, error) {
	return fn(ctx, state)
}

// #endregion engine

// #region linear-engine

// LinearEngine is a deterministic in-repo engine used by tests and the demo
// CLI: overlays relax toward their attractors at a fixed rate, capital grows
// by a fixed daily factor. It stands in for the real turn engine, which is
// an external collaborator.
type LinearEngine struct {
	OverlayRate   float64            // per-step pull toward the attractor, default 0.05
	Attractors    map[string]float64 // overlay -> resting value, default 0.5
	CapitalGrowth float64            // per-step multiplier, default 1.0 (flat)
}

// Step produces the next state without mutating the input.
func (e *LinearEngine) Step(_ context.Context, state forecast.State) (forecast.State, error) {
	rate := e.OverlayRate
	if rate <= 0 {
		rate = 0.05
	}
	growth := e.CapitalGrowth
	if growth <= 0 {
		growth = 1.0
	}

	next := forecast.State{
		Date:     state.Date,
		Overlays: make(map[string]float64, len(state.Overlays)),
		Capital:  make(map[string]float64, len(state.Capital)),
	}
	for k, v := range state.Overlays {
		attractor := 0.5
		if a, ok := e.Attractors[k]; ok {
			attractor = a
		}
		next.Overlays[k] = v + rate*(attractor-v)
	}
	for k, v := range state.Capital {
		next.Capital[k] = math.Round(v*growth*100) / 100
	}
	return next, nil
}

// #endregion linear-engine
