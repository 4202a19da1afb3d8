package retro

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region cache-paths

func (r *Runner) cachePath(cacheKey string, step int) string {
	return filepath.Join(r.cacheDir, cacheKey, fmt.Sprintf("step_%04d.json", step))
}

// loadCachedSteps returns the consecutive complete step snapshots already on
// disk for cacheKey, stopping at the first gap or unreadable file.
func (r *Runner) loadCachedSteps(cacheKey string, max int) []forecast.State {
	if r.cacheDir == "" || cacheKey == "" {
		return nil
	}
	var steps []forecast.State
	for i := 0; i < max; i++ {
		data, err := os.ReadFile(r.cachePath(cacheKey, i))
		if err != nil {
			break
		}
		var st forecast.State
		if err := json.Unmarshal(data, &st); err != nil {
			r.log.Warn("corrupt cached snapshot, recomputing from here", "cache_key", cacheKey, "step", i, "error", err)
			break
		}
		steps = append(steps, st)
	}
	return steps
}

// persistStep writes one step snapshot immediately after it is produced, so
// an interrupted run resumes without loss. Write failures are warnings: the
// run continues on the in-memory state.
func (r *Runner) persistStep(cacheKey string, step int, state forecast.State) {
	if r.cacheDir == "" || cacheKey == "" {
		return
	}
	dir := filepath.Join(r.cacheDir, cacheKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.log.Warn("snapshot cache dir unavailable", "cache_key", cacheKey, "error", err)
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		r.log.Warn("snapshot marshal failed", "cache_key", cacheKey, "step", step, "error", err)
		return
	}
	if err := os.WriteFile(r.cachePath(cacheKey, step), data, 0o644); err != nil {
		r.log.Warn("snapshot write failed", "cache_key", cacheKey, "step", step, "error", err)
	}
}

// #endregion cache-paths

// #region simulate-forward

// SimulateForward runs the simulation step by step from state. When the
// snapshot cache for cacheKey already holds N complete step files, those N
// are replayed verbatim without re-invoking the engine; any remaining steps
// are computed and persisted write-through. Within one run the steps are
// strictly sequential — step i+1 depends on step i.
func (r *Runner) SimulateForward(ctx context.Context, state forecast.State, steps int, cacheKey string) ([]forecast.State, error) {
	if r.engine == nil {
		return nil, fmt.Errorf("simulate forward: no engine configured")
	}

	out := r.loadCachedSteps(cacheKey, steps)
	if len(out) > 0 {
		r.log.Info("replaying cached snapshots", "cache_key", cacheKey, "cached", len(out), "steps", steps)
	}
	if len(out) >= steps {
		return out[:steps], nil
	}

	current := state
	if len(out) > 0 {
		current = out[len(out)-1]
	}

	for i := len(out); i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("simulate forward interrupted at step %d: %w", i, err)
		}
		next, err := r.engine.Step(ctx, current)
		if err != nil {
			return out, fmt.Errorf("simulation step %d: %w", i, err)
		}
		r.persistStep(cacheKey, i, next)
		out = append(out, next)
		current = next
	}
	return out, nil
}

// #endregion simulate-forward
