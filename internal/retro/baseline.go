package retro

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region load-baseline

// LoadBaseline reconstructs the historical worldstate for one date from
// `<baselineDir>/<date>.json` (a flat key → value map). Keys outside the
// canonical schema are dropped and logged; keys the file is missing are
// imputed from schema defaults and logged. The returned state is always
// schema-complete, so the simulator never sees a partial worldstate.
func (r *Runner) LoadBaseline(date string) (forecast.State, error) {
	path := filepath.Join(r.baselineDir, date+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return forecast.State{}, fmt.Errorf("read baseline %s: %w", date, err)
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return forecast.State{}, fmt.Errorf("parse baseline %s: %w", date, err)
	}

	state := forecast.State{
		Date:     date,
		Overlays: make(map[string]float64),
		Capital:  make(map[string]float64),
	}

	dropped := 0
	for key := range raw {
		if !r.schema.Contains(key) {
			r.log.Warn("baseline key outside canonical schema, dropping", "date", date, "key", key)
			dropped++
		}
	}

	imputed := 0
	for _, key := range r.schema.Keys() {
		v, ok := raw[key]
		if !ok {
			v = r.schema.Default(key)
			r.log.Warn("baseline key missing, imputing default", "date", date, "key", key, "default", v)
			imputed++
		}
		v = r.schema.Clamp(key, v)
		if r.schema[key].Type == "capital" {
			state.Capital[key] = v
		} else {
			state.Overlays[key] = v
		}
	}

	if dropped > 0 || imputed > 0 {
		r.log.Info("baseline loaded with repairs", "date", date, "dropped", dropped, "imputed", imputed)
	}
	return state, nil
}

// #endregion load-baseline
