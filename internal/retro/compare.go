package retro

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region compare

// CompareToActual scores each simulated day against ground truth with the
// shared weighted-RMSE divergence (the same distance the alignment index's
// retrodiction term uses). Comparison stops at the shorter of the two
// sequences; days past it simply have no truth to score against.
func (r *Runner) CompareToActual(simSteps, truthSteps []forecast.State) []Result {
	n := len(simSteps)
	if len(truthSteps) < n {
		n = len(truthSteps)
	}

	ow, cw := r.cfg.OverlayWeight, r.cfg.CapitalWeight
	if ow == 0 && cw == 0 {
		ow, cw = 1, 1
	}

	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		date := truthSteps[i].Date
		if date == "" {
			date = simSteps[i].Date
		}
		results = append(results, Result{
			SimDate:    date,
			ErrorScore: forecast.Divergence(simSteps[i], truthSteps[i], ow, cw, r.cfg.CapitalScale),
		})
	}
	return results
}

// #endregion compare

// #region replay-log

// appendResults writes results to the replay log, one JSON line each, under
// the single-writer mutex. I/O failure is a warning; the in-memory results
// still flow back to the caller.
func (r *Runner) appendResults(results []Result) {
	if r.logPath == "" {
		return
	}
	r.logMu.Lock()
	defer r.logMu.Unlock()

	f, err := os.OpenFile(r.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.log.Warn("replay log unavailable", "path", r.logPath, "error", err)
		return
	}
	defer f.Close()

	for _, res := range results {
		data, err := json.Marshal(res)
		if err != nil {
			r.log.Warn("replay log marshal failed", "sim_date", res.SimDate, "error", err)
			continue
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			r.log.Warn("replay log append failed", "sim_date", res.SimDate, "error", err)
			return
		}
	}
}

// ReadReplayLog loads every parseable result from a replay log. Malformed
// lines are skipped and counted.
func ReadReplayLog(path string) (results []Result, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read replay log: %w", err)
	}
	start := 0
	for i := 0; i <= len(data); i++ {
		if i != len(data) && data[i] != '\n' {
			continue
		}
		line := data[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		var res Result
		if err := json.Unmarshal(line, &res); err != nil {
			skipped++
			continue
		}
		results = append(results, res)
	}
	return results, skipped, nil
}

// #endregion replay-log
