package retro

// #region imports
import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pulsehq/pulse-trust/internal/forecast"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

// #endregion imports

// #region constants

// overlayTolerance is the per-key absolute error under which a simulated
// overlay counts as a success observation for the trust tracker.
const overlayTolerance = 0.1

const dateLayout = "2006-01-02"

// #endregion constants

// #region single-run

// RunRetrodictionTest replays the forward simulation from one historical
// start date for the given number of days and scores each day against the
// recorded baselines that follow it. Per-day error scores append to the
// replay log; per-key successes and failures feed the trust tracker.
func (r *Runner) RunRetrodictionTest(ctx context.Context, startDate string, days int) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.New().String(),
		StartDate: startDate,
		Days:      days,
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return report, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	if days <= 0 {
		return report, fmt.Errorf("retrodiction test needs at least one day, got %d", days)
	}

	baseline, err := r.LoadBaseline(startDate)
	if err != nil {
		return report, err
	}

	// Ground truth: the recorded baselines for the days after the start.
	// A missing day truncates the comparison window; it does not fail the run.
	truthSteps := r.loadTruth(start, days)

	simSteps, err := r.SimulateForward(ctx, baseline, days, startDate)
	if err != nil {
		return report, err
	}
	for i := range simSteps {
		simSteps[i].Date = start.AddDate(0, 0, i+1).Format(dateLayout)
		if r.sink != nil {
			r.sink.OnSnapshot(report.RunID, i, simSteps[i])
		}
	}

	results := r.CompareToActual(simSteps, truthSteps)
	r.appendResults(results)
	r.feedTracker(simSteps, truthSteps)

	report.Results = results
	var sum float64
	for _, res := range results {
		sum += res.ErrorScore
	}
	if len(results) > 0 {
		report.MeanError = sum / float64(len(results))
	}
	return report, nil
}

// loadTruth gathers the recorded baselines following start, stopping at the
// first missing day.
func (r *Runner) loadTruth(start time.Time, days int) []forecast.State {
	var truth []forecast.State
	for i := 1; i <= days; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		st, err := r.LoadBaseline(date)
		if err != nil {
			r.log.Warn("ground truth missing, truncating comparison window", "date", date, "error", err)
			break
		}
		truth = append(truth, st)
	}
	return truth
}

// feedTracker converts per-key overlay errors into success/failure
// observations, one lock acquisition per day via BatchUpdate.
func (r *Runner) feedTracker(simSteps, truthSteps []forecast.State) {
	if r.tracker == nil {
		return
	}
	n := len(simSteps)
	if len(truthSteps) < n {
		n = len(truthSteps)
	}
	for i := 0; i < n; i++ {
		batch := make(map[string][]trust.Observation)
		for key, sv := range simSteps[i].Overlays {
			tv, ok := truthSteps[i].Overlays[key]
			if !ok {
				continue
			}
			diff := sv - tv
			if diff < 0 {
				diff = -diff
			}
			batch[key] = append(batch[key], trust.Observation{Success: diff <= overlayTolerance, Weight: 1})
		}
		r.tracker.BatchUpdate(batch)
	}
}

// #endregion single-run

// #region parallel-runs

// RunRetrodictionTests runs independent start dates concurrently through a
// bounded worker pool. One date's failure is captured in its report and
// logged without aborting sibling runs. After ctx is cancelled no new dates
// are submitted, but in-flight runs complete: each submitted date runs on a
// detached context, so step-level cancellation stays available only to
// direct callers of SimulateForward.
func (r *Runner) RunRetrodictionTests(ctx context.Context, dates []string, days, workers int) []RunReport {
	if workers <= 0 {
		workers = r.cfg.Workers
	}
	if workers <= 0 {
		workers = 4
	}

	reports := make([]RunReport, len(dates))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, date := range dates {
		if ctx.Err() != nil {
			reports[i] = RunReport{StartDate: date, Days: days, Err: ctx.Err()}
			continue
		}
		i, date := i, date
		g.Go(func() error {
			// Cancellation gates submission only; a date already running
			// finishes its steps and reports normally.
			report, err := r.RunRetrodictionTest(context.WithoutCancel(ctx), date, days)
			if err != nil {
				r.log.Error("retrodiction run failed", "start_date", date, "error", err)
				report.Err = err
			}
			reports[i] = report
			return nil // failures are per-report, never batch-fatal
		})
	}
	_ = g.Wait()
	return reports
}

// #endregion parallel-runs
