package retro

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/forecast"
	"github.com/pulsehq/pulse-trust/internal/registry"
	"github.com/pulsehq/pulse-trust/internal/sim"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

func testSchema() registry.Schema {
	return registry.Schema{
		"hope":      {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"despair":   {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"nvda_cash": {Default: 1000, Range: [2]float64{0, 1000000}, Type: "capital"},
	}
}

// countingEngine records how many times Step ran.
type countingEngine struct {
	calls atomic.Int64
}

func (e *countingEngine) Step(_ context.Context, state forecast.State) (forecast.State, error) {
	e.calls.Add(1)
	next := forecast.State{
		Overlays: map[string]float64{},
		Capital:  map[string]float64{},
	}
	for k, v := range state.Overlays {
		next.Overlays[k] = v * 0.9
	}
	for k, v := range state.Capital {
		next.Capital[k] = v + 10
	}
	return next, nil
}

func writeBaseline(t *testing.T, dir, date string, values map[string]float64) {
	t.Helper()
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatalf("marshal baseline: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, date+".json"), data, 0o644); err != nil {
		t.Fatalf("write baseline: %v", err)
	}
}

func newTestRunner(t *testing.T, engine sim.Engine, tracker trust.Tracker) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	baselines := filepath.Join(dir, "baselines")
	if err := os.MkdirAll(baselines, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	runner := NewRunner(Options{
		Engine:      engine,
		Schema:      testSchema(),
		Tracker:     tracker,
		Config:      config.Default().Retro,
		BaselineDir: baselines,
		CacheDir:    filepath.Join(dir, "cache"),
		ReplayLog:   filepath.Join(dir, "replay.jsonl"),
	})
	return runner, baselines
}

func TestLoadBaselineDropsAndImputes(t *testing.T) {
	runner, baselines := newTestRunner(t, &countingEngine{}, nil)
	// "mystery" is outside the schema; "despair" and "nvda_cash" are missing.
	writeBaseline(t, baselines, "2025-06-01", map[string]float64{
		"hope":    0.7,
		"mystery": 42,
	})

	state, err := runner.LoadBaseline("2025-06-01")
	if err != nil {
		t.Fatalf("load baseline: %v", err)
	}

	if _, ok := state.Overlays["mystery"]; ok {
		t.Fatal("unexpected key must be dropped")
	}
	if got := state.Overlays["hope"]; got != 0.7 {
		t.Fatalf("recorded value lost: %v", got)
	}
	if got := state.Overlays["despair"]; got != 0.5 {
		t.Fatalf("missing overlay must take the schema default, got %v", got)
	}
	if got := state.Capital["nvda_cash"]; got != 1000 {
		t.Fatalf("missing capital must take the schema default, got %v", got)
	}
	// Completeness: every schema key present on the right side of the state.
	if len(state.Overlays)+len(state.Capital) != len(testSchema()) {
		t.Fatalf("state is not schema-complete: %d overlays, %d capital", len(state.Overlays), len(state.Capital))
	}
}

func TestSimulateForwardCacheReplayIdempotence(t *testing.T) {
	engine := &countingEngine{}
	runner, _ := newTestRunner(t, engine, nil)

	start := forecast.State{
		Overlays: map[string]float64{"hope": 1.0},
		Capital:  map[string]float64{"nvda_cash": 1000},
	}

	first, err := runner.SimulateForward(context.Background(), start, 5, "run-a")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(first))
	}
	if got := engine.calls.Load(); got != 5 {
		t.Fatalf("expected 5 engine calls, got %d", got)
	}

	second, err := runner.SimulateForward(context.Background(), start, 5, "run-a")
	if err != nil {
		t.Fatalf("replay run: %v", err)
	}
	if got := engine.calls.Load(); got != 5 {
		t.Fatalf("cached steps must replay without re-invoking the engine, calls=%d", got)
	}
	for i := range first {
		if second[i].Overlays["hope"] != first[i].Overlays["hope"] {
			t.Fatalf("cached step %d differs", i)
		}
	}
}

func TestSimulateForwardResumesFromPartialCache(t *testing.T) {
	engine := &countingEngine{}
	runner, _ := newTestRunner(t, engine, nil)

	start := forecast.State{Overlays: map[string]float64{"hope": 1.0}, Capital: map[string]float64{}}

	if _, err := runner.SimulateForward(context.Background(), start, 3, "run-b"); err != nil {
		t.Fatalf("partial run: %v", err)
	}
	out, err := runner.SimulateForward(context.Background(), start, 6, "run-b")
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("expected 6 steps, got %d", len(out))
	}
	if got := engine.calls.Load(); got != 6 { // 3 + 3 resumed, never recomputed
		t.Fatalf("expected 6 total engine calls after resume, got %d", got)
	}
}

func TestCompareToActualSharedDistance(t *testing.T) {
	runner, _ := newTestRunner(t, &countingEngine{}, nil)

	simSteps := []forecast.State{{Date: "2025-06-02", Overlays: map[string]float64{"hope": 0.8}, Capital: map[string]float64{}}}
	truth := []forecast.State{{Date: "2025-06-02", Overlays: map[string]float64{"hope": 0.6}, Capital: map[string]float64{}}}

	results := runner.CompareToActual(simSteps, truth)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := forecast.Divergence(simSteps[0], truth[0], runner.cfg.OverlayWeight, runner.cfg.CapitalWeight, runner.cfg.CapitalScale)
	if results[0].ErrorScore != want {
		t.Fatalf("comparison must use the shared divergence: %v != %v", results[0].ErrorScore, want)
	}
	if results[0].SimDate != "2025-06-02" {
		t.Fatalf("unexpected sim date %q", results[0].SimDate)
	}
}

func TestRunRetrodictionTestEndToEnd(t *testing.T) {
	tracker := trust.NewTracker()
	runner, baselines := newTestRunner(t, &countingEngine{}, tracker)

	writeBaseline(t, baselines, "2025-06-01", map[string]float64{"hope": 1.0, "despair": 0.2, "nvda_cash": 1000})
	writeBaseline(t, baselines, "2025-06-02", map[string]float64{"hope": 0.9, "despair": 0.18, "nvda_cash": 1010})
	writeBaseline(t, baselines, "2025-06-03", map[string]float64{"hope": 0.81, "despair": 0.16, "nvda_cash": 1020})

	report, err := runner.RunRetrodictionTest(context.Background(), "2025-06-01", 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 scored days, got %d", len(report.Results))
	}
	if report.RunID == "" {
		t.Fatal("expected a run id")
	}

	// The replay log holds one line per scored day.
	logged, skipped, err := ReadReplayLog(runner.logPath)
	if err != nil {
		t.Fatalf("read replay log: %v", err)
	}
	if skipped != 0 || len(logged) != 2 {
		t.Fatalf("expected 2 clean log lines, got %d (skipped %d)", len(logged), skipped)
	}

	// The counting engine tracks truth closely here, so trust moves up.
	if tracker.SampleSize("hope") == 0 {
		t.Fatal("expected retrodiction to feed the trust tracker")
	}
}

func TestRunRetrodictionTestsFailureIsolation(t *testing.T) {
	runner, baselines := newTestRunner(t, &countingEngine{}, nil)
	writeBaseline(t, baselines, "2025-06-01", map[string]float64{"hope": 1.0})
	writeBaseline(t, baselines, "2025-06-02", map[string]float64{"hope": 0.9})
	// No baseline for 2025-07-01: that date must fail alone.

	reports := runner.RunRetrodictionTests(context.Background(), []string{"2025-06-01", "2025-07-01"}, 1, 2)
	if len(reports) != 2 {
		t.Fatalf("expected a report per date, got %d", len(reports))
	}
	if reports[0].Err != nil {
		t.Fatalf("healthy date failed: %v", reports[0].Err)
	}
	if reports[1].Err == nil {
		t.Fatal("missing baseline date should fail its own report")
	}
}

func TestRunRetrodictionTestsCancelledContext(t *testing.T) {
	runner, _ := newTestRunner(t, &countingEngine{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports := runner.RunRetrodictionTests(ctx, []string{"2025-06-01"}, 1, 1)
	if len(reports) != 1 || reports[0].Err == nil {
		t.Fatalf("cancelled context must not submit new dates: %+v", reports)
	}
}

// cancellingEngine cancels the shared run context during its first step,
// then keeps stepping like countingEngine.
type cancellingEngine struct {
	countingEngine
	cancel context.CancelFunc
	once   sync.Once
}

func (e *cancellingEngine) Step(ctx context.Context, state forecast.State) (forecast.State, error) {
	e.once.Do(e.cancel)
	return e.countingEngine.Step(ctx, state)
}

func TestRunRetrodictionTestsInFlightRunCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &cancellingEngine{cancel: cancel}
	runner, baselines := newTestRunner(t, engine, nil)
	writeBaseline(t, baselines, "2025-06-01", map[string]float64{"hope": 1.0})

	reports := runner.RunRetrodictionTests(ctx, []string{"2025-06-01"}, 3, 1)
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	if reports[0].Err != nil {
		t.Fatalf("in-flight run must complete after cancellation: %v", reports[0].Err)
	}
	if got := engine.calls.Load(); got != 3 {
		t.Fatalf("expected all 3 steps to run, got %d", got)
	}
}

func TestRunRetrodictionTestBadDate(t *testing.T) {
	runner, _ := newTestRunner(t, &countingEngine{}, nil)
	if _, err := runner.RunRetrodictionTest(context.Background(), "not-a-date", 2); err == nil {
		t.Fatal("expected error for unparseable date")
	}
	if _, err := runner.RunRetrodictionTest(context.Background(), "2025-06-01", 0); err == nil {
		t.Fatal("expected error for zero days")
	}
}

// traceRecorder collects snapshots handed to the sink.
type traceRecorder struct {
	snapshots []string
}

func (tr *traceRecorder) OnSnapshot(runID string, step int, state forecast.State) {
	tr.snapshots = append(tr.snapshots, fmt.Sprintf("%s/%d/%s", runID, step, state.Date))
}

func TestTraceSinkReceivesSnapshots(t *testing.T) {
	sink := &traceRecorder{}
	runner, baselines := newTestRunner(t, &countingEngine{}, nil)
	runner.sink = sink
	writeBaseline(t, baselines, "2025-06-01", map[string]float64{"hope": 1.0})

	if _, err := runner.RunRetrodictionTest(context.Background(), "2025-06-01", 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.snapshots) != 2 {
		t.Fatalf("expected one snapshot per simulated day, got %d", len(sink.snapshots))
	}
}
