package retro

// #region imports
import (
	"log/slog"
	"sync"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/forecast"
	"github.com/pulsehq/pulse-trust/internal/logging"
	"github.com/pulsehq/pulse-trust/internal/registry"
	"github.com/pulsehq/pulse-trust/internal/sim"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

// #endregion imports

// #region types

// Result is one simulated day's divergence from ground truth. Appended to
// the replay log, one JSON line per day.
type Result struct {
	SimDate    string  `json:"sim_date"`
	ErrorScore float64 `json:"error_score"`
}

// RunReport summarizes one date's full retrodiction run.
type RunReport struct {
	RunID     string   `json:"run_id"`
	StartDate string   `json:"start_date"`
	Days      int      `json:"days"`
	Results   []Result `json:"results"`
	MeanError float64  `json:"mean_error"`
	Err       error    `json:"-"`
}

// TraceSink receives each simulated day's snapshot for external audit.
type TraceSink interface {
	OnSnapshot(runID string, step int, state forecast.State)
}

// #endregion types

// #region runner

// Runner reconstructs historical baselines, replays the forward simulation
// with snapshot caching, and scores divergence from ground truth.
type Runner struct {
	engine  sim.Engine
	schema  registry.Schema
	tracker trust.Tracker // optional; error scores feed the learning loop
	sink    TraceSink     // optional
	cfg     config.Retro
	log     *slog.Logger

	baselineDir string
	cacheDir    string

	logMu   sync.Mutex
	logPath string
}

// Options configures a Runner. Engine and BaselineDir are required; the
// rest have working defaults.
type Options struct {
	Engine      sim.Engine
	Schema      registry.Schema
	Tracker     trust.Tracker
	Sink        TraceSink
	Config      config.Retro
	BaselineDir string
	CacheDir    string
	ReplayLog   string
}

// NewRunner wires a runner from options. A nil schema falls back to the
// built-in registry defaults.
func NewRunner(opts Options) *Runner {
	schema := opts.Schema
	if schema == nil {
		schema = registry.DefaultSchema()
	}
	return &Runner{
		engine:      opts.Engine,
		schema:      schema,
		tracker:     opts.Tracker,
		sink:        opts.Sink,
		cfg:         opts.Config,
		log:         logging.New("retro"),
		baselineDir: opts.BaselineDir,
		cacheDir:    opts.CacheDir,
		logPath:     opts.ReplayLog,
	}
}

// #endregion runner
