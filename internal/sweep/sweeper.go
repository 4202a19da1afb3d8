package sweep

// #region imports
import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/logging"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

// #endregion imports

// #region sweeper

// Sweeper is the long-running maintenance loop: each tick it applies global
// trust decay, prunes trust history, flushes a snapshot, and invokes the
// optional retraining hook. It checks the shutdown signal between bounded
// units of work — on cancellation the current unit completes and no new one
// starts.
type Sweeper struct {
	tracker *trust.BetaTracker
	cfg     config.Sweep
	log     *slog.Logger

	// SnapshotPath, when set, receives a trust snapshot every tick.
	SnapshotPath string
	// Retrain, when set, runs as the tick's final unit (continuous
	// retraining is scheduled here, implemented by the learning loop).
	Retrain func(ctx context.Context)
}

// New creates a sweeper over the given tracker.
func New(tracker *trust.BetaTracker, cfg config.Sweep) *Sweeper {
	return &Sweeper{
		tracker: tracker,
		cfg:     cfg,
		log:     logging.New("sweep"),
	}
}

// #endregion sweeper

// #region run

// Run blocks until ctx is cancelled, sweeping once per configured interval.
// The first sweep happens immediately.
func (s *Sweeper) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep loop stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce runs one tick's units, checking for shutdown between units.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	s.tracker.ApplyGlobalDecay(s.cfg.DecayFactor, s.cfg.DecayMinCount)
	if ctx.Err() != nil {
		return
	}

	s.tracker.PruneHistory(s.cfg.HistoryMaxPoints)
	if ctx.Err() != nil {
		return
	}

	if s.SnapshotPath != "" {
		if err := s.tracker.ExportToFile(s.SnapshotPath); err != nil {
			s.log.Warn("trust snapshot flush failed", "path", s.SnapshotPath, "error", err)
		}
	}
	if ctx.Err() != nil {
		return
	}

	if s.Retrain != nil {
		s.Retrain(ctx)
	}
}

// #endregion run
