package sweep

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

func TestSweepOnceDecaysAndFlushes(t *testing.T) {
	tracker := trust.NewTracker()
	for i := 0; i < 30; i++ {
		tracker.Update("R1", true, 1)
	}
	before := tracker.Trust("R1")

	cfg := config.Default().Sweep
	cfg.DecayFactor = 0.5
	s := New(tracker, cfg)
	s.SnapshotPath = filepath.Join(t.TempDir(), "trust.json")

	retrained := false
	s.Retrain = func(context.Context) { retrained = true }

	s.sweepOnce(context.Background())

	if got := tracker.Trust("R1"); got >= before {
		t.Fatalf("expected decay to move trust toward prior: %v >= %v", got, before)
	}
	if _, err := os.Stat(s.SnapshotPath); err != nil {
		t.Fatalf("expected snapshot flushed: %v", err)
	}
	if !retrained {
		t.Fatal("expected retrain hook invoked")
	}
}

func TestSweepStopsBetweenUnits(t *testing.T) {
	tracker := trust.NewTracker()
	tracker.Update("R1", true, 1)

	s := New(tracker, config.Default().Sweep)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retrained := false
	s.Retrain = func(context.Context) { retrained = true }
	s.sweepOnce(ctx)
	if retrained {
		t.Fatal("cancelled sweep must not start new units")
	}
}

func TestRunExitsOnCancel(t *testing.T) {
	tracker := trust.NewTracker()
	cfg := config.Default().Sweep
	cfg.IntervalSeconds = 1

	s := New(tracker, cfg)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep loop did not exit after cancellation")
	}
}
