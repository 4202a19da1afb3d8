package main

// #region imports
import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/logging"
	"github.com/pulsehq/pulse-trust/internal/registry"
	"github.com/pulsehq/pulse-trust/internal/retro"
	"github.com/pulsehq/pulse-trust/internal/sim"
	"github.com/pulsehq/pulse-trust/internal/sweep"
	"github.com/pulsehq/pulse-trust/internal/trust"
)

// #endregion imports

// #region main

func main() {
	start := flag.String("start", "", "single start date (YYYY-MM-DD)")
	dates := flag.String("dates", "", "comma-separated start dates (parallel mode)")
	days := flag.Int("days", 7, "days to simulate per start date")
	workers := flag.Int("workers", 0, "worker pool size (0 = config default)")
	baselineDir := flag.String("baseline-dir", "baselines", "directory of <date>.json baseline files")
	cacheDir := flag.String("cache-dir", "retro_cache", "snapshot cache directory")
	replayLog := flag.String("log", "retrodiction_log.jsonl", "replay log path")
	schemaPath := flag.String("schema", "", "variable registry file (YAML/JSON; built-in default when empty)")
	configPath := flag.String("config", "", "pipeline config file")
	trustOut := flag.String("trust-out", "", "trust snapshot path (written after the run)")
	withSweep := flag.Bool("sweep", false, "run the maintenance sweep loop while tests execute")
	flag.Parse()

	logging.Init(slog.LevelInfo, "text")

	if *start == "" && *dates == "" {
		fmt.Fprintln(os.Stderr, "usage: retrodict --start 2025-06-01 --days 7")
		fmt.Fprintln(os.Stderr, "       retrodict --dates 2025-06-01,2025-06-08 --days 7 --workers 4")
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	schema := registry.DefaultSchema()
	if *schemaPath != "" {
		loaded, err := registry.LoadFromPath(*schemaPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load schema: %v\n", err)
			os.Exit(2)
		}
		schema = loaded
	}

	tracker := trust.NewTracker()
	runner := retro.NewRunner(retro.Options{
		Engine:      &sim.LinearEngine{},
		Schema:      schema,
		Tracker:     tracker,
		Config:      cfg.Retro,
		BaselineDir: *baselineDir,
		CacheDir:    *cacheDir,
		ReplayLog:   *replayLog,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *withSweep {
		sweeper := sweep.New(tracker, cfg.Sweep)
		sweeper.SnapshotPath = *trustOut
		go sweeper.Run(ctx)
	}

	code := run(ctx, runner, *start, *dates, *days, *workers)
	if *trustOut != "" {
		if err := tracker.ExportToFile(*trustOut); err != nil {
			fmt.Fprintf(os.Stderr, "export trust snapshot: %v\n", err)
		}
	}
	os.Exit(code)
}

// #endregion main

// #region run

func run(ctx context.Context, runner *retro.Runner, start, dates string, days, workers int) int {
	var list []string
	if dates != "" {
		for _, d := range strings.Split(dates, ",") {
			if d = strings.TrimSpace(d); d != "" {
				list = append(list, d)
			}
		}
	} else {
		list = []string{start}
	}

	reports := runner.RunRetrodictionTests(ctx, list, days, workers)

	failed := 0
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			fmt.Printf("%s: FAILED (%v)\n", rep.StartDate, rep.Err)
			continue
		}
		fmt.Printf("%s: %d days scored, mean error %.4f\n", rep.StartDate, len(rep.Results), rep.MeanError)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

// #endregion run
