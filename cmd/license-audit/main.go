package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pulsehq/pulse-trust/internal/align"
	"github.com/pulsehq/pulse-trust/internal/audit"
	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/engine"
	"github.com/pulsehq/pulse-trust/internal/forecast"
	"github.com/pulsehq/pulse-trust/internal/license"
	"github.com/pulsehq/pulse-trust/internal/logging"
)

// #endregion imports

// #region batch-file

// batchFile is the on-disk shape the simulation engine hands over: the
// forecast candidates plus the worldstate and memory they were drawn from.
type batchFile struct {
	Forecasts    []*forecast.Forecast   `json:"forecasts"`
	CurrentState *forecast.State        `json:"current_state,omitempty"`
	Memory       []forecast.MemoryEntry `json:"memory,omitempty"`
}

// #endregion batch-file

// #region main

func main() {
	inPath := flag.String("in", "", "forecast batch JSON file")
	auditPath := flag.String("audit", "forecast_audit.jsonl", "audit trail output (.jsonl or .db)")
	configPath := flag.String("config", "", "pipeline config file")
	flag.Parse()

	logging.Init(slog.LevelInfo, "text")

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: license-audit --in batch.json [--audit trail.jsonl] [--config pipeline.yaml]")
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

	data, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read batch: %v\n", err)
		os.Exit(2)
	}
	var batch batchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		fmt.Fprintf(os.Stderr, "parse batch: %v\n", err)
		os.Exit(2)
	}

	recorder, err := openRecorder(*auditPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit trail: %v\n", err)
		os.Exit(2)
	}
	defer recorder.Close()

	os.Exit(run(cfg, batch, recorder))
}

// openRecorder picks the audit backend by extension: .db is the embedded
// store, anything else the JSONL file.
func openRecorder(path string) (audit.Recorder, error) {
	if strings.HasSuffix(path, ".db") {
		return audit.NewSQLiteRecorder(path)
	}
	return audit.NewFileRecorder(path)
}

// #endregion main

// #region run

func run(cfg config.Pipeline, batch batchFile, recorder audit.Recorder) int {
	eng := engine.New(cfg)
	scorer := align.New(cfg.Align)
	gate := license.New(cfg.License)

	eng.ApplyAll(batch.Forecasts, engine.ApplyAllOptions{
		Memory:         batch.Memory,
		CurrentState:   batch.CurrentState,
		RetroThreshold: cfg.Retro.ErrorThreshold,
		OverlayWeight:  cfg.Retro.OverlayWeight,
		CapitalWeight:  cfg.Retro.CapitalWeight,
		CapitalScale:   cfg.Retro.CapitalScale,
	})

	report := eng.CheckForecastCoherence(batch.Forecasts, cfg.Retro.CapitalScale, cfg.Retro.ErrorThreshold)
	for _, issue := range report.Issues {
		fmt.Printf("coherence: %s\n", issue)
	}

	for _, f := range batch.Forecasts {
		if f == nil {
			continue
		}
		scorer.ComputeAlignmentIndex(f, align.Input{
			CurrentState:  batch.CurrentState,
			Memory:        batch.Memory,
			OverlayWeight: cfg.Retro.OverlayWeight,
			CapitalWeight: cfg.Retro.CapitalWeight,
			CapitalScale:  cfg.Retro.CapitalScale,
		})
	}

	counts := gate.LicenseBatch(batch.Forecasts)
	for status, n := range counts {
		fmt.Printf("%s: %d\n", status, n)
	}

	for _, f := range batch.Forecasts {
		rec, err := audit.FromForecast(f)
		if err != nil {
			continue
		}
		if err := recorder.Append(rec); err != nil {
			fmt.Fprintf(os.Stderr, "audit append %s: %v\n", f.TraceID, err)
		}
	}

	if !report.Passed {
		return 1
	}
	return 0
}

// #endregion run
