package config

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// #endregion imports

// #region pipeline-config

// Pipeline bundles the threshold/weight configuration for every scoring
// stage. Zero values fall back to the package defaults on Load.
type Pipeline struct {
	Score   Score   `json:"score" yaml:"score"`
	Gate    Gate    `json:"gate" yaml:"gate"`
	Align   Align   `json:"align" yaml:"align"`
	License License `json:"license" yaml:"license"`
	Retro   Retro   `json:"retro" yaml:"retro"`
	Sweep   Sweep   `json:"sweep" yaml:"sweep"`
}

// Score configures TrustEngine forecast scoring.
type Score struct {
	StabilityWeight float64 `json:"stability_weight" yaml:"stability_weight"`
	SignalWeight    float64 `json:"signal_weight" yaml:"signal_weight"`
	NoveltyWeight   float64 `json:"novelty_weight" yaml:"novelty_weight"`
	MinConfidence   float64 `json:"min_confidence" yaml:"min_confidence"`
	CapitalScale    float64 `json:"capital_scale" yaml:"capital_scale"`

	// Risk blend. The split is empirically tuned, not load-bearing; it is
	// config so product review can move it without a release.
	RiskVolatilityWeight float64 `json:"risk_volatility_weight" yaml:"risk_volatility_weight"`
	RiskHistoricalWeight float64 `json:"risk_historical_weight" yaml:"risk_historical_weight"`
	RiskAdjustmentWeight float64 `json:"risk_adjustment_weight" yaml:"risk_adjustment_weight"`
}

// Gate configures the 3-state confidence gate.
type Gate struct {
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	FragilityThreshold  float64 `json:"fragility_threshold" yaml:"fragility_threshold"`
	RiskThreshold       float64 `json:"risk_threshold" yaml:"risk_threshold"`
}

// Align configures the composite alignment index.
type Align struct {
	ConfidenceWeight   float64  `json:"confidence_weight" yaml:"confidence_weight"`
	RetrodictionWeight float64  `json:"retrodiction_weight" yaml:"retrodiction_weight"`
	ArcStabilityWeight float64  `json:"arc_stability_weight" yaml:"arc_stability_weight"`
	TagTrustWeight     float64  `json:"tag_trust_weight" yaml:"tag_trust_weight"`
	NoveltyWeight      float64  `json:"novelty_weight" yaml:"novelty_weight"`
	TrustedTags        []string `json:"trusted_tags" yaml:"trusted_tags"`
}

// License configures the licensing gate minimums. MinAlignment is on the
// 0-100 alignment index scale.
type License struct {
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
	MinAlignment  float64 `json:"min_alignment" yaml:"min_alignment"`
}

// Retro configures retrodiction runs.
type Retro struct {
	OverlayWeight float64 `json:"overlay_weight" yaml:"overlay_weight"`
	CapitalWeight float64 `json:"capital_weight" yaml:"capital_weight"`
	CapitalScale  float64 `json:"capital_scale" yaml:"capital_scale"`
	ErrorThreshold float64 `json:"error_threshold" yaml:"error_threshold"`
	Workers       int     `json:"workers" yaml:"workers"`
}

// Sweep configures the background maintenance loop.
type Sweep struct {
	IntervalSeconds  int     `json:"interval_seconds" yaml:"interval_seconds"`
	DecayFactor      float64 `json:"decay_factor" yaml:"decay_factor"`
	DecayMinCount    int     `json:"decay_min_count" yaml:"decay_min_count"`
	HistoryMaxPoints int     `json:"history_max_points" yaml:"history_max_points"`
}

// #endregion pipeline-config

// #region defaults

// Default returns the stock pipeline configuration.
func Default() Pipeline {
	return Pipeline{
		Score: Score{
			StabilityWeight:      0.4,
			SignalWeight:         0.4,
			NoveltyWeight:        0.2,
			MinConfidence:        0.1,
			CapitalScale:         1000,
			RiskVolatilityWeight: 0.5,
			RiskHistoricalWeight: 0.3,
			RiskAdjustmentWeight: 0.2,
		},
		Gate: Gate{
			ConfidenceThreshold: 0.5,
			FragilityThreshold:  0.7,
			RiskThreshold:       0.5,
		},
		Align: Align{
			ConfidenceWeight:   0.3,
			RetrodictionWeight: 0.25,
			ArcStabilityWeight: 0.2,
			TagTrustWeight:     0.15,
			NoveltyWeight:      0.1,
			TrustedTags:        []string{"Hope", "Neutral"},
		},
		License: License{
			MinConfidence: 0.5,
			MinAlignment:  75,
		},
		Retro: Retro{
			OverlayWeight:  1.0,
			CapitalWeight:  1.0,
			CapitalScale:   1000,
			ErrorThreshold: 1.5,
			Workers:        4,
		},
		Sweep: Sweep{
			IntervalSeconds:  300,
			DecayFactor:      0.99,
			DecayMinCount:    5,
			HistoryMaxPoints: 256,
		},
	}
}

// #endregion defaults

// #region load

// LoadFromPath reads a pipeline config (YAML or JSON by extension) and fills
// unset sections from Default.
func LoadFromPath(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a pipeline config from bytes. Unmarshalling happens over
// Default(), so absent fields keep their defaults while explicitly configured
// values — zeros included — are honored.
func Load(data []byte, ext string) (Pipeline, error) {
	p := Default()
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" && strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		ext = ".json"
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return Pipeline{}, fmt.Errorf("parse config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Pipeline{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	return p, nil
}

// #endregion load
