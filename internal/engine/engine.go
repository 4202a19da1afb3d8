package engine

// #region imports
import (
	"log/slog"

	"github.com/pulsehq/pulse-trust/internal/config"
	"github.com/pulsehq/pulse-trust/internal/logging"
)

// #endregion imports

// #region engine

// Engine tags, scores, and gates forecast candidates, and runs the
// batch-level coherence checks a batch must clear before licensing.
type Engine struct {
	score config.Score
	gate  config.Gate
	log   *slog.Logger
}

// New creates an engine from pipeline configuration.
func New(cfg config.Pipeline) *Engine {
	return &Engine{
		score: cfg.Score,
		gate:  cfg.Gate,
		log:   logging.New("engine"),
	}
}

// #endregion engine

// #region conflict

// Conflict is one contradiction found between two forecasts in a batch.
type Conflict struct {
	IDA    string `json:"id_a"`
	IDB    string `json:"id_b"`
	Reason string `json:"reason"`
}

// #endregion conflict
