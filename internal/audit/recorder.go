package audit

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehq/pulse-trust/internal/forecast"
)

// #endregion imports

// #region record

// SchemaVersion tags every audit record so a future embedded store can sit
// behind the same Recorder without a migration guessing game.
const SchemaVersion = 1

// Record is one per-forecast scoring entry in the append-only audit trail.
type Record struct {
	SchemaVersion     int                `json:"schema_version"`
	RecordID          string             `json:"record_id"`
	ForecastID        string             `json:"forecast_id"`
	Timestamp         time.Time          `json:"timestamp"`
	AlignmentScore    float64            `json:"alignment_score"`
	Confidence        float64            `json:"confidence"`
	RetrodictionError float64            `json:"retrodiction_error"`
	ArcLabel          string             `json:"arc_label"`
	SymbolicTag       string             `json:"symbolic_tag"`
	TrustLabel        string             `json:"trust_label"`
	RuleIDs           []string           `json:"rule_ids,omitempty"`
	Components        map[string]float64 `json:"components,omitempty"`
}

// FromForecast builds the audit record for one scored forecast.
func FromForecast(f *forecast.Forecast) (Record, error) {
	if f == nil {
		return Record{}, forecast.ErrNilForecast
	}
	return Record{
		SchemaVersion:     SchemaVersion,
		RecordID:          uuid.New().String(),
		ForecastID:        f.TraceID,
		Timestamp:         time.Now().UTC(),
		AlignmentScore:    f.Alignment(0),
		Confidence:        f.Confidence,
		RetrodictionError: f.Retrodiction(0),
		ArcLabel:          f.ArcLabel,
		SymbolicTag:       f.SymbolicTag,
		TrustLabel:        string(f.TrustLabel),
		RuleIDs:           f.RuleIDs,
		Components:        f.Components,
	}, nil
}

// #endregion record

// #region recorder

// Recorder is the append-only audit sink. Implementations must serialize
// concurrent appends themselves (single-writer-per-file discipline).
type Recorder interface {
	Append(rec Record) error
	Close() error
}

// #endregion recorder

// #region file-recorder

// FileRecorder appends one JSON line per record to a single file. A mutex
// keeps appends whole; partial interleaved records would corrupt the trail.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileRecorder opens (or creates) the audit trail file for appending.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}
	return &FileRecorder{file: f}, nil
}

// Append writes one record as a JSON line.
func (r *FileRecorder) Append(rec Record) error {
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = SchemaVersion
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Close flushes and closes the trail file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// #endregion file-recorder

// #region read-trail

// ReadTrail loads every parseable record from a JSONL audit trail. Malformed
// lines are skipped and counted, not fatal: the batch continues on what it
// can read.
func ReadTrail(path string) (records []Record, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read audit trail: %w", err)
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
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// #endregion read-trail
