package audit

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #endregion imports

// #region schema

const auditSchema = `
CREATE TABLE IF NOT EXISTS forecast_audit (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	schema_version     INTEGER NOT NULL,
	record_id          TEXT NOT NULL UNIQUE,
	forecast_id        TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	alignment_score    REAL NOT NULL,
	confidence         REAL NOT NULL,
	retrodiction_error REAL NOT NULL,
	arc_label          TEXT,
	symbolic_tag       TEXT,
	trust_label        TEXT,
	rule_ids           TEXT,
	components_json    TEXT
);

CREATE INDEX IF NOT EXISTS idx_forecast_audit_forecast
ON forecast_audit(forecast_id);
`

// #endregion schema

// #region sqlite-recorder

// SQLiteRecorder stores the same append-only records in an embedded
// database, proving the Recorder interface can front a real store. Rows are
// inserted, never updated or deleted.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens the database, enables WAL, and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

// Append inserts one audit row.
func (r *SQLiteRecorder) Append(rec Record) error {
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = SchemaVersion
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	ruleIDs, err := json.Marshal(rec.RuleIDs)
	if err != nil {
		return fmt.Errorf("marshal rule ids: %w", err)
	}
	components, err := json.Marshal(rec.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO forecast_audit
		(schema_version, record_id, forecast_id, created_at, alignment_score,
		 confidence, retrodiction_error, arc_label, symbolic_tag, trust_label,
		 rule_ids, components_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SchemaVersion,
		rec.RecordID,
		rec.ForecastID,
		rec.Timestamp.Format(time.RFC3339Nano),
		rec.AlignmentScore,
		rec.Confidence,
		rec.RetrodictionError,
		rec.ArcLabel,
		rec.SymbolicTag,
		rec.TrustLabel,
		string(ruleIDs),
		string(components),
	)
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

// Recent returns the most recent n records, newest first.
func (r *SQLiteRecorder) Recent(n int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT schema_version, record_id, forecast_id, created_at,
		       alignment_score, confidence, retrodiction_error,
		       arc_label, symbolic_tag, trust_label, rule_ids, components_json
		FROM forecast_audit
		ORDER BY id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query audit rows: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdAt, ruleIDs, components string
		if err := rows.Scan(
			&rec.SchemaVersion, &rec.RecordID, &rec.ForecastID, &createdAt,
			&rec.AlignmentScore, &rec.Confidence, &rec.RetrodictionError,
			&rec.ArcLabel, &rec.SymbolicTag, &rec.TrustLabel, &ruleIDs, &components,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.Timestamp = ts
		}
		// Malformed embedded JSON is skipped, not fatal.
		_ = json.Unmarshal([]byte(ruleIDs), &rec.RuleIDs)
		_ = json.Unmarshal([]byte(components), &rec.Components)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// #endregion sqlite-recorder
