package trust

// #region imports
import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// #endregion imports

// #region snapshot

// Snapshot is the durable wire form of a tracker's full state. Timestamps
// are epoch seconds; trust history rides as [epoch, trust] pairs.
type Snapshot struct {
	Stats      map[string][2]float64   `json:"stats"`
	LastUpdate map[string]int64        `json:"last_update"`
	Timestamps map[string][][2]float64 `json:"timestamps"`
	ExportTime string                  `json:"export_time"`
}

// #endregion snapshot

// #region export

// Export copies the tracker's full state under lock.
func (t *BetaTracker) Export() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Stats:      make(map[string][2]float64, len(t.stats)),
		LastUpdate: make(map[string]int64, len(t.stats)),
		Timestamps: make(map[string][][2]float64, len(t.stats)),
		ExportTime: t.now().UTC().Format(time.RFC3339),
	}
	for key, s := range t.stats {
		snap.Stats[key] = [2]float64{s.Alpha, s.Beta}
		if !s.LastUpdate.IsZero() {
			snap.LastUpdate[key] = s.LastUpdate.Unix()
		}
		points := make([][2]float64, 0, len(s.History))
		for _, p := range s.History {
			points = append(points, [2]float64{float64(p.At.Unix()), p.Trust})
		}
		snap.Timestamps[key] = points
	}
	return snap
}

// ExportToFile writes the snapshot as one JSON document.
func (t *BetaTracker) ExportToFile(path string) error {
	snap := t.Export()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal trust snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trust snapshot: %w", err)
	}
	return nil
}

// #endregion export

// #region import

// Import replaces the tracker's state with the snapshot's. The snapshot is
// validated in full before any mutation: a malformed snapshot returns an
// error and leaves the in-memory state untouched.
func (t *BetaTracker) Import(snap Snapshot) error {
	rebuilt := make(map[string]*Stat, len(snap.Stats))
	for key, ab := range snap.Stats {
		if key == "" {
			return fmt.Errorf("import trust snapshot: empty key")
		}
		if !validCount(ab[0]) || !validCount(ab[1]) {
			return fmt.Errorf("import trust snapshot: key %q has invalid counts (%v, %v)", key, ab[0], ab[1])
		}
		s := &Stat{Alpha: ab[0], Beta: ab[1]}
		if epoch, ok := snap.LastUpdate[key]; ok && epoch > 0 {
			s.LastUpdate = time.Unix(epoch, 0).UTC()
		}
		for _, p := range snap.Timestamps[key] {
			if math.IsNaN(p[1]) || p[1] < 0 || p[1] > 1 {
				return fmt.Errorf("import trust snapshot: key %q has trust %v outside [0,1]", key, p[1])
			}
			s.History = append(s.History, Point{At: time.Unix(int64(p[0]), 0).UTC(), Trust: p[1]})
		}
		rebuilt[key] = s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = rebuilt
	return nil
}

// validCount reports whether a pseudo-count is a finite float at or above the
// uniform prior. NaN compares false against everything, so it is checked
// explicitly.
func validCount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 1
}

// ImportFromFile loads a snapshot file written by ExportToFile. Parse or
// validation failures leave the current state in place.
func (t *BetaTracker) ImportFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read trust snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse trust snapshot: %w", err)
	}
	return t.Import(snap)
}

// #endregion import
