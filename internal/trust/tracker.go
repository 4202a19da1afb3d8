package trust

// #region imports
import (
	"math"
	"sync"
	"time"
)

// #endregion imports

// #region types

// Point is one timestamped trust sample in a key's history.
type Point struct {
	At    time.Time
	Trust float64
}

// Stat holds the Beta pseudo-counts for one rule or variable. Alpha and Beta
// never drop below 1 (uniform prior); mutation happens only inside a Tracker.
type Stat struct {
	Alpha      float64
	Beta       float64
	LastUpdate time.Time
	History    []Point
}

// Observation is one success/failure sample with an evidence weight.
type Observation struct {
	Success bool
	Weight  float64
}

// Tracker is the reliability store shared by simulation workers, the
// learning loop, and the periodic sweep. Implementations must be safe for
// concurrent use. The default is a single coarse mutex; the interface exists
// so a striped or message-passing variant can replace it without touching
// callers.
type Tracker interface {
	Update(key string, success bool, weight float64)
	BatchUpdate(batch map[string][]Observation)
	Trust(key string) float64
	ConfidenceInterval(key string, z float64) (lo, hi float64)
	SampleSize(key string) int
	ConfidenceStrength(key string) float64
	ApplyDecay(key string, factor float64, minCount int)
	ApplyGlobalDecay(factor float64, minCount int)
	PruneHistory(maxPoints int)
	Export() Snapshot
	Import(snap Snapshot) error
}

// #endregion types

// #region beta-tracker

// BetaTracker is the default Tracker: per-key Beta statistics behind one
// mutex. Updates are plain arithmetic, so lock hold times stay short.
type BetaTracker struct {
	mu    sync.Mutex
	stats map[string]*Stat
	now   func() time.Time
}

// NewTracker returns an empty BetaTracker. Unseen keys implicitly start at
// the uniform prior (alpha=beta=1, trust 0.5).
func NewTracker() *BetaTracker {
	return &BetaTracker{
		stats: make(map[string]*Stat),
		now:   time.Now,
	}
}

// statLocked returns the stat for key, creating it at the prior. Callers
// must hold mu.
func (t *BetaTracker) statLocked(key string) *Stat {
	s, ok := t.stats[key]
	if !ok {
		s = &Stat{Alpha: 1, Beta: 1}
		t.stats[key] = s
	}
	return s
}

// #endregion beta-tracker

// #region update

// Update records one weighted success or failure for key and appends a
// timestamped trust snapshot to its history.
func (t *BetaTracker) Update(key string, success bool, weight float64) {
	if weight <= 0 {
		weight = 1.0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateLocked(key, success, weight)
}

// BatchUpdate applies several observations per key with one lock acquisition
// for the whole batch.
func (t *BetaTracker) BatchUpdate(batch map[string][]Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, obs := range batch {
		for _, o := range obs {
			w := o.Weight
			if w <= 0 {
				w = 1.0
			}
			t.updateLocked(key, o.Success, w)
		}
	}
}

func (t *BetaTracker) updateLocked(key string, success bool, weight float64) {
	s := t.statLocked(key)
	if success {
		s.Alpha += weight
	} else {
		s.Beta += weight
	}
	now := t.now().UTC()
	s.LastUpdate = now
	s.History = append(s.History, Point{At: now, Trust: s.Alpha / (s.Alpha + s.Beta)})
}

// #endregion update

// #region queries

// Trust returns the Beta mean alpha/(alpha+beta); 0.5 for unseen keys.
func (t *BetaTracker) Trust(key string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[key]
	if !ok {
		return 0.5
	}
	return s.Alpha / (s.Alpha + s.Beta)
}

// ConfidenceInterval returns a normal-approximation binomial CI around the
// trust estimate, clamped to [0,1]. z defaults to 1.96 when non-positive.
func (t *BetaTracker) ConfidenceInterval(key string, z float64) (lo, hi float64) {
	if z <= 0 {
		z = 1.96
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[key]
	if !ok {
		return 0, 1
	}
	n := s.Alpha + s.Beta
	p := s.Alpha / n
	half := z * math.Sqrt(p*(1-p)/n)
	lo = p - half
	hi = p + half
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}
	return lo, hi
}

// SampleSize returns the evidence count beyond the prior: alpha+beta-2,
// 0 for unseen keys.
func (t *BetaTracker) SampleSize(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[key]
	if !ok {
		return 0
	}
	return int(s.Alpha + s.Beta - 2)
}

// ConfidenceStrength models how much evidence backs the estimate,
// independent of the estimate itself: sigmoid(0.1*(n-10)), so ~0.5 at ten
// samples and approaching 1 as evidence accumulates.
func (t *BetaTracker) ConfidenceStrength(key string) float64 {
	n := float64(t.SampleSize(key))
	return 1.0 / (1.0 + math.Exp(-0.1*(n-10)))
}

// #endregion queries

// #region decay

// ApplyDecay pulls alpha and beta exponentially toward the uniform prior,
// modeling recency bias. It is a no-op until evidence exceeds minCount and
// never drops either count below 1.
func (t *BetaTracker) ApplyDecay(key string, factor float64, minCount int) {
	if factor <= 0 || factor >= 1 {
		factor = 0.99
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decayLocked(key, factor, minCount)
}

// ApplyGlobalDecay decays every tracked key. Invoked by the periodic sweep.
func (t *BetaTracker) ApplyGlobalDecay(factor float64, minCount int) {
	if factor <= 0 || factor >= 1 {
		factor = 0.99
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.stats {
		t.decayLocked(key, factor, minCount)
	}
}

func (t *BetaTracker) decayLocked(key string, factor float64, minCount int) {
	s, ok := t.stats[key]
	if !ok {
		return
	}
	if s.Alpha+s.Beta <= float64(minCount) {
		return
	}
	s.Alpha = 1 + (s.Alpha-1)*factor
	s.Beta = 1 + (s.Beta-1)*factor
	if s.Alpha < 1 {
		s.Alpha = 1
	}
	if s.Beta < 1 {
		s.Beta = 1
	}
}

// PruneHistory trims each key's history to the most recent maxPoints
// samples. Nothing downstream reads older points; the sweep calls this to
// bound memory.
func (t *BetaTracker) PruneHistory(maxPoints int) {
	if maxPoints <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.stats {
		if len(s.History) > maxPoints {
			s.History = append([]Point(nil), s.History[len(s.History)-maxPoints:]...)
		}
	}
}

// #endregion decay
