package metrics

import (
	"slices"
	"sync"
	"time"
)

type observation struct {
	at  time.Time
	dur time.Duration
	ok  bool
}

// Snapshot aggregates the builds recorded within the window.
type Snapshot struct {
	Count    int       `json:"count"`
	Failures int       `json:"failures"`
	MinMs    int64     `json:"min_ms"`
	MaxMs    int64     `json:"max_ms"`
	AvgMs    float64   `json:"avg_ms"`
	P50Ms    float64   `json:"p50_ms"`
	P95Ms    float64   `json:"p95_ms"`
	P99Ms    float64   `json:"p99_ms"`
	LastAt   time.Time `json:"last_at,omitzero"`
}

// LatencyStats records build durations and reports over a rolling window.
// Failed builds count toward Failures but not toward the latency figures.
type LatencyStats struct {
	mu     sync.Mutex
	obs    []observation
	window time.Duration
	now    func() time.Time
}

func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{
		obs:    make([]observation, 0, 64),
		window: window,
		now:    time.Now,
	}
}

// Record adds one build. Negative durations are clamped to zero.
func (s *LatencyStats) Record(d time.Duration, err error) {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.obs = append(s.obs, observation{at: now, dur: d, ok: err == nil})
}

// Time runs fn and records how long it took.
func (s *LatencyStats) Time(fn func() error) error {
	start := s.now()
	err := fn()
	s.Record(s.now().Sub(start), err)
	return err
}

func (s *LatencyStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.obs) == 0 {
		return Snapshot{}
	}

	snap := Snapshot{LastAt: s.obs[len(s.obs)-1].at}
	values := make([]int64, 0, len(s.obs))
	var sum int64
	for _, o := range s.obs {
		if !o.ok {
			snap.Failures++
			continue
		}
		ms := o.dur.Milliseconds()
		values = append(values, ms)
		sum += ms
	}
	snap.Count = len(values)
	if len(values) == 0 {
		return snap
	}
	slices.Sort(values)

	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.obs = slices.DeleteFunc(s.obs, func(o observation) bool {
		return o.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
