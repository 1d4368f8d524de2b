package convert

import (
	"slices"
	"sync"
	"time"
)

type conversion struct {
	at   time.Time
	took time.Duration
	ok   bool
}

// StatsSnapshot aggregates the conversions of the current window. Timings
// cover successful conversions only, retries included.
type StatsSnapshot struct {
	Conversions int     `json:"conversions"`
	Failed      int     `json:"failed"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
}

// Stats keeps conversion outcomes over a rolling window.
type Stats struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	runs   []conversion
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window, now: time.Now}
}

// Record adds one finished conversion.
func (s *Stats) Record(took time.Duration, ok bool) {
	took = max(took, 0)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	s.runs = append(s.runs, conversion{at: now, took: took, ok: ok})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(s.now())

	snap := StatsSnapshot{Conversions: len(s.runs)}
	var ms []int64
	var sum int64
	for _, r := range s.runs {
		if !r.ok {
			snap.Failed++
			continue
		}
		ms = append(ms, r.took.Milliseconds())
		sum += r.took.Milliseconds()
	}
	if len(ms) == 0 {
		return snap
	}
	slices.Sort(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(sum) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	return snap
}

func (s *Stats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.runs) && s.runs[i].at.Before(cutoff) {
		i++
	}
	s.runs = s.runs[i:]
}

// percentile interpolates linearly between the closest ranks of sorted.
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
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
