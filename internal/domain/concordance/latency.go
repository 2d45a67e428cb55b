package concordance

import (
	"sort"
	"sync"
	"time"
)

// Latency window defaults.
const (
	DefaultLatencyWindow = 5 * time.Minute
	minLatencySamples    = 5
)

// LatencyTracker collects request durations and reports the P50 over a
// rolling window. Safe for concurrent use.
type LatencyTracker struct {
	window time.Duration

	mu      sync.Mutex
	samples []latencySample
}

type latencySample struct {
	ts time.Time
	d  time.Duration
}

// LatencySummary is a point-in-time view of a tracker.
type LatencySummary struct {
	Samples int           // samples inside the window
	P50     time.Duration // 0 until enough samples
	Max     time.Duration
}

// NewLatencyTracker creates a tracker with the given rolling window.
func NewLatencyTracker(window time.Duration) *LatencyTracker {
	if window <= 0 {
		window = DefaultLatencyWindow
	}
	return &LatencyTracker{window: window}
}

// RecordAt adds a sample taken at ts. Eviction assumes samples arrive
// roughly in time order.
func (t *LatencyTracker) RecordAt(ts time.Time, d time.Duration) {
	if d < 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, latencySample{ts: ts, d: d})
	t.evict(ts)
}

// SummaryAt reports the samples inside the window ending at now. P50 is
// zero while fewer than five samples are available.
func (t *LatencyTracker) SummaryAt(now time.Time) LatencySummary {
	t.mu.Lock()
	t.evict(now)
	ds := make([]time.Duration, len(t.samples))
	for i, s := range t.samples {
		ds[i] = s.d
	}
	t.mu.Unlock()

	sum := LatencySummary{Samples: len(ds)}
	if len(ds) == 0 {
		return sum
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	sum.Max = ds[len(ds)-1]
	if len(ds) >= minLatencySamples {
		sum.P50 = ds[len(ds)/2]
	}
	return sum
}

// evict removes samples older than the window. Caller holds mu.
func (t *LatencyTracker) evict(now time.Time) {
	cutoff := now.Add(-t.window)
	i := 0
	for i < len(t.samples) && t.samples[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.samples = t.samples[i:]
	}
}
