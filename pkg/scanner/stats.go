package scanner

import (
	"sync"
	"time"
)

// responseWeight is the exponential moving average weight for new samples.
const responseWeight = 0.3

// PerformanceStats holds scan-wide counters read by the concurrency
// feedback loop. The request engine writes it through the observer hook,
// one sample per HTTP request, so the controller's response thresholds
// compare against single-request latencies rather than whole parameter
// tests. One instance per scan, never shared across scans.
type PerformanceStats struct {
	mu          sync.Mutex
	total       int64
	failed      int64
	avgResponse time.Duration
	findings    int
}

// StatsSnapshot is a consistent read of the counters.
type StatsSnapshot struct {
	Total       int64
	Failed      int64
	ErrorRate   float64
	AvgResponse time.Duration
	Findings    int
}

// ObserveRequest feeds one request outcome from the request engine into
// the feedback counters. Implements requester.Observer.
func (s *PerformanceStats) ObserveRequest(status int, elapsed time.Duration, errKind string) {
	s.Record(elapsed, errKind != "")
}

// Record adds one request outcome with its response time.
func (s *PerformanceStats) Record(elapsed time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if failed {
		s.failed++
		return
	}
	if elapsed <= 0 {
		return
	}
	if s.avgResponse == 0 {
		s.avgResponse = elapsed
		return
	}
	s.avgResponse = time.Duration((1-responseWeight)*float64(s.avgResponse) + responseWeight*float64(elapsed))
}

// AddFindings counts confirmed findings.
func (s *PerformanceStats) AddFindings(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings += n
}

// Snapshot returns the current counters.
func (s *PerformanceStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		Total:       s.total,
		Failed:      s.failed,
		AvgResponse: s.avgResponse,
		Findings:    s.findings,
	}
	if s.total > 0 {
		snap.ErrorRate = float64(s.failed) / float64(s.total)
	}
	return snap
}
