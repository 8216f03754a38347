// Package ratelimit provides adaptive per-host rate limiting for scan traffic.
// Each host gets its own token bucket whose refill rate moves with the host's
// observed health: errors shrink it, sustained fast responses grow it back.
package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sqlscout/sqlscout/pkg/duration"
)

// Rate adjustment bounds. The current rate never leaves
// [MinRate, MaxRateFactor*base] no matter how feedback arrives.
const (
	// MinRate is the floor for any host's request rate (req/s)
	MinRate = 0.1

	// MaxRateFactor caps recovery at a multiple of the configured base rate
	MaxRateFactor = 5.0

	// speedupFactor is applied after a healthy streak
	speedupFactor = 1.2

	// criticalSlowdown halves the rate on a critical error
	criticalSlowdown = 0.5

	// transientSlowdown is applied after repeated transient errors
	transientSlowdown = 0.7

	// transientSlowdownAfter is how many consecutive errors trigger a slowdown
	transientSlowdownAfter = 3

	// speedupAfter is how many consecutive fast successes trigger a speedup
	speedupAfter = 5

	// responseWindow is the rolling response-time sample size per host
	responseWindow = 10

	// maxBackoffScale caps the critical-error multiplier on backoff pauses
	maxBackoffScale = 3.5
)

// Config holds rate limiter configuration.
type Config struct {
	// BaseRate is the starting request rate per host in req/s (default: 2)
	BaseRate float64

	// Burst is the token bucket capacity (default: 5)
	Burst float64
}

// DefaultConfig returns defaults tuned for polite scanning.
func DefaultConfig() Config {
	return Config{
		BaseRate: 2,
		Burst:    5,
	}
}

// Limiter is an adaptive per-host rate limiter. All methods are safe for
// concurrent use; state for different hosts is fully independent.
type Limiter struct {
	cfg Config

	mu    sync.RWMutex
	hosts map[string]*hostState
}

// hostState carries the adaptive token bucket for a single host.
type hostState struct {
	mu sync.Mutex

	rate       float64 // current refill rate, req/s
	tokens     float64
	burst      float64
	lastRefill time.Time

	consecutiveErrors    int
	criticalErrors       int
	consecutiveSuccesses int
	backoffPending       bool

	respTimes []time.Duration
}

// Snapshot describes a host's current limiter state.
type Snapshot struct {
	Rate                 float64
	ConsecutiveErrors    int
	CriticalErrors       int
	ConsecutiveSuccesses int
	AvgResponse          time.Duration
}

// New creates an adaptive limiter. Zero config values get defaults.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.BaseRate <= 0 {
		cfg.BaseRate = def.BaseRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	return &Limiter{
		cfg:   cfg,
		hosts: make(map[string]*hostState),
	}
}

// BaseRate returns the configured starting rate.
func (l *Limiter) BaseRate() float64 { return l.cfg.BaseRate }

func (l *Limiter) host(host string) *hostState {
	l.mu.RLock()
	hs, ok := l.hosts[host]
	l.mu.RUnlock()
	if ok {
		return hs
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if hs, ok = l.hosts[host]; ok {
		return hs
	}
	hs = &hostState{
		rate:       l.cfg.BaseRate,
		tokens:     l.cfg.Burst,
		burst:      l.cfg.Burst,
		lastRefill: time.Now(),
	}
	l.hosts[host] = hs
	return hs
}

// Acquire takes one token for host if available. It never blocks.
func (l *Limiter) Acquire(host string) bool {
	hs := l.host(host)
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.refillLocked(time.Now())
	if hs.tokens >= 1 {
		hs.tokens--
		return true
	}
	return false
}

func (hs *hostState) refillLocked(now time.Time) {
	elapsed := now.Sub(hs.lastRefill).Seconds()
	hs.lastRefill = now
	hs.tokens += elapsed * hs.rate
	if hs.tokens > hs.burst {
		hs.tokens = hs.burst
	}
}

// Wait blocks until a token is available for host or ctx is done.
// After a critical error, the first Wait serves a backoff pause before
// polling resumes, so the host gets breathing room.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	hs := l.host(host)

	var timer *time.Timer
	sleep := func(d time.Duration) error {
		if timer == nil {
			timer = time.NewTimer(d)
			defer timer.Stop()
		} else {
			timer.Reset(d)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}

	if pause := hs.takeBackoff(); pause > 0 {
		if err := sleep(pause); err != nil {
			return err
		}
	}

	for {
		hs.mu.Lock()
		hs.refillLocked(time.Now())
		if hs.tokens >= 1 {
			hs.tokens--
			hs.mu.Unlock()
			return nil
		}
		rate := hs.rate
		avg := hs.avgResponseLocked()
		hs.mu.Unlock()

		wait := time.Duration(float64(time.Second) / rate * jitter(1.0, 1.2))
		if avg > duration.SlowResponse {
			scale := math.Min(3, avg.Seconds()/2)
			wait = time.Duration(float64(wait) * scale)
		}
		if err := sleep(wait); err != nil {
			return err
		}
	}
}

// takeBackoff consumes a pending error backoff and returns its length.
func (hs *hostState) takeBackoff() time.Duration {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if !hs.backoffPending || hs.consecutiveErrors == 0 {
		return 0
	}
	hs.backoffPending = false

	seconds := math.Min(
		duration.BackoffCap.Seconds(),
		math.Pow(2, float64(hs.consecutiveErrors-1)),
	)
	pause := seconds * jitter(0.75, 1.25)
	if hs.criticalErrors > 0 {
		scale := math.Min(maxBackoffScale, 1+0.5*float64(hs.criticalErrors))
		pause *= scale
	}
	return time.Duration(pause * float64(time.Second))
}

// ReportSuccess records a completed request and its elapsed time.
// A streak of fast successes raises the rate up to MaxRateFactor*base.
func (l *Limiter) ReportSuccess(host string, elapsed time.Duration) {
	hs := l.host(host)
	hs.mu.Lock()
	defer hs.mu.Unlock()

	hs.consecutiveErrors = 0
	hs.criticalErrors = 0
	hs.backoffPending = false
	hs.consecutiveSuccesses++

	hs.respTimes = append(hs.respTimes, elapsed)
	if len(hs.respTimes) > responseWindow {
		hs.respTimes = hs.respTimes[len(hs.respTimes)-responseWindow:]
	}

	if hs.consecutiveSuccesses >= speedupAfter && hs.avgResponseLocked() < duration.FastResponse {
		hs.rate = math.Min(hs.rate*speedupFactor, l.cfg.BaseRate*MaxRateFactor)
	}
}

// ReportError records a failed request. Critical errors halve the rate and
// arm a backoff pause; repeated transient errors apply a gentler slowdown.
func (l *Limiter) ReportError(host string, critical bool) {
	hs := l.host(host)
	hs.mu.Lock()
	defer hs.mu.Unlock()

	hs.consecutiveSuccesses = 0
	hs.consecutiveErrors++
	hs.backoffPending = true

	if critical {
		hs.criticalErrors++
		hs.rate = math.Max(hs.rate*criticalSlowdown, MinRate)
		return
	}
	if hs.consecutiveErrors >= transientSlowdownAfter {
		hs.rate = math.Max(hs.rate*transientSlowdown, MinRate)
	}
}

// Snapshot returns the current state for host.
func (l *Limiter) Snapshot(host string) Snapshot {
	hs := l.host(host)
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return Snapshot{
		Rate:                 hs.rate,
		ConsecutiveErrors:    hs.consecutiveErrors,
		CriticalErrors:       hs.criticalErrors,
		ConsecutiveSuccesses: hs.consecutiveSuccesses,
		AvgResponse:          hs.avgResponseLocked(),
	}
}

// HostCount returns how many hosts have limiter state.
func (l *Limiter) HostCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.hosts)
}

// ClearHost drops the state for a host. Long-running scans call this after
// a host is finished to keep the map bounded.
func (l *Limiter) ClearHost(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hosts, host)
}

func (hs *hostState) avgResponseLocked() time.Duration {
	if len(hs.respTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range hs.respTimes {
		total += d
	}
	return total / time.Duration(len(hs.respTimes))
}

func jitter(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}
