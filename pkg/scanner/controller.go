package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/sqlscout/sqlscout/pkg/duration"
)

// Error-rate thresholds for the feedback loop.
const (
	errRateOverloaded = 0.2
	errRateDegraded   = 0.1
	errRateHealthy    = 0.05
)

// Chunk size bounds for the orchestrator's batches.
const (
	minChunkSize = 10
	maxChunkSize = 50
)

// ControllerConfig bounds the feedback loop's adjustments.
type ControllerConfig struct {
	MinWorkers     int
	MaxWorkers     int
	InitialWorkers int
	InitialChunk   int
	Tick           time.Duration
}

func (c *ControllerConfig) applyDefaults() {
	if c.MinWorkers <= 0 {
		c.MinWorkers = 1
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 50
	}
	if c.InitialWorkers <= 0 {
		c.InitialWorkers = 10
	}
	if c.InitialWorkers < c.MinWorkers {
		c.InitialWorkers = c.MinWorkers
	}
	if c.InitialWorkers > c.MaxWorkers {
		c.InitialWorkers = c.MaxWorkers
	}
	if c.InitialChunk < minChunkSize {
		c.InitialChunk = minChunkSize
	}
	if c.InitialChunk > maxChunkSize {
		c.InitialChunk = maxChunkSize
	}
	if c.Tick <= 0 {
		c.Tick = duration.ControllerTick
	}
}

// ConcurrencyController periodically reads PerformanceStats and adjusts
// the worker limit and chunk size: halve on overload, trim a quarter when
// degraded, grow 20% when healthy. Workers stay in [MinWorkers,
// MaxWorkers], chunk size in [10, 50].
type ConcurrencyController struct {
	cfg   ControllerConfig
	stats *PerformanceStats

	mu      sync.Mutex
	workers int
	chunk   int
}

// NewController creates a controller around stats.
func NewController(cfg ControllerConfig, stats *PerformanceStats) *ConcurrencyController {
	cfg.applyDefaults()
	return &ConcurrencyController{
		cfg:     cfg,
		stats:   stats,
		workers: cfg.InitialWorkers,
		chunk:   cfg.InitialChunk,
	}
}

// Workers returns the current worker limit.
func (c *ConcurrencyController) Workers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers
}

// ChunkSize returns the current batch size for the orchestrator.
func (c *ConcurrencyController) ChunkSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunk
}

// Adjust applies one feedback step from the current stats and reports
// whether the worker limit changed.
func (c *ConcurrencyController) Adjust() bool {
	snap := c.stats.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.workers

	switch {
	case snap.ErrorRate > errRateOverloaded || snap.AvgResponse > duration.OverloadedResponse:
		c.workers = clamp(c.workers/2, c.cfg.MinWorkers, c.cfg.MaxWorkers)
		c.chunk = clamp(int(float64(c.chunk)/1.5), minChunkSize, maxChunkSize)
	case snap.ErrorRate > errRateDegraded || snap.AvgResponse > duration.DegradedResponse:
		c.workers = clamp(c.workers*3/4, c.cfg.MinWorkers, c.cfg.MaxWorkers)
		c.chunk = clamp(int(float64(c.chunk)/1.5), minChunkSize, maxChunkSize)
	case snap.Total > 0 && snap.ErrorRate < errRateHealthy && snap.AvgResponse < duration.HealthyResponse:
		next := int(float64(c.workers) * 1.2)
		if next == c.workers {
			next++
		}
		c.workers = clamp(next, c.cfg.MinWorkers, c.cfg.MaxWorkers)
		c.chunk = clamp(int(float64(c.chunk)*1.5), minChunkSize, maxChunkSize)
	}
	return c.workers != before
}

// Run ticks until ctx is cancelled, calling apply with the new worker
// limit whenever an adjustment changes it.
func (c *ConcurrencyController) Run(ctx context.Context, apply func(workers int)) {
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.Adjust() && apply != nil {
				apply(c.Workers())
			}
		}
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
