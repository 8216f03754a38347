// Package scanner drives end-to-end scans: it discovers candidate URLs,
// prioritizes them, dispatches parameter tests through an adjustable
// worker gate, and consolidates the findings. A concurrency feedback loop
// reads scan-wide performance counters and resizes the gate while the
// scan runs.
package scanner

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/sqlscout/sqlscout/pkg/crawler"
	"github.com/sqlscout/sqlscout/pkg/detect"
	"github.com/sqlscout/sqlscout/pkg/duration"
	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/httpclient"
	"github.com/sqlscout/sqlscout/pkg/payloads"
	"github.com/sqlscout/sqlscout/pkg/ratelimit"
	"github.com/sqlscout/sqlscout/pkg/requester"
)

// Hook receives scan lifecycle events. The telemetry layer implements
// this; a nil hook disables eventing.
type Hook interface {
	ScanStarted(scanID, target string)
	FindingReported(f finding.Finding)
	ScanFinished(res *finding.ScanResult)
}

// Config holds everything a scan needs. Zero values get defaults.
type Config struct {
	// Concurrency is the initial worker count (default 10).
	Concurrency int

	// MinConcurrency and MaxConcurrency bound the feedback loop.
	MinConcurrency int
	MaxConcurrency int

	// RatePerSecond is the per-host base request rate.
	RatePerSecond float64

	// Timeout is the overall scan budget (default 5m).
	Timeout time.Duration

	// Crawl enables link discovery from the seed; depth and page caps
	// fall back to crawler defaults.
	Crawl      bool
	CrawlDepth int
	CrawlPages int

	// TestHeaders adds header injection points on the seed URL.
	TestHeaders bool

	// DBMS narrows payload selection when the backend is known upfront.
	DBMS payloads.DBMS

	UserAgent string

	// Client overrides the pooled HTTP client, mainly for tests.
	Client *http.Client

	// Observer receives per-request outcomes (the metrics layer).
	Observer requester.Observer

	// Hook receives scan lifecycle events (the telemetry layer).
	Hook Hook

	// Crawler overrides the default link crawler.
	Crawler crawler.WebCrawler

	// Rand drives prioritization shuffles and payload generation.
	// Injectable for deterministic tests.
	Rand *rand.Rand
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 10
	}
	if c.MinConcurrency <= 0 {
		c.MinConcurrency = 1
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 50
	}
	if c.Timeout <= 0 {
		c.Timeout = duration.ContextMedium
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// ScanContext is the per-scan aggregate: one limiter, one request engine,
// one detector and one stats block, constructed together so nothing leaks
// between scans.
type ScanContext struct {
	Cfg      Config
	Limiter  *ratelimit.Limiter
	Engine   *requester.Engine
	Detector *detect.Engine
	Stats    *PerformanceStats
}

// NewScanContext wires the request and detection stack from cfg.
func NewScanContext(cfg Config) *ScanContext {
	cfg.applyDefaults()

	client := cfg.Client
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: duration.HTTPScanning})
	}

	limCfg := ratelimit.DefaultConfig()
	if cfg.RatePerSecond > 0 {
		limCfg.BaseRate = cfg.RatePerSecond
	}
	limiter := ratelimit.New(limCfg)

	engine := requester.New(client, limiter, requester.Config{
		UserAgent: cfg.UserAgent,
	})

	// The feedback loop reads per-request outcomes, so the stats always
	// observe the engine; an external observer rides along.
	stats := &PerformanceStats{}
	if cfg.Observer != nil {
		engine.SetObserver(multiObserver{stats, cfg.Observer})
	} else {
		engine.SetObserver(stats)
	}

	detector := detect.New(engine, detect.Config{
		DBMS: cfg.DBMS,
		Rand: cfg.Rand,
	})

	return &ScanContext{
		Cfg:      cfg,
		Limiter:  limiter,
		Engine:   engine,
		Detector: detector,
		Stats:    stats,
	}
}

// multiObserver fans request outcomes out to every observer.
type multiObserver []requester.Observer

func (m multiObserver) ObserveRequest(status int, elapsed time.Duration, errKind string) {
	for _, o := range m {
		o.ObserveRequest(status, elapsed, errKind)
	}
}
