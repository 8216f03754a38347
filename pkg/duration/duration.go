// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.TechniqueDeadline)
//	if elapsed > duration.SlowResponse {
//
// DO NOT use hardcoded time.Duration values like `30 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// HTTP CLIENT TIMEOUTS
// ============================================================================

const (
	// HTTPProbing is for quick fingerprinting and health checks (5s)
	HTTPProbing = 5 * time.Second

	// HTTPScanning is the per-request timeout for injection probes (15s) - the default
	HTTPScanning = 15 * time.Second

	// HTTPCrawling is for page discovery requests (30s)
	HTTPCrawling = 30 * time.Second
)

// ============================================================================
// CONTEXT/OPERATION TIMEOUTS
// ============================================================================

const (
	// TechniqueDeadline bounds a single detection technique on one parameter (2min)
	TechniqueDeadline = 2 * time.Minute

	// ParameterDeadline bounds all techniques on one parameter (8min)
	ParameterDeadline = 8 * time.Minute

	// ContextMedium is for standard operations (5min)
	ContextMedium = 5 * time.Minute

	// ContextMax is for full scan operations (30min)
	ContextMax = 30 * time.Minute
)

// ============================================================================
// RATE LIMIT / RETRY BACKOFF
// ============================================================================

const (
	// BackoffCap is the ceiling for rate-limiter error backoff (30s)
	BackoffCap = 30 * time.Second

	// RetryBackoffCap is the ceiling for request retry backoff (60s)
	RetryBackoffCap = 60 * time.Second

	// CrawlDelay is the pacing delay between crawl requests (100ms)
	CrawlDelay = 100 * time.Millisecond

	// ControllerTick is the concurrency feedback evaluation interval (10s)
	ControllerTick = 10 * time.Second
)

// ============================================================================
// RESPONSE TIME THRESHOLDS
// ============================================================================
//
// Use these for adaptive pacing and timing-based analysis.
// ============================================================================

const (
	// FastResponse marks a host healthy enough to speed up (500ms)
	FastResponse = 500 * time.Millisecond

	// HealthyResponse is the controller's scale-up ceiling (1s)
	HealthyResponse = 1 * time.Second

	// DegradedResponse triggers a gentle concurrency reduction (2s)
	DegradedResponse = 2 * time.Second

	// OverloadedResponse triggers an aggressive concurrency reduction (3s)
	OverloadedResponse = 3 * time.Second

	// SlowResponse widens limiter wait polling when the average exceeds it (2s)
	SlowResponse = 2 * time.Second

	// TimeBlindFloor is the minimum delay accepted as evidence of an
	// injected sleep (2.5s)
	TimeBlindFloor = 2500 * time.Millisecond

	// TimeBlindSleep is the sleep length requested by timing payloads (5s)
	TimeBlindSleep = 5 * time.Second
)

// ============================================================================
// NETWORK/TRANSPORT
// ============================================================================

const (
	// DialTimeout is for establishing TCP connections (10s)
	DialTimeout = 10 * time.Second

	// KeepAlive is for TCP keep-alive interval (30s)
	KeepAlive = 30 * time.Second

	// IdleConnTimeout is for idle connection pool timeout (90s)
	IdleConnTimeout = 90 * time.Second

	// TLSHandshake is for TLS handshake timeout (10s)
	TLSHandshake = 10 * time.Second
)

// ============================================================================
// TELEMETRY
// ============================================================================

const (
	// TelemetryConnect bounds OTLP exporter connection setup (10s)
	TelemetryConnect = 10 * time.Second

	// TelemetryShutdown bounds graceful telemetry flush on exit (5s)
	TelemetryShutdown = 5 * time.Second
)
