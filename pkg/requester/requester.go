// Package requester sends scan probes through an adaptive rate limiter,
// classifies failures, and retries the transient ones with exponential
// backoff. Every outcome is reported back to the limiter so pacing follows
// the health of each target host.
package requester

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sqlscout/sqlscout/pkg/httpclient"
	"github.com/sqlscout/sqlscout/pkg/iohelper"
	"github.com/sqlscout/sqlscout/pkg/ratelimit"
	"github.com/sqlscout/sqlscout/pkg/retry"
)

// latencyWindow is the rolling sample size for average latency.
const latencyWindow = 50

// Config holds request engine settings.
type Config struct {
	// MaxAttempts is the total attempts per probe including the first (default: 3)
	MaxAttempts int

	// MaxBodySize caps how much of a response body is read (default: 1MB)
	MaxBodySize int64

	// UserAgent is sent on every request when the probe has none
	UserAgent string

	// RetryDelay is the initial backoff before the first retry (default: 1s)
	RetryDelay time.Duration
}

// DefaultConfig returns engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		MaxBodySize: iohelper.DefaultMaxBodySize,
	}
}

// Probe is a single HTTP request to send.
type Probe struct {
	Method      string
	URL         string
	Header      http.Header
	Body        string
	ContentType string

	// DisableRetry sends the probe exactly once. Timing probes set this:
	// a retried timeout would destroy the delay measurement, so a timeout
	// comes back as a Result with TimedOut set instead of an error.
	DisableRetry bool
}

// Result is a completed probe.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       string
	Elapsed    time.Duration
	TimedOut   bool
}

// Observer receives per-request outcomes. Implemented by the metrics layer.
type Observer interface {
	ObserveRequest(status int, elapsed time.Duration, errKind string)
}

// Engine sends probes with pacing, classification and retries.
type Engine struct {
	client   *http.Client
	limiter  *ratelimit.Limiter
	cfg      Config
	observer Observer

	requests  atomic.Int64
	transient atomic.Int64
	critical  atomic.Int64

	latMu     sync.Mutex
	latencies []time.Duration
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests        int64
	TransientErrors int64
	CriticalErrors  int64
	AvgLatency      time.Duration
}

// New creates an engine. A nil client gets the default pooled client; a nil
// limiter gets default adaptive pacing.
func New(client *http.Client, limiter *ratelimit.Limiter, cfg Config) *Engine {
	if client == nil {
		client = httpclient.New(httpclient.DefaultConfig())
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	return &Engine{
		client:  client,
		limiter: limiter,
		cfg:     cfg,
	}
}

// SetObserver attaches a per-request observer. Not safe to call after the
// engine is in use.
func (e *Engine) SetObserver(obs Observer) { e.observer = obs }

// Limiter exposes the engine's rate limiter for feedback reporting.
func (e *Engine) Limiter() *ratelimit.Limiter { return e.limiter }

// Do sends a probe. Transient failures are retried with exponential backoff
// up to the configured attempt count; critical failures return immediately.
// Overloaded status codes (429/502/503/504) are retried like transport
// failures, but if retries are exhausted the last response is still
// returned so the caller can judge it.
func (e *Engine) Do(ctx context.Context, p *Probe) (*Result, error) {
	host, err := hostOf(p.URL)
	if err != nil {
		return nil, &Error{Kind: KindCritical, Err: err}
	}

	attempts := e.cfg.MaxAttempts
	if p.DisableRetry {
		attempts = 1
	}
	rcfg := retry.DefaultConfig()
	rcfg.MaxAttempts = attempts
	if e.cfg.RetryDelay > 0 {
		rcfg.InitDelay = e.cfg.RetryDelay
	}

	var res *Result
	rerr := retry.Do(ctx, rcfg, func() error {
		r, err := e.attempt(ctx, p, host)
		if err != nil {
			if KindOf(err) == KindTransient {
				return err
			}
			return retry.Stop(err)
		}
		res = r
		if kind, bad := ClassifyStatus(r.StatusCode); bad && kind == KindTransient {
			return &Error{Kind: KindTransient, Status: r.StatusCode, Err: errors.New("retryable status")}
		}
		return nil
	})
	if rerr != nil {
		// Retries exhausted on an overload status: the response itself is
		// still a judgeable outcome.
		if res != nil {
			return res, nil
		}
		return nil, rerr
	}
	return res, nil
}

func (e *Engine) attempt(ctx context.Context, p *Probe, host string) (*Result, error) {
	if err := e.limiter.Wait(ctx, host); err != nil {
		return nil, &Error{Kind: KindInconclusive, Err: err}
	}

	method := p.Method
	if method == "" {
		method = http.MethodGet
	}
	var body *strings.Reader
	if p.Body != "" {
		body = strings.NewReader(p.Body)
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, p.URL, body)
	if err != nil {
		return nil, &Error{Kind: KindCritical, Err: err}
	}
	for k, vals := range p.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if p.ContentType != "" {
		req.Header.Set("Content-Type", p.ContentType)
	}
	if req.Header.Get("User-Agent") == "" && e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	e.requests.Add(1)
	start := time.Now()
	resp, err := e.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		kind, _ := classifyTransport(err)
		timedOut := isTimeoutErr(err)
		e.recordError(host, kind)
		if timedOut && p.DisableRetry {
			// Timing probes treat a timeout as the maximal delay.
			return &Result{Elapsed: elapsed, TimedOut: true}, nil
		}
		return nil, &Error{Kind: kind, Timeout: timedOut, Err: err}
	}
	defer iohelper.DrainAndClose(resp.Body)

	data, readErr := iohelper.ReadBody(resp.Body, e.cfg.MaxBodySize)
	if readErr != nil {
		e.recordError(host, KindTransient)
		return nil, &Error{Kind: KindTransient, Status: resp.StatusCode, Err: readErr}
	}

	if kind, bad := ClassifyStatus(resp.StatusCode); bad {
		e.recordError(host, kind)
	} else {
		e.limiter.ReportSuccess(host, elapsed)
	}
	e.recordLatency(elapsed)
	if e.observer != nil {
		e.observer.ObserveRequest(resp.StatusCode, elapsed, "")
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(data),
		Elapsed:    elapsed,
	}, nil
}

func (e *Engine) recordError(host string, kind ErrorKind) {
	critical := kind == KindCritical
	e.limiter.ReportError(host, critical)
	if critical {
		e.critical.Add(1)
	} else {
		e.transient.Add(1)
	}
	if e.observer != nil {
		e.observer.ObserveRequest(0, 0, kind.String())
	}
}

func (e *Engine) recordLatency(d time.Duration) {
	e.latMu.Lock()
	defer e.latMu.Unlock()
	e.latencies = append(e.latencies, d)
	if len(e.latencies) > latencyWindow {
		e.latencies = e.latencies[len(e.latencies)-latencyWindow:]
	}
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Requests:        e.requests.Load(),
		TransientErrors: e.transient.Load(),
		CriticalErrors:  e.critical.Load(),
	}
	e.latMu.Lock()
	defer e.latMu.Unlock()
	if len(e.latencies) > 0 {
		var total time.Duration
		for _, d := range e.latencies {
			total += d
		}
		s.AvgLatency = total / time.Duration(len(e.latencies))
	}
	return s
}

func hostOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("requester: URL has no host")
	}
	return u.Host, nil
}
