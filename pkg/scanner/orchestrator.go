package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sqlscout/sqlscout/pkg/crawler"
	"github.com/sqlscout/sqlscout/pkg/detect"
	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/prioritize"
	"github.com/sqlscout/sqlscout/pkg/requester"
	"github.com/sqlscout/sqlscout/pkg/workerpool"
)

// KindAdaptive is the default orchestrator registration.
const KindAdaptive Kind = "adaptive"

func init() {
	Register(KindAdaptive, func(cfg Config) (Scanner, error) {
		return NewOrchestrator(cfg), nil
	})
}

// Orchestrator is the default Scanner: crawl, prioritize, dispatch in
// adaptive chunks, consolidate.
type Orchestrator struct {
	sc         *ScanContext
	controller *ConcurrencyController
}

// NewOrchestrator builds the scan stack from cfg.
func NewOrchestrator(cfg Config) *Orchestrator {
	sc := NewScanContext(cfg)
	controller := NewController(ControllerConfig{
		MinWorkers:     sc.Cfg.MinConcurrency,
		MaxWorkers:     sc.Cfg.MaxConcurrency,
		InitialWorkers: sc.Cfg.Concurrency,
	}, sc.Stats)
	return &Orchestrator{sc: sc, controller: controller}
}

// Context exposes the per-scan aggregate, mainly for callers that render
// engine or limiter state after a scan.
func (o *Orchestrator) Context() *ScanContext { return o.sc }

// unit is one dispatchable parameter test.
type unit struct {
	target detect.Target
	param  detect.Param
}

// Scan runs the full pipeline from seed. The overall timeout stops work
// at a chunk boundary; findings collected before the deadline are kept
// and returned.
func (o *Orchestrator) Scan(ctx context.Context, seed string) (*finding.ScanResult, error) {
	u, err := url.Parse(seed)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("scanner: invalid seed URL %q", seed)
	}

	cfg := o.sc.Cfg
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	scanID := uuid.NewString()
	start := time.Now()
	if cfg.Hook != nil {
		cfg.Hook.ScanStarted(scanID, seed)
	}

	units, err := o.discover(ctx, seed)
	if err != nil {
		return nil, err
	}

	pool := workerpool.New(o.controller.Workers())
	go o.controller.Run(ctx, pool.Resize)

	var (
		mu      sync.Mutex
		all     []finding.Finding
		tested  int
		failed  int
		unitErr error
	)

	for idx := 0; idx < len(units); {
		if ctx.Err() != nil {
			break
		}
		end := idx + o.controller.ChunkSize()
		if end > len(units) {
			end = len(units)
		}
		chunk := units[idx:end]
		idx = end

		var wg sync.WaitGroup
		for _, w := range chunk {
			w := w
			wg.Add(1)
			ok := pool.Submit(func() {
				defer wg.Done()
				// Request latencies and errors reach Stats through the
				// engine's observer; only findings are counted here.
				found, terr := o.sc.Detector.TestParameter(ctx, w.target, w.param)
				o.sc.Stats.AddFindings(len(found))

				mu.Lock()
				tested++
				if terr != nil {
					failed++
					if unitErr == nil {
						unitErr = terr
					}
				}
				all = append(all, found...)
				mu.Unlock()

				if cfg.Hook != nil {
					for _, f := range found {
						cfg.Hook.FindingReported(f)
					}
				}
			})
			if !ok {
				wg.Done()
			}
		}
		wg.Wait()
	}
	pool.Close()

	// Every parameter failing without a single judgeable response means
	// the target itself is the problem, not its parameters.
	if ctx.Err() == nil && tested > 0 && failed == tested && len(all) == 0 {
		return nil, scanFailure(unitErr)
	}

	res := &finding.ScanResult{
		ScanID:       scanID,
		Target:       seed,
		TestedParams: tested,
		Requests:     o.sc.Engine.Stats().Requests,
		StartTime:    start,
		Duration:     time.Since(start),
		Findings:     finding.Consolidate(all),
	}
	if cfg.Hook != nil {
		cfg.Hook.ScanFinished(res)
	}
	return res, nil
}

// scanFailure maps an exhausted request failure onto the scan-level
// sentinels so callers can errors.Is against finding's error set.
func scanFailure(err error) error {
	var rerr *requester.Error
	if errors.As(err, &rerr) {
		switch {
		case rerr.Timeout:
			return fmt.Errorf("%w: %v", finding.ErrTimeout, rerr.Err)
		case rerr.Status == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", finding.ErrRateLimited, rerr.Err)
		default:
			return fmt.Errorf("%w: %v", finding.ErrTargetUnreachable, rerr.Err)
		}
	}
	return err
}

// discover turns the seed into prioritized parameter test units: crawl
// output (or the seed itself), header injection points when enabled, and
// synthesized common endpoints when nothing injectable was found.
func (o *Orchestrator) discover(ctx context.Context, seed string) ([]unit, error) {
	cfg := o.sc.Cfg

	var pages []crawler.Page
	if cfg.Crawl {
		cr := cfg.Crawler
		if cr == nil {
			cr = crawler.New(crawler.Config{
				MaxDepth:  cfg.CrawlDepth,
				MaxPages:  cfg.CrawlPages,
				UserAgent: cfg.UserAgent,
				Client:    cfg.Client,
			})
		}
		crawled, err := cr.Crawl(ctx, seed)
		if err != nil && len(crawled) == 0 {
			return nil, fmt.Errorf("scanner: crawl failed: %w", err)
		}
		pages = crawled
	} else {
		pages = []crawler.Page{{URL: seed}}
	}

	targets := targetsFromPages(pages)
	if len(targets) == 0 {
		for _, synth := range crawler.Synthesize(seed, 0) {
			if t, ok := queryTarget(synth); ok {
				targets = append(targets, t)
			}
		}
	}
	if cfg.TestHeaders {
		targets = append(targets, detect.Target{URL: seed, Params: detect.HeaderParams()})
	}
	if len(targets) == 0 {
		return nil, finding.ErrNoParameters
	}

	return orderUnits(targets, cfg), nil
}

// targetsFromPages derives injectable targets from crawl output: query
// strings on page URLs, and form fields on form actions.
func targetsFromPages(pages []crawler.Page) []detect.Target {
	var targets []detect.Target
	for _, page := range pages {
		if t, ok := queryTarget(page.URL); ok {
			targets = append(targets, t)
		}
		for _, form := range page.Forms {
			if len(form.Fields) == 0 {
				continue
			}
			if strings.EqualFold(form.Method, http.MethodPost) {
				t := detect.Target{URL: form.Action, Method: http.MethodPost}
				for _, f := range form.Fields {
					t.Params = append(t.Params, detect.Param{
						Name: f.Name, Value: f.Value, Location: detect.LocationForm,
					})
				}
				targets = append(targets, t)
				continue
			}
			// GET forms submit as a query string on the action URL.
			action, err := url.Parse(form.Action)
			if err != nil {
				continue
			}
			q := action.Query()
			for _, f := range form.Fields {
				q.Set(f.Name, f.Value)
			}
			action.RawQuery = q.Encode()
			if t, ok := queryTarget(action.String()); ok {
				targets = append(targets, t)
			}
		}
	}
	return dedupeTargets(targets)
}

// queryTarget builds a target from a URL's query parameters.
func queryTarget(rawURL string) (detect.Target, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || len(u.Query()) == 0 {
		return detect.Target{}, false
	}
	t := detect.Target{URL: rawURL, Method: http.MethodGet}
	for name, values := range u.Query() {
		value := ""
		if len(values) > 0 {
			value = values[0]
		}
		t.Params = append(t.Params, detect.Param{
			Name: name, Value: value, Location: detect.LocationQuery,
		})
	}
	return t, true
}

func dedupeTargets(targets []detect.Target) []detect.Target {
	type key struct {
		method string
		url    string
	}
	seen := map[key]bool{}
	out := targets[:0]
	for _, t := range targets {
		k := key{t.Method, t.URL}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// orderUnits prioritizes target URLs and expands targets into per-param
// units in that order.
func orderUnits(targets []detect.Target, cfg Config) []unit {
	byURL := map[string][]detect.Target{}
	urls := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, seen := byURL[t.URL]; !seen {
			urls = append(urls, t.URL)
		}
		byURL[t.URL] = append(byURL[t.URL], t)
	}

	var units []unit
	for _, u := range prioritize.Order(urls, cfg.Rand) {
		for _, t := range byURL[u] {
			for _, p := range t.Params {
				units = append(units, unit{target: t, param: p})
			}
		}
	}
	return units
}
