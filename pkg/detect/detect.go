// Package detect implements the per-parameter SQL injection detection
// engine. For each injectable parameter it captures a baseline, then runs
// the error-based, UNION, boolean-blind and time-blind techniques in cost
// order under per-technique sub-deadlines, stopping at the first confirmed
// finding. Only confirmed findings are reported.
package detect

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sqlscout/sqlscout/pkg/duration"
	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/fingerprint"
	"github.com/sqlscout/sqlscout/pkg/payloads"
	"github.com/sqlscout/sqlscout/pkg/requester"
)

// Location identifies where a parameter is injected.
type Location string

const (
	LocationQuery  Location = "query"
	LocationForm   Location = "form"
	LocationJSON   Location = "json"
	LocationHeader Location = "header"
	LocationCookie Location = "cookie"
)

// Param is a single injectable parameter with its original value.
type Param struct {
	Name     string
	Value    string
	Location Location
}

// Target is one URL with its injectable parameters.
type Target struct {
	URL    string
	Method string
	Params []Param
}

// Config tunes the detection engine.
type Config struct {
	// DBMS narrows payload selection once the backend is known.
	DBMS payloads.DBMS

	// MaxUnionColumns bounds UNION column enumeration (default 7).
	MaxUnionColumns int

	// MaxPayloads caps payloads per technique (0 = table defaults).
	MaxPayloads int

	// TimeDelay is the sleep injected by timing payloads.
	TimeDelay time.Duration

	// TechniqueDeadline bounds each technique per parameter.
	TechniqueDeadline time.Duration

	// Rand drives boolean pair and marker generation. Injectable for tests.
	Rand *rand.Rand
}

// Engine runs detection techniques against parameters. Safe for
// concurrent TestParameter calls; the shared rand source is serialized.
type Engine struct {
	eng *requester.Engine
	cfg Config

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// New creates a detection engine on top of a request engine.
func New(eng *requester.Engine, cfg Config) *Engine {
	if cfg.MaxUnionColumns <= 0 {
		cfg.MaxUnionColumns = payloads.MaxUnionColumns
	}
	if cfg.TimeDelay <= 0 {
		cfg.TimeDelay = duration.TimeBlindSleep
	}
	if cfg.TechniqueDeadline <= 0 {
		cfg.TechniqueDeadline = duration.TechniqueDeadline
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{eng: eng, cfg: cfg, rnd: rnd}
}

// baseline is the unmodified behavior of a parameter, captured before any
// payload is sent.
type baseline struct {
	body     string
	print    string
	status   int
	length   int
	elapsed  time.Duration
	stable   float64
	hasError bool
}

type technique func(ctx context.Context, tgt Target, p Param, base *baseline) (*finding.Finding, error)

// TestParameter runs the techniques against one parameter, cheapest
// first, and stops at the first confirmed finding: once error-based
// confirms there is no reason to spend the blind techniques' request
// budget on the same parameter. Each technique gets its own sub-deadline;
// a critical request failure ends the parameter early and is returned to
// the caller.
func (e *Engine) TestParameter(ctx context.Context, tgt Target, p Param) ([]finding.Finding, error) {
	base, err := e.captureBaseline(ctx, tgt, p)
	if err != nil {
		return nil, err
	}

	var out []finding.Finding
	for _, run := range []technique{e.errorBased, e.unionBased, e.booleanBlind, e.timeBlind} {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}

		tctx, cancel := context.WithTimeout(ctx, e.cfg.TechniqueDeadline)
		f, err := run(tctx, tgt, p, base)
		cancel()

		if err != nil {
			if requester.KindOf(err) == requester.KindCritical && ctx.Err() == nil {
				return out, err
			}
			continue
		}
		if f != nil {
			out = append(out, *f)
			return out, nil
		}
	}
	return out, nil
}

// captureBaseline fetches the parameter with its original value twice and
// records what a normal response looks like.
func (e *Engine) captureBaseline(ctx context.Context, tgt Target, p Param) (*baseline, error) {
	first, err := e.send(ctx, tgt, p, p.Value, false)
	if err != nil {
		return nil, err
	}
	second, err := e.send(ctx, tgt, p, p.Value, false)
	if err != nil {
		return nil, err
	}

	ct := first.Header.Get("Content-Type")
	printA := fingerprint.New(first.Body, ct)
	printB := fingerprint.New(second.Body, second.Header.Get("Content-Type"))
	_, _, hasError := payloads.MatchError(first.Body)

	return &baseline{
		body:     first.Body,
		print:    printA,
		status:   first.StatusCode,
		length:   len(first.Body),
		elapsed:  (first.Elapsed + second.Elapsed) / 2,
		stable:   fingerprint.Similarity(printA, printB),
		hasError: hasError,
	}, nil
}

// send injects value into the parameter position and performs the request.
// Timed probes send exactly once so the delay measurement stays intact.
func (e *Engine) send(ctx context.Context, tgt Target, p Param, value string, timed bool) (*requester.Result, error) {
	probe, err := buildProbe(tgt, p, value)
	if err != nil {
		return nil, err
	}
	probe.DisableRetry = timed
	return e.eng.Do(ctx, probe)
}

// probeFailed reports whether a technique should stop on err. Critical
// failures propagate; everything else is a skipped probe.
func probeFailed(ctx context.Context, err error) (abort bool) {
	if ctx.Err() != nil {
		return true
	}
	return requester.KindOf(err) == requester.KindCritical
}

func (e *Engine) selector() payloads.Selector {
	return payloads.Selector{DBMS: e.cfg.DBMS, MaxPerTechnique: e.cfg.MaxPayloads}
}

func (e *Engine) boolPairs() []payloads.BoolPair {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	return payloads.BooleanPairs(e.rnd)
}

func (e *Engine) unionVerify(column, totalColumns int) (payload, marker string) {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	return payloads.UnionVerify(column, totalColumns, e.rnd)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
