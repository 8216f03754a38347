package detect

import (
	"context"
	"fmt"

	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/fingerprint"
	"github.com/sqlscout/sqlscout/pkg/payloads"
)

// Similarity cutoffs for boolean-blind decisions.
const (
	boolTrueSim  = 0.8
	boolFalseSim = 0.6
	boolPairSim  = 0.7
	boolLenDelta = 50
)

// booleanBlind sends matched true/false pairs and looks for the response
// diverging with the truth value. A single hit is only a candidate; the
// pair's numerics could coincide with page content, so a second pair with
// different constants and quoting must agree before anything reports.
func (e *Engine) booleanBlind(ctx context.Context, tgt Target, p Param, base *baseline) (*finding.Finding, error) {
	pairs := e.boolPairs()
	for i, pair := range pairs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		hit, err := e.booleanHit(ctx, tgt, p, base, pair)
		if err != nil {
			return nil, err
		}
		if !hit {
			continue
		}

		// Reconfirm with a distinct pair: same quoting but fresh numerics.
		confirm := e.boolPairs()
		second := confirm[i]

		hit, err = e.booleanHit(ctx, tgt, p, base, second)
		if err != nil {
			return nil, err
		}
		if !hit {
			continue
		}

		// A hit under a different quote style as well upgrades the finding.
		severity := finding.Medium
		confidence := 0.7
		cross := confirm[(i+1)%len(confirm)]
		if hit, err := e.booleanHit(ctx, tgt, p, base, cross); err == nil && hit {
			severity = finding.High
			confidence = 0.85
			second = cross
		}
		f := finding.New(finding.TypeBooleanBlind, locationLabel(tgt, p), p.Name, pair.True, severity)
		f.Confidence = confidence
		f.Remediation = payloads.Remediation()
		f.Evidence = []string{
			fmt.Sprintf("response diverges with truth value for %s", pair.Description),
			fmt.Sprintf("reconfirmed with %s", second.Description),
		}
		return &f, nil
	}
	return nil, nil
}

// booleanHit evaluates one true/false pair against the baseline.
func (e *Engine) booleanHit(ctx context.Context, tgt Target, p Param, base *baseline, pair payloads.BoolPair) (bool, error) {
	trueRes, err := e.send(ctx, tgt, p, p.Value+pair.True, false)
	if err != nil {
		if probeFailed(ctx, err) {
			return false, err
		}
		return false, nil
	}
	falseRes, err := e.send(ctx, tgt, p, p.Value+pair.False, false)
	if err != nil {
		if probeFailed(ctx, err) {
			return false, err
		}
		return false, nil
	}

	if tutorialContent(base.body, trueRes.Body) {
		return false, nil
	}

	truePrint := fingerprint.New(trueRes.Body, trueRes.Header.Get("Content-Type"))
	falsePrint := fingerprint.New(falseRes.Body, falseRes.Header.Get("Content-Type"))

	// The similarity branch only means something when the baseline agrees
	// with itself; a page that re-renders differently on every request is
	// judged on the pair comparison instead.
	simTrue := fingerprint.Similarity(base.print, truePrint)
	simFalse := fingerprint.Similarity(base.print, falsePrint)
	if base.stable > boolTrueSim && simTrue > boolTrueSim && simFalse < boolFalseSim {
		return true, nil
	}

	simPair := fingerprint.Similarity(truePrint, falsePrint)
	if simPair < boolPairSim && absInt(len(trueRes.Body)-len(falseRes.Body)) > boolLenDelta {
		return true, nil
	}

	// Status asymmetry: the true branch behaves like the baseline while the
	// false branch does not. A bare 404/500 flip without database detail is
	// not evidence.
	if trueRes.StatusCode == base.status && falseRes.StatusCode != base.status {
		if bareErrorStatus(falseRes.StatusCode, falseRes.Body) {
			return false, nil
		}
		return true, nil
	}

	return false, nil
}
