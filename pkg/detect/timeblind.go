package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sqlscout/sqlscout/pkg/duration"
	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/payloads"
	"github.com/sqlscout/sqlscout/pkg/requester"
)

const timingBaselineSamples = 3

// timeBlind injects sleep payloads and measures the response delay. The
// threshold adapts to the endpoint's own timing so slow pages do not read
// as injections. One exceedance is re-probed with the identical payload;
// only two consecutive exceedances report.
func (e *Engine) timeBlind(ctx context.Context, tgt Target, p Param, base *baseline) (*finding.Finding, error) {
	baseAvg, err := e.timingBaseline(ctx, tgt, p)
	if err != nil {
		return nil, err
	}

	threshold := 2 * baseAvg
	if threshold < duration.TimeBlindFloor {
		threshold = duration.TimeBlindFloor
	}

	for _, pl := range e.selector().Times(e.cfg.TimeDelay) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		first, ok, err := e.timedProbe(ctx, tgt, p, pl)
		if err != nil {
			return nil, err
		}
		if !ok || !exceeds(first, threshold) {
			continue
		}

		second, ok, err := e.timedProbe(ctx, tgt, p, pl)
		if err != nil {
			return nil, err
		}
		if !ok || !exceeds(second, threshold) {
			continue
		}

		f := finding.New(finding.TypeTimeBlind, locationLabel(tgt, p), p.Name, pl.Value, finding.High)
		f.DBMS = string(pl.DBMS)
		f.Confidence = 0.8
		f.Remediation = payloads.Remediation()
		f.Evidence = []string{
			fmt.Sprintf("baseline %v, threshold %v", baseAvg.Round(time.Millisecond), threshold.Round(time.Millisecond)),
			fmt.Sprintf("delay %s on first probe", delayString(first)),
			fmt.Sprintf("delay %s on confirmation probe", delayString(second)),
		}
		return &f, nil
	}
	return nil, nil
}

// timingBaseline measures the endpoint's normal latency from timed
// requests with the original value.
func (e *Engine) timingBaseline(ctx context.Context, tgt Target, p Param) (time.Duration, error) {
	var total time.Duration
	samples := 0
	for i := 0; i < timingBaselineSamples; i++ {
		res, err := e.send(ctx, tgt, p, p.Value, true)
		if err != nil {
			if probeFailed(ctx, err) {
				return 0, err
			}
			continue
		}
		if res.TimedOut {
			continue
		}
		total += res.Elapsed
		samples++
	}
	if samples == 0 {
		return 0, &requester.Error{Kind: requester.KindCritical, Err: errors.New("no timing baseline samples")}
	}
	return total / time.Duration(samples), nil
}

// timedProbe sends one sleep payload without retries. A timeout is the
// maximal delay and counts as an exceedance.
func (e *Engine) timedProbe(ctx context.Context, tgt Target, p Param, pl payloads.Payload) (*requester.Result, bool, error) {
	res, err := e.send(ctx, tgt, p, p.Value+pl.Value, true)
	if err != nil {
		if probeFailed(ctx, err) {
			return nil, false, err
		}
		return nil, false, nil
	}
	return res, true, nil
}

func exceeds(res *requester.Result, threshold time.Duration) bool {
	return res.TimedOut || res.Elapsed > threshold
}

func delayString(res *requester.Result) string {
	if res.TimedOut {
		return "timeout (maximal delay)"
	}
	return res.Elapsed.Round(time.Millisecond).String()
}
