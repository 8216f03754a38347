package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/payloads"
)

// unionBased enumerates UNION SELECT column counts with marker payloads. A
// marker surfacing in the response proves nothing by itself (the server may
// echo the payload into an error page), so every hit is re-probed with a
// fresh random marker at the same column before it reports.
func (e *Engine) unionBased(ctx context.Context, tgt Target, p Param, base *baseline) (*finding.Finding, error) {
	for _, probe := range payloads.UnionProbes(e.cfg.MaxUnionColumns) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res, err := e.send(ctx, tgt, p, p.Value+probe.Payload, false)
		if err != nil {
			if probeFailed(ctx, err) {
				return nil, err
			}
			continue
		}

		for _, marker := range probe.Markers {
			if !strings.Contains(res.Body, marker) || strings.Contains(base.body, marker) {
				continue
			}
			// The whole payload echoed back is reflection, not extraction.
			if strings.Contains(res.Body, probe.Payload) {
				continue
			}

			column := payloads.MarkerColumn(marker)
			if column < 1 {
				continue
			}
			f, confirmed, err := e.verifyUnion(ctx, tgt, p, column, probe, base)
			if err != nil {
				return nil, err
			}
			if confirmed {
				return f, nil
			}
		}
	}
	return nil, nil
}

// verifyUnion re-probes the suspected column with a marker the server has
// never seen.
func (e *Engine) verifyUnion(ctx context.Context, tgt Target, p Param, column int, probe payloads.UnionProbe, base *baseline) (*finding.Finding, bool, error) {
	payload, marker := e.unionVerify(column, probe.Columns)
	res, err := e.send(ctx, tgt, p, p.Value+payload, false)
	if err != nil {
		if probeFailed(ctx, err) {
			return nil, false, err
		}
		return nil, false, nil
	}
	if !strings.Contains(res.Body, marker) || strings.Contains(res.Body, payload) {
		return nil, false, nil
	}

	f := finding.New(finding.TypeUnion, locationLabel(tgt, p), p.Name, probe.Payload, finding.High)
	f.Confidence = 0.95
	f.Remediation = payloads.Remediation()
	f.Evidence = []string{
		fmt.Sprintf("marker surfaced at column %d of %d", column, probe.Columns),
		fmt.Sprintf("verified with fresh marker %s via %s", marker, payload),
	}
	return &f, true, nil
}
