package detect

import (
	"context"
	"fmt"

	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/payloads"
	"github.com/sqlscout/sqlscout/pkg/regexcache"
)

// versionDetail matches a dotted version number surfaced in error output.
var versionDetail = regexcache.MustGet(`\b\d+\.\d+(\.\d+)?\b`)

// errorBased injects syntax breakers and looks for database error output
// that the baseline did not contain. A candidate match is escalated to
// critical when a follow-up version probe extracts backend detail.
func (e *Engine) errorBased(ctx context.Context, tgt Target, p Param, base *baseline) (*finding.Finding, error) {
	if base.hasError {
		// The page errors on its own; nothing injected can be attributed.
		return nil, nil
	}

	for _, pl := range e.selector().Errors() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res, err := e.send(ctx, tgt, p, p.Value+pl.Value, false)
		if err != nil {
			if probeFailed(ctx, err) {
				return nil, err
			}
			continue
		}

		dbms, evidence, ok := payloads.MatchError(res.Body)
		if !ok {
			continue
		}
		if echoedPayload(evidence, pl.Value, p.Value) {
			continue
		}
		if tutorialContent(base.body, res.Body) {
			continue
		}

		f := finding.New(finding.TypeError, locationLabel(tgt, p), p.Name, pl.Value, finding.High)
		f.DBMS = string(dbms)
		f.Confidence = 0.9
		f.Evidence = []string{evidence}
		f.Remediation = payloads.Remediation()

		if version, extracted := e.extractVersion(ctx, tgt, p, dbms, base); extracted {
			f.Severity = finding.Critical
			f.Confidence = 1.0
			f.Evidence = append(f.Evidence, fmt.Sprintf("version detail extracted: %s", version))
		}
		return &f, nil
	}
	return nil, nil
}

// extractVersion fires version probes for the detected backend. A probe
// whose error output carries a dotted version number proves expression
// evaluation inside the query.
func (e *Engine) extractVersion(ctx context.Context, tgt Target, p Param, dbms payloads.DBMS, base *baseline) (string, bool) {
	sel := payloads.Selector{DBMS: dbms, MaxPerTechnique: e.cfg.MaxPayloads}
	for _, pl := range sel.Versions() {
		if ctx.Err() != nil {
			return "", false
		}
		res, err := e.send(ctx, tgt, p, p.Value+pl.Value, false)
		if err != nil {
			continue
		}
		_, evidence, ok := payloads.MatchError(res.Body)
		if !ok || tutorialContent(base.body, res.Body) {
			continue
		}
		if m := versionDetail.FindString(evidence); m != "" {
			return m, true
		}
	}
	return "", false
}
