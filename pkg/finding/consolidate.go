package finding

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// maxMergedPayloads bounds how many payloads a consolidated finding lists
// before collapsing the rest into a count.
const maxMergedPayloads = 5

// Consolidate merges findings that hit the same injection point, keyed by
// (Location, Parameter). A group of one passes through unchanged, so
// consolidating an already consolidated slice is a no-op. Merged records get
// a fresh ID, the highest severity in the group, and an evidence list built
// from the first payloads seen.
func Consolidate(findings []Finding) []Finding {
	if len(findings) <= 1 {
		return findings
	}

	type key struct {
		location  string
		parameter string
	}

	groups := make(map[key][]Finding)
	var order []key
	for _, f := range findings {
		k := key{f.Location, f.Parameter}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	out := make([]Finding, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, merge(group))
	}
	return out
}

// merge collapses a group of findings for one injection point.
func merge(group []Finding) Finding {
	// The most severe finding carries type, payload and DBMS detail.
	lead := group[0]
	for _, f := range group[1:] {
		if f.Severity.Score() > lead.Severity.Score() {
			lead = f
		}
	}

	merged := lead
	merged.ID = uuid.NewString()

	payloads := make([]string, 0, len(group))
	seen := make(map[string]bool)
	types := make(map[string]bool)
	for _, f := range group {
		types[f.Type] = true
		if f.Payload != "" && !seen[f.Payload] {
			seen[f.Payload] = true
			payloads = append(payloads, f.Payload)
		}
		if f.Severity.Score() > merged.Severity.Score() {
			merged.Severity = f.Severity
		}
		if merged.DBMS == "" {
			merged.DBMS = f.DBMS
		}
		if f.Confidence > merged.Confidence {
			merged.Confidence = f.Confidence
		}
	}

	evidence := payloads
	if len(payloads) > maxMergedPayloads {
		evidence = append([]string{}, payloads[:maxMergedPayloads]...)
		evidence = append(evidence, fmt.Sprintf("(%d more)", len(payloads)-maxMergedPayloads))
	}
	merged.Evidence = evidence

	if len(types) > 1 {
		names := make([]string, 0, len(types))
		for typ := range types {
			names = append(names, typ)
		}
		sort.Strings(names)
		merged.Type = names[0]
		for _, n := range names[1:] {
			merged.Type += "+" + n
		}
	}

	return merged
}
