package payloads

import "time"

// Selector narrows payload tables to what a target deserves: once the
// backend is fingerprinted, its payloads go first and the rest are dropped
// or deprioritized, keeping the probe budget per parameter bounded.
type Selector struct {
	// DBMS is the fingerprinted backend, or DBMSGeneric when unknown.
	DBMS DBMS

	// MaxPerTechnique caps payloads returned per technique (0 = no cap).
	MaxPerTechnique int
}

// Errors returns syntax breakers, capped.
func (s Selector) Errors() []Payload {
	return s.cap(ErrorProbes())
}

// Versions returns version-extraction probes for the selected backend, or
// all of them when the backend is unknown.
func (s Selector) Versions() []Payload {
	return s.cap(s.filter(VersionProbes()))
}

// Times returns timing payloads for the selected backend first.
func (s Selector) Times(delay time.Duration) []Payload {
	return s.cap(s.filter(TimeProbes(delay)))
}

// filter keeps payloads for the selected DBMS plus generic ones; with an
// unknown backend everything passes, DBMS-specific entries first only by
// table order.
func (s Selector) filter(in []Payload) []Payload {
	if s.DBMS == "" || s.DBMS == DBMSGeneric {
		return in
	}
	matched := make([]Payload, 0, len(in))
	for _, p := range in {
		if p.DBMS == s.DBMS || p.DBMS == DBMSGeneric || p.DBMS == "" {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return in
	}
	return matched
}

func (s Selector) cap(in []Payload) []Payload {
	if s.MaxPerTechnique > 0 && len(in) > s.MaxPerTechnique {
		return in[:s.MaxPerTechnique]
	}
	return in
}
