// Package finding provides the vulnerability finding types shared by the
// detection and orchestration packages, plus consolidation of duplicate
// findings reported for the same injection point.
package finding

import (
	"time"

	"github.com/google/uuid"
)

// Injection technique names used in Finding.Type.
const (
	TypeError        = "error-based"
	TypeUnion        = "union-based"
	TypeBooleanBlind = "boolean-blind"
	TypeTimeBlind    = "time-blind"
)

// Finding is a confirmed SQL injection vulnerability.
type Finding struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Parameter   string    `json:"parameter"`
	Payload     string    `json:"payload,omitempty"`
	Evidence    []string  `json:"evidence,omitempty"`
	Severity    Severity  `json:"severity"`
	DBMS        string    `json:"dbms,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Remediation string    `json:"remediation,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
}

// New creates a Finding with a fresh ID and timestamp.
func New(typ, location, parameter, payload string, severity Severity) Finding {
	return Finding{
		ID:         uuid.NewString(),
		Type:       typ,
		Location:   location,
		Parameter:  parameter,
		Payload:    payload,
		Severity:   severity,
		DetectedAt: time.Now(),
	}
}

// ScanResult is the base result type for a scan run.
type ScanResult struct {
	ScanID       string        `json:"scan_id"`
	Target       string        `json:"target"`
	TestedParams int           `json:"tested_params,omitempty"`
	Requests     int64         `json:"requests,omitempty"`
	StartTime    time.Time     `json:"start_time,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Findings     []Finding     `json:"findings,omitempty"`
}
