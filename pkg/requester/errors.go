package requester

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies request failures so callers can decide whether to
// retry, back off hard, or discard the probe outcome.
type ErrorKind int

const (
	// KindTransient covers failures worth retrying: timeouts, connection
	// resets/refusals, and overload status codes.
	KindTransient ErrorKind = iota

	// KindCritical covers failures that mean the host is unhealthy or the
	// scan is being rejected. These abort retries and trigger a hard
	// rate-limit backoff.
	KindCritical

	// KindInconclusive covers outcomes that cannot be judged either way.
	// Detection drops these probes silently.
	KindInconclusive
)

// String returns the kind's lowercase name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindCritical:
		return "critical"
	case KindInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Error is a classified request failure.
type Error struct {
	Kind    ErrorKind
	Status  int
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("requester: %s failure (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("requester: %s failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind carried by err, or KindCritical for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindCritical
}

// IsTimeout reports whether err was a request timeout.
func IsTimeout(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Timeout
	}
	return false
}

// transientStatus lists status codes that indicate temporary overload.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// criticalStatus lists status codes that indicate the host is failing or
// actively rejecting the scan.
var criticalStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusNotImplemented:      true,
	http.StatusUnauthorized:        true,
	http.StatusForbidden:           true,
}

// transientIndicators are substrings of transport error text that mark a
// failure as retryable.
var transientIndicators = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"deadline exceeded",
	"temporary failure",
	"eof",
}

// ClassifyStatus maps an HTTP status to an ErrorKind for rate control.
// Statuses outside both tables are healthy responses.
func ClassifyStatus(status int) (ErrorKind, bool) {
	if transientStatus[status] {
		return KindTransient, true
	}
	if criticalStatus[status] {
		return KindCritical, true
	}
	return 0, false
}

// classifyTransport maps a transport-level error to an ErrorKind.
func classifyTransport(err error) (ErrorKind, bool) {
	if err == nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransient, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient, true
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range transientIndicators {
		if strings.Contains(msg, indicator) {
			return KindTransient, true
		}
	}
	// Unclassified transport failures are treated as critical.
	return KindCritical, false
}

// isTimeoutErr reports whether a transport error was a timeout.
func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
