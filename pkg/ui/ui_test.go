package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/sqlscout/sqlscout/pkg/finding"
)

func TestMain(m *testing.M) {
	// Plain output so assertions see text, not escape codes.
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "sqlscout/"+Version, UserAgent())
}

func TestSilentToggle(t *testing.T) {
	SetSilent(true)
	assert.True(t, IsSilent())
	SetSilent(false)
	assert.False(t, IsSilent())
}

func TestFormatFinding(t *testing.T) {
	f := finding.New(finding.TypeError, "http://example.com/?id=1", "id", "' OR 1=1", finding.High)
	f.DBMS = "mysql"
	f.Confidence = 0.9

	line := FormatFinding(f, false)
	assert.Contains(t, line, "high")
	assert.Contains(t, line, finding.TypeError)
	assert.Contains(t, line, "http://example.com/?id=1")
	assert.Contains(t, line, "id")
	assert.Contains(t, line, "mysql")
	assert.Contains(t, line, "90%")
	assert.NotContains(t, line, "' OR 1=1")

	verbose := FormatFinding(f, true)
	assert.Contains(t, verbose, "' OR 1=1")
}

func TestFormatEvidence(t *testing.T) {
	f := finding.Finding{Evidence: []string{"marker surfaced at column 2 of 3", strings.Repeat("x", 200)}}
	out := FormatEvidence(f)
	assert.Contains(t, out, "marker surfaced")
	assert.Contains(t, out, "...")
	assert.Empty(t, FormatEvidence(finding.Finding{}))
}

func TestFormatSummary(t *testing.T) {
	res := &finding.ScanResult{
		TestedParams: 12,
		Requests:     340,
		Duration:     90 * time.Second,
		Findings: []finding.Finding{
			{Severity: finding.Critical},
			{Severity: finding.High},
			{Severity: finding.High},
		},
	}
	out := FormatSummary(res)
	assert.Contains(t, out, "3 injectable parameter(s) confirmed")
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "high")
	assert.NotContains(t, out, "medium")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "340")
	assert.Contains(t, out, "1m30s")
}

func TestFormatSummaryClean(t *testing.T) {
	out := FormatSummary(&finding.ScanResult{Duration: 500 * time.Millisecond})
	assert.Contains(t, out, "No SQL injection found")
	assert.Contains(t, out, "500ms")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := truncate(strings.Repeat("a", 50), 10)
	assert.Len(t, long, 10)
	assert.True(t, strings.HasSuffix(long, "..."))
}
