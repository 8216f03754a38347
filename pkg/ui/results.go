package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sqlscout/sqlscout/pkg/finding"
)

// FormatFinding renders one finding as a single nuclei-style line:
// [severity] [technique] location parameter [dbms] with the payload on a
// second line when verbose.
func FormatFinding(f finding.Finding, verbose bool) string {
	var parts []string

	parts = append(parts, bracket(SeverityStyle(string(f.Severity)).Render(string(f.Severity))))
	parts = append(parts, bracket(StatLabelStyle.Render(f.Type)))
	parts = append(parts, URLStyle.Render(f.Location))
	parts = append(parts, StatValueStyle.Render(f.Parameter))
	if f.DBMS != "" {
		parts = append(parts, bracket(StatLabelStyle.Render(f.DBMS)))
	}
	if f.Confidence > 0 {
		parts = append(parts, bracket(StatLabelStyle.Render(fmt.Sprintf("%.0f%%", f.Confidence*100))))
	}

	out := strings.Join(parts, " ")
	if verbose && f.Payload != "" {
		out += "\n      " + SubtitleStyle.Render("-> "+truncate(f.Payload, 80))
	}
	return out
}

// FormatEvidence renders a finding's evidence lines indented under it.
func FormatEvidence(f finding.Finding) string {
	if len(f.Evidence) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range f.Evidence {
		b.WriteString("      ")
		b.WriteString(SubtitleStyle.Render(truncate(e, 100)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSummary renders scan totals: findings by severity, parameter and
// request counts, and wall time.
func FormatSummary(res *finding.ScanResult) string {
	counts := map[finding.Severity]int{}
	for _, f := range res.Findings {
		counts[f.Severity]++
	}

	var b strings.Builder
	if len(res.Findings) == 0 {
		b.WriteString(SuccessStyle.Render("No SQL injection found"))
	} else {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%d injectable parameter(s) confirmed", len(res.Findings))))
	}
	b.WriteString("\n")

	for _, sev := range []finding.Severity{finding.Critical, finding.High, finding.Medium, finding.Low, finding.Info} {
		if counts[sev] == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %s\n",
			SeverityStyle(string(sev)).Render(string(sev)),
			StatValueStyle.Render(fmt.Sprintf("%d", counts[sev]))))
	}

	b.WriteString(fmt.Sprintf("  %s %s   %s %s   %s %s\n",
		StatLabelStyle.Render("params:"),
		StatValueStyle.Render(fmt.Sprintf("%d", res.TestedParams)),
		StatLabelStyle.Render("requests:"),
		StatValueStyle.Render(fmt.Sprintf("%d", res.Requests)),
		StatLabelStyle.Render("duration:"),
		StatValueStyle.Render(formatDuration(res.Duration))))
	return b.String()
}

func bracket(s string) string {
	return BracketStyle.Render("[") + s + BracketStyle.Render("]")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
