package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Version information, overridable at build time via ldflags:
// go build -ldflags "-X github.com/sqlscout/sqlscout/pkg/ui.Version=1.0.0"
var (
	Version   = "0.9.0"
	BuildDate = "dev"
	Commit    = "dev"
)

// UserAgent returns the standard User-Agent for scan requests.
func UserAgent() string {
	return fmt.Sprintf("sqlscout/%s", Version)
}

var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent suppresses banner and progress output.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent reports whether silent mode is on.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor reports whether color is disabled.
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

const bannerSeparator = "________________________________________________"

const miniBanner = `
________________________________________________

 sqlscout v%s
________________________________________________`

// PrintBanner prints the application banner to stderr.
func PrintBanner() {
	if IsSilent() {
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n\n", BannerStyle.Render(fmt.Sprintf(miniBanner, Version)))
}

// PrintConfigBanner prints the effective settings before a scan starts,
// in a fixed order for the known keys.
func PrintConfigBanner(options map[string]string) {
	if IsSilent() {
		return
	}
	order := []string{
		"Target", "Crawl", "Concurrency", "Rate Limit", "Timeout",
		"DBMS", "Headers", "OTLP", "Output",
	}
	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(name, value)
			printed[name] = true
		}
	}
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(name, value)
		}
	}
	fmt.Fprintf(os.Stderr, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

func printOption(name, value string) {
	fmt.Fprintf(os.Stderr, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintSection prints a section header to stderr.
func PrintSection(title string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, SectionStyle.Render("> "+title))
	fmt.Fprintln(os.Stderr, DividerStyle.Render(strings.Repeat("-", 75)))
}
