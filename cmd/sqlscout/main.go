// Command sqlscout scans web applications for SQL injection using
// adaptive concurrency and per-host rate limiting.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqlscout/sqlscout/pkg/config"
	"github.com/sqlscout/sqlscout/pkg/finding"
	"github.com/sqlscout/sqlscout/pkg/metrics"
	"github.com/sqlscout/sqlscout/pkg/payloads"
	"github.com/sqlscout/sqlscout/pkg/scanner"
	"github.com/sqlscout/sqlscout/pkg/telemetry"
	"github.com/sqlscout/sqlscout/pkg/ui"
)

const (
	exitClean    = 0
	exitFindings = 1
	exitError    = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type cliFlags struct {
	fs         *flag.FlagSet
	configPath string
	opts       config.Options
}

func parseFlags(args []string) (*cliFlags, error) {
	c := &cliFlags{fs: flag.NewFlagSet("sqlscout", flag.ContinueOnError)}
	fs := c.fs

	fs.StringVar(&c.configPath, "config", "", "Path to YAML config file")

	fs.StringVar(&c.opts.Target, "u", "", "Target URL to scan")
	fs.StringVar(&c.opts.Target, "url", "", "Target URL to scan (alias of -u)")
	fs.IntVar(&c.opts.Concurrency, "c", 0, "Initial concurrency")
	fs.IntVar(&c.opts.Concurrency, "concurrency", 0, "Initial concurrency (alias of -c)")
	fs.IntVar(&c.opts.MinConcurrency, "min-concurrency", 0, "Concurrency floor")
	fs.IntVar(&c.opts.MaxConcurrency, "max-concurrency", 0, "Concurrency ceiling")
	fs.Float64Var(&c.opts.Rate, "rl", 0, "Requests per second per host")
	fs.Float64Var(&c.opts.Rate, "rate-limit", 0, "Requests per second per host (alias of -rl)")
	fs.DurationVar(&c.opts.Timeout, "timeout", 0, "Overall scan deadline (e.g. 5m)")
	fs.BoolVar(&c.opts.Crawl, "crawl", false, "Crawl the target before scanning")
	fs.IntVar(&c.opts.CrawlDepth, "depth", 0, "Maximum crawl depth")
	fs.IntVar(&c.opts.CrawlPages, "pages", 0, "Maximum pages to crawl")
	fs.StringVar(&c.opts.DBMS, "dbms", "", "Restrict payloads to one DBMS (mysql, postgresql, mssql, oracle, sqlite)")
	fs.BoolVar(&c.opts.TestHeaders, "headers", false, "Also test header injection points")
	fs.StringVar(&c.opts.UserAgent, "ua", "", "Custom User-Agent")
	fs.StringVar(&c.opts.OTLPEndpoint, "otlp", "", "OTLP gRPC endpoint for trace export")
	fs.BoolVar(&c.opts.JSONOutput, "json", false, "Emit results as JSON")
	fs.BoolVar(&c.opts.Silent, "silent", false, "Findings only, no banner")
	fs.BoolVar(&c.opts.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&c.opts.Verbose, "v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

// resolve layers defaults, the config file, and the flags the user
// actually passed, in that order.
func (c *cliFlags) resolve() (config.Options, error) {
	opts := config.Default()

	if c.configPath != "" {
		f, err := config.LoadFile(c.configPath)
		if err != nil {
			return opts, err
		}
		if err := opts.Apply(f); err != nil {
			return opts, err
		}
	}

	set := map[string]bool{}
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["u"] || set["url"] {
		opts.Target = c.opts.Target
	}
	if set["c"] || set["concurrency"] {
		opts.Concurrency = c.opts.Concurrency
	}
	if set["min-concurrency"] {
		opts.MinConcurrency = c.opts.MinConcurrency
	}
	if set["max-concurrency"] {
		opts.MaxConcurrency = c.opts.MaxConcurrency
	}
	if set["rl"] || set["rate-limit"] {
		opts.Rate = c.opts.Rate
	}
	if set["timeout"] {
		opts.Timeout = c.opts.Timeout
	}
	if set["crawl"] {
		opts.Crawl = c.opts.Crawl
	}
	if set["depth"] {
		opts.CrawlDepth = c.opts.CrawlDepth
	}
	if set["pages"] {
		opts.CrawlPages = c.opts.CrawlPages
	}
	if set["dbms"] {
		opts.DBMS = c.opts.DBMS
	}
	if set["headers"] {
		opts.TestHeaders = c.opts.TestHeaders
	}
	if set["ua"] {
		opts.UserAgent = c.opts.UserAgent
	}
	if set["otlp"] {
		opts.OTLPEndpoint = c.opts.OTLPEndpoint
	}
	if set["json"] {
		opts.JSONOutput = c.opts.JSONOutput
	}
	if set["silent"] {
		opts.Silent = c.opts.Silent
	}
	if set["no-color"] {
		opts.NoColor = c.opts.NoColor
	}
	if set["v"] {
		opts.Verbose = c.opts.Verbose
	}

	return opts, opts.Validate()
}

func run(args []string) int {
	cf, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitClean
		}
		return exitError
	}

	opts, err := cf.resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlscout: %v\n", err)
		return exitError
	}

	ui.SetSilent(opts.Silent || opts.JSONOutput)
	ui.SetNoColor(opts.NoColor)
	ui.PrintBanner()
	ui.PrintConfigBanner(configSummary(opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanCfg := scanner.Config{
		Concurrency:    opts.Concurrency,
		MinConcurrency: opts.MinConcurrency,
		MaxConcurrency: opts.MaxConcurrency,
		RatePerSecond:  opts.Rate,
		Timeout:        opts.Timeout,
		Crawl:          opts.Crawl,
		CrawlDepth:     opts.CrawlDepth,
		CrawlPages:     opts.CrawlPages,
		TestHeaders:    opts.TestHeaders,
		DBMS:           payloads.DBMS(opts.DBMS),
		UserAgent:      opts.UserAgent,
		Observer:       metrics.New(),
	}
	if scanCfg.UserAgent == "" {
		scanCfg.UserAgent = ui.UserAgent()
	}

	if opts.OTLPEndpoint != "" {
		hook, err := telemetry.New(telemetry.Options{
			Endpoint:       opts.OTLPEndpoint,
			ServiceVersion: ui.Version,
			Insecure:       true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqlscout: telemetry: %v\n", err)
			return exitError
		}
		defer func() {
			if err := hook.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "sqlscout: telemetry shutdown: %v\n", err)
			}
		}()
		scanCfg.Hook = hook
	}

	factory, ok := scanner.Lookup(scanner.KindAdaptive)
	if !ok {
		fmt.Fprintln(os.Stderr, "sqlscout: adaptive scanner not registered")
		return exitError
	}
	sc, err := factory(scanCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlscout: %v\n", err)
		return exitError
	}

	res, err := sc.Scan(ctx, opts.Target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlscout: scan failed: %v\n", err)
		return exitError
	}

	if err := render(os.Stdout, res, opts); err != nil {
		fmt.Fprintf(os.Stderr, "sqlscout: %v\n", err)
		return exitError
	}
	if len(res.Findings) > 0 {
		return exitFindings
	}
	return exitClean
}

func render(w io.Writer, res *finding.ScanResult, opts config.Options) error {
	if opts.JSONOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	for _, f := range res.Findings {
		fmt.Fprintln(w, ui.FormatFinding(f, opts.Verbose))
		if opts.Verbose && len(f.Evidence) > 0 {
			fmt.Fprintln(w, ui.FormatEvidence(f))
		}
	}
	fmt.Fprintln(w, ui.FormatSummary(res))
	return nil
}

func configSummary(opts config.Options) map[string]string {
	m := map[string]string{
		"Target":      opts.Target,
		"Concurrency": fmt.Sprintf("%d (%d-%d)", opts.Concurrency, opts.MinConcurrency, opts.MaxConcurrency),
		"Rate Limit":  fmt.Sprintf("%.1f req/s", opts.Rate),
		"Timeout":     opts.Timeout.Round(time.Second).String(),
	}
	if opts.Crawl {
		m["Crawl"] = fmt.Sprintf("depth %d, max %d pages", opts.CrawlDepth, opts.CrawlPages)
	}
	if opts.DBMS != "" {
		m["DBMS"] = opts.DBMS
	}
	if opts.TestHeaders {
		m["Headers"] = "enabled"
	}
	if opts.OTLPEndpoint != "" {
		m["OTLP"] = opts.OTLPEndpoint
	}
	if opts.JSONOutput {
		m["Output"] = "json"
	}
	return m
}
