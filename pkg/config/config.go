// Package config holds scan options with three layers of precedence:
// built-in defaults, then a YAML config file, then CLI flags. The file
// only overrides fields it actually sets.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sqlscout/sqlscout/pkg/duration"
)

// Options is the merged scan configuration the CLI hands to the scanner.
type Options struct {
	Target         string
	Concurrency    int
	MinConcurrency int
	MaxConcurrency int
	Rate           float64
	Timeout        time.Duration
	Crawl          bool
	CrawlDepth     int
	CrawlPages     int
	DBMS           string
	TestHeaders    bool
	UserAgent      string
	OTLPEndpoint   string
	JSONOutput     bool
	Silent         bool
	NoColor        bool
	Verbose        bool
}

// Default returns the baseline options.
func Default() Options {
	return Options{
		Concurrency:    10,
		MinConcurrency: 1,
		MaxConcurrency: 50,
		Rate:           10,
		Timeout:        duration.ContextMedium,
		CrawlDepth:     3,
		CrawlPages:     100,
	}
}

// File is the YAML config schema. Pointer fields distinguish "not set"
// from an explicit zero.
type File struct {
	Target         string   `yaml:"target"`
	Concurrency    *int     `yaml:"concurrency"`
	MinConcurrency *int     `yaml:"min_concurrency"`
	MaxConcurrency *int     `yaml:"max_concurrency"`
	Rate           *float64 `yaml:"rate"`
	Timeout        string   `yaml:"timeout"`
	Crawl          *bool    `yaml:"crawl"`
	CrawlDepth     *int     `yaml:"crawl_depth"`
	CrawlPages     *int     `yaml:"crawl_pages"`
	DBMS           string   `yaml:"dbms"`
	TestHeaders    *bool    `yaml:"test_headers"`
	UserAgent      string   `yaml:"user_agent"`
	OTLPEndpoint   string   `yaml:"otlp_endpoint"`
	JSONOutput     *bool    `yaml:"json"`
	Silent         *bool    `yaml:"silent"`
	NoColor        *bool    `yaml:"no_color"`
	Verbose        *bool    `yaml:"verbose"`
}

// LoadFile reads and parses a YAML config. Unknown keys are an error so
// typos surface instead of silently doing nothing.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the file's set fields onto o.
func (o *Options) Apply(f *File) error {
	if f == nil {
		return nil
	}
	if f.Target != "" {
		o.Target = f.Target
	}
	if f.Concurrency != nil {
		o.Concurrency = *f.Concurrency
	}
	if f.MinConcurrency != nil {
		o.MinConcurrency = *f.MinConcurrency
	}
	if f.MaxConcurrency != nil {
		o.MaxConcurrency = *f.MaxConcurrency
	}
	if f.Rate != nil {
		o.Rate = *f.Rate
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("config: timeout: %w", err)
		}
		o.Timeout = d
	}
	if f.Crawl != nil {
		o.Crawl = *f.Crawl
	}
	if f.CrawlDepth != nil {
		o.CrawlDepth = *f.CrawlDepth
	}
	if f.CrawlPages != nil {
		o.CrawlPages = *f.CrawlPages
	}
	if f.DBMS != "" {
		o.DBMS = f.DBMS
	}
	if f.TestHeaders != nil {
		o.TestHeaders = *f.TestHeaders
	}
	if f.UserAgent != "" {
		o.UserAgent = f.UserAgent
	}
	if f.OTLPEndpoint != "" {
		o.OTLPEndpoint = f.OTLPEndpoint
	}
	if f.JSONOutput != nil {
		o.JSONOutput = *f.JSONOutput
	}
	if f.Silent != nil {
		o.Silent = *f.Silent
	}
	if f.NoColor != nil {
		o.NoColor = *f.NoColor
	}
	if f.Verbose != nil {
		o.Verbose = *f.Verbose
	}
	return nil
}

// Validate checks the merged options before a scan starts.
func (o *Options) Validate() error {
	if o.Target == "" {
		return fmt.Errorf("config: no target URL")
	}
	if o.MinConcurrency > o.MaxConcurrency {
		return fmt.Errorf("config: min concurrency %d above max %d", o.MinConcurrency, o.MaxConcurrency)
	}
	if o.Rate <= 0 {
		return fmt.Errorf("config: rate must be positive")
	}
	return nil
}
