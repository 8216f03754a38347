// Package crawler discovers scan targets: a bounded same-host crawl over
// page links and forms, plus a common-endpoint synthesis fallback for
// targets that expose no parameters of their own.
package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sqlscout/sqlscout/pkg/duration"
	"github.com/sqlscout/sqlscout/pkg/extract"
	"github.com/sqlscout/sqlscout/pkg/fingerprint"
	"github.com/sqlscout/sqlscout/pkg/httpclient"
	"github.com/sqlscout/sqlscout/pkg/iohelper"
	"github.com/sqlscout/sqlscout/pkg/payloads"
)

// Page is one crawled document.
type Page struct {
	URL        string
	Depth      int
	StatusCode int
	Title      string
	Links      []string
	Forms      []extract.Form
}

// WebCrawler is the consumer-side interface. The orchestrator depends on
// this rather than the concrete type so tests can substitute fixed pages.
type WebCrawler interface {
	Crawl(ctx context.Context, startURL string) ([]Page, error)
}

// Config holds crawl limits and request options.
type Config struct {
	MaxDepth          int
	MaxPages          int
	RequestsPerSecond float64
	UserAgent         string
	Client            *http.Client
}

// DefaultConfig returns crawl defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:          3,
		MaxPages:          100,
		RequestsPerSecond: 10,
	}
}

// skippedExtensions are asset types that never yield injectable surface.
var skippedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".mp3", ".mp4", ".wav", ".avi", ".mov", ".webm",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".tar", ".gz", ".rar", ".7z",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".css", ".js",
}

// Crawler is the default same-host breadth-first crawler.
type Crawler struct {
	cfg    Config
	client *http.Client
	pacer  *rate.Limiter
}

var _ WebCrawler = (*Crawler)(nil)

// New creates a crawler. A nil client gets a pooled client with the
// crawling timeout.
func New(cfg Config) *Crawler {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig().MaxDepth
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultConfig().MaxPages
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	client := cfg.Client
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: duration.HTTPCrawling})
	}
	return &Crawler{
		cfg:    cfg,
		client: client,
		pacer:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

type frontierEntry struct {
	url   string
	depth int
}

// Crawl walks same-host links breadth-first from startURL up to the depth
// and page caps, returning every fetched page with its links and forms.
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}

	seen := map[uint64]bool{fingerprint.URLKey(http.MethodGet, startURL): true}
	frontier := []frontierEntry{{url: startURL, depth: 0}}
	var pages []Page

	for len(frontier) > 0 && len(pages) < c.cfg.MaxPages {
		if err := c.pacer.Wait(ctx); err != nil {
			return pages, err
		}
		entry := frontier[0]
		frontier = frontier[1:]

		page, err := c.fetch(ctx, entry)
		if err != nil {
			if ctx.Err() != nil {
				return pages, ctx.Err()
			}
			continue
		}
		pages = append(pages, page)

		if entry.depth >= c.cfg.MaxDepth {
			continue
		}
		for _, link := range page.Links {
			if !c.inScope(link, start.Host) {
				continue
			}
			key := fingerprint.URLKey(http.MethodGet, link)
			if seen[key] {
				continue
			}
			seen[key] = true
			frontier = append(frontier, frontierEntry{url: link, depth: entry.depth + 1})
		}
	}
	return pages, nil
}

func (c *Crawler) fetch(ctx context.Context, entry frontierEntry) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.url, nil)
	if err != nil {
		return Page{}, err
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	page := Page{URL: entry.url, Depth: entry.depth, StatusCode: resp.StatusCode}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "text/html") {
		return page, nil
	}
	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return page, nil
	}

	base, err := url.Parse(entry.url)
	if err != nil {
		return page, nil
	}
	parsed := extract.Parse(string(body), base)
	page.Title = parsed.Title
	page.Links = parsed.Links
	page.Forms = parsed.Forms
	return page, nil
}

// inScope keeps the crawl on the start host and off asset files.
func (c *Crawler) inScope(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != host {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

// commonEndpoints are paths worth probing when a crawl surfaces nothing
// injectable.
var commonEndpoints = []string{
	"", "/search", "/product", "/item", "/article", "/news",
	"/category", "/user", "/view", "/page", "/index.php",
}

// Synthesize builds candidate URLs from common endpoints and parameter
// names for targets whose crawl found no query strings or forms. maxParams
// caps the parameter names used per endpoint (0 means 8).
func Synthesize(baseURL string, maxParams int) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	if maxParams <= 0 {
		maxParams = 8
	}
	params := payloads.CommonParams()
	if len(params) > maxParams {
		params = params[:maxParams]
	}

	var out []string
	for _, endpoint := range commonEndpoints {
		u := *base
		if endpoint != "" {
			u.Path = endpoint
		}
		for _, name := range params {
			q := url.Values{}
			q.Set(name, "1")
			u.RawQuery = q.Encode()
			out = append(out, u.String())
		}
	}
	return out
}
