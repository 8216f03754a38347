// Package prioritize orders candidate URLs by how likely their shape is to
// reach a database query, so the most promising surface is probed first.
package prioritize

import (
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/sqlscout/sqlscout/pkg/regexcache"
)

// Tier is a coarse priority class.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// idParams are identifier-style names that commonly feed WHERE clauses.
var idParams = []string{
	"id", "user_id", "item_id", "product_id", "post_id", "article_id",
	"page_id", "news_id", "category_id", "cat_id", "action_id",
	"material_id", "section_id", "module_id", "record_id", "profile_id",
	"file_id", "ticket_id", "message_id", "thread_id", "topic_id",
	"group_id", "event_id", "type", "uid", "pid", "tid", "gid", "sid",
	"lid", "cid",
}

// searchParams are names used by search and filter features.
var searchParams = []string{
	"search", "query", "q", "filter", "keyword", "find", "lookup",
	"term", "terms", "key", "where", "criteria", "condition",
	"search_for", "searchterm", "search_query", "pattern", "contains",
	"name", "title",
}

// authParams are names seen on login and account surfaces.
var authParams = []string{
	"username", "user", "email", "login", "account", "pass", "pin",
	"auth", "memberid", "customer", "member", "admin",
}

// scriptExtensions are server-side handlers where any parameter is worth
// an early look.
var scriptExtensions = []string{
	".php", ".asp", ".aspx", ".jsp", ".do", ".action", ".cgi",
}

// dbEndpoints are path words that usually sit in front of a database.
var dbEndpoints = []string{
	"admin", "login", "user", "account", "profile", "product", "item",
	"search", "api", "query", "report", "view", "show", "display",
	"backend", "dashboard", "control", "panel", "manage", "list",
	"catalog", "category", "cart", "order", "shop", "store",
}

func paramPattern(names []string, value string) string {
	return `(?i)[?&](` + strings.Join(names, "|") + `)=` + value
}

var (
	// numeric identifier parameters, the classic injection point
	idParamRe     = regexcache.MustGet(paramPattern(idParams, `\d+`))
	searchParamRe = regexcache.MustGet(paramPattern(searchParams, ``))
	authParamRe   = regexcache.MustGet(paramPattern(authParams, ``))
	numericPathRe = regexcache.MustGet(`/\d+(/|$)`)
)

// Classify assigns a URL to a tier from its parameters and path shape.
func Classify(rawURL string) Tier {
	pathLower := ""
	if u, err := url.Parse(rawURL); err == nil {
		pathLower = strings.ToLower(u.Path)
	}

	switch {
	case idParamRe.MatchString(rawURL),
		searchParamRe.MatchString(rawURL),
		authParamRe.MatchString(rawURL),
		strings.Count(rawURL, "=") > 2,
		hasScriptExtension(pathLower) && strings.Contains(rawURL, "="):
		return TierHigh
	case strings.Contains(rawURL, "="),
		hasDBEndpoint(pathLower),
		numericPathRe.MatchString(pathLower):
		return TierMedium
	default:
		return TierLow
	}
}

func hasScriptExtension(pathLower string) bool {
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return true
		}
	}
	return false
}

func hasDBEndpoint(pathLower string) bool {
	for _, word := range dbEndpoints {
		if strings.Contains(pathLower, word) {
			return true
		}
	}
	return false
}

// Order groups urls into tiers, shuffles within each tier so a defender
// cannot learn a fixed probe sequence, and concatenates high, medium, low.
// A nil rnd gets a time-seeded source.
func Order(urls []string, rnd *rand.Rand) []string {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	tiers := map[Tier][]string{}
	for _, u := range urls {
		t := Classify(u)
		tiers[t] = append(tiers[t], u)
	}

	out := make([]string, 0, len(urls))
	for _, t := range []Tier{TierHigh, TierMedium, TierLow} {
		group := tiers[t]
		rnd.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		out = append(out, group...)
	}
	return out
}
