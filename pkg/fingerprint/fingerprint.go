// Package fingerprint reduces HTTP responses to compact structural
// signatures so boolean-blind detection can compare page shape instead of
// raw bytes. Dynamic noise (timestamps, tokens, inline data) lives in text
// nodes the signature mostly ignores; structure survives.
package fingerprint

import (
	"strings"

	"github.com/spaolacci/murmur3"
	"golang.org/x/net/html"
)

// Truncation lengths for extracted structural elements.
const (
	headingLen = 50
	titleLen   = 50
	metaLen    = 30
	chromeLen  = 20
	paraLen    = 50
	maxParas   = 5
)

// New builds a structural fingerprint of a response body. HTML documents are
// parsed and reduced to headings, title, meta content, page chrome and the
// first paragraphs. Anything else falls back to fixed-offset byte snippets.
func New(body, contentType string) string {
	if body == "" {
		return ""
	}
	if isHTML(body, contentType) {
		if fp := htmlFingerprint(body); fp != "" {
			return fp
		}
	}
	return rawFingerprint(body)
}

func isHTML(body, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(body)
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func htmlFingerprint(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var parts []string
	paras := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if t := nodeText(n); t != "" {
					parts = append(parts, truncate(t, headingLen))
				}
			case "title":
				if t := nodeText(n); t != "" {
					parts = append(parts, truncate(t, titleLen))
				}
			case "meta":
				for _, a := range n.Attr {
					if a.Key == "content" && a.Val != "" {
						parts = append(parts, truncate(a.Val, metaLen))
						break
					}
				}
			case "nav", "header", "footer":
				if t := nodeText(n); t != "" {
					parts = append(parts, truncate(t, chromeLen))
				}
			case "p":
				if paras < maxParas {
					if t := nodeText(n); t != "" {
						parts = append(parts, truncate(t, paraLen))
						paras++
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, "||")
}

// rawFingerprint samples fixed offsets so equal non-HTML bodies produce
// equal signatures without hashing the full payload.
func rawFingerprint(body string) string {
	if len(body) < 500 {
		head := truncate(body, 200)
		tail := body
		if len(body) > 200 {
			tail = body[len(body)-200:]
		}
		return head + "||" + tail
	}
	var parts []string
	for i := 0; i < 500; i += 100 {
		end := i + 50
		if end > len(body) {
			end = len(body)
		}
		parts = append(parts, body[i:end])
	}
	return strings.Join(parts, "||")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// URLKey returns a stable dedup key for a request target. The crawl
// frontier uses it to avoid revisiting pages.
func URLKey(method, rawURL string) uint64 {
	return murmur3.Sum64([]byte(method + " " + rawURL))
}
