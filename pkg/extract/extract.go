// Package extract pulls injectable surface out of HTML pages: links for
// the crawl frontier and forms with their fields for parameter testing.
package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Form is an HTML form with its submit target and named fields.
type Form struct {
	Action string
	Method string
	Fields []Field
}

// Field is a named form control.
type Field struct {
	Name  string
	Type  string
	Value string
}

// Page holds everything extracted from one HTML document.
type Page struct {
	Title string
	Links []string
	Forms []Form
}

// Parse walks an HTML document and extracts the title, same-document links
// resolved against base, and forms. A broken document yields whatever was
// parsed before the breakage; x/net/html does not fail on bad markup.
func Parse(body string, base *url.URL) Page {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return Page{}
	}

	var page Page
	seen := map[string]bool{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(nodeText(n))
				}
			case "a":
				if link := resolveRef(attr(n, "href"), base); link != "" && !seen[link] {
					seen[link] = true
					page.Links = append(page.Links, link)
				}
			case "form":
				page.Forms = append(page.Forms, parseForm(n, base))
				return // fields collected by parseForm
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page
}

// Links returns resolved, deduplicated anchor targets.
func Links(body string, base *url.URL) []string {
	return Parse(body, base).Links
}

// Forms returns the document's forms.
func Forms(body string, base *url.URL) []Form {
	return Parse(body, base).Forms
}

func parseForm(n *html.Node, base *url.URL) Form {
	form := Form{Method: "GET", Action: base.String()}
	if action := attr(n, "action"); action != "" {
		if resolved := resolveRef(action, base); resolved != "" {
			form.Action = resolved
		}
	}
	if method := attr(n, "method"); method != "" {
		form.Method = strings.ToUpper(method)
	}

	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "input":
				if name := attr(c, "name"); name != "" {
					typ := attr(c, "type")
					if typ == "" {
						typ = "text"
					}
					if injectableInput(typ) {
						form.Fields = append(form.Fields, Field{Name: name, Type: typ, Value: attr(c, "value")})
					}
				}
			case "textarea":
				if name := attr(c, "name"); name != "" {
					form.Fields = append(form.Fields, Field{Name: name, Type: "textarea", Value: strings.TrimSpace(nodeText(c))})
				}
			case "select":
				if name := attr(c, "name"); name != "" {
					form.Fields = append(form.Fields, Field{Name: name, Type: "select", Value: firstOption(c)})
				}
			}
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return form
}

// injectableInput filters out controls that never carry user-shaped data.
func injectableInput(typ string) bool {
	switch strings.ToLower(typ) {
	case "submit", "button", "reset", "image", "file":
		return false
	}
	return true
}

// firstOption returns the value of the first option so a select field gets
// a plausible original value.
func firstOption(sel *html.Node) string {
	for c := sel.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "option" {
			if v := attr(c, "value"); v != "" {
				return v
			}
			return strings.TrimSpace(nodeText(c))
		}
	}
	return ""
}

// resolveRef makes href absolute against base, dropping fragments and
// non-HTTP schemes.
func resolveRef(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return b.String()
}
