package detect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sqlscout/sqlscout/pkg/requester"
)

// injectableHeaders are the request headers worth testing. Applications
// routinely log or store these unsanitized.
var injectableHeaders = []string{"User-Agent", "Referer", "X-Forwarded-For"}

// HeaderParams returns header injection points for a target.
func HeaderParams() []Param {
	params := make([]Param, 0, len(injectableHeaders))
	for _, h := range injectableHeaders {
		params = append(params, Param{Name: h, Value: "", Location: LocationHeader})
	}
	return params
}

// buildProbe places value at the parameter's injection point, carrying the
// target's other parameters at their original values.
func buildProbe(tgt Target, p Param, value string) (*requester.Probe, error) {
	switch p.Location {
	case LocationQuery, "":
		u, err := url.Parse(tgt.URL)
		if err != nil {
			return nil, fmt.Errorf("parse target url: %w", err)
		}
		q := u.Query()
		q.Set(p.Name, value)
		u.RawQuery = q.Encode()
		method := tgt.Method
		if method == "" {
			method = http.MethodGet
		}
		return &requester.Probe{Method: method, URL: u.String()}, nil

	case LocationForm:
		form := url.Values{}
		for _, other := range tgt.Params {
			if other.Location == LocationForm {
				form.Set(other.Name, other.Value)
			}
		}
		form.Set(p.Name, value)
		return &requester.Probe{
			Method:      http.MethodPost,
			URL:         tgt.URL,
			Body:        form.Encode(),
			ContentType: "application/x-www-form-urlencoded",
		}, nil

	case LocationJSON:
		doc := map[string]string{}
		for _, other := range tgt.Params {
			if other.Location == LocationJSON {
				doc[other.Name] = other.Value
			}
		}
		doc[p.Name] = value
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal json body: %w", err)
		}
		return &requester.Probe{
			Method:      http.MethodPost,
			URL:         tgt.URL,
			Body:        string(body),
			ContentType: "application/json",
		}, nil

	case LocationHeader:
		h := http.Header{}
		h.Set(p.Name, value)
		return &requester.Probe{Method: http.MethodGet, URL: tgt.URL, Header: h}, nil

	case LocationCookie:
		cookies := make([]string, 0, len(tgt.Params))
		for _, other := range tgt.Params {
			if other.Location == LocationCookie && other.Name != p.Name {
				cookies = append(cookies, other.Name+"="+other.Value)
			}
		}
		cookies = append(cookies, p.Name+"="+value)
		h := http.Header{}
		h.Set("Cookie", strings.Join(cookies, "; "))
		return &requester.Probe{Method: http.MethodGet, URL: tgt.URL, Header: h}, nil
	}

	return nil, fmt.Errorf("unknown injection location %q", p.Location)
}

// locationLabel names the injection point for finding records: the URL for
// query and body parameters, URL plus header or cookie name otherwise.
func locationLabel(tgt Target, p Param) string {
	switch p.Location {
	case LocationHeader:
		return tgt.URL + " [header " + p.Name + "]"
	case LocationCookie:
		return tgt.URL + " [cookie " + p.Name + "]"
	}
	return tgt.URL
}
