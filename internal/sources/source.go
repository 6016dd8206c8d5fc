// Package sources performs the concurrent multi-source collection of raw
// candidate mentions for a subject.
package sources

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/simonL79/aria-ops-ai-sub008/internal/config"
)

// Source kinds.
const (
	KindRSS    = "rss"
	KindAtom   = "atom"
	KindSearch = "search"
)

// Source is one configured external feed.
type Source struct {
	Name string
	URL  string // search sources carry a %s query placeholder
	Kind string
}

// Candidate is one unvalidated unit of raw content pulled from a source.
// It exists only within one scan invocation's memory.
type Candidate struct {
	Platform    string
	Content     string // item title
	Body        string // title plus description text, sanitization pending
	URL         string
	PublishedAt time.Time
}

// FromConfig converts configured sources, dropping entries with no URL.
func FromConfig(cfgs []config.Source) []Source {
	srcs := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		if c.URL == "" {
			continue
		}
		kind := strings.ToLower(c.Kind)
		if kind == "" {
			kind = KindRSS
		}
		name := c.Name
		if name == "" {
			name = extractSourceName(c.URL)
		}
		srcs = append(srcs, Source{Name: name, URL: c.URL, Kind: kind})
	}
	return srcs
}

// FetchURL resolves the URL to fetch for a query. Static feeds ignore the
// query; search feeds interpolate it escaped.
func (s Source) FetchURL(query string) string {
	if s.Kind != KindSearch {
		return s.URL
	}
	if strings.Contains(s.URL, "%s") {
		return fmt.Sprintf(s.URL, url.QueryEscape(query))
	}
	return s.URL + url.QueryEscape(query)
}

var secondLevelTLDs = map[string]bool{
	"co": true, "com": true, "org": true, "net": true, "gov": true, "ac": true,
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		// Two-part TLDs like co.uk: the registrable label sits one deeper.
		if len(parts) >= 3 && secondLevelTLDs[name] {
			name = parts[len(parts)-3]
		}
		return strings.ToUpper(name[:1]) + name[1:]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
