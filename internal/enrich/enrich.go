// Package enrich fetches full page text for thin candidates via HTTP and
// readability extraction. Enrichment is best effort: a candidate that
// cannot be enriched keeps its feed-provided body.
package enrich

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/simonL79/aria-ops-ai-sub008/internal/sources"
)

const minExtractedLen = 100

// Result holds the results of an enrichment run.
type Result struct {
	Enriched int
	Skipped  int
	Failed   int
}

// Enricher upgrades candidate bodies with full page text.
type Enricher struct {
	client    *http.Client
	threshold int // bodies at or above this length are left alone
}

// NewEnricher creates an enricher. A zero threshold disables enrichment.
func NewEnricher(timeout time.Duration, threshold int) *Enricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Enricher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		threshold: threshold,
	}
}

// Enrich replaces the body of every thin candidate with extracted page text,
// in place. Failures are logged and skipped; a domain that fails once is not
// retried within the run.
func (e *Enricher) Enrich(ctx context.Context, candidates []sources.Candidate) *Result {
	result := &Result{}
	if e.threshold <= 0 {
		result.Skipped = len(candidates)
		return result
	}

	failedDomains := make(map[string]struct{})

	for i := range candidates {
		if ctx.Err() != nil {
			result.Skipped += len(candidates) - i
			break
		}

		c := &candidates[i]
		if c.URL == "" || len(c.Body) >= e.threshold {
			result.Skipped++
			continue
		}

		domain := hostOf(c.URL)
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, httpErr := e.fetchPageText(ctx, c.URL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s — skipping remaining from %s", c.URL, domain)
			continue
		}

		if text != "" {
			c.Body = text
			result.Enriched++
		} else {
			result.Failed++
			log.Printf("No extractable content from: %s", c.URL)
		}
	}

	log.Printf("Enrichment complete: %d enriched, %d skipped, %d failed", result.Enriched, result.Skipped, result.Failed)
	return result
}

func (e *Enricher) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ariascan/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(pageURL)
	page, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) > minExtractedLen {
		return text, nil
	}
	return "", nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
