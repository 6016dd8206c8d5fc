package sources

import (
	"context"
	"io"
	"log"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// Stats summarizes one fan-out run. Failures are informational; a failed
// fetch never aborts siblings.
type Stats struct {
	Jobs       int
	Succeeded  int
	Failed     int
	Items      int
	Duplicates int
}

// Fetcher fans queries out across sources with a bounded worker pool.
type Fetcher struct {
	sources  []Source
	client   *http.Client
	workers  int
	maxItems int // per source per query
	timeout  time.Duration
}

// NewFetcher creates a fetcher. Zero values fall back to defaults:
// cores*4 workers, 10s per-request timeout, 8 items per source per query.
func NewFetcher(srcs []Source, workers, maxItems int, timeout time.Duration) *Fetcher {
	if workers <= 0 {
		workers = runtime.NumCPU() * 4
	}
	if maxItems <= 0 {
		maxItems = 8
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		sources:  srcs,
		client:   &http.Client{Timeout: timeout},
		workers:  workers,
		maxItems: maxItems,
		timeout:  timeout,
	}
}

type job struct {
	source Source
	query  string
	url    string
}

type outcome struct {
	candidates []Candidate
	err        error
	source     string
	url        string
}

// Fetch issues one request per (query, source) pair, collapsing static
// feeds to a single request per scan, and returns every candidate whose
// body mentions the subject. Per-job errors are isolated: logged, counted,
// and swallowed. Order of the returned slice is not guaranteed.
func (f *Fetcher) Fetch(ctx context.Context, subject string, queries []string) ([]Candidate, Stats) {
	jobs := f.buildJobs(queries)
	stats := Stats{Jobs: len(jobs)}
	if len(jobs) == 0 {
		return nil, stats
	}

	jobCh := make(chan job)
	outCh := make(chan outcome)

	var wg sync.WaitGroup
	workers := f.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				outCh <- f.run(ctx, subject, j)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case jobCh <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	var all []Candidate
	seen := make(map[string]struct{})
	for out := range outCh {
		if out.err != nil {
			stats.Failed++
			log.Printf("Source %s failed (%s): %v", out.source, out.url, out.err)
			continue
		}
		stats.Succeeded++
		for _, c := range out.candidates {
			if c.URL != "" {
				if _, dup := seen[c.URL]; dup {
					stats.Duplicates++
					continue
				}
				seen[c.URL] = struct{}{}
			}
			all = append(all, c)
			stats.Items++
		}
	}

	return all, stats
}

// buildJobs expands (query, source) pairs, deduplicating by final fetch URL
// so static feeds are pulled once per scan instead of once per query.
func (f *Fetcher) buildJobs(queries []string) []job {
	var jobs []job
	seen := make(map[string]struct{})
	for _, q := range queries {
		for _, s := range f.sources {
			u := s.FetchURL(q)
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			jobs = append(jobs, job{source: s, query: q, url: u})
		}
	}
	return jobs
}

func (f *Fetcher) run(ctx context.Context, subject string, j job) outcome {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.get(reqCtx, j.url)
	if err != nil {
		return outcome{err: err, source: j.source.Name, url: j.url}
	}

	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return outcome{err: err, source: j.source.Name, url: j.url}
	}

	candidates := f.collect(feed, j.source, subject)
	return outcome{candidates: candidates, source: j.source.Name, url: j.url}
}

func (f *Fetcher) get(ctx context.Context, fetchURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fetchURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "ariascan/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httpError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// collect applies the per-feed item cap and the cheap relevance gate: a
// case-insensitive substring match of the subject in the raw item body.
func (f *Fetcher) collect(feed *gofeed.Feed, source Source, subject string) []Candidate {
	subjectLower := strings.ToLower(subject)
	var candidates []Candidate

	for _, item := range feed.Items {
		if len(candidates) >= f.maxItems {
			break
		}

		c := parseItem(item, source.Name)
		if c == nil {
			continue
		}
		if !strings.Contains(strings.ToLower(c.Body), subjectLower) {
			continue
		}
		candidates = append(candidates, *c)
	}
	return candidates
}

func parseItem(item *gofeed.Item, platform string) *Candidate {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}

	body := title
	if item.Description != "" {
		body += " " + stripHTML(item.Description)
	} else if item.Content != "" {
		body += " " + stripHTML(item.Content)
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return &Candidate{
		Platform:    platform,
		Content:     title,
		Body:        body,
		URL:         itemURL,
		PublishedAt: published,
	}
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
