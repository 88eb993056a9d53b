// Package fetch downloads the openFDA food adverse-event corpus into the
// local data directory. The date range is split into month buckets, each
// bucket is paged through the API, and every page is saved verbatim as one
// JSON file. Completed buckets are recorded in the ledger so an interrupted
// run resumes instead of starting over.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NDua7/Technical-Assignment/internal/config"
	"github.com/NDua7/Technical-Assignment/internal/database"
)

const (
	maxRetries     = 10
	maxBackoff     = 30 * time.Second
	interPagePause = 30 * time.Millisecond
)

// Result holds the results of a fetch run.
type Result struct {
	Buckets        int
	BucketsFetched int
	BucketsSkipped int
	Pages          int
	Records        int
	Errors         int
}

// Fetcher downloads month buckets with a small worker pool.
type Fetcher struct {
	cfg     config.Fetch
	db      *database.DB
	dataDir string
	apiKey  string
	client  *http.Client

	mu     sync.Mutex
	result Result
}

// New creates a fetcher. The API key is read from the configured environment
// variable; an empty key still works at openFDA's anonymous rate limits.
func New(cfg config.Fetch, db *database.DB, dataDir string) *Fetcher {
	return &Fetcher{
		cfg:     cfg,
		db:      db,
		dataDir: dataDir,
		apiKey:  os.Getenv(cfg.APIKeyEnv),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Run downloads every incomplete bucket in the configured date range. With
// force set, the ledger is cleared first and everything re-downloads.
func (f *Fetcher) Run(ctx context.Context, force bool) (*Result, error) {
	buckets, err := Buckets(f.cfg.StartDate, f.cfg.EndDate)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if force {
		if err := f.db.ClearBuckets(); err != nil {
			return nil, err
		}
	}

	f.result = Result{Buckets: len(buckets)}

	concurrency := f.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	log.Printf("Fetching %d month buckets with %d workers", len(buckets), concurrency)

	jobs := make(chan Bucket)
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for b := range jobs {
				f.runBucket(ctx, id, b)
			}
		}(w + 1)
	}

	for _, b := range buckets {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- b:
		}
	}
	close(jobs)
	wg.Wait()

	r := f.result
	return &r, nil
}

func (f *Fetcher) runBucket(ctx context.Context, worker int, b Bucket) {
	done, err := f.db.BucketDone(b.Start, b.End)
	if err != nil {
		log.Printf("[w%d] ledger error for %s..%s: %v", worker, b.Start, b.End, err)
	}
	if done {
		f.mu.Lock()
		f.result.BucketsSkipped++
		f.mu.Unlock()
		return
	}

	pages, records, err := f.downloadBucket(ctx, b)
	if err != nil {
		log.Printf("[w%d] bucket %s..%s failed: %v", worker, b.Start, b.End, err)
		f.mu.Lock()
		f.result.Errors++
		f.mu.Unlock()
		return
	}

	if err := f.db.MarkBucketDone(b.Start, b.End, pages, records); err != nil {
		log.Printf("[w%d] ledger error for %s..%s: %v", worker, b.Start, b.End, err)
	}
	log.Printf("[w%d] done %s..%s pages=%d records=%d", worker, b.Start, b.End, pages, records)

	f.mu.Lock()
	f.result.BucketsFetched++
	f.result.Pages += pages
	f.result.Records += records
	f.mu.Unlock()
}

// downloadBucket pages through one month bucket, saving each page as
// food_event_<start>_<end>_p<n>.json.
func (f *Fetcher) downloadBucket(ctx context.Context, b Bucket) (pages, records int, err error) {
	pageURL := f.firstURL(b)
	for pageURL != "" {
		pages++
		body, next, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			return pages, records, err
		}

		records += countResults(body)

		name := fmt.Sprintf("food_event_%s_%s_p%d.json", b.Start, b.End, pages)
		if err := os.WriteFile(filepath.Join(f.dataDir, name), body, 0o644); err != nil {
			return pages, records, fmt.Errorf("writing page: %w", err)
		}

		pageURL = next

		select {
		case <-ctx.Done():
			return pages, records, ctx.Err()
		case <-time.After(interPagePause):
		}
	}
	return pages, records, nil
}

// firstURL builds the first page URL for a bucket.
func (f *Fetcher) firstURL(b Bucket) string {
	params := url.Values{
		"search": {fmt.Sprintf("date_started:[%s TO %s]", b.Start, b.End)},
		"limit":  {strconv.Itoa(f.cfg.PageLimit)},
		"sort":   {"date_started:asc"},
	}
	if f.apiKey != "" {
		params.Set("api_key", f.apiKey)
	}
	return f.cfg.BaseURL + "?" + params.Encode()
}

// fetchPage retrieves one page, retrying rate limits and server errors with
// exponential backoff, and returns the body plus the rel="next" URL.
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (body []byte, next string, err error) {
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("User-Agent", "foodevents/1.0 (openFDA downloader)")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, "", err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt >= maxRetries {
				return nil, "", fmt.Errorf("HTTP %d after %d attempts", resp.StatusCode, attempt)
			}
			wait := retryDelay(resp.Header.Get("Retry-After"), attempt)
			log.Printf("retry %d in %s", resp.StatusCode, wait)
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet := string(data)
			if len(snippet) > 160 {
				snippet = snippet[:160]
			}
			return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet)
		}
		if readErr != nil {
			return nil, "", fmt.Errorf("reading response: %w", readErr)
		}

		return data, nextURLFromLink(resp.Header.Get("Link")), nil
	}
}

// retryDelay honors Retry-After when present, otherwise backs off
// exponentially up to maxBackoff.
func retryDelay(retryAfter string, attempt int) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	wait := 500 * time.Millisecond << (attempt - 1)
	if wait > maxBackoff {
		wait = maxBackoff
	}
	return wait
}

// nextURLFromLink extracts the rel="next" target from a Link header.
func nextURLFromLink(link string) string {
	if link == "" {
		return ""
	}
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		open := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if open >= 0 && end > open {
			return part[open+1 : end]
		}
	}
	return ""
}

// countResults counts the records on a saved page without fully modeling it.
func countResults(body []byte) int {
	var doc struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0
	}
	return len(doc.Results)
}
