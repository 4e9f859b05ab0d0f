package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/model"
	"github.com/sells-group/rival-intel/internal/resilience"
	"github.com/sells-group/rival-intel/pkg/firecrawl"
	"github.com/sells-group/rival-intel/pkg/jina"
)

// FetchErrorKind classifies why a fetch failed. Every provider error is
// normalized into exactly one of these before leaving the package.
type FetchErrorKind int

const (
	// FetchTimeout: the provider or the page did not answer in time.
	FetchTimeout FetchErrorKind = iota
	// FetchUnreachable: transport failure, provider rejection, or non-2xx
	// from the target site.
	FetchUnreachable
	// FetchEmptyContent: the page answered but produced no usable text.
	FetchEmptyContent
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchTimeout:
		return "fetch_timeout"
	case FetchUnreachable:
		return "fetch_unreachable"
	case FetchEmptyContent:
		return "fetch_empty_content"
	default:
		return "fetch_unknown"
	}
}

// FetchError is the typed failure for the fetch stage.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch: %s: %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("fetch: %s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher normalizes the scraping chain's output into a FetchResult:
// canonical text, bounded length, and a typed failure when the page could
// not be read. It never retries; provider fallback inside the chain is the
// only second chance a fetch gets.
type Fetcher struct {
	scraper  Scraper
	maxChars int
	timeout  time.Duration
}

// NewFetcher wraps a scraper with normalization and truncation policy.
// maxChars bounds prompt size by truncation (never rejection); timeout
// bounds the whole scrape including provider fallbacks.
func NewFetcher(scraper Scraper, maxChars int, timeout time.Duration) *Fetcher {
	return &Fetcher{scraper: scraper, maxChars: maxChars, timeout: timeout}
}

// Fetch retrieves and normalizes the page at url. On failure the returned
// error is always a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.FetchResult, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	result, err := f.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, &FetchError{Kind: classifyFetchErr(err), URL: url, Err: err}
	}

	text := NormalizeContent(result.Markdown)
	if text == "" {
		return nil, &FetchError{Kind: FetchEmptyContent, URL: url}
	}

	originalLen := len(text)
	text, truncated := Truncate(text, f.maxChars)
	if truncated {
		zap.L().Info("fetch: content truncated",
			zap.String("url", url),
			zap.Int("original_length", originalLen),
			zap.Int("truncated_length", len(text)),
			zap.String("source", result.Source),
		)
	}

	return &model.FetchResult{
		Text:           text,
		Length:         len(text),
		Truncated:      truncated,
		OriginalLength: originalLen,
	}, nil
}

// classifyFetchErr maps arbitrary provider failures onto the three fetch
// error kinds. Timeouts are checked first so a deadline that surfaces as a
// wrapped transport error still counts as one.
func classifyFetchErr(err error) FetchErrorKind {
	if resilience.IsTimeout(err) {
		return FetchTimeout
	}

	var fcErr *firecrawl.APIError
	if errors.As(err, &fcErr) {
		return classifyStatus(fcErr.StatusCode)
	}
	var jinaErr *jina.APIError
	if errors.As(err, &jinaErr) {
		return classifyStatus(jinaErr.StatusCode)
	}

	return FetchUnreachable
}

func classifyStatus(status int) FetchErrorKind {
	switch status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return FetchTimeout
	case http.StatusUnprocessableEntity:
		// Reader providers use 422 for pages they could open but not extract.
		return FetchEmptyContent
	default:
		return FetchUnreachable
	}
}
