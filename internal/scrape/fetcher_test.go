package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rival-intel/pkg/firecrawl"
	"github.com/sells-group/rival-intel/pkg/jina"
)

func requireFetchError(t *testing.T, err error, kind FetchErrorKind) *FetchError {
	t.Helper()
	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %T: %v", err, err)
	assert.Equal(t, kind, fe.Kind)
	return fe
}

func TestFetchSuccessNormalizes(t *testing.T) {
	t.Parallel()

	scraper := &stubScraper{supports: true, result: &Result{
		Markdown: "# Competitor\r\n\r\n\r\n\r\nPricing is hidden.  ",
		Source:   "firecrawl",
	}}
	f := NewFetcher(scraper, 10000, 0)

	res, err := f.Fetch(context.Background(), "https://x.example")
	require.NoError(t, err)
	assert.Equal(t, "# Competitor\n\nPricing is hidden.", res.Text)
	assert.Equal(t, len(res.Text), res.Length)
	assert.False(t, res.Truncated)
	assert.Equal(t, res.Length, res.OriginalLength)
}

func TestFetchTruncatesNotRejects(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("competitor pricing data ", 1000) // ~24k chars
	scraper := &stubScraper{supports: true, result: &Result{Markdown: big}}
	f := NewFetcher(scraper, 10000, 0)

	res, err := f.Fetch(context.Background(), "https://x.example")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, res.Length, 10000)
	assert.Greater(t, res.OriginalLength, 10000)
	assert.Equal(t, len(res.Text), res.Length)
}

func TestFetchEmptyContentKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\n\t  "},
		{"zero width only", "\u200b\ufeff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			scraper := &stubScraper{supports: true, result: &Result{Markdown: tt.markdown}}
			f := NewFetcher(scraper, 10000, 0)

			_, err := f.Fetch(context.Background(), "https://x.example")
			fe := requireFetchError(t, err, FetchEmptyContent)
			assert.Equal(t, "https://x.example", fe.URL)
		})
	}
}

func TestFetchClassifiesTimeout(t *testing.T) {
	t.Parallel()

	scraper := &stubScraper{supports: true, err: context.DeadlineExceeded}
	f := NewFetcher(scraper, 10000, 0)

	_, err := f.Fetch(context.Background(), "https://slow.example")
	requireFetchError(t, err, FetchTimeout)
}

func TestFetchEnforcesTimeout(t *testing.T) {
	t.Parallel()

	slow := &slowScraper{delay: 500 * time.Millisecond}
	f := NewFetcher(slow, 10000, 20*time.Millisecond)

	start := time.Now()
	_, err := f.Fetch(context.Background(), "https://slow.example")
	requireFetchError(t, err, FetchTimeout)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestFetchClassifiesProviderStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want FetchErrorKind
	}{
		{"firecrawl 502", &firecrawl.APIError{StatusCode: 502, Body: "bad gateway"}, FetchUnreachable},
		{"firecrawl 504", &firecrawl.APIError{StatusCode: 504, Body: "upstream timeout"}, FetchTimeout},
		{"firecrawl 408", &firecrawl.APIError{StatusCode: 408, Body: "request timeout"}, FetchTimeout},
		{"jina 422 no content", &jina.APIError{StatusCode: 422, Body: "no content"}, FetchEmptyContent},
		{"jina 401", &jina.APIError{StatusCode: 401, Body: "bad key"}, FetchUnreachable},
		{"plain transport error", errors.New("dial tcp: connection refused"), FetchUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			scraper := &stubScraper{supports: true, err: tt.err}
			f := NewFetcher(scraper, 10000, 0)

			_, err := f.Fetch(context.Background(), "https://x.example")
			requireFetchError(t, err, tt.want)
		})
	}
}

func TestFetchErrorKindStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fetch_timeout", FetchTimeout.String())
	assert.Equal(t, "fetch_unreachable", FetchUnreachable.String())
	assert.Equal(t, "fetch_empty_content", FetchEmptyContent.String())
}

// slowScraper blocks until its delay elapses or the context expires.
type slowScraper struct {
	delay time.Duration
}

func (s *slowScraper) Scrape(ctx context.Context, url string) (*Result, error) {
	select {
	case <-time.After(s.delay):
		return &Result{Markdown: "late"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowScraper) Name() string         { return "slow" }
func (s *slowScraper) Supports(string) bool { return true }
