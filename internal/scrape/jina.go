package scrape

import (
	"context"
	"strings"

	"github.com/sells-group/rival-intel/pkg/jina"
)

// JinaAdapter wraps a Jina Reader client as a Scraper. It is the usual
// second link in the chain: no JS rendering, but no key required and
// generous limits.
type JinaAdapter struct {
	client jina.Client
}

// NewJinaAdapter creates a JinaAdapter from a Jina client.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	return &JinaAdapter{client: client}
}

// Name implements Scraper.
func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns true for http(s) URLs; the reader proxies anything else
// poorly (file downloads, non-web schemes).
func (j *JinaAdapter) Supports(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Scrape fetches a single URL via the Jina Reader.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	return &Result{
		URL:      resp.Data.URL,
		Title:    resp.Data.Title,
		Markdown: resp.Data.Content,
		Source:   "jina",
	}, nil
}
