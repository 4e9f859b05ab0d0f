// Package scrape turns a target URL into normalized page text through a
// chain of external scraping providers.
package scrape

import "context"

// Result holds a scraped page with its source.
type Result struct {
	URL      string
	Title    string
	Markdown string
	Source   string // e.g. "firecrawl", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
