package model

import "time"

// Severity ranks how exploitable a weakness is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether s is one of the three recognized severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Weakness is a single structured finding about a competitor, produced by
// parsing the generation model's response. Title and Description are always
// non-empty; entries missing either are dropped during parsing.
type Weakness struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
}

// AnalysisResult is the final outcome of one analysis run, returned to the
// caller whether or not persistence succeeded. Weaknesses preserve the order
// the model produced them in; callers number and export them in that order.
type AnalysisResult struct {
	CompetitorName   string     `json:"competitor_name"`
	TargetURL        string     `json:"target_url"`
	Weaknesses       []Weakness `json:"weaknesses"`
	AnalyzedAt       time.Time  `json:"analyzed_at"`
	RawContentLength int        `json:"raw_content_length"`
	ModelUsed        string     `json:"model_used"`
	UsedFallback     bool       `json:"used_fallback"`
}

// FetchResult is the normalized outcome of scraping a target page. It lives
// only for the duration of one analysis and is never persisted.
type FetchResult struct {
	Text           string `json:"-"`
	Length         int    `json:"length"`
	Truncated      bool   `json:"truncated"`
	OriginalLength int    `json:"original_length"`
}

// ModelOption describes one allow-listed generation model. The catalog is
// server configuration; ids never come from user input.
type ModelOption struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	DailyQuota string `json:"daily" yaml:"daily"`
	Note       string `json:"note,omitempty" yaml:"note,omitempty"`
	Default    bool   `json:"-" yaml:"default,omitempty"`
}
