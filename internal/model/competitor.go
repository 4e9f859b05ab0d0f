package model

import "time"

// Competitor is the durable record for an analyzed competitor. Name is
// unique; re-analyzing the same name refreshes TargetURL and UpdatedAt
// instead of inserting a second row.
type Competitor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TargetURL string    `json:"target_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Insight is one persisted weakness row, cascade-deleted with its competitor.
type Insight struct {
	ID           string    `json:"id"`
	CompetitorID string    `json:"competitor_id"`
	Title        string    `json:"weakness_title"`
	Description  string    `json:"weakness_description"`
	Severity     Severity  `json:"severity"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
}

/// CompetitorSummary is the listing read model: a competitor plus how many
// insights its analyses have produced.
type CompetitorSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TargetURL    string    `json:"url"`
	InsightCount int       `json:"insight_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Competitor) String() string {
	return c.Name + " (" + c.TargetURL + ")"
}
