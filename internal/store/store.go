package store

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rival-intel/internal/model"
)

// ErrNotFound reports a lookup or delete for a competitor id that does not
// exist. Lookups by id that may legitimately miss return (nil, nil) instead.
var ErrNotFound = eris.New("store: competitor not found")

// Store defines the persistence interface for analysis results.
type Store interface {
	// SaveAnalysis upserts the competitor by its unique name, replaces
	// nothing, and appends the weaknesses as insight rows. It returns the
	// competitor id. A *PartialSaveError means the competitor row exists but
	// some or all insights were not written.
	SaveAnalysis(ctx context.Context, competitorName, targetURL string, weaknesses []model.Weakness) (string, error)

	ListCompetitors(ctx context.Context) ([]model.CompetitorSummary, error)
	GetCompetitor(ctx context.Context, id string) (*model.Competitor, error)
	ListInsights(ctx context.Context, competitorID string) ([]model.Insight, error)
	DeleteCompetitor(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// PartialSaveError distinguishes a half-landed save from a total one: the
// competitor row was written (or already existed) but insight rows failed.
type PartialSaveError struct {
	CompetitorID  string
	InsightsSaved int
	InsightsTotal int
	Err           error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("store: competitor %s saved but only %d/%d insights persisted: %v",
		e.CompetitorID, e.InsightsSaved, e.InsightsTotal, e.Err)
}

func (e *PartialSaveError) Unwrap() error { return e.Err }
