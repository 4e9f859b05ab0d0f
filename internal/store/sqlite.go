package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rival-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Foreign keys are enabled so competitor deletion cascades to insights.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS competitors (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	target_url TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS insights (
	id                   TEXT PRIMARY KEY,
	competitor_id        TEXT NOT NULL REFERENCES competitors(id) ON DELETE CASCADE,
	weakness_title       TEXT NOT NULL,
	weakness_description TEXT NOT NULL,
	severity             TEXT NOT NULL DEFAULT 'low' CHECK (severity IN ('high', 'medium', 'low')),
	category             TEXT NOT NULL DEFAULT 'General',
	created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_competitors_name ON competitors(name);
CREATE INDEX IF NOT EXISTS idx_insights_competitor_id ON insights(competitor_id);
CREATE INDEX IF NOT EXISTS idx_insights_created_at ON insights(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, competitorName, targetURL string, weaknesses []model.Weakness) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO competitors (id, name, target_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET target_url = excluded.target_url, updated_at = excluded.updated_at`,
		id, competitorName, targetURL, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert competitor %s", competitorName)
	}

	// The insert id is discarded on conflict, so read the winning row back.
	var competitorID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM competitors WHERE name = ?`, competitorName,
	).Scan(&competitorID)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: resolve competitor id for %s", competitorName)
	}

	saved := 0
	for _, w := range weaknesses {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO insights (id, competitor_id, weakness_title, weakness_description, severity, category, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), competitorID, w.Title, w.Description, string(w.Severity), w.Category, now,
		)
		if err != nil {
			return competitorID, &PartialSaveError{
				CompetitorID:  competitorID,
				InsightsSaved: saved,
				InsightsTotal: len(weaknesses),
				Err:           eris.Wrap(err, "sqlite: insert insight"),
			}
		}
		saved++
	}
	return competitorID, nil
}

func (s *SQLiteStore) ListCompetitors(ctx context.Context) ([]model.CompetitorSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.target_url, COUNT(i.id) AS insight_count, c.created_at, c.updated_at
		 FROM competitors c
		 LEFT JOIN insights i ON i.competitor_id = c.id
		 GROUP BY c.id
		 ORDER BY c.created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list competitors")
	}
	defer rows.Close()

	var summaries []model.CompetitorSummary
	for rows.Next() {
		var cs model.CompetitorSummary
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.TargetURL, &cs.InsightCount, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		summaries = append(summaries, cs)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list competitors iterate")
}

func (s *SQLiteStore) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	var c model.Competitor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_url, created_at, updated_at FROM competitors WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.TargetURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get competitor %s", id)
	}
	return &c, nil
}

func (s *SQLiteStore) ListInsights(ctx context.Context, competitorID string) ([]model.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, competitor_id, weakness_title, weakness_description, severity, category, created_at
		 FROM insights WHERE competitor_id = ? ORDER BY created_at DESC, id`,
		competitorID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list insights for %s", competitorID)
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var in model.Insight
		if err := rows.Scan(&in.ID, &in.CompetitorID, &in.Title, &in.Description, &in.Severity, &in.Category, &in.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan insight")
		}
		insights = append(insights, in)
	}
	return insights, eris.Wrap(rows.Err(), "sqlite: list insights iterate")
}

func (s *SQLiteStore) DeleteCompetitor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete competitor %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete competitor %s", id)
	}
	return nil
}
