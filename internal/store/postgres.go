package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rival-intel/internal/db"
	"github.com/sells-group/rival-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_competitor": `INSERT INTO competitors (id, name, target_url, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO UPDATE SET target_url = EXCLUDED.target_url, updated_at = EXCLUDED.updated_at RETURNING id`,
	"get_competitor":    `SELECT id, name, target_url, created_at, updated_at FROM competitors WHERE id = $1`,
	"list_competitors":  `SELECT c.id, c.name, c.target_url, COUNT(i.id) AS insight_count, c.created_at, c.updated_at FROM competitors c LEFT JOIN insights i ON i.competitor_id = c.id GROUP BY c.id ORDER BY c.created_at DESC`,
	"list_insights":     `SELECT id, competitor_id, weakness_title, weakness_description, severity, category, created_at FROM insights WHERE competitor_id = $1 ORDER BY created_at DESC, id`,
	"delete_competitor": `DELETE FROM competitors WHERE id = $1`,
}

// insightColumns is the COPY column order for bulk insight inserts.
var insightColumns = []string{"id", "competitor_id", "weakness_title", "weakness_description", "severity", "category", "created_at"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS competitors (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	target_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS insights (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	competitor_id        TEXT NOT NULL REFERENCES competitors(id) ON DELETE CASCADE,
	weakness_title       TEXT NOT NULL,
	weakness_description TEXT NOT NULL,
	severity             TEXT NOT NULL DEFAULT 'low' CHECK (severity IN ('high', 'medium', 'low')),
	category             TEXT NOT NULL DEFAULT 'General',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_competitors_name ON competitors(name);
CREATE INDEX IF NOT EXISTS idx_insights_competitor_id ON insights(competitor_id);
CREATE INDEX IF NOT EXISTS idx_insights_created_at ON insights(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, competitorName, targetURL string, weaknesses []model.Weakness) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var competitorID string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO competitors (id, name, target_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET target_url = EXCLUDED.target_url, updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		id, competitorName, targetURL, now, now,
	).Scan(&competitorID)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: upsert competitor %s", competitorName)
	}

	if len(weaknesses) == 0 {
		return competitorID, nil
	}

	rows := make([][]any, 0, len(weaknesses))
	for _, w := range weaknesses {
		rows = append(rows, []any{
			uuid.New().String(), competitorID, w.Title, w.Description, string(w.Severity), w.Category, now,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "insights", insightColumns, rows); err != nil {
		// COPY is atomic: the competitor row landed, the insights did not.
		return competitorID, &PartialSaveError{
			CompetitorID:  competitorID,
			InsightsSaved: 0,
			InsightsTotal: len(weaknesses),
			Err:           err,
		}
	}
	return competitorID, nil
}

func (s *PostgresStore) ListCompetitors(ctx context.Context) ([]model.CompetitorSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.name, c.target_url, COUNT(i.id) AS insight_count, c.created_at, c.updated_at
		 FROM competitors c
		 LEFT JOIN insights i ON i.competitor_id = c.id
		 GROUP BY c.id
		 ORDER BY c.created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list competitors")
	}
	defer rows.Close()

	var summaries []model.CompetitorSummary
	for rows.Next() {
		var cs model.CompetitorSummary
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.TargetURL, &cs.InsightCount, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		summaries = append(summaries, cs)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: list competitors iterate")
}

func (s *PostgresStore) GetCompetitor(ctx context.Context, id string) (*model.Competitor, error) {
	var c model.Competitor
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, target_url, created_at, updated_at FROM competitors WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.TargetURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get competitor %s", id)
	}
	return &c, nil
}

func (s *PostgresStore) ListInsights(ctx context.Context, competitorID string) ([]model.Insight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, competitor_id, weakness_title, weakness_description, severity, category, created_at
		 FROM insights WHERE competitor_id = $1 ORDER BY created_at DESC, id`,
		competitorID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list insights for %s", competitorID)
	}
	defer rows.Close()

	var insights []model.Insight
	for rows.Next() {
		var in model.Insight
		if err := rows.Scan(&in.ID, &in.CompetitorID, &in.Title, &in.Description, &in.Severity, &in.Category, &in.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan insight")
		}
		insights = append(insights, in)
	}
	return insights, eris.Wrap(rows.Err(), "postgres: list insights iterate")
}

func (s *PostgresStore) DeleteCompetitor(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete competitor %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete competitor %s", id)
	}
	return nil
}
