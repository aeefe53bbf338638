package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

const projectsTableDDL = `
CREATE TABLE IF NOT EXISTS projects (
	title      TEXT PRIMARY KEY,
	issues     JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresProjectStore keeps each project as a row with the issue list in a
// JSONB column.
type PostgresProjectStore struct {
	db *sql.DB
}

// NewPostgresProjectStore creates a new PostgresProjectStore
func NewPostgresProjectStore(db *sql.DB) *PostgresProjectStore {
	return &PostgresProjectStore{db: db}
}

// EnsureSchema creates the projects table if it does not exist.
func (r *PostgresProjectStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, projectsTableDDL); err != nil {
		return fmt.Errorf("failed to create projects table: %w", err)
	}
	return nil
}

// GetOrCreate inserts an empty project unless one exists and returns the
// stored row. The no-op DO UPDATE makes RETURNING yield the existing row.
func (r *PostgresProjectStore) GetOrCreate(ctx context.Context, title string) (*domain.Project, error) {
	const q = `
INSERT INTO projects (title, issues)
VALUES ($1, '[]'::jsonb)
ON CONFLICT (title) DO UPDATE SET title = EXCLUDED.title
RETURNING title, issues, created_at, updated_at;
`
	var (
		p      domain.Project
		issues []byte
	)
	err := r.db.QueryRowContext(ctx, q, title).
		Scan(&p.Title, &issues, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	if err := json.Unmarshal(issues, &p.Issues); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
	}
	if p.Issues == nil {
		p.Issues = []domain.Issue{}
	}
	return &p, nil
}

// Save upserts the issue list.
func (r *PostgresProjectStore) Save(ctx context.Context, project *domain.Project) error {
	const q = `
INSERT INTO projects (title, issues, updated_at)
VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (title) DO UPDATE SET
	issues = EXCLUDED.issues,
	updated_at = NOW()
RETURNING updated_at;
`
	if project.Issues == nil {
		project.Issues = []domain.Issue{}
	}
	issues, err := json.Marshal(project.Issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}

	// lib/pq sends []byte as bytea, so the JSON goes over as text.
	if err := r.db.QueryRowContext(ctx, q, project.Title, string(issues)).Scan(&project.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// PruneEmpty deletes empty projects last written before cutoff.
func (r *PostgresProjectStore) PruneEmpty(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `
DELETE FROM projects
WHERE jsonb_array_length(issues) = 0 AND updated_at < $1;
`
	result, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune projects: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

// Ping checks the database connection.
func (r *PostgresProjectStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
