package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

func setupPostgresStore(t *testing.T) (*PostgresProjectStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewPostgresProjectStore(db), mock, db
}

func TestPostgresProjectStore_EnsureSchema(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS projects`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProjectStore_GetOrCreate(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("returns stored issues", func(t *testing.T) {
		issuesJSON := `[{"_id":"i1","issue_title":"first","issue_text":"body","created_by":"amy","assigned_to":"","status_text":"","open":true,"created_on":"2024-03-01T10:00:00Z","updated_on":"2024-03-01T10:00:00Z"}]`

		mock.ExpectQuery(`INSERT INTO projects \(title, issues\)`).
			WithArgs("apitest").
			WillReturnRows(sqlmock.NewRows([]string{"title", "issues", "created_at", "updated_at"}).
				AddRow("apitest", []byte(issuesJSON), now, now))

		p, err := store.GetOrCreate(ctx, "apitest")
		require.NoError(t, err)
		assert.Equal(t, "apitest", p.Title)
		require.Len(t, p.Issues, 1)
		assert.Equal(t, "i1", p.Issues[0].ID)
		assert.True(t, p.Issues[0].Open)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("new project has empty list", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO projects \(title, issues\)`).
			WithArgs("fresh").
			WillReturnRows(sqlmock.NewRows([]string{"title", "issues", "created_at", "updated_at"}).
				AddRow("fresh", []byte(`[]`), now, now))

		p, err := store.GetOrCreate(ctx, "fresh")
		require.NoError(t, err)
		assert.NotNil(t, p.Issues)
		assert.Empty(t, p.Issues)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates query errors", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO projects \(title, issues\)`).
			WithArgs("broken").
			WillReturnError(errors.New("connection reset"))

		_, err := store.GetOrCreate(ctx, "broken")
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresProjectStore_Save(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()
	now := time.Now().UTC()

	p := domain.NewProject("apitest", now.Add(-time.Hour))
	p.Issues = append(p.Issues, domain.Issue{ID: "i1", IssueTitle: "first", Open: true})

	mock.ExpectQuery(`INSERT INTO projects \(title, issues, updated_at\)`).
		WithArgs("apitest", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	require.NoError(t, store.Save(context.Background(), p))
	assert.Equal(t, now, p.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProjectStore_PruneEmpty(t *testing.T) {
	store, mock, db := setupPostgresStore(t)
	defer db.Close()
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectExec(`DELETE FROM projects`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PruneEmpty(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
