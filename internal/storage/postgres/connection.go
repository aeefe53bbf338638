package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/issue-tracker/config"
	_ "github.com/lib/pq"
)

// NewConnection opens a pool and pings it within pingTimeout.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, pingTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
