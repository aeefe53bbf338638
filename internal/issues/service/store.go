package service

import (
	"context"
	"time"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

// ProjectStore persists whole project documents. Implementations live in
// the repository package and must be safe for concurrent use.
type ProjectStore interface {
	// GetOrCreate returns the project with the exact title, creating and
	// persisting an empty one if none exists.
	GetOrCreate(ctx context.Context, title string) (*domain.Project, error)
	// Save writes the full document, replacing what is stored.
	Save(ctx context.Context, project *domain.Project) error
	// PruneEmpty deletes projects without issues last written before cutoff.
	PruneEmpty(ctx context.Context, cutoff time.Time) (int, error)
	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

// EventPublisher receives an event after every committed mutation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.IssueEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.IssueEvent) error { return nil }
