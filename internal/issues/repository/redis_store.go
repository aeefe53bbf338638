package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

const (
	projectKeyPrefix    = "tracker:project:" // Project document: tracker:project:{title}
	projectEventsPrefix = "tracker:events:"  // Pub/Sub channel for issue events: tracker:events:{title}
	getOrCreateAttempts = 3
	pruneScanBatchSize  = 100
)

// RedisProjectStore keeps each project as one JSON document.
type RedisProjectStore struct {
	client *redis.Client
}

// NewRedisProjectStore creates a new RedisProjectStore
func NewRedisProjectStore(client *redis.Client) *RedisProjectStore {
	return &RedisProjectStore{client: client}
}

// GetOrCreate loads the project, creating it with SETNX when absent so that
// two concurrent first references agree on one document.
func (r *RedisProjectStore) GetOrCreate(ctx context.Context, title string) (*domain.Project, error) {
	key := projectKey(title)

	for attempt := 0; attempt < getOrCreateAttempts; attempt++ {
		fresh := domain.NewProject(title, time.Now().UTC())
		data, err := json.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal project: %w", err)
		}

		created, err := r.client.SetNX(ctx, key, data, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to create project: %w", err)
		}
		if created {
			return fresh, nil
		}

		project, err := r.get(ctx, r.client, key)
		if errors.Is(err, redis.Nil) {
			// deleted between SETNX and GET (pruned); try again
			continue
		}
		if err != nil {
			return nil, err
		}
		return project, nil
	}

	return nil, fmt.Errorf("failed to resolve project %q after %d attempts", title, getOrCreateAttempts)
}

// Save writes the whole document.
func (r *RedisProjectStore) Save(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()
	if project.Issues == nil {
		project.Issues = []domain.Issue{}
	}

	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if err := r.client.Set(ctx, projectKey(project.Title), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// PruneEmpty scans all project keys and deletes the empty ones last written
// before cutoff. Each delete runs under WATCH so a project that gains an
// issue mid-scan is left alone.
func (r *RedisProjectStore) PruneEmpty(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	iter := r.client.Scan(ctx, 0, projectKeyPrefix+"*", pruneScanBatchSize).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			project, err := r.get(ctx, tx, key)
			if err != nil {
				return err
			}
			if len(project.Issues) > 0 || !project.UpdatedAt.Before(cutoff) {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err == nil {
				removed++
			}
			return err
		}, key)

		switch {
		case err == nil, errors.Is(err, redis.Nil), errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return removed, fmt.Errorf("failed to prune %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan projects: %w", err)
	}

	return removed, nil
}

// Ping checks the redis connection.
func (r *RedisProjectStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisProjectStore) get(ctx context.Context, c stringGetter, key string) (*domain.Project, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var project domain.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	if project.Issues == nil {
		project.Issues = []domain.Issue{}
	}
	return &project, nil
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisEventPublisher fans issue events out over Redis Pub/Sub.
type RedisEventPublisher struct {
	client *redis.Client
}

// NewRedisEventPublisher creates a new RedisEventPublisher
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

// Publish sends the event on the project's channel.
func (p *RedisEventPublisher) Publish(ctx context.Context, event domain.IssueEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(ctx, EventChannel(event.Project), data).Err()
}

// EventChannel is the Pub/Sub channel carrying a project's issue events.
func EventChannel(title string) string {
	return projectEventsPrefix + title
}

func projectKey(title string) string {
	return projectKeyPrefix + title
}
