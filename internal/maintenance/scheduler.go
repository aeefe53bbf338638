// Package maintenance runs background housekeeping for the project store.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner removes empty projects older than minAge.
type Pruner interface {
	PruneEmptyProjects(ctx context.Context, minAge time.Duration) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	pruner  Pruner
	minAge  time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler registers the prune job on a seconds-enabled cron spec,
// e.g. "0 0 0 * * *" for midnight.
func NewScheduler(spec string, pruner Pruner, minAge time.Duration, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		pruner:  pruner,
		minAge:  minAge,
		timeout: time.Minute,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(spec, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("prune scheduler started", zap.Duration("min_age", s.minAge))
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce prunes immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.pruner.PruneEmptyProjects(ctx, s.minAge)
	if err != nil {
		s.logger.Error("prune failed", zap.Error(err))
		return 0, err
	}

	s.logger.Info("prune completed",
		zap.Int("removed", n),
		zap.Duration("took", time.Since(start)),
	)
	return n, nil
}
