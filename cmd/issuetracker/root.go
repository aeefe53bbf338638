package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/issue-tracker/config"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/bootstrap"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/service"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/logging"
)

const serviceName = "issue-tracker"

// NewRootCommand creates the issuetracker command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "issuetracker",
		Short:         "Issue tracker REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewPruneCommand())

	return cmd
}

// app is what every subcommand needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *bootstrap.Store
	issues *service.IssueService
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		logger.Warn("config", zap.String("warning", w))
	}

	store, err := bootstrap.OpenStore(ctx, cfg, logger, bootstrap.StoreOptions{})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		issues: service.NewIssueServiceWithEvents(store.Projects, store.Publisher, logger),
	}, nil
}

func (rt *app) close(ctx context.Context) {
	if err := rt.store.Close(ctx); err != nil {
		rt.logger.Warn("closing store", zap.Error(err))
	}
	_ = rt.logger.Sync()
}
