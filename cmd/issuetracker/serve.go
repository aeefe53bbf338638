package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/bootstrap"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/maintenance"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	cfg, logger := rt.cfg, rt.logger
	ginMode := bootstrap.SetGinMode(&cfg.App)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Backend:        rt.store.Backend,
		Store:          rt.store.Projects,
		Issues:         rt.issues,
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	var scheduler *maintenance.Scheduler
	if cfg.Maintenance.PruneSchedule != "" {
		minAge := time.Duration(cfg.Maintenance.PruneMinAgeMinutes) * time.Minute
		scheduler, err = maintenance.NewScheduler(cfg.Maintenance.PruneSchedule, rt.issues, minAge, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("gin_mode", ginMode),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
