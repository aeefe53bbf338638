package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewPruneCommand() *cobra.Command {
	var minAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete empty projects once and exit",
		Long: `Delete projects that hold no issues and were last written before
--min-age ago. Defaults to PRUNE_MIN_AGE_MINUTES.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if !cmd.Flags().Changed("min-age") {
				minAge = time.Duration(rt.cfg.Maintenance.PruneMinAgeMinutes) * time.Minute
			}
			if minAge < 0 {
				return fmt.Errorf("--min-age must not be negative")
			}

			n, err := rt.issues.PruneEmptyProjects(ctx, minAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d empty projects\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&minAge, "min-age", 0, "only prune projects older than this (e.g. 24h)")
	return cmd
}
