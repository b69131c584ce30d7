/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"github.com/gnames/gn"
	"github.com/gnames/gnotu/internal/iooptimize"
	"github.com/spf13/cobra"
)

func getOptimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Prepare imported data for queries",
		Long: `Prepare imported data for queries.

Run this command after every import. It:
  1. recomputes proportional abundance of every taxon in every sample
  2. updates planner statistics (VACUUM ANALYZE)
  3. clears the result cache, so no query returns outdated results

Examples:
  gnotu optimize
  gnotu optimize --store sqlite`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, cfg)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer b.Close()

			o := iooptimize.NewOptimizer(b.store, b.cache)
			if err = o.Optimize(ctx, cfg); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			gn.Info("Database optimization is complete!")
			return nil
		},
	}
}
