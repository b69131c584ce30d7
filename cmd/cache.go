/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"context"
	"io"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage memoized query results",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached result",
		Long: `Remove every cached result.

Cached results are never invalidated automatically. Run this command
(or 'gnotu optimize') every time portal data change.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := clearCache(cmd.Context()); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			gn.Info("Result cache is cleared")
			return nil
		},
	}

	cacheCmd.AddCommand(clearCmd)
	return cacheCmd
}

// clearCache removes results of the configured cache backend. It does
// not need the store.
func clearCache(ctx context.Context) error {
	c, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	if cl, ok := c.(io.Closer); ok {
		defer cl.Close()
	}
	return c.Clear(ctx)
}
