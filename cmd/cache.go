package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/ui"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and invalidate the query cache",
		Long: `The query cache holds SOLA backend responses keyed by operation, locale
and query. Use the file or redis backend for the cache to outlive one command.

  sola cache stats --cache file
  sola cache invalidate entities passages
  sola cache clear
  sola cache bundle seed.tar.gz --cache file`,
	}

	cmd.AddCommand(
		cacheStatsCmd(),
		cacheClearCmd(),
		cacheInvalidateCmd(),
		cacheBundleCmd(),
	)

	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the cache backend and entry count",
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			stats, err := e.cache.Stats(context.Background())
			if err != nil {
				fail("cache stats: %v", err)
			}

			ui.Banner("cache")
			fmt.Printf("  Backend:    %s\n", ui.Brand.Sprint(e.config.Cache.Backend))
			if fs, ok := e.cache.Store().(*cache.FileStore); ok {
				fmt.Printf("  Directory:  %s\n", fs.Dir())
			}
			retention := "forever"
			if e.config.Cache.Retention > 0 {
				retention = e.config.Cache.Retention.String()
			}
			fmt.Printf("  Retention:  %s\n", retention)
			fmt.Printf("  Entries:    %d\n", stats.Entries)
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			n, err := e.cache.Clear(context.Background())
			if err != nil {
				fail("clear cache: %v", err)
			}
			ui.Good.Printf("  %s Removed %d entries\n", ui.StatusIcon(true), n)
		},
	}
}

func cacheInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "invalidate <operation>...",
		Short:     "Remove the entries of cache operations",
		Long:      "Remove every entry of the given operations, across locales and queries.\n\nOperations: " + strings.Join(dataset.Operations(), ", "),
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: dataset.Operations(),
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			var rows [][]string
			for _, op := range args {
				if !slices.Contains(dataset.Operations(), op) {
					fail("unknown operation %q (use one of %s)", op, strings.Join(dataset.Operations(), ", "))
				}
				n, err := e.cache.InvalidateOperation(context.Background(), op)
				if err != nil {
					fail("invalidate %s: %v", op, err)
				}
				rows = append(rows, []string{op, strconv.Itoa(n)})
			}
			ui.Table([]string{"OPERATION", "REMOVED"}, rows)
		},
	}
}

func cacheBundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <output.tar.gz>",
		Short: "Archive the file cache for seeding another machine",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			fs, ok := e.cache.Store().(*cache.FileStore)
			if !ok {
				fail("bundle needs the file backend (use --cache file)")
			}

			output := args[0]
			ui.Banner("bundling")
			f, err := os.Create(output)
			if err != nil {
				fail("%v", err)
			}
			if err := fs.Bundle(f); err != nil {
				f.Close()
				os.Remove(output)
				fail("bundle failed: %v", err)
			}
			if err := f.Close(); err != nil {
				fail("bundle failed: %v", err)
			}

			ui.Good.Printf("  %s Bundle created: %s\n", ui.StatusIcon(true), output)
		},
	}
}
