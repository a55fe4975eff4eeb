package main

import (
	"fmt"
	"os"

	"github.com/cybersafe-india/pagetrans/cache"
	"github.com/cybersafe-india/pagetrans/config"
	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and move the translation cache",
		Long: `Inspect and move the translation cache. These commands operate on the
configured backend, so they are most useful with Redis.`,
	}

	cmd.AddCommand(
		newCacheExportCmd(a),
		newCacheImportCmd(a),
		newCacheStatsCmd(a),
		newCacheClearCmd(a),
	)

	return cmd
}

// cacheStack builds the stack and fails when caching is disabled.
func (a *app) cacheStack() (*config.Stack, error) {
	_, stack, err := a.buildStack()
	if err != nil {
		return nil, err
	}
	if stack.Cache == nil {
		stack.Close()
		return nil, fmt.Errorf("caching is disabled (cache.backend = none)")
	}
	return stack, nil
}

func newCacheExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every cached translation as JSON (default: stdout)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := a.cacheStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			exporter := cache.NewExporter(stack.Cache)
			if len(args) == 1 {
				return exporter.ExportToFile(args[0], nil)
			}
			return exporter.Export(a.stdout, nil)
		},
	}
}

func newCacheImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load translations from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := a.cacheStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			f, err := os.Open(args[0]) // #nosec G304 - CLI tool reads user-specified files
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			res, err := cache.NewImporter(stack.Cache).Import(f)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Imported %d entries (%d failed)\n", res.Imported, res.Failed)
			return nil
		},
	}
}

func newCacheStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many languages and entries are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := a.cacheStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			stats, err := stack.Engine.CacheStats()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Languages: %d\nEntries:   %d\n", stats.Languages, stats.Entries)
			return nil
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached translation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := a.cacheStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			if err := stack.Engine.ClearCache(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Cache cleared")
			return nil
		},
	}
}
