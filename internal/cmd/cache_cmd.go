package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sourceisview/siv/internal/cache"
	"github.com/sourceisview/siv/internal/exclude"
	"github.com/sourceisview/siv/internal/output"
)

// cacheCmd groups the render cache maintenance commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the render cache",
	Long: `Inspect and maintain the render cache in .siv/cache.db.

Subcommands:
  stats   Show entry count and hit rates
  clear   Remove every cached grid
  prune   Remove grids for files that no longer exist in the project`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show render cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached grid",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune [dir]",
	Short: "Remove grids for files no longer in the project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePrune,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
}

// openProjectCache opens the cache of the current project.
func openProjectCache() (*cache.Cache, error) {
	dir, err := configDir()
	if err != nil {
		return nil, errors.Wrap(err, "siv not initialized (run 'siv init')")
	}
	return cache.Open(dir, 0)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openProjectCache()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.GetStats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := output.FormatYAML
	if outputFormat != "" {
		if format, err = output.ParseFormat(outputFormat); err != nil {
			return err
		}
	}

	switch format {
	case output.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	case output.FormatText:
		fmt.Fprintf(out, "path:    %s\n", stats.Path)
		fmt.Fprintf(out, "grids:   %d\n", stats.GridCount)
		return nil
	default:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(stats)
	}
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openProjectCache()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	files, err := exclude.CollectProject(dir, settings.Scan.Extensions, settings.Scan.Exclude)
	if err != nil {
		return err
	}

	c, err := openProjectCache()
	if err != nil {
		return err
	}
	defer c.Close()

	valid := make(map[string]bool, len(files))
	for _, f := range files {
		valid[f] = true
	}
	removed, err := c.PruneStaleEntries(valid)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d stale entries\n", removed)
	return nil
}
