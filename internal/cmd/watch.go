package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/config"
	"github.com/sourceisview/siv/internal/exclude"
	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/output"
	"github.com/sourceisview/siv/internal/pipeline"
	"github.com/sourceisview/siv/internal/watch"
)

// watchCmd represents the siv watch command
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-render Swift files as they change",
	Long: `Watch a directory and re-render every Swift file that is written or
created below it. Changes arriving close together are rendered as one batch.

The same extensions and exclude patterns as 'siv render' apply. Stop with
Ctrl-C.`,
	Example: `  siv watch
  siv watch Sources/ --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	if !info.IsDir() {
		return errors.Newf("watch %s: not a directory", dir)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	formatter, err := newFormatter(settings)
	if err != nil {
		return err
	}
	renderer, closeRenderer, err := newRenderer(settings, true)
	if err != nil {
		return err
	}
	defer closeRenderer()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchDir(ctx, cmd, dir, settings, renderer, formatter)
}

// watchDir renders every batch of changed files under dir until ctx is done.
func watchDir(ctx context.Context, cmd *cobra.Command, dir string, settings *config.Config, renderer *pipeline.Renderer, formatter output.Formatter) error {
	log := logger.Named("watch")
	auto := exclude.DetectAutoExcludes(dir)
	matcher := exclude.NewMatcher(settings.Scan.Exclude, auto.Directories)

	w, err := watch.New(dir, settings.Scan.Extensions, matcher, func(paths []string) {
		paths = changedFiles(renderer, paths)
		if len(paths) == 0 {
			return
		}
		results, err := renderer.RenderFiles(ctx, paths)
		if err != nil {
			// A file saved mid-edit often fails to read; the next save retries
			log.Warn("render failed", zap.Error(err))
			return
		}
		docs := make([]output.GridDocument, 0, len(results))
		for _, res := range results {
			docs = append(docs, output.NewGridDocument(res.Path, res.Grid))
		}
		if err := formatter.WriteGrids(cmd.OutOrStdout(), docs); err != nil {
			log.Warn("write failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	log.Info("watching", zap.String(logger.FieldFile, dir))
	return w.Run(ctx)
}

// changedFiles drops paths whose content still matches the cache. Saves
// that only touch the timestamp are common with editors.
func changedFiles(renderer *pipeline.Renderer, paths []string) []string {
	log := logger.Named("watch")
	changed := paths[:0]
	for _, path := range paths {
		ok, err := renderer.Changed(path)
		if err != nil {
			log.Warn("skipping unreadable file", zap.String(logger.FieldFile, path), zap.Error(err))
			continue
		}
		if !ok {
			log.Debug("unchanged", zap.String(logger.FieldFile, path))
			continue
		}
		changed = append(changed, path)
	}
	return changed
}
