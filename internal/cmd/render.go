package cmd

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sourceisview/siv/internal/cache"
	"github.com/sourceisview/siv/internal/config"
	"github.com/sourceisview/siv/internal/exclude"
	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/output"
	"github.com/sourceisview/siv/internal/parser"
	"github.com/sourceisview/siv/internal/pipeline"
	"github.com/sourceisview/siv/internal/render"
)

// renderCmd represents the siv render command
var renderCmd = &cobra.Command{
	Use:   "render [path...]",
	Short: "Render Swift files as cell grids",
	Long: `Render Swift source files as grids of cells.

Each argument is a .swift file or a directory. Directories are walked for
files with the configured extensions (scan.extensions), skipping the
configured exclude patterns (scan.exclude) and dependency directories such
as .build/, Pods/ and Carthage/. Use - to read source from stdin.

Rendered grids are cached in .siv/cache.db, keyed by file content, when the
project has a .siv directory (see 'siv init').`,
	Example: `  siv render Sources/App/Box.swift
  siv render Sources/ --format yaml
  siv render Box.swift --no-banner -o box.txt
  cat Box.swift | siv render -`,
	RunE: runRender,
}

var (
	renderNoCache  bool   // --no-cache
	renderNoBanner bool   // --no-banner
	renderOutput   string // -o/--output file path
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderNoCache, "no-cache", false, "Do not read or write the render cache")
	renderCmd.Flags().BoolVar(&renderNoBanner, "no-banner", false, "Omit the SOURCE / IS / VIEW banner")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write output to a file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if renderNoBanner {
		settings.Render.Banner = config.Bool(false)
	}

	formatter, err := newFormatter(settings)
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(settings, !renderNoCache)
	if err != nil {
		return err
	}
	defer closeRenderer()

	if len(args) == 0 {
		args = []string{"."}
	}

	var docs []output.GridDocument
	if len(args) == 1 && args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, "read stdin")
		}
		res, err := renderer.RenderSource(commandContext(cmd), "", src)
		if err != nil {
			return err
		}
		docs = append(docs, output.NewGridDocument("<stdin>", res.Grid))
	} else {
		files, err := collectFiles(args, settings)
		if err != nil {
			return err
		}
		results, err := renderer.RenderFiles(commandContext(cmd), files)
		if err != nil {
			return err
		}
		for _, res := range results {
			docs = append(docs, output.NewGridDocument(res.Path, res.Grid))
		}
	}

	return writeOutput(cmd, renderOutput, func(w io.Writer) error {
		return formatter.WriteGrids(w, docs)
	})
}

// newRenderer builds a renderer from settings. The cache is used when
// useCache is set, caching is enabled in settings, and a .siv directory
// exists. The returned func releases the cache.
func newRenderer(settings *config.Config, useCache bool) (*pipeline.Renderer, func(), error) {
	opts := []pipeline.Option{
		pipeline.WithWorkers(settings.Scan.Workers),
		pipeline.WithRenderOptions(render.Options{Banner: settings.Render.BannerEnabled()}),
	}
	closeFn := func() {}

	if useCache && settings.Cache.IsEnabled() {
		if dir, err := configDir(); err == nil {
			c, err := cache.Open(dir, settings.Cache.MemoryEntries)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, pipeline.WithCache(c))
			closeFn = func() {
				if err := c.Close(); err != nil {
					logger.Named("cmd").Warn("closing cache", zap.Error(err))
				}
			}
		}
	}

	return pipeline.New(opts...), closeFn, nil
}

// collectFiles expands path arguments: files are kept as given, directories
// are walked. Files named explicitly are rendered whatever their extension.
func collectFiles(args []string, settings *config.Config) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, &parser.FileReadError{Path: arg, Err: err}
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := exclude.CollectProject(arg, settings.Scan.Extensions, settings.Scan.Exclude)
		if err != nil {
			return nil, err
		}
		logger.Named("cmd").Info("collected files",
			zap.String(logger.FieldFile, arg),
			zap.Int(logger.FieldCount, len(found)),
		)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no Swift files to render")
	}
	return files, nil
}

// writeOutput runs write against the -o file, or the command's stdout.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
