// Package pipeline runs the full render path for Swift sources: parse with
// tree-sitter, lower to the syntax tree, translate to entities, assemble the
// grid. Rendered grids go through the cache when one is configured.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sourceisview/siv/internal/cache"
	"github.com/sourceisview/siv/internal/cell"
	"github.com/sourceisview/siv/internal/extract"
	"github.com/sourceisview/siv/internal/logger"
	"github.com/sourceisview/siv/internal/model"
	"github.com/sourceisview/siv/internal/parser"
	"github.com/sourceisview/siv/internal/render"
	"github.com/sourceisview/siv/internal/translate"
)

// cacheVersion is mixed into cache keys; bump it when rendering changes.
const cacheVersion = "grid-v1"

// Result is one rendered file.
type Result struct {
	Path   string
	Grid   cell.Grid
	Cached bool
}

// Renderer renders Swift sources. It is safe for concurrent use; every call
// creates its own tree-sitter parser.
type Renderer struct {
	translator *translate.Translator
	cache      *cache.Cache
	opts       render.Options
	workers    int
	log        *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCache routes renders through c. A nil cache disables caching.
func WithCache(c *cache.Cache) Option {
	return func(r *Renderer) { r.cache = c }
}

// WithRenderOptions sets the grid assembly options.
func WithRenderOptions(opts render.Options) Option {
	return func(r *Renderer) { r.opts = opts }
}

// WithWorkers bounds how many files, and how many declarations within a
// file, are processed at once.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger for the renderer and its translator.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		opts:    render.DefaultOptions(),
		workers: 4,
		log:     logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.translator = translate.New(translate.WithLogger(r.log.Named("translate")))
	return r
}

// Entities parses and translates src. path is used for logging only.
func (r *Renderer) Entities(ctx context.Context, path string, src []byte) ([]model.Entity, error) {
	p := parser.New()
	defer p.Close()

	result, err := p.ParseContext(ctx, src)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	defer result.Close()
	result.FilePath = path

	return r.translate(ctx, result)
}

// EntitiesFile reads, parses and translates the file at path.
func (r *Renderer) EntitiesFile(ctx context.Context, path string) ([]model.Entity, error) {
	p := parser.New()
	defer p.Close()

	result, err := p.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	return r.translate(ctx, result)
}

// translate lowers a parse result and translates it, fanning sibling
// declarations out when more than one worker is configured.
func (r *Renderer) translate(ctx context.Context, result *parser.Result) ([]model.Entity, error) {
	file := extract.Lower(result)
	if r.workers <= 1 {
		return r.translator.TranslateFile(file), nil
	}
	return r.translator.TranslateDeclsParallel(ctx, file.Decls, r.workers)
}

// Changed reports whether the file at path would render differently from
// what the cache holds for it. Without a cache every file counts as changed.
func (r *Renderer) Changed(path string) (bool, error) {
	if r.cache == nil {
		return true, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false, &parser.FileReadError{Path: path, Err: err}
	}
	return r.cache.IsFileChanged(path, extract.ComputeKeyedHash(r.cacheKey(), src))
}

// RenderSource renders src. When a cache is configured and path is not
// empty, a grid stored for the same content and options is returned instead.
func (r *Renderer) RenderSource(ctx context.Context, path string, src []byte) (*Result, error) {
	start := time.Now()
	hash := extract.ComputeKeyedHash(r.cacheKey(), src)

	useCache := r.cache != nil && path != ""
	if useCache {
		grid, ok, err := r.cache.Get(path, hash)
		if err != nil {
			r.log.Warn("cache read failed", zap.String(logger.FieldFile, path), zap.Error(err))
		} else if ok {
			return &Result{Path: path, Grid: grid, Cached: true}, nil
		}
	}

	entities, err := r.Entities(ctx, path, src)
	if err != nil {
		return nil, err
	}
	grid := render.AssembleWithOptions(entities, r.opts)

	if useCache {
		if err := r.cache.Put(path, hash, grid); err != nil {
			r.log.Warn("cache write failed", zap.String(logger.FieldFile, path), zap.Error(err))
		}
	}

	r.log.Debug("rendered",
		zap.String(logger.FieldFile, path),
		zap.Int(logger.FieldCount, len(entities)),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()),
	)
	return &Result{Path: path, Grid: grid}, nil
}

// RenderFile reads and renders one file.
func (r *Renderer) RenderFile(ctx context.Context, path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &parser.FileReadError{Path: path, Err: err}
	}
	return r.RenderSource(ctx, path, src)
}

// RenderFiles renders paths concurrently and returns results in the order
// of paths. The first failure cancels the remaining work.
func (r *Renderer) RenderFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := r.RenderFile(ctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.log.Info("rendered files", zap.Int(logger.FieldCount, len(paths)))
	return results, nil
}

func (r *Renderer) cacheKey() string {
	return fmt.Sprintf("%s banner=%t", cacheVersion, r.opts.Banner)
}
