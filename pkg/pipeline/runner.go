package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/observability"
	"github.com/matzehuels/meshgraph/pkg/store"
)

// Runner executes pipelines with render caching. It keeps no per-run
// state, so one Runner can serve concurrent requests.
type Runner struct {
	Cache  store.Store
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner. A nil cache disables caching; a nil logger
// uses the charmbracelet default.
func NewRunner(cache store.Store, logger *log.Logger) *Runner {
	if cache == nil {
		cache = store.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: cache, Logger: logger, TTL: DefaultRenderTTL}
}

// Execute runs parse → lint → import → render on opts.Input.
//
// With Strict set, lint errors stop the run; the returned Result still
// carries the parsed spec and issues so callers can report them.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	result := &Result{}

	start := time.Now()
	doc, err := Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Spec = doc
	result.Stats.ParseTime = time.Since(start)
	logger.Debug("parsed document", "source", opts.Source, "services", len(doc.Services), "methods", doc.MethodCount())

	start = time.Now()
	issues, err := Lint(ctx, doc, opts)
	result.Issues = issues
	result.Stats.LintTime = time.Since(start)
	if err != nil {
		return result, err
	}
	for _, is := range issues {
		logger.Debug("lint", "severity", is.Severity, "path", is.Path, "message", is.Message)
	}

	start = time.Now()
	g, err := Import(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	importTime := time.Since(start)
	logger.Info("imported call graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "duration", importTime)

	start = time.Now()
	artifacts, hits, err := r.render(ctx, g, opts)
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts

	stats := Summarize(g)
	stats.ParseTime = result.Stats.ParseTime
	stats.LintTime = result.Stats.LintTime
	stats.ImportTime = importTime
	stats.RenderTime = time.Since(start)
	stats.RenderHits = hits
	result.Stats = stats
	return result, nil
}

// Render produces artifacts for an existing graph, such as a stored
// document or an editor session.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	artifacts, _, err := r.render(ctx, g, opts)
	return artifacts, err
}

func (r *Runner) render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, int, error) {
	logger := opts.Logger
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	dot := DOT(g, opts)
	artifacts := make(map[string][]byte, len(opts.Formats))
	hits := 0
	var err error
	for _, format := range opts.Formats {
		if err = ctx.Err(); err != nil {
			break
		}
		var data []byte
		var hit bool
		data, hit, err = r.renderCached(ctx, g, dot, format, opts)
		if err != nil {
			break
		}
		if hit {
			hits++
		}
		artifacts[format] = data
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, hits, err
	}
	logger.Info("rendered outputs", "formats", opts.Formats, "cached", hits, "duration", time.Since(start))
	return artifacts, hits, nil
}

func (r *Runner) renderCached(ctx context.Context, g *graph.Graph, dot, format string, opts Options) ([]byte, bool, error) {
	if !cached(format) {
		data, err := renderFormat(ctx, g, dot, format, opts)
		return data, false, err
	}

	key := ArtifactKey(dot, format)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		} else if err != nil {
			opts.Logger.Warn("render cache read failed", "key", key, "error", err)
		}
	}

	data, err := renderFormat(ctx, g, dot, format, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		opts.Logger.Warn("render cache write failed", "key", key, "error", err)
	}
	return data, false, nil
}

// ArtifactKey is the cache key of a rendered artifact: render:{format}:{sha256(dot)}.
func ArtifactKey(dot, format string) string {
	return "render:" + format + ":" + store.Hash([]byte(dot))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
