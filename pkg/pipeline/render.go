package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
	"github.com/matzehuels/meshgraph/pkg/render/nodelink"
)

// renderFunc produces one artifact. dot is the graph's DOT source, computed
// once per run.
type renderFunc func(ctx context.Context, g *graph.Graph, dot string, opts Options) ([]byte, error)

var renderers = map[string]renderFunc{
	FormatJSON: func(_ context.Context, g *graph.Graph, _ string, _ Options) ([]byte, error) {
		return meshio.Export(g)
	},
	FormatYAML: func(_ context.Context, g *graph.Graph, _ string, _ Options) ([]byte, error) {
		var buf bytes.Buffer
		err := meshio.WriteYAML(meshio.ToSpec(g), &buf)
		return buf.Bytes(), err
	},
	FormatCompose: func(_ context.Context, g *graph.Graph, _ string, opts Options) ([]byte, error) {
		var buf bytes.Buffer
		err := meshio.WriteCompose(meshio.ToSpec(g), &buf, meshio.ComposeOptions{Image: opts.Image, Network: opts.Network})
		return buf.Bytes(), err
	},
	FormatDOT: func(_ context.Context, _ *graph.Graph, dot string, _ Options) ([]byte, error) {
		return []byte(dot), nil
	},
	FormatSVG: func(ctx context.Context, _ *graph.Graph, dot string, _ Options) ([]byte, error) {
		return nodelink.RenderSVG(ctx, dot)
	},
	FormatPNG: func(ctx context.Context, _ *graph.Graph, dot string, _ Options) ([]byte, error) {
		return nodelink.RenderPNG(ctx, dot)
	},
	FormatGraph: func(_ context.Context, g *graph.Graph, _ string, _ Options) ([]byte, error) {
		return graph.MarshalSnapshot(g)
	},
}

// cached reports whether a format is expensive enough to cache.
func cached(format string) bool {
	return format == FormatSVG || format == FormatPNG
}

// DOT returns the diagram source for g with the run's drawing options.
func DOT(g *graph.Graph, opts Options) string {
	return nodelink.ToDOT(g, nodelink.Options{
		Detailed:       opts.Detailed,
		ShowUnresolved: opts.ShowUnresolved,
		Direction:      opts.Direction,
	})
}

func renderFormat(ctx context.Context, g *graph.Graph, dot, format string, opts Options) ([]byte, error) {
	fn, ok := renderers[format]
	if !ok {
		return nil, ValidateFormat(format)
	}
	data, err := fn(ctx, g, dot, opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
