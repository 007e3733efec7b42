package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
	"github.com/matzehuels/meshgraph/pkg/observability"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Parse decodes the input document.
func Parse(ctx context.Context, opts Options) (*spec.Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return spec.Parse(opts.Input)
}

// Lint checks doc against the simulator rules and reports the counts to
// the pipeline hooks. In strict mode an error-severity issue fails the run.
func Lint(ctx context.Context, doc *spec.Spec, opts Options) ([]spec.Issue, error) {
	issues := spec.Validate(doc)

	var errs, warns int
	for _, is := range issues {
		if is.Severity == spec.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	observability.Pipeline().OnLint(ctx, errs, warns)

	if opts.Strict {
		if err := spec.AsError(issues); err != nil {
			return issues, err
		}
	}
	return issues, nil
}

// Import builds the call graph of doc.
func Import(ctx context.Context, doc *spec.Spec, opts Options) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	observability.Pipeline().OnImportStart(ctx, opts.Source)
	g, err := meshio.FromSpec(doc)
	nodes, edges := 0, 0
	if g != nil {
		nodes, edges = g.NodeCount(), g.EdgeCount()
	}
	observability.Pipeline().OnImportComplete(ctx, opts.Source, nodes, edges, time.Since(start), err)
	return g, err
}
