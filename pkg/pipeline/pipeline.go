// Package pipeline runs the import → lint → render flow shared by the CLI
// and the HTTP server.
//
// # Stages
//
//  1. Parse: decode the simulation document ([spec.Parse])
//  2. Lint: check simulator rules ([spec.Validate]); fatal only when Strict
//  3. Import: build the call graph ([io.FromSpec])
//  4. Render: produce artifacts in the requested formats
//
// Cancellation is checked between stages.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "checkout.json",
//	    Input:   data,
//	    Formats: []string{"yaml", "svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// SVG and PNG renders are cached in the runner's store, keyed by the hash
// of the DOT source.
//
// [spec.Parse]: github.com/matzehuels/meshgraph/pkg/spec
// [spec.Validate]: github.com/matzehuels/meshgraph/pkg/spec
// [io.FromSpec]: github.com/matzehuels/meshgraph/pkg/io
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshgraph/pkg/classify"
	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Output formats.
const (
	FormatJSON    = "json"    // simulation document, exported from the graph
	FormatYAML    = "yaml"    // simulator configuration
	FormatCompose = "compose" // docker-compose file
	FormatDOT     = "dot"
	FormatSVG     = "svg"
	FormatPNG     = "png"
	FormatGraph   = "graph" // lossless graph snapshot
)

// Formats lists every supported format in a stable order.
var Formats = []string{FormatJSON, FormatYAML, FormatCompose, FormatDOT, FormatSVG, FormatPNG, FormatGraph}

// DefaultRenderTTL is how long SVG and PNG renders stay cached.
const DefaultRenderTTL = 7 * 24 * time.Hour

var extensions = map[string]string{
	FormatJSON:    ".json",
	FormatYAML:    ".yaml",
	FormatCompose: ".compose.yaml",
	FormatDOT:     ".dot",
	FormatSVG:     ".svg",
	FormatPNG:     ".png",
	FormatGraph:   ".graph.json",
}

var contentTypes = map[string]string{
	FormatJSON:    "application/json",
	FormatYAML:    "application/yaml",
	FormatCompose: "application/yaml",
	FormatDOT:     "text/vnd.graphviz",
	FormatSVG:     "image/svg+xml",
	FormatPNG:     "image/png",
	FormatGraph:   "application/json",
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if _, ok := extensions[format]; !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file suffix for a format, including the dot.
func Extension(format string) string { return extensions[format] }

// ContentType returns the MIME type for a format.
func ContentType(format string) string { return contentTypes[format] }

// Options configures a pipeline run.
type Options struct {
	// Source labels the input in logs and hooks, typically a file name.
	Source string `json:"source,omitempty"`
	// Input is the simulation document text.
	Input []byte `json:"-"`

	// Strict fails the run when linting reports errors.
	Strict bool `json:"strict,omitempty"`

	Formats        []string `json:"formats,omitempty"`
	Detailed       bool     `json:"detailed,omitempty"`
	ShowUnresolved bool     `json:"show_unresolved,omitempty"`
	Direction      string   `json:"direction,omitempty"`
	Image          string   `json:"image,omitempty"`   // compose image
	Network        string   `json:"network,omitempty"` // compose network
	// Refresh bypasses cached renders.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks formats and fills defaults: JSON output,
// left-to-right diagrams, the default compose image and network.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	o.Formats = dedupe(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Direction == "" {
		o.Direction = "LR"
	}
	if o.Image == "" {
		o.Image = meshio.DefaultImage
	}
	if o.Network == "" {
		o.Network = meshio.DefaultNetwork
	}
	if o.Source == "" {
		o.Source = "input"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Result holds the outputs of a pipeline run.
type Result struct {
	Spec      *spec.Spec
	Graph     *graph.Graph
	Issues    []spec.Issue
	Artifacts map[string][]byte
	Stats     Stats
}

// Stats summarizes a run.
type Stats struct {
	ServiceCount int
	NodeCount    int
	EdgeCount    int
	// Unresolved counts call references that name no method.
	Unresolved int
	Categories map[classify.Category]int
	// RenderHits counts artifacts served from the cache.
	RenderHits int

	ParseTime  time.Duration
	LintTime   time.Duration
	ImportTime time.Duration
	RenderTime time.Duration
}

// Summarize computes the graph statistics of g.
func Summarize(g *graph.Graph) Stats {
	s := Stats{
		ServiceCount: len(g.Services()),
		NodeCount:    g.NodeCount(),
		EdgeCount:    g.EdgeCount(),
		Categories:   classify.Count(g),
	}
	for _, n := range g.Nodes() {
		s.Unresolved += len(g.Unresolved(n.ID))
	}
	return s
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
