package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/meshgraph/pkg/classify"
	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Options configures call-graph rendering.
type Options struct {
	// Detailed adds the latency and error distributions to node labels.
	Detailed bool
	// ShowUnresolved draws calls that name no method as dashed edges to
	// placeholder nodes.
	ShowUnresolved bool
	// Direction is the Graphviz rankdir; "LR" when empty.
	Direction string
}

// ToDOT converts the call graph to Graphviz DOT. Methods are grouped into
// one cluster per service and filled by their [classify.Category].
func ToDOT(g *graph.Graph, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#57606a\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	nodes := g.Nodes()
	for i, svc := range g.Services() {
		var members []graph.Node
		for _, n := range nodes {
			if n.Service == svc {
				members = append(members, n)
			}
		}
		fmt.Fprintf(&buf, "\n  subgraph \"cluster_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", clusterLabel(svc, members))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		buf.WriteString("    color=\"#8c959f\";\n")
		for _, n := range members {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	if opts.ShowUnresolved {
		ghosts := make(map[string]string)
		for _, n := range nodes {
			for _, call := range g.Unresolved(n.ID) {
				id, ok := ghosts[call]
				if !ok {
					id = "unresolved_" + strconv.Itoa(len(ghosts)+1)
					ghosts[call] = id
					fmt.Fprintf(&buf, "  %q [label=%q, shape=plaintext, style=\"\", fontcolor=\"#cf222e\"];\n", id, call+"?")
				}
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=\"#cf222e\"];\n", n.ID, id)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func clusterLabel(service string, members []graph.Node) string {
	var port *int
	for _, n := range members {
		if n.Port != nil {
			port = n.Port
		}
	}
	if port == nil {
		return service
	}
	return fmt.Sprintf("%s :%d", service, *port)
}

func fmtLabel(n graph.Node, detailed bool) string {
	lines := []string{n.FullName()}
	if n.RequestsPerSecond != nil {
		lines = append(lines, fmt.Sprintf("%g rps", *n.RequestsPerSecond))
	}
	if detailed {
		lines = append(lines, fmtDistribution("latency", n.Latency), fmtDistribution("error", n.ErrorRate))
	}
	return strings.Join(lines, "\n")
}

func fmtDistribution(name string, d spec.Distribution) string {
	parts := make([]string, 0, len(d.Parameters))
	for _, k := range slices.Sorted(maps.Keys(d.Parameters)) {
		parts = append(parts, fmt.Sprintf("%s=%g", k, d.Parameters[k]))
	}
	return fmt.Sprintf("%s: %s(%s)", name, d.Type, strings.Join(parts, ", "))
}

func fmtAttrs(n graph.Node, detailed bool) []string {
	style := classify.Classify(n).Style()
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", style.Fill),
		fmt.Sprintf("color=%q", style.Border),
	}
	if n.IsEntryPoint() {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using the embedded Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
