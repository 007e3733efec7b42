package io

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Import parses a simulation document and builds its call graph.
//
// Import fails as a whole with MALFORMED_DOCUMENT, MALFORMED_METHOD or
// INVALID_FILE_CONTENT (see [spec.Parse]); it never returns a partial
// graph. Unresolved call references are not errors.
func Import(text []byte) (*graph.Graph, error) {
	doc, err := spec.Parse(text)
	if err != nil {
		return nil, err
	}
	return FromSpec(doc)
}

// ReadJSON reads a simulation document from r and builds its call graph.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Import(buf.Bytes())
}

// ImportJSON reads the simulation document at path and builds its call graph.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// FromSpec builds the call graph of a parsed document.
//
// Nodes get ids in document order, services then methods. Every id is
// assigned before any call is resolved, so forward references work. Each
// node keeps its flattened calls verbatim; each call that names a node
// yields one edge, deduplicated per target, in call order. Calls that name
// no node are kept on the node and produce no edge.
//
// Load is merged from the first entry point matching each method. Nodes are
// placed on a grid with one column per service.
func FromSpec(doc *spec.Spec) (*graph.Graph, error) {
	g := graph.New()
	ids := make(map[string]string, doc.MethodCount())

	for col, svc := range doc.Services {
		for row, m := range svc.Methods {
			n := graph.Node{
				Service:   svc.Name,
				Method:    m.Name,
				Port:      svc.Port,
				Calls:     m.FlatCalls(),
				Latency:   distribution(m.LatencyDistribution),
				ErrorRate: distribution(m.ErrorRate),
				Position:  graph.GridPosition(col, row),
			}
			if ep, ok := doc.EntryPoint(svc.Name, m.Name); ok {
				rps := ep.RequestsPerSecond
				n.RequestsPerSecond = &rps
			}
			added, err := g.AddNode(n)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", n.FullName(), err)
			}
			ids[added.FullName()] = added.ID
		}
	}

	for _, n := range g.Nodes() {
		for _, call := range n.Calls {
			target, ok := ids[call]
			if !ok || g.HasEdge(n.ID, target) {
				continue
			}
			if _, err := g.AddEdge(n.ID, target); err != nil {
				return nil, fmt.Errorf("edge %s->%s: %w", n.FullName(), call, err)
			}
		}
	}
	return g, nil
}

func distribution(d *spec.Distribution) spec.Distribution {
	if d == nil {
		return spec.Distribution{Parameters: map[string]float64{}}
	}
	return d.Clone()
}
