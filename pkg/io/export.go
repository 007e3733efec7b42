package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// ToSpec derives a simulation document from the graph.
//
// Services appear in the order their first node appears. Each method's
// calls come from its outgoing edges in creation order, wrapped as exactly
// one call group, or an empty list when it has none; the node's Calls field
// is ignored. A service's port is the last port set among its nodes, or
// [spec.DefaultPort]. Entry points are listed in node order. Ids and
// positions are dropped.
func ToSpec(g *graph.Graph) *spec.Spec {
	doc := &spec.Spec{
		Services: spec.Services{},
		Load:     spec.Load{EntryPoints: []spec.EntryPoint{}},
	}

	names := make(map[string]string, g.NodeCount())
	for _, n := range g.Nodes() {
		names[n.ID] = n.FullName()
	}
	calls := make(map[string][]string)
	for _, e := range g.Edges() {
		calls[e.From] = append(calls[e.From], names[e.To])
	}

	index := make(map[string]int)
	ports := make(map[string]*int)
	for _, n := range g.Nodes() {
		i, ok := index[n.Service]
		if !ok {
			i = len(doc.Services)
			index[n.Service] = i
			doc.Services = append(doc.Services, spec.Service{Name: n.Service, Methods: spec.Methods{}})
		}
		if n.Port != nil {
			ports[n.Service] = n.Port
		}

		groups := [][]string{}
		if targets := calls[n.ID]; len(targets) > 0 {
			groups = [][]string{targets}
		}
		latency, errRate := n.Latency.Clone(), n.ErrorRate.Clone()
		doc.Services[i].Methods = append(doc.Services[i].Methods, spec.Method{
			Name:                n.Method,
			Calls:               groups,
			LatencyDistribution: &latency,
			ErrorRate:           &errRate,
		})

		if n.RequestsPerSecond != nil {
			doc.Load.EntryPoints = append(doc.Load.EntryPoints, spec.EntryPoint{
				Service:           n.Service,
				Method:            n.Method,
				RequestsPerSecond: *n.RequestsPerSecond,
			})
		}
	}

	for i := range doc.Services {
		port := spec.DefaultPort
		if p := ports[doc.Services[i].Name]; p != nil {
			port = *p
		}
		doc.Services[i].Port = &port
	}
	return doc
}

// Export serializes the graph as an indented simulation document.
func Export(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes the graph to w as a simulation document. The output can
// be re-imported with [ReadJSON].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	return WriteSpec(ToSpec(g), w)
}

// WriteSpec writes doc to w as indented JSON.
func WriteSpec(doc *spec.Spec, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the graph to a file at path.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
