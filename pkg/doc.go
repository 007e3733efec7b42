// Package pkg holds the meshgraph libraries.
//
// # Overview
//
// meshgraph converts microservice call graphs between a JSON simulation
// document and an editable graph. The libraries are layered:
//
//  1. [spec] - the simulation document: ordered parsing and linting
//  2. [graph] - method nodes, call edges, partial updates and snapshots
//  3. [io] - document ↔ graph conversion, simulator YAML and compose output
//  4. [classify] - entry-point, high-error and high-latency categories
//  5. [render] - Graphviz DOT, SVG and PNG diagrams
//  6. [session] - editing sessions and stored documents
//  7. [store] - key-value backends: memory, file, Redis, MongoDB
//  8. [pipeline] - parse → lint → import → render orchestration
//
// # Data Flow
//
//	simulation.json
//	      ↓
//	 [spec] Parse, Validate
//	      ↓
//	 [io] FromSpec → [graph] Graph ⇄ [session] edits
//	      ↓
//	 [io] ToSpec, WriteYAML, WriteCompose   [render] DOT/SVG/PNG
//
// # Quick Start
//
//	g, err := io.Import(data)
//	if err != nil {
//	    return err
//	}
//	port := 9090
//	g.Update("n1", graph.Patch{Port: &port})
//	out, err := io.Export(g)
//
// [spec]: github.com/matzehuels/meshgraph/pkg/spec
// [graph]: github.com/matzehuels/meshgraph/pkg/graph
// [io]: github.com/matzehuels/meshgraph/pkg/io
// [classify]: github.com/matzehuels/meshgraph/pkg/classify
// [render]: github.com/matzehuels/meshgraph/pkg/render
// [session]: github.com/matzehuels/meshgraph/pkg/session
// [store]: github.com/matzehuels/meshgraph/pkg/store
// [pipeline]: github.com/matzehuels/meshgraph/pkg/pipeline
package pkg
