// Package io converts between simulation documents and call graphs.
//
// # Import
//
// [Import], [ReadJSON] and [ImportJSON] parse a document (see package spec)
// and build a [graph.Graph] with one node per method:
//
//	g, err := io.ImportJSON("simulation.json")
//	if errors.IsImportFailure(err) {
//	    // rejected file: MALFORMED_DOCUMENT, MALFORMED_METHOD or INVALID_FILE_CONTENT
//	}
//
// A call that names no method is kept on the node's Calls and produces no
// edge. It is not an error.
//
// # Export
//
// [ToSpec], [Export], [WriteJSON] and [ExportJSON] go the other way. Export
// reads calls from edges, not from the nodes' Calls cache, so in the
// document
//
//	"foo": {"calls": [["B.missing"]], ...}
//
// the unresolved reference survives import on the node but exports as
// "calls": []. Every method with outgoing edges exports exactly one call
// group: grouping in the source document is not preserved.
//
// A service's port is the last port seen among its nodes in node order.
// When no node has one, [spec.DefaultPort] is written.
//
// Round trip: for a document D written by export, importing export(import(D))
// gives the same method names, the same edges by name and the same entry
// points as import(D). Ids and positions are not part of the document.
//
// # Simulator Output
//
// [WriteYAML] renders a document as the simulator's YAML configuration and
// [WriteCompose] as a docker-compose file with one container per service.
package io
