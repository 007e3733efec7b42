// Package graph provides the editable call graph: one node per method, one
// directed edge per resolved call.
//
// # Model
//
// A [Node] carries the method's service and method names, an optional port
// (duplicated from the service for editing), a flat Calls list of
// "service.method" references, latency and error-rate distributions, an
// optional requests-per-second (its presence marks an entry point) and a
// presentation-only [Position].
//
// Nodes are identified by a synthetic id allocated from a counter owned by
// the graph ("n1", "n2", ...). Ids are stable for the node's lifetime and
// never reused, so rapid creation cannot collide.
//
// An [Edge] joins two node ids. At most one edge exists per ordered pair.
//
// # Invariants
//
//   - Fully-qualified names are unique across all nodes at all times.
//     [Graph.AddNode] and [Graph.Update] reject collisions with
//     ErrDuplicateName.
//   - Every edge references nodes present in the graph. [Graph.RemoveNode]
//     deletes the edges touching the node.
//
// Calls is an editing cache. Edges are canonical: renaming a node or
// removing one never rewrites other nodes' Calls, and the references that
// no longer match a node are reported by [Graph.Unresolved].
//
// # Mutation
//
//	g := graph.New()
//	n := g.CreateDefaultNode()
//	mean := 250.0
//	g.Update(n.ID, graph.Patch{
//	    Latency: &graph.DistributionPatch{Parameters: map[string]float64{"mean": mean}},
//	})
//
// [Patch] merges top-level fields; distribution parameters merge key by key.
//
// # Snapshots
//
// [Snapshot] is the lossless JSON form used for storage and the HTTP API.
// Use [Graph.Snapshot] and [FromSnapshot], or [WriteSnapshot] and
// [ReadSnapshot] for streams.
package graph
