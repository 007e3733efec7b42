// Package session holds the editing state around a call graph.
//
// A [Session] is one editor with one active document: it loads simulation
// text, applies mutations, tracks the selected node and serializes the
// result. A [Repository] persists named [Document] snapshots in a
// [store.Store] so the HTTP server and the `docs` command can keep many
// graphs.
//
// # Selection
//
// The selection is only an id. [Session.Selected] looks the node up in the
// graph on every call, so it always reflects the latest mutation and reads
// as empty once the node is gone.
//
// # Errors
//
// Mutations return coded errors from pkg/errors: NODE_NOT_FOUND, INVALID_NAME,
// CONFLICT or INVALID_INPUT, wrapping the graph sentinel that caused them.
//
// [store.Store]: github.com/matzehuels/meshgraph/pkg/store
package session

import (
	"bytes"

	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
)

// DefaultFilename is the name suggested when saving a document.
const DefaultFilename = "simulation.json"

// Session is a single editing session. It is not safe for concurrent use.
type Session struct {
	graph    *graph.Graph
	selected string
	modified bool
}

// New creates a session with an empty graph.
func New() *Session {
	return &Session{graph: graph.New()}
}

// FromGraph creates a session editing g.
func FromGraph(g *graph.Graph) *Session {
	return &Session{graph: g}
}

// Graph returns the live graph. Callers must mutate it through the session.
func (s *Session) Graph() *graph.Graph { return s.graph }

// Modified reports whether the graph changed since the last Load or Save.
func (s *Session) Modified() bool { return s.modified }

// Load replaces the graph with the one described by text and clears the
// selection. On failure the current graph and selection are kept.
func (s *Session) Load(text []byte) error {
	g, err := meshio.Import(text)
	if err != nil {
		return err
	}
	s.graph = g
	s.selected = ""
	s.modified = false
	return nil
}

// Save exports the graph and returns the text with a suggested filename.
func (s *Session) Save() ([]byte, string, error) {
	var buf bytes.Buffer
	if err := meshio.WriteJSON(s.graph, &buf); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "export graph")
	}
	s.modified = false
	return buf.Bytes(), DefaultFilename, nil
}

// AddNode adds a default node, selects it and returns it.
func (s *Session) AddNode() graph.Node {
	n := s.graph.CreateDefaultNode()
	s.selected = n.ID
	s.modified = true
	return n
}

// Update applies a partial update to a node.
func (s *Session) Update(id string, p graph.Patch) (graph.Node, error) {
	n, err := s.graph.Update(id, p)
	if err != nil {
		return graph.Node{}, Coded(err)
	}
	if !p.IsZero() {
		s.modified = true
	}
	return n, nil
}

// DeleteNode removes a node and its edges. Calls on other nodes that named
// it are left in place and become unresolved.
func (s *Session) DeleteNode(id string) error {
	if err := s.graph.RemoveNode(id); err != nil {
		return Coded(err)
	}
	if s.selected == id {
		s.selected = ""
	}
	s.modified = true
	return nil
}

// Connect adds an edge and records the call on the source node.
func (s *Session) Connect(from, to string) (graph.Edge, error) {
	e, err := s.graph.Connect(from, to)
	if err != nil {
		return graph.Edge{}, Coded(err)
	}
	s.modified = true
	return e, nil
}

// Disconnect removes an edge and the matching call on the source node.
func (s *Session) Disconnect(from, to string) error {
	if err := s.graph.Disconnect(from, to); err != nil {
		return Coded(err)
	}
	s.modified = true
	return nil
}

// Select marks id as the selected node. An empty id clears the selection.
func (s *Session) Select(id string) error {
	if id != "" {
		if _, ok := s.graph.Node(id); !ok {
			return Coded(graph.ErrUnknownNode)
		}
	}
	s.selected = id
	return nil
}

// Selected returns the current state of the selected node.
func (s *Session) Selected() (graph.Node, bool) {
	if s.selected == "" {
		return graph.Node{}, false
	}
	return s.graph.Node(s.selected)
}
