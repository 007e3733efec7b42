package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Snapshot is the lossless serialized form of a [Graph]: ids, positions,
// the Calls cache and the id counter survive, unlike the JSON document export.
// It is the format used for stored documents and the HTTP API.
//
//	{
//	  "next_id": 2,
//	  "nodes": [{"id": "n1", "service": "A", "method": "foo", ...}],
//	  "edges": [{"id": "n1->n2", "from": "n1", "to": "n2"}]
//	}
type Snapshot struct {
	NextID uint64 `json:"next_id" bson:"next_id"`
	Nodes  []Node `json:"nodes" bson:"nodes"`
	Edges  []Edge `json:"edges" bson:"edges"`
}

// Snapshot captures the graph's current state.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		NextID: g.nextID,
		Nodes:  g.Nodes(),
		Edges:  g.Edges(),
	}
	if s.Edges == nil {
		s.Edges = []Edge{}
	}
	return s
}

// FromSnapshot rebuilds a graph. Node ids are kept; edge ids are recomputed
// from their endpoints. Returns an error for duplicate ids or names, invalid
// names, distributions without a type, and edges that reference missing
// nodes.
func FromSnapshot(s Snapshot) (*Graph, error) {
	g := New()
	for _, n := range s.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("add node %s: empty id", n.FullName())
		}
		if err := checkDistribution("latency_distribution", n.Latency); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
		if err := checkDistribution("error_rate", n.ErrorRate); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range s.Edges {
		if _, err := g.AddEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	if s.NextID > g.nextID {
		g.nextID = s.NextID
	}
	return g, nil
}

// MarshalSnapshot encodes the graph as indented snapshot JSON.
func MarshalSnapshot(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshot writes the graph as snapshot JSON to w.
func WriteSnapshot(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Snapshot()); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes the graph as snapshot JSON to path.
func WriteSnapshotFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(g, f)
}

// ReadSnapshot decodes snapshot JSON from r.
func ReadSnapshot(r io.Reader) (*Graph, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromSnapshot(s)
}

// UnmarshalSnapshot decodes snapshot JSON bytes.
func UnmarshalSnapshot(data []byte) (*Graph, error) {
	return ReadSnapshot(bytes.NewReader(data))
}
