package graph

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/meshgraph/pkg/spec"
)

var (
	// ErrUnknownNode is returned when an operation names a node id that is
	// not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownEdge is returned by [Graph.Disconnect] when no edge joins
	// the two nodes.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrDuplicateID is returned by [Graph.AddNode] when a node with the same
	// id already exists.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrDuplicateName is returned when a node would share its fully-qualified
	// "service.method" name with another node.
	ErrDuplicateName = errors.New("duplicate fully-qualified name")

	// ErrDuplicateEdge is returned by [Graph.AddEdge] when the edge already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrInvalidName is returned when a service or method name is empty or
	// contains '.'.
	ErrInvalidName = errors.New("invalid service or method name")

	// ErrInvalidValue is returned by [Graph.Update] for out-of-range values
	// such as a non-positive requests-per-second.
	ErrInvalidValue = errors.New("invalid value")
)

// Position is a presentation-only 2D coordinate.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is one method of one service.
//
// Calls is an editing cache of "service.method" references. It is filled at
// import time and by [Graph.Connect], but the graph's edges are canonical:
// export re-derives calls from edges and ignores this field.
type Node struct {
	ID                string            `json:"id" bson:"id"`
	Service           string            `json:"service" bson:"service"`
	Method            string            `json:"method" bson:"method"`
	Port              *int              `json:"port,omitempty" bson:"port,omitempty"`
	Calls             []string          `json:"calls" bson:"calls"`
	Latency           spec.Distribution `json:"latency_distribution" bson:"latency_distribution"`
	ErrorRate         spec.Distribution `json:"error_rate" bson:"error_rate"`
	RequestsPerSecond *float64          `json:"requests_per_second,omitempty" bson:"requests_per_second,omitempty"`
	Position          Position          `json:"position" bson:"position"`
}

// FullName returns the node's "service.method" name.
func (n Node) FullName() string { return spec.FullName(n.Service, n.Method) }

// IsEntryPoint reports whether the node receives external load.
func (n Node) IsEntryPoint() bool { return n.RequestsPerSecond != nil }

func (n Node) clone() Node {
	out := n
	if n.Port != nil {
		p := *n.Port
		out.Port = &p
	}
	if n.RequestsPerSecond != nil {
		r := *n.RequestsPerSecond
		out.RequestsPerSecond = &r
	}
	out.Calls = append([]string{}, n.Calls...)
	out.Latency = n.Latency.Clone()
	out.ErrorRate = n.ErrorRate.Clone()
	return out
}

// Edge is a directed call from one node to another, keyed by node id.
type Edge struct {
	ID   string `json:"id" bson:"id"`
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// EdgeID returns the id of the edge from→to. At most one edge exists per
// ordered pair of nodes, so the pair is the identity.
func EdgeID(from, to string) string { return from + "->" + to }

// Graph is the editable call graph: nodes in insertion order and directed
// edges in creation order.
//
// The zero value is not usable; use [New]. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes    []*Node
	byID     map[string]*Node
	byName   map[string]string // full name -> id
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
	nextID   uint64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byID:     make(map[string]*Node),
		byName:   make(map[string]string),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// NextID allocates a fresh node id. Ids come from a counter scoped to the
// graph, so they are deterministic and never reused within its lifetime.
func (g *Graph) NextID() string {
	g.nextID++
	return "n" + strconv.FormatUint(g.nextID, 10)
}

// observeID advances the counter past an externally supplied id of the
// form "n<k>" so later allocations cannot collide with it.
func (g *Graph) observeID(id string) {
	rest, ok := strings.CutPrefix(id, "n")
	if !ok {
		return
	}
	if k, err := strconv.ParseUint(rest, 10, 64); err == nil && k > g.nextID {
		g.nextID = k
	}
}

// AddNode inserts n and returns the stored copy. An empty ID is replaced by
// [Graph.NextID]. Nil Calls and distribution parameters become empty.
//
// Returns ErrInvalidName, ErrDuplicateID or ErrDuplicateName.
func (g *Graph) AddNode(n Node) (Node, error) {
	if err := checkNames(n.Service, n.Method); err != nil {
		return Node{}, err
	}
	if n.ID == "" {
		n.ID = g.NextID()
	} else {
		if _, exists := g.byID[n.ID]; exists {
			return Node{}, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		g.observeID(n.ID)
	}
	full := n.FullName()
	if _, exists := g.byName[full]; exists {
		return Node{}, fmt.Errorf("%w: %s", ErrDuplicateName, full)
	}

	stored := n.clone()
	g.nodes = append(g.nodes, &stored)
	g.byID[stored.ID] = &stored
	g.byName[full] = stored.ID
	return stored.clone(), nil
}

// AddEdge adds the directed edge from→to between existing nodes.
// Returns ErrUnknownSourceNode, ErrUnknownTargetNode or ErrDuplicateEdge.
func (g *Graph) AddEdge(from, to string) (Edge, error) {
	if _, ok := g.byID[from]; !ok {
		return Edge{}, ErrUnknownSourceNode
	}
	if _, ok := g.byID[to]; !ok {
		return Edge{}, ErrUnknownTargetNode
	}
	if g.HasEdge(from, to) {
		return Edge{}, ErrDuplicateEdge
	}
	e := Edge{ID: EdgeID(from, to), From: from, To: to}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return e, nil
}

// RemoveEdge removes the edge from→to and reports whether it existed.
func (g *Graph) RemoveEdge(from, to string) bool {
	if !g.HasEdge(from, to) {
		return false
	}
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
	return true
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return slices.Contains(g.outgoing[from], to)
}

// RemoveNode deletes the node and every edge touching it. Other nodes' Calls
// are left as they are: a reference to the removed name simply stops
// resolving.
func (g *Graph) RemoveNode(id string) error {
	n, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	for _, child := range g.outgoing[id] {
		g.incoming[child] = slices.DeleteFunc(g.incoming[child], func(s string) bool { return s == id })
	}
	for _, parent := range g.incoming[id] {
		g.outgoing[parent] = slices.DeleteFunc(g.outgoing[parent], func(s string) bool { return s == id })
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
	delete(g.byName, n.FullName())
	delete(g.byID, id)
	g.nodes = slices.DeleteFunc(g.nodes, func(p *Node) bool { return p.ID == id })
	return nil
}

// Connect adds the edge from→to and appends the target's full name to the
// source's Calls unless it is already listed.
func (g *Graph) Connect(from, to string) (Edge, error) {
	e, err := g.AddEdge(from, to)
	if err != nil {
		return Edge{}, err
	}
	src, dst := g.byID[from], g.byID[to]
	if full := dst.FullName(); !slices.Contains(src.Calls, full) {
		src.Calls = append(src.Calls, full)
	}
	return e, nil
}

// Disconnect removes the edge from→to and drops the target's full name from
// the source's Calls.
func (g *Graph) Disconnect(from, to string) error {
	src, ok := g.byID[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	dst, ok := g.byID[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	if !g.RemoveEdge(from, to) {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, EdgeID(from, to))
	}
	full := dst.FullName()
	src.Calls = slices.DeleteFunc(src.Calls, func(c string) bool { return c == full })
	return nil
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Lookup returns a copy of the node whose full name is "service.method".
func (g *Graph) Lookup(fullName string) (Node, bool) {
	id, ok := g.byName[fullName]
	if !ok {
		return Node{}, false
	}
	return g.Node(id)
}

// Resolve returns the id of the node named fullName.
func (g *Graph) Resolve(fullName string) (string, bool) {
	id, ok := g.byName[fullName]
	return id, ok
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.clone()
	}
	return out
}

// Edges returns a copy of all edges in creation order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the ids of the nodes id calls, in edge-creation order.
func (g *Graph) Children(id string) []string { return slices.Clone(g.outgoing[id]) }

// Parents returns the ids of the nodes that call id.
func (g *Graph) Parents(id string) []string { return slices.Clone(g.incoming[id]) }

// Unresolved returns the node's call references that name no node in the
// graph, in Calls order.
func (g *Graph) Unresolved(id string) []string {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range n.Calls {
		if _, ok := g.byName[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Services returns the distinct service names in first-seen node order.
func (g *Graph) Services() []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range g.nodes {
		if !seen[n.Service] {
			seen[n.Service] = true
			out = append(out, n.Service)
		}
	}
	return out
}

// Clone returns a deep copy of the graph, including the id counter.
func (g *Graph) Clone() *Graph {
	c := New()
	c.nextID = g.nextID
	for _, n := range g.nodes {
		cp := n.clone()
		c.nodes = append(c.nodes, &cp)
		c.byID[cp.ID] = &cp
		c.byName[cp.FullName()] = cp.ID
	}
	c.edges = slices.Clone(g.edges)
	for id, out := range g.outgoing {
		c.outgoing[id] = slices.Clone(out)
	}
	for id, in := range g.incoming {
		c.incoming[id] = slices.Clone(in)
	}
	return c
}

// Validate checks that every edge joins present nodes and that full names
// are unique.
func (g *Graph) Validate() error {
	names := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		full := n.FullName()
		if names[full] {
			return fmt.Errorf("%w: %s", ErrDuplicateName, full)
		}
		names[full] = true
	}
	for _, e := range g.edges {
		if _, ok := g.byID[e.From]; !ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrUnknownSourceNode)
		}
		if _, ok := g.byID[e.To]; !ok {
			return fmt.Errorf("edge %s: %w", e.ID, ErrUnknownTargetNode)
		}
	}
	return nil
}

func checkNames(service, method string) error {
	if service == "" || method == "" {
		return fmt.Errorf("%w: service and method are required", ErrInvalidName)
	}
	if strings.Contains(service, ".") || strings.Contains(method, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, spec.FullName(service, method))
	}
	return nil
}
