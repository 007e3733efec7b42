package server

import (
	"time"

	"github.com/matzehuels/meshgraph/pkg/classify"
	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

// nodeView is a node with its derived display data.
type nodeView struct {
	graph.Node
	Category   classify.Category `json:"category"`
	Unresolved []string          `json:"unresolved,omitempty"`
}

type graphView struct {
	NextID   uint64       `json:"next_id"`
	Services []string     `json:"services"`
	Nodes    []nodeView   `json:"nodes"`
	Edges    []graph.Edge `json:"edges"`
}

type statsView struct {
	Services   int                       `json:"services"`
	Nodes      int                       `json:"nodes"`
	Edges      int                       `json:"edges"`
	Unresolved int                       `json:"unresolved"`
	Categories map[classify.Category]int `json:"categories"`
}

type documentView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Graph     graphView `json:"graph"`
	Stats     statsView `json:"stats"`
}

func viewNode(g *graph.Graph, n graph.Node) nodeView {
	return nodeView{Node: n, Category: classify.Classify(n), Unresolved: g.Unresolved(n.ID)}
}

func viewGraph(g *graph.Graph) graphView {
	snap := g.Snapshot()
	v := graphView{
		NextID:   snap.NextID,
		Services: g.Services(),
		Nodes:    make([]nodeView, 0, len(snap.Nodes)),
		Edges:    snap.Edges,
	}
	if v.Services == nil {
		v.Services = []string{}
	}
	for _, n := range snap.Nodes {
		v.Nodes = append(v.Nodes, viewNode(g, n))
	}
	return v
}

func viewStats(g *graph.Graph) statsView {
	st := pipeline.Summarize(g)
	return statsView{
		Services:   st.ServiceCount,
		Nodes:      st.NodeCount,
		Edges:      st.EdgeCount,
		Unresolved: st.Unresolved,
		Categories: st.Categories,
	}
}

func viewDocument(doc *session.Document, g *graph.Graph) documentView {
	return documentView{
		ID:        doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Graph:     viewGraph(g),
		Stats:     viewStats(g),
	}
}

func nonNilIssues(issues []spec.Issue) []spec.Issue {
	if issues == nil {
		return []spec.Issue{}
	}
	return issues
}
