// Package classify derives a node's display category from its data.
//
// Categories are evaluated in precedence order and the first match wins:
//
//  1. EntryPoint: requests_per_second is set
//  2. HighError: error_rate parameter p > 0.1
//  3. HighLatency: latency parameter mean > 200 or value > 200
//  4. Default
//
// Classification is pure and advisory; it never affects edges or export.
package classify

import (
	"fmt"

	"github.com/matzehuels/meshgraph/pkg/graph"
)

const (
	HighErrorThreshold   = 0.1
	HighLatencyThreshold = 200.0
)

// Category is the visual class of a node.
type Category int

const (
	Default Category = iota
	EntryPoint
	HighError
	HighLatency
)

// All lists every category in precedence order, Default last.
var All = []Category{EntryPoint, HighError, HighLatency, Default}

func (c Category) String() string {
	switch c {
	case EntryPoint:
		return "entry-point"
	case HighError:
		return "high-error"
	case HighLatency:
		return "high-latency"
	default:
		return "default"
	}
}

// MarshalText renders the category by name.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses a category name as produced by String.
func (c *Category) UnmarshalText(text []byte) error {
	for _, cat := range All {
		if cat.String() == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", text)
}

// Classify returns the node's category.
func Classify(n graph.Node) Category {
	if n.RequestsPerSecond != nil {
		return EntryPoint
	}
	if p, ok := n.ErrorRate.Param("p"); ok && p > HighErrorThreshold {
		return HighError
	}
	if IsHighLatency(n) {
		return HighLatency
	}
	return Default
}

// IsHighLatency reports whether the node's latency mean or value exceeds
// the threshold. A distribution with neither parameter is not high-latency.
func IsHighLatency(n graph.Node) bool {
	if mean, ok := n.Latency.Param("mean"); ok && mean > HighLatencyThreshold {
		return true
	}
	value, ok := n.Latency.Param("value")
	return ok && value > HighLatencyThreshold
}

// Count tallies the categories of every node in g.
func Count(g *graph.Graph) map[Category]int {
	counts := make(map[Category]int, len(All))
	for _, n := range g.Nodes() {
		counts[Classify(n)]++
	}
	return counts
}
