package graph

import (
	"strconv"

	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Names and distributions given to nodes created by [Graph.CreateDefaultNode].
const (
	DefaultServiceName = "new-service"
	DefaultMethodName  = "new-method"
)

// DefaultLatency returns the latency model of a freshly created node.
func DefaultLatency() spec.Distribution {
	return spec.Distribution{
		Type:       spec.LatencyNormal,
		Parameters: map[string]float64{"mean": 100, "stddev": 10},
	}
}

// DefaultErrorRate returns the error model of a freshly created node.
func DefaultErrorRate() spec.Distribution {
	return spec.Distribution{
		Type:       spec.ErrorBernoulli,
		Parameters: map[string]float64{"p": 0.01},
	}
}

// CreateDefaultNode adds a structurally complete node and returns it.
//
// The node belongs to [DefaultServiceName]; its method name is
// [DefaultMethodName], suffixed "-2", "-3", ... until the full name is
// unused. It has no port, no calls and no load, and is placed below the
// existing nodes.
func (g *Graph) CreateDefaultNode() Node {
	method := DefaultMethodName
	for i := 2; ; i++ {
		if _, taken := g.byName[spec.FullName(DefaultServiceName, method)]; !taken {
			break
		}
		method = DefaultMethodName + "-" + strconv.Itoa(i)
	}
	n, err := g.AddNode(Node{
		Service:   DefaultServiceName,
		Method:    method,
		Calls:     []string{},
		Latency:   DefaultLatency(),
		ErrorRate: DefaultErrorRate(),
		Position:  g.nextPosition(),
	})
	if err != nil {
		// The name was checked free above and the id is fresh.
		panic(err)
	}
	return n
}
