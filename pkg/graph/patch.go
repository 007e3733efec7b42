package graph

import (
	"fmt"
	"maps"
	"math"

	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Patch is a partial node update. Nil fields are left unchanged.
//
// Top-level fields are replaced. Latency and ErrorRate merge one level
// deeper: Type replaces the distribution type and each entry in Parameters
// replaces that single parameter, leaving the others in place.
type Patch struct {
	Service   *string            `json:"service,omitempty"`
	Method    *string            `json:"method,omitempty"`
	Port      *int               `json:"port,omitempty"`
	ClearPort bool               `json:"clear_port,omitempty"`
	Calls     *[]string          `json:"calls,omitempty"`
	Latency   *DistributionPatch `json:"latency_distribution,omitempty"`
	ErrorRate *DistributionPatch `json:"error_rate,omitempty"`

	RequestsPerSecond      *float64 `json:"requests_per_second,omitempty"`
	ClearRequestsPerSecond bool     `json:"clear_requests_per_second,omitempty"`

	Position *Position `json:"position,omitempty"`
}

// DistributionPatch updates a distribution in place.
type DistributionPatch struct {
	Type       *string            `json:"type,omitempty"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Service == nil && p.Method == nil && p.Port == nil && !p.ClearPort &&
		p.Calls == nil && p.Latency == nil && p.ErrorRate == nil &&
		p.RequestsPerSecond == nil && !p.ClearRequestsPerSecond && p.Position == nil
}

// Update applies p to the node with the given id and returns the result.
//
// Renaming changes the node's full name immediately. Edges are keyed by id
// and stay in place; other nodes' Calls that used the old name are not
// rewritten and stop resolving. Update never touches edges, even when Calls
// is replaced.
//
// The node is left unchanged when Update returns an error: ErrUnknownNode,
// ErrInvalidName, ErrDuplicateName, or ErrInvalidValue for a non-positive
// or non-finite requests-per-second, a negative port, an empty distribution
// type or a non-finite position.
func (g *Graph) Update(id string, p Patch) (Node, error) {
	cur, ok := g.byID[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	next := cur.clone()

	if p.Service != nil {
		next.Service = *p.Service
	}
	if p.Method != nil {
		next.Method = *p.Method
	}
	oldName, newName := cur.FullName(), next.FullName()
	if newName != oldName {
		if err := checkNames(next.Service, next.Method); err != nil {
			return Node{}, err
		}
		if _, taken := g.byName[newName]; taken {
			return Node{}, fmt.Errorf("%w: %s", ErrDuplicateName, newName)
		}
	}

	switch {
	case p.ClearPort:
		next.Port = nil
	case p.Port != nil:
		if *p.Port < 0 {
			return Node{}, fmt.Errorf("%w: port %d", ErrInvalidValue, *p.Port)
		}
		port := *p.Port
		next.Port = &port
	}

	if p.Calls != nil {
		next.Calls = append([]string{}, (*p.Calls)...)
	}
	if p.Latency != nil {
		d, err := p.Latency.apply("latency_distribution", next.Latency)
		if err != nil {
			return Node{}, err
		}
		next.Latency = d
	}
	if p.ErrorRate != nil {
		d, err := p.ErrorRate.apply("error_rate", next.ErrorRate)
		if err != nil {
			return Node{}, err
		}
		next.ErrorRate = d
	}

	switch {
	case p.ClearRequestsPerSecond:
		next.RequestsPerSecond = nil
	case p.RequestsPerSecond != nil:
		rps := *p.RequestsPerSecond
		if rps <= 0 || math.IsNaN(rps) || math.IsInf(rps, 0) {
			return Node{}, fmt.Errorf("%w: requests_per_second must be positive, got %v", ErrInvalidValue, rps)
		}
		next.RequestsPerSecond = &rps
	}

	if p.Position != nil {
		if !finite(p.Position.X) || !finite(p.Position.Y) {
			return Node{}, fmt.Errorf("%w: position must be finite", ErrInvalidValue)
		}
		next.Position = *p.Position
	}

	*cur = next
	if newName != oldName {
		delete(g.byName, oldName)
		g.byName[newName] = id
	}
	return cur.clone(), nil
}

func (dp *DistributionPatch) apply(field string, d spec.Distribution) (spec.Distribution, error) {
	out := d.Clone()
	if dp.Type != nil {
		out.Type = *dp.Type
	}
	if err := checkDistribution(field, out); err != nil {
		return spec.Distribution{}, err
	}
	maps.Copy(out.Parameters, dp.Parameters)
	return out, nil
}

// checkDistribution rejects distributions that would not re-import.
func checkDistribution(field string, d spec.Distribution) error {
	if d.Type == "" {
		return fmt.Errorf("%w: %s has no type", ErrInvalidValue, field)
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
