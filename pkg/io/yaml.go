package io

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/meshgraph/pkg/spec"
)

// Defaults for [WriteCompose].
const (
	DefaultImage   = "microservice-simulator:latest"
	DefaultNetwork = "microservice_net"
)

// orderedMap is a YAML mapping that keeps insertion order.
type orderedMap []mapEntry

type mapEntry struct {
	Key   string
	Value any
}

func (m *orderedMap) set(key string, value any) {
	*m = append(*m, mapEntry{Key: key, Value: value})
}

func (m orderedMap) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m {
		var value yaml.Node
		if err := value.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("key %s: %w", e.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&value,
		)
	}
	return node, nil
}

type simulatorYAML struct {
	Services orderedMap `yaml:"services"`
	Load     loadYAML   `yaml:"load"`
}

type serviceYAML struct {
	ContainerPort int        `yaml:"container_port"`
	Methods       orderedMap `yaml:"methods"`
}

type methodYAML struct {
	Calls               [][]string        `yaml:"calls"`
	LatencyDistribution *distributionYAML `yaml:"latency_distribution"`
	ErrorRate           *distributionYAML `yaml:"error_rate,omitempty"`
}

type distributionYAML struct {
	DistributionType string             `yaml:"distribution_type"`
	Parameters       map[string]float64 `yaml:"parameters"`
}

type loadYAML struct {
	EntryPoints []entryPointYAML `yaml:"entry_points"`
}

type entryPointYAML struct {
	Service           string  `yaml:"service"`
	Method            string  `yaml:"method"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// WriteYAML writes doc as the simulator's YAML configuration: services
// carry a container_port (the service port, or [spec.DefaultPort]) and
// distributions are keyed by distribution_type. Services and methods keep
// document order.
func WriteYAML(doc *spec.Spec, w io.Writer) error {
	out := simulatorYAML{Load: loadYAML{EntryPoints: []entryPointYAML{}}}
	for _, svc := range doc.Services {
		sy := serviceYAML{ContainerPort: servicePort(svc)}
		for _, m := range svc.Methods {
			calls := m.Calls
			if calls == nil {
				calls = [][]string{}
			}
			sy.Methods.set(m.Name, methodYAML{
				Calls:               calls,
				LatencyDistribution: distributionToYAML(m.LatencyDistribution),
				ErrorRate:           distributionToYAML(m.ErrorRate),
			})
		}
		if sy.Methods == nil {
			sy.Methods = orderedMap{}
		}
		out.Services.set(svc.Name, sy)
	}
	if out.Services == nil {
		out.Services = orderedMap{}
	}
	for _, ep := range doc.Load.EntryPoints {
		out.Load.EntryPoints = append(out.Load.EntryPoints, entryPointYAML(ep))
	}
	return encodeYAML(w, out)
}

// ComposeOptions configures [WriteCompose].
type ComposeOptions struct {
	Image   string // container image for every service; DefaultImage if empty
	Network string // shared bridge network; DefaultNetwork if empty
}

type composeYAML struct {
	Version  string     `yaml:"version"`
	Services orderedMap `yaml:"services"`
	Networks orderedMap `yaml:"networks"`
}

type composeServiceYAML struct {
	Image       string     `yaml:"image"`
	Ports       []string   `yaml:"ports"`
	Environment orderedMap `yaml:"environment"`
	Networks    []string   `yaml:"networks"`
	DependsOn   []string   `yaml:"depends_on,omitempty"`
}

type composeNetworkYAML struct {
	Driver string `yaml:"driver"`
}

// WriteCompose writes a docker-compose file that runs one simulator
// container per service. Each method's configuration is passed as JSON in a
// METHOD_<NAME> environment variable; depends_on lists the other services a
// service calls, in call order.
func WriteCompose(doc *spec.Spec, w io.Writer, opts ComposeOptions) error {
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.Network == "" {
		opts.Network = DefaultNetwork
	}

	out := composeYAML{Version: "3", Services: orderedMap{}}
	out.Networks.set(opts.Network, composeNetworkYAML{Driver: "bridge"})

	for _, svc := range doc.Services {
		port := strconv.Itoa(servicePort(svc))
		cs := composeServiceYAML{
			Image:    opts.Image,
			Ports:    []string{port + ":" + port},
			Networks: []string{opts.Network},
		}
		seen := map[string]bool{svc.Name: true}
		for _, m := range svc.Methods {
			cfg, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("method %s: %w", spec.FullName(svc.Name, m.Name), err)
			}
			cs.Environment.set("METHOD_"+strings.ToUpper(m.Name), string(cfg))
			for _, call := range m.FlatCalls() {
				target, _, ok := spec.SplitFullName(call)
				if ok && !seen[target] {
					seen[target] = true
					cs.DependsOn = append(cs.DependsOn, target)
				}
			}
		}
		cs.Environment.set("SERVICE_PORT", port)
		out.Services.set(svc.Name, cs)
	}
	return encodeYAML(w, out)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func servicePort(svc spec.Service) int {
	if svc.Port != nil {
		return *svc.Port
	}
	return spec.DefaultPort
}

func distributionToYAML(d *spec.Distribution) *distributionYAML {
	if d == nil {
		return nil
	}
	params := d.Parameters
	if params == nil {
		params = map[string]float64{}
	}
	return &distributionYAML{DistributionType: d.Type, Parameters: params}
}
