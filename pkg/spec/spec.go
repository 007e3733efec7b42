package spec

import (
	"maps"
	"strings"
)

// DefaultPort is written for a service when none of its methods carries a port.
const DefaultPort = 50051

// Latency distribution types.
const (
	LatencyConstant    = "constant"
	LatencyNormal      = "normal"
	LatencyExponential = "exponential"
	LatencyUniform     = "uniform"
)

// Error-rate distribution types.
const (
	ErrorBernoulli = "bernoulli"
	ErrorConstant  = "constant"
)

// Spec is a complete simulation document.
type Spec struct {
	Services Services `json:"services"`
	Load     Load     `json:"load"`
}

// Service is a named logical unit owning zero or more methods.
// Name is the key of the service in the "services" object.
type Service struct {
	Name    string
	Port    *int
	Methods Methods
}

// Method is one callable operation of a service.
// Name is the key of the method in the service's "methods" object.
type Method struct {
	Name                string        `json:"-"`
	Calls               [][]string    `json:"calls"`
	LatencyDistribution *Distribution `json:"latency_distribution"`
	ErrorRate           *Distribution `json:"error_rate"`
}

// Distribution is a tagged {type, parameters} description of latency or error
// behaviour. It is carried structurally and never sampled here.
type Distribution struct {
	Type       string             `json:"type"`
	Parameters map[string]float64 `json:"parameters"`
}

// Load holds the externally generated load applied to the call graph.
type Load struct {
	EntryPoints []EntryPoint `json:"entry_points"`
}

// EntryPoint marks a method as receiving external load.
type EntryPoint struct {
	Service           string  `json:"service"`
	Method            string  `json:"method"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// FullName returns the fully-qualified "service.method" reference.
func FullName(service, method string) string {
	return service + "." + method
}

// SplitFullName splits a "service.method" reference.
// It reports false unless the reference contains exactly one dot with
// non-empty names on both sides.
func SplitFullName(ref string) (service, method string, ok bool) {
	service, method, found := strings.Cut(ref, ".")
	if !found || service == "" || method == "" || strings.Contains(method, ".") {
		return "", "", false
	}
	return service, method, true
}

// Param returns a named parameter.
func (d Distribution) Param(name string) (float64, bool) {
	v, ok := d.Parameters[name]
	return v, ok
}

// Clone returns a deep copy of d. The copy's Parameters map is never nil.
func (d Distribution) Clone() Distribution {
	out := Distribution{Type: d.Type, Parameters: make(map[string]float64, len(d.Parameters))}
	maps.Copy(out.Parameters, d.Parameters)
	return out
}

// Service returns the service with the given name.
func (s *Spec) Service(name string) (*Service, bool) {
	for i := range s.Services {
		if s.Services[i].Name == name {
			return &s.Services[i], true
		}
	}
	return nil, false
}

// Method returns the method with the given name.
func (s *Service) Method(name string) (*Method, bool) {
	for i := range s.Methods {
		if s.Methods[i].Name == name {
			return &s.Methods[i], true
		}
	}
	return nil, false
}

// HasMethod reports whether the document defines service.method.
func (s *Spec) HasMethod(service, method string) bool {
	svc, ok := s.Service(service)
	if !ok {
		return false
	}
	_, ok = svc.Method(method)
	return ok
}

// EntryPoint returns the first entry point targeting service.method.
func (s *Spec) EntryPoint(service, method string) (EntryPoint, bool) {
	for _, ep := range s.Load.EntryPoints {
		if ep.Service == service && ep.Method == method {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// FlatCalls returns the method's call groups concatenated into one list.
func (m *Method) FlatCalls() []string {
	var out []string
	for _, group := range m.Calls {
		out = append(out, group...)
	}
	return out
}

// MethodCount returns the total number of methods across all services.
func (s *Spec) MethodCount() int {
	n := 0
	for _, svc := range s.Services {
		n += len(svc.Methods)
	}
	return n
}
