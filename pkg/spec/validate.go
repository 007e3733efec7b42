package spec

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/meshgraph/pkg/errors"
)

// Severity grades a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one lint finding. Path locates it in the document using
// dotted notation, for example "services.A.methods.foo.error_rate".
type Issue struct {
	Severity Severity    `json:"severity"`
	Code     errors.Code `json:"code"`
	Path     string      `json:"path"`
	Message  string      `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Severity, i.Path, i.Message)
}

// requiredParams lists the parameters each latency type must carry.
var requiredParams = map[string][]string{
	LatencyConstant:    {"value"},
	LatencyNormal:      {"mean", "stddev"},
	LatencyExponential: {"rate"},
	LatencyUniform:     {"min", "max"},
}

// Validate lints a parsed document and returns its findings in document
// order. It never modifies doc and is independent of [Parse]: a document
// can import cleanly and still carry lint errors.
//
// Rules:
//   - the document defines at least one service and one entry point (warning)
//   - ports are in 1..65535 (error)
//   - call references have the form "Service.Method" (error) and name an
//     existing method (warning, UNRESOLVED_CALL)
//   - latency and error-rate distributions have a known type and in-range
//     parameters (error)
//   - entry points reference an existing method (error), have a positive
//     requests_per_second (error) and are not repeated (warning)
//   - services do not call each other in a cycle (warning)
func Validate(doc *Spec) []Issue {
	var l linter
	if len(doc.Services) == 0 {
		l.warn(errors.ErrCodeInvalidSpec, "services", "document defines no services")
	}
	for _, svc := range doc.Services {
		l.service(doc, svc)
	}
	l.load(doc)
	l.cycles(doc)
	return l.issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// AsError folds error-severity issues into a single INVALID_SPEC error.
// It returns nil when there are none.
func AsError(issues []Issue) error {
	var msgs []string
	for _, i := range issues {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.Path+": "+i.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidSpec, "%d error(s): %s", len(msgs), strings.Join(msgs, "; "))
}

type linter struct {
	issues []Issue
}

func (l *linter) add(sev Severity, code errors.Code, path, format string, args ...any) {
	l.issues = append(l.issues, Issue{
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *linter) fail(path, format string, args ...any) {
	l.add(SeverityError, errors.ErrCodeInvalidSpec, path, format, args...)
}

func (l *linter) warn(code errors.Code, path, format string, args ...any) {
	l.add(SeverityWarning, code, path, format, args...)
}

func (l *linter) service(doc *Spec, svc Service) {
	base := "services." + svc.Name
	if svc.Port != nil && (*svc.Port < 1 || *svc.Port > 65535) {
		l.fail(base+".port", "port %d out of range 1..65535", *svc.Port)
	}
	for _, m := range svc.Methods {
		path := base + ".methods." + m.Name
		for _, call := range m.FlatCalls() {
			service, method, ok := SplitFullName(call)
			if !ok {
				l.fail(path+".calls", "invalid call %q, expected \"Service.Method\"", call)
				continue
			}
			if !doc.HasMethod(service, method) {
				l.warn(errors.ErrCodeUnresolvedCall, path+".calls", "call %q does not resolve to a method", call)
			}
		}
		if m.LatencyDistribution != nil {
			l.latency(path+".latency_distribution", *m.LatencyDistribution)
		}
		if m.ErrorRate != nil {
			l.errorRate(path+".error_rate", *m.ErrorRate)
		}
	}
}

func (l *linter) latency(path string, d Distribution) {
	required, known := requiredParams[d.Type]
	if !known {
		l.fail(path+".type", "unknown latency distribution %q", d.Type)
		return
	}
	missing := false
	for _, p := range required {
		if _, ok := d.Parameters[p]; !ok {
			l.fail(path+".parameters", "%s distribution missing %q", d.Type, p)
			missing = true
		}
	}
	if missing {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(d.Parameters)) {
		v := d.Parameters[name]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			l.fail(path+".parameters."+name, "must be a finite non-negative number, got %v", v)
		}
	}
	switch d.Type {
	case LatencyNormal:
		if d.Parameters["stddev"] <= 0 {
			l.fail(path+".parameters.stddev", "must be positive, got %v", d.Parameters["stddev"])
		}
	case LatencyExponential:
		if d.Parameters["rate"] <= 0 {
			l.fail(path+".parameters.rate", "must be positive, got %v", d.Parameters["rate"])
		}
	case LatencyUniform:
		if d.Parameters["min"] > d.Parameters["max"] {
			l.fail(path+".parameters", "min %v greater than max %v", d.Parameters["min"], d.Parameters["max"])
		}
	}
}

func (l *linter) errorRate(path string, d Distribution) {
	if d.Type != ErrorBernoulli && d.Type != ErrorConstant {
		l.fail(path+".type", "unknown error-rate distribution %q", d.Type)
		return
	}
	p, ok := d.Parameters["p"]
	if !ok {
		l.fail(path+".parameters", "%s distribution missing \"p\"", d.Type)
		return
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		l.fail(path+".parameters.p", "probability must be in [0, 1], got %v", p)
	}
}

func (l *linter) load(doc *Spec) {
	if len(doc.Load.EntryPoints) == 0 {
		l.warn(errors.ErrCodeInvalidSpec, "load.entry_points", "no entry points, nothing receives load")
		return
	}
	seen := make(map[string]int)
	for i, ep := range doc.Load.EntryPoints {
		path := fmt.Sprintf("load.entry_points[%d]", i)
		full := FullName(ep.Service, ep.Method)
		if !doc.HasMethod(ep.Service, ep.Method) {
			l.fail(path, "entry point %s does not name a method", full)
		}
		if !(ep.RequestsPerSecond > 0) || math.IsInf(ep.RequestsPerSecond, 0) {
			l.fail(path+".requests_per_second", "must be positive, got %v", ep.RequestsPerSecond)
		}
		if first, dup := seen[full]; dup {
			l.warn(errors.ErrCodeInvalidSpec, path, "duplicate entry point %s (first at index %d, which wins)", full, first)
			continue
		}
		seen[full] = i
	}
}

// cycles reports service-level call cycles. Calls within a service are not
// treated as cycles.
func (l *linter) cycles(doc *Spec) {
	const (
		white = iota
		gray
		black
	)

	deps := make(map[string][]string, len(doc.Services))
	for _, svc := range doc.Services {
		seen := make(map[string]bool)
		for _, m := range svc.Methods {
			for _, call := range m.FlatCalls() {
				target, _, ok := SplitFullName(call)
				if !ok || target == svc.Name || seen[target] {
					continue
				}
				if _, exists := doc.Service(target); !exists {
					continue
				}
				seen[target] = true
				deps[svc.Name] = append(deps[svc.Name], target)
			}
		}
	}

	color := make(map[string]int, len(doc.Services))
	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		for _, next := range deps[name] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				l.warn(errors.ErrCodeInvalidSpec, "services."+name, "circular dependency: %s calls %s", name, next)
			}
		}
		color[name] = black
	}
	for _, svc := range doc.Services {
		if color[svc.Name] == white {
			dfs(svc.Name)
		}
	}
}
