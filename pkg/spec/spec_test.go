package spec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/meshgraph/pkg/errors"
)

const sampleDoc = `{
  "services": {
    "Orders": {
      "port": 8000,
      "methods": {
        "create": {
          "calls": [["Payments.charge", "Inventory.reserve"]],
          "latency_distribution": {"type": "normal", "parameters": {"mean": 50, "stddev": 5}},
          "error_rate": {"type": "bernoulli", "parameters": {"p": 0.01}}
        },
        "get": {
          "calls": [],
          "latency_distribution": {"type": "constant", "parameters": {"value": 10}},
          "error_rate": {"type": "bernoulli", "parameters": {"p": 0}}
        }
      }
    },
    "Payments": {
      "methods": {
        "charge": {
          "calls": [],
          "latency_distribution": {"type": "exponential", "parameters": {"rate": 0.1}},
          "error_rate": {"type": "constant", "parameters": {"p": 0.2}}
        },
        "refund": {
          "calls": [],
          "latency_distribution": {"type": "constant", "parameters": {"value": 300}},
          "error_rate": {"type": "bernoulli", "parameters": {"p": 0}}
        }
      }
    },
    "Inventory": {
      "port": "9001",
      "methods": {
        "reserve": {
          "calls": [["Payments.charge"], ["Payments.refund"]],
          "latency_distribution": {"type": "uniform", "parameters": {"min": 1, "max": 3}},
          "error_rate": {"type": "bernoulli", "parameters": {"p": 0.05}}
        }
      }
    }
  },
  "load": {
    "entry_points": [{"service": "Orders", "method": "create", "requests_per_second": 10}]
  }
}`

func TestParseKeepsDocumentOrder(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	var services []string
	for _, s := range doc.Services {
		services = append(services, s.Name)
	}
	if want := []string{"Orders", "Payments", "Inventory"}; !slices.Equal(services, want) {
		t.Errorf("services = %v, want %v", services, want)
	}

	orders, _ := doc.Service("Orders")
	var methods []string
	for _, m := range orders.Methods {
		methods = append(methods, m.Name)
	}
	if want := []string{"create", "get"}; !slices.Equal(methods, want) {
		t.Errorf("methods = %v, want %v", methods, want)
	}
	if doc.MethodCount() != 5 {
		t.Errorf("MethodCount() = %d, want 5", doc.MethodCount())
	}
}

func TestParseFields(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	orders, _ := doc.Service("Orders")
	if orders.Port == nil || *orders.Port != 8000 {
		t.Errorf("Orders port = %v, want 8000", orders.Port)
	}
	payments, _ := doc.Service("Payments")
	if payments.Port != nil {
		t.Errorf("Payments port = %v, want nil", *payments.Port)
	}
	inventory, _ := doc.Service("Inventory")
	if inventory.Port == nil || *inventory.Port != 9001 {
		t.Errorf("Inventory port = %v, want 9001 (from string)", inventory.Port)
	}

	reserve, _ := inventory.Method("reserve")
	if len(reserve.Calls) != 2 {
		t.Errorf("call groups = %d, want 2", len(reserve.Calls))
	}
	if got := reserve.FlatCalls(); !slices.Equal(got, []string{"Payments.charge", "Payments.refund"}) {
		t.Errorf("FlatCalls() = %v", got)
	}
	if v, ok := reserve.LatencyDistribution.Param("max"); !ok || v != 3 {
		t.Errorf("max = %v, %v", v, ok)
	}

	ep, ok := doc.EntryPoint("Orders", "create")
	if !ok || ep.RequestsPerSecond != 10 {
		t.Errorf("EntryPoint() = %+v, %v", ep, ok)
	}
	if _, ok := doc.EntryPoint("Orders", "get"); ok {
		t.Error("Orders.get should not be an entry point")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode errors.Code
	}{
		{"NotJSON", `services: {}`, errors.ErrCodeInvalidFileContent},
		{"Truncated", `{"services": {`, errors.ErrCodeInvalidFileContent},
		{"Empty", ``, errors.ErrCodeInvalidFileContent},
		{"TopLevelArray", `[]`, errors.ErrCodeMalformedDocument},
		{"MissingServices", `{"load": {"entry_points": []}}`, errors.ErrCodeMalformedDocument},
		{"ServicesArray", `{"services": []}`, errors.ErrCodeMalformedDocument},
		{"ServicesNull", `{"services": null}`, errors.ErrCodeMalformedDocument},
		{"ServiceNotObject", `{"services": {"A": 3}}`, errors.ErrCodeMalformedDocument},
		{"DottedService", `{"services": {"A.B": {"methods": {}}}}`, errors.ErrCodeMalformedDocument},
		{"BadPort", `{"services": {"A": {"port": "http", "methods": {}}}}`, errors.ErrCodeMalformedDocument},
		{
			"MissingErrorRate",
			`{"services": {"A": {"methods": {"foo": {"calls": [], "latency_distribution": {"type": "constant", "parameters": {"value": 1}}}}}}}`,
			errors.ErrCodeMalformedMethod,
		},
		{
			"MissingLatency",
			`{"services": {"A": {"methods": {"foo": {"calls": [], "error_rate": {"type": "bernoulli", "parameters": {"p": 0}}}}}}}`,
			errors.ErrCodeMalformedMethod,
		},
		{
			"UntypedDistribution",
			`{"services": {"A": {"methods": {"foo": {"latency_distribution": {"parameters": {}}, "error_rate": {"type": "bernoulli", "parameters": {"p": 0}}}}}}}`,
			errors.ErrCodeMalformedMethod,
		},
		{
			"CallsWrongShape",
			`{"services": {"A": {"methods": {"foo": {"calls": ["A.bar"], "latency_distribution": {"type": "constant", "parameters": {"value": 1}}, "error_rate": {"type": "bernoulli", "parameters": {"p": 0}}}}}}}`,
			errors.ErrCodeMalformedMethod,
		},
		{
			"DuplicateMethod",
			`{"services": {"A": {"methods": {"foo": {}, "foo": {}}}}}`,
			errors.ErrCodeMalformedDocument,
		},
		{"LoadWrongShape", `{"services": {}, "load": []}`, errors.ErrCodeMalformedDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.input)
			if err == nil {
				t.Fatalf("Parse() = %+v, want error", doc)
			}
			if doc != nil {
				t.Error("Parse() returned a partial document")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestParseLenientShapes(t *testing.T) {
	input := `{"services": {"A": {"methods": {"foo": {
		"latency_distribution": {"type": "constant"},
		"error_rate": {"type": "bernoulli", "parameters": {"p": 0}}
	}}}, "B": {}}}`

	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	a, _ := doc.Service("A")
	foo, _ := a.Method("foo")
	if foo.Calls != nil {
		t.Errorf("Calls = %v, want nil", foo.Calls)
	}
	if foo.LatencyDistribution.Parameters == nil {
		t.Error("Parameters should be initialized")
	}
	b, _ := doc.Service("B")
	if b.Methods == nil || len(b.Methods) != 0 {
		t.Errorf("B methods = %v, want empty", b.Methods)
	}
	if len(doc.Load.EntryPoints) != 0 {
		t.Errorf("entry points = %v, want none", doc.Load.EntryPoints)
	}
}

func TestParseKeepsIncompleteEntryPoints(t *testing.T) {
	input := `{"services": {"A": {"methods": {"foo": {
		"latency_distribution": {"type": "constant", "parameters": {"value": 1}},
		"error_rate": {"type": "bernoulli", "parameters": {"p": 0}}
	}}}}, "load": {"entry_points": [
		{"method": "foo", "requests_per_second": 5},
		{"service": "A", "requests_per_second": 5}
	]}}`

	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(doc.Load.EntryPoints) != 2 {
		t.Fatalf("entry points = %v, want 2", doc.Load.EntryPoints)
	}
	if _, ok := doc.EntryPoint("A", "foo"); ok {
		t.Error("incomplete entry point matched A.foo")
	}
}

func TestMarshalKeepsOrder(t *testing.T) {
	doc, err := ParseString(sampleDoc)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	out := string(data)

	orders := strings.Index(out, `"Orders"`)
	payments := strings.Index(out, `"Payments"`)
	inventory := strings.Index(out, `"Inventory"`)
	if !(orders < payments && payments < inventory) {
		t.Errorf("services out of order: %s", out)
	}
	if strings.Index(out, `"create"`) > strings.Index(out, `"get"`) {
		t.Errorf("methods out of order: %s", out)
	}
	if strings.Contains(out, `"name"`) || strings.Contains(out, `"Name"`) {
		t.Errorf("names leaked into values: %s", out)
	}

	again, err := Parse(data)
	if err != nil {
		t.Fatalf("re-Parse() error: %v", err)
	}
	if again.MethodCount() != doc.MethodCount() {
		t.Errorf("MethodCount() = %d, want %d", again.MethodCount(), doc.MethodCount())
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in          string
		svc, method string
		ok          bool
	}{
		{"A.foo", "A", "foo", true},
		{"A", "", "", false},
		{"A.b.c", "", "", false},
		{".foo", "", "", false},
		{"A.", "", "", false},
	}
	for _, tt := range tests {
		svc, method, ok := SplitFullName(tt.in)
		if svc != tt.svc || method != tt.method || ok != tt.ok {
			t.Errorf("SplitFullName(%q) = %q, %q, %v", tt.in, svc, method, ok)
		}
	}
}

func TestDistributionClone(t *testing.T) {
	d := Distribution{Type: LatencyNormal, Parameters: map[string]float64{"mean": 1}}
	c := d.Clone()
	c.Parameters["mean"] = 2
	if d.Parameters["mean"] != 1 {
		t.Error("Clone shares parameters with original")
	}
	if (Distribution{}).Clone().Parameters == nil {
		t.Error("Clone of empty distribution has nil Parameters")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulation.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(doc.Services) != 3 {
		t.Errorf("services = %d, want 3", len(doc.Services))
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) should fail")
	}
}
