package spec

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/meshgraph/pkg/errors"
)

// Parse decodes and structurally checks a document.
//
// Parse returns an *errors.Error with one of these codes:
//   - INVALID_FILE_CONTENT: data is not JSON
//   - MALFORMED_DOCUMENT: the document is not an object, "services" is
//     missing or not an object, a name is empty or contains '.', or a value
//     has the wrong JSON type
//   - MALFORMED_METHOD: a method lacks latency_distribution or error_rate,
//     or a distribution has no type
//
// A document that fails any of these checks is rejected as a whole.
func Parse(data []byte) (*Spec, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFileContent, err, "input is not valid JSON")
	}

	top, ok := probe.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "document must be a JSON object")
	}
	if _, ok := top["services"]; !ok {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "missing top-level \"services\"")
	}

	var wire struct {
		Services json.RawMessage `json:"services"`
		Load     json.RawMessage `json:"load"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode document")
	}
	if !isObject(wire.Services) {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "\"services\" must be an object")
	}

	doc := &Spec{}
	if err := json.Unmarshal(wire.Services, &doc.Services); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode services")
	}
	if len(wire.Load) > 0 && !isNull(wire.Load) {
		if err := json.Unmarshal(wire.Load, &doc.Load); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode load")
		}
	}

	if err := checkStructure(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString is a convenience wrapper around [Parse].
func ParseString(text string) (*Spec, error) {
	return Parse([]byte(text))
}

// Read decodes a document from r. Read does not close r.
func Read(r io.Reader) (*Spec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Parse(data)
}

// ReadFile reads and decodes the document at path.
func ReadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Parse(data)
}

func checkStructure(doc *Spec) error {
	for si := range doc.Services {
		svc := &doc.Services[si]
		if err := checkName("service", svc.Name); err != nil {
			return err
		}
		for mi := range svc.Methods {
			m := &svc.Methods[mi]
			if err := checkName("method", m.Name); err != nil {
				return err
			}
			full := FullName(svc.Name, m.Name)
			if err := checkDistribution(full, "latency_distribution", m.LatencyDistribution); err != nil {
				return err
			}
			if err := checkDistribution(full, "error_rate", m.ErrorRate); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkName(kind, name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeMalformedDocument, "%s name cannot be empty", kind)
	}
	if strings.Contains(name, ".") {
		return errors.New(errors.ErrCodeMalformedDocument, "%s name %q must not contain '.'", kind, name)
	}
	return nil
}

func checkDistribution(full, field string, d *Distribution) error {
	if d == nil {
		return errors.New(errors.ErrCodeMalformedMethod, "method %s: missing %s", full, field)
	}
	if d.Type == "" {
		return errors.New(errors.ErrCodeMalformedMethod, "method %s: %s has no type", full, field)
	}
	if d.Parameters == nil {
		d.Parameters = map[string]float64{}
	}
	return nil
}
