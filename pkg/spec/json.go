package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/meshgraph/pkg/errors"
)

// Services is the ordered form of the "services" object.
type Services []Service

// Methods is the ordered form of a service's "methods" object.
type Methods []Method

type serviceJSON struct {
	Port    *int    `json:"port,omitempty"`
	Methods Methods `json:"methods"`
}

type serviceWire struct {
	Port    json.RawMessage `json:"port"`
	Methods json.RawMessage `json:"methods"`
}

// UnmarshalJSON decodes a JSON object into services in document order.
// Duplicate service names are rejected.
func (ss *Services) UnmarshalJSON(data []byte) error {
	out := Services{}
	seen := make(map[string]bool)
	err := decodeObject(data, func(name string, raw json.RawMessage) error {
		if seen[name] {
			return errors.New(errors.ErrCodeMalformedDocument, "duplicate service %q", name)
		}
		seen[name] = true
		var svc Service
		if err := json.Unmarshal(raw, &svc); err != nil {
			if errors.GetCode(err) != "" {
				return err
			}
			return errors.Wrap(errors.ErrCodeMalformedDocument, err, "service %s", name)
		}
		svc.Name = name
		out = append(out, svc)
		return nil
	})
	if err != nil {
		return err
	}
	*ss = out
	return nil
}

// MarshalJSON encodes services as a JSON object in slice order.
func (ss Services) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(ss))
	values := make([]any, len(ss))
	for i, s := range ss {
		keys[i], values[i] = s.Name, s
	}
	return encodeObject(keys, values)
}

// UnmarshalJSON decodes a single service. The port may be a number or a
// numeric string; a missing "methods" object yields no methods.
func (s *Service) UnmarshalJSON(data []byte) error {
	var wire serviceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	port, err := decodePort(wire.Port)
	if err != nil {
		return err
	}
	s.Port = port
	s.Methods = Methods{}
	if len(wire.Methods) > 0 && !isNull(wire.Methods) {
		if err := json.Unmarshal(wire.Methods, &s.Methods); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the service without its name (the name is the object key).
func (s Service) MarshalJSON() ([]byte, error) {
	return json.Marshal(serviceJSON{Port: s.Port, Methods: s.Methods})
}

// UnmarshalJSON decodes a JSON object into methods in document order.
func (ms *Methods) UnmarshalJSON(data []byte) error {
	out := Methods{}
	seen := make(map[string]bool)
	err := decodeObject(data, func(name string, raw json.RawMessage) error {
		if seen[name] {
			return errors.New(errors.ErrCodeMalformedDocument, "duplicate method %q", name)
		}
		seen[name] = true
		var m Method
		if err := json.Unmarshal(raw, &m); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedMethod, err, "method %s", name)
		}
		m.Name = name
		out = append(out, m)
		return nil
	})
	if err != nil {
		return err
	}
	*ms = out
	return nil
}

// MarshalJSON encodes methods as a JSON object in slice order.
func (ms Methods) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(ms))
	values := make([]any, len(ms))
	for i, m := range ms {
		keys[i], values[i] = m.Name, m
	}
	return encodeObject(keys, values)
}

var errNotObject = fmt.Errorf("expected a JSON object")

// decodeObject walks the members of a JSON object in order.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errNotObject
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func encodeObject(keys []string, values []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodePort(raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("port must be an integer: %s", raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("port must be an integer: %q", s)
	}
	return &n, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
