// Package spec defines the declarative simulation document: services, their
// methods, the calls between methods, per-method latency and error models,
// and the load entry points.
//
// # JSON Format
//
//	{
//	  "services": {
//	    "A": {
//	      "port": 50051,
//	      "methods": {
//	        "foo": {
//	          "calls": [["A.bar"]],
//	          "latency_distribution": {"type": "normal", "parameters": {"mean": 50, "stddev": 5}},
//	          "error_rate": {"type": "bernoulli", "parameters": {"p": 0.01}}
//	        },
//	        "bar": {
//	          "calls": [],
//	          "latency_distribution": {"type": "constant", "parameters": {"value": 10}},
//	          "error_rate": {"type": "bernoulli", "parameters": {"p": 0}}
//	        }
//	      }
//	    }
//	  },
//	  "load": {
//	    "entry_points": [{"service": "A", "method": "foo", "requests_per_second": 10}]
//	  }
//	}
//
// Services and methods are JSON objects keyed by name. [Services] and
// [Methods] decode them into slices that keep document order, and encode
// them back in slice order, so iteration over a parsed document is
// deterministic and an exported document lists services in the order the
// graph first saw them.
//
// # Parsing
//
// [Parse] checks structure only: a document with no "services" object is
// rejected as MALFORMED_DOCUMENT, a method without latency_distribution or
// error_rate as MALFORMED_METHOD, and bytes that are not JSON as
// INVALID_FILE_CONTENT. Distribution semantics are not checked here; use
// [Validate] for a lint report.
//
// # Call Groups
//
// A method's "calls" field is a list of call groups, each a list of
// "service.method" references issued together. Current tooling writes
// exactly one group per method, but the shape permits more.
package spec
