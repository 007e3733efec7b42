package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
	"github.com/matzehuels/meshgraph/pkg/spec"
	"github.com/matzehuels/meshgraph/pkg/store"
)

const shop = `{
  "services": {
    "Frontend": {
      "port": 8000,
      "methods": {
        "home": {
          "calls": [["Catalog.list", "Ads.show"]],
          "latency_distribution": {"type": "normal", "parameters": {"mean": 80, "stddev": 5}},
          "error_rate": {"type": "bernoulli", "parameters": {"p": 0.01}}
        }
      }
    },
    "Catalog": {
      "methods": {
        "list": {
          "calls": [],
          "latency_distribution": {"type": "exponential", "parameters": {"rate": 0.002}},
          "error_rate": {"type": "bernoulli", "parameters": {"p": 0.001}}
        }
      }
    }
  },
  "load": {"entry_points": [{"service": "Frontend", "method": "home", "requests_per_second": 25}]}
}`

type testNode struct {
	ID                string   `json:"id"`
	Service           string   `json:"service"`
	Method            string   `json:"method"`
	Calls             []string `json:"calls"`
	Category          string   `json:"category"`
	Unresolved        []string `json:"unresolved"`
	RequestsPerSecond *float64 `json:"requests_per_second"`
}

type testGraph struct {
	Nodes []testNode   `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

type testDocument struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Graph testGraph `json:"graph"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	backend := store.NewMemoryStore()
	srv := New(Config{
		Runner: pipeline.NewRunner(store.Scoped(backend, "render:"), nil),
		Repo:   session.NewRepository(backend, 0),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func requireError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	var body errorResponse
	decode(t, resp, &body)
	assert.False(t, body.Success)
	assert.Equal(t, code, string(body.Code))
	assert.NotEmpty(t, body.Error)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestImport(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/api/v1/import", shop)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool         `json:"success"`
		Graph   testGraph    `json:"graph"`
		Issues  []spec.Issue `json:"issues"`
		Stats   statsView    `json:"stats"`
	}
	decode(t, resp, &body)

	assert.True(t, body.Success)
	require.Len(t, body.Graph.Nodes, 2)
	home := body.Graph.Nodes[0]
	assert.Equal(t, "n1", home.ID)
	assert.Equal(t, "entry-point", home.Category)
	assert.Equal(t, []string{"Ads.show"}, home.Unresolved)
	assert.Equal(t, "default", body.Graph.Nodes[1].Category)
	assert.Equal(t, []graph.Edge{{ID: "n1->n2", From: "n1", To: "n2"}}, body.Graph.Edges)
	assert.Equal(t, 1, body.Stats.Unresolved)
	assert.NotEmpty(t, body.Issues, "unresolved call should be reported")
}

func TestImportErrors(t *testing.T) {
	ts := newTestServer(t)

	requireError(t, do(t, http.MethodPost, ts.URL+"/api/v1/import", "not json"), http.StatusBadRequest, "INVALID_FILE_CONTENT")
	requireError(t, do(t, http.MethodPost, ts.URL+"/api/v1/import", `{"services": 1}`), http.StatusBadRequest, "MALFORMED_DOCUMENT")
	requireError(t, do(t, http.MethodPost, ts.URL+"/api/v1/import",
		`{"services": {"A": {"methods": {"m": {"calls": []}}}}}`), http.StatusBadRequest, "MALFORMED_METHOD")
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	g, err := meshio.Import([]byte(shop))
	require.NoError(t, err)
	snap, err := graph.MarshalSnapshot(g)
	require.NoError(t, err)

	resp := do(t, http.MethodPost, ts.URL+"/api/v1/export", string(snap))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "simulation.json")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	doc, err := spec.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, doc.MethodCount())

	requireError(t, do(t, http.MethodPost, ts.URL+"/api/v1/export", `{"nodes": [{"id": "n1"}]}`), http.StatusBadRequest, "INVALID_INPUT")
}

func TestValidate(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/v1/validate", shop)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ok struct {
		Valid  bool         `json:"valid"`
		Issues []spec.Issue `json:"issues"`
	}
	decode(t, resp, &ok)
	assert.True(t, ok.Valid)

	bad := strings.Replace(shop, `"rate": 0.002`, `"rate": -1`, 1)
	resp = do(t, http.MethodPost, ts.URL+"/api/v1/validate", bad)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var invalid struct {
		Valid  bool         `json:"valid"`
		Issues []spec.Issue `json:"issues"`
	}
	decode(t, resp, &invalid)
	assert.False(t, invalid.Valid)
	assert.True(t, spec.HasErrors(invalid.Issues))
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/v1/render?format=dot&unresolved=true", shop)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "digraph G")
	assert.Contains(t, buf.String(), "Ads.show?")

	resp = do(t, http.MethodPost, ts.URL+"/api/v1/render?format=yaml", shop)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	requireError(t, do(t, http.MethodPost, ts.URL+"/api/v1/render?format=pdf", shop), http.StatusBadRequest, "INVALID_FORMAT")

	bad := strings.Replace(shop, `"requests_per_second": 25`, `"requests_per_second": -3`, 1)
	requireError(t, do(t, http.MethodPost, ts.URL+"/api/v1/render?format=yaml&strict=true", bad), http.StatusUnprocessableEntity, "INVALID_SPEC")
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/documents"

	resp := do(t, http.MethodPost, base, `{"name": "shop", "spec": `+shop+`}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var doc testDocument
	decode(t, resp, &doc)
	require.NotEmpty(t, doc.ID)
	assert.Len(t, doc.Graph.Nodes, 2)
	docURL := base + "/" + doc.ID

	// add a node with a patch
	resp = do(t, http.MethodPost, docURL+"/nodes", `{"service": "Ads", "method": "show"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var added testNode
	decode(t, resp, &added)
	assert.Equal(t, "n3", added.ID)
	assert.Equal(t, "Ads", added.Service)

	// the renamed node now satisfies Frontend.home's call, but edges are explicit
	resp = do(t, http.MethodPost, docURL+"/edges", `{"from": "n1", "to": "n3"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var edge graph.Edge
	decode(t, resp, &edge)
	assert.Equal(t, "n1->n3", edge.ID)

	resp = do(t, http.MethodPatch, docURL+"/nodes/n3", `{"requests_per_second": 5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched testNode
	decode(t, resp, &patched)
	assert.Equal(t, "entry-point", patched.Category)

	resp = do(t, http.MethodGet, docURL+"/export?format=json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="shop.json"`)
	var exported bytes.Buffer
	exported.ReadFrom(resp.Body)
	parsed, err := spec.Parse(exported.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.MethodCount())
	assert.Len(t, parsed.Load.EntryPoints, 2)

	resp = do(t, http.MethodDelete, docURL+"/edges?from=n1&to=n3", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodDelete, docURL+"/nodes/n2", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, docURL, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &doc)
	assert.Len(t, doc.Graph.Nodes, 2)
	assert.Empty(t, doc.Graph.Edges)

	resp = do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Documents []session.Summary `json:"documents"`
	}
	decode(t, resp, &list)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "shop", list.Documents[0].Name)

	resp = do(t, http.MethodDelete, docURL, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	requireError(t, do(t, http.MethodGet, docURL, ""), http.StatusNotFound, "DOCUMENT_NOT_FOUND")
}

func TestDocumentErrors(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/documents"

	resp := do(t, http.MethodPost, base, `{"name": "empty"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var doc testDocument
	decode(t, resp, &doc)
	docURL := base + "/" + doc.ID

	requireError(t, do(t, http.MethodPost, base, `{"name": ""}`), http.StatusBadRequest, "INVALID_INPUT")
	requireError(t, do(t, http.MethodPost, base, `{"name": "x", "colour": "red"}`), http.StatusBadRequest, "INVALID_INPUT")
	requireError(t, do(t, http.MethodPost, base, `{"name": "x", "spec": {}, "graph": {}}`), http.StatusBadRequest, "INVALID_INPUT")
	requireError(t, do(t, http.MethodGet, base+"/not-a-uuid", ""), http.StatusBadRequest, "INVALID_INPUT")

	requireError(t, do(t, http.MethodPatch, docURL+"/nodes/n9", `{"method": "x"}`), http.StatusNotFound, "NODE_NOT_FOUND")

	do(t, http.MethodPost, docURL+"/nodes", "")
	do(t, http.MethodPost, docURL+"/nodes", "")
	requireError(t, do(t, http.MethodPatch, docURL+"/nodes/n2", `{"service": "new-service", "method": "new-method"}`), http.StatusConflict, "CONFLICT")
	requireError(t, do(t, http.MethodPatch, docURL+"/nodes/n1", `{"method": "a.b"}`), http.StatusBadRequest, "INVALID_NAME")
	requireError(t, do(t, http.MethodPatch, docURL+"/nodes/n1", `{"requests_per_second": 0}`), http.StatusBadRequest, "INVALID_INPUT")
	requireError(t, do(t, http.MethodPost, docURL+"/edges", `{"from": "n1"}`), http.StatusBadRequest, "INVALID_INPUT")
	requireError(t, do(t, http.MethodDelete, docURL+"/edges?from=n1&to=n2", ""), http.StatusNotFound, "NOT_FOUND")
	requireError(t, do(t, http.MethodGet, docURL+"/export?format=pdf", ""), http.StatusBadRequest, "INVALID_FORMAT")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "my-shop.yaml", exportFilename("my shop", pipeline.FormatYAML))
	assert.Equal(t, "simulation.json", exportFilename("../..", pipeline.FormatJSON))
	assert.Equal(t, "simulation.json", exportFilename("", pipeline.FormatJSON))
}
