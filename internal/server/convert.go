package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/meshgraph/pkg/buildinfo"
	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
	"github.com/matzehuels/meshgraph/pkg/spec"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// importSpec builds the graph of the posted document. Lint issues are
// reported alongside; they never fail the import.
func (s *Server) importSpec(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	opts := pipeline.Options{Source: "request", Input: body}

	doc, err := pipeline.Parse(ctx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	issues, _ := pipeline.Lint(ctx, doc, opts)
	g, err := pipeline.Import(ctx, doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"graph":   viewGraph(g),
		"stats":   viewStats(g),
		"issues":  nonNilIssues(issues),
	})
}

// exportGraph converts a posted graph snapshot to simulation JSON.
func (s *Server) exportGraph(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := graph.UnmarshalSnapshot(body)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph snapshot"))
		return
	}
	data, err := meshio.Export(g)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "export graph"))
		return
	}
	s.writeArtifact(w, "application/json", session.DefaultFilename, data)
}

func (s *Server) validateSpec(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{Source: "request", Input: body}
	doc, err := pipeline.Parse(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	issues, _ := pipeline.Lint(r.Context(), doc, opts)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"valid":   !spec.HasErrors(issues),
		"issues":  nonNilIssues(issues),
	})
}

// renderSpec renders the posted document in one format, svg by default.
func (s *Server) renderSpec(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := renderOptions(r, pipeline.FormatSVG)
	opts.Source = "request"
	opts.Input = body

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	s.writeArtifact(w, pipeline.ContentType(format), "", res.Artifacts[format])
}

// renderOptions reads format, detailed, unresolved, direction and strict
// from the query string.
func renderOptions(r *http.Request, defaultFormat string) pipeline.Options {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = defaultFormat
	}
	detailed, _ := strconv.ParseBool(q.Get("detailed"))
	unresolved, _ := strconv.ParseBool(q.Get("unresolved"))
	strict, _ := strconv.ParseBool(q.Get("strict"))
	return pipeline.Options{
		Formats:        []string{format},
		Detailed:       detailed,
		ShowUnresolved: unresolved,
		Direction:      q.Get("direction"),
		Strict:         strict,
	}
}
