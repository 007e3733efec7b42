package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/graph"
	meshio "github.com/matzehuels/meshgraph/pkg/io"
	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
)

// createDocumentRequest seeds a document from a simulation spec, a graph
// snapshot, or nothing.
type createDocumentRequest struct {
	Name  string          `json:"name"`
	Spec  json.RawMessage `json:"spec,omitempty"`
	Graph *graph.Snapshot `json:"graph,omitempty"`
}

type edgeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		g   *graph.Graph
		err error
	)
	switch {
	case len(req.Spec) > 0 && req.Graph != nil:
		err = errors.New(errors.ErrCodeInvalidInput, "provide either spec or graph, not both")
	case len(req.Spec) > 0:
		g, err = meshio.Import(specText(req.Spec))
	case req.Graph != nil:
		g, err = graph.FromSnapshot(*req.Graph)
		if err != nil {
			err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph snapshot")
		}
	default:
		g = graph.New()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := session.NewDocument(req.Name, g)
	if err := s.repo.Save(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewDocument(doc, g))
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.repo.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, g, ok := s.openDocument(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, viewDocument(doc, g))
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportDocument renders a stored document, simulation JSON by default.
func (s *Server) exportDocument(w http.ResponseWriter, r *http.Request) {
	doc, g, ok := s.openDocument(w, r)
	if !ok {
		return
	}
	opts := renderOptions(r, pipeline.FormatJSON)
	artifacts, err := s.runner.Render(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	s.writeArtifact(w, pipeline.ContentType(format), exportFilename(doc.Name, format), artifacts[format])
}

// addNode creates a default node and applies an optional patch to it in
// the same edit.
func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var patch graph.Patch
	if err := decodeOptionalJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	var view nodeView
	_, err := s.repo.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *session.Session) error {
		n := sess.AddNode()
		if !patch.IsZero() {
			var err error
			if n, err = sess.Update(n.ID, patch); err != nil {
				return err
			}
		}
		view = viewNode(sess.Graph(), n)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	var patch graph.Patch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	var view nodeView
	_, err := s.repo.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *session.Session) error {
		n, err := sess.Update(nodeID, patch)
		if err != nil {
			return err
		}
		view = viewNode(sess.Graph(), n)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	_, err := s.repo.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *session.Session) error {
		return sess.DeleteNode(nodeID)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.From == "" || req.To == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "from and to are required"))
		return
	}

	var edge graph.Edge
	_, err := s.repo.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *session.Session) error {
		var err error
		edge, err = sess.Connect(req.From, req.To)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "from and to query parameters are required"))
		return
	}
	_, err := s.repo.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *session.Session) error {
		return sess.Disconnect(from, to)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) openDocument(w http.ResponseWriter, r *http.Request) (*session.Document, *graph.Graph, bool) {
	doc, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	g, err := doc.Open()
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	return doc, g, true
}

// specText accepts the document either as a JSON object or as a string holding
// the document text.
func specText(raw json.RawMessage) []byte {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []byte(text)
	}
	return raw
}

// decodeOptionalJSON decodes the body into v unless it is empty.
func decodeOptionalJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// exportFilename derives a download name from the document name, falling
// back to "simulation".
func exportFilename(name, format string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, name)
	filename := base + pipeline.Extension(format)
	if errors.ValidateFilename(filename) != nil || base == "" {
		filename = "simulation" + pipeline.Extension(format)
	}
	return filename
}
