package session

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/meshgraph/pkg/errors"
	"github.com/matzehuels/meshgraph/pkg/graph"
	"github.com/matzehuels/meshgraph/pkg/store"
)

// documentPrefix namespaces document keys: doc:{id}.
const documentPrefix = "doc:"

// Document is a named graph snapshot kept in a [Repository].
type Document struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	Graph     graph.Snapshot `json:"graph" bson:"graph"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// NewDocument creates an unsaved document holding a snapshot of g.
func NewDocument(name string, g *graph.Graph) *Document {
	if g == nil {
		g = graph.New()
	}
	return &Document{
		ID:    uuid.NewString(),
		Name:  name,
		Graph: g.Snapshot(),
	}
}

// Open rebuilds the document's graph.
func (d *Document) Open() (*graph.Graph, error) {
	g, err := graph.FromSnapshot(d.Graph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "document %s has a corrupt graph", d.ID)
	}
	return g, nil
}

// Summary is the listing form of a document.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing form of d.
func (d *Document) Summary() Summary {
	return Summary{
		ID:        d.ID,
		Name:      d.Name,
		Nodes:     len(d.Graph.Nodes),
		Edges:     len(d.Graph.Edges),
		UpdatedAt: d.UpdatedAt,
	}
}

// Repository stores documents as JSON in a key-value store.
//
// Edits to one document are serialized within a Repository. Processes
// sharing a backend do not coordinate.
type Repository struct {
	store store.Store
	ttl   time.Duration
	locks keyedMutex
}

// NewRepository creates a repository over s. A ttl of zero keeps documents
// until they are deleted.
func NewRepository(s store.Store, ttl time.Duration) *Repository {
	return &Repository{store: s, ttl: ttl}
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Save writes doc, assigning an id and timestamps as needed. The name must
// not be blank.
func (r *Repository) Save(ctx context.Context, doc *Document) error {
	doc.Name = strings.TrimSpace(doc.Name)
	if doc.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document name cannot be empty")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	} else if err := checkID(doc.ID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode document %s", doc.ID)
	}
	if err := r.store.Set(ctx, documentPrefix+doc.ID, data, r.ttl); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save document %s", doc.ID)
	}
	return nil
}

// Get loads a document by id.
func (r *Repository) Get(ctx context.Context, id string) (*Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, ok, err := r.store.Get(ctx, documentPrefix+id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load document %s", id)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode document %s", id)
	}
	return &doc, nil
}

// Delete removes a document. Deleting a missing document is an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, documentPrefix+id); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete document %s", id)
	}
	return nil
}

// List returns all documents, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	keys, err := r.store.Keys(ctx, documentPrefix)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list documents")
	}
	out := make([]Summary, 0, len(keys))
	for _, key := range keys {
		doc, err := r.Get(ctx, strings.TrimPrefix(key, documentPrefix))
		if errors.Is(err, errors.ErrCodeDocumentNotFound) {
			continue // expired between Keys and Get
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc.Summary())
	}
	slices.SortStableFunc(out, func(a, b Summary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// Edit loads a document, applies fn to its graph and saves the result.
// Nothing is written when fn fails. Concurrent edits of the same document
// run one after another.
func (r *Repository) Edit(ctx context.Context, id string, fn func(*Session) error) (*Document, error) {
	defer r.locks.lock(id)()

	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := doc.Open()
	if err != nil {
		return nil, err
	}
	if err := fn(FromGraph(g)); err != nil {
		return nil, err
	}
	doc.Graph = g.Snapshot()
	if err := r.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid document id %q", id)
	}
	return nil
}
