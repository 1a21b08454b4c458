// Package memstore is an in-process docstore.Store. It backs local runs and
// every job test.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fouta-app/functions/internal/docstore"
)

// Store keeps documents in a map keyed by path
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]interface{}
}

// New creates an empty store
func New() *Store {
	return &Store{docs: make(map[string]map[string]interface{})}
}

var _ docstore.Store = (*Store)(nil)

// Get runs q against the current contents
func (s *Store) Get(ctx context.Context, q docstore.Query) (*docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var matched []*docstore.Document
	prefix := strings.Trim(q.Collection, "/") + "/"
	for path, data := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		doc := &docstore.Document{ID: path[len(prefix):], Path: path, Data: data}
		if matchesAll(doc, q.Filters) {
			// Copy so callers cannot mutate stored state
			doc.Data = docstore.CloneMap(data)
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return docstore.CompareDocs(matched[i], matched[j], q.Orders) < 0
	})

	if q.After != nil {
		i := sort.Search(len(matched), func(i int) bool {
			return docstore.CompareDocs(matched[i], q.After, q.Orders) > 0
		})
		matched = matched[i:]
	}
	if q.LimitN > 0 && len(matched) > q.LimitN {
		matched = matched[:q.LimitN]
	}

	return &docstore.Snapshot{Docs: matched}, nil
}

// Doc reads one document
func (s *Store) Doc(ctx context.Context, path string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, id, err := docstore.Split(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[strings.Trim(path, "/")]
	if !ok {
		return nil, nil
	}
	return &docstore.Document{ID: id, Path: strings.Trim(path, "/"), Data: docstore.CloneMap(data)}, nil
}

// Add creates a document with a random id
func (s *Store) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	path := docstore.Join(strings.Trim(collection, "/"), uuid.NewString())
	if err := s.Set(ctx, path, data, docstore.SetOptions{}); err != nil {
		return "", err
	}
	return path, nil
}

// Set writes a document
func (s *Store) Set(ctx context.Context, path string, data map[string]interface{}, opts docstore.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, _, err := docstore.Split(path); err != nil {
		return err
	}
	path = strings.Trim(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.docs[path]
	if opts.Merge && ok {
		docstore.MergeInto(existing, data)
		return nil
	}
	s.docs[path] = docstore.CloneMap(data)
	return nil
}

// Update changes fields of an existing document
func (s *Store) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = strings.Trim(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("update %s: %w", path, docstore.ErrNotFound)
	}
	docstore.ApplyUpdate(data, fields)
	return nil
}

// Delete removes a document. Sub-collections are left in place.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = strings.Trim(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; !ok {
		return fmt.Errorf("delete %s: %w", path, docstore.ErrNotFound)
	}
	delete(s.docs, path)
	return nil
}

// ListDocuments lists document ids under collection
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := strings.Trim(collection, "/") + "/"

	s.mu.RLock()
	seen := make(map[string]bool)
	for path := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		id, _, _ := strings.Cut(path[len(prefix):], "/")
		seen[id] = true
	}
	s.mu.RUnlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of documents in collection
func (s *Store) Len(collection string) int {
	snap, _ := s.Get(context.Background(), docstore.Collection(collection))
	return snap.Size()
}

func matchesAll(doc *docstore.Document, filters []docstore.Filter) bool {
	for _, f := range filters {
		if !f.Matches(doc) {
			return false
		}
	}
	return true
}
