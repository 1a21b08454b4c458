// Package docstore is the document-store abstraction the jobs run against.
// Documents are addressed by slash separated paths ("users/u1/scheduled/s1"),
// grouped into collections (the path minus its last segment), and carry a
// map payload. Implementations live in memstore and pgstore.
package docstore

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by Update and Delete for a missing document
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath is returned for empty paths and paths with empty segments
	ErrInvalidPath = errors.New("invalid document path")
)

// Querier runs collection queries
type Querier interface {
	Get(ctx context.Context, q Query) (*Snapshot, error)
}

// Store is the full document-store surface
type Store interface {
	Querier

	// Doc reads one document; a missing document is (nil, nil)
	Doc(ctx context.Context, path string) (*Document, error)
	// Add creates a document with a generated id and returns its path
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	// Set writes a document, replacing it unless opts.Merge is true
	Set(ctx context.Context, path string, data map[string]interface{}, opts SetOptions) error
	// Update changes fields of an existing document. Keys may be dotted
	// paths into nested maps and values may be Increment sentinels.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Delete removes a document
	Delete(ctx context.Context, path string) error
	// ListDocuments lists the ids directly under a collection, including
	// ids that only exist as parents of sub-collections
	ListDocuments(ctx context.Context, collection string) ([]string, error)
}

// SetOptions controls Set
type SetOptions struct {
	Merge bool
}

// Snapshot is the result of a query
type Snapshot struct {
	Docs []*Document
}

// Size returns the number of documents in the snapshot
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Docs)
}

// Empty reports whether the snapshot holds no documents
func (s *Snapshot) Empty() bool {
	return s.Size() == 0
}

// Last returns the final document of the snapshot, or nil
func (s *Snapshot) Last() *Document {
	if s.Empty() {
		return nil
	}
	return s.Docs[len(s.Docs)-1]
}

// Join builds a path from segments
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the collection and id of a document path
func Split(path string) (collection, id string, err error) {
	path = strings.Trim(path, "/")
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", ErrInvalidPath
	}
	collection, id = path[:i], path[i+1:]
	if strings.Contains(collection, "//") {
		return "", "", ErrInvalidPath
	}
	return collection, id, nil
}
