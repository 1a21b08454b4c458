// Package aggregate enumerates and counts documents page by page, for stores
// that cap how many documents a single query may return.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fouta-app/functions/internal/docstore"
)

// DefaultPageSize is used when a caller passes a non-positive page size
const DefaultPageSize = 500

// ErrMissingOrderField is returned when a document lacks the field the scan
// is ordered by. Such documents cannot be paged over reliably.
var ErrMissingOrderField = errors.New("document has no value for the order field")

// CountQuery counts documents of Collection whose Field lies in [Start, End)
type CountQuery struct {
	Collection string
	Field      string
	Start      time.Time
	End        time.Time
}

// Scan calls fn for every document matching base, in ascending order of
// field with the document id breaking ties. Each page holds at most
// pageSize documents and resumes strictly after the last document of the
// previous page; a short page ends the scan.
//
// fn may modify or delete the document it is given.
func Scan(ctx context.Context, q docstore.Querier, base docstore.Query, field string, pageSize int, fn func(*docstore.Document) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	query := base.OrderBy(field, docstore.Asc).Limit(pageSize)

	var after *docstore.Document
	for {
		page := query
		if after != nil {
			page = page.StartAfter(after)
		}

		snap, err := q.Get(ctx, page)
		if err != nil {
			return fmt.Errorf("scan %s: %w", base.Collection, err)
		}

		for _, doc := range snap.Docs {
			if !doc.Has(field) {
				return fmt.Errorf("scan %s: %w: %s has no %s", base.Collection, ErrMissingOrderField, doc.Path, field)
			}
			if err := fn(doc); err != nil {
				return err
			}
		}

		if snap.Size() < pageSize {
			return nil
		}
		after = snap.Last()
	}
}

// Count returns the number of documents matching cq
func Count(ctx context.Context, q docstore.Querier, cq CountQuery, pageSize int) (int64, error) {
	base := docstore.Collection(cq.Collection).
		Where(cq.Field, docstore.OpGreaterEqual, cq.Start).
		Where(cq.Field, docstore.OpLess, cq.End)

	var n int64
	err := Scan(ctx, q, base, cq.Field, pageSize, func(*docstore.Document) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
