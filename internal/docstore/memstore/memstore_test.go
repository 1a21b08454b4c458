package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fouta-app/functions/internal/docstore"
)

func seed(t *testing.T, s *Store, collection string, n int, start time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		path := docstore.Join(collection, fmt.Sprintf("d%03d", i))
		data := map[string]interface{}{"createdAt": start.Add(time.Duration(i) * time.Minute), "n": i}
		if err := s.Set(context.Background(), path, data, docstore.SetOptions{}); err != nil {
			t.Fatalf("Set(%s): %v", path, err)
		}
	}
}

func TestGetFiltersOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	s := New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, s, "posts", 10, start)
	// Sub-collection documents are not part of the parent collection
	seed(t, s, "posts/d000/comments", 3, start)

	q := docstore.Collection("posts").
		Where("createdAt", docstore.OpGreaterEqual, start.Add(2*time.Minute)).
		Where("createdAt", docstore.OpLess, start.Add(8*time.Minute)).
		OrderBy("createdAt", docstore.Desc).
		Limit(4)

	snap, err := s.Get(ctx, q)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"d007", "d006", "d005", "d004"}
	if snap.Size() != len(want) {
		t.Fatalf("Size() = %d, want %d", snap.Size(), len(want))
	}
	for i, id := range want {
		if snap.Docs[i].ID != id {
			t.Errorf("Docs[%d].ID = %s, want %s", i, snap.Docs[i].ID, id)
		}
	}

	next, err := s.Get(ctx, q.StartAfter(snap.Last()))
	if err != nil {
		t.Fatalf("Get after cursor: %v", err)
	}
	if next.Size() != 2 || next.Docs[0].ID != "d003" || next.Docs[1].ID != "d002" {
		t.Errorf("unexpected second page: %v", ids(next))
	}
}

func TestRangeFilterSkipsOtherTypes(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	docs := map[string]interface{}{
		"due":     now.Add(-time.Hour),
		"null":    nil,
		"number":  7,
		"missing": "",
	}
	for id, v := range docs {
		data := map[string]interface{}{}
		if id != "missing" {
			data["publishAt"] = v
		}
		if err := s.Set(ctx, docstore.Join("scheduled", id), data, docstore.SetOptions{}); err != nil {
			t.Fatalf("Set(%s): %v", id, err)
		}
	}

	snap, err := s.Get(ctx, docstore.Collection("scheduled").Where("publishAt", docstore.OpLessEqual, now))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := ids(snap); len(got) != 1 || got[0] != "due" {
		t.Errorf("ids = %v, want [due]", got)
	}
}

func TestStartAfterTiesBreakOnID(t *testing.T) {
	ctx := context.Background()
	s := New()
	same := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"c", "a", "b"} {
		_ = s.Set(ctx, "posts/"+id, map[string]interface{}{"createdAt": same}, docstore.SetOptions{})
	}

	q := docstore.Collection("posts").OrderBy("createdAt", docstore.Asc).Limit(2)
	first, _ := s.Get(ctx, q)
	second, _ := s.Get(ctx, q.StartAfter(first.Last()))

	got := append(ids(first), ids(second)...)
	if fmt.Sprint(got) != "[a b c]" {
		t.Errorf("pages = %v, want [a b c]", got)
	}
}

func TestSetMergeAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Set(ctx, "metrics/daily/2025-01-01", map[string]interface{}{"dau": 1, "posts": 2}, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "metrics/daily/2025-01-01", map[string]interface{}{"dau": 5}, docstore.SetOptions{Merge: true}); err != nil {
		t.Fatal(err)
	}
	doc, err := s.Doc(ctx, "metrics/daily/2025-01-01")
	if err != nil || doc == nil {
		t.Fatalf("Doc: %v %v", doc, err)
	}
	if doc.Int("dau") != 5 || doc.Int("posts") != 2 {
		t.Errorf("merge result = %v", doc.Data)
	}

	if err := s.Update(ctx, "metrics/daily/2025-01-01", map[string]interface{}{"posts": docstore.IncrementBy(1)}); err != nil {
		t.Fatal(err)
	}
	doc, _ = s.Doc(ctx, "metrics/daily/2025-01-01")
	if doc.Int("posts") != 3 {
		t.Errorf("posts after increment = %d", doc.Int("posts"))
	}

	err = s.Update(ctx, "metrics/daily/missing", map[string]interface{}{"x": 1})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Set(ctx, "users/u1", map[string]interface{}{"name": "a"}, docstore.SetOptions{})

	doc, _ := s.Doc(ctx, "users/u1")
	doc.Data["name"] = "changed"

	again, _ := s.Doc(ctx, "users/u1")
	if again.String("name") != "a" {
		t.Errorf("stored document mutated through a read: %v", again.Data)
	}
}

func TestAddDeleteAndListDocuments(t *testing.T) {
	ctx := context.Background()
	s := New()

	path, err := s.Add(ctx, "posts", map[string]interface{}{"content": "hi"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if doc, _ := s.Doc(ctx, path); doc == nil || doc.String("content") != "hi" {
		t.Fatalf("added document not readable at %s", path)
	}
	if err := s.Delete(ctx, path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if doc, _ := s.Doc(ctx, path); doc != nil {
		t.Errorf("document still present after delete")
	}
	if err := s.Delete(ctx, path); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}

	_ = s.Set(ctx, "notifQueue/u2/items/i1", map[string]interface{}{"type": "like"}, docstore.SetOptions{})
	_ = s.Set(ctx, "notifQueue/u1", map[string]interface{}{}, docstore.SetOptions{})
	list, err := s.ListDocuments(ctx, "notifQueue")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if fmt.Sprint(list) != "[u1 u2]" {
		t.Errorf("ListDocuments = %v, want [u1 u2]", list)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Get(ctx, docstore.Collection("posts")); !errors.Is(err, context.Canceled) {
		t.Errorf("Get error = %v, want context.Canceled", err)
	}
}

func ids(s *docstore.Snapshot) []string {
	out := make([]string, 0, s.Size())
	for _, d := range s.Docs {
		out = append(out, d.ID)
	}
	return out
}
