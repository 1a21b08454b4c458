// Package pgstore is a docstore.Store over a single PostgreSQL table of
// JSONB documents, accessed through GORM.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Store implements docstore.Store on the documents table
type Store struct {
	db *gorm.DB
}

// New creates a store on db. The documents table must exist; see db.Migrate.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ docstore.Store = (*Store)(nil)

// Get runs q
func (s *Store) Get(ctx context.Context, q docstore.Query) (*docstore.Snapshot, error) {
	p, err := translate(q)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.DocumentRecord{}).
		Where("collection = ?", strings.Trim(q.Collection, "/"))
	for _, c := range p.Where {
		tx = tx.Where(c.SQL, c.Args...)
	}
	for _, o := range p.Order {
		tx = tx.Order(o)
	}
	if p.Limit > 0 {
		tx = tx.Limit(p.Limit)
	}

	var rows []models.DocumentRecord
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}

	snap := &docstore.Snapshot{Docs: make([]*docstore.Document, 0, len(rows))}
	for i := range rows {
		doc, err := decode(&rows[i])
		if err != nil {
			return nil, err
		}
		snap.Docs = append(snap.Docs, doc)
	}
	return snap, nil
}

// Doc reads one document
func (s *Store) Doc(ctx context.Context, path string) (*docstore.Document, error) {
	if _, _, err := docstore.Split(path); err != nil {
		return nil, err
	}
	var row models.DocumentRecord
	err := s.db.WithContext(ctx).Where("path = ?", strings.Trim(path, "/")).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decode(&row)
}

// Add creates a document with a random id
func (s *Store) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	path := docstore.Join(strings.Trim(collection, "/"), uuid.NewString())
	if err := s.Set(ctx, path, data, docstore.SetOptions{}); err != nil {
		return "", err
	}
	return path, nil
}

// Set writes a document. A merge reads the current row under a row lock.
func (s *Store) Set(ctx context.Context, path string, data map[string]interface{}, opts docstore.SetOptions) error {
	if _, _, err := docstore.Split(path); err != nil {
		return err
	}
	path = strings.Trim(path, "/")

	if !opts.Merge {
		return upsert(s.db.WithContext(ctx), path, data)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockRow(tx, path)
		if err != nil {
			return err
		}
		if existing == nil {
			return upsert(tx, path, data)
		}
		docstore.MergeInto(existing.Data, data)
		return upsert(tx, path, existing.Data)
	})
}

// Update changes fields of an existing document
func (s *Store) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	path = strings.Trim(path, "/")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockRow(tx, path)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("update %s: %w", path, docstore.ErrNotFound)
		}
		docstore.ApplyUpdate(existing.Data, fields)

		raw, err := encode(existing.Data)
		if err != nil {
			return err
		}
		err = tx.Model(&models.DocumentRecord{}).Where("path = ?", path).
			Updates(map[string]interface{}{"data": raw, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return fmt.Errorf("update %s: %w", path, err)
		}
		return nil
	})
}

// Delete removes a document
func (s *Store) Delete(ctx context.Context, path string) error {
	path = strings.Trim(path, "/")
	res := s.db.WithContext(ctx).Where("path = ?", path).Delete(&models.DocumentRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s: %w", path, docstore.ErrNotFound)
	}
	return nil
}

// ListDocuments lists ids under collection, including parents of
// sub-collection documents
func (s *Store) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	prefix := strings.Trim(collection, "/") + "/"

	var ids []string
	err := s.db.WithContext(ctx).Raw(
		`SELECT DISTINCT split_part(substr(path, ?), '/', 1) AS id FROM documents WHERE path LIKE ?`,
		utf8.RuneCountInString(prefix)+1, likeEscaper.Replace(prefix)+"%",
	).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func lockRow(tx *gorm.DB, path string) (*docstore.Document, error) {
	var row models.DocumentRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("path = ?", path).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return decode(&row)
}

func upsert(tx *gorm.DB, path string, data map[string]interface{}) error {
	collection, id, err := docstore.Split(path)
	if err != nil {
		return err
	}
	raw, err := encode(data)
	if err != nil {
		return err
	}
	rec := models.DocumentRecord{Path: path, Collection: collection, DocID: id, Data: raw}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func encode(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(docstore.Normalize(data))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

func decode(row *models.DocumentRecord) (*docstore.Document, error) {
	data := map[string]interface{}{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", row.Path, err)
		}
	}
	return &docstore.Document{ID: row.DocID, Path: row.Path, Data: data}, nil
}
