package models

import (
	"time"
)

// DocumentRecord is one document of the document store as persisted in
// PostgreSQL. Data holds the JSON payload.
type DocumentRecord struct {
	Path       string    `gorm:"primaryKey;type:text;column:path"`
	Collection string    `gorm:"type:text;not null;index:documents_collection_doc_id,priority:1;column:collection"`
	DocID      string    `gorm:"type:text;not null;index:documents_collection_doc_id,priority:2;column:doc_id"`
	Data       []byte    `gorm:"type:jsonb;not null;column:data"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`
	UpdatedAt  time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for DocumentRecord
func (DocumentRecord) TableName() string {
	return "documents"
}
