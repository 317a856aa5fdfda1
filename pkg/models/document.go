package models

import "time"

// UploadedDocument is a catalog row for one ingested file, keyed by the
// md5 of its raw bytes so re-uploads of identical content dedupe.
type UploadedDocument struct {
	ContentHash  string    `gorm:"primaryKey;size:32" json:"content_hash"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	StoredPath   string    `gorm:"size:512" json:"-"`
	SizeBytes    int64     `json:"size_bytes"`
	ChunkCount   int       `json:"chunk_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func (UploadedDocument) TableName() string {
	return "uploaded_documents"
}
