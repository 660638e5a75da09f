package model

import "time"

// Document is the metadata row for an uploaded study file. The extracted
// vector index lives on disk under <data_root>/<user_id>/<document_id>/ and
// is not represented as a table.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"size:128;not null" json:"title"`
	Filename    string    `gorm:"size:256;not null" json:"filename"`
	FilePath    string    `gorm:"size:512;not null" json:"-"`
	ContentType string    `gorm:"size:64" json:"content_type"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
