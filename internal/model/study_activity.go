package model

import "time"

// StudyActivity is an audit row for user actions (upload, generation, quiz
// submission). Rows are written asynchronously by the activity worker.
type StudyActivity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	DocumentID uint      `gorm:"index" json:"document_id"`
	Action     string    `gorm:"size:32;not null;index" json:"action"`
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	ActivityDocumentUploaded    = "document_uploaded"
	ActivityDocumentDeleted     = "document_deleted"
	ActivityFlashcardsGenerated = "flashcards_generated"
	ActivityQuizGenerated       = "quiz_generated"
	ActivityQuizSubmitted       = "quiz_submitted"
)
