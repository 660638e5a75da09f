package model

import "time"

// Quiz owns ordered questions, each with four options of which exactly one
// is marked correct. A document has at most one quiz; regeneration replaces
// the whole tree.
type Quiz struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	DocumentID uint           `gorm:"not null;index" json:"document_id"`
	Title      string         `gorm:"size:128;not null" json:"title"`
	CreatedAt  time.Time      `json:"created_at"`
	Questions  []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions"`
}

type QuizQuestion struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	QuizID       uint         `gorm:"not null;index" json:"quiz_id"`
	QuestionText string       `gorm:"type:text;not null" json:"question_text"`
	Options      []QuizOption `gorm:"foreignKey:QuestionID" json:"options"`
}

type QuizOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	OptionText string `gorm:"type:text;not null" json:"option_text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
}
