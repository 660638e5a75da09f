package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studyai-backend/internal/model"
)

type QuizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// GetByDocumentID returns the document's quiz with questions and options
// preloaded, or nil when none exists.
func (r *QuizRepository) GetByDocumentID(documentID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_questions.id ASC")
	}).Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("quiz_options.id ASC")
	}).Where("document_id = ?", documentID).First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query quiz by document failed: %w", err)
	}
	return &quiz, nil
}

// ReplaceForDocument deletes the prior quiz tree (options, questions, quiz)
// and creates the new one in a single transaction. Question and option rows
// are inserted in nested passes because each child needs its parent's
// generated id.
func (r *QuizRepository) ReplaceForDocument(documentID uint, quiz *model.Quiz) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteQuizTree(tx, documentID); err != nil {
			return err
		}

		questions := quiz.Questions
		quiz.ID = 0
		quiz.DocumentID = documentID
		quiz.Questions = nil
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}

		for qi := range questions {
			options := questions[qi].Options
			questions[qi].ID = 0
			questions[qi].QuizID = quiz.ID
			questions[qi].Options = nil
			if err := tx.Create(&questions[qi]).Error; err != nil {
				return err
			}

			for oi := range options {
				options[oi].ID = 0
				options[oi].QuestionID = questions[qi].ID
			}
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
			questions[qi].Options = options
		}
		quiz.Questions = questions
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace quiz failed: %w", err)
	}
	return nil
}
