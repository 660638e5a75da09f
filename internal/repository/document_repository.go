package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studyai-backend/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query document by id failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByUserID(userID uint) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("user_id = ?", userID).Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// DeleteCascade removes the document row together with its flashcards and
// its quiz tree in one transaction.
func (r *DocumentRepository) DeleteCascade(documentID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteQuizTree(tx, documentID); err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Flashcard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Document{}, documentID).Error
	})
	if err != nil {
		return fmt.Errorf("delete document cascade failed: %w", err)
	}
	return nil
}

func deleteQuizTree(tx *gorm.DB, documentID uint) error {
	var quizIDs []uint
	if err := tx.Model(&model.Quiz{}).Where("document_id = ?", documentID).Pluck("id", &quizIDs).Error; err != nil {
		return err
	}
	if len(quizIDs) == 0 {
		return nil
	}
	var questionIDs []uint
	if err := tx.Model(&model.QuizQuestion{}).Where("quiz_id IN ?", quizIDs).Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.QuizOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", questionIDs).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", quizIDs).Delete(&model.Quiz{}).Error
}
