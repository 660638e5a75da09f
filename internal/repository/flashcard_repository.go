package repository

import (
	"fmt"

	"gorm.io/gorm"

	"studyai-backend/internal/model"
)

type FlashcardRepository struct {
	db *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) *FlashcardRepository {
	return &FlashcardRepository{db: db}
}

func (r *FlashcardRepository) ListByDocumentID(documentID uint) ([]model.Flashcard, error) {
	var cards []model.Flashcard
	if err := r.db.Where("document_id = ?", documentID).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list flashcards failed: %w", err)
	}
	return cards, nil
}

// ReplaceForDocument deletes every existing flashcard for the document and
// inserts the new set as one transaction, so a failure partway never leaves
// the document half-replaced.
func (r *FlashcardRepository) ReplaceForDocument(documentID uint, cards []model.Flashcard) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Flashcard{}).Error; err != nil {
			return err
		}
		if len(cards) == 0 {
			return nil
		}
		for i := range cards {
			cards[i].ID = 0
			cards[i].DocumentID = documentID
		}
		return tx.Create(&cards).Error
	})
	if err != nil {
		return fmt.Errorf("replace flashcards failed: %w", err)
	}
	return nil
}
