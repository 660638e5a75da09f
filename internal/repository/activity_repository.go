package repository

import (
	"fmt"

	"gorm.io/gorm"

	"studyai-backend/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(activity *model.StudyActivity) error {
	if err := r.db.Create(activity).Error; err != nil {
		return fmt.Errorf("create study activity failed: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByUserID(userID uint, limit int) ([]model.StudyActivity, error) {
	if limit <= 0 {
		limit = 50
	}
	var activities []model.StudyActivity
	if err := r.db.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list study activities failed: %w", err)
	}
	return activities, nil
}
