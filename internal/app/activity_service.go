package app

import (
	"studyai-backend/internal/model"
	"studyai-backend/internal/repository"
)

const defaultActivityLimit = 20

// ActivityService reads the persisted activity log for the dashboard.
type ActivityService struct {
	repo *repository.ActivityRepository
}

func NewActivityService(repo *repository.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

func (s *ActivityService) Recent(userID uint, limit int) ([]model.StudyActivity, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 100 {
		limit = defaultActivityLimit
	}
	return s.repo.ListByUserID(userID, limit)
}
