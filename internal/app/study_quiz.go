package app

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"studyai-backend/internal/model"
)

// QuestionResult reports the outcome for one quiz question. Incorrect and
// unanswered questions carry the correct option's id so the client can
// reveal it.
type QuestionResult struct {
	Correct         bool `json:"correct"`
	NotAnswered     bool `json:"not_answered,omitempty"`
	CorrectOptionID uint `json:"correct_option_id,omitempty"`
}

type QuizResult struct {
	Score      int                       `json:"score"`
	Total      int                       `json:"total"`
	Percentage int                       `json:"percentage"`
	Results    map[string]QuestionResult `json:"results"`
}

// SubmitQuiz scores an answers map (question id -> selected option id) that
// may cover any subset of the quiz's questions. Unanswered questions count
// as incorrect.
func (s *StudyService) SubmitQuiz(ctx context.Context, userID, documentID uint, answers map[string]uint) (*QuizResult, error) {
	if len(answers) == 0 {
		return nil, ErrInvalidInput
	}

	doc, err := s.getOwnedDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByDocumentID(doc.ID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	result := scoreQuiz(quiz, answers)

	s.logActivity(ctx, userID, doc.ID, model.ActivityQuizSubmitted,
		fmt.Sprintf("%d/%d (%d%%)", result.Score, result.Total, result.Percentage))
	return result, nil
}

func scoreQuiz(quiz *model.Quiz, answers map[string]uint) *QuizResult {
	result := &QuizResult{Results: make(map[string]QuestionResult)}

	for _, question := range quiz.Questions {
		result.Total++
		questionID := strconv.FormatUint(uint64(question.ID), 10)

		selectedID, answered := answers[questionID]
		if !answered {
			result.Results[questionID] = QuestionResult{
				NotAnswered:     true,
				CorrectOptionID: correctOptionID(question),
			}
			continue
		}

		if isCorrectOption(question, selectedID) {
			result.Score++
			result.Results[questionID] = QuestionResult{Correct: true}
			continue
		}
		result.Results[questionID] = QuestionResult{
			CorrectOptionID: correctOptionID(question),
		}
	}

	if result.Total > 0 {
		result.Percentage = int(math.Round(100 * float64(result.Score) / float64(result.Total)))
	}
	return result
}

func isCorrectOption(question model.QuizQuestion, optionID uint) bool {
	for _, option := range question.Options {
		if option.ID == optionID {
			return option.IsCorrect
		}
	}
	return false
}

// correctOptionID returns the first option flagged correct; exactly one per
// question is expected.
func correctOptionID(question model.QuizQuestion) uint {
	for _, option := range question.Options {
		if option.IsCorrect {
			return option.ID
		}
	}
	return 0
}
