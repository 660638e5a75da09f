package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyai-backend/internal/model"
)

func makeQuiz() *model.Quiz {
	question := func(id uint, correct uint) model.QuizQuestion {
		q := model.QuizQuestion{ID: id}
		for i := uint(0); i < 4; i++ {
			optionID := id*10 + i
			q.Options = append(q.Options, model.QuizOption{
				ID:        optionID,
				IsCorrect: optionID == correct,
			})
		}
		return q
	}
	return &model.Quiz{
		Title: generatedQuizTitle,
		Questions: []model.QuizQuestion{
			question(1, 10),
			question(2, 22),
			question(3, 31),
		},
	}
}

func TestScoreQuizAllCorrect(t *testing.T) {
	result := scoreQuiz(makeQuiz(), map[string]uint{"1": 10, "2": 22, "3": 31})

	assert.Equal(t, 3, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 100, result.Percentage)
	for id, qr := range result.Results {
		assert.True(t, qr.Correct, "question %s", id)
		assert.Zero(t, qr.CorrectOptionID, "question %s", id)
	}
}

func TestScoreQuizMixed(t *testing.T) {
	result := scoreQuiz(makeQuiz(), map[string]uint{"1": 10, "2": 20})

	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 33, result.Percentage)

	require.Len(t, result.Results, 3)
	assert.True(t, result.Results["1"].Correct)

	wrong := result.Results["2"]
	assert.False(t, wrong.Correct)
	assert.False(t, wrong.NotAnswered)
	assert.Equal(t, uint(22), wrong.CorrectOptionID)

	skipped := result.Results["3"]
	assert.False(t, skipped.Correct)
	assert.True(t, skipped.NotAnswered)
	assert.Equal(t, uint(31), skipped.CorrectOptionID)
}

func TestScoreQuizPercentageRounds(t *testing.T) {
	result := scoreQuiz(makeQuiz(), map[string]uint{"1": 10, "2": 22})
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 67, result.Percentage)
}

func TestScoreQuizUnknownOptionIsWrong(t *testing.T) {
	result := scoreQuiz(makeQuiz(), map[string]uint{"1": 999})
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, uint(10), result.Results["1"].CorrectOptionID)
}

func TestScoreQuizNoQuestions(t *testing.T) {
	result := scoreQuiz(&model.Quiz{}, map[string]uint{"1": 1})
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Percentage)
	assert.Empty(t, result.Results)
}
