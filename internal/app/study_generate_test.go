package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyai-backend/internal/model"
)

func TestExtractJSONArray(t *testing.T) {
	payload, ok := extractJSONArray("Here you go:\n```json\n[{\"a\":1}]\n```")
	require.True(t, ok)
	assert.Equal(t, `[{"a":1}]`, payload)

	_, ok = extractJSONArray("no array here")
	assert.False(t, ok)

	_, ok = extractJSONArray("] backwards [")
	assert.False(t, ok)
}

func TestParseFlashcards(t *testing.T) {
	raw := `Sure! [{"front":"What is Go?","back":"A language"},{"front":"Q2","back":"A2"}]`

	cards, ok := parseFlashcards(raw)
	require.True(t, ok)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is Go?", cards[0].Front)
	assert.Equal(t, "A language", cards[0].Back)
}

func TestParseFlashcardsRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"no brackets":  "front and back",
		"invalid json": `[{"front": }]`,
		"empty array":  "[]",
		"not objects":  `[1, 2, 3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := parseFlashcards(raw)
			assert.False(t, ok)
		})
	}
}

func TestParseQuiz(t *testing.T) {
	raw := `[{"question":"Pick one","options":["a","b","c","d"],"correct_answer":2}]`

	quiz, ok := parseQuiz(raw)
	require.True(t, ok)
	assert.Equal(t, generatedQuizTitle, quiz.Title)
	require.Len(t, quiz.Questions, 1)

	question := quiz.Questions[0]
	assert.Equal(t, "Pick one", question.QuestionText)
	require.Len(t, question.Options, 4)
	for i, option := range question.Options {
		assert.Equal(t, i == 2, option.IsCorrect)
	}
}

func TestParseQuizRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"empty array":        "[]",
		"three options":      `[{"question":"q","options":["a","b","c"],"correct_answer":0}]`,
		"five options":       `[{"question":"q","options":["a","b","c","d","e"],"correct_answer":0}]`,
		"correct too large":  `[{"question":"q","options":["a","b","c","d"],"correct_answer":4}]`,
		"correct negative":   `[{"question":"q","options":["a","b","c","d"],"correct_answer":-1}]`,
		"one bad spoils all": `[{"question":"ok","options":["a","b","c","d"],"correct_answer":0},{"question":"bad","options":["a"],"correct_answer":0}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := parseQuiz(raw)
			assert.False(t, ok)
		})
	}
}

func TestFallbackFlashcards(t *testing.T) {
	uploaded := time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)
	doc := &model.Document{Title: "Biology Notes", Filename: "bio.pdf", UploadedAt: uploaded}

	cards := fallbackFlashcards(doc)
	require.Len(t, cards, 5)
	assert.Contains(t, cards[0].Back, "Biology Notes")
	assert.Equal(t, "2026-02-03 10:30:00", cards[1].Back)
	assert.Equal(t, "bio.pdf", cards[3].Back)
}

func TestFallbackQuizFormatQuestion(t *testing.T) {
	cases := []struct {
		filename    string
		wantCorrect int
		wantLastOpt string
	}{
		{"notes.pdf", 0, ".pdf"},
		{"notes.txt", 1, ".txt"},
		{"notes.docx", 2, ".docx"},
		{"notes.md", 3, ".md"},
		{"NOTES.PDF", 0, ".pdf"},
	}
	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			quiz := fallbackQuiz(&model.Document{Title: "T", Filename: tc.filename})
			require.Len(t, quiz.Questions, 5)

			last := quiz.Questions[4]
			require.Len(t, last.Options, 4)
			assert.Equal(t, tc.wantLastOpt, last.Options[3].OptionText)
			for i, option := range last.Options {
				assert.Equal(t, i == tc.wantCorrect, option.IsCorrect,
					"option %d of %s", i, tc.filename)
			}
		})
	}
}

func TestFallbackQuizSingleCorrectPerQuestion(t *testing.T) {
	quiz := fallbackQuiz(&model.Document{Title: "T", Filename: "a.txt"})
	for _, question := range quiz.Questions {
		correct := 0
		for _, option := range question.Options {
			if option.IsCorrect {
				correct++
			}
		}
		assert.Equal(t, 1, correct, question.QuestionText)
	}
}
