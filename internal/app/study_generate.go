package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"studyai-backend/internal/ai"
	"studyai-backend/internal/index"
	"studyai-backend/internal/model"
)

const generatedQuizTitle = "Generated Quiz"

// GetFlashcards returns the stored flashcards, generating a first set when
// none exist yet.
func (s *StudyService) GetFlashcards(ctx context.Context, userID, documentID uint) ([]model.Flashcard, error) {
	doc, err := s.getOwnedDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	existing, err := s.flashcardRepo.ListByDocumentID(doc.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	return s.generateFlashcards(ctx, doc)
}

// GenerateFlashcards replaces the document's flashcards with a freshly
// generated set.
func (s *StudyService) GenerateFlashcards(ctx context.Context, userID, documentID uint) ([]model.Flashcard, error) {
	doc, err := s.getOwnedDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	return s.generateFlashcards(ctx, doc)
}

func (s *StudyService) generateFlashcards(ctx context.Context, doc *model.Document) ([]model.Flashcard, error) {
	entries, err := s.retrieve(ctx, doc, flashcardRetrievalQuery, s.generateTopK)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, flashcardPrompt(entries), ai.GenerationParams{
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	// model output is unreliable: any parse failure degrades to the fixed
	// fallback set instead of failing the request
	cards, ok := parseFlashcards(raw)
	if !ok {
		cards = fallbackFlashcards(doc)
	}

	// re-read under the same lock as the replace, so a concurrent delete
	// cannot run between the two
	key := docKey(doc.ID)
	s.locks.Lock(key)
	err = s.flashcardRepo.ReplaceForDocument(doc.ID, cards)
	var stored []model.Flashcard
	if err == nil {
		stored, err = s.flashcardRepo.ListByDocumentID(doc.ID)
	}
	s.locks.Unlock(key)
	if err != nil {
		return nil, err
	}
	s.logActivity(ctx, doc.UserID, doc.ID, model.ActivityFlashcardsGenerated, "")
	return stored, nil
}

// GetQuiz returns the stored quiz, generating one when none exists yet.
func (s *StudyService) GetQuiz(ctx context.Context, userID, documentID uint) (*model.Quiz, error) {
	doc, err := s.getOwnedDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	existing, err := s.quizRepo.GetByDocumentID(doc.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.generateQuiz(ctx, doc)
}

// GenerateQuiz replaces the document's quiz with a freshly generated one.
func (s *StudyService) GenerateQuiz(ctx context.Context, userID, documentID uint) (*model.Quiz, error) {
	doc, err := s.getOwnedDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	return s.generateQuiz(ctx, doc)
}

func (s *StudyService) generateQuiz(ctx context.Context, doc *model.Document) (*model.Quiz, error) {
	entries, err := s.retrieve(ctx, doc, quizRetrievalQuery, s.generateTopK)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, quizPrompt(entries), ai.GenerationParams{
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	quiz, ok := parseQuiz(raw)
	if !ok {
		quiz = fallbackQuiz(doc)
	}

	key := docKey(doc.ID)
	s.locks.Lock(key)
	err = s.quizRepo.ReplaceForDocument(doc.ID, quiz)
	var stored *model.Quiz
	if err == nil {
		stored, err = s.quizRepo.GetByDocumentID(doc.ID)
	}
	s.locks.Unlock(key)
	if err != nil {
		return nil, err
	}
	// callers must never receive a nil quiz without an error
	if stored == nil {
		return nil, ErrQuizNotFound
	}
	s.logActivity(ctx, doc.UserID, doc.ID, model.ActivityQuizGenerated, "")
	return stored, nil
}

func flashcardPrompt(entries []index.Entry) []ai.ChatMessage {
	var b strings.Builder
	b.WriteString("Based on the following text, generate 5 flashcards in JSON format.\n")
	b.WriteString("Each flashcard should have a 'front' with a question or term and a 'back' with the answer or definition.\n")
	b.WriteString("\nText:\n")
	b.WriteString(joinEntryTexts(entries))
	b.WriteString("\n\nOutput only the JSON array with no other text.")
	return []ai.ChatMessage{{Role: "user", Content: b.String()}}
}

func quizPrompt(entries []index.Entry) []ai.ChatMessage {
	var b strings.Builder
	b.WriteString("Based on the following text, generate 5 multiple-choice questions in JSON format.\n")
	b.WriteString("Each question should have a 'question' field, an 'options' array with 4 choices, and a 'correct_answer' field with the index (0-3) of the correct option.\n")
	b.WriteString("\nText:\n")
	b.WriteString(joinEntryTexts(entries))
	b.WriteString("\n\nOutput only the JSON array with no other text.")
	return []ai.ChatMessage{{Role: "user", Content: b.String()}}
}

func joinEntryTexts(entries []index.Entry) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return strings.Join(texts, "\n\n")
}

// extractJSONArray slices the substring between the first '[' and the last
// ']' in the raw model output.
func extractJSONArray(raw string) (string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func parseFlashcards(raw string) ([]model.Flashcard, bool) {
	payload, ok := extractJSONArray(raw)
	if !ok {
		return nil, false
	}
	var parsed []struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil || len(parsed) == 0 {
		return nil, false
	}
	cards := make([]model.Flashcard, len(parsed))
	for i, p := range parsed {
		cards[i] = model.Flashcard{Front: p.Front, Back: p.Back}
	}
	return cards, true
}

func parseQuiz(raw string) (*model.Quiz, bool) {
	payload, ok := extractJSONArray(raw)
	if !ok {
		return nil, false
	}
	var parsed []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correct_answer"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil || len(parsed) == 0 {
		return nil, false
	}

	quiz := &model.Quiz{Title: generatedQuizTitle}
	for _, p := range parsed {
		if len(p.Options) != 4 || p.CorrectAnswer < 0 || p.CorrectAnswer > 3 {
			// a malformed question would break the one-correct-option
			// invariant; treat the whole payload as unparseable
			return nil, false
		}
		question := model.QuizQuestion{QuestionText: p.Question}
		for i, text := range p.Options {
			question.Options = append(question.Options, model.QuizOption{
				OptionText: text,
				IsCorrect:  i == p.CorrectAnswer,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, true
}

// fallbackFlashcards is the fixed degrade set built from document metadata,
// used whenever model output cannot be parsed.
func fallbackFlashcards(doc *model.Document) []model.Flashcard {
	return []model.Flashcard{
		{Front: "What is this document about?", Back: "This document covers " + doc.Title},
		{Front: "When was this document uploaded?", Back: doc.UploadedAt.Format("2006-01-02 15:04:05")},
		{Front: "Who created this document?", Back: "The document was uploaded by you"},
		{Front: "What is the filename?", Back: doc.Filename},
		{Front: "What is the purpose of StudyAI?", Back: "To help you study and learn from your documents"},
	}
}

// fallbackQuiz is the fixed degrade quiz. The last question's correct option
// is derived from the document's file extension; extensions other than
// .pdf/.txt/.docx collapse to the catch-all fourth option, whose text is the
// literal extension.
func fallbackQuiz(doc *model.Document) *model.Quiz {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	formatCorrect := 3
	switch ext {
	case ".pdf":
		formatCorrect = 0
	case ".txt":
		formatCorrect = 1
	case ".docx":
		formatCorrect = 2
	}

	quiz := &model.Quiz{Title: generatedQuizTitle}
	addQuestion := func(text string, options [4]string, correct int) {
		question := model.QuizQuestion{QuestionText: text}
		for i, opt := range options {
			question.Options = append(question.Options, model.QuizOption{
				OptionText: opt,
				IsCorrect:  i == correct,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	addQuestion("What is the title of this document?",
		[4]string{doc.Title, "Unknown Document", "Study Guide", "Reference Material"}, 0)
	addQuestion("What tool are you using to study this document?",
		[4]string{"Google Docs", "Microsoft Word", "StudyAI", "Adobe Reader"}, 2)
	addQuestion("What can you create with StudyAI?",
		[4]string{"Videos", "Flashcards and Quizzes", "Presentations", "Spreadsheets"}, 1)
	addQuestion("Where is your document stored?",
		[4]string{"On Google Drive", "In your StudyAI account", "On Dropbox", "It's not stored anywhere"}, 1)
	addQuestion("What format is your document?",
		[4]string{".pdf", ".txt", ".docx", ext}, formatCorrect)
	return quiz
}
