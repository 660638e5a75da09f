package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyai-backend/internal/index"
	"studyai-backend/internal/model"
	"studyai-backend/internal/pkg/keymutex"
	"studyai-backend/internal/repository"
)

type studyFixture struct {
	service  *StudyService
	docRepo  *repository.DocumentRepository
	cardRepo *repository.FlashcardRepository
	quizRepo *repository.QuizRepository
	llm      *fakeLLM
	dataRoot string
}

func newStudyFixture(t *testing.T, llm *fakeLLM) *studyFixture {
	t.Helper()
	db := newTestDB(t)
	docRepo := repository.NewDocumentRepository(db)
	cardRepo := repository.NewFlashcardRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	dataRoot := t.TempDir()

	service := NewStudyService(docRepo, cardRepo, quizRepo, llm, fakeEmbedder{},
		nil, nil, keymutex.New(), dataRoot, 3, 5)
	return &studyFixture{
		service:  service,
		docRepo:  docRepo,
		cardRepo: cardRepo,
		quizRepo: quizRepo,
		llm:      llm,
		dataRoot: dataRoot,
	}
}

// addDocument creates the document row and, when indexed is true, a
// persisted index with one entry.
func (f *studyFixture) addDocument(t *testing.T, userID uint, indexed bool) *model.Document {
	t.Helper()
	doc := &model.Document{
		UserID:   userID,
		Title:    "Test Notes",
		Filename: "notes.txt",
		FilePath: "/tmp/notes.txt",
	}
	require.NoError(t, f.docRepo.Create(doc))
	if indexed {
		idx := &index.Index{Entries: []index.Entry{
			{Text: "mitochondria produce ATP", Source: "notes.txt", Page: 1, Embedding: []float32{1, 0}},
			{Text: "the cell membrane is selective", Source: "notes.txt", Page: 1, Embedding: []float32{0.9, 0.1}},
		}}
		require.NoError(t, index.Save(index.Path(f.dataRoot, userID, doc.ID), idx))
	}
	return doc
}

func TestQueryAnswers(t *testing.T) {
	llm := &fakeLLM{responses: []string{"  ATP is produced in mitochondria.  "}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	answer, err := f.service.Query(context.Background(), 1, doc.ID, "where is ATP produced?")
	require.NoError(t, err)
	assert.Equal(t, "ATP is produced in mitochondria.", answer)

	require.Len(t, llm.prompts, 1)
	messages := llm.prompts[0]
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[1].Content, "mitochondria produce ATP")
	assert.Contains(t, messages[1].Content, "where is ATP produced?")
}

func TestQueryBlankQuestion(t *testing.T) {
	f := newStudyFixture(t, &fakeLLM{})
	doc := f.addDocument(t, 1, true)

	_, err := f.service.Query(context.Background(), 1, doc.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQueryOtherUsersDocument(t *testing.T) {
	f := newStudyFixture(t, &fakeLLM{})
	doc := f.addDocument(t, 1, true)

	_, err := f.service.Query(context.Background(), 2, doc.ID, "question")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestQueryMissingDocument(t *testing.T) {
	f := newStudyFixture(t, &fakeLLM{})

	_, err := f.service.Query(context.Background(), 1, 999, "question")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestQueryUnprocessedDocument(t *testing.T) {
	f := newStudyFixture(t, &fakeLLM{})
	doc := f.addDocument(t, 1, false)

	_, err := f.service.Query(context.Background(), 1, doc.ID, "question")
	assert.ErrorIs(t, err, index.ErrNotFound)
}

func TestGenerateFlashcards(t *testing.T) {
	llm := &fakeLLM{responses: []string{`[{"front":"What is ATP?","back":"Energy currency"},{"front":"Q2","back":"A2"}]`}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	cards, err := f.service.GenerateFlashcards(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is ATP?", cards[0].Front)
	assert.Equal(t, doc.ID, cards[0].DocumentID)
	assert.NotZero(t, cards[0].ID)
}

func TestGenerateFlashcardsFallsBack(t *testing.T) {
	llm := &fakeLLM{responses: []string{"I cannot produce JSON, sorry."}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	cards, err := f.service.GenerateFlashcards(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, cards, 5)
	assert.Contains(t, cards[0].Back, "Test Notes")
}

func TestGetFlashcardsReturnsStored(t *testing.T) {
	llm := &fakeLLM{}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)
	require.NoError(t, f.cardRepo.ReplaceForDocument(doc.ID, []model.Flashcard{
		{Front: "stored", Back: "card"},
	}))

	cards, err := f.service.GetFlashcards(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "stored", cards[0].Front)
	assert.Zero(t, llm.calls)
}

func TestGetFlashcardsGeneratesWhenEmpty(t *testing.T) {
	llm := &fakeLLM{responses: []string{`[{"front":"f","back":"b"}]`}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	cards, err := f.service.GetFlashcards(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, 1, llm.calls)
}

func TestRegenerateFlashcardsReplaces(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`[{"front":"old1","back":"b"},{"front":"old2","back":"b"}]`,
		`[{"front":"new","back":"b"}]`,
	}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	_, err := f.service.GenerateFlashcards(context.Background(), 1, doc.ID)
	require.NoError(t, err)

	cards, err := f.service.GenerateFlashcards(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "new", cards[0].Front)
}

func TestGenerateQuiz(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`[{"question":"Where is ATP made?","options":["Nucleus","Mitochondria","Ribosome","Golgi"],"correct_answer":1}]`,
	}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	quiz, err := f.service.GenerateQuiz(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.NotZero(t, quiz.ID)
	require.Len(t, quiz.Questions, 1)
	require.Len(t, quiz.Questions[0].Options, 4)
	assert.True(t, quiz.Questions[0].Options[1].IsCorrect)
	assert.NotZero(t, quiz.Questions[0].Options[1].ID)
}

func TestGenerateQuizFallsBack(t *testing.T) {
	llm := &fakeLLM{responses: []string{"no json"}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	quiz, err := f.service.GenerateQuiz(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 5)
}

func TestSubmitQuizEndToEnd(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`[{"question":"Q1","options":["a","b","c","d"],"correct_answer":0},` +
			`{"question":"Q2","options":["a","b","c","d"],"correct_answer":3}]`,
	}}
	f := newStudyFixture(t, llm)
	doc := f.addDocument(t, 1, true)

	quiz, err := f.service.GenerateQuiz(context.Background(), 1, doc.ID)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 2)

	answers := map[string]uint{}
	for _, question := range quiz.Questions {
		answers[strconv.FormatUint(uint64(question.ID), 10)] = question.Options[0].ID
	}

	result, err := f.service.SubmitQuiz(context.Background(), 1, doc.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 50, result.Percentage)
}

func TestGenerateQuizDuringDelete(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`[{"question":"Q1","options":["a","b","c","d"],"correct_answer":0}]`,
	}}
	db := newTestDB(t)
	docRepo := repository.NewDocumentRepository(db)
	locks := keymutex.New()
	dataRoot := t.TempDir()

	study := NewStudyService(docRepo, repository.NewFlashcardRepository(db),
		repository.NewQuizRepository(db), llm, fakeEmbedder{}, nil, nil, locks, dataRoot, 3, 5)
	docs := NewDocumentService(docRepo, index.NewBuilder(fakeEmbedder{}, 100, 20, 10),
		locks, nil, nil, t.TempDir(), dataRoot)

	for i := 0; i < 5; i++ {
		fileDir := filepath.Join(t.TempDir(), "files")
		require.NoError(t, os.MkdirAll(fileDir, 0o755))
		doc := &model.Document{
			UserID:   1,
			Title:    "Notes",
			Filename: "notes.txt",
			FilePath: filepath.Join(fileDir, "notes.txt"),
		}
		require.NoError(t, docRepo.Create(doc))
		require.NoError(t, index.Save(index.Path(dataRoot, 1, doc.ID), &index.Index{
			Entries: []index.Entry{{Text: "some content", Source: "notes.txt", Page: 1, Embedding: []float32{1, 0}}},
		}))

		deleted := make(chan struct{})
		go func() {
			_ = docs.Delete(context.Background(), 1, doc.ID)
			close(deleted)
		}()

		quiz, err := study.GenerateQuiz(context.Background(), 1, doc.ID)
		<-deleted

		// a quiz and an error are each fine; nil with no error never is
		if err == nil {
			require.NotNil(t, quiz)
			assert.NotZero(t, quiz.ID)
		}
	}
}

func TestSubmitQuizWithoutQuiz(t *testing.T) {
	f := newStudyFixture(t, &fakeLLM{})
	doc := f.addDocument(t, 1, true)

	_, err := f.service.SubmitQuiz(context.Background(), 1, doc.ID, map[string]uint{"1": 1})
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestSubmitQuizNoAnswers(t *testing.T) {
	f := newStudyFixture(t, &fakeLLM{})
	doc := f.addDocument(t, 1, true)

	_, err := f.service.SubmitQuiz(context.Background(), 1, doc.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
