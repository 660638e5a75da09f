package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"studyai-backend/internal/ai"
	"studyai-backend/internal/index"
	"studyai-backend/internal/model"
	"studyai-backend/internal/pkg/keymutex"
	"studyai-backend/internal/repository"
)

var ErrQuizNotFound = errors.New("quiz not found")

const (
	flashcardRetrievalQuery = "important concepts"
	quizRetrievalQuery      = "important concepts test questions"

	answerTemperature   = 0.5
	answerMaxTokens     = 512
	generateTemperature = 0.7
	generateMaxTokens   = 1024
)

// StudyService runs the retrieval-and-generation flows: answering questions
// about a document and generating flashcards and quizzes from it.
type StudyService struct {
	docRepo       *repository.DocumentRepository
	flashcardRepo *repository.FlashcardRepository
	quizRepo      *repository.QuizRepository
	llm           Generator
	embedder      Embedder
	answers       AnswerCache
	activities    ActivityPublisher
	locks         *keymutex.KeyMutex
	dataRoot      string
	queryTopK     int
	generateTopK  int
}

func NewStudyService(
	docRepo *repository.DocumentRepository,
	flashcardRepo *repository.FlashcardRepository,
	quizRepo *repository.QuizRepository,
	llm Generator,
	embedder Embedder,
	answers AnswerCache,
	activities ActivityPublisher,
	locks *keymutex.KeyMutex,
	dataRoot string,
	queryTopK, generateTopK int,
) *StudyService {
	if queryTopK <= 0 {
		queryTopK = 3
	}
	if generateTopK <= 0 {
		generateTopK = 5
	}
	return &StudyService{
		docRepo:       docRepo,
		flashcardRepo: flashcardRepo,
		quizRepo:      quizRepo,
		llm:           llm,
		embedder:      embedder,
		answers:       answers,
		activities:    activities,
		locks:         locks,
		dataRoot:      dataRoot,
		queryTopK:     queryTopK,
		generateTopK:  generateTopK,
	}
}

// Query answers a free-text question about the document. The top retrieved
// chunks are the grounding context inside the generation prompt.
func (s *StudyService) Query(ctx context.Context, userID, documentID uint, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrInvalidInput
	}

	doc, err := s.getOwnedDocument(userID, documentID)
	if err != nil {
		return "", err
	}

	if s.answers != nil {
		cached, ok, err := s.answers.Get(ctx, doc.ID, query)
		if err != nil {
			log.Printf("answer cache get failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	entries, err := s.retrieve(ctx, doc, query, s.queryTopK)
	if err != nil {
		return "", err
	}

	messages := []ai.ChatMessage{
		{
			Role: "system",
			Content: "You are a helpful study assistant. Answer the user's question based only on the " +
				"following context from their document. If the context does not contain enough " +
				"information, say so. Do not make up facts.",
		},
		{
			Role:    "user",
			Content: "Context:" + contextBlock(entries) + "\n\nQuestion: " + query + "\n\nAnswer:",
		},
	}
	answer, err := s.llm.Complete(ctx, messages, ai.GenerationParams{
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)

	if s.answers != nil {
		if err := s.answers.Set(ctx, doc.ID, query, answer); err != nil {
			log.Printf("answer cache set failed: %v", err)
		}
	}
	return answer, nil
}

func (s *StudyService) getOwnedDocument(userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return doc, nil
}

// retrieve loads the persisted index and returns the top-k chunks for the
// query. Propagates index.ErrNotFound when the document was never processed.
func (s *StudyService) retrieve(ctx context.Context, doc *model.Document, query string, k int) ([]index.Entry, error) {
	idx, err := s.loadIndex(doc)
	if err != nil {
		return nil, err
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return idx.Search(queryVec, k), nil
}

// loadIndex takes the document lock only for the read, so it cannot observe
// a half-written index during a rebuild.
func (s *StudyService) loadIndex(doc *model.Document) (*index.Index, error) {
	key := docKey(doc.ID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	return index.Load(index.Path(s.dataRoot, doc.UserID, doc.ID))
}

func contextBlock(entries []index.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("\n---\n")
		b.WriteString(e.Text)
	}
	if len(entries) > 0 {
		b.WriteString("\n---")
	}
	return b.String()
}

func (s *StudyService) logActivity(ctx context.Context, userID, documentID uint, action, detail string) {
	publishActivity(ctx, s.activities, model.StudyActivity{
		UserID:     userID,
		DocumentID: documentID,
		Action:     action,
		Detail:     detail,
	})
}
