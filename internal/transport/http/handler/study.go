package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyai-backend/internal/app"
	"studyai-backend/internal/index"
	"studyai-backend/internal/model"
	"studyai-backend/internal/transport/http/response"
)

type StudyHandler struct {
	studyService *app.StudyService
}

type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

type SubmitQuizRequest struct {
	Answers map[string]uint `json:"answers" binding:"required"`
}

func NewStudyHandler(studyService *app.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func (h *StudyHandler) Query(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing query")
		return
	}

	answer, err := h.studyService.Query(c.Request.Context(), userID, docID, req.Query)
	if err != nil {
		writeStudyError(c, err, "query failed")
		return
	}
	response.OK(c, gin.H{"response": answer})
}

// GetFlashcards returns stored flashcards, generating a first set when none
// exist.
func (h *StudyHandler) GetFlashcards(c *gin.Context) {
	h.flashcards(c, false)
}

// RegenerateFlashcards replaces the stored flashcards with a new set.
func (h *StudyHandler) RegenerateFlashcards(c *gin.Context) {
	h.flashcards(c, true)
}

func (h *StudyHandler) flashcards(c *gin.Context, regenerate bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	var cards []model.Flashcard
	if regenerate {
		cards, err = h.studyService.GenerateFlashcards(c.Request.Context(), userID, docID)
	} else {
		cards, err = h.studyService.GetFlashcards(c.Request.Context(), userID, docID)
	}
	if err != nil {
		writeStudyError(c, err, "generate flashcards failed")
		return
	}

	response.OK(c, gin.H{
		"success":    true,
		"flashcards": cards,
	})
}

func (h *StudyHandler) GetQuiz(c *gin.Context) {
	h.quiz(c, false)
}

func (h *StudyHandler) RegenerateQuiz(c *gin.Context) {
	h.quiz(c, true)
}

func (h *StudyHandler) quiz(c *gin.Context, regenerate bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	var quiz *model.Quiz
	if regenerate {
		quiz, err = h.studyService.GenerateQuiz(c.Request.Context(), userID, docID)
	} else {
		quiz, err = h.studyService.GetQuiz(c.Request.Context(), userID, docID)
	}
	if err != nil {
		writeStudyError(c, err, "generate quiz failed")
		return
	}

	response.OK(c, gin.H{
		"success": true,
		"quiz":    toQuizView(quiz),
	})
}

func (h *StudyHandler) SubmitQuiz(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID, err := parseUintParam(c, "id")
	if err != nil || docID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Answers) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no answers provided")
		return
	}

	result, err := h.studyService.SubmitQuiz(c.Request.Context(), userID, docID, req.Answers)
	if err != nil {
		writeStudyError(c, err, "submit quiz failed")
		return
	}
	response.OK(c, result)
}

// quizView is the client-facing quiz shape: correctness flags are withheld
// until submission.
type quizView struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Questions []questionView `json:"questions"`
}

type questionView struct {
	ID      uint         `json:"id"`
	Text    string       `json:"text"`
	Options []optionView `json:"options"`
}

type optionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func toQuizView(quiz *model.Quiz) quizView {
	view := quizView{ID: quiz.ID, Title: quiz.Title}
	for _, q := range quiz.Questions {
		qv := questionView{ID: q.ID, Text: q.QuestionText}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, optionView{ID: o.ID, Text: o.OptionText})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

func writeStudyError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrPermissionDenied):
		response.Error(c, http.StatusForbidden, response.CodePermissionDenied, err.Error())
	case errors.Is(err, app.ErrQuizNotFound):
		response.Error(c, http.StatusNotFound, response.CodeQuizNotFound, err.Error())
	case errors.Is(err, index.ErrNotFound):
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer,
			"document has not been processed yet")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
