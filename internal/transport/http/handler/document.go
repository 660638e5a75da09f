package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyai-backend/internal/app"
	"studyai-backend/internal/docloader"
	"studyai-backend/internal/transport/http/response"
)

type DocumentHandler struct {
	docService *app.DocumentService
	maxUpload  int64
}

func NewDocumentHandler(docService *app.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		maxUpload:  maxUpload,
	}
}

// Upload accepts a multipart form with a "document" file and a "title"
// field, stores the file, and processes it into a vector index. The
// document row survives a processing failure.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing document file")
		return
	}
	if file.Size > h.maxUpload {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest,
			fmt.Sprintf("file too large (max %dMB)", h.maxUpload>>20))
		return
	}

	doc, err := h.docService.Upload(c.Request.Context(), app.UploadInput{
		UserID: userID,
		Title:  c.PostForm("title"),
		File:   file,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file or title")
		case errors.Is(err, docloader.ErrUnsupportedType):
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "unsupported file type")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeProcessingFailed, "error processing file")
		}
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docs, err := h.docService.List(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
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

	doc, err := h.docService.Get(userID, docID)
	if err != nil {
		writeDocumentError(c, err, "fetch document failed")
		return
	}
	response.OK(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
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

	if err := h.docService.Delete(c.Request.Context(), userID, docID); err != nil {
		writeDocumentError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": docID})
}

// writeDocumentError maps the document-scoped error taxonomy onto the wire:
// ownership failures are always 403, unknown ids 404.
func writeDocumentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrPermissionDenied):
		response.Error(c, http.StatusForbidden, response.CodePermissionDenied, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
