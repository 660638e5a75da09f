package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"studyai-backend/internal/docloader"
	"studyai-backend/internal/index"
	"studyai-backend/internal/model"
	"studyai-backend/internal/pkg/keymutex"
	"studyai-backend/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPermissionDenied = errors.New("you do not have permission to access this document")
)

type DocumentService struct {
	docRepo    *repository.DocumentRepository
	builder    *index.Builder
	locks      *keymutex.KeyMutex
	answers    AnswerCache
	activities ActivityPublisher
	uploadRoot string
	dataRoot   string
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	builder *index.Builder,
	locks *keymutex.KeyMutex,
	answers AnswerCache,
	activities ActivityPublisher,
	uploadRoot, dataRoot string,
) *DocumentService {
	return &DocumentService{
		docRepo:    docRepo,
		builder:    builder,
		locks:      locks,
		answers:    answers,
		activities: activities,
		uploadRoot: uploadRoot,
		dataRoot:   dataRoot,
	}
}

type UploadInput struct {
	UserID uint
	Title  string
	File   *multipart.FileHeader
}

// Upload stores the file under <upload_root>/<user_id>/<uuid>/<filename>,
// creates the document row, then builds the vector index. The row is kept
// even when indexing fails; the error is returned alongside the document so
// the caller can surface it.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	title := strings.TrimSpace(input.Title)
	if input.UserID == 0 || title == "" || input.File == nil {
		return nil, ErrInvalidInput
	}

	filename := sanitizeFilename(input.File.Filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}

	docDir := filepath.Join(s.uploadRoot, strconv.FormatUint(uint64(input.UserID), 10), uuid.NewString())
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory failed: %w", err)
	}

	filePath := filepath.Join(docDir, filename)
	if err := saveUploadedFile(input.File, filePath); err != nil {
		return nil, err
	}

	doc := &model.Document{
		UserID:      input.UserID,
		Title:       title,
		Filename:    filename,
		FilePath:    filePath,
		ContentType: input.File.Header.Get("Content-Type"),
	}
	if err := s.docRepo.Create(doc); err != nil {
		// no row means nothing references the stored file
		_ = os.RemoveAll(docDir)
		return nil, err
	}

	publishActivity(ctx, s.activities, model.StudyActivity{
		UserID:     input.UserID,
		DocumentID: doc.ID,
		Action:     model.ActivityDocumentUploaded,
		Detail:     filename,
	})

	if err := s.Process(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// Process loads the stored file, chunks and embeds it, and writes the vector
// index at the deterministic per-document path, replacing any prior index.
// Held under the document's lock so a rebuild never interleaves with a query
// against the same index directory.
func (s *DocumentService) Process(ctx context.Context, doc *model.Document) error {
	key := docKey(doc.ID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	segments, err := docloader.Load(doc.FilePath)
	if err != nil {
		return err
	}

	idx, err := s.builder.Build(ctx, segments)
	if err != nil {
		return err
	}

	if err := index.Save(index.Path(s.dataRoot, doc.UserID, doc.ID), idx); err != nil {
		return err
	}

	if s.answers != nil {
		if err := s.answers.Invalidate(ctx, doc.ID); err != nil {
			log.Printf("invalidate answer cache for document %d failed: %v", doc.ID, err)
		}
	}
	return nil
}

// Get returns the document after checking ownership.
func (s *DocumentService) Get(userID, documentID uint) (*model.Document, error) {
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

func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByUserID(userID)
}

// Delete removes the document row with its flashcards and quiz, then the
// index directory and the uploaded file.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID uint) error {
	doc, err := s.Get(userID, documentID)
	if err != nil {
		return err
	}

	key := docKey(doc.ID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if err := s.docRepo.DeleteCascade(doc.ID); err != nil {
		return err
	}
	if err := index.Remove(index.Path(s.dataRoot, doc.UserID, doc.ID)); err != nil {
		log.Printf("remove index for document %d failed: %v", doc.ID, err)
	}
	if err := os.RemoveAll(filepath.Dir(doc.FilePath)); err != nil {
		log.Printf("remove uploaded file for document %d failed: %v", doc.ID, err)
	}
	if s.answers != nil {
		if err := s.answers.Invalidate(ctx, doc.ID); err != nil {
			log.Printf("invalidate answer cache for document %d failed: %v", doc.ID, err)
		}
	}

	publishActivity(ctx, s.activities, model.StudyActivity{
		UserID:     userID,
		DocumentID: doc.ID,
		Action:     model.ActivityDocumentDeleted,
		Detail:     doc.Filename,
	})
	return nil
}

func saveUploadedFile(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file failed: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create stored file failed: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write stored file failed: %w", err)
	}
	return nil
}

// sanitizeFilename keeps only the base name and replaces anything outside
// [A-Za-z0-9._-], so the stored path never escapes the upload directory.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" || cleaned == "_" {
		return ""
	}
	return cleaned
}
