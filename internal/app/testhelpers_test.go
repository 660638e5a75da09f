package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyai-backend/internal/ai"
	"studyai-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Flashcard{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuizOption{},
		&model.StudyActivity{},
	))
	return db
}

// fakeLLM returns canned responses in order and records every prompt.
type fakeLLM struct {
	responses []string
	calls     int
	prompts   [][]ai.ChatMessage
	err       error
}

func (f *fakeLLM) Complete(_ context.Context, messages []ai.ChatMessage, _ ai.GenerationParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, messages)
	response := ""
	if f.calls < len(f.responses) {
		response = f.responses[f.calls]
	} else if len(f.responses) > 0 {
		response = f.responses[len(f.responses)-1]
	}
	f.calls++
	return response, nil
}

// fakeEmbedder maps every text to the same unit vector, so retrieval always
// matches.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

// makeFileHeader builds a real multipart.FileHeader the way gin receives one.
func makeFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["document"]
	require.Len(t, files, 1)
	return files[0]
}
