package docloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studyai-backend/internal/pkg/pdfextract"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Segment is one raw text unit of a loaded document: a page for PDFs, the
// whole file for plain text and markdown.
type Segment struct {
	Text   string
	Source string
	Page   int
}

// Load reads the file at path and splits it into text segments by extension.
// Unrecognized extensions fail with ErrUnsupportedType.
func Load(path string) ([]Segment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	source := filepath.Base(path)

	switch ext {
	case ".pdf":
		return loadPDF(path, source)
	case ".txt", ".md":
		return loadText(path, source)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

func loadPDF(path, source string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	pages, err := pdfextract.ExtractPages(f)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text failed: %w", err)
	}

	segments := make([]Segment, 0, len(pages))
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:   text,
			Source: source,
			Page:   i + 1,
		})
	}
	return segments, nil
}

func loadText(path, source string) ([]Segment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file failed: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, nil
	}
	return []Segment{{Text: string(b), Source: source, Page: 1}}, nil
}
