package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studyai-backend/internal/docloader"
)

// Embedder maps texts to fixed-size vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder chunks loaded document segments, embeds every chunk, and produces
// the index to persist.
type Builder struct {
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
	batchSize    int
}

func NewBuilder(embedder Embedder, chunkSize, chunkOverlap, batchSize int) *Builder {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Builder{
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		batchSize:    batchSize,
	}
}

// Build chunks every segment and embeds the chunks in batches.
func (b *Builder) Build(ctx context.Context, segments []docloader.Segment) (*Index, error) {
	var entries []Entry
	var texts []string
	for _, seg := range segments {
		for _, chunk := range Chunk(seg.Text, b.chunkSize, b.chunkOverlap) {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			entries = append(entries, Entry{
				Text:   chunk,
				Source: seg.Source,
				Page:   seg.Page,
			})
			texts = append(texts, chunk)
		}
	}
	if len(entries) == 0 {
		return nil, errors.New("document has no extractable text")
	}

	// embedding APIs commonly cap batch input size
	var embeddings [][]float32
	for i := 0; i < len(texts); i += b.batchSize {
		end := i + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := b.embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks failed: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(entries) {
		return nil, errors.New("embedding count mismatch")
	}

	for i := range entries {
		entries[i].Embedding = embeddings[i]
	}
	return &Index{Entries: entries}, nil
}
