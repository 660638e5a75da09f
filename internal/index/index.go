package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// ErrNotFound means no index has been built at the requested location, i.e.
// the document was never successfully processed.
var ErrNotFound = errors.New("vector index not found")

const indexFileName = "index.json"

// Entry is one embedded chunk: the text span, where it came from, and its
// embedding vector.
type Entry struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Page      int       `json:"page"`
	Embedding []float32 `json:"embedding"`
}

// Index is the persisted retrieval structure for a single document.
type Index struct {
	Entries []Entry `json:"entries"`
}

// Path returns the deterministic index directory for a document, keyed by
// owner id and relational document id.
func Path(dataRoot string, userID, documentID uint) string {
	return filepath.Join(dataRoot,
		strconv.FormatUint(uint64(userID), 10),
		strconv.FormatUint(uint64(documentID), 10),
	)
}

// Save writes the index under dir, creating the directory if absent and
// overwriting any prior index in place.
func Save(dir string, idx *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory failed: %w", err)
	}
	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexFileName), payload, 0o644); err != nil {
		return fmt.Errorf("write index file failed: %w", err)
	}
	return nil
}

// Load reads a previously saved index from dir. Returns ErrNotFound when the
// index file does not exist.
func Load(dir string) (*Index, error) {
	raw, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read index file failed: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("parse index file failed: %w", err)
	}
	return &idx, nil
}

// Remove deletes the index directory; missing directories are not an error.
func Remove(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove index directory failed: %w", err)
	}
	return nil
}

// Search returns up to k entries most similar to the query vector, in
// descending cosine-similarity order. No relevance threshold is applied.
func (ix *Index) Search(query []float32, k int) []Entry {
	if k <= 0 || len(ix.Entries) == 0 {
		return nil
	}

	type scored struct {
		entry Entry
		score float32
	}
	results := make([]scored, len(ix.Entries))
	for i := range ix.Entries {
		results[i] = scored{
			entry: ix.Entries[i],
			score: cosineSimilarity(query, ix.Entries[i].Embedding),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	top := make([]Entry, k)
	for i := 0; i < k; i++ {
		top[i] = results[i].entry
	}
	return top
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
