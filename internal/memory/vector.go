package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-insights/internal/ai"
)

// DefaultTopK is the number of memories returned by a search when none is set.
const DefaultTopK = 3

// Entry is one embedded memory.
type Entry struct {
	ID        string
	Vector    []float32
	Text      string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Hit is a search result.
type Hit struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// VectorStore is an append-only list of embedded texts searched by cosine
// similarity.
type VectorStore struct {
	embedder ai.Embedder
	entries  []Entry
}

// NewVectorStore creates an empty store using embedder for texts and queries.
func NewVectorStore(embedder ai.Embedder) *VectorStore {
	return &VectorStore{embedder: embedder}
}

// Add embeds text and stores it.
func (v *VectorStore) Add(ctx context.Context, text string, metadata map[string]string) error {
	vec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed memory: %w", err)
	}
	v.entries = append(v.entries, Entry{
		ID:        uuid.NewString(),
		Vector:    vec,
		Text:      text,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
	return nil
}

// Len returns the number of stored entries.
func (v *VectorStore) Len() int { return len(v.entries) }

// Search returns up to k stored texts ordered by descending similarity to
// query. Equal scores keep insertion order. Entries that cannot be compared
// with the query (zero or mismatched vectors) are skipped.
func (v *VectorStore) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(v.entries) == 0 {
		return nil, nil
	}

	qv, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits := make([]Hit, 0, len(v.entries))
	for _, e := range v.entries {
		score, err := CosineSimilarity(qv, e.Vector)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Text: e.Text, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// CosineSimilarity computes cosine similarity for two vectors.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine similarity: empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: vector dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cosine similarity: zero vector norm")
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return max(-1, min(1, score)), nil
}
