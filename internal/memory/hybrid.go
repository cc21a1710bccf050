package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-insights/internal/ai"
)

// Config sizes the memory layers.
type Config struct {
	MaxTurns       int
	SummarizeEvery int
	TopK           int
}

// Hybrid layers a rolling summary and vector recall over the turn buffer.
type Hybrid struct {
	buffer  *Buffer
	summary *Summary
	vectors *VectorStore
	topK    int
}

// NewHybrid wires the three layers. summarize and embedder are the external
// collaborators; a nil summarize keeps the placeholder summary.
func NewHybrid(cfg Config, summarize SummarizeFunc, embedder ai.Embedder) *Hybrid {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Hybrid{
		buffer:  NewBuffer(cfg.MaxTurns),
		summary: NewSummary(cfg.SummarizeEvery, summarize),
		vectors: NewVectorStore(embedder),
		topK:    topK,
	}
}

// Update records a turn in every layer. Only user turns are embedded.
func (h *Hybrid) Update(ctx context.Context, role, content string) {
	h.buffer.Add(role, content)
	h.summary.Update(ctx, h.buffer.Transcript())
	if role != RoleUser {
		return
	}
	if err := h.vectors.Add(ctx, content, map[string]string{"role": role}); err != nil {
		slog.Warn("vector memory add failed", "error", err)
	}
}

// Context assembles the prompt context: summary, recent turns, and, when
// query is set, the most relevant past user messages.
func (h *Hybrid) Context(ctx context.Context, query string) string {
	parts := []string{
		h.summary.Context(),
		"--- Recent Conversation ---",
		h.buffer.Transcript(),
	}

	if query != "" {
		hits, err := h.vectors.Search(ctx, query, h.topK)
		if err != nil {
			slog.Warn("vector memory search failed", "error", err)
		}
		if len(hits) > 0 {
			parts = append(parts, "--- Relevant Memory ---")
			for _, hit := range hits {
				parts = append(parts, hit.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// Buffer returns the turn buffer.
func (h *Hybrid) Buffer() *Buffer { return h.buffer }

// Summary returns the rolling summary.
func (h *Hybrid) Summary() *Summary { return h.summary }

// Vectors returns the semantic store.
func (h *Hybrid) Vectors() *VectorStore { return h.vectors }
