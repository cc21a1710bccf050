// Package ai provides a provider-agnostic text-completion and embedding
// gateway with an ordered fallback chain.
package ai

import (
	"context"
	"strings"
)

// TaskType labels a completion for logging and model selection.
type TaskType int

const (
	TaskChat TaskType = iota
	TaskSummary
	TaskIntervention
	TaskQuiz
)

func (t TaskType) String() string {
	switch t {
	case TaskChat:
		return "chat"
	case TaskSummary:
		return "summary"
	case TaskIntervention:
		return "intervention"
	case TaskQuiz:
		return "quiz"
	default:
		return "unknown"
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`

	// JSON asks providers that support it for a JSON object reply.
	JSON bool `json:"json,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Completer is the narrow view of a completion service that callers depend on.
// *Router and every Provider satisfy it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Completer
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Ask sends a single system and user prompt and returns the trimmed reply.
// An empty reply is reported as ErrEmptyReply.
func Ask(ctx context.Context, c Completer, task TaskType, system, prompt string) (string, error) {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, Message{Role: "system", Content: system})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})

	resp, err := c.Complete(ctx, CompletionRequest{Messages: msgs, Task: task})
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
