// Package ai drafts curriculum documents through an OpenAI-compatible
// chat-completion API.
package ai

import "context"

// TaskType identifies the kind of document being drafted.
type TaskType int

const (
	TaskLessonPlan TaskType = iota
	TaskWorksheet
	TaskAssessment
	TaskNarrative
)

func (t TaskType) String() string {
	switch t {
	case TaskLessonPlan:
		return "lesson_plan"
	case TaskWorksheet:
		return "worksheet"
	case TaskAssessment:
		return "assessment"
	case TaskNarrative:
		return "narrative"
	default:
		return "unknown"
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a completion call.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// CompletionResponse is the output of a completion call.
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

// Provider is a chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
