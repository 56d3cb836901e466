package entity

import (
	"fmt"
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one turn of a conversation as kept by the UI layer.
type ChatMessage struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ChatTrace holds every intermediate value of one pipeline run.
type ChatTrace struct {
	Question       string `json:"question"`
	GeneratedQuery string `json:"generated_query"`
	GraphResult    string `json:"graph_result"`
	Evidence       string `json:"evidence"`
	Answer         string `json:"answer"`
}

// ChatExchange is the pair of messages stored for one user turn.
type ChatExchange struct {
	Question *ChatMessage `json:"question"`
	Answer   *ChatMessage `json:"answer"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Answer  string         `json:"answer"`
	History []*ChatMessage `json:"history"`
}

type StreamRequest struct {
	SystemPrompt string `json:"system_prompt"`
	Prompt       string `json:"prompt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ExportedFile is a rendered transcript ready for download.
type ExportedFile struct {
	Data        []byte
	ContentType string
	Filename    string
}

type HistoryResponse struct {
	History []*ChatMessage `json:"history"`
}

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

func (f ResultFormat) Validate() error {
	if !f.IsValid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return nil
}
