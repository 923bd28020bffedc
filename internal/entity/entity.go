package entity

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID
	Description string
	Status      TaskStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	Steps       []Step
	Result      string
	Error       string
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

type Step struct {
	ID         uuid.UUID
	Tool       string
	Arguments  string
	Result     string
	Timestamp  time.Time
	Success    bool
	Error      string
	Screenshot string
}

// PageSummary is the combined snapshot of a live page: the labeled
// interactive elements plus a bounded visible-text preview.
type PageSummary struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	TextPreview   string `json:"text_preview"`
	SimplifiedDOM string `json:"simplified_dom"`
}

// ChatMessage is a provider-agnostic conversation entry. Content carries
// plain text; ToolCalls is set on assistant messages that requested tools;
// ToolCallID and Name are set on tool-result messages.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition describes a callable tool in JSON-schema form; provider
// mapping happens in the AI client.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type AIResponse struct {
	Message   ChatMessage
	ToolCalls []ToolCall
	// FinalText holds the assistant text when the model answered without
	// tool calls, which ends the task.
	FinalText string
	Complete  bool
}
