package adapters

import (
	"context"

	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
)

// BrowserService is the browser surface the console layer consumes:
// lifecycle plus the standalone page inspection operations.
type BrowserService interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	SimplifiedDOM(ctx context.Context) (string, error)
	PageText(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (*entity.PageSummary, error)
	URL() string
	IsReady() bool
}

type AIService interface {
	SendMessage(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolDefinition) (*entity.AIResponse, error)
}

type AgentService interface {
	Execute(ctx context.Context, taskDescription string) (*entity.Task, error)
	Stop()
}
