package ports

import (
	"context"

	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
)

type BrowserManager interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error

	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector string, value string) error
	Press(ctx context.Context, key string) error
	Scroll(ctx context.Context, direction string, pixels int) error
	WaitForSelector(ctx context.Context, selector string, timeout int) error
	WaitForNavigation(ctx context.Context, timeout int) error
	GetElementText(ctx context.Context, selector string) (string, error)
	ClosePopups(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error

	SimplifiedDOM(ctx context.Context) (string, error)
	PageText(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (*entity.PageSummary, error)

	URL() string
	IsReady() bool
}

type AIClient interface {
	SendMessage(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolDefinition) (*entity.AIResponse, error)
}

type ToolRegistry interface {
	Definitions() []entity.ToolDefinition
	Call(ctx context.Context, name string, arguments string) string
}
