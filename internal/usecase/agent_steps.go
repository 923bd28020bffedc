package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/logg"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const observationTextLimit = 500

// initialConversation builds the fixed head of the dialogue. The head
// survives context trimming and conversation resets.
func (s *AgentService) initialConversation(taskDescription string) []entity.ChatMessage {
	return []entity.ChatMessage{
		{Role: entity.RoleSystem, Content: s.buildSystemPrompt()},
		{Role: entity.RoleUser, Content: fmt.Sprintf("Task: %s", taskDescription)},
	}
}

// observe captures the current page and renders it as a user message. A
// snapshot failure is reported to the model as text so it can recover by
// navigating or waiting instead of crashing the loop.
func (s *AgentService) observe(ctx context.Context) entity.ChatMessage {
	const op = "observe"
	logger := s.logger.With(zap.String(logg.Operation, op))

	summary, err := s.browser.Snapshot(ctx)
	if err != nil {
		logger.Warn("Page snapshot failed", zap.Error(err))

		return entity.ChatMessage{
			Role:    entity.RoleUser,
			Content: fmt.Sprintf("Could not read the current page: %v. Navigate somewhere or wait and try again.", err),
		}
	}

	preview := summary.TextPreview
	if len([]rune(preview)) > observationTextLimit {
		preview = string([]rune(preview)[:observationTextLimit])
	}

	var sb strings.Builder

	sb.WriteString("Current page state:\n")
	sb.WriteString(fmt.Sprintf("URL: %s\n", summary.URL))
	sb.WriteString(fmt.Sprintf("Title: %s\n\n", summary.Title))
	sb.WriteString("Visible text (beginning):\n")
	sb.WriteString(preview)
	sb.WriteString("\n\nInteractive elements:\n")
	sb.WriteString(summary.SimplifiedDOM)

	return entity.ChatMessage{
		Role:    entity.RoleUser,
		Content: sb.String(),
	}
}

// trimConversation bounds the dialogue to the configured window, always
// keeping the system prompt and the task message at the head.
func (s *AgentService) trimConversation(messages []entity.ChatMessage) []entity.ChatMessage {
	limit := s.config.AIConfig.MaxContextMessages
	if limit <= 0 || len(messages) <= limit {
		return messages
	}

	const headSize = 2

	tail := messages[len(messages)-(limit-headSize):]

	// Never let the window start with orphaned tool results: the API
	// rejects a tool message whose assistant call was trimmed away.
	for len(tail) > 0 && tail[0].Role == entity.RoleTool {
		tail = tail[1:]
	}

	trimmed := make([]entity.ChatMessage, 0, headSize+len(tail))
	trimmed = append(trimmed, messages[:headSize]...)
	trimmed = append(trimmed, tail...)

	return trimmed
}

// dispatchToolCalls executes every tool call from the assistant turn,
// records a step per call and appends the tool results to the dialogue.
// Returns true when every call in the batch failed.
func (s *AgentService) dispatchToolCalls(
	ctx context.Context,
	task *entity.Task,
	calls []entity.ToolCall,
	messages *[]entity.ChatMessage,
) bool {
	if len(calls) == 0 {
		return false
	}

	failures := 0

	for _, call := range calls {
		fmt.Printf("🎬 %s(%s)\n", call.Name, call.Arguments)

		result := s.tools.Call(ctx, call.Name, call.Arguments)
		failed := isToolFailure(result)

		taskStep := entity.Step{
			ID:        uuid.New(),
			Tool:      call.Name,
			Arguments: call.Arguments,
			Result:    result,
			Timestamp: time.Now(),
			Success:   !failed,
		}

		if failed {
			failures++
			taskStep.Error = result
			taskStep.Screenshot = s.captureFailureScreenshot(ctx, task.ID, len(task.Steps))
			fmt.Printf("❌ %s\n", result)
		} else {
			fmt.Printf("✔️  %s\n", result)
		}

		task.Steps = append(task.Steps, taskStep)

		*messages = append(*messages, entity.ChatMessage{
			Role:       entity.RoleTool,
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    result,
		})
	}

	return failures == len(calls)
}

func isToolFailure(result string) bool {
	return strings.HasPrefix(result, "Error")
}

// captureFailureScreenshot saves a screenshot next to the failed step when
// screenshots are enabled. Returns the file path or "" on any problem.
func (s *AgentService) captureFailureScreenshot(ctx context.Context, taskID uuid.UUID, stepIndex int) string {
	if !s.config.BrowserConfig.UseScreenshots {
		return ""
	}

	path := filepath.Join(s.config.BrowserConfig.ScreenshotDir,
		fmt.Sprintf("%s-step-%d.jpg", taskID.String(), stepIndex))

	if err := s.browser.Screenshot(ctx, path); err != nil {
		s.logger.Warn("Failed to capture failure screenshot", zap.Error(err))

		return ""
	}

	return path
}

func (s *AgentService) buildSystemPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("You are a browser automation agent. You control a real browser through tools.\n\n")

	prompt.WriteString(`Before every one of your turns you receive the current page state:
- the page URL and title,
- the beginning of the visible text,
- the interactive elements, each labeled with a data-ai-id like 'ai-id-3'.

RULES:
1. Address elements ONLY by their data-ai-id label from the latest page state. Labels change after every observation, never reuse old ones.
2. Work step by step: one or two tool calls per turn, then look at the fresh page state.
3. If an action fails, do not repeat it verbatim. Close popups, scroll, or pick another element.
4. Search inputs usually need press_key with 'Enter' after type_text.
5. When the task is done, answer in plain text without tool calls: that final answer is the task result. Only finish when the page state proves success.`)

	prompt.WriteString(fmt.Sprintf("\n\nYou have at most %d turns.", s.config.AIConfig.MaxIterations))

	return prompt.String()
}
