package ai

import (
	"testing"

	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOpenAIMessagesRoundTripsToolFields(t *testing.T) {
	messages := []entity.ChatMessage{
		{Role: entity.RoleSystem, Content: "prompt"},
		{
			Role:    entity.RoleAssistant,
			Content: "thinking",
			ToolCalls: []entity.ToolCall{
				{ID: "call-1", Name: "click_element", Arguments: `{"ai_id":"ai-id-0"}`},
			},
		},
		{Role: entity.RoleTool, ToolCallID: "call-1", Name: "click_element", Content: "clicked"},
	}

	converted := toOpenAIMessages(messages)
	require.Len(t, converted, 3)

	assert.Equal(t, openai.ChatMessageRoleSystem, converted[0].Role)

	require.Len(t, converted[1].ToolCalls, 1)
	assert.Equal(t, "call-1", converted[1].ToolCalls[0].ID)
	assert.Equal(t, openai.ToolTypeFunction, converted[1].ToolCalls[0].Type)
	assert.Equal(t, "click_element", converted[1].ToolCalls[0].Function.Name)

	assert.Equal(t, "call-1", converted[2].ToolCallID)
	assert.Equal(t, "clicked", converted[2].Content)
}

func TestToOpenAITools(t *testing.T) {
	defs := []entity.ToolDefinition{
		{
			Name:        "navigate_to_url",
			Description: "Open a URL",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string"},
				},
				"required": []string{"url"},
			},
		},
	}

	tools := toOpenAITools(defs)
	require.Len(t, tools, 1)

	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "navigate_to_url", tools[0].Function.Name)

	assert.Nil(t, toOpenAITools(nil))
}

func TestParseCompletionWithToolCalls(t *testing.T) {
	completion := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: "",
				ToolCalls: []openai.ToolCall{{
					ID:   "call-9",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "type_text",
						Arguments: `{"ai_id":"ai-id-3","text":"hello"}`,
					},
				}},
			},
		}},
	}

	resp := parseCompletion(completion)

	assert.False(t, resp.Complete)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "type_text", resp.ToolCalls[0].Name)
	assert.Equal(t, resp.ToolCalls, resp.Message.ToolCalls)
}

func TestParseCompletionFinalAnswer(t *testing.T) {
	completion := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: "Task finished: found 3 vacancies.",
			},
		}},
	}

	resp := parseCompletion(completion)

	assert.True(t, resp.Complete)
	assert.Equal(t, "Task finished: found 3 vacancies.", resp.FinalText)
	assert.Empty(t, resp.ToolCalls)
}
