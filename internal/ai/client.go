package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/Chashkapluy1/ai-browser-agent/internal/config"
	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/apperr"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/logg"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/tracing"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	aiClientName = "AIClient"
	aiTracer     = "ai.client"
)

type Client struct {
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
	api    *openai.Client
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewClient(params Params) *Client {
	return &Client{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, aiClientName)),
		tracer: otel.Tracer(aiTracer),
		api:    openai.NewClient(params.Config.AIConfig.APIKey),
	}
}

func (c *Client) SendMessage(ctx context.Context, messages []entity.ChatMessage, tools []entity.ToolDefinition) (resp *entity.AIResponse, err error) {
	const op = "SendMessage"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op,
		attribute.Int("messages_count", len(messages)))
	defer func() {
		step.End(err)
	}()

	logger.Debug("Sending message to AI", zap.Int("messages_count", len(messages)))

	req := openai.ChatCompletionRequest{
		Model:    c.config.AIConfig.Model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(tools),
	}

	step.AddEvent("sending completion request")

	completion, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError

		// A 400 usually means the conversation structure went bad (e.g.
		// a dangling tool call); the agent resets and restarts on this code.
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusBadRequest {
			return nil, apperr.Wrap(op, apperr.CodeContextReset, err, map[string]any{
				apperr.MetaReason: "malformed_conversation",
				apperr.MetaStage:  apperr.StageAI,
			})
		}

		return nil, apperr.Wrap(op, apperr.CodeAIError, err, map[string]any{
			apperr.MetaReason: "completion_failed",
			apperr.MetaStage:  apperr.StageAI,
		})
	}

	if len(completion.Choices) == 0 {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeAIError, "empty_choices")
	}

	step.AddEvent("parsing completion")

	return parseCompletion(completion), nil
}

func toOpenAIMessages(messages []entity.ChatMessage) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, len(messages))

	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
			ToolCalls:  toOpenAIToolCalls(msg.ToolCalls),
		}
	}

	return converted
}

func toOpenAIToolCalls(calls []entity.ToolCall) []openai.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	converted := make([]openai.ToolCall, len(calls))

	for i, call := range calls {
		converted[i] = openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		}
	}

	return converted
}

func toOpenAITools(defs []entity.ToolDefinition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}

	tools := make([]openai.Tool, len(defs))

	for i, def := range defs {
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return tools
}

func parseCompletion(completion openai.ChatCompletionResponse) *entity.AIResponse {
	message := completion.Choices[0].Message

	toolCalls := make([]entity.ToolCall, 0, len(message.ToolCalls))

	for _, call := range message.ToolCalls {
		if call.Type != openai.ToolTypeFunction {
			continue
		}

		toolCalls = append(toolCalls, entity.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	resp := &entity.AIResponse{
		Message: entity.ChatMessage{
			Role:      entity.RoleAssistant,
			Content:   message.Content,
			ToolCalls: toolCalls,
		},
		ToolCalls: toolCalls,
	}

	if len(toolCalls) == 0 {
		resp.Complete = true
		resp.FinalText = message.Content
	}

	return resp
}
