package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Chashkapluy1/ai-browser-agent/internal/config"
	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
	"github.com/Chashkapluy1/ai-browser-agent/internal/ports"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/apperr"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/logg"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	agentServiceName     = "AgentService"
	agentTracer          = "usecase.agent"
	maxConsecutiveErrors = 3
	iterationPause       = 500 * time.Millisecond
	errorBackoff         = 2 * time.Second
)

type AgentService struct {
	config   *config.Config
	logger   *zap.Logger
	browser  ports.BrowserManager
	ai       ports.AIClient
	tools    ports.ToolRegistry
	tracer   trace.Tracer
	stopChan chan struct{}
	running  bool
}

type AgentServiceParams struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Browser ports.BrowserManager
	AI      ports.AIClient
	Tools   ports.ToolRegistry
}

func NewAgentService(params AgentServiceParams) *AgentService {
	return &AgentService{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, agentServiceName)),
		browser:  params.Browser,
		ai:       params.AI,
		tools:    params.Tools,
		tracer:   otel.Tracer(agentTracer),
		stopChan: make(chan struct{}),
		running:  false,
	}
}

// Execute runs the observe-think-act loop for a single task. Each iteration
// the model sees the current page snapshot and either calls tools or answers
// in plain text, which completes the task.
func (s *AgentService) Execute(ctx context.Context, taskDescription string) (resp *entity.Task, err error) {
	const op = "Execute"
	logger := s.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("task_description", taskDescription))
	defer func() {
		step.End(err)
	}()

	if taskDescription == "" {
		return nil, apperr.InvalidReqError(op, "task_description", errors.New("task description cannot be empty"))
	}

	task := &entity.Task{
		ID:          uuid.New(),
		Description: taskDescription,
		Status:      entity.TaskStatusInProgress,
		CreatedAt:   time.Now(),
		Steps:       make([]entity.Step, 0),
	}

	logger = logger.With(zap.String(logg.TaskID, task.ID.String()))
	step.AddEvent("task created")

	if !s.browser.IsReady() {
		task.Status = entity.TaskStatusFailed
		task.Error = "browser is not ready"

		return task, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	messages := s.initialConversation(taskDescription)
	definitions := s.tools.Definitions()

	s.running = true
	s.stopChan = make(chan struct{})
	iteration := 0
	consecutiveErrors := 0

	for s.running && iteration < s.config.AIConfig.MaxIterations {
		select {
		case <-ctx.Done():
			fmt.Println("\n\n⚠️  Task cancelled")
			task.Status = entity.TaskStatusFailed
			task.Error = "context cancelled"

			return task, apperr.Wrap(op, apperr.CodeInternal, ctx.Err(), map[string]any{
				apperr.MetaReason: "context_cancelled",
			})
		case <-s.stopChan:
			fmt.Println("\n\n⚠️  Task stopped by user")
			task.Status = entity.TaskStatusFailed
			task.Error = "stopped by user"

			return task, apperr.WrapErrorWithReason(op, apperr.CodeCancelledByUser, "stopped_by_user")
		default:
		}

		iteration++
		fmt.Printf("\n🔄 Iteration %d/%d\n", iteration, s.config.AIConfig.MaxIterations)

		step.AddEvent("observing page")

		messages = append(messages, s.observe(ctx))
		messages = s.trimConversation(messages)

		step.AddEvent("sending conversation to AI")

		response, aiErr := s.ai.SendMessage(ctx, messages, definitions)
		if aiErr != nil {
			consecutiveErrors++

			var appErr *apperr.Error

			if errors.As(aiErr, &appErr) && appErr.Code == apperr.CodeContextReset {
				logger.Warn("Conversation rejected by the model, resetting context", zap.Error(aiErr))
				fmt.Println("♻️  Conversation reset, starting over with the same task")

				messages = s.initialConversation(taskDescription)

				continue
			}

			logger.Error("AI request failed", zap.Error(aiErr))

			if consecutiveErrors >= maxConsecutiveErrors {
				task.Status = entity.TaskStatusFailed
				task.Error = fmt.Sprintf("too many AI errors: %v", aiErr)

				return task, apperr.Wrap(op, apperr.CodeAIError, aiErr, map[string]any{
					apperr.MetaReason: "too_many_ai_errors",
					apperr.MetaStage:  apperr.StageAI,
				})
			}

			time.Sleep(errorBackoff)

			continue
		}

		messages = append(messages, response.Message)

		if response.Complete {
			fmt.Printf("✅ Task completed: %s\n", response.FinalText)
			task.Status = entity.TaskStatusCompleted
			task.Result = response.FinalText
			completedAt := time.Now()
			task.CompletedAt = &completedAt
			step.AddEvent("task completed")

			return task, nil
		}

		step.AddEvent("dispatching tool calls")

		allFailed := s.dispatchToolCalls(ctx, task, response.ToolCalls, &messages)
		if allFailed {
			consecutiveErrors++

			if consecutiveErrors >= maxConsecutiveErrors {
				task.Status = entity.TaskStatusFailed
				task.Error = "too many consecutive tool errors"

				return task, apperr.WrapErrorWithReason(op, apperr.CodeActionFailed, "too_many_tool_errors")
			}
		} else {
			consecutiveErrors = 0
		}

		time.Sleep(iterationPause)
	}

	if iteration >= s.config.AIConfig.MaxIterations {
		task.Status = entity.TaskStatusFailed
		task.Error = "max iterations reached"

		return task, apperr.WrapErrorWithReason(op, apperr.CodeMaxIterations, "max_iterations_reached")
	}

	task.Status = entity.TaskStatusFailed
	task.Error = "stopped by user"

	return task, apperr.WrapErrorWithReason(op, apperr.CodeCancelledByUser, "stopped_by_user")
}

func (s *AgentService) Stop() {
	const op = "Stop"
	logger := s.logger.With(zap.String(logg.Operation, op))
	logger.Info("Stopping agent...")

	if s.running {
		s.running = false
		close(s.stopChan)
	}
}
