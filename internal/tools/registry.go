package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/logg"

	"go.uber.org/zap"
)

const registryName = "ToolRegistry"

// Arguments holds the decoded JSON arguments of a tool call.
type Arguments map[string]any

func (a Arguments) String(key string) string {
	v, _ := a[key].(string)

	return v
}

func (a Arguments) StringOr(key, fallback string) string {
	if v, ok := a[key].(string); ok && v != "" {
		return v
	}

	return fallback
}

// IntOr reads a numeric argument. JSON numbers decode as float64.
func (a Arguments) IntOr(key string, fallback int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

type Handler func(ctx context.Context, args Arguments) (string, error)

type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry keeps the tools in registration order so the definitions sent
// to the model are stable between iterations.
type Registry struct {
	logger *zap.Logger
	tools  []Tool
	byName map[string]int
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger: logger.With(zap.String(logg.Layer, registryName)),
		byName: make(map[string]int),
	}
}

func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" || tool.Handler == nil {
		return fmt.Errorf("tool must have a name and a handler")
	}

	if _, exists := r.byName[tool.Name]; exists {
		return fmt.Errorf("tool %q is already registered", tool.Name)
	}

	r.byName[tool.Name] = len(r.tools)
	r.tools = append(r.tools, tool)

	return nil
}

func (r *Registry) Definitions() []entity.ToolDefinition {
	defs := make([]entity.ToolDefinition, len(r.tools))

	for i, tool := range r.tools {
		defs[i] = entity.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		}
	}

	return defs
}

// Call dispatches a tool call and always returns a model-facing result
// string: failures become readable error strings the model can react to,
// never Go errors that would abort the agent loop.
func (r *Registry) Call(ctx context.Context, name string, arguments string) string {
	logger := r.logger.With(zap.String(logg.Tool, name))

	idx, ok := r.byName[name]
	if !ok {
		logger.Warn("Unknown tool requested")

		return fmt.Sprintf("Error: unknown tool '%s'.", name)
	}

	args := Arguments{}

	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			logger.Warn("Invalid tool arguments", zap.Error(err))

			return fmt.Sprintf("Error: invalid JSON arguments for '%s': %v.", name, err)
		}
	}

	logger.Info("Executing tool", zap.String("arguments", arguments))

	result, err := r.tools[idx].Handler(ctx, args)
	if err != nil {
		logger.Warn("Tool failed", zap.Error(err))

		return fmt.Sprintf("Error executing tool '%s': %v.", name, err)
	}

	return result
}
