package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chashkapluy1/ai-browser-agent/internal/dom"
	"github.com/Chashkapluy1/ai-browser-agent/internal/ports"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultScrollPixels  = 500
	defaultWaitTimeout   = 10000
	defaultSettleTimeout = 30000
)

type BrowserToolsParams struct {
	fx.In

	Logger  *zap.Logger
	Browser ports.BrowserManager
}

// NewBrowserRegistry builds the registry of page manipulation tools exposed
// to the model. Every element-addressed tool takes the data-ai-id label from
// the latest simplified DOM, never a raw CSS selector.
func NewBrowserRegistry(params BrowserToolsParams) (*Registry, error) {
	registry := NewRegistry(params.Logger)
	browser := params.Browser

	toolSet := []Tool{
		{
			Name:        "click_element",
			Description: "Click an interactive element by its data-ai-id label from the simplified DOM.",
			Parameters:  aiIDSchema(),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				aiID, err := requireAIID(args)
				if err != nil {
					return "", err
				}

				if err := browser.Click(ctx, dom.LabelSelector(aiID)); err != nil {
					return "", fmt.Errorf("element '%s' was not found or is not clickable", aiID)
				}

				return fmt.Sprintf("Clicked element '%s'.", aiID), nil
			},
		},
		{
			Name:        "type_text",
			Description: "Type text into an input or textarea identified by its data-ai-id label. Replaces the current value.",
			Parameters: objectSchema(map[string]any{
				"ai_id": stringProp("The data-ai-id label of the target element, e.g. 'ai-id-3'."),
				"text":  stringProp("The text to type into the element."),
			}, "ai_id", "text"),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				aiID, err := requireAIID(args)
				if err != nil {
					return "", err
				}

				text := args.String("text")

				if err := browser.Fill(ctx, dom.LabelSelector(aiID), text); err != nil {
					return "", fmt.Errorf("could not type into element '%s'", aiID)
				}

				return fmt.Sprintf("Typed %q into element '%s'.", text, aiID), nil
			},
		},
		{
			Name:        "navigate_to_url",
			Description: "Navigate the page to the given URL. The scheme may be omitted.",
			Parameters: objectSchema(map[string]any{
				"url": stringProp("The destination URL, e.g. 'https://example.com' or 'example.com'."),
			}, "url"),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				url := strings.TrimSpace(args.String("url"))
				if url == "" {
					return "", fmt.Errorf("'url' is required")
				}

				if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
					url = "https://" + url
				}

				if err := browser.Navigate(ctx, url); err != nil {
					return "", fmt.Errorf("navigation to %s failed", url)
				}

				return fmt.Sprintf("Navigated to %s.", url), nil
			},
		},
		{
			Name:        "scroll_page",
			Description: "Scroll the page. Direction is one of 'down', 'up', 'bottom', 'top'.",
			Parameters: objectSchema(map[string]any{
				"direction": map[string]any{
					"type":        "string",
					"enum":        []string{"down", "up", "bottom", "top"},
					"description": "Where to scroll. Defaults to 'down'.",
				},
				"pixels": map[string]any{
					"type":        "integer",
					"description": "How many pixels to scroll for 'down' and 'up'. Defaults to 500.",
				},
			}),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				direction := args.StringOr("direction", "down")
				pixels := args.IntOr("pixels", defaultScrollPixels)

				if err := browser.Scroll(ctx, direction, pixels); err != nil {
					return "", err
				}

				return fmt.Sprintf("Scrolled %s.", direction), nil
			},
		},
		{
			Name:        "get_element_text",
			Description: "Read the full visible text of an element by its data-ai-id label.",
			Parameters:  aiIDSchema(),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				aiID, err := requireAIID(args)
				if err != nil {
					return "", err
				}

				text, err := browser.GetElementText(ctx, dom.LabelSelector(aiID))
				if err != nil {
					return "", fmt.Errorf("element '%s' was not found", aiID)
				}

				if text == "" {
					return fmt.Sprintf("Element '%s' has no visible text.", aiID), nil
				}

				return text, nil
			},
		},
		{
			Name:        "wait_for_element",
			Description: "Wait until an element with the given data-ai-id label becomes visible.",
			Parameters: objectSchema(map[string]any{
				"ai_id": stringProp("The data-ai-id label of the element to wait for."),
				"timeout_ms": map[string]any{
					"type":        "integer",
					"description": "Maximum time to wait in milliseconds. Defaults to 10000.",
				},
			}, "ai_id"),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				aiID, err := requireAIID(args)
				if err != nil {
					return "", err
				}

				timeout := args.IntOr("timeout_ms", defaultWaitTimeout)

				if err := browser.WaitForSelector(ctx, dom.LabelSelector(aiID), timeout); err != nil {
					return "", fmt.Errorf("element '%s' did not appear within %dms", aiID, timeout)
				}

				return fmt.Sprintf("Element '%s' is visible.", aiID), nil
			},
		},
		{
			Name:        "press_key",
			Description: "Press a keyboard key on the focused element, e.g. 'Enter', 'Tab', 'Escape'.",
			Parameters: objectSchema(map[string]any{
				"key": stringProp("The key to press."),
			}, "key"),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				key := args.String("key")
				if key == "" {
					return "", fmt.Errorf("'key' is required")
				}

				if err := browser.Press(ctx, key); err != nil {
					return "", fmt.Errorf("could not press key '%s'", key)
				}

				return fmt.Sprintf("Pressed '%s'.", key), nil
			},
		},
		{
			Name:        "wait_for_navigation",
			Description: "Wait for the page to finish loading after an action that triggers navigation.",
			Parameters: objectSchema(map[string]any{
				"timeout_ms": map[string]any{
					"type":        "integer",
					"description": "Maximum time to wait in milliseconds. Defaults to 30000.",
				},
			}),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				timeout := args.IntOr("timeout_ms", defaultSettleTimeout)

				if err := browser.WaitForNavigation(ctx, timeout); err != nil {
					return fmt.Sprintf("Page did not settle within %dms, continuing anyway.", timeout), nil
				}

				return "Page finished loading.", nil
			},
		},
		{
			Name:        "close_popup_if_present",
			Description: "Try to close a cookie banner, modal or other popup overlaying the page.",
			Parameters:  objectSchema(map[string]any{}),
			Handler: func(ctx context.Context, args Arguments) (string, error) {
				selector, err := browser.ClosePopups(ctx)
				if err != nil {
					return "", err
				}

				if selector == "" {
					return "No popups found to close.", nil
				}

				return fmt.Sprintf("Closed a popup using selector '%s'.", selector), nil
			},
		},
	}

	for _, tool := range toolSet {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func requireAIID(args Arguments) (string, error) {
	aiID := strings.TrimSpace(args.String("ai_id"))
	if aiID == "" {
		return "", fmt.Errorf("'ai_id' is required")
	}

	return aiID, nil
}

func aiIDSchema() map[string]any {
	return objectSchema(map[string]any{
		"ai_id": stringProp("The data-ai-id label of the target element, e.g. 'ai-id-3'."),
	}, "ai_id")
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}
