package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type browserCall struct {
	method string
	args   []any
}

type stubBrowser struct {
	calls         []browserCall
	failClick     bool
	popupSelector string
	elementText   string
}

func (b *stubBrowser) record(method string, args ...any) {
	b.calls = append(b.calls, browserCall{method: method, args: args})
}

func (b *stubBrowser) Launch(ctx context.Context) error { b.record("Launch"); return nil }
func (b *stubBrowser) Close(ctx context.Context) error  { b.record("Close"); return nil }

func (b *stubBrowser) Navigate(ctx context.Context, url string) error {
	b.record("Navigate", url)

	return nil
}

func (b *stubBrowser) Click(ctx context.Context, selector string) error {
	b.record("Click", selector)

	if b.failClick {
		return fmt.Errorf("click timeout")
	}

	return nil
}

func (b *stubBrowser) Fill(ctx context.Context, selector string, value string) error {
	b.record("Fill", selector, value)

	return nil
}

func (b *stubBrowser) Press(ctx context.Context, key string) error {
	b.record("Press", key)

	return nil
}

func (b *stubBrowser) Scroll(ctx context.Context, direction string, pixels int) error {
	b.record("Scroll", direction, pixels)

	return nil
}

func (b *stubBrowser) WaitForSelector(ctx context.Context, selector string, timeout int) error {
	b.record("WaitForSelector", selector, timeout)

	return nil
}

func (b *stubBrowser) WaitForNavigation(ctx context.Context, timeout int) error {
	b.record("WaitForNavigation", timeout)

	return nil
}

func (b *stubBrowser) GetElementText(ctx context.Context, selector string) (string, error) {
	b.record("GetElementText", selector)

	return b.elementText, nil
}

func (b *stubBrowser) ClosePopups(ctx context.Context) (string, error) {
	b.record("ClosePopups")

	return b.popupSelector, nil
}

func (b *stubBrowser) Screenshot(ctx context.Context, path string) error {
	b.record("Screenshot", path)

	return nil
}

func (b *stubBrowser) SimplifiedDOM(ctx context.Context) (string, error) { return "", nil }
func (b *stubBrowser) PageText(ctx context.Context) (string, error)      { return "", nil }

func (b *stubBrowser) Snapshot(ctx context.Context) (*entity.PageSummary, error) {
	return &entity.PageSummary{}, nil
}

func (b *stubBrowser) URL() string   { return "https://example.com" }
func (b *stubBrowser) IsReady() bool { return true }

func (b *stubBrowser) lastCall(t *testing.T) browserCall {
	t.Helper()
	require.NotEmpty(t, b.calls)

	return b.calls[len(b.calls)-1]
}

func newTestRegistry(t *testing.T) (*Registry, *stubBrowser) {
	t.Helper()

	browser := &stubBrowser{}

	registry, err := NewBrowserRegistry(BrowserToolsParams{
		Logger:  zap.NewNop(),
		Browser: browser,
	})
	require.NoError(t, err)

	return registry, browser
}

func TestDefinitionsAreOrderedAndComplete(t *testing.T) {
	registry, _ := newTestRegistry(t)

	defs := registry.Definitions()

	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}

	assert.Equal(t, []string{
		"click_element",
		"type_text",
		"navigate_to_url",
		"scroll_page",
		"get_element_text",
		"wait_for_element",
		"press_key",
		"wait_for_navigation",
		"close_popup_if_present",
	}, names)

	for _, def := range defs {
		assert.NotEmpty(t, def.Description, def.Name)
		assert.Equal(t, "object", def.Parameters["type"], def.Name)
	}
}

func TestClickElementBuildsLabelSelector(t *testing.T) {
	registry, browser := newTestRegistry(t)

	result := registry.Call(context.Background(), "click_element", `{"ai_id":"ai-id-4"}`)

	assert.Equal(t, "Clicked element 'ai-id-4'.", result)

	call := browser.lastCall(t)
	assert.Equal(t, "Click", call.method)
	assert.Equal(t, `[data-ai-id="ai-id-4"]`, call.args[0])
}

func TestClickElementFailureBecomesResultString(t *testing.T) {
	registry, browser := newTestRegistry(t)
	browser.failClick = true

	result := registry.Call(context.Background(), "click_element", `{"ai_id":"ai-id-1"}`)

	assert.Contains(t, result, "Error executing tool 'click_element'")
	assert.Contains(t, result, "ai-id-1")
}

func TestClickElementRequiresAIID(t *testing.T) {
	registry, browser := newTestRegistry(t)

	result := registry.Call(context.Background(), "click_element", `{}`)

	assert.Contains(t, result, "'ai_id' is required")
	assert.Empty(t, browser.calls)
}

func TestTypeTextFillsElement(t *testing.T) {
	registry, browser := newTestRegistry(t)

	result := registry.Call(context.Background(), "type_text",
		`{"ai_id":"ai-id-2","text":"golang jobs"}`)

	assert.Contains(t, result, "golang jobs")

	call := browser.lastCall(t)
	assert.Equal(t, "Fill", call.method)
	assert.Equal(t, `[data-ai-id="ai-id-2"]`, call.args[0])
	assert.Equal(t, "golang jobs", call.args[1])
}

func TestNavigatePrependsScheme(t *testing.T) {
	registry, browser := newTestRegistry(t)

	registry.Call(context.Background(), "navigate_to_url", `{"url":"example.com"}`)

	call := browser.lastCall(t)
	assert.Equal(t, "Navigate", call.method)
	assert.Equal(t, "https://example.com", call.args[0])

	registry.Call(context.Background(), "navigate_to_url", `{"url":"http://plain.test"}`)
	assert.Equal(t, "http://plain.test", browser.lastCall(t).args[0])
}

func TestScrollDefaults(t *testing.T) {
	registry, browser := newTestRegistry(t)

	result := registry.Call(context.Background(), "scroll_page", `{}`)

	assert.Equal(t, "Scrolled down.", result)

	call := browser.lastCall(t)
	assert.Equal(t, "Scroll", call.method)
	assert.Equal(t, "down", call.args[0])
	assert.Equal(t, 500, call.args[1])
}

func TestScrollExplicitArguments(t *testing.T) {
	registry, browser := newTestRegistry(t)

	registry.Call(context.Background(), "scroll_page", `{"direction":"up","pixels":120}`)

	call := browser.lastCall(t)
	assert.Equal(t, "up", call.args[0])
	assert.Equal(t, 120, call.args[1])
}

func TestGetElementTextEmptyResult(t *testing.T) {
	registry, _ := newTestRegistry(t)

	result := registry.Call(context.Background(), "get_element_text", `{"ai_id":"ai-id-0"}`)

	assert.Equal(t, "Element 'ai-id-0' has no visible text.", result)
}

func TestWaitForElementDefaultsTimeout(t *testing.T) {
	registry, browser := newTestRegistry(t)

	registry.Call(context.Background(), "wait_for_element", `{"ai_id":"ai-id-7"}`)

	call := browser.lastCall(t)
	assert.Equal(t, "WaitForSelector", call.method)
	assert.Equal(t, `[data-ai-id="ai-id-7"]`, call.args[0])
	assert.Equal(t, 10000, call.args[1])
}

func TestClosePopupReportsOutcome(t *testing.T) {
	registry, browser := newTestRegistry(t)

	result := registry.Call(context.Background(), "close_popup_if_present", ``)
	assert.Equal(t, "No popups found to close.", result)

	browser.popupSelector = `[aria-label="Close"]`

	result = registry.Call(context.Background(), "close_popup_if_present", ``)
	assert.Contains(t, result, `[aria-label="Close"]`)
}

func TestUnknownToolAndBadArguments(t *testing.T) {
	registry, _ := newTestRegistry(t)

	assert.Equal(t, "Error: unknown tool 'teleport'.",
		registry.Call(context.Background(), "teleport", `{}`))

	result := registry.Call(context.Background(), "click_element", `{broken`)
	assert.Contains(t, result, "invalid JSON arguments")
}
