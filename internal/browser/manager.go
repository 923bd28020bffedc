package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Chashkapluy1/ai-browser-agent/internal/config"
	"github.com/Chashkapluy1/ai-browser-agent/internal/dom"
	"github.com/Chashkapluy1/ai-browser-agent/internal/entity"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/apperr"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/logg"
	"github.com/Chashkapluy1/ai-browser-agent/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"
	maxRetries         = 2
	retryDelay         = 800 * time.Millisecond
	clickTimeout       = 10000
	fillTimeout        = 10000
	settleTimeout      = 30000
	popupClickTimeout  = 2000
)

// popupCloseSelectors are probed in order by ClosePopups; the first visible
// match is clicked.
var popupCloseSelectors = []string{
	`[aria-label="Close"]`,
	`[aria-label="close"]`,
	`button[class*="close"]`,
	`div[class*="close"]`,
	`[id*="close"]`,
	`button:has-text("Accept")`,
	`button:has-text("Accept all")`,
	`button:has-text("Хорошо")`,
	`button:has-text("Принять все")`,
	`button:has-text("No, thanks")`,
}

type Manager struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
		ready:  false,
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching browser...")
	step.AddEvent("installing playwright")

	if err = playwright.Install(); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_install_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.playwright = pw

	browserOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
		},
	}

	if m.config.BrowserConfig.ExecutablePath != "" {
		browserOptions.ExecutablePath = playwright.String(m.config.BrowserConfig.ExecutablePath)
		logger.Info("Using system browser executable",
			zap.String("path", m.config.BrowserConfig.ExecutablePath))
	}

	browser, err := m.playwright.Chromium.Launch(browserOptions)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browser = browser

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		AcceptDownloads:   playwright.Bool(true),
		JavaScriptEnabled: playwright.Bool(true),
	}

	browserContext, err := browser.NewContext(contextOptions)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browserContext = browserContext

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.page = page

	m.page.SetDefaultTimeout(float64(m.config.BrowserConfig.Timeout))
	m.page.SetDefaultNavigationTimeout(float64(m.config.BrowserConfig.Timeout))

	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Closing browser...")

	if m.browserContext != nil {
		if err := m.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
		}
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
	}

	m.ready = false
	logger.Info("Browser closed")

	return nil
}

func (m *Manager) ensurePageActive(ctx context.Context) error {
	if m.browserContext == nil {
		return fmt.Errorf("browser context is nil")
	}

	if m.page != nil && !m.page.IsClosed() {
		return nil
	}

	m.logger.Info("Page closed, reconnecting to active page...")

	for _, p := range m.browserContext.Pages() {
		if !p.IsClosed() {
			m.page = p
			m.logger.Info("Reconnected to existing page")

			return nil
		}
	}

	m.logger.Info("No active pages found, creating new page...")

	page, err := m.browserContext.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create new page: %w", err)
	}

	m.page = page
	m.logger.Info("Created new page")

	return nil
}

func (m *Manager) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	step.AddEvent("navigating to URL")

	_, err = m.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(m.config.BrowserConfig.Timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})

	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	step.AddEvent("navigation completed")

	return nil
}

func (m *Manager) Click(ctx context.Context, selector string) (err error) {
	const op = "Click"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info("Retrying click", zap.Int("attempt", attempt))
			time.Sleep(retryDelay)
		}

		step.AddEvent(fmt.Sprintf("clicking element (attempt %d)", attempt+1))

		err = m.page.Click(selector, playwright.PageClickOptions{
			Timeout: playwright.Float(clickTimeout),
			// Force on retries: something may be overlapping the target.
			Force: playwright.Bool(attempt > 0),
		})

		if err == nil {
			step.AddEvent("click completed")

			return nil
		}

		lastErr = err
	}

	return apperr.Wrap(op, apperr.CodeActionFailed, lastErr, map[string]any{
		apperr.MetaReason:   "click_failed_after_retries",
		apperr.MetaStage:    apperr.StageInteraction,
		apperr.MetaSelector: selector,
	})
}

func (m *Manager) Fill(ctx context.Context, selector, value string) (err error) {
	const op = "Fill"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info("Retrying fill", zap.Int("attempt", attempt))
			time.Sleep(retryDelay)
		}

		step.AddEvent(fmt.Sprintf("filling field (attempt %d)", attempt+1))

		err = m.page.Fill(selector, value, playwright.PageFillOptions{
			Timeout: playwright.Float(fillTimeout),
			Force:   playwright.Bool(attempt > 0),
		})

		if err == nil {
			step.AddEvent("fill completed")

			return nil
		}

		lastErr = err
	}

	return apperr.Wrap(op, apperr.CodeActionFailed, lastErr, map[string]any{
		apperr.MetaReason:   "fill_failed_after_retries",
		apperr.MetaStage:    apperr.StageInteraction,
		apperr.MetaSelector: selector,
	})
}

func (m *Manager) Press(ctx context.Context, key string) (err error) {
	const op = "Press"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("key", key))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	step.AddEvent("pressing key")

	if err = m.page.Keyboard().Press(key); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "press_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	step.AddEvent("press completed")

	return nil
}

func (m *Manager) Scroll(ctx context.Context, direction string, pixels int) (err error) {
	const op = "Scroll"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.String("direction", direction),
		attribute.Int("pixels", pixels))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	var script string

	switch direction {
	case "down":
		script = fmt.Sprintf("window.scrollBy(0, %d)", pixels)
	case "up":
		script = fmt.Sprintf("window.scrollBy(0, -%d)", pixels)
	case "bottom":
		script = "window.scrollTo(0, document.body.scrollHeight)"
	case "top":
		script = "window.scrollTo(0, 0)"
	default:
		return apperr.InvalidReqError(op, "direction",
			fmt.Errorf("unknown scroll direction: %s", direction))
	}

	step.AddEvent("scrolling page")

	if _, err = m.page.Evaluate(script); err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "scroll_failed",
			apperr.MetaStage:  apperr.StageInteraction,
		})
	}

	time.Sleep(500 * time.Millisecond)
	step.AddEvent("scroll completed")

	return nil
}

func (m *Manager) WaitForSelector(ctx context.Context, selector string, timeout int) (err error) {
	const op = "WaitForSelector"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	_, err = m.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout)),
	})

	if err != nil {
		return apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason:   "wait_selector_timeout",
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func (m *Manager) WaitForNavigation(ctx context.Context, timeout int) (err error) {
	const op = "WaitForNavigation"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	err = m.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(timeout)),
	})

	if err != nil {
		return apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason: "wait_navigation_timeout",
			apperr.MetaStage:  apperr.StageNavigation,
		})
	}

	return nil
}

func (m *Manager) GetElementText(ctx context.Context, selector string) (text string, err error) {
	const op = "GetElementText"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return "", apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	element, err := m.page.QuerySelector(selector)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
			apperr.MetaReason:   "element_not_found",
			apperr.MetaSelector: selector,
		})
	}

	if element == nil {
		return "", apperr.NotFoundError(op, fmt.Errorf("element not found: %s", selector))
	}

	text, err = element.TextContent()
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "text_content_failed",
		})
	}

	return strings.TrimSpace(text), nil
}

// ClosePopups probes the common consent and close buttons and clicks the
// first visible one. Best effort: a page without popups is not an error.
// Returns the selector that matched, or "" when nothing was closed.
func (m *Manager) ClosePopups(ctx context.Context) (matched string, err error) {
	const op = "ClosePopups"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return "", apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	for _, selector := range popupCloseSelectors {
		locator := m.page.Locator(selector).First()

		visible, err := locator.IsVisible()
		if err != nil || !visible {
			continue
		}

		if err := locator.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(popupClickTimeout),
		}); err != nil {
			logger.Debug("Popup close click failed, trying next selector",
				zap.String(logg.Selector, selector), zap.Error(err))

			continue
		}

		time.Sleep(500 * time.Millisecond)
		step.AddEvent("popup closed")

		return selector, nil
	}

	return "", nil
}

func (m *Manager) Screenshot(ctx context.Context, path string) (err error) {
	const op = "Screenshot"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	_, err = m.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(false),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(60),
	})

	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "screenshot_failed",
			apperr.MetaStage:  apperr.StageScreenshot,
		})
	}

	return nil
}

// SimplifiedDOM labels the interactive elements of the current page and
// returns their serialized list, or the no-elements sentinel.
func (m *Manager) SimplifiedDOM(ctx context.Context) (result string, err error) {
	const op = "SimplifiedDOM"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	doc, err := m.document(ctx, op, logger)
	if err != nil {
		return "", err
	}

	result = dom.Simplify(doc)
	doc.flush()

	if err := doc.Err(); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "simplify_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
		})
	}

	step.AddEvent("elements labeled")

	return result, nil
}

// PageText returns the bounded visible-text snapshot of the current page.
// Script, style and noscript nodes are removed from the live page as a
// side effect.
func (m *Manager) PageText(ctx context.Context) (result string, err error) {
	const op = "PageText"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	doc, err := m.document(ctx, op, logger)
	if err != nil {
		return "", err
	}

	result = dom.ExtractText(doc)

	if err := doc.Err(); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "extract_text_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
		})
	}

	step.AddEvent("text extracted")

	return result, nil
}

// Snapshot captures both page views plus URL and title in one pass.
func (m *Manager) Snapshot(ctx context.Context) (summary *entity.PageSummary, err error) {
	const op = "Snapshot"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	doc, err := m.document(ctx, op, logger)
	if err != nil {
		return nil, err
	}

	snap := dom.Capture(doc)
	doc.flush()

	if err := doc.Err(); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "capture_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
		})
	}

	title, _ := m.page.Title()

	step.AddEvent("snapshot captured")

	return &entity.PageSummary{
		URL:           m.page.URL(),
		Title:         title,
		TextPreview:   snap.TextPreview,
		SimplifiedDOM: snap.SimplifiedDOM,
	}, nil
}

// document waits for the page to settle and returns a live-page document
// handle for the dom operations.
func (m *Manager) document(ctx context.Context, op string, logger *zap.Logger) (*pageDocument, error) {
	if !m.ready {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(ctx); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	// Best effort: heavy pages may never go network-idle, inspect anyway.
	if err := m.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(settleTimeout),
	}); err != nil {
		logger.Debug("Page did not reach network idle", zap.Error(err))
	}

	return newPageDocument(m.page, logger), nil
}

func (m *Manager) URL() string {
	if m.page == nil {
		return ""
	}

	return m.page.URL()
}

func (m *Manager) IsReady() bool {
	return m.ready
}
