package browser

import (
	"fmt"

	"github.com/Chashkapluy1/ai-browser-agent/internal/dom"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// pageDocument backs dom.Document with a live Playwright page. Element
// facts are harvested in a single Evaluate; attribute writes are buffered
// and flushed back in one batch Evaluate so labeling the whole page costs
// two round trips regardless of element count.
type pageDocument struct {
	page    playwright.Page
	logger  *zap.Logger
	pending []map[string]interface{}
	err     error
}

func newPageDocument(page playwright.Page, logger *zap.Logger) *pageDocument {
	return &pageDocument{
		page:   page,
		logger: logger,
	}
}

func (d *pageDocument) InteractiveNodes() []dom.Node {
	result, err := d.page.Evaluate(getHarvestScript())
	if err != nil {
		d.fail(fmt.Errorf("harvest elements: %w", err))

		return nil
	}

	items, ok := result.([]interface{})
	if !ok {
		d.fail(fmt.Errorf("harvest elements: unexpected result type %T", result))

		return nil
	}

	nodes := make([]dom.Node, 0, len(items))

	for i, item := range items {
		facts, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		nodes = append(nodes, &pageNode{doc: d, index: i, facts: facts})
	}

	return nodes
}

func (d *pageDocument) RemoveInvisibleMarkup() {
	if _, err := d.page.Evaluate(getStripMarkupScript()); err != nil {
		d.fail(fmt.Errorf("strip markup: %w", err))
	}
}

func (d *pageDocument) BodyText() string {
	result, err := d.page.Evaluate(getBodyTextScript())
	if err != nil {
		d.fail(fmt.Errorf("body text: %w", err))

		return ""
	}

	text, _ := result.(string)

	return text
}

// flush applies the buffered attribute assignments to the live nodes.
// Must run before the document handle is discarded, otherwise the labels
// announced to the model never land on the page.
func (d *pageDocument) flush() {
	if len(d.pending) == 0 {
		return
	}

	assignments := d.pending
	d.pending = nil

	result, err := d.page.Evaluate(getApplyAttributesScript(), assignments)
	if err != nil {
		d.fail(fmt.Errorf("apply labels: %w", err))

		return
	}

	if applied, ok := result.(int); ok && applied != len(assignments) {
		d.logger.Warn("Some labels were not applied",
			zap.Int("requested", len(assignments)),
			zap.Int("applied", applied))
	}
}

func (d *pageDocument) fail(err error) {
	if d.err == nil {
		d.err = err
	}

	d.logger.Warn("Page document operation failed", zap.Error(err))
}

func (d *pageDocument) Err() error {
	return d.err
}

type pageNode struct {
	doc   *pageDocument
	index int
	facts map[string]interface{}
}

func (n *pageNode) TagName() string  { return getString(n.facts, "tag") }
func (n *pageNode) TypeAttr() string { return getString(n.facts, "type") }

func (n *pageNode) Style() dom.Style {
	return dom.Style{
		Display:    getString(n.facts, "display"),
		Visibility: getString(n.facts, "visibility"),
		Opacity:    getString(n.facts, "opacity"),
	}
}

func (n *pageNode) Disabled() bool        { return getBool(n.facts, "disabled") }
func (n *pageNode) HasOffsetParent() bool { return getBool(n.facts, "inLayout") }

func (n *pageNode) BoundingBox() (float64, float64) {
	return getFloat(n.facts, "width"), getFloat(n.facts, "height")
}

func (n *pageNode) InnerText() string   { return getString(n.facts, "innerText") }
func (n *pageNode) TextContent() string { return getString(n.facts, "textContent") }
func (n *pageNode) Value() string       { return getString(n.facts, "value") }
func (n *pageNode) Placeholder() string { return getString(n.facts, "placeholder") }
func (n *pageNode) AriaLabel() string   { return getString(n.facts, "ariaLabel") }
func (n *pageNode) Title() string       { return getString(n.facts, "title") }

func (n *pageNode) SetAttribute(name, value string) {
	n.doc.pending = append(n.doc.pending, map[string]interface{}{
		"index": n.index,
		"name":  name,
		"value": value,
	})
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}

	return false
}

func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}

	if v, ok := m[key].(int); ok {
		return float64(v)
	}

	return 0
}
