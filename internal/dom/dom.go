package dom

// Package dom implements the page simplification used to describe a live
// page to the language model: interactive elements are filtered, labeled
// with data-ai-id attributes and rendered as a compact tag list, and the
// visible page text is captured as a bounded snapshot. Operations work
// against an explicit Document handle so the same logic runs on a live
// Playwright page and on in-memory fixtures.

const (
	// LabelAttribute is written onto every included interactive node so
	// later tool calls can address the exact node.
	LabelAttribute = "data-ai-id"

	labelPrefix = "ai-id-"

	// InteractiveSelector matches the nodes considered candidates for
	// labeling, in document order.
	InteractiveSelector = `a, button, input:not([type="hidden"]), textarea, select, [role="button"], [onclick], [tabindex="0"]`

	maxExcerptLen = 150
	maxTextLen    = 2000

	// NoInteractiveElements is the contract sentinel returned when zero
	// nodes qualify. Callers treat this literal as the empty-case signal.
	NoInteractiveElements = "На странице нет интерактивных элементов."
)

type Style struct {
	Display    string
	Visibility string
	Opacity    string
}

type Node interface {
	TagName() string
	TypeAttr() string
	Style() Style
	Disabled() bool
	HasOffsetParent() bool
	BoundingBox() (width, height float64)

	InnerText() string
	TextContent() string
	Value() string
	Placeholder() string
	AriaLabel() string
	Title() string

	SetAttribute(name, value string)
}

type Document interface {
	// InteractiveNodes returns the candidates matching InteractiveSelector
	// in document order.
	InteractiveNodes() []Node

	// RemoveInvisibleMarkup destructively drops script, style and noscript
	// nodes from the document.
	RemoveInvisibleMarkup()

	// BodyText returns the rendered body text, falling back to raw text
	// content when layout-aware extraction is unavailable.
	BodyText() string
}

// Snapshot aggregates both page views produced by Capture.
type Snapshot struct {
	SimplifiedDOM string `json:"simplified_dom"`
	TextPreview   string `json:"text_preview"`
}
