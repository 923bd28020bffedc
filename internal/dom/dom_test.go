package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	tag          string
	typ          string
	style        Style
	disabled     bool
	detached     bool
	width        float64
	height       float64
	innerText    string
	textContent  string
	value        string
	placeholder  string
	ariaLabel    string
	title        string
	attrs        map[string]string
}

func visibleNode(tag, text string) *fakeNode {
	return &fakeNode{
		tag:       tag,
		style:     Style{Display: "block", Visibility: "visible", Opacity: "1"},
		width:     120,
		height:    24,
		innerText: text,
		attrs:     map[string]string{},
	}
}

func (n *fakeNode) TagName() string  { return n.tag }
func (n *fakeNode) TypeAttr() string { return n.typ }
func (n *fakeNode) Style() Style     { return n.style }
func (n *fakeNode) Disabled() bool   { return n.disabled }

func (n *fakeNode) HasOffsetParent() bool { return !n.detached }

func (n *fakeNode) BoundingBox() (float64, float64) { return n.width, n.height }

func (n *fakeNode) InnerText() string   { return n.innerText }
func (n *fakeNode) TextContent() string { return n.textContent }
func (n *fakeNode) Value() string       { return n.value }
func (n *fakeNode) Placeholder() string { return n.placeholder }
func (n *fakeNode) AriaLabel() string   { return n.ariaLabel }
func (n *fakeNode) Title() string       { return n.title }

func (n *fakeNode) SetAttribute(name, value string) {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}

	n.attrs[name] = value
}

type fakeDoc struct {
	nodes      []*fakeNode
	bodyText   string
	scriptText []string
	stripped   bool
}

func (d *fakeDoc) InteractiveNodes() []Node {
	nodes := make([]Node, len(d.nodes))
	for i, n := range d.nodes {
		nodes[i] = n
	}

	return nodes
}

func (d *fakeDoc) RemoveInvisibleMarkup() {
	d.stripped = true
}

func (d *fakeDoc) BodyText() string {
	if d.stripped {
		return d.bodyText
	}

	return d.bodyText + "\n" + strings.Join(d.scriptText, "\n")
}

func TestSimplifyReturnsSentinelWhenNothingQualifies(t *testing.T) {
	assert.Equal(t, NoInteractiveElements, Simplify(&fakeDoc{}))

	hidden := visibleNode("button", "Buy")
	hidden.style.Display = "none"

	assert.Equal(t, NoInteractiveElements, Simplify(&fakeDoc{nodes: []*fakeNode{hidden}}))
}

func TestSimplifyLabelsInDocumentOrder(t *testing.T) {
	doc := &fakeDoc{nodes: []*fakeNode{
		visibleNode("a", "Home"),
		visibleNode("button", "Search"),
		visibleNode("textarea", "Comment"),
	}}

	out := Simplify(doc)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, `<a data-ai-id="ai-id-0" type="a">Home</a>`, lines[0])
	assert.Equal(t, `<button data-ai-id="ai-id-1" type="button">Search</button>`, lines[1])
	assert.Equal(t, `<textarea data-ai-id="ai-id-2" type="textarea">Comment</textarea>`, lines[2])

	// The labels must also land on the live nodes.
	for i, n := range doc.nodes {
		assert.Equal(t, LabelID(i), n.attrs[LabelAttribute])
	}
}

func TestSimplifySkipsExcludedNodesWithoutConsumingIDs(t *testing.T) {
	excluded := visibleNode("button", "Hidden")
	excluded.style.Visibility = "hidden"

	doc := &fakeDoc{nodes: []*fakeNode{
		excluded,
		visibleNode("a", "Visible"),
	}}

	out := Simplify(doc)
	require.Equal(t, `<a data-ai-id="ai-id-0" type="a">Visible</a>`, out)

	_, labeled := excluded.attrs[LabelAttribute]
	assert.False(t, labeled, "excluded node must not be labeled")
}

func TestSimplifyVisibilityFilter(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*fakeNode)
		included bool
	}{
		{"visible", func(n *fakeNode) {}, true},
		{"display none", func(n *fakeNode) { n.style.Display = "none" }, false},
		{"visibility hidden", func(n *fakeNode) { n.style.Visibility = "hidden" }, false},
		{"opacity zero string", func(n *fakeNode) { n.style.Opacity = "0" }, false},
		// Exact string comparison: "0.0" is not filtered.
		{"opacity zero point zero", func(n *fakeNode) { n.style.Opacity = "0.0" }, true},
		{"disabled", func(n *fakeNode) { n.disabled = true }, false},
		{"no offset parent", func(n *fakeNode) { n.detached = true }, false},
		{"zero width", func(n *fakeNode) { n.width = 0 }, false},
		{"zero height", func(n *fakeNode) { n.height = 0 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node := visibleNode("button", "Go")
			tc.mutate(node)

			out := Simplify(&fakeDoc{nodes: []*fakeNode{node}})

			if tc.included {
				assert.NotEqual(t, NoInteractiveElements, out)
			} else {
				assert.Equal(t, NoInteractiveElements, out)
			}
		})
	}
}

func TestExcerptSourcePrecedence(t *testing.T) {
	node := visibleNode("input", "")
	node.textContent = "raw"
	node.value = "typed"
	node.placeholder = "hint"
	node.ariaLabel = "label"
	node.title = "tip"

	assert.Equal(t, "raw", Excerpt(node))

	node.textContent = ""
	assert.Equal(t, "typed", Excerpt(node))

	node.value = ""
	assert.Equal(t, "hint", Excerpt(node))

	node.placeholder = ""
	assert.Equal(t, "label", Excerpt(node))

	node.ariaLabel = ""
	assert.Equal(t, "tip", Excerpt(node))

	node.title = ""
	assert.Equal(t, "", Excerpt(node))
}

func TestExcerptFirstRawNonEmptySourceWins(t *testing.T) {
	// A whitespace-only source is still "non-empty": it is selected and
	// then trimmed away, it does not fall through to the next source.
	node := visibleNode("a", "   ")
	node.textContent = "fallback"

	assert.Equal(t, "", Excerpt(node))
}

func TestExcerptTrimmedAndBounded(t *testing.T) {
	node := visibleNode("a", "  \n\t padded  ")
	assert.Equal(t, "padded", Excerpt(node))

	long := visibleNode("a", strings.Repeat("ы", 300))
	got := Excerpt(long)

	assert.Equal(t, 150, len([]rune(got)))
	assert.Equal(t, strings.Repeat("ы", 150), got)
}

func TestSimplifyUsesTypeAttrWithTagFallback(t *testing.T) {
	email := visibleNode("input", "")
	email.typ = "email"
	email.placeholder = "you@example.com"

	doc := &fakeDoc{nodes: []*fakeNode{email, visibleNode("select", "City")}}

	lines := strings.Split(Simplify(doc), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, `<input data-ai-id="ai-id-0" type="email">you@example.com</input>`, lines[0])
	assert.Equal(t, `<select data-ai-id="ai-id-1" type="select">City</select>`, lines[1])
}

func TestExtractTextExcludesScriptContent(t *testing.T) {
	doc := &fakeDoc{
		bodyText:   "  Welcome to the shop  ",
		scriptText: []string{"var tracking = true;", ".hidden { display: none }"},
	}

	got := ExtractText(doc)

	assert.Equal(t, "Welcome to the shop", got)
	assert.NotContains(t, got, "tracking")
	assert.True(t, doc.stripped, "extraction must mutate the document")
}

func TestExtractTextBounded(t *testing.T) {
	doc := &fakeDoc{bodyText: strings.Repeat("текст ", 1000)}

	got := ExtractText(doc)

	assert.Equal(t, 2000, len([]rune(got)))
}

func TestExtractTextSecondCallSeesStrippedPage(t *testing.T) {
	doc := &fakeDoc{
		bodyText:   "Visible",
		scriptText: []string{"alert('embedded')"},
	}

	first := ExtractText(doc)
	second := ExtractText(doc)

	assert.Equal(t, first, second)
	assert.NotContains(t, second, "embedded")
}

func TestCaptureMatchesIndependentOperations(t *testing.T) {
	build := func() *fakeDoc {
		return &fakeDoc{
			nodes: []*fakeNode{
				visibleNode("a", "Docs"),
				visibleNode("button", "Submit"),
			},
			bodyText:   "Page body",
			scriptText: []string{"noise()"},
		}
	}

	snap := Capture(build())

	fresh := build()
	assert.Equal(t, ExtractText(fresh), snap.TextPreview)
	assert.Equal(t, Simplify(fresh), snap.SimplifiedDOM)
}

func TestLabelSelector(t *testing.T) {
	assert.Equal(t, `[data-ai-id="ai-id-7"]`, LabelSelector(LabelID(7)))
}
