package dom

import (
	"fmt"
	"strings"
)

// excerptSources is the ordered list of text sources tried for an element
// label. The first source with a non-empty raw value wins; the result is
// trimmed and truncated afterwards.
var excerptSources = []func(Node) string{
	Node.InnerText,
	Node.TextContent,
	Node.Value,
	Node.Placeholder,
	Node.AriaLabel,
	Node.Title,
}

// Simplify scans the document for interactive elements, labels every
// included node with a sequential data-ai-id attribute and returns the
// newline-joined serialized tags, or the NoInteractiveElements sentinel.
//
// Identifiers are assigned in document order starting at ai-id-0 and are
// local to this call: a later scan of a mutated page may relabel nodes.
func Simplify(doc Document) string {
	var lines []string

	counter := 0

	for _, node := range doc.InteractiveNodes() {
		if !included(node) {
			continue
		}

		id := LabelID(counter)
		counter++

		node.SetAttribute(LabelAttribute, id)

		tag := node.TagName()

		elementType := node.TypeAttr()
		if elementType == "" {
			elementType = tag
		}

		lines = append(lines, fmt.Sprintf(`<%s data-ai-id="%s" type="%s">%s</%s>`,
			tag, id, elementType, Excerpt(node), tag))
	}

	if len(lines) == 0 {
		return NoInteractiveElements
	}

	return strings.Join(lines, "\n")
}

// included applies the visibility and eligibility filter to a candidate.
// The opacity check is an exact string comparison: "0" is filtered, "0.0"
// is not. That mirrors the host-script behavior downstream consumers were
// built against and must not be "fixed" to a numeric threshold.
func included(node Node) bool {
	style := node.Style()

	if style.Display == "none" {
		return false
	}

	if style.Visibility == "hidden" {
		return false
	}

	if style.Opacity == "0" {
		return false
	}

	if node.Disabled() {
		return false
	}

	if !node.HasOffsetParent() {
		return false
	}

	width, height := node.BoundingBox()

	return width > 0 && height > 0
}

// Excerpt returns the bounded label text for a node: first non-empty
// source, trimmed, truncated to maxExcerptLen characters.
func Excerpt(node Node) string {
	for _, source := range excerptSources {
		if text := source(node); text != "" {
			return truncate(strings.TrimSpace(text), maxExcerptLen)
		}
	}

	return ""
}

// LabelID returns the identifier assigned to the n-th included node.
func LabelID(n int) string {
	return fmt.Sprintf("%s%d", labelPrefix, n)
}

// LabelSelector returns the CSS selector addressing a labeled node.
func LabelSelector(id string) string {
	return fmt.Sprintf(`[%s="%s"]`, LabelAttribute, id)
}

// truncate cuts s to at most max characters with no word-boundary
// awareness.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max])
}
