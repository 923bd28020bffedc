package dom

import "strings"

// ExtractText returns a bounded plain-text snapshot of the currently
// visible page content.
//
// The script, style and noscript nodes are removed from the live document
// first. This is a destructive mutation, not a copy-then-filter: a second
// call on the same page measures an already-stripped document. The
// calling agent only needs one snapshot per page state, so this is the
// intended trade for not cloning the tree.
func ExtractText(doc Document) string {
	doc.RemoveInvisibleMarkup()

	return truncate(strings.TrimSpace(doc.BodyText()), maxTextLen)
}

// Capture runs ExtractText and Simplify against the same document in one
// pass and returns both results. The operations touch disjoint node sets,
// so the order is not observable; text goes first to keep the stripped
// markup out of the element scan's textContent fallbacks.
func Capture(doc Document) Snapshot {
	return Snapshot{
		TextPreview:   ExtractText(doc),
		SimplifiedDOM: Simplify(doc),
	}
}
