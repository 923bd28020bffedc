package browser

import (
	"fmt"

	"github.com/Chashkapluy1/ai-browser-agent/internal/dom"
)

// getHarvestScript collects the raw facts of every interactive candidate in
// document order and stashes the live node references on the window so a
// follow-up call can write labels back onto the exact nodes.
func getHarvestScript() string {
	return fmt.Sprintf(`(() => {
		const candidates = document.querySelectorAll('%s');
		const targets = [];
		const facts = [];

		candidates.forEach(el => {
			const style = window.getComputedStyle(el);
			const rect = el.getBoundingClientRect();

			targets.push(el);
			facts.push({
				tag: el.tagName.toLowerCase(),
				type: el.type || '',
				display: style.display,
				visibility: style.visibility,
				opacity: style.opacity,
				disabled: !!el.disabled,
				inLayout: el.offsetParent !== null,
				width: rect.width,
				height: rect.height,
				innerText: el.innerText || '',
				textContent: el.textContent || '',
				value: el.value || '',
				placeholder: el.placeholder || '',
				ariaLabel: el.getAttribute('aria-label') || '',
				title: el.title || ''
			});
		});

		window.__aiLabelTargets = targets;

		return facts;
	})()`, dom.InteractiveSelector)
}

// getApplyAttributesScript writes the attributes decided on the Go side
// onto the nodes stashed by the harvest script, in one round trip.
func getApplyAttributesScript() string {
	return `(assignments) => {
		const targets = window.__aiLabelTargets || [];
		let applied = 0;

		for (const a of assignments) {
			const el = targets[a.index];
			if (el) {
				el.setAttribute(a.name, a.value);
				applied++;
			}
		}

		window.__aiLabelTargets = undefined;

		return applied;
	}`
}

// getStripMarkupScript removes script, style and noscript nodes from the
// live document. Destructive on purpose: the page is inspected once per
// state and cloning the tree is not worth the cost.
func getStripMarkupScript() string {
	return `(() => {
		const removable = document.querySelectorAll('script, style, noscript');
		removable.forEach(el => el.remove());
		return removable.length;
	})()`
}

func getBodyTextScript() string {
	return `(() => {
		if (!document.body) {
			return '';
		}
		return document.body.innerText || document.body.textContent || '';
	})()`
}
