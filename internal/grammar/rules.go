package grammar

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/artk-cli/artk/internal/ir"
)

// subj consumes the optional narrative subject that prefixes most step
// phrasings ("the user clicks...", "they see...").
const subj = `(?:(?:the|a|an)\s+)?(?:user|users|actor|customer|visitor|admin|i|they)?\s*`

// verify consumes the optional assertion lead-in ("verify that...",
// "the user confirms that...").
const verify = subj + `(?:(?:verif(?:y|ies)|ensures?|confirms?|asserts?|checks?)\s+(?:that\s+)?)?`

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + pattern + `$`)
}

// catalog is the grammar. Order is the disambiguation policy: rules are
// evaluated top to bottom and the first rule that matches and extracts
// wins. Most-specific phrasings sit above their generic counterparts —
// negative assertions above positive, "click on X" above "click X" —
// so moving a rule moves the boundary between primitives.
var catalog = []rule{
	// --- navigation ---
	{"nav-back", re(subj + `(?:navigates?|goes?)\s+back`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeGoBack}, true
	}},
	{"nav-forward", re(subj + `(?:navigates?|goes?)\s+forward`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeGoForward}, true
	}},
	{"nav-reload", re(subj + `(?:reloads?|refresh(?:es)?)\s+(?:the\s+)?page`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeReload}, true
	}},
	{"nav-goto", re(subj + `(?:navigates?|goes?|browses?)\s+to\s+(?:the\s+)?['"]?([^'"]+?)['"]?(?:\s+page)?`), func(m []string) (ir.Primitive, bool) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeGoto, URL: pathify(target)}, true
	}},
	{"nav-open-url", re(subj + `opens?\s+(?:the\s+)?(?:url\s+)?['"]?(/[^'"\s]*|https?://[^'"\s]+)['"]?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeGoto, URL: m[1]}, true
	}},

	// --- waits (before assertions: "waits until X is visible" must not
	// classify as expectVisible) ---
	{"wait-url", re(subj + `waits?\s+(?:for|until)\s+(?:the\s+)?url\s+(?:to\s+)?(?:be|is|equals?|contains?|matches?)\s+['"]?([^'"]+)['"]?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeWaitForURL, URL: strings.TrimSpace(m[1])}, true
	}},
	{"wait-timeout", re(subj + `waits?\s+(?:for\s+)?(\d+)\s*(ms|milliseconds?|s|seconds?)`), func(m []string) (ir.Primitive, bool) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return ir.Primitive{}, false
		}
		if strings.HasPrefix(m[2], "s") {
			n *= 1000
		}
		return ir.Primitive{Type: ir.TypeWaitForTimeout, Timeout: n}, true
	}},
	{"wait-network-idle", re(subj + `waits?\s+(?:for|until)\s+(?:the\s+)?network\s+(?:is\s+|to\s+(?:be\s+)?)?idle`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeWaitForNetworkIdle}, true
	}},
	{"wait-loading", re(subj + `waits?\s+(?:for|until)\s+(?:the\s+)?(?:page|loading|spinner)\s+(?:to\s+)?(?:finish(?:es)?(?:\s+loading)?|is\s+complete|completes?|has\s+loaded|is\s+done)`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeWaitForLoadingComplete}, true
	}},
	{"wait-response", re(subj + `waits?\s+for\s+(?:a\s+|the\s+)?response\s+(?:from\s+)?['"]?([^'"]+)['"]?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeWaitForResponse, URL: strings.TrimSpace(m[1])}, true
	}},
	{"wait-hidden", re(subj + `waits?\s+(?:for|until)\s+(?:the\s+)?(.+?)\s+(?:(?:to\s+(?:be|become)\s+|is\s+|becomes\s+)?(?:hidden|not\s+visible|gone)|(?:to\s+)?disappears?)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeWaitForHidden, Locator: loc}, true
	}},
	{"wait-visible", re(subj + `waits?\s+(?:for|until)\s+(?:the\s+)?(.+?)\s+(?:to\s+(?:be|become)\s+visible|is\s+visible|becomes\s+visible|to\s+appear|appears?)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeWaitForVisible, Locator: loc}, true
	}},

	// --- dialogs (before generic click/close verbs) ---
	{"dialog-dismiss-modal", re(subj + `(?:dismiss(?:es)?|closes?)\s+(?:the\s+)?(?:modal|dialog)`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeDismissModal}, true
	}},
	{"dialog-accept-alert", re(subj + `(?:accepts?|confirms?)\s+(?:the\s+)?(?:alert|confirmation(?:\s+dialog)?|browser\s+alert)`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeAcceptAlert}, true
	}},
	{"dialog-dismiss-alert", re(subj + `(?:dismiss(?:es)?|cancels?)\s+(?:the\s+)?(?:alert|confirmation(?:\s+dialog)?|browser\s+alert)`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeDismissAlert}, true
	}},

	// --- data entry and element interactions with distinctive shapes ---
	{"upload", re(subj + `uploads?\s+(?:the\s+)?(?:file\s+)?['"]([^'"]+)['"](?:\s+to\s+(?:the\s+)?(.+))?`), func(m []string) (ir.Primitive, bool) {
		p := ir.Primitive{Type: ir.TypeUpload, Path: m[1]}
		if strings.TrimSpace(m[2]) != "" {
			p.Locator = inferLocator(m[2])
		}
		return p, true
	}},
	{"press-key", re(subj + `press(?:es)?\s+(?:the\s+)?['"]?([\w+]+)['"]?(?:\s+key)?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypePress, Key: normalizeKey(m[1])}, true
	}},
	{"fill-enters", re(subj + `(?:enters?|types?|inputs?)\s+(.+?)\s+(?:in|into|in\s+to|on)\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[2])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeFill, Locator: loc, Value: parseValue(m[1])}, true
	}},
	{"fill-with", re(subj + `fills?\s+(?:in\s+)?(?:the\s+)?(.+?)\s+with\s+(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeFill, Locator: loc, Value: parseValue(m[2])}, true
	}},
	{"select-from", re(subj + `(?:selects?|chooses?|picks?)\s+(.+?)\s+(?:from|in)\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[2])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeSelect, Locator: loc, Value: parseValue(m[1])}, true
	}},
	{"uncheck", re(subj + `(?:unchecks?|unticks?|deselects?)\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := checkboxLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeUncheck, Locator: loc}, true
	}},

	// --- assertions, negative forms before their positive counterparts ---
	{"assert-hidden", re(verify + `(?:the\s+)?(.+?)\s+(?:(?:is|are)\s+(?:not\s+visible|not\s+displayed|not\s+shown|hidden|no\s+longer\s+visible)|should\s+not\s+be\s+(?:visible|displayed|shown)|disappears?)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectHidden, Locator: loc}, true
	}},
	{"assert-disabled", re(verify + `(?:the\s+)?(.+?)\s+(?:is|are|should\s+be)\s+disabled`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectDisabled, Locator: loc}, true
	}},
	{"assert-enabled", re(verify + `(?:the\s+)?(.+?)\s+(?:is|are|should\s+be)\s+enabled`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectEnabled, Locator: loc}, true
	}},
	{"assert-checked", re(verify + `(?:the\s+)?(.+?)\s+(?:is|are|should\s+be)\s+checked`), func(m []string) (ir.Primitive, bool) {
		loc := checkboxLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectChecked, Locator: loc}, true
	}},
	{"assert-value", re(verify + `(?:the\s+)?(.+?)\s+(?:has|contains|should\s+have)\s+(?:the\s+)?value\s+['"]([^'"]*)['"]`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectValue, Locator: loc, Value: &ir.Value{Kind: ir.ValueLiteral, Value: m[2]}}, true
	}},
	{"assert-count", re(verify + `(?:there\s+(?:are|should\s+be)\s+)?(\d+)\s+(.+?)(?:\s+(?:are|is)\s+(?:visible|displayed|shown|listed))?`), func(m []string) (ir.Primitive, bool) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return ir.Primitive{}, false
		}
		loc := inferLocator(m[2])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectCount, Locator: loc, Count: n}, true
	}},
	{"assert-url-contains", re(verify + `(?:the\s+)?(?:current\s+)?url\s+(?:should\s+)?(?:contains?|includes?|matches)\s+['"]?([^'"]+)['"]?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeExpectURL, URL: strings.TrimSpace(m[1])}, true
	}},
	{"assert-url-is", re(verify + `(?:the\s+)?(?:current\s+)?url\s+(?:is|equals?|should\s+be)\s+['"]?([^'"]+)['"]?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeExpectURL, URL: strings.TrimSpace(m[1]), Exact: true}, true
	}},
	{"assert-title-contains", re(verify + `(?:the\s+)?(?:page\s+)?title\s+(?:should\s+)?(?:contains?|includes?)\s+['"]([^'"]*)['"]`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeExpectTitle, Text: m[1]}, true
	}},
	{"assert-title-is", re(verify + `(?:the\s+)?(?:page\s+)?title\s+(?:is|equals?|should\s+be)\s+['"]([^'"]*)['"]`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeExpectTitle, Text: m[1], Exact: true}, true
	}},
	{"assert-toast", re(verify + `(?:a\s+)?toast\s+(?:message\s+)?(?:with\s+(?:the\s+)?(?:message|text)\s+)?['"]([^'"]+)['"]\s*(?:appears?|is\s+(?:visible|displayed|shown))?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeExpectToast, Text: m[1], Severity: SniffToastSeverity(m[1])}, true
	}},
	{"assert-toast-any", re(verify + `(?:a\s+)?toast\s+(?:message\s+)?(?:appears?|is\s+(?:visible|displayed|shown))`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeExpectToast}, true
	}},
	{"assert-text", re(verify + `(?:the\s+)?(.+?)\s+(?:contains?|shows?|displays?)\s+(?:the\s+)?(?:text\s+|message\s+)?['"]([^'"]*)['"]`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectText, Locator: loc, Text: m[2]}, true
	}},
	// The visible pattern is deliberately loose: it also raw-matches
	// negative phrasings ("is not visible"). The negative rules above
	// shadow it, which is the ordering invariant the catalog depends on.
	{"assert-visible", re(verify + `(?:the\s+)?(.+?)\s+(?:(?:is|are)\s+(?:\w+\s+)*?(?:visible|displayed|shown|present)|should\s+(?:\w+\s+)*?be\s+(?:visible|displayed|shown)|appears?)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectVisible, Locator: loc}, true
	}},
	{"assert-sees", re(subj + `sees?\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeExpectVisible, Locator: loc}, true
	}},

	// --- remaining interactions; "check" sits after "checks that ..."
	// assertions so the assertion reading wins ---
	{"check", re(subj + `(?:checks?|ticks?)\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := checkboxLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeCheck, Locator: loc}, true
	}},
	{"dblclick", re(subj + `double[\s-]?clicks?\s+(?:on\s+)?(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeDblClick, Locator: loc}, true
	}},
	{"right-click", re(subj + `right[\s-]?clicks?\s+(?:on\s+)?(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeRightClick, Locator: loc}, true
	}},
	{"click-on", re(subj + `(?:clicks?|taps?)\s+on\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeClick, Locator: loc}, true
	}},
	{"click", re(subj + `(?:clicks?|taps?)\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeClick, Locator: loc}, true
	}},
	{"hover", re(subj + `hovers?\s+(?:over\s+)?(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeHover, Locator: loc}, true
	}},
	{"focus", re(subj + `focus(?:es)?\s+(?:on\s+)?(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeFocus, Locator: loc}, true
	}},
	{"clear", re(subj + `clears?\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeClear, Locator: loc}, true
	}},
	{"call-module", re(subj + `(?:calls?|invokes?|uses?)\s+(?:the\s+)?([\w-]+)\s+module(?:\s+to\s+(.+))?`), func(m []string) (ir.Primitive, bool) {
		return ir.Primitive{Type: ir.TypeCallModule, Module: m[1], Method: strings.TrimSpace(m[2])}, true
	}},
	{"select-element", re(subj + `selects?\s+(?:the\s+)?(.+)`), func(m []string) (ir.Primitive, bool) {
		loc := inferLocator(m[1])
		if loc == nil {
			return ir.Primitive{}, false
		}
		return ir.Primitive{Type: ir.TypeClick, Locator: loc}, true
	}},
}

// checkboxLocator infers a locator for check/uncheck targets, defaulting
// bare names to the checkbox role.
func checkboxLocator(phrase string) *ir.Locator {
	loc := inferLocator(phrase)
	if loc == nil {
		return nil
	}
	if loc.Strategy == ir.StrategyText {
		return &ir.Locator{
			Strategy: ir.StrategyRole,
			Value:    "checkbox",
			Options:  &ir.LocatorOptions{Name: loc.Value},
		}
	}
	return loc
}

var keyNames = map[string]string{
	"enter": "Enter", "tab": "Tab", "escape": "Escape", "esc": "Escape",
	"space": "Space", "backspace": "Backspace", "delete": "Delete",
	"arrowup": "ArrowUp", "arrowdown": "ArrowDown",
	"arrowleft": "ArrowLeft", "arrowright": "ArrowRight",
	"pageup": "PageUp", "pagedown": "PageDown", "home": "Home", "end": "End",
}

func normalizeKey(key string) string {
	if name, ok := keyNames[strings.ToLower(key)]; ok {
		return name
	}
	return key
}

// pathify turns a page name into a path; explicit paths and URLs pass
// through unchanged.
func pathify(target string) string {
	if strings.HasPrefix(target, "/") || strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	slug := strings.ToLower(strings.TrimSpace(target))
	slug = strings.Join(strings.Fields(slug), "-")
	return "/" + slug
}
