// Package grammar compiles a single step's text into an IR primitive via a
// fixed, hand-ordered catalog of regex rules. Evaluation is strictly
// sequential and first-match-wins; catalog order is the disambiguation
// policy and reordering rules changes classification.
package grammar

import (
	"regexp"
	"strings"

	"github.com/artk-cli/artk/internal/ir"
)

var structuredBullet = regexp.MustCompile(`(?i)^\*\*(?:action|wait for|assert)\*\*:\s*(.+)$`)

// Match evaluates text against the catalog and returns the first primitive
// whose rule both matches and extracts. It is a pure function of its input
// and the static catalog; no mutable state is consulted.
func Match(text string) (ir.Primitive, bool) {
	t := strings.TrimSpace(text)
	t = strings.TrimRight(t, ".")

	// Structured bullets outrank every free-text rule; the prefix is
	// stripped and the remainder re-enters the catalog.
	if m := structuredBullet.FindStringSubmatch(t); m != nil {
		t = strings.TrimSpace(m[1])
	}

	for _, r := range catalog {
		m := r.re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if p, ok := r.extract(m); ok {
			return p, true
		}
		// A rule may textually match yet decline; evaluation continues.
	}
	return ir.Primitive{}, false
}

type rule struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string) (ir.Primitive, bool)
}

var quoted = regexp.MustCompile(`['"]([^'"]*)['"]`)

// elementKind maps trailing element words to locator strategies.
var roleKinds = map[string]string{
	"button":   "button",
	"link":     "link",
	"checkbox": "checkbox",
	"heading":  "heading",
	"tab":      "tab",
	"menu":     "menu",
	"dialog":   "dialog",
	"row":      "row",
	"option":   "option",
}

var labelKinds = map[string]bool{
	"field":    true,
	"input":    true,
	"textbox":  true,
	"box":      true,
	"dropdown": true,
	"textarea": true,
	"selector": true,
}

// inferLocator turns a target phrase like "the 'Submit' button" or
// "error container" into an abstract locator.
func inferLocator(phrase string) *ir.Locator {
	p := strings.TrimSpace(phrase)
	p = strings.TrimRight(p, ".,;:")
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(strings.ToLower(p), art) {
			p = p[len(art):]
			break
		}
	}
	switch strings.ToLower(p) {
	case "", "the", "a", "an", "it":
		return nil
	}

	if m := quoted.FindStringSubmatch(p); m != nil {
		name := m[1]
		rest := strings.ToLower(strings.TrimSpace(strings.Replace(p, m[0], "", 1)))
		for kind, role := range roleKinds {
			if strings.Contains(rest, kind) {
				return &ir.Locator{
					Strategy: ir.StrategyRole,
					Value:    role,
					Options:  &ir.LocatorOptions{Name: name},
				}
			}
		}
		for kind := range labelKinds {
			if strings.Contains(rest, kind) {
				return &ir.Locator{Strategy: ir.StrategyLabel, Value: name}
			}
		}
		return &ir.Locator{Strategy: ir.StrategyText, Value: name}
	}

	// CSS-ish selectors pass through untouched.
	if !strings.Contains(p, " ") && (strings.HasPrefix(p, "#") || strings.HasPrefix(p, ".") || strings.HasPrefix(p, "[")) {
		return &ir.Locator{Strategy: ir.StrategyCSS, Value: p}
	}

	lower := strings.ToLower(p)
	if idx := strings.LastIndex(lower, " "); idx >= 0 {
		last := lower[idx+1:]
		if role, ok := roleKinds[last]; ok {
			return &ir.Locator{
				Strategy: ir.StrategyRole,
				Value:    role,
				Options:  &ir.LocatorOptions{Name: strings.TrimSpace(p[:idx])},
			}
		}
		if labelKinds[last] {
			return &ir.Locator{Strategy: ir.StrategyLabel, Value: strings.TrimSpace(p[:idx])}
		}
	}

	return &ir.Locator{Strategy: ir.StrategyText, Value: p}
}

var (
	actorValue     = regexp.MustCompile(`(?i)^(?:the actor'?s?|their|my)\s+(.+)$`)
	testDataValue  = regexp.MustCompile(`(?i)^(?:the )?test data\s+['"]?([^'"]+)['"]?$`)
	generatedValue = regexp.MustCompile(`(?i)^a (?:generated|unique|random)\s+(.+)$`)
	runIDValue     = regexp.MustCompile(`(?i)^(?:the )?run id$`)
)

// parseValue classifies a fill/select payload phrase into a tagged value.
// Quoted payloads are literal; everything else is an indirection whose
// interpretation belongs to the renderer.
func parseValue(phrase string) *ir.Value {
	p := strings.TrimSpace(phrase)
	if m := quoted.FindStringSubmatch(p); m != nil && quoted.FindStringIndex(p)[0] == 0 {
		return &ir.Value{Kind: ir.ValueLiteral, Value: m[1]}
	}
	if runIDValue.MatchString(p) {
		return &ir.Value{Kind: ir.ValueRunID}
	}
	if m := testDataValue.FindStringSubmatch(p); m != nil {
		return &ir.Value{Kind: ir.ValueTestData, Value: strings.TrimSpace(m[1])}
	}
	if m := actorValue.FindStringSubmatch(p); m != nil {
		return &ir.Value{Kind: ir.ValueActor, Value: strings.TrimSpace(m[1])}
	}
	if m := generatedValue.FindStringSubmatch(p); m != nil {
		return &ir.Value{Kind: ir.ValueGenerated, Value: strings.TrimSpace(m[1])}
	}
	return &ir.Value{Kind: ir.ValueLiteral, Value: p}
}

// SniffToastSeverity infers a toast's severity from its message keywords.
func SniffToastSeverity(message string) string {
	m := strings.ToLower(message)
	for _, kw := range []string{"error", "fail", "invalid", "denied", "unable"} {
		if strings.Contains(m, kw) {
			return "error"
		}
	}
	if strings.Contains(m, "warn") {
		return "warning"
	}
	return "success"
}
