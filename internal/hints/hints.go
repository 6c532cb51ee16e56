// Package hints parses embedded machine-readable disambiguation hints from
// raw step text: parenthesized key=value groups like (role=button, exact=true).
package hints

import (
	"regexp"
	"strconv"
	"strings"
)

// LocatorHints steer element resolution in the grammar and compiler.
type LocatorHints struct {
	Role   string
	TestID string
	Label  string
	Text   string
	Exact  *bool
	Level  int
}

// BehaviorHints steer step behavior rather than element identity.
type BehaviorHints struct {
	Signal  string
	Module  string
	Wait    string
	Timeout int
}

// Result is the outcome of one extraction pass.
type Result struct {
	Locator   LocatorHints
	Behavior  BehaviorHints
	HasHints  bool
	CleanText string
	Warnings  []string
}

var groupPattern = regexp.MustCompile(`\(([^()]+)\)`)
var pairPattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s*=\s*(.*?)\s*$`)

// ariaRoles is the fixed ARIA role vocabulary. A role outside it still
// parses; it only warns, hints are advisory rather than a validation gate.
var ariaRoles = map[string]bool{
	"alert": true, "alertdialog": true, "banner": true, "button": true,
	"cell": true, "checkbox": true, "columnheader": true, "combobox": true,
	"complementary": true, "contentinfo": true, "dialog": true, "form": true,
	"grid": true, "gridcell": true, "heading": true, "img": true,
	"link": true, "list": true, "listbox": true, "listitem": true,
	"main": true, "menu": true, "menubar": true, "menuitem": true,
	"navigation": true, "option": true, "progressbar": true, "radio": true,
	"radiogroup": true, "region": true, "row": true, "rowgroup": true,
	"rowheader": true, "search": true, "searchbox": true, "separator": true,
	"slider": true, "spinbutton": true, "status": true, "switch": true,
	"tab": true, "table": true, "tablist": true, "tabpanel": true,
	"textbox": true, "toolbar": true, "tooltip": true, "tree": true,
	"treeitem": true,
}

// Extract scans text for hint groups and returns the hints alongside the
// text with all hint spans stripped. Extraction of CleanText is a no-op.
func Extract(text string) Result {
	res := Result{CleanText: text}

	matches := groupPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return res
	}

	var clean strings.Builder
	last := 0
	for _, m := range matches {
		inner := text[m[2]:m[3]]
		pairs, ok := splitPairs(inner)
		if !ok {
			// Ordinary parenthetical, not a hint group.
			continue
		}

		res.HasHints = true
		for _, p := range pairs {
			applyPair(&res, p[0], p[1])
		}

		clean.WriteString(text[last:m[0]])
		last = m[1]
	}

	if !res.HasHints {
		return res
	}

	clean.WriteString(text[last:])
	res.CleanText = collapseSpaces(clean.String())
	return res
}

// splitPairs parses "key=value, key=value" and reports whether every
// segment is a key=value pair. Commas inside quoted values do not split.
func splitPairs(inner string) ([][2]string, bool) {
	segments := splitSegments(inner)
	pairs := make([][2]string, 0, len(segments))
	for _, seg := range segments {
		m := pairPattern.FindStringSubmatch(seg)
		if m == nil {
			return nil, false
		}
		pairs = append(pairs, [2]string{strings.ToLower(m[1]), unquote(m[2])})
	}
	return pairs, true
}

// splitSegments splits on commas outside single or double quotes.
func splitSegments(inner string) []string {
	var segs []string
	var quote byte
	start := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			segs = append(segs, inner[start:i])
			start = i + 1
		}
	}
	return append(segs, inner[start:])
}

func applyPair(res *Result, key, value string) {
	switch key {
	case "role":
		if !ariaRoles[strings.ToLower(value)] {
			res.Warnings = append(res.Warnings, "hint role '"+value+"' is not a known ARIA role")
		}
		res.Locator.Role = value
	case "testid":
		res.Locator.TestID = value
	case "label":
		res.Locator.Label = value
	case "text":
		res.Locator.Text = value
	case "exact":
		exact := strings.EqualFold(value, "true")
		res.Locator.Exact = &exact
	case "level":
		level, err := strconv.Atoi(value)
		if err != nil {
			res.Warnings = append(res.Warnings, "hint level '"+value+"' is not a number")
			return
		}
		res.Locator.Level = level
	case "signal":
		res.Behavior.Signal = value
	case "module":
		res.Behavior.Module = value
	case "wait":
		res.Behavior.Wait = value
	case "timeout":
		timeout, err := strconv.Atoi(value)
		if err != nil {
			res.Warnings = append(res.Warnings, "hint timeout '"+value+"' is not a number")
			return
		}
		res.Behavior.Timeout = timeout
	default:
		res.Warnings = append(res.Warnings, "unrecognized hint key '"+key+"'")
	}
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') ||
			(value[0] == '"' && value[len(value)-1] == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func collapseSpaces(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
