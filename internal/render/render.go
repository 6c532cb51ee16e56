// Package render emits Playwright TypeScript from the compiled IR. Every
// step becomes one managed block keyed by the step id, so regeneration
// can rewrite generated code without touching hand-written edits around it.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/artk-cli/artk/internal/blocks"
	"github.com/artk-cli/artk/internal/ir"
)

const indent = "  "

// FileName returns the spec file name for a journey.
func FileName(j ir.Journey) string {
	slug := strings.ToLower(strings.TrimSpace(j.Title))
	slug = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "journey"
	}
	return fmt.Sprintf("%s-%s.spec.ts", strings.ToLower(j.ID), slug)
}

// Render emits a complete spec file for a journey.
func Render(j ir.Journey) string {
	var script strings.Builder
	script.WriteString("// Generated by artk. Code between artk:managed markers is rewritten\n")
	script.WriteString("// on regeneration; everything outside them is yours to edit.\n")
	script.WriteString("import { test, expect } from '@playwright/test';\n")
	if usesSupport(j) {
		script.WriteString("import { actor, testData, generated, runId, modules } from './artk.support';\n")
	}
	script.WriteString("\n")

	title := fmt.Sprintf("%s: %s", j.ID, j.Title)
	if len(j.Tags) > 0 {
		title += " " + strings.Join(j.Tags, " ")
	}
	script.WriteString(fmt.Sprintf("test(%s, async ({ page }) => {\n", tsQuote(title)))

	for i, step := range j.Steps {
		if i > 0 {
			script.WriteString("\n")
		}
		if step.Description != "" {
			script.WriteString(fmt.Sprintf("%s// %s: %s\n", indent, step.ID, step.Description))
		}
		script.WriteString(fmt.Sprintf("%s%s [id=%s]\n", indent, blocks.StartSentinel, step.ID))
		for _, line := range StepLines(step) {
			script.WriteString(line + "\n")
		}
		script.WriteString(indent + blocks.EndSentinel + "\n")
	}

	script.WriteString("});\n")
	return script.String()
}

// Updates returns the regenerated block bodies for a journey, one per
// step, for injection into an existing spec file.
func Updates(j ir.Journey) []blocks.Update {
	out := make([]blocks.Update, 0, len(j.Steps))
	for _, step := range j.Steps {
		out = append(out, blocks.Update{ID: step.ID, Lines: StepLines(step)})
	}
	return out
}

// StepLines renders one step's body, actions before assertions.
func StepLines(step ir.Step) []string {
	var lines []string
	for _, p := range step.Actions {
		lines = append(lines, primitiveLines(p)...)
	}
	for _, p := range step.Assertions {
		lines = append(lines, primitiveLines(p)...)
	}
	return lines
}

func primitiveLines(p ir.Primitive) []string {
	switch p.Type {
	case ir.TypeGoto:
		return stmt("await page.goto(%s);", tsQuote(p.URL))
	case ir.TypeReload:
		return stmt("await page.reload();")
	case ir.TypeGoBack:
		return stmt("await page.goBack();")
	case ir.TypeGoForward:
		return stmt("await page.goForward();")
	case ir.TypeWaitForURL:
		return stmt("await page.waitForURL(%s);", urlMatcher(p.URL, false))

	case ir.TypeClick:
		return stmt("await %s.click();", locator(p.Locator))
	case ir.TypeDblClick:
		return stmt("await %s.dblclick();", locator(p.Locator))
	case ir.TypeRightClick:
		return stmt("await %s.click({ button: 'right' });", locator(p.Locator))
	case ir.TypeFill:
		return stmt("await %s.fill(%s);", locator(p.Locator), value(p.Value))
	case ir.TypeSelect:
		return stmt("await %s.selectOption(%s);", locator(p.Locator), value(p.Value))
	case ir.TypeCheck:
		return stmt("await %s.check();", locator(p.Locator))
	case ir.TypeUncheck:
		return stmt("await %s.uncheck();", locator(p.Locator))
	case ir.TypePress:
		return stmt("await page.keyboard.press(%s);", tsQuote(p.Key))
	case ir.TypeHover:
		return stmt("await %s.hover();", locator(p.Locator))
	case ir.TypeFocus:
		return stmt("await %s.focus();", locator(p.Locator))
	case ir.TypeClear:
		return stmt("await %s.clear();", locator(p.Locator))
	case ir.TypeUpload:
		if p.Locator != nil {
			return stmt("await %s.setInputFiles(%s);", locator(p.Locator), tsQuote(p.Path))
		}
		return stmt("await page.setInputFiles('input[type=file]', %s);", tsQuote(p.Path))

	case ir.TypeExpectVisible:
		return stmt("await expect(%s).toBeVisible();", locator(p.Locator))
	case ir.TypeExpectHidden:
		return stmt("await expect(%s).toBeHidden();", locator(p.Locator))
	case ir.TypeExpectText:
		return stmt("await expect(%s).toContainText(%s);", locator(p.Locator), tsQuote(p.Text))
	case ir.TypeExpectValue:
		return stmt("await expect(%s).toHaveValue(%s);", locator(p.Locator), value(p.Value))
	case ir.TypeExpectChecked:
		return stmt("await expect(%s).toBeChecked();", locator(p.Locator))
	case ir.TypeExpectEnabled:
		return stmt("await expect(%s).toBeEnabled();", locator(p.Locator))
	case ir.TypeExpectDisabled:
		return stmt("await expect(%s).toBeDisabled();", locator(p.Locator))
	case ir.TypeExpectURL:
		return stmt("await expect(page).toHaveURL(%s);", urlMatcher(p.URL, p.Exact))
	case ir.TypeExpectTitle:
		if p.Exact {
			return stmt("await expect(page).toHaveTitle(%s);", tsQuote(p.Text))
		}
		return stmt("await expect(page).toHaveTitle(new RegExp(%s));", tsQuote(regexp.QuoteMeta(p.Text)))
	case ir.TypeExpectCount:
		return stmt("await expect(%s).toHaveCount(%d);", locator(p.Locator), p.Count)
	case ir.TypeExpectToast:
		loc := "page.getByRole('status')"
		if p.Severity != "" && p.Severity != "success" {
			loc = "page.getByRole('alert')"
		}
		if p.Text == "" {
			return stmt("await expect(%s).toBeVisible();", loc)
		}
		return stmt("await expect(%s).toContainText(%s);", loc, tsQuote(p.Text))

	case ir.TypeWaitForVisible:
		return stmt("await %s.waitFor({ state: 'visible' });", locator(p.Locator))
	case ir.TypeWaitForHidden:
		return stmt("await %s.waitFor({ state: 'hidden' });", locator(p.Locator))
	case ir.TypeWaitForTimeout:
		return stmt("await page.waitForTimeout(%d);", p.Timeout)
	case ir.TypeWaitForNetworkIdle:
		return stmt("await page.waitForLoadState('networkidle');")
	case ir.TypeWaitForLoadingComplete:
		return stmt("await page.waitForLoadState('load');")
	case ir.TypeWaitForResponse:
		return stmt("await page.waitForResponse((resp) => resp.url().includes(%s) && resp.ok());", tsQuote(p.URL))

	case ir.TypeDismissModal:
		return stmt("await page.keyboard.press('Escape');")
	case ir.TypeAcceptAlert:
		return stmt("page.once('dialog', (dialog) => dialog.accept());")
	case ir.TypeDismissAlert:
		return stmt("page.once('dialog', (dialog) => dialog.dismiss());")

	case ir.TypeCallModule:
		if p.Method != "" {
			return stmt("await modules[%s](page, %s);", tsQuote(p.Module), tsQuote(p.Method))
		}
		return stmt("await modules[%s](page);", tsQuote(p.Module))

	case ir.TypeBlocked:
		return []string{
			fmt.Sprintf("%s// BLOCKED: %s", indent, p.SourceText),
			fmt.Sprintf("%s// %s", indent, p.Reason),
		}
	}

	return stmt("// unsupported primitive: %s", p.Type)
}

func stmt(format string, args ...any) []string {
	return []string{indent + fmt.Sprintf(format, args...)}
}

// locator translates an abstract locator to a Playwright page accessor.
func locator(loc *ir.Locator) string {
	if loc == nil {
		return "page.locator('body')"
	}
	switch loc.Strategy {
	case ir.StrategyRole:
		opts := roleOptions(loc.Options)
		if opts == "" {
			return fmt.Sprintf("page.getByRole(%s)", tsQuote(loc.Value))
		}
		return fmt.Sprintf("page.getByRole(%s, %s)", tsQuote(loc.Value), opts)
	case ir.StrategyLabel:
		return fmt.Sprintf("page.getByLabel(%s)", tsQuote(loc.Value))
	case ir.StrategyPlaceholder:
		return fmt.Sprintf("page.getByPlaceholder(%s)", tsQuote(loc.Value))
	case ir.StrategyText:
		return fmt.Sprintf("page.getByText(%s)", tsQuote(loc.Value))
	case ir.StrategyTestID:
		return fmt.Sprintf("page.getByTestId(%s)", tsQuote(loc.Value))
	case ir.StrategyCSS:
		return fmt.Sprintf("page.locator(%s)", tsQuote(loc.Value))
	}
	return fmt.Sprintf("page.locator(%s)", tsQuote(loc.Value))
}

func roleOptions(o *ir.LocatorOptions) string {
	if o == nil {
		return ""
	}
	var parts []string
	if o.Name != "" {
		parts = append(parts, fmt.Sprintf("name: %s", tsQuote(o.Name)))
	}
	if o.Exact {
		parts = append(parts, "exact: true")
	}
	if o.Level > 0 {
		parts = append(parts, fmt.Sprintf("level: %d", o.Level))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// value renders a fill/select payload; non-literal kinds defer to the
// support module at runtime.
func value(v *ir.Value) string {
	if v == nil {
		return "''"
	}
	switch v.Kind {
	case ir.ValueActor:
		return fmt.Sprintf("actor(%s)", tsQuote(v.Value))
	case ir.ValueTestData:
		return fmt.Sprintf("testData(%s)", tsQuote(v.Value))
	case ir.ValueGenerated:
		return fmt.Sprintf("generated(%s)", tsQuote(v.Value))
	case ir.ValueRunID:
		return "runId()"
	}
	return tsQuote(v.Value)
}

// urlMatcher builds an exact string or substring regexp URL matcher.
func urlMatcher(url string, exact bool) string {
	if exact {
		return tsQuote(url)
	}
	return fmt.Sprintf("new RegExp(%s)", tsQuote(regexp.QuoteMeta(url)))
}

func usesSupport(j ir.Journey) bool {
	for _, step := range j.Steps {
		for _, p := range append(append([]ir.Primitive{}, step.Actions...), step.Assertions...) {
			if p.Type == ir.TypeCallModule {
				return true
			}
			if p.Value != nil && p.Value.Kind != ir.ValueLiteral {
				return true
			}
		}
	}
	return false
}

// tsQuote renders a single-quoted TypeScript string literal.
func tsQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}
