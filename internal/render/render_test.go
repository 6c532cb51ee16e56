package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artk-cli/artk/internal/blocks"
	"github.com/artk-cli/artk/internal/ir"
)

func orderJourney() ir.Journey {
	return ir.Journey{
		ID:    "JRN-0042",
		Title: "Customer places an order",
		Tier:  "smoke",
		Tags:  []string{"@artk", "@journey", "@JRN-0042", "@tier-smoke"},
		Steps: []ir.Step{
			{
				ID:          "AC-1",
				Description: "Reach checkout",
				Actions: []ir.Primitive{
					{Type: ir.TypeGoto, URL: "/cart"},
					{Type: ir.TypeClick, Locator: &ir.Locator{
						Strategy: ir.StrategyRole, Value: "button",
						Options: &ir.LocatorOptions{Name: "Checkout"},
					}},
				},
				Assertions: []ir.Primitive{
					{Type: ir.TypeExpectVisible, Locator: &ir.Locator{Strategy: ir.StrategyText, Value: "order summary"}},
				},
			},
			{
				ID:          "AC-2",
				Description: "Payment",
				Actions: []ir.Primitive{
					{Type: ir.TypeFill,
						Locator: &ir.Locator{Strategy: ir.StrategyLabel, Value: "Card number"},
						Value:   &ir.Value{Kind: ir.ValueLiteral, Value: "4242"}},
				},
			},
		},
	}
}

func TestRender_Scaffold(t *testing.T) {
	out := Render(orderJourney())

	assert.Contains(t, out, "import { test, expect } from '@playwright/test';")
	assert.Contains(t, out, "test('JRN-0042: Customer places an order @artk @journey @JRN-0042 @tier-smoke', async ({ page }) => {")
	assert.True(t, strings.HasSuffix(out, "});\n"))
}

func TestRender_OneManagedBlockPerStep(t *testing.T) {
	out := Render(orderJourney())

	f := blocks.Extract(out)
	require.Len(t, f.Blocks, 2)
	assert.Equal(t, "AC-1", f.Blocks[0].ID)
	assert.Equal(t, "AC-2", f.Blocks[1].ID)
	assert.Empty(t, f.Warnings)
}

func TestRender_ActionsBeforeAssertions(t *testing.T) {
	out := Render(orderJourney())

	goto_ := strings.Index(out, "await page.goto('/cart');")
	click := strings.Index(out, "await page.getByRole('button', { name: 'Checkout' }).click();")
	visible := strings.Index(out, "await expect(page.getByText('order summary')).toBeVisible();")
	fill := strings.Index(out, "await page.getByLabel('Card number').fill('4242');")

	require.True(t, goto_ >= 0 && click >= 0 && visible >= 0 && fill >= 0, "missing statement in:\n%s", out)
	assert.Less(t, goto_, click)
	assert.Less(t, click, visible)
	assert.Less(t, visible, fill)
}

func TestRender_BlockedBecomesComment(t *testing.T) {
	j := ir.Journey{
		ID: "JRN-0001", Title: "T",
		Steps: []ir.Step{{
			ID:      "AC-1",
			Actions: []ir.Primitive{ir.Blocked("Something unmappable", "no grammar or learned pattern matched")},
		}},
	}
	out := Render(j)
	assert.Contains(t, out, "// BLOCKED: Something unmappable")
	assert.Contains(t, out, "// no grammar or learned pattern matched")
	assert.NotContains(t, out, "await undefined")
}

func TestRender_LocatorStrategies(t *testing.T) {
	cases := []struct {
		loc  ir.Locator
		want string
	}{
		{ir.Locator{Strategy: ir.StrategyRole, Value: "heading", Options: &ir.LocatorOptions{Name: "Orders", Level: 2}},
			"page.getByRole('heading', { name: 'Orders', level: 2 })"},
		{ir.Locator{Strategy: ir.StrategyRole, Value: "button", Options: &ir.LocatorOptions{Name: "Save", Exact: true}},
			"page.getByRole('button', { name: 'Save', exact: true })"},
		{ir.Locator{Strategy: ir.StrategyPlaceholder, Value: "Search"}, "page.getByPlaceholder('Search')"},
		{ir.Locator{Strategy: ir.StrategyTestID, Value: "save-primary"}, "page.getByTestId('save-primary')"},
		{ir.Locator{Strategy: ir.StrategyCSS, Value: "#main .row"}, "page.locator('#main .row')"},
	}
	for _, tc := range cases {
		loc := tc.loc
		lines := primitiveLines(ir.Primitive{Type: ir.TypeClick, Locator: &loc})
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], tc.want)
	}
}

func TestRender_ValueKinds(t *testing.T) {
	loc := &ir.Locator{Strategy: ir.StrategyLabel, Value: "Email"}
	cases := []struct {
		v    ir.Value
		want string
	}{
		{ir.Value{Kind: ir.ValueLiteral, Value: "a@b.com"}, ".fill('a@b.com');"},
		{ir.Value{Kind: ir.ValueActor, Value: "email"}, ".fill(actor('email'));"},
		{ir.Value{Kind: ir.ValueTestData, Value: "card"}, ".fill(testData('card'));"},
		{ir.Value{Kind: ir.ValueGenerated, Value: "email"}, ".fill(generated('email'));"},
		{ir.Value{Kind: ir.ValueRunID}, ".fill(runId());"},
	}
	for _, tc := range cases {
		v := tc.v
		lines := primitiveLines(ir.Primitive{Type: ir.TypeFill, Locator: loc, Value: &v})
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], tc.want)
	}
}

func TestRender_SupportImportOnlyWhenNeeded(t *testing.T) {
	plain := Render(orderJourney())
	assert.NotContains(t, plain, "artk.support")

	j := orderJourney()
	j.Steps[1].Actions[0].Value = &ir.Value{Kind: ir.ValueGenerated, Value: "card"}
	assert.Contains(t, Render(j), "import { actor, testData, generated, runId, modules } from './artk.support';")
}

func TestRender_URLAssertions(t *testing.T) {
	exact := primitiveLines(ir.Primitive{Type: ir.TypeExpectURL, URL: "/orders/confirmation", Exact: true})
	assert.Equal(t, "  await expect(page).toHaveURL('/orders/confirmation');", exact[0])

	contains := primitiveLines(ir.Primitive{Type: ir.TypeExpectURL, URL: "/orders"})
	assert.Equal(t, `  await expect(page).toHaveURL(new RegExp('/orders'));`, contains[0])
}

func TestRender_ToastSeverityPicksRole(t *testing.T) {
	ok := primitiveLines(ir.Primitive{Type: ir.TypeExpectToast, Text: "Order placed", Severity: "success"})
	assert.Contains(t, ok[0], "page.getByRole('status')")

	bad := primitiveLines(ir.Primitive{Type: ir.TypeExpectToast, Text: "Payment failed", Severity: "error"})
	assert.Contains(t, bad[0], "page.getByRole('alert')")
}

func TestRender_QuoteEscaping(t *testing.T) {
	lines := primitiveLines(ir.Primitive{
		Type:    ir.TypeClick,
		Locator: &ir.Locator{Strategy: ir.StrategyText, Value: "Bob's orders"},
	})
	assert.Contains(t, lines[0], `page.getByText('Bob\'s orders')`)
}

func TestUpdates_RegenerateIntoEditedFile(t *testing.T) {
	j := orderJourney()
	original := Render(j)

	// A human edit outside the blocks must survive regeneration; the
	// changed step body must be rewritten.
	edited := strings.Replace(original,
		"test('JRN-0042",
		"// reviewed 2026-08-12\ntest('JRN-0042", 1)
	j.Steps[0].Actions[0].URL = "/cart?promo=1"

	out, warnings := blocks.Inject(edited, Updates(j))
	assert.Empty(t, warnings)
	assert.Contains(t, out, "// reviewed 2026-08-12")
	assert.Contains(t, out, "await page.goto('/cart?promo=1');")
	assert.NotContains(t, out, "await page.goto('/cart');")
}

func TestUpdates_Idempotent(t *testing.T) {
	j := orderJourney()
	original := Render(j)
	once, _ := blocks.Inject(original, Updates(j))
	assert.Equal(t, original, once)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "jrn-0042-customer-places-an-order.spec.ts", FileName(orderJourney()))
	assert.Equal(t, "jrn-0001-journey.spec.ts", FileName(ir.Journey{ID: "JRN-0001", Title: "!!!"}))
}
