package blocks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBlockFile = `import { test, expect } from '@playwright/test';

test('JRN-0042: Customer places an order', async ({ page }) => {
  // custom setup kept by hand
  // artk:managed:start [id=a]
  await page.goto('/cart');
  // artk:managed:end
  await doSomethingManual(page);
  // artk:managed:start [id=b]
  await page.getByRole('button', { name: 'Checkout' }).click();
  // artk:managed:end
});
`

func TestExtract_SplitsBlocksAndSegments(t *testing.T) {
	f := Extract(twoBlockFile)

	require.Len(t, f.Blocks, 2)
	assert.Equal(t, "a", f.Blocks[0].ID)
	assert.Equal(t, "b", f.Blocks[1].ID)
	assert.Equal(t, []string{"  await page.goto('/cart');"}, f.Blocks[0].Lines)
	assert.Equal(t, 5, f.Blocks[0].StartLine)

	require.Len(t, f.Segments, 3)
	assert.Contains(t, strings.Join(f.Segments[1], "\n"), "doSomethingManual")
	assert.Empty(t, f.Warnings)
}

func TestExtract_BlockWithoutID(t *testing.T) {
	content := "before\n// artk:managed:start\nbody\n// artk:managed:end\nafter"
	f := Extract(content)
	require.Len(t, f.Blocks, 1)
	assert.Empty(t, f.Blocks[0].ID)
	assert.Equal(t, []string{"body"}, f.Blocks[0].Lines)
}

func TestExtract_NestedStartClosesPreviousBlock(t *testing.T) {
	content := strings.Join([]string{
		"// artk:managed:start [id=outer]",
		"one",
		"// artk:managed:start [id=inner]",
		"two",
		"// artk:managed:end",
	}, "\n")
	f := Extract(content)

	require.Len(t, f.Blocks, 2)
	assert.Equal(t, "outer", f.Blocks[0].ID)
	assert.Equal(t, []string{"one"}, f.Blocks[0].Lines)
	assert.Equal(t, "inner", f.Blocks[1].ID)
	assert.Equal(t, []string{"two"}, f.Blocks[1].Lines)
	require.Len(t, f.Warnings, 1)
	assert.Contains(t, f.Warnings[0], "closing previous block")
}

func TestExtract_StrayEndKeptAsText(t *testing.T) {
	content := "line one\n// artk:managed:end\nline two"
	f := Extract(content)

	assert.Empty(t, f.Blocks)
	require.Len(t, f.Segments, 1)
	assert.Equal(t, []string{"line one", "// artk:managed:end", "line two"}, f.Segments[0])
	require.Len(t, f.Warnings, 1)
	assert.Contains(t, f.Warnings[0], "no open block")
}

func TestExtract_UnclosedBlockDiscarded(t *testing.T) {
	content := "kept\n// artk:managed:start [id=x]\nlost"
	f := Extract(content)

	assert.Empty(t, f.Blocks)
	require.Len(t, f.Warnings, 1)
	assert.Contains(t, f.Warnings[0], "not closed at end of file")

	// The discarded body must not leak back on injection.
	out, _ := Inject(content, nil)
	assert.NotContains(t, out, "lost")
	assert.Contains(t, out, "kept")
}

func TestInject_ReplacesMatchingBlockOnly(t *testing.T) {
	out, warnings := Inject(twoBlockFile, []Update{
		{ID: "a", Lines: []string{"  await page.goto('/cart?promo=1');"}},
	})

	assert.Contains(t, out, "/cart?promo=1")
	assert.NotContains(t, out, "await page.goto('/cart');\n")
	// Block b and the hand-written code are untouched.
	assert.Contains(t, out, "await page.getByRole('button', { name: 'Checkout' }).click();")
	assert.Contains(t, out, "await doSomethingManual(page);")
	assert.Contains(t, out, "// custom setup kept by hand")
	assert.Empty(t, warnings)
}

func TestInject_Idempotent(t *testing.T) {
	updates := []Update{
		{ID: "a", Lines: []string{"  await page.goto('/orders');"}},
		{ID: "b", Lines: []string{"  await expect(page).toHaveURL('/orders');"}},
	}

	once, _ := Inject(twoBlockFile, updates)
	twice, _ := Inject(once, updates)
	assert.Equal(t, once, twice)
}

func TestInject_NoUpdatesRoundTrips(t *testing.T) {
	out, warnings := Inject(twoBlockFile, nil)
	assert.Equal(t, twoBlockFile, out)
	assert.Empty(t, warnings)
}

func TestInject_PositionalMatchForIDlessBlocks(t *testing.T) {
	content := strings.Join([]string{
		"// artk:managed:start",
		"first old",
		"// artk:managed:end",
		"between",
		"// artk:managed:start",
		"second old",
		"// artk:managed:end",
	}, "\n")

	out, warnings := Inject(content, []Update{
		{Lines: []string{"first new"}},
		{Lines: []string{"second new"}},
	})

	assert.Contains(t, out, "first new")
	assert.Contains(t, out, "second new")
	assert.Contains(t, out, "between")
	assert.NotContains(t, out, "old")
	assert.Empty(t, warnings)
}

func TestInject_PositionalCountMismatchWarns(t *testing.T) {
	content := "// artk:managed:start\nold\n// artk:managed:end"
	out, warnings := Inject(content, []Update{
		{Lines: []string{"new"}},
		{Lines: []string{"extra"}},
	})

	assert.Contains(t, out, "new")
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "matching positionally")
}

func TestInject_ExcessIDlessUpdatesAppended(t *testing.T) {
	content := "user code\n// artk:managed:start\nold body\n// artk:managed:end"
	out, warnings := Inject(content, []Update{
		{Lines: []string{"first body"}},
		{Lines: []string{"second body"}},
	})

	assert.Contains(t, out, "first body")
	assert.Contains(t, out, "second body")
	assert.Contains(t, out, "user code")
	assert.NotContains(t, out, "old body")
	// The extra update lands in a new block after a blank line.
	assert.Contains(t, out, "// artk:managed:end\n\n// artk:managed:start\nsecond body")
	assert.Equal(t, 2, strings.Count(out, StartSentinel))
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "matching positionally")
	assert.Contains(t, warnings[1], "appended at end of file")
}

func TestInject_UnmatchedUpdateAppended(t *testing.T) {
	out, warnings := Inject(twoBlockFile, []Update{
		{ID: "c", Lines: []string{"  await page.reload();"}},
	})

	assert.Contains(t, out, "// artk:managed:start [id=c]")
	assert.Contains(t, out, "await page.reload();")
	assert.True(t, strings.Count(out, "// artk:managed:end") == 3)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "appended at end of file")
}
