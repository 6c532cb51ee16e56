package hints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleLocatorHint(t *testing.T) {
	res := Extract("Click the Save button (role=button)")
	assert.True(t, res.HasHints)
	assert.Equal(t, "button", res.Locator.Role)
	assert.Equal(t, "Click the Save button", res.CleanText)
	assert.Empty(t, res.Warnings)
}

func TestExtract_MultiplePairs(t *testing.T) {
	res := Extract("Click Save (role=button, exact=true, level=2)")
	assert.Equal(t, "button", res.Locator.Role)
	require.NotNil(t, res.Locator.Exact)
	assert.True(t, *res.Locator.Exact)
	assert.Equal(t, 2, res.Locator.Level)
	assert.Equal(t, "Click Save", res.CleanText)
}

func TestExtract_BehaviorHints(t *testing.T) {
	res := Extract("Complete checkout (signal=toast, module=checkout, wait=networkidle, timeout=5000)")
	assert.Equal(t, "toast", res.Behavior.Signal)
	assert.Equal(t, "checkout", res.Behavior.Module)
	assert.Equal(t, "networkidle", res.Behavior.Wait)
	assert.Equal(t, 5000, res.Behavior.Timeout)
}

func TestExtract_UnknownKeyWarnsAndDrops(t *testing.T) {
	res := Extract("Click Save (color=red, role=button)")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "color")
	assert.Equal(t, "button", res.Locator.Role)
	assert.Equal(t, "Click Save", res.CleanText)
}

func TestExtract_InvalidRoleWarnsButAccepted(t *testing.T) {
	res := Extract("Click Save (role=frobber)")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "frobber")
	assert.Equal(t, "frobber", res.Locator.Role)
}

func TestExtract_OrdinaryParentheticalUntouched(t *testing.T) {
	res := Extract("Click the Save button (the big one)")
	assert.False(t, res.HasHints)
	assert.Equal(t, "Click the Save button (the big one)", res.CleanText)
}

func TestExtract_QuotedValue(t *testing.T) {
	res := Extract("Click it (label='Full Name')")
	assert.Equal(t, "Full Name", res.Locator.Label)
}

func TestExtract_QuotedValueWithComma(t *testing.T) {
	res := Extract("The user clicks it (label='Save, continue')")
	assert.True(t, res.HasHints)
	assert.Equal(t, "Save, continue", res.Locator.Label)
	assert.Equal(t, "The user clicks it", res.CleanText)
	assert.Empty(t, res.Warnings)
}

func TestExtract_QuotedCommaAmongOtherPairs(t *testing.T) {
	res := Extract(`Fill it in (role=textbox, text="One, two, three", exact=true)`)
	assert.Equal(t, "textbox", res.Locator.Role)
	assert.Equal(t, "One, two, three", res.Locator.Text)
	require.NotNil(t, res.Locator.Exact)
	assert.True(t, *res.Locator.Exact)
}

func TestExtract_NoHints(t *testing.T) {
	res := Extract("Click the Save button")
	assert.False(t, res.HasHints)
	assert.Equal(t, "Click the Save button", res.CleanText)
	assert.Empty(t, res.Warnings)
}

func TestExtract_Idempotent(t *testing.T) {
	first := Extract("Click Save (role=button) now (testid=save-btn)")
	assert.Equal(t, "Click Save now", first.CleanText)
	second := Extract(first.CleanText)
	assert.False(t, second.HasHints)
	assert.Equal(t, first.CleanText, second.CleanText)
}

func TestExtract_BadLevelWarns(t *testing.T) {
	res := Extract("Check heading (level=two)")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "level")
	assert.Equal(t, 0, res.Locator.Level)
}
