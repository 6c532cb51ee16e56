package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artk-cli/artk/internal/ir"
	"github.com/artk-cli/artk/internal/llkb"
)

func seedPattern(t *testing.T, text string, successes int, journeys ...string) {
	t.Helper()
	store := llkb.Open(llkbPath)
	prim := ir.Primitive{Type: ir.TypeClick, Locator: &ir.Locator{Strategy: ir.StrategyTestID, Value: "x"}}
	for i := 0; i < successes; i++ {
		for _, j := range journeys {
			require.NoError(t, store.RecordSuccess(text, j, prim))
		}
	}
}

func TestLLKBList_Empty(t *testing.T) {
	inTempDir(t)
	runInit(t)

	var buf bytes.Buffer
	require.NoError(t, RunLLKBList(&buf))
	assert.Contains(t, buf.String(), "no learned patterns")
}

func TestLLKBList_ShowsPatterns(t *testing.T) {
	inTempDir(t)
	runInit(t)
	seedPattern(t, "smashes the launcher", 3, "JRN-0001")

	var buf bytes.Buffer
	require.NoError(t, RunLLKBList(&buf))
	out := buf.String()

	assert.Contains(t, out, "smashes the launcher")
	assert.Contains(t, out, "3/0")
}

func TestLLKBPromote_MarksReadyPatterns(t *testing.T) {
	inTempDir(t)
	runInit(t)
	// 40 successes across two journeys clears every promotion gate.
	seedPattern(t, "taps the 'Go' button", 20, "JRN-0001", "JRN-0002")

	var buf bytes.Buffer
	require.NoError(t, RunLLKBPromote(&buf))
	out := buf.String()

	assert.Contains(t, out, `promoted "taps the 'go' button"`)
	assert.Contains(t, out, "grammar candidate:")

	patterns, err := llkb.Open(llkbPath).All()
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.True(t, patterns[0].PromotedToCore)
}

func TestLLKBPromote_NothingReady(t *testing.T) {
	inTempDir(t)
	runInit(t)
	seedPattern(t, "pokes the widget", 2, "JRN-0001")

	var buf bytes.Buffer
	require.NoError(t, RunLLKBPromote(&buf))
	assert.Contains(t, buf.String(), "no patterns ready for promotion")
}

func TestLLKBPrune_NothingToPrune(t *testing.T) {
	inTempDir(t)
	runInit(t)
	seedPattern(t, "taps the button", 5, "JRN-0001")

	var buf bytes.Buffer
	require.NoError(t, RunLLKBPrune(&buf, 90, 0.3))
	assert.Contains(t, buf.String(), "nothing to prune")
}

func TestLLKBExport_EmitsJSON(t *testing.T) {
	inTempDir(t)
	runInit(t)
	seedPattern(t, "taps the button", 20, "JRN-0001", "JRN-0002")

	var buf bytes.Buffer
	require.NoError(t, RunLLKBExport(&buf))
	out := buf.String()

	assert.Contains(t, out, `"trigger": "taps the button"`)
	assert.Contains(t, out, `"sourceCount": 2`)
}
