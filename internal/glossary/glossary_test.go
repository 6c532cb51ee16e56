package glossary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_SynonymFolding(t *testing.T) {
	n := New()
	assert.Equal(t, "click the submit button", n.Normalize("Click the submit btn"))
}

func TestNormalize_QuotedSpansVerbatim(t *testing.T) {
	n := New()
	assert.Equal(t, "click the 'Submit Btn' button", n.Normalize("Click the 'Submit Btn' btn"))
}

func TestNormalize_DoubleQuotes(t *testing.T) {
	n := New()
	assert.Equal(t, `fill "Email Address" with data`, n.Normalize(`Fill "Email Address" with data`))
}

func TestNormalize_UnknownTokensLowercased(t *testing.T) {
	n := New()
	assert.Equal(t, "frobnicate the widget", n.Normalize("Frobnicate THE Widget"))
}

func TestNormalize_TrailingPunctuation(t *testing.T) {
	n := New()
	assert.Equal(t, "click the button.", n.Normalize("Click the btn."))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New()
	inputs := []string{
		"Click the submit btn",
		"Verify the 'Error Msg' is not visible",
		"User enters 'a@b.com' in the e-mail field",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalize_ExtraEntriesWin(t *testing.T) {
	n := New(Entry{Canonical: "pane", Synonyms: []string{"popup"}})
	assert.Equal(t, "close the pane", n.Normalize("Close the popup"))
}

func TestNormalize_UnterminatedQuote(t *testing.T) {
	n := New()
	assert.Equal(t, "click the 'Submit", n.Normalize("Click the 'Submit"))
}

func TestNormalize_CanonicalMapsToItself(t *testing.T) {
	n := New()
	assert.Equal(t, "button", n.Normalize("Button"))
}
