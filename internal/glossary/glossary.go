// Package glossary canonicalizes step text before grammar matching:
// synonym folding plus case folding, leaving quoted spans untouched.
package glossary

import (
	"strings"
	"sync"
)

// Entry maps a canonical term to the synonyms that fold into it.
type Entry struct {
	Canonical string
	Synonyms  []string
}

// Builtin is the default glossary. Verbs the grammar keys on are never
// listed as synonyms here; folding them would change classification.
var Builtin = []Entry{
	{Canonical: "button", Synonyms: []string{"btn"}},
	{Canonical: "checkbox", Synonyms: []string{"chk", "tickbox"}},
	{Canonical: "link", Synonyms: []string{"hyperlink"}},
	{Canonical: "email", Synonyms: []string{"e-mail"}},
	{Canonical: "password", Synonyms: []string{"pwd", "passwd"}},
	{Canonical: "message", Synonyms: []string{"msg"}},
	{Canonical: "dialog", Synonyms: []string{"dialogue", "popup"}},
	{Canonical: "dropdown", Synonyms: []string{"drop-down", "picklist"}},
	{Canonical: "page", Synonyms: []string{"screen"}},
	{Canonical: "toast", Synonyms: []string{"snackbar"}},
}

// Normalizer folds synonyms and case. The synonym map is built lazily once
// per instance; construct isolated instances in tests rather than sharing.
type Normalizer struct {
	entries []Entry

	once    sync.Once
	mapping map[string]string
}

// New returns a Normalizer over the builtin glossary plus any extra entries.
// Extra entries win over builtin ones for the same synonym.
func New(extra ...Entry) *Normalizer {
	entries := make([]Entry, 0, len(Builtin)+len(extra))
	entries = append(entries, Builtin...)
	entries = append(entries, extra...)
	return &Normalizer{entries: entries}
}

func (n *Normalizer) build() {
	n.mapping = make(map[string]string)
	for _, e := range n.entries {
		canonical := strings.ToLower(e.Canonical)
		n.mapping[canonical] = canonical
		for _, s := range e.Synonyms {
			n.mapping[strings.ToLower(s)] = canonical
		}
	}
}

// Normalize rewrites text token by token: quoted spans pass through
// verbatim, mapped tokens become their canonical form, everything else is
// lowercased. Unknown tokens are never an error.
func (n *Normalizer) Normalize(text string) string {
	n.once.Do(n.build)

	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			b.WriteByte(c)
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(text[i+1:], c)
			if end < 0 {
				// Unterminated quote: keep the rest verbatim.
				b.WriteString(text[i:])
				return b.String()
			}
			b.WriteString(text[i : i+end+2])
			i += end + 2
		default:
			j := i
			for j < len(text) && text[j] != ' ' && text[j] != '\t' {
				j++
			}
			b.WriteString(n.fold(text[i:j]))
			i = j
		}
	}
	return b.String()
}

// fold maps a single unquoted token, tolerating trailing punctuation.
func (n *Normalizer) fold(token string) string {
	lower := strings.ToLower(token)
	if canonical, ok := n.mapping[lower]; ok {
		return canonical
	}
	trimmed := strings.TrimRight(lower, ".,;:!?")
	if canonical, ok := n.mapping[trimmed]; ok {
		return canonical + lower[len(trimmed):]
	}
	return lower
}
