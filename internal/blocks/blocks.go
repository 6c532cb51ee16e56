// Package blocks implements managed-region regeneration for generated
// test files. Generated code lives between start/end sentinels; everything
// outside a block is hand-written and survives regeneration verbatim.
package blocks

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// StartSentinel opens a managed block. An id token may follow:
	// "// artk:managed:start [id=fill-login]".
	StartSentinel = "// artk:managed:start"
	// EndSentinel closes the nearest open managed block.
	EndSentinel = "// artk:managed:end"
)

var idToken = regexp.MustCompile(`\[id=([\w.-]+)\]`)

// Block is one managed region of a file.
type Block struct {
	// ID is the token from the start sentinel, empty when absent.
	ID string
	// Lines is the block body, sentinels excluded.
	Lines []string
	// StartLine is the 1-based line of the start sentinel in the source.
	StartLine int

	// Raw sentinel lines, indentation included, so injection reproduces
	// the file byte for byte.
	startRaw string
	endRaw   string
}

// File is a source file split into managed blocks and the text around
// them. Segments and Blocks interleave: Segments[0], Blocks[0],
// Segments[1], Blocks[1], ..., Segments[len(Blocks)].
type File struct {
	Segments [][]string
	Blocks   []Block
	Warnings []string
}

// Extract splits content into managed blocks and surrounding text.
// Malformed sentinel structure never fails: a start inside an open block
// closes the previous block early, a stray end sentinel is kept as
// ordinary text, and a block left open at EOF is discarded. Each repair
// produces a warning.
func Extract(content string) *File {
	f := &File{}
	lines := strings.Split(content, "\n")

	var segment []string
	var open *Block

	closeBlock := func() {
		f.Blocks = append(f.Blocks, *open)
		open = nil
		segment = nil
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, StartSentinel) {
			if open != nil {
				f.Warnings = append(f.Warnings, fmt.Sprintf("line %d: start sentinel inside open block %s; closing previous block", i+1, describe(open)))
				closeBlock()
			}
			f.Segments = append(f.Segments, segment)
			segment = nil
			id := ""
			if m := idToken.FindStringSubmatch(trimmed); m != nil {
				id = m[1]
			}
			open = &Block{ID: id, StartLine: i + 1, startRaw: line}
			continue
		}

		if trimmed == EndSentinel {
			if open == nil {
				f.Warnings = append(f.Warnings, fmt.Sprintf("line %d: end sentinel with no open block; kept as text", i+1))
				segment = append(segment, line)
				continue
			}
			open.endRaw = line
			closeBlock()
			continue
		}

		if open != nil {
			open.Lines = append(open.Lines, line)
		} else {
			segment = append(segment, line)
		}
	}

	if open != nil {
		f.Warnings = append(f.Warnings, fmt.Sprintf("line %d: block %s not closed at end of file; discarded", open.StartLine, describe(open)))
		open = nil
	}
	f.Segments = append(f.Segments, segment)

	return f
}

func describe(b *Block) string {
	if b.ID == "" {
		return "(no id)"
	}
	return b.ID
}

// Update is one regenerated block body keyed by id.
type Update struct {
	ID    string
	Lines []string
}

// Inject rewrites content, replacing each managed block's body with the
// update bearing the same id. Blocks without an id are replaced
// positionally against the id-less updates, in order. Updates that match
// no existing block are appended as new blocks at the end of the file.
// Hand-written text outside blocks is reproduced byte for byte.
func Inject(content string, updates []Update) (string, []string) {
	f := Extract(content)
	warnings := f.Warnings

	byID := make(map[string][]string)
	var positional [][]string
	for _, u := range updates {
		if u.ID == "" {
			positional = append(positional, u.Lines)
			continue
		}
		byID[u.ID] = append([]string(nil), u.Lines...)
	}

	idlessBlocks := 0
	for _, b := range f.Blocks {
		if b.ID == "" {
			idlessBlocks++
		}
	}
	if idlessBlocks != len(positional) && (idlessBlocks > 0 || len(positional) > 0) {
		warnings = append(warnings, fmt.Sprintf("%d id-less block(s) in file but %d id-less update(s); matching positionally", idlessBlocks, len(positional)))
	}

	matched := make(map[string]bool)
	nextPositional := 0

	var out []string
	for i, b := range f.Blocks {
		out = append(out, f.Segments[i]...)

		body := b.Lines
		if b.ID != "" {
			if lines, ok := byID[b.ID]; ok {
				body = lines
				matched[b.ID] = true
			}
		} else if nextPositional < len(positional) {
			body = positional[nextPositional]
			nextPositional++
		}

		start, end := b.startRaw, b.endRaw
		if start == "" {
			start = sentinelStart(b.ID)
		}
		if end == "" {
			end = EndSentinel
		}
		out = append(out, start)
		out = append(out, body...)
		out = append(out, end)
	}
	out = append(out, f.Segments[len(f.Blocks)]...)

	// Updates with no block to land in become new blocks at the end,
	// preserving update order. Id-less updates beyond the positional
	// pairing are unmatched too.
	idlessSeen := 0
	for _, u := range updates {
		if u.ID == "" {
			idlessSeen++
			if idlessSeen <= nextPositional {
				continue
			}
			warnings = append(warnings, "id-less block not found; appended at end of file")
		} else {
			if matched[u.ID] {
				continue
			}
			warnings = append(warnings, fmt.Sprintf("block %s not found; appended at end of file", u.ID))
		}
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, sentinelStart(u.ID))
		out = append(out, u.Lines...)
		out = append(out, EndSentinel)
	}

	return strings.Join(out, "\n"), warnings
}

func sentinelStart(id string) string {
	if id == "" {
		return StartSentinel
	}
	return fmt.Sprintf("%s [id=%s]", StartSentinel, id)
}
