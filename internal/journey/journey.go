// Package journey parses journey documents: a YAML front-matter header
// followed by a prose body of acceptance criteria, procedural steps, and
// optional structured step blocks. Header problems are hard failures;
// body oddities only accumulate warnings.
package journey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artk-cli/artk/internal/ir"
)

// Header is the structured front matter of a journey document.
type Header struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Status   string   `yaml:"status"`
	Tier     string   `yaml:"tier"`
	Scope    string   `yaml:"scope"`
	Actor    string   `yaml:"actor"`
	Revision int      `yaml:"revision"`
	Modules  Modules  `yaml:"modules"`
	Tests    []string `yaml:"tests"`

	Data       *Data             `yaml:"data"`
	Completion []Completion      `yaml:"completion"`
	Links      map[string]string `yaml:"links"`
	Tags       []string          `yaml:"tags"`
	Flags      []string          `yaml:"flags"`

	Prerequisites []string            `yaml:"prerequisites"`
	NegativePaths []string            `yaml:"negativePaths"`
	TestData      []map[string]string `yaml:"testData"`

	VisualRegression bool `yaml:"visualRegression"`
	Accessibility    bool `yaml:"accessibility"`
	Performance      bool `yaml:"performance"`
}

// Modules lists the page-object modules a journey depends on.
type Modules struct {
	Foundation []string `yaml:"foundation"`
	Features   []string `yaml:"features"`
}

// Data declares the test-data strategy.
type Data struct {
	Strategy string `yaml:"strategy"`
	Cleanup  string `yaml:"cleanup"`
}

// Completion is one declared success signal.
type Completion struct {
	Type    string            `yaml:"type"`
	Value   string            `yaml:"value"`
	Options map[string]string `yaml:"options"`
}

// Criterion is one `### AC-n:` section with its bullets.
type Criterion struct {
	ID      string // e.g. "AC-1"
	Title   string
	Bullets []string
	Line    int // 1-based line of the heading
}

// ProceduralStep is one numbered line, optionally back-referencing a
// criterion with a trailing (AC-n).
type ProceduralStep struct {
	Number       int
	Text         string
	CriterionRef string
	Line         int
}

// StructuredBullet is one `- **Action|Wait for|Assert**:` line.
type StructuredBullet struct {
	Kind string // action, wait, assert
	Text string
}

// StructuredStep is one `### Step n:` block.
type StructuredStep struct {
	Number  int
	Name    string
	Bullets []StructuredBullet
	Line    int
}

// Parsed is the application model of one journey document.
type Parsed struct {
	Header     Header
	Criteria   []Criterion
	Procedural []ProceduralStep
	Structured []StructuredStep
	SourcePath string
	Warnings   []string
}

// ParseError is a hard parse failure carrying the file path and cause.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing journey %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	idPattern        = regexp.MustCompile(`^JRN-\d{4}$`)
	acHeading        = regexp.MustCompile(`(?i)^###\s+(AC-\d+)\s*:\s*(.+)$`)
	stepHeading      = regexp.MustCompile(`(?i)^###\s+step\s+(\d+)\s*:\s*(.+)$`)
	numberedStep     = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
	criterionBackref = regexp.MustCompile(`(?i)\s*\((AC-\d+)\)\s*$`)
	structBullet     = regexp.MustCompile(`(?i)^[-*]\s+\*\*(action|wait for|assert)\*\*\s*:\s*(.+)$`)
)

var validStatus = map[string]bool{"draft": true, "ready": true, "active": true, "deprecated": true}
var validTier = map[string]bool{"smoke": true, "release": true, "regression": true}

// Parse reads a journey document. Header problems (missing or malformed
// front matter, schema violations) fail the whole parse; everything past
// the header degrades to warnings.
func Parse(path string, content []byte) (*Parsed, error) {
	header, body, err := splitFrontMatter(string(content))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var h Header
	if err := yaml.Unmarshal([]byte(header), &h); err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("invalid header: %w", err)}
	}
	if err := validateHeader(&h); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	p := &Parsed{Header: h, SourcePath: path}
	parseBody(p, body)
	return p, nil
}

func validateHeader(h *Header) error {
	if h.ID == "" {
		return fmt.Errorf("header is missing id")
	}
	if !idPattern.MatchString(h.ID) {
		return fmt.Errorf("id %q does not match JRN-####", h.ID)
	}
	if h.Title == "" {
		return fmt.Errorf("header is missing title")
	}
	if h.Status != "" && !validStatus[h.Status] {
		return fmt.Errorf("unknown status %q", h.Status)
	}
	if h.Tier == "" {
		return fmt.Errorf("header is missing tier")
	}
	if !validTier[h.Tier] {
		return fmt.Errorf("unknown tier %q", h.Tier)
	}
	for _, c := range h.Completion {
		switch c.Type {
		case "url", "title", "toast", "element":
		default:
			return fmt.Errorf("unknown completion type %q", c.Type)
		}
	}
	return nil
}

// splitFrontMatter separates the delimited YAML header from the body.
func splitFrontMatter(content string) (header, body string, err error) {
	lines := strings.Split(content, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return "", "", fmt.Errorf("missing front-matter header")
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[start+1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", fmt.Errorf("unterminated front-matter header")
}

type bodySection int

const (
	sectionNone bodySection = iota
	sectionCriteria
	sectionProcedural
	sectionData
)

func parseBody(p *Parsed, body string) {
	lines := strings.Split(body, "\n")
	section := sectionNone

	var criterion *Criterion
	var structured *StructuredStep

	flushCriterion := func() {
		if criterion != nil {
			p.Criteria = append(p.Criteria, *criterion)
			criterion = nil
		}
	}
	flushStructured := func() {
		if structured != nil {
			p.Structured = append(p.Structured, *structured)
			structured = nil
		}
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "## ") {
			flushCriterion()
			flushStructured()
			switch {
			case strings.EqualFold(line, "## Acceptance Criteria"):
				section = sectionCriteria
			case strings.EqualFold(line, "## Procedural Steps"):
				section = sectionProcedural
			case strings.EqualFold(line, "## Data/Environment"):
				section = sectionData
			default:
				section = sectionNone
			}
			continue
		}

		if m := acHeading.FindStringSubmatch(line); m != nil {
			flushCriterion()
			flushStructured()
			if section != sectionCriteria {
				p.Warnings = append(p.Warnings, fmt.Sprintf("line %d: criterion %s outside Acceptance Criteria section", i+1, m[1]))
			}
			criterion = &Criterion{ID: m[1], Title: strings.TrimSpace(m[2]), Line: i + 1}
			continue
		}

		if m := stepHeading.FindStringSubmatch(line); m != nil {
			flushCriterion()
			flushStructured()
			n, _ := strconv.Atoi(m[1])
			structured = &StructuredStep{Number: n, Name: strings.TrimSpace(m[2]), Line: i + 1}
			continue
		}

		if structured != nil {
			if m := structBullet.FindStringSubmatch(line); m != nil {
				kind := strings.ToLower(m[1])
				if kind == "wait for" {
					kind = "wait"
				}
				structured.Bullets = append(structured.Bullets, StructuredBullet{Kind: kind, Text: strings.TrimSpace(m[2])})
				continue
			}
		}

		if criterion != nil && (strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")) {
			criterion.Bullets = append(criterion.Bullets, strings.TrimSpace(line[2:]))
			continue
		}

		if section == sectionProcedural {
			if m := numberedStep.FindStringSubmatch(line); m != nil {
				n, _ := strconv.Atoi(m[1])
				text := strings.TrimSpace(m[2])
				ref := ""
				if b := criterionBackref.FindStringSubmatch(text); b != nil {
					ref = strings.ToUpper(b[1])
					text = strings.TrimSpace(criterionBackref.ReplaceAllString(text, ""))
				}
				p.Procedural = append(p.Procedural, ProceduralStep{Number: n, Text: text, CriterionRef: ref, Line: i + 1})
				continue
			}
		}
	}

	flushCriterion()
	flushStructured()
}

// CompletionSignals converts the header's completion entries to the IR
// form consumed by the compiler.
func (p *Parsed) CompletionSignals() []ir.CompletionSignal {
	out := make([]ir.CompletionSignal, 0, len(p.Header.Completion))
	for _, c := range p.Header.Completion {
		out = append(out, ir.CompletionSignal{Type: c.Type, Value: c.Value, Options: c.Options})
	}
	return out
}
