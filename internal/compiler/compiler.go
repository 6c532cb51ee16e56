// Package compiler orchestrates the per-step pipeline (glossary, hints,
// grammar, LLKB fallback) and assembles compiled steps into an IR journey.
// Steps compile strictly in document order; blocked and warning counts are
// cumulative, so ordering is a correctness requirement here.
package compiler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/artk-cli/artk/internal/glossary"
	"github.com/artk-cli/artk/internal/grammar"
	"github.com/artk-cli/artk/internal/hints"
	"github.com/artk-cli/artk/internal/ir"
	"github.com/artk-cli/artk/internal/journey"
	"github.com/artk-cli/artk/internal/llkb"
)

// Options control journey normalization.
type Options struct {
	// IncludeBlocked keeps blocked primitives inside steps. Blocked steps
	// are reported either way.
	IncludeBlocked bool
	// Strict drops any criterion containing a blocked primitive instead
	// of including it partially.
	Strict bool
}

// Stats summarize one normalization run.
type Stats struct {
	Steps           int // step texts fed through the pipeline
	Matched         int // resolved by the static grammar
	FromLLKB        int // resolved by the learned-pattern fallback
	FromHints       int // resolved by a behavior hint alone
	Blocked         int
	DroppedCriteria int // strict mode only
}

// BlockedStep surfaces one unmapped step text.
type BlockedStep struct {
	StepID string
	Text   string
	Reason string
}

// Result is the full outcome of normalizing one parsed journey.
type Result struct {
	Journey      ir.Journey
	BlockedSteps []BlockedStep
	Warnings     []string
	Stats        Stats
}

// Compiler compiles parsed journeys into IR. The zero value is not usable;
// construct with New so the glossary exists.
type Compiler struct {
	glossary *glossary.Normalizer
	store    *llkb.Store
	log      *zap.SugaredLogger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithGlossary substitutes the normalizer, e.g. with project terms added.
func WithGlossary(n *glossary.Normalizer) Option {
	return func(c *Compiler) { c.glossary = n }
}

// WithLLKB attaches the learned-pattern store. Without it the grammar is
// the only matcher and nothing is learned.
func WithLLKB(s *llkb.Store) Option {
	return func(c *Compiler) { c.store = s }
}

// WithLogger attaches a logger for per-step match tracing.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Compiler) { c.log = log }
}

// New returns a ready Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		glossary: glossary.New(),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize builds the IR journey for a parsed document. Soft per-step
// failures become blocked primitives and warnings, never errors; the only
// errors out of here are LLKB persistence failures, and those degrade to
// warnings too, so learning stays best-effort.
func (c *Compiler) Normalize(p *journey.Parsed, opts Options) *Result {
	res := &Result{}
	res.Warnings = append(res.Warnings, p.Warnings...)

	j := ir.Journey{
		ID:    p.Header.ID,
		Title: p.Header.Title,
		Tier:  p.Header.Tier,
		Scope: p.Header.Scope,
		Actor: p.Header.Actor,
		ModuleDependencies: ir.ModuleDependencies{
			Foundation: p.Header.Modules.Foundation,
			Feature:    p.Header.Modules.Features,
		},
		Completion: p.CompletionSignals(),
		Revision:   p.Header.Revision,
		SourcePath: p.SourcePath,
	}
	j.Tags = canonicalTags(&p.Header)
	if p.Header.Data != nil {
		j.Data = &ir.DataSpec{Strategy: p.Header.Data.Strategy, Cleanup: p.Header.Data.Cleanup}
	}

	// Acceptance criteria drive step structure; procedural steps join the
	// criterion they back-reference. Without criteria the flat procedural
	// list compiles one step per line.
	if len(p.Criteria) > 0 {
		backrefs := make(map[string][]journey.ProceduralStep)
		for _, ps := range p.Procedural {
			if ps.CriterionRef == "" {
				res.Warnings = append(res.Warnings, fmt.Sprintf("procedural step %d has no (AC-n) back-reference and was skipped", ps.Number))
				continue
			}
			backrefs[ps.CriterionRef] = append(backrefs[ps.CriterionRef], ps)
		}

		for _, criterion := range p.Criteria {
			texts := append([]string(nil), criterion.Bullets...)
			for _, ps := range backrefs[criterion.ID] {
				texts = append(texts, ps.Text)
			}
			step, blocked := c.compileStep(criterion.ID, criterion.Title, texts, j.ID, opts, res)
			if opts.Strict && len(blocked) > 0 {
				res.Stats.DroppedCriteria++
				res.Warnings = append(res.Warnings, fmt.Sprintf("criterion %s dropped in strict mode: %d blocked step(s)", criterion.ID, len(blocked)))
				continue
			}
			j.Steps = append(j.Steps, step)
		}
	} else if len(p.Procedural) > 0 {
		for _, ps := range p.Procedural {
			id := fmt.Sprintf("step-%d", ps.Number)
			step, blocked := c.compileStep(id, ps.Text, []string{ps.Text}, j.ID, opts, res)
			if opts.Strict && len(blocked) > 0 {
				res.Stats.DroppedCriteria++
				continue
			}
			j.Steps = append(j.Steps, step)
		}
	}

	for _, ss := range p.Structured {
		id := fmt.Sprintf("step-%d", ss.Number)
		texts := make([]string, 0, len(ss.Bullets))
		for _, b := range ss.Bullets {
			texts = append(texts, b.Text)
		}
		step, blocked := c.compileStep(id, ss.Name, texts, j.ID, opts, res)
		if opts.Strict && len(blocked) > 0 {
			res.Stats.DroppedCriteria++
			res.Warnings = append(res.Warnings, fmt.Sprintf("step %d dropped in strict mode: %d blocked step(s)", ss.Number, len(blocked)))
			continue
		}
		j.Steps = append(j.Steps, step)
	}

	if terminal := completionStep(j.Completion); terminal != nil {
		j.Steps = append(j.Steps, *terminal)
	}

	res.Journey = j
	return res
}

// compileStep runs every text of one step through the pipeline and
// partitions the results into actions and assertions.
func (c *Compiler) compileStep(id, description string, texts []string, journeyID string, opts Options, res *Result) (ir.Step, []BlockedStep) {
	step := ir.Step{ID: id, Description: description, SourceText: strings.Join(texts, "\n")}
	var blocked []BlockedStep

	for _, text := range texts {
		prim, warnings, source := c.compileText(text, journeyID)
		res.Warnings = append(res.Warnings, warnings...)
		res.Stats.Steps++

		switch source {
		case sourceGrammar:
			res.Stats.Matched++
		case sourceLLKB:
			res.Stats.FromLLKB++
		case sourceHint:
			res.Stats.FromHints++
		}

		if source == sourceNone {
			res.Stats.Blocked++
			b := BlockedStep{StepID: id, Text: text, Reason: prim.Reason}
			blocked = append(blocked, b)
			res.BlockedSteps = append(res.BlockedSteps, b)
			if opts.IncludeBlocked {
				step.Actions = append(step.Actions, prim)
			}
			continue
		}

		if prim.Type.IsAssertion() {
			step.Assertions = append(step.Assertions, prim)
		} else {
			step.Actions = append(step.Actions, prim)
		}
	}

	return step, blocked
}

type matchSource int

const (
	sourceNone matchSource = iota
	sourceGrammar
	sourceLLKB
	sourceHint
)

// compileText resolves one step text to a primitive and reports which
// matcher resolved it. sourceNone means the returned primitive is blocked;
// it is still returned so callers can include it.
func (c *Compiler) compileText(text, journeyID string) (ir.Primitive, []string, matchSource) {
	hres := hints.Extract(text)
	warnings := hres.Warnings
	normalized := c.glossary.Normalize(hres.CleanText)

	// Grammar hits are not recorded: learned patterns exist to cover what
	// the grammar cannot, and recording covered text would only set up
	// redundant promotions later.
	prim, ok := grammar.Match(normalized)
	if ok {
		c.log.Debugw("grammar match", "text", normalized, "type", prim.Type)
		c.applyHints(&prim, hres)
		return prim, warnings, sourceGrammar
	}

	if c.store != nil {
		match, err := c.store.Match(normalized)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("llkb lookup failed: %v", err))
		} else if match != nil {
			c.log.Debugw("llkb match", "text", normalized, "type", match.Primitive.Type, "confidence", match.Confidence)
			prim = match.Primitive
			c.applyHints(&prim, hres)
			c.recordOutcome(normalized, journeyID, prim, true)
			return prim, warnings, sourceLLKB
		}
	}

	// A module hint can resolve a step the matchers cannot, and teaches
	// the store a new pattern in the process.
	if hres.Behavior.Module != "" {
		prim = ir.Primitive{Type: ir.TypeCallModule, Module: hres.Behavior.Module, Method: hres.Behavior.Signal}
		c.recordOutcome(normalized, journeyID, prim, true)
		return prim, warnings, sourceHint
	}

	c.log.Debugw("no match", "text", normalized)
	c.recordOutcome(normalized, journeyID, ir.Primitive{}, false)
	warnings = append(warnings, fmt.Sprintf("no pattern matched: %q", text))
	return ir.Blocked(text, "no grammar or learned pattern matched"), warnings, sourceNone
}

// applyHints overrides the matched primitive with explicit locator and
// behavior hints. Hints always win over inference.
func (c *Compiler) applyHints(prim *ir.Primitive, hres hints.Result) {
	if !hres.HasHints {
		return
	}

	loc := hres.Locator
	switch {
	case loc.TestID != "":
		prim.Locator = &ir.Locator{Strategy: ir.StrategyTestID, Value: loc.TestID}
	case loc.Role != "":
		name := ""
		if prim.Locator != nil && prim.Locator.Options != nil {
			name = prim.Locator.Options.Name
		}
		if loc.Text != "" {
			name = loc.Text
		}
		l := &ir.Locator{Strategy: ir.StrategyRole, Value: loc.Role}
		if name != "" || loc.Level > 0 || (loc.Exact != nil && *loc.Exact) {
			l.Options = &ir.LocatorOptions{Name: name, Level: loc.Level}
			if loc.Exact != nil {
				l.Options.Exact = *loc.Exact
			}
		}
		prim.Locator = l
	case loc.Label != "":
		prim.Locator = &ir.Locator{Strategy: ir.StrategyLabel, Value: loc.Label}
	case loc.Text != "":
		prim.Locator = &ir.Locator{Strategy: ir.StrategyText, Value: loc.Text}
	}

	if loc.Exact != nil && prim.Locator != nil {
		if prim.Locator.Options == nil {
			prim.Locator.Options = &ir.LocatorOptions{}
		}
		prim.Locator.Options.Exact = *loc.Exact
	}
	if hres.Behavior.Timeout > 0 && prim.Type == ir.TypeWaitForTimeout {
		prim.Timeout = hres.Behavior.Timeout
	}
}

// recordOutcome persists the accepted primitive (or the miss) to the
// store. Persistence failures never block compilation.
func (c *Compiler) recordOutcome(normalized, journeyID string, prim ir.Primitive, success bool) {
	if c.store == nil {
		return
	}
	var err error
	if success {
		err = c.store.RecordSuccess(normalized, journeyID, prim)
	} else {
		err = c.store.RecordFailure(normalized)
	}
	if err != nil {
		c.log.Warnw("llkb record failed", "error", err)
	}
}

// canonicalTags derives the journey's tag set: fixed tags, identity tags,
// then user tags normalized to a leading @.
func canonicalTags(h *journey.Header) []string {
	tags := []string{"@artk", "@journey", "@" + h.ID, "@tier-" + h.Tier}
	if h.Scope != "" {
		tags = append(tags, "@scope-"+h.Scope)
	}
	if h.Actor != "" {
		tags = append(tags, "@actor-"+h.Actor)
	}
	for _, t := range h.Tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "@") {
			t = "@" + t
		}
		tags = append(tags, t)
	}
	return tags
}

// completionStep converts declared completion signals into a terminal
// assertion-only step.
func completionStep(signals []ir.CompletionSignal) *ir.Step {
	if len(signals) == 0 {
		return nil
	}

	step := &ir.Step{ID: "completion", Description: "Completion signals"}
	for _, sig := range signals {
		exact := sig.Options["exact"] == "true"
		switch sig.Type {
		case "url":
			step.Assertions = append(step.Assertions, ir.Primitive{Type: ir.TypeExpectURL, URL: sig.Value, Exact: exact})
		case "title":
			step.Assertions = append(step.Assertions, ir.Primitive{Type: ir.TypeExpectTitle, Text: sig.Value, Exact: exact})
		case "toast":
			step.Assertions = append(step.Assertions, ir.Primitive{
				Type:     ir.TypeExpectToast,
				Text:     sig.Value,
				Severity: grammar.SniffToastSeverity(sig.Value),
			})
		case "element":
			t := ir.TypeExpectVisible
			if sig.Options["state"] == "hidden" {
				t = ir.TypeExpectHidden
			}
			step.Assertions = append(step.Assertions, ir.Primitive{
				Type:    t,
				Locator: &ir.Locator{Strategy: ir.StrategyText, Value: sig.Value},
			})
		}
	}
	return step
}
