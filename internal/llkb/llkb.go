// Package llkb is the learned-pattern knowledge base: a confidence-scored
// fallback consulted only after the static grammar declines a step. Pattern
// outcomes are recorded per normalized text and scored with the Wilson
// lower bound, so trust accrues slowly and decays on failure.
package llkb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artk-cli/artk/internal/ir"
)

// LearnedPattern is one step phrasing the store has seen resolved before.
type LearnedPattern struct {
	ID              string       `json:"id"`
	OriginalText    string       `json:"originalText"`
	NormalizedText  string       `json:"normalizedText"`
	MappedPrimitive ir.Primitive `json:"mappedPrimitive"`
	Confidence      float64      `json:"confidence"`
	SourceJourneys  []string     `json:"sourceJourneys"`
	SuccessCount    int          `json:"successCount"`
	FailCount       int          `json:"failCount"`
	LastUsed        time.Time    `json:"lastUsed"`
	CreatedAt       time.Time    `json:"createdAt"`
	PromotedToCore  bool         `json:"promotedToCore"`
	PromotedAt      *time.Time   `json:"promotedAt,omitempty"`
}

type document struct {
	Version     int              `json:"version"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Patterns    []LearnedPattern `json:"patterns"`
}

// MatchResult is a successful fallback lookup.
type MatchResult struct {
	PatternID  string
	Primitive  ir.Primitive
	Confidence float64
}

// Promotable pairs a graduation candidate with a generated anchored regex
// for manual insertion into the static grammar.
type Promotable struct {
	Pattern LearnedPattern
	Regex   string
}

// PruneOptions set the retention bar for non-promoted patterns.
type PruneOptions struct {
	MaxAgeDays    int
	MinConfidence float64
	MinSuccess    int
}

// DefaultPruneOptions matches the documented retention policy.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{MaxAgeDays: 90, MinConfidence: 0.3, MinSuccess: 1}
}

const (
	documentVersion  = 1
	defaultThreshold = 0.7
	cacheTTL         = 5 * time.Second

	promoteConfidence = 0.9
	promoteSuccesses  = 5
	promoteJourneys   = 2
)

// Store reads and mutates the pattern document at a fixed path. Every
// mutation rewrites the whole document; reads go through a short-lived
// cache that writes invalidate synchronously, so a single process never
// observes its own stale data. Nothing locks the file itself — concurrent
// processes can lose updates and callers must serialize externally.
type Store struct {
	path      string
	threshold float64
	log       *zap.SugaredLogger
	now       func() time.Time

	mu       sync.Mutex
	cached   *document
	cachedAt time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithThreshold overrides the minimum confidence for Match.
func WithThreshold(t float64) Option {
	return func(s *Store) { s.threshold = t }
}

// WithLogger attaches a logger for store events.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock substitutes the time source. Tests use this to age patterns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open returns a Store over path. The file is created on first write.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		threshold: defaultThreshold,
		log:       zap.NewNop().Sugar(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize is the store's lookup key: lowercase, whitespace collapsed.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Match returns the best pattern for text with confidence at or above the
// threshold. Promoted patterns never match here: promotion means the
// static grammar already covers them, and serving them from the store
// would hide a grammar regression.
func (s *Store) Match(text string) (*MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	key := Normalize(text)
	var best *LearnedPattern
	for i := range doc.Patterns {
		p := &doc.Patterns[i]
		if p.NormalizedText != key || p.PromotedToCore {
			continue
		}
		if p.Confidence < s.threshold {
			continue
		}
		if best == nil || p.Confidence > best.Confidence {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	return &MatchResult{PatternID: best.ID, Primitive: best.MappedPrimitive, Confidence: best.Confidence}, nil
}

// RecordSuccess creates or updates the pattern for text after a primitive
// was ultimately accepted for it, and rescores it.
func (s *Store) RecordSuccess(text, journeyID string, prim ir.Primitive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	key := Normalize(text)
	now := s.now().UTC()
	p := findPattern(doc, key)
	if p == nil {
		doc.Patterns = append(doc.Patterns, LearnedPattern{
			ID:             uuid.NewString(),
			OriginalText:   text,
			NormalizedText: key,
			CreatedAt:      now,
		})
		p = &doc.Patterns[len(doc.Patterns)-1]
	}

	p.MappedPrimitive = prim
	p.SuccessCount++
	p.LastUsed = now
	if journeyID != "" && !contains(p.SourceJourneys, journeyID) {
		p.SourceJourneys = append(p.SourceJourneys, journeyID)
	}
	p.Confidence = wilsonLower(p.SuccessCount, p.FailCount)

	s.log.Debugw("llkb success recorded",
		"pattern", p.ID, "confidence", p.Confidence, "successes", p.SuccessCount)
	return s.save(doc)
}

// RecordFailure rescores the pattern for text downward. Unknown text is
// recorded too, so repeated misses leave an audit trail.
func (s *Store) RecordFailure(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	key := Normalize(text)
	now := s.now().UTC()
	p := findPattern(doc, key)
	if p == nil {
		doc.Patterns = append(doc.Patterns, LearnedPattern{
			ID:             uuid.NewString(),
			OriginalText:   text,
			NormalizedText: key,
			CreatedAt:      now,
		})
		p = &doc.Patterns[len(doc.Patterns)-1]
	}

	p.FailCount++
	p.LastUsed = now
	p.Confidence = wilsonLower(p.SuccessCount, p.FailCount)

	s.log.Debugw("llkb failure recorded",
		"pattern", p.ID, "confidence", p.Confidence, "failures", p.FailCount)
	return s.save(doc)
}

// Promotable returns patterns ready for manual graduation into the static
// grammar: high confidence, enough successes, and seen across at least two
// journeys so one document's phrasing cannot overfit its way in.
func (s *Store) Promotable() ([]Promotable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []Promotable
	for _, p := range doc.Patterns {
		if p.PromotedToCore {
			continue
		}
		if p.Confidence >= promoteConfidence && p.SuccessCount >= promoteSuccesses && len(p.SourceJourneys) >= promoteJourneys {
			out = append(out, Promotable{Pattern: p, Regex: anchoredRegex(p.NormalizedText)})
		}
	}
	return out, nil
}

// MarkPromoted freezes a pattern after its regex was hand-added to the
// grammar. Promoted patterns stop matching but are retained as an audit
// trail.
func (s *Store) MarkPromoted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Patterns {
		if doc.Patterns[i].ID == id {
			now := s.now().UTC()
			doc.Patterns[i].PromotedToCore = true
			doc.Patterns[i].PromotedAt = &now
			s.log.Infow("llkb pattern promoted", "pattern", id)
			return s.save(doc)
		}
	}
	return fmt.Errorf("llkb: no pattern with id %s", id)
}

// Prune removes non-promoted patterns below the retention bar: stale,
// low-confidence, or never successful. Promoted patterns are kept
// unconditionally. Returns how many were removed.
func (s *Store) Prune(opts PruneOptions) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, -opts.MaxAgeDays)
	kept := doc.Patterns[:0]
	removed := 0
	for _, p := range doc.Patterns {
		if p.PromotedToCore {
			kept = append(kept, p)
			continue
		}
		stale := p.LastUsed.Before(cutoff)
		weak := p.Confidence < opts.MinConfidence || p.SuccessCount < opts.MinSuccess
		if stale && weak {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	doc.Patterns = kept

	if removed == 0 {
		return 0, nil
	}
	s.log.Infow("llkb pruned", "removed", removed, "kept", len(doc.Patterns))
	return removed, s.save(doc)
}

// ExportEntry is one promotable pattern in the export artifact.
type ExportEntry struct {
	ID          string       `json:"id"`
	Trigger     string       `json:"trigger"`
	Primitive   ir.Primitive `json:"primitive"`
	Confidence  float64      `json:"confidence"`
	SourceCount int          `json:"sourceCount"`
}

// ExportDocument is the promotable-pattern artifact for review.
type ExportDocument struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Patterns   []ExportEntry `json:"patterns"`
}

// Export builds the promotable-pattern artifact.
func (s *Store) Export() (*ExportDocument, error) {
	promotable, err := s.Promotable()
	if err != nil {
		return nil, err
	}
	out := &ExportDocument{Version: documentVersion, ExportedAt: s.now().UTC()}
	for _, p := range promotable {
		out.Patterns = append(out.Patterns, ExportEntry{
			ID:          p.Pattern.ID,
			Trigger:     p.Pattern.NormalizedText,
			Primitive:   p.Pattern.MappedPrimitive,
			Confidence:  p.Pattern.Confidence,
			SourceCount: len(p.Pattern.SourceJourneys),
		})
	}
	return out, nil
}

// All returns every stored pattern, for inspection commands.
func (s *Store) All() ([]LearnedPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return append([]LearnedPattern(nil), doc.Patterns...), nil
}

func findPattern(doc *document, key string) *LearnedPattern {
	for i := range doc.Patterns {
		if doc.Patterns[i].NormalizedText == key {
			return &doc.Patterns[i]
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var quotedSpan = regexp.MustCompile(`'[^']*'`)

// anchoredRegex turns a normalized trigger into a grammar-ready pattern:
// quoted literals generalize into capture groups, spaces into \s+.
func anchoredRegex(normalized string) string {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, span := range quotedSpan.FindAllStringIndex(normalized, -1) {
		b.WriteString(literalPattern(normalized[last:span[0]]))
		b.WriteString(`'([^']*)'`)
		last = span[1]
	}
	b.WriteString(literalPattern(normalized[last:]))
	b.WriteString("$")
	return b.String()
}

func literalPattern(s string) string {
	quoted := regexp.QuoteMeta(s)
	return strings.ReplaceAll(quoted, " ", `\s+`)
}

// load returns the cached document when fresh, otherwise rereads the file.
// A missing file is an empty store, not an error. Callers hold s.mu.
func (s *Store) load() (*document, error) {
	if s.cached != nil && s.now().Sub(s.cachedAt) < cacheTTL {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		doc := &document{Version: documentVersion}
		s.cached = doc
		s.cachedAt = s.now()
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading llkb store %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing llkb store %s: %w", s.path, err)
	}
	s.cached = &doc
	s.cachedAt = s.now()
	return &doc, nil
}

// save rewrites the whole document atomically (temp file + rename) and
// refreshes the cache in the same critical section. Callers hold s.mu.
func (s *Store) save(doc *document) error {
	doc.Version = documentVersion
	doc.LastUpdated = s.now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding llkb store: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".llkb-*.json")
	if err != nil {
		return fmt.Errorf("writing llkb store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing llkb store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing llkb store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing llkb store: %w", err)
	}

	s.cached = doc
	s.cachedAt = s.now()
	return nil
}
