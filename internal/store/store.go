package store

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gmohlue/ConstitutionBOT/internal/document"
)

// Match pairs a section with its search relevance score.
type Match struct {
	Section *document.Section
	Score   float64
}

// snapshot is one immutable document generation. Retrieval always works
// against a single snapshot, so readers never observe a half-written
// document set.
type snapshot struct {
	doc     *document.Document
	byNum   map[int]*document.Section
	ordered []*document.Section
}

// Store holds the sections of the one active document. Replace publishes
// a fully-built snapshot atomically; reads are lock-free.
type Store struct {
	snap atomic.Pointer[snapshot]
}

func New() *Store {
	s := &Store{}
	s.snap.Store(&snapshot{byNum: map[int]*document.Section{}})
	return s
}

// Replace swaps in a new document wholesale. Stale sections are purged
// entirely, never merged.
func (s *Store) Replace(doc *document.Document) {
	snap := &snapshot{
		doc:     doc,
		byNum:   make(map[int]*document.Section, len(doc.Sections)),
		ordered: make([]*document.Section, 0, len(doc.Sections)),
	}
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		snap.byNum[sec.Number] = sec
		snap.ordered = append(snap.ordered, sec)
	}
	s.snap.Store(snap)
}

// Document returns the active document, or nil before the first ingest.
func (s *Store) Document() *document.Document {
	return s.snap.Load().doc
}

// Get returns the section with the given number.
func (s *Store) Get(num int) (*document.Section, bool) {
	sec, ok := s.snap.Load().byNum[num]
	return sec, ok
}

// All returns every section in document order.
func (s *Store) All() []*document.Section {
	return s.snap.Load().ordered
}

// Len reports the number of indexed sections.
func (s *Store) Len() int {
	return len(s.snap.Load().ordered)
}

// Search ranks sections against a free-text query with deterministic
// token-overlap scoring. An exact title match always outranks title
// token overlap, which outranks body-only matches; keyword hits add a
// small boost. Ties break by ascending section number.
func (s *Store) Search(query string, limit int) []Match {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	queryNorm := normalize(query)

	var matches []Match
	for _, sec := range s.snap.Load().ordered {
		score := scoreSection(sec, queryNorm, queryTokens)
		if score > 0 {
			matches = append(matches, Match{Section: sec, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Section.Number < matches[j].Section.Number
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

const (
	exactTitleScore = 1000.0
	titleTokenScore = 10.0
	keywordHitScore = 5.0
	bodyTokenScore  = 1.0
)

func scoreSection(sec *document.Section, queryNorm string, queryTokens []string) float64 {
	titleNorm := normalize(sec.Title)
	if titleNorm != "" && titleNorm == queryNorm {
		return exactTitleScore
	}

	score := 0.0
	titleTokens := tokenSet(sec.Title)
	bodyTokens := tokenSet(sec.FullText())
	for _, tok := range queryTokens {
		if titleTokens[tok] {
			score += titleTokenScore
		}
		if bodyTokens[tok] {
			score += bodyTokenScore
		}
		for _, kw := range sec.Keywords {
			if kw == tok {
				score += keywordHitScore
			}
		}
	}
	return score
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	seen := map[string]bool{}
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range tokenize(s) {
		set[tok] = true
	}
	return set
}
