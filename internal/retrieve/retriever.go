package retrieve

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/gmohlue/ConstitutionBOT/internal/document"
	"github.com/gmohlue/ConstitutionBOT/internal/store"
)

// Excerpt is one grounded slice of source text, bounded to the excerpt
// budget and safe to embed in a prompt.
type Excerpt struct {
	SectionNum   int
	SectionTitle string
	ChapterNum   int
	ChapterTitle string
	Text         string
	Score        float64
}

// Result is the ephemeral outcome of one retrieval. It is never
// persisted; callers snapshot it before any network call.
type Result struct {
	Excerpts []Excerpt
}

// SectionNumbers lists the section numbers present, in excerpt order.
func (r Result) SectionNumbers() []int {
	nums := make([]int, len(r.Excerpts))
	for i, e := range r.Excerpts {
		nums[i] = e.SectionNum
	}
	return nums
}

// Empty reports whether no grounding was found.
func (r Result) Empty() bool { return len(r.Excerpts) == 0 }

// SectionNotFoundError reports every requested section number that is
// absent from the store. Explicit retrieval never silently succeeds
// partially.
type SectionNotFoundError struct {
	Missing []int
}

func (e *SectionNotFoundError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, n := range e.Missing {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "sections not found: " + strings.Join(parts, ", ")
}

// Retriever resolves content requests against the section store.
type Retriever struct {
	store         *store.Store
	excerptBudget int
	topK          int

	mu      sync.Mutex
	recent  []int
	recentN int
	rng     *rand.Rand
}

// Options tunes retrieval behavior. Zero values select defaults.
type Options struct {
	ExcerptBudget int
	TopK          int
	RecencyWindow int
	Seed          int64
}

func New(st *store.Store, opts Options) *Retriever {
	if opts.ExcerptBudget <= 0 {
		opts.ExcerptBudget = 1200
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = 10
	}
	src := rand.NewSource(opts.Seed)
	if opts.Seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &Retriever{
		store:         st,
		excerptBudget: opts.ExcerptBudget,
		topK:          opts.TopK,
		recentN:       opts.RecencyWindow,
		rng:           rand.New(src),
	}
}

// BySections fetches the exact requested sections in the order given.
// Any missing number fails the whole call.
func (r *Retriever) BySections(nums []int) (Result, error) {
	var missing []int
	var excerpts []Excerpt
	for _, num := range nums {
		sec, ok := r.store.Get(num)
		if !ok {
			missing = append(missing, num)
			continue
		}
		excerpts = append(excerpts, r.excerpt(sec, 0))
	}
	if len(missing) > 0 {
		return Result{}, &SectionNotFoundError{Missing: missing}
	}
	return Result{Excerpts: excerpts}, nil
}

// ByTopic runs a ranked search and returns the top-K excerpts. Zero
// matches yield an empty result, not an error; the caller decides
// whether that is fatal.
func (r *Retriever) ByTopic(topic string, limit int) Result {
	if limit <= 0 {
		limit = r.topK
	}
	matches := r.store.Search(topic, limit)
	excerpts := make([]Excerpt, 0, len(matches))
	for _, m := range matches {
		excerpts = append(excerpts, r.excerpt(m.Section, m.Score))
	}
	return Result{Excerpts: excerpts}
}

// DiversePick selects one non-preamble section, avoiding anything in
// the rolling recency window so repeated runs spread across topics.
func (r *Retriever) DiversePick() (Result, error) {
	all := r.store.All()
	var candidates []*document.Section
	for _, sec := range all {
		if !sec.IsPreamble() {
			candidates = append(candidates, sec)
		}
	}
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("no sections indexed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make([]*document.Section, 0, len(candidates))
	for _, sec := range candidates {
		if !r.isRecent(sec.Number) {
			fresh = append(fresh, sec)
		}
	}
	pool := fresh
	if len(pool) == 0 {
		pool = candidates
	}

	pick := pool[r.rng.Intn(len(pool))]
	r.markRecent(pick.Number)
	return Result{Excerpts: []Excerpt{r.excerpt(pick, 0)}}, nil
}

// RecentPicks returns the current recency window, most recent last.
func (r *Retriever) RecentPicks() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.recent))
	copy(out, r.recent)
	return out
}

func (r *Retriever) isRecent(num int) bool {
	for _, n := range r.recent {
		if n == num {
			return true
		}
	}
	return false
}

func (r *Retriever) markRecent(num int) {
	r.recent = append(r.recent, num)
	if len(r.recent) > r.recentN {
		r.recent = r.recent[len(r.recent)-r.recentN:]
	}
}

func (r *Retriever) excerpt(sec *document.Section, score float64) Excerpt {
	return Excerpt{
		SectionNum:   sec.Number,
		SectionTitle: sec.Title,
		ChapterNum:   sec.ChapterNum,
		ChapterTitle: sec.ChapterTitle,
		Text:         TruncateSentences(sec.FullText(), r.excerptBudget),
		Score:        score,
	}
}

// TruncateSentences cuts text to at most budget characters without ever
// splitting a sentence. When no sentence boundary fits the budget, the
// first sentence is kept whole.
func TruncateSentences(text string, budget int) string {
	text = strings.TrimSpace(text)
	if budget <= 0 || len(text) <= budget {
		return text
	}

	cut := -1
	for i := 0; i < budget; i++ {
		switch text[i] {
		case '.', '!', '?':
			// Treat as a boundary only when followed by space or end.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				cut = i + 1
			}
		}
	}
	if cut > 0 {
		return strings.TrimSpace(text[:cut])
	}

	// No boundary inside the budget: keep the first whole sentence.
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return text
}

// SortByNumber orders excerpts by ascending section number in place.
func SortByNumber(excerpts []Excerpt) {
	sort.SliceStable(excerpts, func(i, j int) bool {
		return excerpts[i].SectionNum < excerpts[j].SectionNum
	})
}
