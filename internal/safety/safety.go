package safety

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gmohlue/ConstitutionBOT/internal/content"
	"github.com/gmohlue/ConstitutionBOT/internal/store"
)

// Outcome is the pipeline's disposition for a draft. Flag and reject
// are normal terminal states, not errors; only reject keeps a draft out
// of the approval queue.
type Outcome string

const (
	OutcomePass   Outcome = "pass"
	OutcomeFlag   Outcome = "flag"
	OutcomeReject Outcome = "reject"
)

// Reason codes attached to a verdict.
type Reason string

const (
	ReasonCitationMissing   Reason = "citation-missing"
	ReasonCitationInvalid   Reason = "citation-invalid"
	ReasonLengthExceeded    Reason = "length-exceeded"
	ReasonLegalAdviceRisk   Reason = "legal-advice-risk"
	ReasonDisallowedContent Reason = "disallowed-content"
)

// Verdict is computed fresh per draft and never mutated.
type Verdict struct {
	Outcome     Outcome
	Reasons     []Reason
	Explanation string
}

// legalAdvicePhrases are directive formulations that read as telling
// someone what legal action to take. A match forces rejection.
var legalAdvicePhrases = []string{
	"you should sue", "you can claim", "file a lawsuit",
	"you have a case", "take them to court", "lawyer up",
	"you're entitled to", "you must demand",
	"i advise you to", "my advice is",
}

// disallowedPatterns is the generic unsafe-content screen.
var disallowedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bkill\s+(all|them|the)\b`),
	regexp.MustCompile(`(?i)\bviolence\s+against\b`),
	regexp.MustCompile(`(?i)\bhate\s+(all|those)\b`),
	regexp.MustCompile(`(?i)\bexterminate\b`),
	regexp.MustCompile(`(?i)\bgenocide\b`),
}

// Pipeline screens drafts before they can reach the approval queue.
type Pipeline struct {
	store      *store.Store
	citationRe *regexp.Regexp
}

func NewPipeline(st *store.Store, sectionLabel string) *Pipeline {
	if strings.TrimSpace(sectionLabel) == "" {
		sectionLabel = "Section"
	}
	return &Pipeline{
		store:      st,
		citationRe: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(sectionLabel) + `\s+(\d+)`),
	}
}

// Review runs the checks in order, accumulating flag reasons and
// short-circuiting once an outcome of reject is reached.
// promptSections are the section numbers actually embedded in the
// prompt; droppedCitations are model-proposed provisions that failed to
// resolve during generation.
func (p *Pipeline) Review(draft content.Draft, promptSections []int, droppedCitations []int) Verdict {
	outcome := OutcomePass
	var reasons []Reason
	var notes []string

	flag := func(r Reason, note string) {
		reasons = appendReason(reasons, r)
		notes = append(notes, note)
		if outcome == OutcomePass {
			outcome = OutcomeFlag
		}
	}

	// 1. Citation integrity.
	supplied := intSet(promptSections)
	inText := p.extractCitations(draft.Formatted)
	if len(inText) == 0 && len(draft.Citations) == 0 {
		flag(ReasonCitationMissing, "draft contains no citations")
	}
	for _, num := range inText {
		if _, ok := p.store.Get(num); !ok {
			flag(ReasonCitationInvalid, fmt.Sprintf("cited section %d does not exist", num))
			continue
		}
		if !supplied[num] {
			flag(ReasonCitationInvalid, fmt.Sprintf("cited section %d was not supplied to the prompt", num))
		}
	}
	for _, num := range draft.Citations {
		if _, ok := p.store.Get(num); !ok {
			flag(ReasonCitationInvalid, fmt.Sprintf("citation %d does not resolve", num))
		}
	}
	if len(droppedCitations) > 0 {
		flag(ReasonCitationInvalid, fmt.Sprintf("model proposed unresolvable sections %v", droppedCitations))
	}

	// 2. Length / structure: surface the format handler's truncation.
	if draft.Truncated {
		flag(ReasonLengthExceeded, "content was truncated to fit format limits")
	}

	// 3. Legal-advice escalation: directive phrasing forces rejection.
	if phrase := matchLegalAdvice(draft.RawText + " " + draft.Formatted); phrase != "" {
		reasons = appendReason(reasons, ReasonLegalAdviceRisk)
		notes = append(notes, fmt.Sprintf("directive legal-advice phrasing: %q", phrase))
		return Verdict{
			Outcome:     OutcomeReject,
			Reasons:     reasons,
			Explanation: strings.Join(notes, "; "),
		}
	}

	// 4. Disallowed-content screen.
	for _, re := range disallowedPatterns {
		if m := re.FindString(draft.Formatted); m != "" {
			reasons = appendReason(reasons, ReasonDisallowedContent)
			notes = append(notes, fmt.Sprintf("disallowed content: %q", m))
			return Verdict{
				Outcome:     OutcomeReject,
				Reasons:     reasons,
				Explanation: strings.Join(notes, "; "),
			}
		}
	}

	return Verdict{Outcome: outcome, Reasons: reasons, Explanation: strings.Join(notes, "; ")}
}

// FilterCitations keeps only citations that were supplied to the prompt
// and resolve in the store. Used by the chat orchestrator before
// citations are shown.
func (p *Pipeline) FilterCitations(citations []int, supplied []int) []int {
	suppliedSet := intSet(supplied)
	var kept []int
	for _, num := range citations {
		if !suppliedSet[num] {
			continue
		}
		if _, ok := p.store.Get(num); !ok {
			continue
		}
		kept = append(kept, num)
	}
	return kept
}

func (p *Pipeline) extractCitations(text string) []int {
	seen := map[int]bool{}
	var nums []int
	for _, m := range p.citationRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func matchLegalAdvice(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range legalAdvicePhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

func appendReason(reasons []Reason, r Reason) []Reason {
	for _, existing := range reasons {
		if existing == r {
			return reasons
		}
	}
	return append(reasons, r)
}

func intSet(nums []int) map[int]bool {
	set := map[int]bool{}
	for _, n := range nums {
		set[n] = true
	}
	return set
}
