package chat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/gmohlue/ConstitutionBOT/internal/llm"
	"github.com/gmohlue/ConstitutionBOT/internal/logging"
	"github.com/gmohlue/ConstitutionBOT/internal/prompt"
	"github.com/gmohlue/ConstitutionBOT/internal/retrieve"
	"github.com/gmohlue/ConstitutionBOT/internal/safety"
)

// Role of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. History is append-only and
// never reordered or rewritten.
type Turn struct {
	Role      string
	Text      string
	At        time.Time
	Citations []int
}

// conversation owns the turns for one conversation identifier. All
// mutation goes through its mutex, so turn ordering is preserved even
// under concurrent callers.
type conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// Orchestrator maintains multi-turn grounded conversations. Different
// conversations are fully independent; a single conversation has
// at most one writer at a time.
type Orchestrator struct {
	retriever *retrieve.Retriever
	builder   *prompt.Builder
	client    llm.Client
	pipeline  *safety.Pipeline
	log       logging.Logger

	window int
	topK   int

	mu    sync.Mutex
	convs map[string]*conversation

	sectionRefRe *regexp.Regexp
}

// Options tunes the orchestrator. Zero values select defaults.
type Options struct {
	Window       int
	TopK         int
	SectionLabel string
}

func NewOrchestrator(retriever *retrieve.Retriever, builder *prompt.Builder, client llm.Client, pipeline *safety.Pipeline, log logging.Logger, opts Options) *Orchestrator {
	if opts.Window <= 0 {
		opts.Window = 6
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.SectionLabel == "" {
		opts.SectionLabel = "Section"
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Orchestrator{
		retriever:    retriever,
		builder:      builder,
		client:       client,
		pipeline:     pipeline,
		log:          log,
		window:       opts.Window,
		topK:         opts.TopK,
		convs:        map[string]*conversation{},
		sectionRefRe: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(opts.SectionLabel) + `\s+(\d+)`),
	}
}

// Turn appends the user message, retrieves grounding, calls the model
// with bounded prior history, and appends the assistant reply. Only
// citations that were actually supplied to the prompt and resolve in
// the store are attached to the reply.
func (o *Orchestrator) Turn(ctx context.Context, conversationID, message string) (Turn, error) {
	conv := o.conversation(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	now := time.Now().UTC()
	conv.turns = append(conv.turns, Turn{Role: RoleUser, Text: message, At: now})

	// Explicit section references in the message win over topic search.
	var grounding retrieve.Result
	if nums := o.referencedSections(message); len(nums) > 0 {
		result, err := o.retriever.BySections(nums)
		if err != nil {
			o.log.Debug("chat %s: explicit references did not all resolve: %v", conversationID, err)
		} else {
			grounding = result
		}
	}
	if grounding.Empty() {
		grounding = o.retriever.ByTopic(message, o.topK)
	}

	history := o.renderHistory(conv.turns[:len(conv.turns)-1])
	payload := o.builder.Chat(history, message, grounding.Excerpts)

	reply, err := o.client.Complete(ctx, llm.Request{
		System:      payload.System,
		Prompt:      payload.User,
		Temperature: 0.6,
	})
	if err != nil {
		return Turn{}, err
	}

	citations := o.pipeline.FilterCitations(o.referencedSections(reply), payload.Sections)
	turn := Turn{Role: RoleAssistant, Text: reply, At: time.Now().UTC(), Citations: citations}
	conv.turns = append(conv.turns, turn)
	return turn, nil
}

// History returns a copy of the conversation's turns in order.
func (o *Orchestrator) History(conversationID string) []Turn {
	conv := o.conversation(conversationID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]Turn, len(conv.turns))
	copy(out, conv.turns)
	return out
}

func (o *Orchestrator) conversation(id string) *conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	conv, ok := o.convs[id]
	if !ok {
		conv = &conversation{}
		o.convs[id] = conv
	}
	return conv
}

// renderHistory formats the most recent turns, bounded by the context
// window.
func (o *Orchestrator) renderHistory(turns []Turn) []string {
	start := 0
	if len(turns) > o.window {
		start = len(turns) - o.window
	}
	var lines []string
	for _, t := range turns[start:] {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Text))
	}
	return lines
}

func (o *Orchestrator) referencedSections(text string) []int {
	seen := map[int]bool{}
	var nums []int
	for _, m := range o.sectionRefRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		nums = append(nums, n)
	}
	return nums
}
