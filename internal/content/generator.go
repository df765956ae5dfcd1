package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gmohlue/ConstitutionBOT/internal/llm"
	"github.com/gmohlue/ConstitutionBOT/internal/logging"
	"github.com/gmohlue/ConstitutionBOT/internal/prompt"
	"github.com/gmohlue/ConstitutionBOT/internal/retrieve"
)

// ErrNoGroundingFound aborts generation when topic search finds no
// sections. Ungrounded content is never substituted.
var ErrNoGroundingFound = errors.New("no grounding found in source document")

// GenerationError is terminal for one generation request.
type GenerationError struct {
	Mode  Mode
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (mode %s): %v", e.Mode, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// phase tracks where a single generation request is in its lifecycle.
// The machine is per-request; nothing is shared across requests.
type phase string

const (
	phaseRetrieving phase = "retrieving"
	phasePrompting  phase = "prompting"
	phaseGenerating phase = "generating"
	phaseFormatting phase = "formatting"
)

// Config tunes the generator.
type Config struct {
	Format      FormatConfig
	TopK        int
	Temperature float64
	ThreadPosts int
}

// Result carries a draft together with the grounding facts the safety
// pipeline needs: which sections the prompt actually embedded, and any
// model-proposed citations that failed to resolve.
type Result struct {
	Draft            Draft
	PromptSections   []int
	DroppedCitations []int
}

// Generator drives one of three generation modes against the retriever
// and the LLM gateway. Retrieval results are snapshotted before any
// network call; no lock spans both.
type Generator struct {
	retriever *retrieve.Retriever
	builder   *prompt.Builder
	client    llm.Client
	log       logging.Logger
	cfg       Config
}

func NewGenerator(retriever *retrieve.Retriever, builder *prompt.Builder, client llm.Client, log logging.Logger, cfg Config) *Generator {
	cfg.Format = cfg.Format.withDefaults()
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.ThreadPosts <= 0 {
		cfg.ThreadPosts = 5
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Generator{retriever: retriever, builder: builder, client: client, log: log, cfg: cfg}
}

// Generate runs the full pipeline for one request:
// retrieving -> prompting -> generating -> formatting.
// LLM failures propagate as GenerationError; no mode falls back to
// another mode.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Mode {
	case ModeUserProvided:
		return g.generateUserProvided(ctx, req)
	case ModeBotProposed:
		return g.generateBotProposed(ctx, req)
	case ModeHistorical:
		return g.generateHistorical(ctx, req)
	default:
		return nil, fmt.Errorf("unknown generation mode: %q", req.Mode)
	}
}

// generateUserProvided is the single-call path: topic (or explicit
// sections) -> grounding -> one completion.
func (g *Generator) generateUserProvided(ctx context.Context, req GenerationRequest) (*Result, error) {
	g.logPhase(req.Mode, phaseRetrieving)
	var grounding retrieve.Result
	if len(req.SectionNums) > 0 {
		var err error
		grounding, err = g.retriever.BySections(req.SectionNums)
		if err != nil {
			return nil, err
		}
	} else {
		grounding = g.retriever.ByTopic(req.Topic, g.cfg.TopK)
		if grounding.Empty() {
			return nil, ErrNoGroundingFound
		}
	}

	topic := req.Topic
	if topic == "" {
		topic = fmt.Sprintf("%s %s", g.cfg.Format.SectionLabel, joinInts(req.SectionNums))
	}

	raw, payload, err := g.complete(ctx, req, topic, grounding.Excerpts)
	if err != nil {
		return nil, err
	}
	return g.finish(req, topic, raw, payload, nil)
}

// generateBotProposed is the two-call path: the model proposes a topic
// anchored to a diversity-biased section pick, then generates content.
func (g *Generator) generateBotProposed(ctx context.Context, req GenerationRequest) (*Result, error) {
	g.logPhase(req.Mode, phaseRetrieving)
	grounding, err := g.retriever.DiversePick()
	if err != nil {
		return nil, &GenerationError{Mode: req.Mode, Cause: err}
	}

	g.logPhase(req.Mode, phaseGenerating)
	proposal := g.builder.ProposeTopic(grounding.Excerpts)
	proposalText, err := g.client.Complete(ctx, llm.Request{
		System:      proposal.System,
		Prompt:      proposal.User,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, &GenerationError{Mode: req.Mode, Cause: err}
	}
	topic := parseProposedTopic(proposalText)

	raw, payload, err := g.complete(ctx, req, topic, grounding.Excerpts)
	if err != nil {
		return nil, err
	}
	return g.finish(req, topic, raw, payload, nil)
}

// generateHistorical asks the model to connect an external event to
// provisions, then verifies every proposed provision against the store
// before citing it. Unresolvable provisions are dropped and recorded,
// never silently kept.
func (g *Generator) generateHistorical(ctx context.Context, req GenerationRequest) (*Result, error) {
	g.logPhase(req.Mode, phaseGenerating)
	connect := g.builder.ConnectEvent(req.Event)
	connectText, err := g.client.Complete(ctx, llm.Request{
		System:      connect.System,
		Prompt:      connect.User,
		Temperature: 0.4,
	})
	if err != nil {
		return nil, &GenerationError{Mode: req.Mode, Cause: err}
	}
	proposed := parseProposedSections(connectText)

	g.logPhase(req.Mode, phaseRetrieving)
	var excerpts []retrieve.Excerpt
	var dropped []int
	for _, num := range proposed {
		result, err := g.retriever.BySections([]int{num})
		if err != nil {
			dropped = append(dropped, num)
			continue
		}
		excerpts = append(excerpts, result.Excerpts...)
	}
	if len(dropped) > 0 {
		g.log.Warn("historical mode dropped unresolvable citations: %v", dropped)
	}
	retrieve.SortByNumber(excerpts)

	g.logPhase(req.Mode, phasePrompting)
	payload := g.builder.Historical(req.Event, excerpts, g.formatRequirements(req.Type))

	g.logPhase(req.Mode, phaseGenerating)
	raw, err := g.client.Complete(ctx, llm.Request{
		System:      payload.System,
		Prompt:      payload.User,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, &GenerationError{Mode: req.Mode, Cause: err}
	}
	return g.finish(req, req.Event, raw, payload, dropped)
}

// complete builds the generation prompt for the request's content type
// and issues the completion call.
func (g *Generator) complete(ctx context.Context, req GenerationRequest, topic string, excerpts []retrieve.Excerpt) (string, prompt.Payload, error) {
	g.logPhase(req.Mode, phasePrompting)
	var payload prompt.Payload
	switch req.Type {
	case TypeTweet:
		payload = g.builder.Tweet(topic, excerpts, g.cfg.Format.MaxTweetLength)
	case TypeThread:
		payload = g.builder.Thread(topic, excerpts, g.cfg.ThreadPosts, g.cfg.Format.MaxTweetLength)
	case TypeScript:
		payload = g.builder.Script(topic, excerpts)
	}

	g.logPhase(req.Mode, phaseGenerating)
	raw, err := g.client.Complete(ctx, llm.Request{
		System:      payload.System,
		Prompt:      payload.User,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", prompt.Payload{}, &GenerationError{Mode: req.Mode, Cause: err}
	}
	return raw, payload, nil
}

// finish formats the raw completion and assembles the draft.
func (g *Generator) finish(req GenerationRequest, topic, raw string, payload prompt.Payload, dropped []int) (*Result, error) {
	g.logPhase(req.Mode, phaseFormatting)
	formatter, err := FormatterFor(req.Type, g.cfg.Format)
	if err != nil {
		return nil, err
	}
	formatted, err := formatter.Format(raw)
	if err != nil {
		return nil, &GenerationError{Mode: req.Mode, Cause: err}
	}

	draft := Draft{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Mode:      req.Mode,
		Topic:     topic,
		RawText:   raw,
		Formatted: formatted.Text,
		Segments:  formatted.Segments,
		Truncated: formatted.Truncated,
		Citations: payload.Sections,
		CreatedAt: time.Now().UTC(),
	}
	return &Result{Draft: draft, PromptSections: payload.Sections, DroppedCitations: dropped}, nil
}

func (g *Generator) formatRequirements(t ContentType) string {
	switch t {
	case TypeThread:
		return fmt.Sprintf("Format: a %d-post thread, each post under %d characters, as TWEET 1: ... TWEET 2: ...",
			g.cfg.ThreadPosts, g.cfg.Format.MaxTweetLength)
	case TypeScript:
		return "Format: a short video script with [INTRO], [BODY] and [OUTRO] markers."
	default:
		return fmt.Sprintf("Format: a single post of at most %d characters.", g.cfg.Format.MaxTweetLength)
	}
}

func (g *Generator) logPhase(mode Mode, p phase) {
	g.log.Debug("generation %s: %s", mode, p)
}

var topicLineRe = regexp.MustCompile(`(?im)^TOPIC:\s*(.+)$`)

// parseProposedTopic pulls the TOPIC line out of a topic proposal
// response, falling back to the trimmed first line.
func parseProposedTopic(response string) string {
	if m := topicLineRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, line := range strings.Split(response, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return "civic education"
}

var (
	sectionsLineRe = regexp.MustCompile(`(?im)^SECTIONS?:\s*(.+)$`)
	digitsRe       = regexp.MustCompile(`\d+`)
)

// parseProposedSections extracts the section numbers a model proposed
// for a historical event. Only the SECTIONS line is parsed, so years or
// other digits elsewhere in the response are never mistaken for
// provisions.
func parseProposedSections(response string) []int {
	m := sectionsLineRe.FindStringSubmatch(response)
	if m == nil {
		return nil
	}
	seen := map[int]bool{}
	var nums []int
	for _, field := range digitsRe.FindAllString(m[1], -1) {
		n, err := strconv.Atoi(field)
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		nums = append(nums, n)
	}
	return nums
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
