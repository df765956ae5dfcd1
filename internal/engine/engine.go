package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gmohlue/ConstitutionBOT/internal/chat"
	"github.com/gmohlue/ConstitutionBOT/internal/config"
	"github.com/gmohlue/ConstitutionBOT/internal/content"
	"github.com/gmohlue/ConstitutionBOT/internal/document"
	"github.com/gmohlue/ConstitutionBOT/internal/llm"
	"github.com/gmohlue/ConstitutionBOT/internal/logging"
	"github.com/gmohlue/ConstitutionBOT/internal/prompt"
	"github.com/gmohlue/ConstitutionBOT/internal/retrieve"
	"github.com/gmohlue/ConstitutionBOT/internal/safety"
	"github.com/gmohlue/ConstitutionBOT/internal/storage"
	"github.com/gmohlue/ConstitutionBOT/internal/store"
)

// NotFoundError reports a section lookup that resolved nothing.
type NotFoundError struct {
	SectionNum int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("section %d not found", e.SectionNum)
}

// Engine wires the full pipeline together: document parsing, the
// section store, retrieval, generation, safety review, chat, and
// persistence. It is the single entry point the CLI talks to.
type Engine struct {
	cfg       *config.Config
	log       logging.Logger
	parser    *document.Parser
	store     *store.Store
	retriever *retrieve.Retriever
	builder   *prompt.Builder
	generator *content.Generator
	pipeline  *safety.Pipeline
	chat      *chat.Orchestrator
	persist   storage.Store

	// Serializes ingests. Reads stay lock-free; the store swaps
	// snapshots atomically.
	ingestMu sync.Mutex
}

// Options configures engine construction. Client is required for
// generation and chat; Persist may be nil to disable persistence.
type Options struct {
	Config  *config.Config
	Client  llm.Client
	Persist storage.Store
	Log     logging.Logger
	Seed    int64
}

func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop{}
	}

	parser, err := document.NewParser(cfg.Document.Strategy, cfg.Document.Keywords)
	if err != nil {
		return nil, err
	}

	st := store.New()
	retriever := retrieve.New(st, retrieve.Options{
		ExcerptBudget: cfg.Content.ExcerptBudget,
		TopK:          cfg.Content.TopK,
		RecencyWindow: cfg.Content.RecencyWindow,
		Seed:          opts.Seed,
	})
	builder := prompt.NewBuilder(cfg.Document.SectionLabel)
	pipeline := safety.NewPipeline(st, cfg.Document.SectionLabel)

	generator := content.NewGenerator(retriever, builder, opts.Client, log, content.Config{
		Format: content.FormatConfig{
			MaxTweetLength:    cfg.Content.MaxTweetLength,
			MaxThreadSegments: cfg.Content.MaxThreadSegments,
			SectionLabel:      cfg.Document.SectionLabel,
			Hashtags:          cfg.Content.Hashtags,
		},
		TopK:        cfg.Content.TopK,
		Temperature: cfg.AI.Temperature,
	})

	orchestrator := chat.NewOrchestrator(retriever, builder, opts.Client, pipeline, log, chat.Options{
		Window:       cfg.Content.ChatWindow,
		SectionLabel: cfg.Document.SectionLabel,
	})

	return &Engine{
		cfg:       cfg,
		log:       log,
		parser:    parser,
		store:     st,
		retriever: retriever,
		builder:   builder,
		generator: generator,
		pipeline:  pipeline,
		chat:      orchestrator,
		persist:   opts.Persist,
	}, nil
}

// Ingest parses raw document bytes and swaps the parsed sections into
// the store. A failed parse leaves the previously indexed document
// fully intact.
func (e *Engine) Ingest(ctx context.Context, raw []byte, kind document.Kind, filename string) (int, error) {
	e.ingestMu.Lock()
	defer e.ingestMu.Unlock()

	start := time.Now()
	text, err := document.ExtractText(raw, kind)
	if err != nil {
		e.log.Error("ingest failed for %s: %v", filename, err)
		return 0, err
	}
	sections, err := e.parser.ParseText(text)
	if err != nil {
		e.log.Error("ingest failed for %s: %v", filename, err)
		return 0, err
	}

	doc := &document.Document{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(filename),
		Kind:       kind,
		IngestedAt: time.Now(),
		RawText:    text,
		Sections:   sections,
	}
	e.store.Replace(doc)

	e.log.Info("ingested %s: %d sections in %s", doc.Filename, len(sections), time.Since(start).Round(time.Millisecond))
	return len(sections), nil
}

// Generate runs one generation request through the generator and the
// safety pipeline, stamps the verdict-derived status onto the draft,
// and persists it when a store is configured.
func (e *Engine) Generate(ctx context.Context, req content.GenerationRequest) (*content.Draft, safety.Verdict, error) {
	result, err := e.generator.Generate(ctx, req)
	if err != nil {
		return nil, safety.Verdict{}, err
	}

	verdict := e.pipeline.Review(result.Draft, result.PromptSections, result.DroppedCitations)
	draft := result.Draft
	switch verdict.Outcome {
	case safety.OutcomePass:
		draft.Status = content.StatusAcceptedForQueue
	case safety.OutcomeFlag:
		draft.Status = content.StatusFlaggedForReview
	case safety.OutcomeReject:
		draft.Status = content.StatusRejected
	}

	e.log.Info("draft %s: outcome=%s status=%s citations=%v", draft.ID, verdict.Outcome, draft.Status, draft.Citations)

	if e.persist != nil {
		if err := e.persist.SaveDraft(ctx, draftRecord(&draft, verdict)); err != nil {
			e.log.Warn("draft %s not persisted: %v", draft.ID, err)
		}
	}
	return &draft, verdict, nil
}

// ChatTurn runs one turn of a grounded conversation and persists both
// sides of the exchange when a store is configured.
func (e *Engine) ChatTurn(ctx context.Context, conversationID, message string) (chat.Turn, error) {
	userAt := time.Now().UTC()
	reply, err := e.chat.Turn(ctx, conversationID, message)
	if err != nil {
		return chat.Turn{}, err
	}

	if e.persist != nil {
		records := []*storage.TurnRecord{
			{ConversationID: conversationID, Role: chat.RoleUser, Text: message, CreatedAt: userAt},
			{ConversationID: conversationID, Role: chat.RoleAssistant, Text: reply.Text, Citations: reply.Citations, CreatedAt: reply.At},
		}
		for _, rec := range records {
			if err := e.persist.AppendTurn(ctx, rec); err != nil {
				e.log.Warn("turn for %s not persisted: %v", conversationID, err)
				break
			}
		}
	}
	return reply, nil
}

// ChatHistory returns the in-memory history of a conversation.
func (e *Engine) ChatHistory(conversationID string) []chat.Turn {
	return e.chat.History(conversationID)
}

// Section returns one section by number.
func (e *Engine) Section(num int) (*document.Section, error) {
	sec, ok := e.store.Get(num)
	if !ok {
		return nil, &NotFoundError{SectionNum: num}
	}
	return sec, nil
}

// Search runs a ranked keyword search over the indexed sections.
func (e *Engine) Search(query string, limit int) []store.Match {
	return e.store.Search(query, limit)
}

// Retrieve fetches excerpts either by explicit section numbers or by
// topic search.
func (e *Engine) Retrieve(sectionNums []int, topic string) (retrieve.Result, error) {
	if len(sectionNums) > 0 {
		return e.retriever.BySections(sectionNums)
	}
	return e.retriever.ByTopic(topic, e.cfg.Content.TopK), nil
}

// SectionCount reports how many sections are currently indexed.
func (e *Engine) SectionCount() int {
	return e.store.Len()
}

// Close releases the persistence layer, if any.
func (e *Engine) Close() error {
	if e.persist != nil {
		return e.persist.Close()
	}
	return nil
}

func draftRecord(d *content.Draft, v safety.Verdict) *storage.DraftRecord {
	reasons := make([]string, 0, len(v.Reasons))
	for _, r := range v.Reasons {
		reasons = append(reasons, string(r))
	}
	return &storage.DraftRecord{
		ID:             d.ID,
		ContentType:    string(d.Type),
		Mode:           string(d.Mode),
		Topic:          d.Topic,
		RawText:        d.RawText,
		Formatted:      d.Formatted,
		Truncated:      d.Truncated,
		Citations:      d.Citations,
		Status:         d.Status,
		VerdictOutcome: string(v.Outcome),
		VerdictReasons: reasons,
		Explanation:    v.Explanation,
		CreatedAt:      d.CreatedAt,
	}
}
