package content

import (
	"fmt"
	"time"
)

// Mode selects the strategy for choosing what to generate content about.
type Mode string

const (
	ModeBotProposed  Mode = "bot_proposed"
	ModeUserProvided Mode = "user_provided"
	ModeHistorical   Mode = "historical"
)

// ContentType selects the output format.
type ContentType string

const (
	TypeTweet  ContentType = "tweet"
	TypeThread ContentType = "thread"
	TypeScript ContentType = "script"
)

// Draft lifecycle states, set once the safety verdict is known.
const (
	StatusAcceptedForQueue = "accepted-for-queue"
	StatusFlaggedForReview = "flagged-for-review"
	StatusRejected         = "rejected"
)

// GenerationRequest describes one content generation run.
type GenerationRequest struct {
	Mode        Mode
	Type        ContentType
	Topic       string
	SectionNums []int
	Event       string
}

// Validate rejects structurally invalid requests before any retrieval
// or network work is dispatched.
func (r GenerationRequest) Validate() error {
	switch r.Type {
	case TypeTweet, TypeThread, TypeScript:
	default:
		return fmt.Errorf("unknown content type: %q", r.Type)
	}
	switch r.Mode {
	case ModeUserProvided:
		if r.Topic == "" && len(r.SectionNums) == 0 {
			return fmt.Errorf("user_provided mode requires a topic or explicit section numbers")
		}
	case ModeHistorical:
		if r.Event == "" {
			return fmt.Errorf("historical mode requires an event descriptor")
		}
	case ModeBotProposed:
	default:
		return fmt.Errorf("unknown generation mode: %q", r.Mode)
	}
	return nil
}

// Draft is the output of one generation run, awaiting a safety verdict
// and human approval.
type Draft struct {
	ID        string
	Type      ContentType
	Mode      Mode
	Topic     string
	RawText   string
	Formatted string
	Segments  []string
	Truncated bool
	Citations []int
	Status    string
	CreatedAt time.Time
}
