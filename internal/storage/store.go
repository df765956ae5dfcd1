package storage

import (
	"context"
	"time"
)

// DraftRecord is the persisted form of a generated draft and its
// safety verdict.
type DraftRecord struct {
	ID             string
	ContentType    string
	Mode           string
	Topic          string
	RawText        string
	Formatted      string
	Truncated      bool
	Citations      []int
	Status         string
	VerdictOutcome string
	VerdictReasons []string
	Explanation    string
	CreatedAt      time.Time
}

// TurnRecord is the persisted form of one conversation turn.
type TurnRecord struct {
	ConversationID string
	Seq            int
	Role           string
	Text           string
	Citations      []int
	CreatedAt      time.Time
}

// DraftStore persists drafts and their verdicts. The engine depends
// only on this interface; the storage technology behind it is
// interchangeable.
type DraftStore interface {
	SaveDraft(ctx context.Context, record *DraftRecord) error
	GetDraft(ctx context.Context, id string) (*DraftRecord, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// ConversationStore persists append-only conversation history.
type ConversationStore interface {
	AppendTurn(ctx context.Context, record *TurnRecord) error
	History(ctx context.Context, conversationID string) ([]*TurnRecord, error)
}

// Store combines all persistence capabilities.
type Store interface {
	DraftStore
	ConversationStore
	Close() error
}
