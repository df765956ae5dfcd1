package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGetDraft(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record := &DraftRecord{
		ID:             "draft-1",
		ContentType:    "tweet",
		Mode:           "user_provided",
		Topic:          "equality",
		RawText:        "raw text",
		Formatted:      "formatted text",
		Truncated:      true,
		Citations:      []int{3, 9},
		Status:         "flagged-for-review",
		VerdictOutcome: "flag",
		VerdictReasons: []string{"length-exceeded"},
		Explanation:    "content was truncated",
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveDraft(ctx, record))

	loaded, err := store.GetDraft(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, record.Topic, loaded.Topic)
	assert.Equal(t, record.Citations, loaded.Citations)
	assert.Equal(t, record.VerdictReasons, loaded.VerdictReasons)
	assert.True(t, loaded.Truncated)
}

func TestSQLiteStore_SaveDraftUpserts(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record := &DraftRecord{ID: "draft-1", Status: "flagged-for-review", CreatedAt: time.Now()}
	require.NoError(t, store.SaveDraft(ctx, record))

	record.Status = "accepted-for-queue"
	record.Formatted = "edited"
	require.NoError(t, store.SaveDraft(ctx, record))

	loaded, err := store.GetDraft(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "accepted-for-queue", loaded.Status)
	assert.Equal(t, "edited", loaded.Formatted)
}

func TestSQLiteStore_GetDraftNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetDraft(context.Background(), "nope")
	require.Error(t, err)
}

func TestSQLiteStore_UpdateStatus(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDraft(ctx, &DraftRecord{ID: "draft-1", Status: "flagged-for-review", CreatedAt: time.Now()}))
	require.NoError(t, store.UpdateStatus(ctx, "draft-1", "rejected"))

	loaded, err := store.GetDraft(ctx, "draft-1")
	require.NoError(t, err)
	assert.Equal(t, "rejected", loaded.Status)

	require.Error(t, store.UpdateStatus(ctx, "missing", "rejected"))
}

func TestSQLiteStore_TurnsOrderedBySeq(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	turns := []*TurnRecord{
		{ConversationID: "c1", Role: "user", Text: "what is equality?", CreatedAt: time.Now()},
		{ConversationID: "c1", Role: "assistant", Text: "see Section 3", Citations: []int{3}, CreatedAt: time.Now()},
		{ConversationID: "c1", Role: "user", Text: "and citizenship?", CreatedAt: time.Now()},
	}
	for _, turn := range turns {
		require.NoError(t, store.AppendTurn(ctx, turn))
	}
	// A second conversation does not interleave.
	require.NoError(t, store.AppendTurn(ctx, &TurnRecord{ConversationID: "c2", Role: "user", Text: "hi", CreatedAt: time.Now()}))

	history, err := store.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "what is equality?", history[0].Text)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, []int{3}, history[1].Citations)
	assert.Equal(t, "and citizenship?", history[2].Text)
	assert.Less(t, history[0].Seq, history[1].Seq)

	other, err := store.History(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestSQLiteStore_HistoryEmpty(t *testing.T) {
	store := testStore(t)

	history, err := store.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}
