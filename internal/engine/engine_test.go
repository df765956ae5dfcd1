package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmohlue/ConstitutionBOT/internal/content"
	"github.com/gmohlue/ConstitutionBOT/internal/document"
	"github.com/gmohlue/ConstitutionBOT/internal/llm"
	"github.com/gmohlue/ConstitutionBOT/internal/safety"
	"github.com/gmohlue/ConstitutionBOT/internal/storage"
)

const sampleDoc = `THE CONSTITUTION

We the people adopt this constitution.

CHAPTER 1 - FOUNDING PROVISIONS

1. Supremacy
This constitution is the supreme law of the land.

2. Citizenship
There is a common citizenship shared by all.

CHAPTER 2 - BILL OF RIGHTS

3. Equality
Everyone is equal before the law and enjoys equal protection.
`

func testEngine(t *testing.T, client llm.Client) *Engine {
	t.Helper()
	eng, err := New(Options{Client: client, Seed: 11})
	require.NoError(t, err)

	n, err := eng.Ingest(context.Background(), []byte(sampleDoc), document.KindText, "constitution.txt")
	require.NoError(t, err)
	require.Equal(t, 4, n, "three sections plus the preamble")
	return eng
}

func TestIngest_FailedParseLeavesStoreIntact(t *testing.T) {
	eng := testEngine(t, &llm.MockClient{})
	require.Equal(t, 4, eng.SectionCount())

	_, err := eng.Ingest(context.Background(), []byte("nothing structured here"), document.KindText, "bad.txt")
	require.Error(t, err)

	// The previous document remains queryable.
	assert.Equal(t, 4, eng.SectionCount())
	sec, err := eng.Section(3)
	require.NoError(t, err)
	assert.Equal(t, "Equality", sec.Title)
}

func TestSectionLookup(t *testing.T) {
	eng := testEngine(t, &llm.MockClient{})

	sec, err := eng.Section(3)
	require.NoError(t, err)
	assert.Equal(t, 2, sec.ChapterNum)
	assert.Equal(t, "BILL OF RIGHTS", sec.ChapterTitle)

	_, err = eng.Section(42)
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 42, nf.SectionNum)
}

func TestSearch(t *testing.T) {
	eng := testEngine(t, &llm.MockClient{})

	matches := eng.Search("equality", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, 3, matches[0].Section.Number)
}

func TestRetrieve(t *testing.T) {
	eng := testEngine(t, &llm.MockClient{})

	res, err := eng.Retrieve([]int{2, 3}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, res.SectionNumbers())

	res, err = eng.Retrieve(nil, "citizenship")
	require.NoError(t, err)
	require.False(t, res.Empty())
	assert.Equal(t, 2, res.Excerpts[0].SectionNum)
}

func TestGenerate_PassingDraftAccepted(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"Everyone is equal before the law. (Section 3)"}}
	eng := testEngine(t, mock)

	draft, verdict, err := eng.Generate(context.Background(), content.GenerationRequest{
		Mode:  content.ModeUserProvided,
		Type:  content.TypeTweet,
		Topic: "equality",
	})
	require.NoError(t, err)
	assert.Equal(t, safety.OutcomePass, verdict.Outcome)
	assert.Equal(t, content.StatusAcceptedForQueue, draft.Status)
	assert.Contains(t, draft.Citations, 3)
}

func TestGenerate_LegalAdviceRejected(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"Section 3 means you should sue anyone who discriminates."}}
	eng := testEngine(t, mock)

	draft, verdict, err := eng.Generate(context.Background(), content.GenerationRequest{
		Mode:  content.ModeUserProvided,
		Type:  content.TypeTweet,
		Topic: "equality",
	})
	require.NoError(t, err)
	assert.Equal(t, safety.OutcomeReject, verdict.Outcome)
	assert.Equal(t, content.StatusRejected, draft.Status)
	assert.Contains(t, verdict.Reasons, safety.ReasonLegalAdviceRisk)
}

func TestGenerate_HistoricalUnresolvableCitationFlagged(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{
		"SECTIONS: 3, 99\nCONNECTION: equal treatment was at stake",
		"The ruling leaned on equal protection. (Section 3)",
	}}
	eng := testEngine(t, mock)

	draft, verdict, err := eng.Generate(context.Background(), content.GenerationRequest{
		Mode:  content.ModeHistorical,
		Type:  content.TypeTweet,
		Event: "A landmark equality ruling",
	})
	require.NoError(t, err)
	assert.Equal(t, safety.OutcomeFlag, verdict.Outcome)
	assert.Contains(t, verdict.Reasons, safety.ReasonCitationInvalid)
	assert.NotContains(t, draft.Citations, 99)
	assert.Equal(t, content.StatusFlaggedForReview, draft.Status)
}

func TestGenerate_PersistsDraft(t *testing.T) {
	persist, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)

	mock := &llm.MockClient{Responses: []string{"Everyone is equal. (Section 3)"}}
	eng, err := New(Options{Client: mock, Persist: persist, Seed: 11})
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Ingest(context.Background(), []byte(sampleDoc), document.KindText, "constitution.txt")
	require.NoError(t, err)

	draft, _, err := eng.Generate(context.Background(), content.GenerationRequest{
		Mode:  content.ModeUserProvided,
		Type:  content.TypeTweet,
		Topic: "equality",
	})
	require.NoError(t, err)

	record, err := persist.GetDraft(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.Formatted, record.Formatted)
	assert.Equal(t, draft.Status, record.Status)
	assert.Equal(t, draft.Citations, record.Citations)
}

func TestChatTurn_TwoTurnsInOrder(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{
		"Equality is guaranteed by Section 3.",
		"Citizenship is covered by Section 2.",
	}}
	eng := testEngine(t, mock)
	ctx := context.Background()

	first, err := eng.ChatTurn(ctx, "c1", "what about equality?")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, first.Citations)

	second, err := eng.ChatTurn(ctx, "c1", "and Section 2?")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, second.Citations)

	history := eng.ChatHistory("c1")
	require.Len(t, history, 4)
	assert.Equal(t, "what about equality?", history[0].Text)
	assert.Equal(t, "Equality is guaranteed by Section 3.", history[1].Text)
	assert.Equal(t, "and Section 2?", history[2].Text)

	// Second call carries the first exchange as context.
	assert.Contains(t, mock.Requests[1].Prompt, "what about equality?")
}

func TestChatTurn_PersistsBothSides(t *testing.T) {
	persist, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)

	mock := &llm.MockClient{Responses: []string{"Equality is guaranteed by Section 3."}}
	eng, err := New(Options{Client: mock, Persist: persist, Seed: 11})
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Ingest(context.Background(), []byte(sampleDoc), document.KindText, "constitution.txt")
	require.NoError(t, err)

	_, err = eng.ChatTurn(context.Background(), "c1", "what about equality?")
	require.NoError(t, err)

	records, err := persist.History(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "user", records[0].Role)
	assert.Equal(t, "assistant", records[1].Role)
	assert.Equal(t, []int{3}, records[1].Citations)
	// The user spoke first, so their turn never timestamps after the reply.
	assert.False(t, records[0].CreatedAt.After(records[1].CreatedAt))
}
