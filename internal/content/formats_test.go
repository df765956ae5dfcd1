package content

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTweetFormatter_WithinLimit(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{})
	require.NoError(t, err)

	res, err := f.Format("Everyone is equal before the law. (Section 3)")
	require.NoError(t, err)
	assert.Equal(t, "Everyone is equal before the law. (Section 3)", res.Text)
	assert.False(t, res.Truncated)
	assert.Equal(t, []string{res.Text}, res.Segments)
}

func TestTweetFormatter_TruncatesOnWordBoundary(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{MaxTweetLength: 50})
	require.NoError(t, err)

	res, err := f.Format("This is a very long tweet that absolutely will not fit inside fifty characters at all")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Text), 50)
	assert.True(t, strings.HasSuffix(res.Text, "..."))
	// The cut lands between words, never inside one.
	body := strings.TrimSuffix(res.Text, "...")
	assert.False(t, strings.HasSuffix(body, " "))
}

func TestTweetFormatter_NeverCutsCitation(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{MaxTweetLength: 40, SectionLabel: "Section"})
	require.NoError(t, err)

	res, err := f.Format("Equality is guaranteed under Section 317 of the document forever")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	body := strings.TrimSuffix(res.Text, "...")
	// Either the whole citation survives or none of it does.
	assert.NotContains(t, body, "Section 3")
}

func TestTweetFormatter_MultibyteStaysValidUTF8(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{MaxTweetLength: 280})
	require.NoError(t, err)

	res, err := f.Format(strings.Repeat("é", 300))
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Text), 280)
	assert.True(t, utf8.ValidString(res.Text))
}

func TestTweetFormatter_AppendsHashtags(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{Hashtags: []string{"Constitution", "#KnowYourRights"}})
	require.NoError(t, err)

	res, err := f.Format("Everyone is equal before the law. (Section 3)")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Text, " #Constitution #KnowYourRights"))
	assert.LessOrEqual(t, len(res.Text), 280)
}

func TestTweetFormatter_SkipsHashtagsOverCeiling(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{MaxTweetLength: 50, Hashtags: []string{"Constitution"}})
	require.NoError(t, err)

	res, err := f.Format("Everyone is equal before the law always")
	require.NoError(t, err)
	// Appending the tag would push past the ceiling, so it stays off.
	assert.NotContains(t, res.Text, "#Constitution")
	assert.LessOrEqual(t, len(res.Text), 50)
}

func TestTweetFormatter_HashtagNotDuplicated(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{Hashtags: []string{"Rights"}})
	require.NoError(t, err)

	res, err := f.Format("Know your #Rights under the law")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(res.Text, "#Rights"))
}

func TestTweetFormatter_Empty(t *testing.T) {
	f, err := FormatterFor(TypeTweet, FormatConfig{})
	require.NoError(t, err)

	_, err = f.Format("   ")
	require.Error(t, err)
}

func TestThreadFormatter_TweetMarkers(t *testing.T) {
	f, err := FormatterFor(TypeThread, FormatConfig{})
	require.NoError(t, err)

	raw := "TWEET 1: The document opens with equality. Section 3 guarantees it.\nTWEET 2: Citizenship follows in Section 2.\nTWEET 3: Dignity closes the set."
	res, err := f.Format(raw)
	require.NoError(t, err)
	require.Len(t, res.Segments, 3)
	assert.True(t, strings.HasPrefix(res.Segments[0], "[1/3] "))
	assert.True(t, strings.HasPrefix(res.Segments[2], "[3/3] "))
	assert.Contains(t, res.Segments[0], "equality")
	assert.False(t, res.Truncated)
}

func TestThreadFormatter_NumberedLines(t *testing.T) {
	f, err := FormatterFor(TypeThread, FormatConfig{})
	require.NoError(t, err)

	raw := "1. First point about rights here\n2. Second point about duties here"
	res, err := f.Format(raw)
	require.NoError(t, err)
	require.Len(t, res.Segments, 2)
	assert.True(t, strings.HasPrefix(res.Segments[1], "[2/2] "))
}

func TestThreadFormatter_ParagraphFallback(t *testing.T) {
	f, err := FormatterFor(TypeThread, FormatConfig{})
	require.NoError(t, err)

	raw := "This opening paragraph talks about rights.\n\nThis second paragraph talks about duties.\n\nshort"
	res, err := f.Format(raw)
	require.NoError(t, err)
	// The sub-20-char paragraph is dropped.
	require.Len(t, res.Segments, 2)
}

func TestThreadFormatter_SegmentCapFlagsTruncation(t *testing.T) {
	f, err := FormatterFor(TypeThread, FormatConfig{MaxThreadSegments: 2})
	require.NoError(t, err)

	raw := "TWEET 1: one segment here ok\nTWEET 2: two segment here ok\nTWEET 3: three segment here ok"
	res, err := f.Format(raw)
	require.NoError(t, err)
	assert.Len(t, res.Segments, 2)
	assert.True(t, res.Truncated)
}

func TestThreadFormatter_PerSegmentCeiling(t *testing.T) {
	f, err := FormatterFor(TypeThread, FormatConfig{MaxTweetLength: 60})
	require.NoError(t, err)

	long := strings.Repeat("wordy content ", 10)
	raw := "TWEET 1: " + long + "\nTWEET 2: short and fine"
	res, err := f.Format(raw)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	for _, seg := range res.Segments {
		assert.LessOrEqual(t, len(seg), 60)
	}
}

func TestThreadFormatter_NoSegments(t *testing.T) {
	f, err := FormatterFor(TypeThread, FormatConfig{})
	require.NoError(t, err)

	_, err = f.Format("tiny")
	require.Error(t, err)
}

func TestScriptFormatter_KeepsExistingMarkers(t *testing.T) {
	f, err := FormatterFor(TypeScript, FormatConfig{})
	require.NoError(t, err)

	raw := "[INTRO]\nWelcome to the series.\n\n[BODY]\nSection 3 guarantees equality.\n\n[OUTRO]\nSee you next time."
	res, err := f.Format(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, res.Text)
	assert.False(t, res.Truncated)
}

func TestScriptFormatter_SynthesizesStructure(t *testing.T) {
	f, err := FormatterFor(TypeScript, FormatConfig{})
	require.NoError(t, err)

	raw := "Opening thoughts on the document.\n\nThe middle covers Section 3 in depth.\n\nClosing thoughts and a call to action."
	res, err := f.Format(raw)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "[INTRO]")
	assert.Contains(t, res.Text, "[BODY]")
	assert.Contains(t, res.Text, "[OUTRO]")
	assert.Contains(t, res.Text, "Opening thoughts")
	assert.Contains(t, res.Text, "call to action")
}

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), EstimateDuration(""))
	// 150 words at the assumed pace is one minute.
	assert.Equal(t, time.Minute, EstimateDuration(strings.Repeat("word ", 150)))
	assert.Equal(t, 30*time.Second, EstimateDuration(strings.Repeat("word ", 75)))
}

func TestFormatterFor_Unknown(t *testing.T) {
	_, err := FormatterFor(ContentType("haiku"), FormatConfig{})
	require.Error(t, err)
}

func TestSmartTruncate_CitationShift(t *testing.T) {
	re := citationPattern("Section")
	text := "See the details in Section 12 for more"
	// A cut inside "Section 12" moves before the citation.
	out := smartTruncate(text, 25, re)
	assert.NotContains(t, out, "Section")
}
