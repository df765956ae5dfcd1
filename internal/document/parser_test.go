package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `THE CONSTITUTION

We the people adopt this constitution for ourselves.

CHAPTER 1 - FOUNDING PROVISIONS

1. Supremacy of the constitution
This constitution is the supreme law. Any law inconsistent with it is invalid.

2. Citizenship
There is a common citizenship.
(a) All citizens are equally entitled to the rights of citizenship.
(b) All citizens are equally subject to the duties of citizenship.

CHAPTER 2 - BILL OF RIGHTS

3. Equality
Everyone is equal before the law and has the right to equal protection.

4. Human dignity
Everyone has inherent dignity and the right to have it respected.
`

func TestParseText_ChapterSection(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	sections, err := p.ParseText(sampleDoc)
	require.NoError(t, err)

	// 4 numbered sections plus the preamble.
	require.Len(t, sections, 5)

	preamble := sections[0]
	assert.Equal(t, PreambleNumber, preamble.Number)
	assert.Equal(t, "Preamble", preamble.Title)
	assert.True(t, preamble.IsPreamble())
	assert.Contains(t, preamble.Body, "We the people")

	first := sections[1]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "Supremacy of the constitution", first.Title)
	assert.Equal(t, 1, first.ChapterNum)
	assert.Equal(t, "FOUNDING PROVISIONS", first.ChapterTitle)
	assert.Contains(t, first.Body, "supreme law")

	equality := sections[3]
	assert.Equal(t, 3, equality.Number)
	assert.Equal(t, "Equality", equality.Title)
	assert.Equal(t, 2, equality.ChapterNum)
	assert.Equal(t, "BILL OF RIGHTS", equality.ChapterTitle)
}

func TestParseText_Subsections(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	sections, err := p.ParseText(sampleDoc)
	require.NoError(t, err)

	var citizenship *Section
	for i := range sections {
		if sections[i].Number == 2 {
			citizenship = &sections[i]
		}
	}
	require.NotNil(t, citizenship)
	require.Len(t, citizenship.Subsections, 2)
	assert.Equal(t, "a", citizenship.Subsections[0].Letter)
	assert.Contains(t, citizenship.Subsections[0].Content, "equally entitled")
	assert.Equal(t, "b", citizenship.Subsections[1].Letter)

	full := citizenship.FullText()
	assert.Contains(t, full, "common citizenship")
	assert.Contains(t, full, "(a)")
	assert.Contains(t, full, "(b)")
}

func TestParseText_Keywords(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	sections, err := p.ParseText(sampleDoc)
	require.NoError(t, err)

	equality := sections[3]
	assert.Contains(t, equality.Keywords, "equality")
	assert.Contains(t, equality.Keywords, "law")
}

func TestParseText_NonIncreasingNumbersFailClosed(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	doc := `CHAPTER 1 - ONE

5. Fifth
Body text.

3. Third
Out of order.
`
	_, err = p.ParseText(doc)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, ErrStructureUnrecognized, parseErr.Kind)
}

func TestParseText_NoHeadings(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	_, err = p.ParseText("Just some prose with no recognizable structure at all.")
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, ErrStructureUnrecognized, parseErr.Kind)
}

func TestParseText_Empty(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	_, err = p.ParseText("   \n\n  ")
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, ErrNoTextExtracted, parseErr.Kind)
}

func TestParseText_ArticleStrategy(t *testing.T) {
	p, err := NewParser("article", nil)
	require.NoError(t, err)

	doc := `PART I - GENERAL

Article 1 - Sovereignty
Sovereignty belongs to the people.

Article 2 - Territory
The territory is indivisible.
`
	sections, err := p.ParseText(doc)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, 1, sections[0].Number)
	assert.Equal(t, "Sovereignty", sections[0].Title)
	assert.Equal(t, 1, sections[0].ChapterNum)
	assert.Equal(t, "GENERAL", sections[0].ChapterTitle)
}

func TestParseText_RomanChapterNumbers(t *testing.T) {
	p, err := NewParser("chapter_section", nil)
	require.NoError(t, err)

	doc := `CHAPTER IV - THE EXECUTIVE

1. The President
Executive authority vests in the President.
`
	sections, err := p.ParseText(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, 4, sections[0].ChapterNum)
}

func TestNewParser_UnknownStrategy(t *testing.T) {
	_, err := NewParser("nope", nil)
	require.Error(t, err)
}
