package document

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy bundles the heading patterns used to recognize document
// structure. Patterns operate line-wise on the extracted text.
type Strategy struct {
	ChapterPattern    *regexp.Regexp
	SectionPattern    *regexp.Regexp
	SubsectionPattern *regexp.Regexp
}

var (
	chapterSectionStrategy = Strategy{
		ChapterPattern:    regexp.MustCompile(`(?mi)^CHAPTER\s+(\d+|[IVXLC]+)\s*[-–—:]?\s*(.+?)\s*$`),
		SectionPattern:    regexp.MustCompile(`(?m)^(\d+)\.\s+(.+?)\s*$`),
		SubsectionPattern: regexp.MustCompile(`^\s*\(([a-z])\)\s*(.+)$`),
	}
	articleStrategy = Strategy{
		ChapterPattern:    regexp.MustCompile(`(?mi)^(?:PART|TITLE)\s+(\d+|[IVXLC]+)\s*[-–—:]?\s*(.+?)\s*$`),
		SectionPattern:    regexp.MustCompile(`(?mi)^(?:Article|Art\.?)\s+(\d+)\s*[-–—:]?\s*(.+?)\s*$`),
		SubsectionPattern: regexp.MustCompile(`^\s*\(([a-z])\)\s*(.+)$`),
	}
	numberedListStrategy = Strategy{
		ChapterPattern:    regexp.MustCompile(`(?mi)^Part\s+(\d+|[IVXLC]+)\s*[-–—:]?\s*(.+?)\s*$`),
		SectionPattern:    regexp.MustCompile(`(?m)^(\d+)\.\s+(.+?)\s*$`),
		SubsectionPattern: regexp.MustCompile(`^\s*\(([a-z])\)\s*(.+)$`),
	}
)

// Strategies maps config names to heading strategies.
var Strategies = map[string]Strategy{
	"chapter_section": chapterSectionStrategy,
	"article":         articleStrategy,
	"numbered_list":   numberedListStrategy,
}

// DefaultKeywords seeds section keyword extraction when the config
// provides none.
var DefaultKeywords = []string{
	"rights", "freedom", "equality", "justice", "law", "legal",
	"policy", "procedure", "requirement", "obligation", "duty",
	"authority", "power", "responsibility", "compliance", "regulation",
}

// Parser converts raw file bytes into an ordered sequence of Sections.
type Parser struct {
	strategy Strategy
	keywords []string
}

// NewParser creates a parser for the named strategy.
func NewParser(strategyName string, keywords []string) (*Parser, error) {
	strategy, ok := Strategies[strategyName]
	if !ok {
		return nil, fmt.Errorf("unknown parsing strategy: %s", strategyName)
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &Parser{strategy: strategy, keywords: keywords}, nil
}

// Parse extracts text from raw bytes and parses it into sections.
// Section numbers must be strictly increasing across the document;
// anything else fails closed with a ParseError.
func (p *Parser) Parse(raw []byte, kind Kind) ([]Section, error) {
	text, err := ExtractText(raw, kind)
	if err != nil {
		return nil, err
	}
	return p.ParseText(text)
}

// ParseText parses already-extracted text into sections.
func (p *Parser) ParseText(text string) ([]Section, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newParseError(ErrNoTextExtracted, nil)
	}

	type chapterSpan struct {
		num   int
		title string
		body  string
	}

	var chapters []chapterSpan
	var preambleParts []string

	chapterMatches := p.strategy.ChapterPattern.FindAllStringSubmatchIndex(text, -1)
	if len(chapterMatches) == 0 {
		chapters = append(chapters, chapterSpan{num: 0, title: "", body: text})
	} else {
		if lead := strings.TrimSpace(text[:chapterMatches[0][0]]); lead != "" {
			preambleParts = append(preambleParts, lead)
		}
		for i, m := range chapterMatches {
			num := parseChapterNum(text[m[2]:m[3]])
			title := cleanText(text[m[4]:m[5]])
			start := m[1]
			end := len(text)
			if i+1 < len(chapterMatches) {
				end = chapterMatches[i+1][0]
			}
			chapters = append(chapters, chapterSpan{num: num, title: title, body: text[start:end]})
		}
	}

	var sections []Section
	lastNum := 0
	for _, ch := range chapters {
		sectionMatches := p.strategy.SectionPattern.FindAllStringSubmatchIndex(ch.body, -1)
		if len(sectionMatches) == 0 {
			if lead := strings.TrimSpace(ch.body); lead != "" {
				preambleParts = append(preambleParts, lead)
			}
			continue
		}
		if lead := strings.TrimSpace(ch.body[:sectionMatches[0][0]]); lead != "" {
			preambleParts = append(preambleParts, lead)
		}
		for i, m := range sectionMatches {
			num := mustAtoi(ch.body[m[2]:m[3]])
			title := cleanText(ch.body[m[4]:m[5]])
			start := m[1]
			end := len(ch.body)
			if i+1 < len(sectionMatches) {
				end = sectionMatches[i+1][0]
			}
			if num <= lastNum {
				return nil, newParseError(ErrStructureUnrecognized,
					fmt.Errorf("section %d follows section %d; numbering must be strictly increasing", num, lastNum))
			}
			lastNum = num

			subsections, mainBody := p.parseSubsections(ch.body[start:end])
			section := Section{
				ChapterNum:   ch.num,
				ChapterTitle: ch.title,
				Number:       num,
				Title:        title,
				Body:         mainBody,
				Subsections:  subsections,
			}
			section.Keywords = p.extractKeywords(section.Title, section.FullText())
			sections = append(sections, section)
		}
	}

	if len(sections) == 0 {
		return nil, newParseError(ErrStructureUnrecognized,
			fmt.Errorf("no section headings recognized"))
	}

	if len(preambleParts) > 0 {
		preamble := Section{
			Number: PreambleNumber,
			Title:  "Preamble",
			Body:   cleanText(strings.Join(preambleParts, " ")),
		}
		preamble.Keywords = p.extractKeywords(preamble.Title, preamble.Body)
		sections = append([]Section{preamble}, sections...)
	}

	return sections, nil
}

// parseSubsections splits lettered sub-items off a section body and
// returns them with the remaining main content.
func (p *Parser) parseSubsections(text string) ([]Subsection, string) {
	var subsections []Subsection
	var mainParts []string
	var current *Subsection

	for _, line := range strings.Split(text, "\n") {
		m := p.strategy.SubsectionPattern.FindStringSubmatch(line)
		switch {
		case m != nil:
			if current != nil {
				subsections = append(subsections, *current)
			}
			current = &Subsection{Letter: m[1], Content: cleanText(m[2])}
		case current != nil:
			if trimmed := cleanText(line); trimmed != "" {
				current.Content += " " + trimmed
			}
		default:
			mainParts = append(mainParts, line)
		}
	}
	if current != nil {
		subsections = append(subsections, *current)
	}

	return subsections, cleanText(strings.Join(mainParts, "\n"))
}

func (p *Parser) extractKeywords(title, body string) []string {
	text := strings.ToLower(title + " " + body)
	var found []string
	for _, kw := range p.keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
			if len(found) == 10 {
				break
			}
		}
	}
	return found
}

// parseChapterNum handles both decimal and Roman numeral chapter numbers.
func parseChapterNum(s string) int {
	s = strings.TrimSpace(s)
	if n := mustAtoi(s); n > 0 {
		return n
	}
	romanMap := map[rune]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100}
	result, prev := 0, 0
	upper := strings.ToUpper(s)
	for i := len(upper) - 1; i >= 0; i-- {
		val, ok := romanMap[rune(upper[i])]
		if !ok {
			return 1
		}
		if val < prev {
			result -= val
		} else {
			result += val
		}
		prev = val
	}
	if result <= 0 {
		return 1
	}
	return result
}

func mustAtoi(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
