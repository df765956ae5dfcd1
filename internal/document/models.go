package document

import (
	"strings"
	"time"
)

// Kind identifies the source file format handed to the parser.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

// PreambleNumber is the synthetic section number assigned to text that
// appears before the first recognizable heading.
const PreambleNumber = 0

// Subsection is a lettered sub-item under a section, e.g. "(a) ...".
type Subsection struct {
	Letter  string `json:"letter"`
	Content string `json:"content"`
}

// Section is the atomic retrievable unit of a parsed document.
// Section numbers are unique within a document and strictly increasing
// in document order.
type Section struct {
	ChapterNum   int          `json:"chapter_num"`
	ChapterTitle string       `json:"chapter_title"`
	Number       int          `json:"section_num"`
	Title        string       `json:"section_title"`
	Body         string       `json:"content"`
	Subsections  []Subsection `json:"subsections,omitempty"`
	Keywords     []string     `json:"keywords,omitempty"`
}

// FullText returns the body followed by all subsection texts, in order.
func (s *Section) FullText() string {
	if len(s.Subsections) == 0 {
		return s.Body
	}
	var sb strings.Builder
	sb.WriteString(s.Body)
	for _, sub := range s.Subsections {
		sb.WriteString("\n(")
		sb.WriteString(sub.Letter)
		sb.WriteString(") ")
		sb.WriteString(sub.Content)
	}
	return sb.String()
}

// IsPreamble reports whether this is the synthetic preamble section.
func (s *Section) IsPreamble() bool {
	return s.Number == PreambleNumber
}

// Document is one active source document. It is immutable once built and
// replaced wholesale on re-upload.
type Document struct {
	ID         string
	Filename   string
	Kind       Kind
	IngestedAt time.Time
	RawText    string
	Sections   []Section
}
