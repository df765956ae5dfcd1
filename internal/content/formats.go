package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// FormatResult is the outcome of shaping a raw draft. Truncated must be
// surfaced by callers; silent data loss is not allowed.
type FormatResult struct {
	Text      string
	Segments  []string
	Truncated bool
}

// Formatter shapes raw model output into a format-constrained result.
type Formatter interface {
	ContentType() ContentType
	Format(raw string) (FormatResult, error)
}

// FormatConfig tunes the format handlers.
type FormatConfig struct {
	MaxTweetLength    int
	MaxThreadSegments int
	SectionLabel      string
	Hashtags          []string
}

func (c FormatConfig) withDefaults() FormatConfig {
	if c.MaxTweetLength <= 0 {
		c.MaxTweetLength = 280
	}
	if c.MaxThreadSegments <= 0 {
		c.MaxThreadSegments = 10
	}
	if strings.TrimSpace(c.SectionLabel) == "" {
		c.SectionLabel = "Section"
	}
	return c
}

// FormatterFor returns the handler for the given content type.
func FormatterFor(t ContentType, cfg FormatConfig) (Formatter, error) {
	cfg = cfg.withDefaults()
	switch t {
	case TypeTweet:
		return &TweetFormatter{cfg: cfg}, nil
	case TypeThread:
		return &ThreadFormatter{cfg: cfg}, nil
	case TypeScript:
		return &ScriptFormatter{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown content type: %q", t)
	}
}

// TweetFormatter enforces a strict character ceiling, truncating on a
// word boundary when the raw text overflows.
type TweetFormatter struct {
	cfg FormatConfig
}

func (f *TweetFormatter) ContentType() ContentType { return TypeTweet }

func (f *TweetFormatter) Format(raw string) (FormatResult, error) {
	text := cleanContent(raw)
	if text == "" {
		return FormatResult{}, fmt.Errorf("empty tweet content")
	}
	truncated := false
	if len(text) > f.cfg.MaxTweetLength {
		text = smartTruncate(text, f.cfg.MaxTweetLength-3, f.citationRe()) + "..."
		truncated = true
	}
	text = appendHashtags(text, f.cfg.Hashtags, f.cfg.MaxTweetLength)
	return FormatResult{Text: text, Segments: []string{text}, Truncated: truncated}, nil
}

// appendHashtags adds configured hashtags while they fit the ceiling.
func appendHashtags(text string, hashtags []string, maxLen int) string {
	for _, tag := range hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		if strings.Contains(text, tag) || len(text)+1+len(tag) > maxLen {
			continue
		}
		text += " " + tag
	}
	return text
}

func (f *TweetFormatter) citationRe() *regexp.Regexp { return citationPattern(f.cfg.SectionLabel) }

// ThreadFormatter splits raw text into an ordered sequence of
// length-bounded segments with [i/n] continuity markers. Splits never
// land inside a citation.
type ThreadFormatter struct {
	cfg FormatConfig
}

func (f *ThreadFormatter) ContentType() ContentType { return TypeThread }

var (
	threadTweetRe  = regexp.MustCompile(`(?i)TWEET\s*\d+:`)
	threadMarkerRe = regexp.MustCompile(`\[\d+/\d+\]`)
	numberedLineRe = regexp.MustCompile(`(?m)^\d+\.\s*`)
	markerPrefixRe = regexp.MustCompile(`^\[\d+/\d+\]`)
)

func (f *ThreadFormatter) Format(raw string) (FormatResult, error) {
	segments := parseThreadSegments(raw)
	if len(segments) == 0 {
		return FormatResult{}, fmt.Errorf("no thread segments recognized")
	}

	truncated := false
	if len(segments) > f.cfg.MaxThreadSegments {
		segments = segments[:f.cfg.MaxThreadSegments]
		truncated = true
	}

	citationRe := citationPattern(f.cfg.SectionLabel)
	formatted := make([]string, 0, len(segments))
	for i, seg := range segments {
		prefix := fmt.Sprintf("[%d/%d] ", i+1, len(segments))
		if markerPrefixRe.MatchString(seg) {
			prefix = ""
		}
		budget := f.cfg.MaxTweetLength - len(prefix)
		if len(seg) > budget {
			seg = smartTruncate(seg, budget-3, citationRe) + "..."
			truncated = true
		}
		formatted = append(formatted, prefix+seg)
	}

	return FormatResult{
		Text:      strings.Join(formatted, "\n"),
		Segments:  formatted,
		Truncated: truncated,
	}, nil
}

func parseThreadSegments(raw string) []string {
	for _, re := range []*regexp.Regexp{threadTweetRe, threadMarkerRe, numberedLineRe} {
		if segments := splitOnMarkers(raw, re); len(segments) >= 2 {
			return segments
		}
	}

	// Fallback: paragraphs of viable length.
	var segments []string
	for _, part := range strings.Split(raw, "\n\n") {
		if cleaned := cleanContent(part); len(cleaned) > 20 {
			segments = append(segments, cleaned)
		}
	}
	return segments
}

// splitOnMarkers slices raw between occurrences of a segment marker.
func splitOnMarkers(raw string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(raw, -1)
	if len(locs) < 2 {
		return nil
	}
	segments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if cleaned := cleanContent(raw[loc[1]:end]); cleaned != "" {
			segments = append(segments, cleaned)
		}
	}
	return segments
}

// ScriptFormatter enforces a minimum structural shape: intro, body and
// outro markers. Missing markers are synthesized around the existing
// text so no content is lost; there is no length ceiling.
type ScriptFormatter struct {
	cfg FormatConfig
}

func (f *ScriptFormatter) ContentType() ContentType { return TypeScript }

var scriptMarkerRe = regexp.MustCompile(`(?im)^\s*\[?(INTRO|BODY|OUTRO)\]?:?\s*$`)

func (f *ScriptFormatter) Format(raw string) (FormatResult, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return FormatResult{}, fmt.Errorf("empty script content")
	}

	markers := map[string]bool{}
	for _, m := range scriptMarkerRe.FindAllStringSubmatch(text, -1) {
		markers[strings.ToUpper(m[1])] = true
	}
	if markers["INTRO"] && markers["BODY"] && markers["OUTRO"] {
		return FormatResult{Text: text, Segments: []string{text}, Truncated: false}, nil
	}

	// Synthesize structure: first paragraph as intro, last as outro.
	paragraphs := splitParagraphs(text)
	var sb strings.Builder
	sb.WriteString("[INTRO]\n")
	sb.WriteString(paragraphs[0])
	sb.WriteString("\n\n[BODY]\n")
	if len(paragraphs) > 2 {
		sb.WriteString(strings.Join(paragraphs[1:len(paragraphs)-1], "\n\n"))
	} else {
		sb.WriteString(paragraphs[len(paragraphs)-1])
	}
	sb.WriteString("\n\n[OUTRO]\n")
	sb.WriteString(paragraphs[len(paragraphs)-1])

	out := sb.String()
	return FormatResult{Text: out, Segments: []string{out}, Truncated: false}, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = []string{text}
	}
	return out
}

// wordsPerMinute is the assumed spoken pace for script duration
// estimates.
const wordsPerMinute = 150

// EstimateDuration approximates how long a script takes to read aloud.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	seconds := float64(words) / wordsPerMinute * 60
	return time.Duration(seconds * float64(time.Second)).Round(time.Second)
}

// citationPattern matches citations like "Section 12" for the
// configured label.
func citationPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s+\d+`)
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	artifactRe   = regexp.MustCompile(`(?i)^(TWEET\s*\d+:|Reply:|Answer:)\s*`)
)

func cleanContent(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return artifactRe.ReplaceAllString(text, "")
}

// smartTruncate cuts text at a word boundary within maxLen, shifting the
// cut backwards when it would land inside a citation.
func smartTruncate(text string, maxLen int, citationRe *regexp.Regexp) string {
	if maxLen <= 0 {
		return ""
	}
	if len(text) <= maxLen {
		return text
	}

	// Never slice mid-rune: back the byte cut up to a rune boundary
	// before looking for a word boundary.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if lastSpace := strings.LastIndex(text[:cut], " "); lastSpace > maxLen*7/10 {
		cut = lastSpace
	}

	// Never cut through a citation: move the cut before any citation
	// that spans it.
	for _, loc := range citationRe.FindAllStringIndex(text, -1) {
		if loc[0] < cut && loc[1] > cut {
			cut = loc[0]
			break
		}
	}

	return strings.TrimRight(strings.TrimSpace(text[:cut]), ".,!?;:-")
}
