package prompt

import (
	"fmt"
	"strings"

	"github.com/gmohlue/ConstitutionBOT/internal/retrieve"
)

// Payload is a fully assembled model request. Sections records exactly
// which section numbers were embedded, so citation checks downstream can
// verify the model was never asked to cite something it wasn't given.
type Payload struct {
	System   string
	User     string
	Sections []int
}

// Builder composes mode- and format-specific prompts. It is a pure
// value: no network or storage access.
type Builder struct {
	sectionLabel string
}

func NewBuilder(sectionLabel string) *Builder {
	if strings.TrimSpace(sectionLabel) == "" {
		sectionLabel = "Section"
	}
	return &Builder{sectionLabel: sectionLabel}
}

const systemPrompt = `You are a civic education assistant specializing in a national constitutional document.

Core principles:
1. Educational focus: explain constitutional concepts clearly without providing legal advice
2. Accuracy: always cite the specific sections supplied to you, and only those
3. Accessibility: use simple, inclusive language
4. Neutrality: present information objectively without political bias

Safety guidelines:
- Never provide specific legal advice for individual situations
- Redirect readers to qualified legal professionals for personal legal matters
- Never cite a section that was not supplied in the prompt`

// System returns the shared system instruction.
func (b *Builder) System() string { return systemPrompt }

// Grounding renders excerpts under explicit, parseable section labels.
func (b *Builder) Grounding(excerpts []retrieve.Excerpt) string {
	var parts []string
	for _, e := range excerpts {
		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s %d: %s\n", b.sectionLabel, e.SectionNum, orUntitled(e.SectionTitle))
		if e.ChapterNum > 0 {
			fmt.Fprintf(&sb, "Chapter %d: %s\n", e.ChapterNum, e.ChapterTitle)
		}
		sb.WriteString("\n")
		sb.WriteString(e.Text)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// Tweet builds the single-call prompt for a grounded tweet.
func (b *Builder) Tweet(topic string, excerpts []retrieve.Excerpt, maxChars int) Payload {
	var sb strings.Builder
	sb.WriteString("Create an educational social media post about the source document.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n\n", topic)
	b.writeGrounding(&sb, excerpts)
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "- Maximum %d characters\n", maxChars)
	fmt.Fprintf(&sb, "- Include a citation (e.g., \"%s X\") drawn only from the text above\n", b.sectionLabel)
	sb.WriteString("- Make it engaging and educational\n")
	sb.WriteString("- Do NOT provide legal advice\n\n")
	sb.WriteString("Generate only the post text, nothing else.")
	return b.payload(sb.String(), excerpts)
}

// Thread builds the prompt for a numbered multi-post thread.
func (b *Builder) Thread(topic string, excerpts []retrieve.Excerpt, numPosts, maxChars int) Payload {
	var sb strings.Builder
	sb.WriteString("Create an educational thread about the source document.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n\n", topic)
	b.writeGrounding(&sb, excerpts)
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "- Create %d connected posts (%d chars max each)\n", numPosts, maxChars)
	sb.WriteString("- Start with a hook, flow logically, end with a takeaway\n")
	fmt.Fprintf(&sb, "- Include %s citations throughout, drawn only from the text above\n", strings.ToLower(b.sectionLabel))
	sb.WriteString("- Do NOT provide legal advice\n\n")
	sb.WriteString("Format your response as:\nTWEET 1: [content]\nTWEET 2: [content]\n...and so on")
	return b.payload(sb.String(), excerpts)
}

// Script builds the prompt for longer-form structured content.
func (b *Builder) Script(topic string, excerpts []retrieve.Excerpt) Payload {
	var sb strings.Builder
	sb.WriteString("Write a short educational video script about the source document.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n\n", topic)
	b.writeGrounding(&sb, excerpts)
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Structure the script with [INTRO], [BODY] and [OUTRO] markers\n")
	fmt.Fprintf(&sb, "- Cite sections as \"%s X\", drawn only from the text above\n", b.sectionLabel)
	sb.WriteString("- Use everyday language with real-world examples\n")
	sb.WriteString("- Do NOT provide legal advice")
	return b.payload(sb.String(), excerpts)
}

// ProposeTopic builds the first call of the bot-proposed mode: the model
// suggests a topic anchored to the supplied section.
func (b *Builder) ProposeTopic(excerpts []retrieve.Excerpt) Payload {
	var sb strings.Builder
	sb.WriteString("Here is a section of the source document for inspiration:\n\n")
	sb.WriteString(b.Grounding(excerpts))
	sb.WriteString("\n\nSuggest an educational topic for a social media post anchored to this section.\n\n")
	sb.WriteString("Provide your response in exactly this format:\n")
	sb.WriteString("TOPIC: [brief topic title]\n")
	sb.WriteString("ANGLE: [suggested educational angle or hook]\n")
	sb.WriteString("WHY: [why this topic is relevant]")
	return b.payload(sb.String(), excerpts)
}

// ConnectEvent builds the first call of the historical mode: the model
// names the provisions it believes relate to an external event. The
// returned numbers are verified against the store before being cited.
func (b *Builder) ConnectEvent(event string) Payload {
	var sb strings.Builder
	sb.WriteString("Consider this historical event:\n\n")
	sb.WriteString(event)
	sb.WriteString("\n\nWhich provisions of a constitutional document would most likely relate to it?\n")
	fmt.Fprintf(&sb, "Answer in exactly this format:\nSECTIONS: [comma-separated %s numbers]\nCONNECTION: [one sentence]", strings.ToLower(b.sectionLabel))
	return Payload{System: systemPrompt, User: sb.String()}
}

// Historical builds the generation call of the historical mode, after
// the proposed provisions have been resolved against the store.
func (b *Builder) Historical(event string, excerpts []retrieve.Excerpt, formatRequirements string) Payload {
	var sb strings.Builder
	sb.WriteString("Analyze how the source document relates to this historical event:\n\n")
	fmt.Fprintf(&sb, "Event: %s\n\n", event)
	b.writeGrounding(&sb, excerpts)
	sb.WriteString("Create educational content that:\n")
	sb.WriteString("1. Briefly explains the historical significance\n")
	sb.WriteString("2. Connects it to the provisions above, citing only those\n")
	sb.WriteString("3. Makes it relevant to today\n\n")
	sb.WriteString(formatRequirements)
	return b.payload(sb.String(), excerpts)
}

// Chat builds a conversational prompt including bounded prior history.
func (b *Builder) Chat(history []string, message string, excerpts []retrieve.Excerpt) Payload {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			sb.WriteString(turn)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	b.writeGrounding(&sb, excerpts)
	fmt.Fprintf(&sb, "User: %s\n\n", message)
	fmt.Fprintf(&sb, "Answer the user grounded in the text above. Cite sections as \"%s X\", only those supplied. ", b.sectionLabel)
	sb.WriteString("If the question asks for personal legal advice, decline and suggest professional counsel.")
	return b.payload(sb.String(), excerpts)
}

func (b *Builder) writeGrounding(sb *strings.Builder, excerpts []retrieve.Excerpt) {
	if len(excerpts) == 0 {
		return
	}
	sb.WriteString("Relevant source text:\n\n")
	sb.WriteString(b.Grounding(excerpts))
	sb.WriteString("\n\n")
}

func (b *Builder) payload(user string, excerpts []retrieve.Excerpt) Payload {
	nums := make([]int, len(excerpts))
	for i, e := range excerpts {
		nums[i] = e.SectionNum
	}
	return Payload{System: systemPrompt, User: user, Sections: nums}
}

func orUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return title
}
