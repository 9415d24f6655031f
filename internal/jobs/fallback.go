package jobs

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brandmill/brandmill-backend/internal/prompt"
	"github.com/brandmill/brandmill-backend/internal/retrieval"
	"github.com/brandmill/brandmill-backend/internal/types"
)

const (
	metaDescriptionMax  = 160
	knowledgeExcerptMax = 600
)

// Fallback is the deterministic article produced when the model is
// unavailable or its reply is unusable. Same inputs, same output.
type Fallback struct {
	Title           string
	MetaDescription string
	Body            string
}

// FallbackContent builds a complete publishable draft from nothing but the
// job inputs: it honors the rule's outline, works in target keywords, places
// every image placeholder, and quotes the retrieved knowledge.
func FallbackContent(keyword string, settings types.RuleSettings, knowledge *retrieval.Result, images []prompt.ImageRef) Fallback {
	titled := titleCase(keyword)

	title := titled + ": A Complete Guide"
	if settings.Source.Brand != "" {
		title = fmt.Sprintf("%s: The %s Guide", titled, settings.Source.Brand)
	}

	meta := fmt.Sprintf("Everything you need to know about %s", keyword)
	if settings.Style.Audience != "" {
		meta += ", written for " + settings.Style.Audience
	}
	meta += "."
	meta = clip(meta, metaDescriptionMax)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(fmt.Sprintf("If you are looking into %s, this guide walks through what matters and how to decide.", keyword))
	if settings.Source.Product != "" {
		b.WriteString(fmt.Sprintf(" Along the way we look at how %s fits in.", settings.Source.Product))
	}
	b.WriteString("\n\n")

	headings := settings.SEO.Outline
	if len(headings) == 0 {
		headings = defaultHeadings(titled)
	}
	imageIdx := 0
	for i, heading := range headings {
		b.WriteString(fmt.Sprintf("## %s\n\n", heading))
		b.WriteString(sectionParagraph(keyword, heading, i))
		b.WriteString("\n\n")
		if imageIdx < len(images) {
			b.WriteString(fmt.Sprintf("[IMAGE_%d]\n\n", imageIdx+1))
			imageIdx++
		}
	}
	// Any placeholders the sections did not absorb land before the close.
	for imageIdx < len(images) {
		b.WriteString(fmt.Sprintf("[IMAGE_%d]\n\n", imageIdx+1))
		imageIdx++
	}

	if len(settings.SEO.TargetKeywords) > 0 {
		b.WriteString(fmt.Sprintf("Related topics worth exploring: %s.\n\n", strings.Join(settings.SEO.TargetKeywords, ", ")))
	}

	if knowledge != nil && strings.TrimSpace(knowledge.Content) != "" {
		b.WriteString("## From Our Knowledge Base\n\n")
		excerpt := clip(strings.TrimSpace(knowledge.Content), knowledgeExcerptMax)
		for _, line := range strings.Split(excerpt, "\n") {
			b.WriteString("> " + line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("## Final Thoughts\n\nChoosing well on %s comes down to knowing your own requirements. Use the points above as a checklist and revisit them as your needs evolve.\n", keyword))

	return Fallback{
		Title:           title,
		MetaDescription: meta,
		Body:            strings.TrimRight(b.String(), "\n"),
	}
}

func defaultHeadings(titled string) []string {
	return []string{
		"What Is " + titled + "?",
		"Key Considerations",
		"How to Choose",
		"Common Mistakes to Avoid",
	}
}

func sectionParagraph(keyword, heading string, i int) string {
	switch i % 4 {
	case 0:
		return fmt.Sprintf("%s is the natural starting point. Before comparing options for %s, get clear on the problem you are solving and the budget you are working with.", heading, keyword)
	case 1:
		return fmt.Sprintf("When weighing %s, focus on the factors that actually change the outcome: quality, total cost, and how well the option fits your situation.", keyword)
	case 2:
		return fmt.Sprintf("A practical approach to %s is to shortlist two or three candidates, test each against your real use case, and only then commit.", keyword)
	default:
		return fmt.Sprintf("Most missteps around %s come from skipping research or over-indexing on a single feature. Take the time to compare before deciding.", keyword)
	}
}

// clip cuts at a word boundary where possible so the result reads cleanly,
// never splitting a multi-byte rune.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	end := max - 3
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "…"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
