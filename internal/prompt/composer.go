// Package prompt assembles the single natural-language instruction sent to
// the model. Compose is pure: same input, same prompt. Every section is
// omitted entirely when its source data is absent; an empty section header is
// never emitted.
package prompt

import (
	"fmt"
	"strings"

	"github.com/brandmill/brandmill-backend/internal/types"
)

// NoKnowledgeSentinel is emitted in place of the knowledge block when
// retrieval produced nothing, so the model never infers missing context.
const NoKnowledgeSentinel = "No additional knowledge base content is available for this task. Rely on general knowledge only."

type ImageRef struct {
	Name string
	Tags []string
}

type Input struct {
	Keyword          string
	Rule             *types.RuleSettings
	KnowledgeContent string
	Images           []ImageRef
	SchemaSection    string
	SchemaActive     bool
}

func Compose(in Input) string {
	var sections []string

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			sections = append(sections, s)
		}
	}

	add(framingSection(in))
	add(audienceSection(in.Rule))
	add(seoSection(in.Rule))
	add(outlineSection(in.Rule))
	if in.Rule != nil {
		brand := in.Rule.Source.Brand
		if brand == "" {
			brand = in.Rule.Source.Product
		}
		add(RankingSection(in.Rule.Ranking, brand))
	}
	add(imageSection(in.Images))
	add(knowledgeSection(in.KnowledgeContent))
	add(in.SchemaSection)
	add(outputContract(in.SchemaActive))

	return strings.Join(sections, "\n\n")
}

func framingSection(in Input) string {
	var b strings.Builder
	b.WriteString("You are an expert marketing content writer. Write a complete article about the keyword: ")
	b.WriteString(fmt.Sprintf("%q.", in.Keyword))
	if in.Rule == nil {
		return b.String()
	}
	src := in.Rule.Source
	if src.Brand != "" {
		b.WriteString(fmt.Sprintf("\nThe article promotes the brand %q.", src.Brand))
	}
	if src.Product != "" {
		b.WriteString(fmt.Sprintf("\nFeatured product: %s.", src.Product))
	}
	if src.Campaign != "" {
		b.WriteString(fmt.Sprintf("\nCampaign context: %s.", src.Campaign))
	}
	if len(src.Channels) > 0 {
		b.WriteString(fmt.Sprintf("\nDistribution channels: %s.", strings.Join(src.Channels, ", ")))
	}
	if len(src.References) > 0 {
		b.WriteString("\nReference links to cite where natural:")
		for _, ref := range src.References {
			if ref.URL == "" {
				continue
			}
			if ref.Title != "" {
				b.WriteString(fmt.Sprintf("\n- %s: %s", ref.Title, ref.URL))
			} else {
				b.WriteString(fmt.Sprintf("\n- %s", ref.URL))
			}
		}
	}
	return b.String()
}

func audienceSection(rule *types.RuleSettings) string {
	if rule == nil {
		return ""
	}
	style := rule.Style
	if style.Audience == "" && style.Tone == "" && len(style.ForbiddenPhrases) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("AUDIENCE & STYLE:")
	if style.Audience != "" {
		b.WriteString(fmt.Sprintf("\nWrite for this audience: %s.", style.Audience))
	}
	if style.Tone != "" {
		b.WriteString(fmt.Sprintf("\nTone of voice: %s.", style.Tone))
	}
	if len(style.ForbiddenPhrases) > 0 {
		b.WriteString(fmt.Sprintf("\nNever use these phrases: %s.", strings.Join(style.ForbiddenPhrases, "; ")))
	}
	return b.String()
}

func seoSection(rule *types.RuleSettings) string {
	if rule == nil {
		return ""
	}
	seo := rule.SEO
	var lines []string
	if wc := wordCountText(seo.MinWords, seo.MaxWords); wc != "" {
		lines = append(lines, "The article must be "+wc+".")
	}
	if len(seo.TargetKeywords) > 0 {
		lines = append(lines, fmt.Sprintf("Work in these target keywords naturally: %s.", strings.Join(seo.TargetKeywords, ", ")))
	}
	if d := densityText(seo.KeywordDensityMin, seo.KeywordDensityMax); d != "" {
		lines = append(lines, "Keep the main keyword density "+d+".")
	}
	if seo.HeadingCount > 0 {
		lines = append(lines, fmt.Sprintf("Structure the body with at least %d markdown headings.", seo.HeadingCount))
	}
	if seo.InternalLinks > 0 {
		lines = append(lines, fmt.Sprintf("Include %d internal link placeholders.", seo.InternalLinks))
	}
	if seo.ExternalLinks > 0 {
		lines = append(lines, fmt.Sprintf("Include %d external links to authoritative sources.", seo.ExternalLinks))
	}
	if len(lines) == 0 {
		return ""
	}
	return "SEO CONSTRAINTS:\n" + strings.Join(lines, "\n")
}

// wordCountText renders a numeric range as human text, e.g.
// "not less than 800 words and no more than 1200 words".
func wordCountText(min, max int) string {
	switch {
	case min > 0 && max > 0:
		return fmt.Sprintf("not less than %d words and no more than %d words", min, max)
	case min > 0:
		return fmt.Sprintf("not less than %d words", min)
	case max > 0:
		return fmt.Sprintf("no more than %d words", max)
	}
	return ""
}

func densityText(min, max float64) string {
	switch {
	case min > 0 && max > 0:
		return fmt.Sprintf("between %g%% and %g%%", min, max)
	case min > 0:
		return fmt.Sprintf("at least %g%%", min)
	case max > 0:
		return fmt.Sprintf("at most %g%%", max)
	}
	return ""
}

func outlineSection(rule *types.RuleSettings) string {
	if rule == nil || len(rule.SEO.Outline) == 0 {
		return "OUTLINE:\nNo outline is prescribed; design your own outline appropriate for the topic."
	}
	var b strings.Builder
	b.WriteString("OUTLINE:\nFollow this outline in order:")
	for i, item := range rule.SEO.Outline {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, item))
	}
	return b.String()
}

func imageSection(images []ImageRef) string {
	if len(images) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("IMAGES:\nThe following images will be inserted into the article:")
	for i, img := range images {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, img.Name))
		if len(img.Tags) > 0 {
			b.WriteString(fmt.Sprintf(" (tags: %s)", strings.Join(img.Tags, ", ")))
		}
	}
	b.WriteString(fmt.Sprintf("\nPlace exactly one placeholder token per image in the body where it belongs, using the form [IMAGE_1] through [IMAGE_%d].", len(images)))
	b.WriteString("\nUse only the placeholder tokens. Never write HTML image tags or prose describing the images.")
	return b.String()
}

func knowledgeSection(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "KNOWLEDGE BASE:\n" + NoKnowledgeSentinel
	}
	return "KNOWLEDGE BASE:\nGround the article in the following material:\n\n" + content
}

func outputContract(schemaActive bool) string {
	var b strings.Builder
	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("Respond with a single JSON object and nothing else. No prose, no markdown fences, no text outside the object.\n")
	b.WriteString("Required string fields: \"title\", \"meta_description\", \"body\" (the article as markdown).")
	if schemaActive {
		b.WriteString("\nAlso required: \"schema_payloads\", an object of the form {\"types\": [...], \"payloads\": {\"<type>\": <value>}} covering the structured data types requested above.")
	}
	return b.String()
}
