package jobs

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/brandmill/brandmill-backend/internal/prompt"
	"github.com/brandmill/brandmill-backend/internal/retrieval"
	"github.com/brandmill/brandmill-backend/internal/types"
)

func TestFallbackContentBareKeyword(t *testing.T) {
	fb := FallbackContent("garden sheds", types.RuleSettings{}, nil, nil)

	if fb.Title == "" || fb.Body == "" {
		t.Fatal("fallback produced empty title or body")
	}
	if !strings.Contains(fb.Title, "Garden Sheds") {
		t.Errorf("title missing keyword: %q", fb.Title)
	}
	if !strings.Contains(fb.Body, "garden sheds") {
		t.Error("body never mentions keyword")
	}
	if len(fb.MetaDescription) > metaDescriptionMax {
		t.Errorf("meta description %d chars exceeds %d", len(fb.MetaDescription), metaDescriptionMax)
	}
	if strings.Contains(fb.Body, "[IMAGE_") {
		t.Error("image placeholder emitted with no images")
	}
	if !strings.Contains(fb.Body, "## ") {
		t.Error("body has no section headings")
	}
}

func TestFallbackContentDeterministic(t *testing.T) {
	settings := types.RuleSettings{
		Source: types.SourceSettings{Brand: "Acme"},
		SEO:    types.SEOSettings{Outline: []string{"Intro", "Detail"}},
	}
	a := FallbackContent("widgets", settings, nil, nil)
	b := FallbackContent("widgets", settings, nil, nil)
	if a != b {
		t.Error("fallback content is not deterministic")
	}
}

func TestFallbackContentHonorsRule(t *testing.T) {
	settings := types.RuleSettings{
		Source: types.SourceSettings{Brand: "Acme", Product: "Acme Widget Pro"},
		Style:  types.StyleSettings{Audience: "small business owners"},
		SEO: types.SEOSettings{
			Outline:        []string{"Why It Matters", "Getting Started"},
			TargetKeywords: []string{"automation", "workflow"},
		},
	}
	fb := FallbackContent("widgets", settings, nil, nil)

	if !strings.Contains(fb.Title, "Acme") {
		t.Errorf("brand missing from title: %q", fb.Title)
	}
	if !strings.Contains(fb.MetaDescription, "small business owners") {
		t.Errorf("audience missing from meta: %q", fb.MetaDescription)
	}
	for _, want := range []string{"## Why It Matters", "## Getting Started", "automation, workflow", "Acme Widget Pro"} {
		if !strings.Contains(fb.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(fb.Body, "## What Is") {
		t.Error("default headings used despite outline")
	}
}

func TestFallbackContentPlacesEveryImage(t *testing.T) {
	images := []prompt.ImageRef{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}, {Name: "f"}}
	fb := FallbackContent("widgets", types.RuleSettings{SEO: types.SEOSettings{Outline: []string{"One", "Two"}}}, nil, images)

	for i := range images {
		token := fmt.Sprintf("[IMAGE_%d]", i+1)
		if strings.Count(fb.Body, token) != 1 {
			t.Errorf("placeholder %s appears %d times, want 1", token, strings.Count(fb.Body, token))
		}
	}
}

func TestFallbackContentQuotesKnowledge(t *testing.T) {
	knowledge := &retrieval.Result{
		Content: "Widgets ship in three sizes.\nThe large size needs assembly.",
		Mode:    retrieval.ModeChunk,
	}
	fb := FallbackContent("widgets", types.RuleSettings{}, knowledge, nil)

	if !strings.Contains(fb.Body, "## From Our Knowledge Base") {
		t.Fatal("knowledge section missing")
	}
	if !strings.Contains(fb.Body, "> Widgets ship in three sizes.") {
		t.Error("knowledge not quoted")
	}
}

func TestFallbackContentClipsLongKnowledge(t *testing.T) {
	long := strings.Repeat("word ", 500)
	fb := FallbackContent("widgets", types.RuleSettings{}, &retrieval.Result{Content: long}, nil)

	idx := strings.Index(fb.Body, "## From Our Knowledge Base")
	if idx == -1 {
		t.Fatal("knowledge section missing")
	}
	section := fb.Body[idx:]
	if end := strings.Index(section, "## Final Thoughts"); end != -1 {
		section = section[:end]
	}
	if len(section) > knowledgeExcerptMax+200 {
		t.Errorf("knowledge excerpt not clipped: %d chars", len(section))
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 160); got != "short" {
		t.Errorf("clip altered short string: %q", got)
	}
	long := strings.Repeat("abcde ", 50)
	got := clip(long, 60)
	if len(got) > 60 {
		t.Errorf("clip result %d bytes exceeds max", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("clipped string missing ellipsis: %q", got)
	}
}

func TestClipMultibyte(t *testing.T) {
	// No spaces, all two-byte runes; the cut point falls mid-rune and must
	// back up instead of splitting it.
	got := clip(strings.Repeat("é", 60), 50)
	if len(got) > 50 {
		t.Errorf("clip result %d bytes exceeds max", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("clip split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("clipped string missing ellipsis: %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"garden sheds", "Garden Sheds"},
		{"best widgets 2026", "Best Widgets 2026"},
		{"", ""},
		{"already Titled", "Already Titled"},
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
