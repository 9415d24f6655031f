package schema

import (
	"strings"
	"testing"
)

func TestBuildPromptSectionInactive(t *testing.T) {
	if got := BuildPromptSection(Merged{}, nil); got != "" {
		t.Fatalf("inactive module should render nothing, got %q", got)
	}
	off := false
	m := Merged{Enabled: &off, EnabledTypes: []string{"Product"}}
	if got := BuildPromptSection(m, nil); got != "" {
		t.Fatalf("disabled module should render nothing, got %q", got)
	}
}

func TestBuildPromptSectionFieldsAndDefaults(t *testing.T) {
	m := Merged{EnabledTypes: []string{"Product"}, Templates: map[string]Template{}}
	out := BuildPromptSection(m, nil)
	if !strings.Contains(out, `Type "Product"`) {
		t.Fatalf("missing type heading:\n%s", out)
	}
	// Falls back to the embedded default template.
	if !strings.Contains(out, "name (string, required)") {
		t.Fatalf("missing default Product fields:\n%s", out)
	}
}

func TestBuildPromptSectionEntityExcerpts(t *testing.T) {
	m := Merged{EnabledTypes: []string{"Product"}}
	entities := map[string]map[string]any{
		"keyword": {
			"brand": "Glow Labs",
			"offer": map[string]any{"price": 19.99, "currency": "USD"},
		},
	}
	out := BuildPromptSection(m, entities)
	if !strings.Contains(out, "Known data from keyword:") {
		t.Fatalf("missing entity heading:\n%s", out)
	}
	if !strings.Contains(out, "- brand: Glow Labs") {
		t.Fatalf("missing flattened scalar:\n%s", out)
	}
	if !strings.Contains(out, "- offer.price: 19.99") {
		t.Fatalf("missing nested flattened value:\n%s", out)
	}
}

func TestBuildPromptSectionDepthCap(t *testing.T) {
	deep := map[string]any{
		"l1": map[string]any{
			"l2": map[string]any{
				"l3": map[string]any{
					"l4": "too deep",
				},
			},
		},
	}
	m := Merged{EnabledTypes: []string{"Product"}}
	out := BuildPromptSection(m, map[string]map[string]any{"custom": deep})
	if strings.Contains(out, "too deep") {
		t.Fatalf("depth cap not applied:\n%s", out)
	}
	if !strings.Contains(out, "l1.l2.l3: {...}") {
		t.Fatalf("expected elided marker at depth cap:\n%s", out)
	}
}
