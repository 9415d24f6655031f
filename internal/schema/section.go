package schema

import (
	"fmt"
	"sort"
	"strings"
)

const (
	flattenMaxDepth   = 3
	flattenMaxEntries = 8
)

// BuildPromptSection renders the instruction block for the schema module: for
// each enabled type its field list, then flattened key-value excerpts from any
// entity carrying schema metadata (keyword, variation, knowledge-base, custom).
// The excerpts ground the model's structured output in real data instead of
// letting it invent fields. Returns "" when the module is not active.
func BuildPromptSection(m Merged, entities map[string]map[string]any) string {
	if !m.Active() {
		return ""
	}

	var b strings.Builder
	b.WriteString("STRUCTURED DATA (Schema.org):\n")
	b.WriteString(fmt.Sprintf("Produce schema payloads for these types: %s.\n", strings.Join(m.EnabledTypes, ", ")))

	for _, typeName := range m.EnabledTypes {
		tpl := m.TemplateFor(typeName)
		b.WriteString(fmt.Sprintf("\nType %q", typeName))
		if tpl.Description != "" {
			b.WriteString(": " + tpl.Description)
		}
		b.WriteString("\n")
		for _, f := range tpl.Fields {
			req := "optional"
			if f.Required {
				req = "required"
			}
			b.WriteString(fmt.Sprintf("- %s (%s, %s)", f.Key, f.Type, req))
			if f.Description != "" {
				b.WriteString(": " + f.Description)
			}
			if f.Example != "" {
				b.WriteString(fmt.Sprintf(" (e.g. %s)", f.Example))
			}
			b.WriteString("\n")
		}
	}

	if len(m.CustomFields) > 0 {
		b.WriteString("\nCustom fields to include where relevant:\n")
		writeFlattened(&b, "", m.CustomFields, 1)
	}

	names := make([]string, 0, len(entities))
	for name, meta := range entities {
		if len(meta) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(fmt.Sprintf("\nKnown data from %s:\n", name))
		writeFlattened(&b, "", entities[name], 1)
	}

	return strings.TrimRight(b.String(), "\n")
}

// writeFlattened emits "path: value" lines, depth-limited and entry-capped so
// a large metadata blob cannot flood the prompt.
func writeFlattened(b *strings.Builder, prefix string, value map[string]any, depth int) {
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > flattenMaxEntries {
		keys = keys[:flattenMaxEntries]
	}
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		writeFlattenedValue(b, path, value[k], depth)
	}
}

func writeFlattenedValue(b *strings.Builder, path string, v any, depth int) {
	switch val := v.(type) {
	case map[string]any:
		if depth >= flattenMaxDepth {
			b.WriteString(fmt.Sprintf("- %s: {...}\n", path))
			return
		}
		writeFlattened(b, path, val, depth+1)
	case []any:
		if depth >= flattenMaxDepth {
			b.WriteString(fmt.Sprintf("- %s: [...]\n", path))
			return
		}
		n := len(val)
		if n > flattenMaxEntries {
			n = flattenMaxEntries
		}
		for i := 0; i < n; i++ {
			writeFlattenedValue(b, fmt.Sprintf("%s[%d]", path, i), val[i], depth+1)
		}
	case nil:
		// skip nulls
	default:
		b.WriteString(fmt.Sprintf("- %s: %v\n", path, val))
	}
}
