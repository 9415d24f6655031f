package schema

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTemplatesYAML []byte

var (
	defaultsOnce sync.Once
	defaults     map[string]Template
)

// DefaultTemplates returns the built-in field templates used when a merged
// config enables a type without supplying its own template.
func DefaultTemplates() map[string]Template {
	defaultsOnce.Do(func() {
		defaults = map[string]Template{}
		_ = yaml.Unmarshal(defaultTemplatesYAML, &defaults)
	})
	return defaults
}

// TemplateFor resolves a type's template: the merged config's own template
// wins, then the embedded default, then an empty template.
func (m Merged) TemplateFor(typeName string) Template {
	if tpl, ok := m.Templates[typeName]; ok {
		return tpl
	}
	if tpl, ok := DefaultTemplates()[typeName]; ok {
		return tpl
	}
	return Template{}
}
