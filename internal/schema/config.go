// Package schema implements the structured-data ("Schema.org"-style) module:
// three-layer config negotiation, the prompt section that grounds the model's
// structured output, and extraction of the schema payload from a parsed reply.
package schema

import "encoding/json"

type Field struct {
	Key         string `json:"key" yaml:"key"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description" yaml:"description"`
	Example     string `json:"example" yaml:"example"`
}

type Template struct {
	Description string  `json:"description" yaml:"description"`
	Fields      []Field `json:"fields" yaml:"fields"`
}

// Config is one layer of schema configuration (rule, job, or request override).
// Enabled is a tri-state: nil means "no opinion at this layer".
type Config struct {
	Enabled         *bool               `json:"enabled"`
	EnabledTypes    []string            `json:"enabledTypes"`
	SchemaTemplates map[string]Template `json:"schemaTemplates"`
	CustomFields    map[string]any      `json:"customFields"`
}

// ParseConfig decodes a config layer from raw JSON. Empty or unreadable input
// yields nil (layer absent).
func ParseConfig(raw []byte) *Config {
	if len(raw) == 0 {
		return nil
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil
	}
	return &cfg
}

// Merged is the resolved configuration a job executes against.
type Merged struct {
	Enabled      *bool
	EnabledTypes []string
	Templates    map[string]Template
	CustomFields map[string]any
}

// Active reports whether the schema module participates in this job: not
// explicitly disabled, and at least one enabled type accumulated.
func (m Merged) Active() bool {
	if m.Enabled != nil && !*m.Enabled {
		return false
	}
	return len(m.EnabledTypes) > 0
}

// EnabledSet returns the enabled types as a lookup set.
func (m Merged) EnabledSet() map[string]bool {
	set := make(map[string]bool, len(m.EnabledTypes))
	for _, t := range m.EnabledTypes {
		set[t] = true
	}
	return set
}

// Merge resolves the three layers with rule -> job -> override precedence:
//   - Enabled: last non-nil wins.
//   - EnabledTypes: set union across layers (first-appearance order).
//   - SchemaTemplates: keyed shallow merge; a later layer's template replaces
//     an earlier one for the same type name entirely.
//   - CustomFields: recursive deep merge (see DeepMerge).
func Merge(rule, job, override *Config) Merged {
	out := Merged{
		Templates:    map[string]Template{},
		CustomFields: map[string]any{},
	}
	seen := map[string]bool{}
	for _, layer := range []*Config{rule, job, override} {
		if layer == nil {
			continue
		}
		if layer.Enabled != nil {
			out.Enabled = layer.Enabled
		}
		for _, t := range layer.EnabledTypes {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out.EnabledTypes = append(out.EnabledTypes, t)
		}
		for name, tpl := range layer.SchemaTemplates {
			out.Templates[name] = tpl
		}
		if len(layer.CustomFields) > 0 {
			out.CustomFields = DeepMerge(out.CustomFields, layer.CustomFields)
		}
	}
	return out
}

// DeepMerge merges src into dst and returns the result without mutating either
// argument. The contract, per tag combination:
//   - object + object: merge key by key, recursively.
//   - array + anything, scalar + anything: src replaces dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, sv := range src {
		dv, exists := out[k]
		if !exists {
			out[k] = sv
			continue
		}
		dvMap, dvIsMap := dv.(map[string]any)
		svMap, svIsMap := sv.(map[string]any)
		if dvIsMap && svIsMap {
			out[k] = DeepMerge(dvMap, svMap)
			continue
		}
		out[k] = sv
	}
	return out
}
