package schema

import (
	"reflect"
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func TestMerge(t *testing.T) {
	cases := []struct {
		name        string
		rule        *Config
		job         *Config
		override    *Config
		wantTypes   []string
		wantActive  bool
		wantEnabled *bool
	}{
		{
			name:       "all_nil_layers",
			wantTypes:  nil,
			wantActive: false,
		},
		{
			name:       "types_accumulate_as_union",
			rule:       &Config{EnabledTypes: []string{"Product"}},
			job:        &Config{EnabledTypes: []string{"FAQPage", "Product"}},
			override:   &Config{EnabledTypes: []string{"Article"}},
			wantTypes:  []string{"Product", "FAQPage", "Article"},
			wantActive: true,
		},
		{
			name:        "later_disable_wins",
			rule:        &Config{Enabled: boolPtr(true), EnabledTypes: []string{"Product"}},
			override:    &Config{Enabled: boolPtr(false)},
			wantTypes:   []string{"Product"},
			wantActive:  false,
			wantEnabled: boolPtr(false),
		},
		{
			name:        "later_enable_overrides_earlier_disable",
			rule:        &Config{Enabled: boolPtr(false), EnabledTypes: []string{"Product"}},
			job:         &Config{Enabled: boolPtr(true)},
			wantTypes:   []string{"Product"},
			wantActive:  true,
			wantEnabled: boolPtr(true),
		},
		{
			name:       "enabled_without_types_is_inactive",
			job:        &Config{Enabled: boolPtr(true)},
			wantTypes:  nil,
			wantActive: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.rule, tc.job, tc.override)
			if !reflect.DeepEqual(got.EnabledTypes, tc.wantTypes) {
				t.Fatalf("EnabledTypes=%v, want %v", got.EnabledTypes, tc.wantTypes)
			}
			if got.Active() != tc.wantActive {
				t.Fatalf("Active()=%v, want %v", got.Active(), tc.wantActive)
			}
			if tc.wantEnabled != nil {
				if got.Enabled == nil || *got.Enabled != *tc.wantEnabled {
					t.Fatalf("Enabled=%v, want %v", got.Enabled, *tc.wantEnabled)
				}
			}
		})
	}
}

func TestMergeIsSupersetOfJobLayer(t *testing.T) {
	job := &Config{EnabledTypes: []string{"FAQPage", "HowTo"}}
	got := Merge(&Config{EnabledTypes: []string{"Product"}}, job, &Config{EnabledTypes: []string{"Article"}})
	set := got.EnabledSet()
	for _, want := range job.EnabledTypes {
		if !set[want] {
			t.Fatalf("merged set %v missing job-level type %q", got.EnabledTypes, want)
		}
	}
}

func TestMergeTemplatesReplaceWholesale(t *testing.T) {
	ruleTpl := Template{Description: "rule product", Fields: []Field{{Key: "name"}, {Key: "sku"}}}
	jobTpl := Template{Description: "job product", Fields: []Field{{Key: "gtin"}}}

	got := Merge(
		&Config{SchemaTemplates: map[string]Template{"Product": ruleTpl}},
		&Config{SchemaTemplates: map[string]Template{"Product": jobTpl}},
		nil,
	)
	tpl := got.Templates["Product"]
	if tpl.Description != "job product" {
		t.Fatalf("Description=%q, want job layer to replace entirely", tpl.Description)
	}
	// No field-level merge within one template: the rule's fields are gone.
	if len(tpl.Fields) != 1 || tpl.Fields[0].Key != "gtin" {
		t.Fatalf("Fields=%v, want only the job layer's fields", tpl.Fields)
	}
}

func TestDeepMerge(t *testing.T) {
	cases := []struct {
		name string
		dst  map[string]any
		src  map[string]any
		want map[string]any
	}{
		{
			name: "objects_merge_keywise",
			dst:  map[string]any{"a": map[string]any{"x": 1.0, "y": 2.0}},
			src:  map[string]any{"a": map[string]any{"y": 9.0, "z": 3.0}},
			want: map[string]any{"a": map[string]any{"x": 1.0, "y": 9.0, "z": 3.0}},
		},
		{
			name: "arrays_replace_not_concat",
			dst:  map[string]any{"tags": []any{"a", "b"}},
			src:  map[string]any{"tags": []any{"c"}},
			want: map[string]any{"tags": []any{"c"}},
		},
		{
			name: "scalar_replaces_object",
			dst:  map[string]any{"a": map[string]any{"x": 1.0}},
			src:  map[string]any{"a": "flat"},
			want: map[string]any{"a": "flat"},
		},
		{
			name: "object_replaces_scalar",
			dst:  map[string]any{"a": "flat"},
			src:  map[string]any{"a": map[string]any{"x": 1.0}},
			want: map[string]any{"a": map[string]any{"x": 1.0}},
		},
		{
			name: "disjoint_keys_union",
			dst:  map[string]any{"a": 1.0},
			src:  map[string]any{"b": 2.0},
			want: map[string]any{"a": 1.0, "b": 2.0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeepMerge(tc.dst, tc.src)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("DeepMerge=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1.0}}
	src := map[string]any{"a": map[string]any{"y": 2.0}}
	_ = DeepMerge(dst, src)
	inner := dst["a"].(map[string]any)
	if _, leaked := inner["y"]; leaked {
		t.Fatal("DeepMerge mutated dst")
	}
}
