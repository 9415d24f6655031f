package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

type ReferenceLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type SourceSettings struct {
	Brand          string          `json:"brand"`
	Product        string          `json:"product"`
	Campaign       string          `json:"campaign"`
	Channels       []string        `json:"channels"`
	References     []ReferenceLink `json:"references"`
	PrimaryKeyword string          `json:"primary_keyword"`
}

type StyleSettings struct {
	Audience         string   `json:"audience"`
	Tone             string   `json:"tone"`
	ForbiddenPhrases []string `json:"forbidden_phrases"`
}

type SEOSettings struct {
	TargetKeywords    []string `json:"target_keywords"`
	MinWords          int      `json:"min_words"`
	MaxWords          int      `json:"max_words"`
	KeywordDensityMin float64  `json:"keyword_density_min"`
	KeywordDensityMax float64  `json:"keyword_density_max"`
	HeadingCount      int      `json:"heading_count"`
	InternalLinks     int      `json:"internal_links"`
	ExternalLinks     int      `json:"external_links"`
	Outline           []string `json:"outline"`
}

type MediaSettings struct {
	ImageCount   int        `json:"image_count"`
	ImageSource  string     `json:"image_source"`
	CollectionID *uuid.UUID `json:"collection_id"`
	Tags         []string   `json:"tags"`
}

type RankingItem struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Notes string `json:"notes"`
}

type RankingSettings struct {
	Enabled         bool          `json:"enabled"`
	AutoGenerate    bool          `json:"auto_generate"`
	PrimaryPosition int           `json:"primary_position"`
	Items           []RankingItem `json:"items"`
}

// RuleSettings is the typed view of a GenerationRule's jsonb columns.
type RuleSettings struct {
	Name    string
	Source  SourceSettings
	Style   StyleSettings
	SEO     SEOSettings
	Media   MediaSettings
	Ranking RankingSettings
}

// ParseSettings decodes every settings blob. Unparseable or empty blobs decode
// to zero values so a half-configured rule still drives a job.
func (r *GenerationRule) ParseSettings() RuleSettings {
	out := RuleSettings{}
	if r == nil {
		return out
	}
	out.Name = r.Name
	if len(r.SourceSettings) > 0 {
		_ = json.Unmarshal(r.SourceSettings, &out.Source)
	}
	if len(r.StyleSettings) > 0 {
		_ = json.Unmarshal(r.StyleSettings, &out.Style)
	}
	if len(r.SEOSettings) > 0 {
		_ = json.Unmarshal(r.SEOSettings, &out.SEO)
	}
	if len(r.MediaSettings) > 0 {
		_ = json.Unmarshal(r.MediaSettings, &out.Media)
	}
	if len(r.RankingSettings) > 0 {
		_ = json.Unmarshal(r.RankingSettings, &out.Ranking)
	}
	return out
}
