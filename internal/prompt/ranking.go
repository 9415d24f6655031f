package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brandmill/brandmill-backend/internal/types"
)

// RankingSection renders the competitive-ranking instructions. Two mutually
// exclusive policies: an explicit item list, or model-invented entries when
// auto_generate is set without a list. Returns "" when ranking is off.
func RankingSection(cfg types.RankingSettings, brand string) string {
	if !cfg.Enabled {
		return ""
	}
	if len(cfg.Items) > 0 {
		return explicitRankingSection(cfg)
	}
	if cfg.AutoGenerate {
		return autoRankingSection(cfg, brand)
	}
	return ""
}

func explicitRankingSection(cfg types.RankingSettings) string {
	items := make([]types.RankingItem, len(cfg.Items))
	copy(items, cfg.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Index < items[j].Index })

	primary := cfg.PrimaryPosition
	if primary < 1 || primary > len(items) {
		primary = 1
	}
	primaryItem := items[primary-1]

	var b strings.Builder
	b.WriteString("RANKING:\nInclude a ranked comparison of the following items, in this exact order:")
	for i, item := range items {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, item.Name))
		if item.URL != "" {
			b.WriteString(fmt.Sprintf(" (%s)", item.URL))
		}
		if item.Notes != "" {
			b.WriteString(" - " + item.Notes)
		}
	}
	b.WriteString(fmt.Sprintf("\nPresent %q (position %d) as the top recommendation.", primaryItem.Name, primary))
	b.WriteString(" State at least 3 concrete advantages for it and contrast it explicitly against the other entries.")
	b.WriteString("\nFor every other item, give balanced, neutral pros and cons.")
	return b.String()
}

func autoRankingSection(cfg types.RankingSettings, brand string) string {
	primary := cfg.PrimaryPosition
	if primary < 1 {
		primary = 1
	}
	subject := brand
	if subject == "" {
		subject = "our product"
	}
	var b strings.Builder
	b.WriteString("RANKING:\nInclude a ranked comparison list with at least 4 plausible competitor entries for this product category.")
	b.WriteString(fmt.Sprintf("\n%q must appear at position %d of the list as the recommended choice.", subject, primary))
	b.WriteString("\nAdd a caveat that the comparison reflects general market knowledge and the competitor details are not independently verified.")
	return b.String()
}
