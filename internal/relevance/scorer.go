package relevance

import (
	"strings"

	"github.com/bonkai/bonkai/pkg/utils"
)

// Scorer scores content against a single keyword table.
// Both Score and ExtractTags are pure; the scorer holds no mutable state.
type Scorer struct {
	table *KeywordTable
}

// NewScorer creates a scorer for the given table.
func NewScorer(table *KeywordTable) *Scorer {
	return &Scorer{table: table}
}

// Table returns the underlying keyword table.
func (s *Scorer) Table() *KeywordTable {
	return s.table
}

// Score computes the relevance score for a piece of content.
// Title, description, and tags are concatenated and lowercased once; each
// keyword phrase present as a substring adds its category weight exactly
// once regardless of how many times it occurs. When the count of distinct
// core-category hits exceeds BonusMinMatches, a flat bonus is added.
// The result is clamped to [0, MaxScore].
func (s *Scorer) Score(title, description string, tags []string) int {
	text := strings.ToLower(title + " " + description + " " + strings.Join(tags, " "))

	total := 0
	coreHits := 0
	for _, cat := range s.table.Categories {
		for _, kw := range cat.Keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			total += cat.Weight
			if cat.Core {
				coreHits++
			}
		}
	}

	if coreHits > s.table.BonusMinMatches {
		total += *s.table.BonusPoints
	}

	return utils.ClampInt(total, 0, s.table.MaxScore)
}

// IsRelevant reports whether score meets the table's threshold.
func (s *Scorer) IsRelevant(score int) bool {
	return score >= *s.table.Threshold
}

// Threshold returns the table's acceptance threshold.
func (s *Scorer) Threshold() int {
	return *s.table.Threshold
}

// ExtractTags derives display tags from title and description only
// (externally supplied tags are not consulted). Markers are checked in
// table order; each marker appears at most once in the result.
func (s *Scorer) ExtractTags(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	var tags []string
	for _, marker := range s.table.TagMarkers {
		if strings.Contains(text, marker) {
			tags = append(tags, marker)
		}
	}
	return tags
}

// Suggestions returns improvement hints for rejected submissions.
func (s *Scorer) Suggestions() []string {
	return s.table.Suggestions
}

// MergeTags unions supplied and extracted tags, preserving first-seen order.
func MergeTags(supplied, extracted []string) []string {
	seen := make(map[string]bool, len(supplied)+len(extracted))
	var out []string
	for _, lst := range [][]string{supplied, extracted} {
		for _, tag := range lst {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
