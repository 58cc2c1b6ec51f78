// Package relevance provides keyword-table scoring for community-submitted content.
package relevance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category groups keyword phrases under a single point weight.
// Core categories count toward the multi-match bonus.
type Category struct {
	Name     string   `yaml:"name"`
	Weight   int      `yaml:"weight"`
	Core     bool     `yaml:"core"`
	Keywords []string `yaml:"keywords"`
}

// KeywordTable holds the scoring configuration for one content domain
// (events or audio). Tag markers live beside the scoring categories so the
// two lists reload together and cannot drift into separate files.
type KeywordTable struct {
	Domain     string     `yaml:"domain"`
	Categories []Category `yaml:"categories"`
	// Threshold and BonusPoints are pointers so a yaml file can set them
	// to an explicit zero; only absent values fall back to the defaults.
	Threshold       *int     `yaml:"threshold"`
	BonusPoints     *int     `yaml:"bonus_points"`
	BonusMinMatches int      `yaml:"bonus_min_matches"`
	MaxScore        int      `yaml:"max_score"`
	TagMarkers      []string `yaml:"tag_markers"`
	Suggestions     []string `yaml:"suggestions"`
}

// ApplyDefaults fills unset values from the built-in table for the same domain.
func (t *KeywordTable) ApplyDefaults(fallback *KeywordTable) {
	if t.Threshold == nil {
		t.Threshold = fallback.Threshold
	}
	if t.BonusPoints == nil {
		t.BonusPoints = fallback.BonusPoints
	}
	if t.BonusMinMatches == 0 {
		t.BonusMinMatches = fallback.BonusMinMatches
	}
	if t.MaxScore == 0 {
		t.MaxScore = fallback.MaxScore
	}
	if len(t.Categories) == 0 {
		t.Categories = fallback.Categories
	}
	if len(t.TagMarkers) == 0 {
		t.TagMarkers = fallback.TagMarkers
	}
	if len(t.Suggestions) == 0 {
		t.Suggestions = fallback.Suggestions
	}
}

// Tables holds the keyword tables for both content domains.
type Tables struct {
	Events *KeywordTable `yaml:"events"`
	Audio  *KeywordTable `yaml:"audio"`
}

// DefaultEventsTable returns the built-in events keyword table.
func DefaultEventsTable() *KeywordTable {
	return &KeywordTable{
		Domain: "events",
		Categories: []Category{
			{
				Name: "primary", Weight: 30, Core: true,
				Keywords: []string{"bonk", "$bonk", "letsbonk", "bonk.fun"},
			},
			{
				Name: "secondary", Weight: 15, Core: true,
				Keywords: []string{"solana", "meme coin", "memecoin", "spl token", "launchpad"},
			},
			{
				Name: "events", Weight: 10,
				Keywords: []string{
					"conference", "meetup", "hackathon", "ama", "twitter space",
					"community call", "launch party", "breakpoint", "summit",
				},
			},
			{
				Name: "projects", Weight: 10,
				Keywords: []string{"bonkbot", "bonkswap", "raydium", "jupiter", "pump.fun"},
			},
		},
		Threshold:       intPtr(30),
		BonusPoints:     intPtr(10),
		BonusMinMatches: 3,
		MaxScore:        100,
		TagMarkers: []string{
			"bonk", "solana", "defi", "nft", "staking", "trading", "conference", "meetup",
		},
		Suggestions: []string{
			"Mention BONK or the BONK ecosystem directly in the title or description",
			"Reference Solana or related ecosystem projects",
			"Describe the event format (conference, meetup, AMA, Twitter Space)",
		},
	}
}

// DefaultAudioTable returns the built-in audio keyword table.
func DefaultAudioTable() *KeywordTable {
	return &KeywordTable{
		Domain: "audio",
		Categories: []Category{
			{
				Name: "primary", Weight: 30, Core: true,
				Keywords: []string{"bonk", "$bonk", "letsbonk", "bonk.fun"},
			},
			{
				Name: "secondary", Weight: 15, Core: true,
				Keywords: []string{"solana", "meme coin", "memecoin", "defi", "web3"},
			},
			{
				Name: "content", Weight: 10,
				Keywords: []string{
					"podcast", "interview", "episode", "recap", "spaces", "audio", "panel",
				},
			},
			{
				Name: "projects", Weight: 10,
				Keywords: []string{"bonkbot", "bonkswap", "raydium", "jupiter", "pump.fun"},
			},
		},
		Threshold:       intPtr(25),
		BonusPoints:     intPtr(10),
		BonusMinMatches: 3,
		MaxScore:        100,
		TagMarkers: []string{
			"bonk", "solana", "defi", "nft", "staking", "trading", "podcast", "interview",
		},
		Suggestions: []string{
			"Mention BONK or the BONK ecosystem directly in the title or description",
			"Reference Solana, DeFi, or related ecosystem projects",
			"Describe the recording format (podcast, interview, Spaces recap)",
		},
	}
}

// DefaultTables returns the built-in tables for both domains.
func DefaultTables() *Tables {
	return &Tables{
		Events: DefaultEventsTable(),
		Audio:  DefaultAudioTable(),
	}
}

func intPtr(v int) *int {
	return &v
}

// LoadTables reads keyword tables from a yaml file. A missing domain falls
// back to its built-in table; present domains get defaults applied to
// unset values.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword tables: %w", err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse keyword tables: %w", err)
	}

	if t.Events == nil {
		t.Events = DefaultEventsTable()
	} else {
		t.Events.Domain = "events"
		t.Events.ApplyDefaults(DefaultEventsTable())
	}
	if t.Audio == nil {
		t.Audio = DefaultAudioTable()
	} else {
		t.Audio.Domain = "audio"
		t.Audio.ApplyDefaults(DefaultAudioTable())
	}

	return &t, nil
}
