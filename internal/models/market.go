// Package models defines core data structures for market data, content, alerts, and wallet sessions.
package models

import "time"

// TokenStats is the normalized market snapshot for the token.
// Numeric fields are pointers: nil means the upstream did not report a
// finite value for the field.
type TokenStats struct {
	Price         *float64  `json:"price"`
	MarketCap     *float64  `json:"marketCap"`
	Change24h     *float64  `json:"change24h"`
	Volume24h     *float64  `json:"volume24h"`
	Sentiment     *float64  `json:"sentiment,omitempty"`
	SocialVolume  *float64  `json:"socialVolume,omitempty"`
	MindshareRank *int      `json:"mindshareRank,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
