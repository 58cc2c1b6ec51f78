package models

import "time"

// WalletSession is the locally owned wallet connection state.
// The server is only notified best-effort; this struct is the source of truth.
type WalletSession struct {
	Address        string    `json:"address"`
	Balance        float64   `json:"balance"`
	PortfolioValue float64   `json:"portfolioValue"`
	Connected      bool      `json:"connected"`
	Provider       string    `json:"provider"`
	ConnectedAt    time.Time `json:"connectedAt"`
}
