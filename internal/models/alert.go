package models

import "time"

// Alert is a user price alert.
type Alert struct {
	ID        string    `json:"id"`
	Condition string    `json:"condition"`
	Threshold float64   `json:"threshold"`
	Note      string    `json:"note,omitempty"`
	IsActive  bool      `json:"isActive"`
	Triggered bool      `json:"triggered"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AlertInput is the request body for creating or updating an alert.
type AlertInput struct {
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
	Note      string  `json:"note,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// Alert condition values.
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)
