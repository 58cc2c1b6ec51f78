package models

import "time"

// Event is a community event accepted into the calendar.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Date           string    `json:"date,omitempty"`
	Location       string    `json:"location,omitempty"`
	URL            string    `json:"url,omitempty"`
	Tags           []string  `json:"tags"`
	RelevanceScore int       `json:"relevanceScore"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AudioTrack is an episode or recording accepted into the audio library.
type AudioTrack struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	AudioURL        string    `json:"audioUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Tags            []string  `json:"tags"`
	RelevanceScore  int       `json:"relevanceScore"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EventInput is the request body for submitting an event.
type EventInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date,omitempty"`
	Location    string   `json:"location,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// AudioInput is the request body for submitting an audio track.
type AudioInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AudioURL        string   `json:"audioUrl,omitempty"`
	DurationSeconds int      `json:"durationSeconds,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// SearchHit is a single content search result.
type SearchHit struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}
