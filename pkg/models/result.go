package models

import "time"

// Source is one citation in the final result, normalized from either wire
// shape. PublishedAt is kept as the raw upstream string; the renderer parses
// it best-effort when humanizing ages.
type Source struct {
	Title       string `json:"title,omitempty"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// SearchResult is the final output of one search call. Answer is never the
// empty string: when the stream produced no text the orchestrator substitutes
// a placeholder.
type SearchResult struct {
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
	DisplayModel string   `json:"display_model,omitempty"`
	BackendUUID  string   `json:"backend_uuid,omitempty"`
}

// HistoryEntry is one query in the history file.
type HistoryEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Query       string    `json:"query"`
	Recency     string    `json:"recency,omitempty"`
	Answer      string    `json:"answer,omitempty"`
	BackendUUID string    `json:"backend_uuid,omitempty"`
}
