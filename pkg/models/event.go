package models

// StreamEvent is one decoded frame from the ask stream. The upstream schema
// is reverse engineered and partial frames are the norm, so every scalar is a
// pointer: nil means the frame did not mention the field, which is a
// different thing from an explicit empty value when events are merged.
type StreamEvent struct {
	Status       *string        `json:"status,omitempty"`
	Final        *bool          `json:"final,omitempty"`
	Text         *string        `json:"text,omitempty"`
	Blocks       []Block        `json:"blocks,omitempty"`
	WebResults   []LegacyResult `json:"web_results,omitempty"`
	DisplayModel *string        `json:"display_model,omitempty"`
	BackendUUID  *string        `json:"backend_uuid,omitempty"`
	ErrorCode    *string        `json:"error_code,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// StatusCompleted is the completion status value that terminates a stream.
const StatusCompleted = "COMPLETED"

// Terminal reports whether this event marks the end of the logical stream,
// either via the final flag or the completion status.
func (e *StreamEvent) Terminal() bool {
	if e.Final != nil && *e.Final {
		return true
	}
	return e.Status != nil && *e.Status == StatusCompleted
}

// Failed reports whether the event carries an upstream error. Once any event
// in a stream carries an error code the stream is considered failed.
func (e *StreamEvent) Failed() bool {
	return e.ErrorCode != nil || e.ErrorMessage != nil
}

// Block is a tagged content unit inside a StreamEvent. Blocks are identified
// by their intended-usage key when merging; a block without a key is never
// merged into another.
type Block struct {
	IntendedUsage  string          `json:"intended_usage,omitempty"`
	MarkdownBlock  *MarkdownBlock  `json:"markdown_block,omitempty"`
	WebResultBlock *WebResultBlock `json:"web_result_block,omitempty"`
}

// MarkdownBlock carries progressively delivered answer text. Chunks arrive
// in overlapping windows: ChunkStartingOffset says where the latest chunk
// window splices into the accumulated chunk list (nil or <= 0 replaces the
// whole list). Answer, when set, is the fully materialized text and wins
// over chunk concatenation for display.
type MarkdownBlock struct {
	Answer              *string  `json:"answer,omitempty"`
	Chunks              []string `json:"chunks,omitempty"`
	ChunkStartingOffset *int     `json:"chunk_starting_offset,omitempty"`
}

// WebResultBlock carries structured citations nested inside a block.
type WebResultBlock struct {
	WebResults []WebResult `json:"web_results,omitempty"`
}

// WebResult is the block-nested citation shape.
type WebResult struct {
	Name      string `json:"name,omitempty"`
	URL       string `json:"url,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// LegacyResult is the flat top-level citation shape still emitted by older
// upstream revisions. Both shapes are normalized to Source before use.
type LegacyResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Source is the normalized citation handed to callers.
func (w WebResult) Source() Source {
	return Source{Title: w.Name, URL: w.URL, Snippet: w.Snippet, PublishedAt: w.Timestamp}
}

// Source normalizes the legacy shape onto the common citation shape.
func (l LegacyResult) Source() Source {
	return Source{Title: l.Title, URL: l.URL, Snippet: l.Snippet, PublishedAt: l.Date}
}
