package models

// AskRequest is the payload for the streaming ask endpoint. The shape is a
// fixed contract with the upstream and must be reproduced exactly.
type AskRequest struct {
	Query  string    `json:"query_str"`
	Params AskParams `json:"params"`
}

// AskParams is the parameters object nested in an AskRequest. FrontendUUID
// and FrontendSessionID are random per-request correlation ids; IsIncognito
// is always true for this adapter. SearchRecencyFilter marshals as JSON null
// when no filter is set.
type AskParams struct {
	Mode                string  `json:"mode"`
	ModelPreference     string  `json:"model_preference"`
	SearchFocus         string  `json:"search_focus"`
	IsIncognito         bool    `json:"is_incognito"`
	SearchRecencyFilter *string `json:"search_recency_filter"`
	FrontendUUID        string  `json:"frontend_uuid"`
	FrontendSessionID   string  `json:"frontend_session_id"`
	Language            string  `json:"language"`
	Timezone            string  `json:"timezone"`
	Version             string  `json:"version"`
	Source              string  `json:"source"`
}

// SearchOptions contains caller-configurable search parameters.
type SearchOptions struct {
	Query    string
	Recency  RecencyFilter
	Language string
	Timezone string
}

// DefaultSearchOptions returns options with sensible defaults.
func DefaultSearchOptions(query string) SearchOptions {
	return SearchOptions{
		Query:    query,
		Language: "en-US",
		Timezone: "America/New_York",
	}
}
