// Package models defines data structures for the ask API requests, stream
// events and search results.
package models

// RecencyFilter restricts search results to a publication window.
type RecencyFilter string

const (
	RecencyNone  RecencyFilter = ""
	RecencyDay   RecencyFilter = "day"
	RecencyWeek  RecencyFilter = "week"
	RecencyMonth RecencyFilter = "month"
	RecencyYear  RecencyFilter = "year"
)

// AvailableRecencyFilters contains all non-empty filter values.
var AvailableRecencyFilters = []RecencyFilter{
	RecencyDay,
	RecencyWeek,
	RecencyMonth,
	RecencyYear,
}

// IsValidRecency checks if a recency filter value is valid. The empty value
// is valid and means "no filter".
func IsValidRecency(r RecencyFilter) bool {
	if r == RecencyNone {
		return true
	}
	for _, valid := range AvailableRecencyFilters {
		if r == valid {
			return true
		}
	}
	return false
}
