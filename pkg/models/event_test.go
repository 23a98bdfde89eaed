package models

import (
	"reflect"
	"testing"
)

func TestSourceNormalization(t *testing.T) {
	block := WebResult{Name: "Title", URL: "https://a.example", Snippet: "snip", Timestamp: "2026-03-01"}
	legacy := LegacyResult{Title: "Title", URL: "https://a.example", Snippet: "snip", Date: "2026-03-01"}

	want := Source{Title: "Title", URL: "https://a.example", Snippet: "snip", PublishedAt: "2026-03-01"}

	if got := block.Source(); !reflect.DeepEqual(got, want) {
		t.Errorf("WebResult.Source() = %v, want %v", got, want)
	}
	if got := legacy.Source(); !reflect.DeepEqual(got, want) {
		t.Errorf("LegacyResult.Source() = %v, want %v", got, want)
	}
}

func TestStreamEventFailed(t *testing.T) {
	code := "E1"
	msg := "broken"

	tests := []struct {
		name  string
		event StreamEvent
		want  bool
	}{
		{"clean", StreamEvent{}, false},
		{"error code", StreamEvent{ErrorCode: &code}, true},
		{"error message", StreamEvent{ErrorMessage: &msg}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}
