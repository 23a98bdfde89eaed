package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"
	"github.com/diogo/pplx-search-go/pkg/models"
)

func newTestClient(mock *MockHTTPClient) *Client {
	return NewWithTransport(Config{Token: "test-token"}, mock)
}

// completedStream wraps one event body and a terminal frame into an SSE
// stream the mock transport can serve.
func completedStream(eventJSON string) string {
	return "data: " + eventJSON + "\n\n" +
		"data: {\"status\":\"COMPLETED\"}\n\n" +
		"data: [DONE]\n\n"
}

func TestBuildAskPayload(t *testing.T) {
	c := newTestClient(NewMockHTTPClient())

	payload, err := c.buildAskPayload(models.SearchOptions{Query: "what is go"})
	if err != nil {
		t.Fatalf("buildAskPayload() error = %v", err)
	}

	var req map[string]any
	if err := json.Unmarshal(payload, &req); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if got := req["query_str"]; got != "what is go" {
		t.Errorf("query_str = %v, want %q", got, "what is go")
	}

	params, ok := req["params"].(map[string]any)
	if !ok {
		t.Fatalf("params missing from payload: %s", payload)
	}
	if got := params["mode"]; got != "concise" {
		t.Errorf("mode = %v, want %q", got, "concise")
	}
	if got := params["model_preference"]; got != "turbo" {
		t.Errorf("model_preference = %v, want %q", got, "turbo")
	}
	if got := params["is_incognito"]; got != true {
		t.Errorf("is_incognito = %v, want true", got)
	}
	if got := params["language"]; got != "en-US" {
		t.Errorf("language = %v, want default %q", got, "en-US")
	}
	if got, _ := params["frontend_uuid"].(string); got == "" {
		t.Error("frontend_uuid is empty")
	}
	if params["frontend_uuid"] == params["frontend_session_id"] {
		t.Error("frontend_uuid and frontend_session_id should differ")
	}

	// Absent recency must serialize as an explicit null, not be omitted.
	if !bytes.Contains(payload, []byte(`"search_recency_filter":null`)) {
		t.Errorf("payload missing explicit null recency: %s", payload)
	}
}

func TestBuildAskPayloadWithRecency(t *testing.T) {
	c := newTestClient(NewMockHTTPClient())

	payload, err := c.buildAskPayload(models.SearchOptions{Query: "news", Recency: models.RecencyWeek})
	if err != nil {
		t.Fatalf("buildAskPayload() error = %v", err)
	}
	if !bytes.Contains(payload, []byte(`"search_recency_filter":"week"`)) {
		t.Errorf("payload missing recency filter: %s", payload)
	}
}

func TestSearchSuccess(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, completedStream(
		`{"blocks":[{"intended_usage":"markdown_block","markdown_block":{"answer":"Go is a language."}},`+
			`{"intended_usage":"web_results","web_result_block":{"web_results":[{"name":"Go","url":"https://go.dev"}]}}],`+
			`"display_model":"turbo","backend_uuid":"b-123"}`))

	c := newTestClient(mock)
	result, err := c.Search(context.Background(), models.SearchOptions{Query: "what is go"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Answer != "Go is a language." {
		t.Errorf("Answer = %q, want %q", result.Answer, "Go is a language.")
	}
	if len(result.Sources) != 1 || result.Sources[0].URL != "https://go.dev" {
		t.Errorf("Sources = %v, want one go.dev source", result.Sources)
	}
	if result.DisplayModel != "turbo" {
		t.Errorf("DisplayModel = %q, want %q", result.DisplayModel, "turbo")
	}
	if result.BackendUUID != "b-123" {
		t.Errorf("BackendUUID = %q, want %q", result.BackendUUID, "b-123")
	}
	if mock.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", mock.RequestCount)
	}
	if mock.LastRequestPath != askPath {
		t.Errorf("request path = %q, want %q", mock.LastRequestPath, askPath)
	}
}

func TestSearchHeaders(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, completedStream(`{"text":"hi"}`))

	c := newTestClient(mock)
	if _, err := c.Search(context.Background(), models.SearchOptions{Query: "q"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got := mock.LastHeaders["Authorization"]; got != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", got)
	}
	if got := mock.LastHeaders["Accept"]; got != "text/event-stream" {
		t.Errorf("Accept = %q, want text/event-stream", got)
	}
	if got := mock.LastHeaders["X-Api-Version"]; got != apiVersion {
		t.Errorf("X-Api-Version = %q, want %q", got, apiVersion)
	}
}

func TestSearchStopsAtTerminalEvent(t *testing.T) {
	// Frames after the terminal event are buffered but must not be folded in.
	body := "data: {\"text\":\"early\",\"final\":true}\n\n" +
		"data: {\"text\":\"late\"}\n\n" +
		"data: [DONE]\n\n"

	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, body)

	c := newTestClient(mock)
	result, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "early" {
		t.Errorf("Answer = %q, want %q (events after terminal must be ignored)", result.Answer, "early")
	}
}

func TestSearchCleanEOFWithoutTerminal(t *testing.T) {
	// No final flag, no COMPLETED status, no sentinel. A clean close still
	// yields whatever accumulated.
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, "data: {\"text\":\"partial answer\"}\n\n")

	c := newTestClient(mock)
	result, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "partial answer" {
		t.Errorf("Answer = %q, want %q", result.Answer, "partial answer")
	}
}

func TestSearchStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, ErrorKindAuth},
		{http.StatusForbidden, ErrorKindAuth},
		{http.StatusTooManyRequests, ErrorKindRateLimit},
		{http.StatusInternalServerError, ErrorKindNetwork},
		{http.StatusBadGateway, ErrorKindNetwork},
	}

	for _, tt := range tests {
		mock := NewMockHTTPClient()
		mock.SetResponseBody(tt.status, "upstream says no")

		c := newTestClient(mock)
		_, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
		if err == nil {
			t.Fatalf("Search() with status %d returned nil error", tt.status)
		}
		if got := KindOf(err); got != tt.want {
			t.Errorf("status %d: kind = %q, want %q", tt.status, got, tt.want)
		}

		var se *SearchError
		if !errors.As(err, &se) {
			t.Fatalf("status %d: error %T is not *SearchError", tt.status, err)
		}
		if se.StatusCode != tt.status {
			t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
		}
	}
}

func TestSearchNetworkErrorIncludesBody(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusInternalServerError, "database on fire")

	c := newTestClient(mock)
	_, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if err == nil || !strings.Contains(err.Error(), "database on fire") {
		t.Errorf("error = %v, want response body in message", err)
	}
}

func TestSearchTransportError(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.Err = errors.New("dial tcp: connection refused")

	c := newTestClient(mock)
	_, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if got := KindOf(err); got != ErrorKindNetwork {
		t.Errorf("kind = %q, want %q", got, ErrorKindNetwork)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error %q does not carry the transport cause", err)
	}
}

func TestSearchStreamErrorFrame(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, completedStream(
		`{"error_code":"QUERY_BLOCKED","error_message":"query rejected by policy"}`))

	c := newTestClient(mock)
	_, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if got := KindOf(err); got != ErrorKindStream {
		t.Errorf("kind = %q, want %q", got, ErrorKindStream)
	}
	if !strings.Contains(err.Error(), "query rejected by policy") {
		t.Errorf("error %q does not carry the upstream message", err)
	}
}

func TestSearchStreamErrorCodeOnly(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, completedStream(`{"error_code":"E42"}`))

	c := newTestClient(mock)
	_, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if got := KindOf(err); got != ErrorKindStream {
		t.Errorf("kind = %q, want %q", got, ErrorKindStream)
	}
	if !strings.Contains(err.Error(), "E42") {
		t.Errorf("error %q does not carry the upstream code", err)
	}
}

func TestSearchEmptyResult(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, completedStream(`{"status":"COMPLETED"}`))

	c := newTestClient(mock)
	_, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if got := KindOf(err); got != ErrorKindEmpty {
		t.Errorf("kind = %q, want %q", got, ErrorKindEmpty)
	}
}

func TestSearchPlaceholderAnswer(t *testing.T) {
	// Sources without any answer text: the result carries a placeholder, not
	// an empty string.
	mock := NewMockHTTPClient()
	mock.SetResponseBody(http.StatusOK, completedStream(
		`{"blocks":[{"intended_usage":"web_results","web_result_block":{"web_results":[{"name":"Only source","url":"https://s.example"}]}}]}`))

	c := newTestClient(mock)
	result, err := c.Search(context.Background(), models.SearchOptions{Query: "q"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != answerPlaceholder {
		t.Errorf("Answer = %q, want placeholder", result.Answer)
	}
	if len(result.Sources) != 1 {
		t.Errorf("Sources = %v, want 1 entry", result.Sources)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("during stream", func(t *testing.T) {
		mock := NewMockHTTPClient()
		mock.SetResponseBody(http.StatusOK, completedStream(`{"text":"never seen"}`))

		c := newTestClient(mock)
		_, err := c.Search(ctx, models.SearchOptions{Query: "q"})
		if got := KindOf(err); got != ErrorKindCancelled {
			t.Errorf("kind = %q, want %q", got, ErrorKindCancelled)
		}
	})

	t.Run("during request", func(t *testing.T) {
		mock := NewMockHTTPClient()
		mock.Err = context.Canceled

		c := newTestClient(mock)
		_, err := c.Search(ctx, models.SearchOptions{Query: "q"})
		if got := KindOf(err); got != ErrorKindCancelled {
			t.Errorf("kind = %q, want %q", got, ErrorKindCancelled)
		}
	})
}

type closeTrackingBody struct {
	io.Reader
	closed bool
}

func (b *closeTrackingBody) Close() error {
	b.closed = true
	return nil
}

func TestSearchClosesBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"success", http.StatusOK, completedStream(`{"text":"ok"}`)},
		{"terminal early exit", http.StatusOK, "data: {\"text\":\"t\",\"final\":true}\n\ndata: {\"text\":\"more\"}\n\n"},
		{"auth failure", http.StatusUnauthorized, "denied"},
		{"stream error frame", http.StatusOK, completedStream(`{"error_code":"E1"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := &closeTrackingBody{Reader: strings.NewReader(tt.body)}
			mock := NewMockHTTPClient()
			mock.Response = &http.Response{StatusCode: tt.status, Body: body}

			c := newTestClient(mock)
			c.Search(context.Background(), models.SearchOptions{Query: "q"})

			if !body.closed {
				t.Error("response body was not closed")
			}
		})
	}
}
