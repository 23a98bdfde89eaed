package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/diogo/pplx-search-go/pkg/models"
	"github.com/google/uuid"
)

// Fixed ask parameters. The adapter always runs incognito concise/turbo
// searches; anything richer belongs to the interactive product, not an
// agent tool.
const (
	askMode            = "concise"
	askModelPreference = "turbo"
	askSearchFocus     = "internet"
	askSource          = "default"
)

// answerPlaceholder is substituted when a completed stream produced sources
// but no answer text. SearchResult.Answer is never the empty string.
const answerPlaceholder = "No answer text was returned for this query."

// maxErrorBodyBytes bounds how much of a failed response body is read for
// the error message.
const maxErrorBodyBytes = 4 * 1024

// buildAskPayload creates the JSON payload for one ask request. Correlation
// ids are freshly generated per request.
func (c *Client) buildAskPayload(opts models.SearchOptions) ([]byte, error) {
	c.applyDefaults(&opts)

	var recency *string
	if opts.Recency != models.RecencyNone {
		v := string(opts.Recency)
		recency = &v
	}

	req := models.AskRequest{
		Query: opts.Query,
		Params: models.AskParams{
			Mode:                askMode,
			ModelPreference:     askModelPreference,
			SearchFocus:         askSearchFocus,
			IsIncognito:         true,
			SearchRecencyFilter: recency,
			FrontendUUID:        uuid.New().String(),
			FrontendSessionID:   uuid.New().String(),
			Language:            opts.Language,
			Timezone:            opts.Timezone,
			Version:             apiVersion,
			Source:              askSource,
		},
	}

	return json.Marshal(req)
}

// Search performs a single synchronous search: one request, one streamed
// response folded into a final snapshot, no retries. Failures are returned
// as *SearchError with a classification per kind; cancellation via ctx is
// reported as its own kind, not as a network failure.
func (c *Client) Search(ctx context.Context, opts models.SearchOptions) (*models.SearchResult, error) {
	payload, err := c.buildAskPayload(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build ask payload: %w", err)
	}

	resp, err := c.http.Post(ctx, askPath, payload, c.streamHeaders())
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelledError(ctx.Err())
		}
		return nil, &SearchError{Kind: ErrorKindNetwork, Message: "request failed", Err: err}
	}
	// The body is released on every exit path, including terminal-event
	// early exit: stopping the merge loop must not leak the connection.
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	snapshot, err := c.consumeStream(ctx, resp.Body)
	if err != nil {
		return nil, err
	}

	if snapshot.Failed() {
		return nil, streamFailure(snapshot)
	}

	answer, sources := ExtractResult(snapshot)
	if answer == "" && len(sources) == 0 {
		return nil, &SearchError{Kind: ErrorKindEmpty, Message: "search returned no answer and no sources"}
	}
	if answer == "" {
		answer = answerPlaceholder
	}

	result := &models.SearchResult{Answer: answer, Sources: sources}
	if snapshot.DisplayModel != nil {
		result.DisplayModel = *snapshot.DisplayModel
	}
	if snapshot.BackendUUID != nil {
		result.BackendUUID = *snapshot.BackendUUID
	}
	return result, nil
}

// consumeStream folds decoded events into a snapshot until a terminal event
// or end of stream. The loop stops consuming as soon as a terminal event is
// folded in, even if the connection has more buffered bytes. A stream that
// closes cleanly without a terminal marker still counts as done.
func (c *Client) consumeStream(ctx context.Context, body io.Reader) (*models.StreamEvent, error) {
	decoder := NewEventDecoder(body)
	snapshot := &models.StreamEvent{}

	for {
		ev, err := decoder.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, cancelledError(ctx.Err())
			}
			return nil, &SearchError{Kind: ErrorKindStream, Message: "stream read failed", Err: err}
		}

		snapshot = MergeEvents(snapshot, ev)
		if ev.Terminal() {
			break
		}
	}

	return snapshot, nil
}

// classifyStatus maps a non-200 transport status onto the error taxonomy.
// 401/403 mean the bearer was rejected; the cached credential is left alone.
func classifyStatus(resp *http.Response) *SearchError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	msg := string(body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &SearchError{Kind: ErrorKindAuth, Message: "bearer token rejected", StatusCode: resp.StatusCode}
	case http.StatusTooManyRequests:
		return &SearchError{Kind: ErrorKindRateLimit, Message: "rate limited, retry later", StatusCode: resp.StatusCode}
	default:
		if msg == "" {
			msg = "unexpected response status"
		}
		return &SearchError{Kind: ErrorKindNetwork, Message: msg, StatusCode: resp.StatusCode}
	}
}

// streamFailure builds the stream-error classification from an accumulated
// snapshot carrying an upstream error code or message.
func streamFailure(snapshot *models.StreamEvent) *SearchError {
	msg := "upstream reported an error"
	if snapshot.ErrorMessage != nil && *snapshot.ErrorMessage != "" {
		msg = *snapshot.ErrorMessage
	} else if snapshot.ErrorCode != nil && *snapshot.ErrorCode != "" {
		msg = "upstream error code " + *snapshot.ErrorCode
	}
	return &SearchError{Kind: ErrorKindStream, Message: msg}
}

func cancelledError(cause error) *SearchError {
	return &SearchError{Kind: ErrorKindCancelled, Message: "search cancelled", Err: cause}
}
