package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/diogo/pplx-search-go/pkg/models"
)

// doneSentinel is the literal payload that terminates the stream.
const doneSentinel = "[DONE]"

// EventDecoder turns the raw ask response body into a sequence of
// StreamEvents. The protocol is line oriented but not standard SSE: "data:"
// lines accumulate into one payload (a logical event may span several of
// them), a blank line flushes the payload, and the [DONE] sentinel ends the
// stream. Malformed payloads are dropped silently; the feed is known to emit
// transient garbage frames.
type EventDecoder struct {
	scanner *bufio.Scanner
	pending []string
	done    bool
}

// NewEventDecoder creates a decoder reading from r. The reader is consumed
// incrementally; the full response is never buffered.
func NewEventDecoder(r io.Reader) *EventDecoder {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &EventDecoder{scanner: scanner}
}

// Next returns the next decoded event. It returns io.EOF after the [DONE]
// sentinel or when the underlying stream ends, and ctx.Err() when the caller
// cancels. Stream read failures are returned as errors; parse failures are
// never surfaced.
func (d *EventDecoder) Next(ctx context.Context) (*models.StreamEvent, error) {
	if d.done {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, fmt.Errorf("stream read error: %w", err)
			}
			// End of stream: one final flush attempt for an unterminated
			// payload, then EOF.
			d.done = true
			if ev, ok := d.flush(); ok {
				return ev, nil
			}
			return nil, io.EOF
		}

		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		if strings.HasPrefix(line, "data:") {
			d.pending = append(d.pending, strings.TrimLeft(line[len("data:"):], " \t"))
			continue
		}

		if line == "" {
			if ev, ok := d.flush(); ok {
				return ev, nil
			}
			if d.done {
				return nil, io.EOF
			}
			continue
		}

		// Other framing lines (e.g. "event: message") carry nothing.
	}
}

// flush joins and parses the pending payload. It returns (event, true) when
// a valid object frame was decoded, and sets done when the sentinel is seen.
func (d *EventDecoder) flush() (*models.StreamEvent, bool) {
	if len(d.pending) == 0 {
		return nil, false
	}
	payload := strings.Join(d.pending, "\n")
	d.pending = nil

	trimmed := strings.TrimSpace(payload)
	if trimmed == doneSentinel {
		d.done = true
		return nil, false
	}

	// Only object frames are events; scalars, arrays and null are dropped
	// along with anything that fails to parse.
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var ev models.StreamEvent
	if err := json.Unmarshal([]byte(trimmed), &ev); err != nil {
		return nil, false
	}
	return &ev, true
}
