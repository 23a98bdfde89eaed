// Package client implements the streaming search client for the ask API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

const (
	baseURL    = "https://www.perplexity.ai"
	askPath    = "/rest/sse/perplexity_ask"
	apiVersion = "2.18"
	userAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"
)

// HTTPClientInterface is the transport contract used by the search
// orchestrator. It exists so tests can substitute a mock transport.
type HTTPClientInterface interface {
	// Post performs a POST request. The path is resolved against the API
	// base URL unless it is already a full URL. The request is bound to ctx
	// so cancellation closes the response body mid-stream.
	Post(ctx context.Context, path string, body []byte, headers map[string]string) (*http.Response, error)

	// Close releases transport resources.
	Close() error
}

// HTTPClient wraps tls-client to provide Chrome-impersonating requests. The
// upstream sits behind bot protection, so a plain net/http fingerprint gets
// challenged.
type HTTPClient struct {
	client tls_client.HttpClient
}

// NewHTTPClient creates a transport with a Chrome TLS fingerprint.
func NewHTTPClient() (*HTTPClient, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(180),
		tls_client.WithClientProfile(profiles.Chrome_133),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
		tls_client.WithRandomTLSExtensionOrder(),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS client: %w", err)
	}

	return &HTTPClient{client: client}, nil
}

// buildHeaders returns the browser-shaped default headers, with custom
// headers merged on top.
func buildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{
		"Accept":             {"*/*"},
		"Accept-Language":    {"en-US,en;q=0.9"},
		"Content-Type":       {"application/json"},
		"Origin":             {baseURL},
		"Referer":            {baseURL + "/"},
		"User-Agent":         {userAgent},
		"sec-ch-ua":          {`"Chromium";v="133", "Not(A:Brand";v="99", "Google Chrome";v="133"`},
		"sec-ch-ua-mobile":   {"?0"},
		"sec-ch-ua-platform": {`"Linux"`},
		"sec-fetch-dest":     {"empty"},
		"sec-fetch-mode":     {"cors"},
		"sec-fetch-site":     {"same-origin"},
	}

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// normalizeURL converts a path to a full URL if needed.
func normalizeURL(urlStr string) string {
	if len(urlStr) > 7 && (urlStr[:7] == "http://" || urlStr[:8] == "https://") {
		return urlStr
	}
	return baseURL + urlStr
}

// Post implements HTTPClientInterface.
func (c *HTTPClient) Post(ctx context.Context, path string, body []byte, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, normalizeURL(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = buildHeaders(headers)
	return c.client.Do(req)
}

// Close implements HTTPClientInterface. tls-client has no explicit close.
func (c *HTTPClient) Close() error {
	return nil
}

// MockHTTPClient is a mock transport for tests: it records requests and
// returns canned responses without touching the network.
type MockHTTPClient struct {
	Response *http.Response
	Err      error

	RequestCount    int
	LastRequestPath string
	LastRequestBody []byte
	LastHeaders     map[string]string
}

// NewMockHTTPClient creates an empty mock transport.
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

// SetResponseBody sets a canned response with the given status and body.
func (m *MockHTTPClient) SetResponseBody(statusCode int, body string) {
	m.Response = &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

// Post implements HTTPClientInterface.
func (m *MockHTTPClient) Post(ctx context.Context, path string, body []byte, headers map[string]string) (*http.Response, error) {
	m.RequestCount++
	m.LastRequestPath = path
	m.LastRequestBody = body
	m.LastHeaders = headers
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// Close implements HTTPClientInterface.
func (m *MockHTTPClient) Close() error {
	return nil
}

var _ HTTPClientInterface = &HTTPClient{}
var _ HTTPClientInterface = &MockHTTPClient{}
