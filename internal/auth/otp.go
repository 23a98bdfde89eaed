package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

const (
	authBaseURL  = "https://www.perplexity.ai"
	csrfPath     = "/api/auth/csrf"
	signinPath   = "/api/auth/signin-email"
	callbackPath = "/api/auth/callback/email"

	sessionCookieName = "__Secure-next-auth.session-token"

	otpUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"
)

// OTPFlow drives the email one-time-code login: request a code, then redeem
// it for a session token. The flow keeps its own cookie jar because the
// csrf and session cookies must travel together across the three requests.
type OTPFlow struct {
	client tls_client.HttpClient
}

// NewOTPFlow creates a login flow with a Chrome-fingerprint transport.
func NewOTPFlow() (*OTPFlow, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(60),
		tls_client.WithClientProfile(profiles.Chrome_133),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS client: %w", err)
	}
	return &OTPFlow{client: client}, nil
}

// RequestCode asks the upstream to email a one-time sign-in code.
func (f *OTPFlow) RequestCode(ctx context.Context, email string) error {
	csrf, err := f.csrfToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("csrfToken", csrf)
	form.Set("json", "true")

	resp, err := f.postForm(ctx, signinPath, form)
	if err != nil {
		return fmt.Errorf("failed to request sign-in code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		return fmt.Errorf("sign-in code request rejected (status %d)", resp.StatusCode)
	}
	return nil
}

// Redeem exchanges the emailed code for a session token.
func (f *OTPFlow) Redeem(ctx context.Context, email, code string) (*StoredToken, error) {
	csrf, err := f.csrfToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("token", strings.TrimSpace(code))
	form.Set("csrfToken", csrf)

	resp, err := f.postForm(ctx, callbackPath, form)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem sign-in code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		return nil, fmt.Errorf("sign-in code rejected (status %d)", resp.StatusCode)
	}

	u, _ := url.Parse(authBaseURL)
	for _, c := range f.client.GetCookies(u) {
		if c.Name != sessionCookieName || c.Value == "" {
			continue
		}
		tok := &StoredToken{Token: c.Value, Email: email}
		if !c.Expires.IsZero() {
			exp := c.Expires
			tok.ExpiresAt = &exp
		}
		return tok, nil
	}
	return nil, errors.New("no session token issued; the code may be wrong or expired")
}

// Close releases transport resources.
func (f *OTPFlow) Close() error {
	return nil
}

// csrfToken fetches the anti-forgery token the login endpoints require.
func (f *OTPFlow) csrfToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authBaseURL+csrfPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create csrf request: %w", err)
	}
	req.Header.Set("User-Agent", otpUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("csrf fetch rejected (status %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read csrf response: %w", err)
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse csrf response: %w", err)
	}
	if payload.CSRFToken == "" {
		return "", errors.New("csrf response carries no token")
	}
	return payload.CSRFToken, nil
}

func (f *OTPFlow) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", otpUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", authBaseURL)
	req.Header.Set("Referer", authBaseURL+"/")

	return f.client.Do(req)
}
