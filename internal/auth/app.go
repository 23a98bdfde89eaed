package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// ErrAppStateNotFound is returned when no desktop app auth state could be
// located on this machine.
var ErrAppStateNotFound = errors.New("desktop app auth state not found")

// appState mirrors the fragment of the desktop app's persisted auth state
// this extractor needs. The file format is the app's own and may change
// between releases.
type appState struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email,omitempty"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

// ExtractFromApp lifts the access token out of an installed desktop app's
// persisted state. The first candidate path that parses wins.
func ExtractFromApp() (*StoredToken, error) {
	paths, err := appStatePaths()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		tok, err := parseAppStateFile(path)
		if err != nil {
			continue
		}
		return tok, nil
	}
	return nil, ErrAppStateNotFound
}

// appStatePaths returns the per-OS candidate locations of the app's auth
// state, most likely first.
func appStatePaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		support := filepath.Join(home, "Library", "Application Support")
		return []string{
			filepath.Join(support, "Perplexity", "auth.json"),
			filepath.Join(support, "Comet", "auth.json"),
		}, nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return []string{
			filepath.Join(appData, "Perplexity", "auth.json"),
			filepath.Join(appData, "Comet", "auth.json"),
		}, nil
	default:
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			configDir = filepath.Join(home, ".config")
		}
		return []string{
			filepath.Join(configDir, "Perplexity", "auth.json"),
			filepath.Join(configDir, "Comet", "auth.json"),
		}, nil
	}
}

// parseAppStateFile reads one candidate file and normalizes it into a
// StoredToken.
func parseAppStateFile(path string) (*StoredToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state appState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse app state: %w", err)
	}
	if state.AccessToken == "" {
		return nil, errors.New("app state carries no access token")
	}

	tok := &StoredToken{Token: state.AccessToken, Email: state.Email}
	if state.ExpiresAt > 0 {
		exp := time.Unix(state.ExpiresAt, 0)
		tok.ExpiresAt = &exp
	}
	return tok, nil
}
