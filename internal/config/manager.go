// Package config handles configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/diogo/pplx-search-go/pkg/models"
	"github.com/spf13/viper"
)

const (
	configDirName  = ".pplx-search"
	configFileName = "config"
	configFileType = "json"
)

// Config holds all configuration options.
type Config struct {
	DefaultRecency  models.RecencyFilter `mapstructure:"default_recency"`
	DefaultLanguage string               `mapstructure:"default_language"`
	Timezone        string               `mapstructure:"timezone"`
	TokenFile       string               `mapstructure:"token_file"`
	HistoryFile     string               `mapstructure:"history_file"`
	SaveHistory     bool                 `mapstructure:"save_history"`
}

// Manager handles configuration loading and saving.
type Manager struct {
	v       *viper.Viper
	cfgDir  string
	cfgFile string
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	cfgDir := filepath.Join(home, configDirName)
	cfgFile := filepath.Join(cfgDir, configFileName+"."+configFileType)

	m := &Manager{
		v:       viper.New(),
		cfgDir:  cfgDir,
		cfgFile: cfgFile,
	}

	m.setDefaults()

	m.v.SetConfigName(configFileName)
	m.v.SetConfigType(configFileType)
	m.v.AddConfigPath(cfgDir)
	m.v.AddConfigPath(".")

	m.v.SetEnvPrefix("PPLX")
	m.v.AutomaticEnv()
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return m, nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	m.v.SetDefault("default_recency", "")
	m.v.SetDefault("default_language", "en-US")
	m.v.SetDefault("timezone", "America/New_York")
	m.v.SetDefault("token_file", filepath.Join(m.cfgDir, "token.json"))
	m.v.SetDefault("history_file", filepath.Join(m.cfgDir, "history.jsonl"))
	m.v.SetDefault("save_history", true)
}

// Load reads configuration from file and environment.
func (m *Manager) Load() (*Config, error) {
	if err := os.MkdirAll(m.cfgDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		DefaultRecency:  models.RecencyFilter(m.v.GetString("default_recency")),
		DefaultLanguage: m.v.GetString("default_language"),
		Timezone:        m.v.GetString("timezone"),
		TokenFile:       m.v.GetString("token_file"),
		HistoryFile:     m.v.GetString("history_file"),
		SaveHistory:     m.v.GetBool("save_history"),
	}

	if err := m.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.cfgDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	m.v.Set("default_recency", string(cfg.DefaultRecency))
	m.v.Set("default_language", cfg.DefaultLanguage)
	m.v.Set("timezone", cfg.Timezone)
	m.v.Set("token_file", cfg.TokenFile)
	m.v.Set("history_file", cfg.HistoryFile)
	m.v.Set("save_history", cfg.SaveHistory)

	return m.v.WriteConfigAs(m.cfgFile)
}

// validate checks configuration values.
func (m *Manager) validate(cfg *Config) error {
	if !models.IsValidRecency(cfg.DefaultRecency) {
		return fmt.Errorf("invalid recency filter: %s", cfg.DefaultRecency)
	}
	if cfg.DefaultLanguage != "" && !isValidLanguage(cfg.DefaultLanguage) {
		return fmt.Errorf("invalid language format: %s (expected xx-XX)", cfg.DefaultLanguage)
	}
	return nil
}

// GetConfigDir returns the configuration directory path.
func (m *Manager) GetConfigDir() string {
	return m.cfgDir
}

// GetConfigFile returns the configuration file path.
func (m *Manager) GetConfigFile() string {
	return m.cfgFile
}

// isValidLanguage checks if the language format is valid (xx-XX).
var languageRegex = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

func isValidLanguage(lang string) bool {
	return languageRegex.MatchString(lang)
}

// ParseBoolean parses boolean strings (true, false, 1, 0, yes, no, on, off).
func ParseBoolean(value string, defaultValue bool) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
