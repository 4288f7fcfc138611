package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultRequestTimeoutSecs bounds one ranking request end to end.
const DefaultRequestTimeoutSecs = 120

// Config holds application configuration
type Config struct {
	ServiceBaseURL       string `json:"service_base_url"`
	RequestTimeoutSecs   int    `json:"request_timeout_secs"`
	UploadsDir           string `json:"uploads_dir"`
	GmailCredentialsPath string `json:"gmail_credentials_path"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		ServiceBaseURL:     "http://localhost:5000",
		RequestTimeoutSecs: DefaultRequestTimeoutSecs,
		UploadsDir:         "uploads",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/ResumeRanker/config.json
// On Unix: ~/.config/ResumeRanker/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		// Windows
		configDir = filepath.Join(os.Getenv("APPDATA"), "ResumeRanker")
	} else {
		// Unix-like systems
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "ResumeRanker")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load loads configuration from the default config path, then applies any
// environment overrides (a .env file in the working directory is honored).
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		return nil, err
	}

	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// applyEnvOverrides lets RESUME_RANKER_* variables take precedence over the
// config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RESUME_RANKER_URL"); v != "" {
		c.ServiceBaseURL = v
	}
	if v := os.Getenv("RESUME_RANKER_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.RequestTimeoutSecs = secs
		}
	}
	if v := os.Getenv("RESUME_RANKER_UPLOADS_DIR"); v != "" {
		c.UploadsDir = v
	}
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// RequestTimeout returns the configured ranking request timeout.
func (c *Config) RequestTimeout() time.Duration {
	secs := c.RequestTimeoutSecs
	if secs <= 0 {
		secs = DefaultRequestTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ServiceBaseURL == "" {
		return fmt.Errorf("service_base_url is required")
	}

	u, err := url.Parse(c.ServiceBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("service_base_url is not a valid URL: %s", c.ServiceBaseURL)
	}

	if c.RequestTimeoutSecs < 0 {
		return fmt.Errorf("request_timeout_secs must not be negative")
	}

	if c.GmailCredentialsPath != "" {
		if _, err := os.Stat(c.GmailCredentialsPath); err != nil {
			return fmt.Errorf("gmail credentials file not found: %w", err)
		}
	}

	return nil
}
