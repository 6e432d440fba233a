// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	GitHub  GitHubConfig
	Verify  VerifyConfig
	Extract ExtractConfig
	Store   StoreConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// AllowedOrigins is the CORS allow-list for the public form endpoints.
	// Empty means any origin is accepted (development mode).
	AllowedOrigins []string
}

// GitHubConfig holds the versioned-store repository and credentials.
// Either Token (a PAT, mainly for development) or the App credentials
// (AppID + InstallationID + PrivateKey) must be set outside development.
type GitHubConfig struct {
	APIBaseURL     string // override for tests; default https://api.github.com
	Owner          string
	Repo           string
	BaseBranch     string
	Reviewer       string
	Token          string
	AppID          string
	InstallationID string
	PrivateKey     string // PEM; literal \n sequences are expanded
}

// VerifyConfig holds bot-verification (Turnstile) configuration.
// An empty Secret disables verification (development mode).
type VerifyConfig struct {
	Secret string
	URL    string // override for tests
}

// ExtractConfig holds metadata-extraction configuration.
type ExtractConfig struct {
	Timeout   time.Duration // per-fetch hard timeout
	PerMinute int           // per-IP request budget
	Burst     int
}

// StoreConfig holds local snapshot configuration.
type StoreConfig struct {
	// DataDir is a local checkout of the data directory, used to derive
	// vocabularies and known URLs. Empty disables snapshot-backed features.
	DataDir string
}

// Load loads configuration from the given command-line arguments with
// precedence:
//  1. Command-line flags (highest priority).
//  2. Environment variables.
//  3. .env file.
//  4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("contribution-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS allow-list")
	dataDir := fs.String("data-dir", "", "Local data directory for snapshot-backed features")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "")),
		},
		GitHub: GitHubConfig{
			APIBaseURL:     getConfigValue("", "GITHUB_API_BASE_URL", "https://api.github.com"),
			Owner:          getConfigValue("", "REPO_OWNER", ""),
			Repo:           getConfigValue("", "REPO_NAME", ""),
			BaseBranch:     getConfigValue("", "BASE_BRANCH", "master"),
			Reviewer:       getConfigValue("", "REVIEWER_USERNAME", ""),
			Token:          getConfigValue("", "GITHUB_TOKEN", ""),
			AppID:          getConfigValue("", "GITHUB_APP_ID", ""),
			InstallationID: getConfigValue("", "GITHUB_APP_INSTALLATION_ID", ""),
			PrivateKey:     expandNewlines(getConfigValue("", "GITHUB_APP_PRIVATE_KEY", "")),
		},
		Verify: VerifyConfig{
			Secret: getConfigValue("", "TURNSTILE_SECRET_KEY", ""),
			URL:    getConfigValue("", "TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		},
		Extract: ExtractConfig{
			PerMinute: getIntConfigValue("", "EXTRACT_RATE_PER_MINUTE", 10),
			Burst:     getIntConfigValue("", "EXTRACT_RATE_BURST", 10),
		},
		Store: StoreConfig{
			DataDir: getConfigValue(*dataDir, "DATA_DIR", ""),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Extract.Timeout, err = parseDurationValue("", "EXTRACT_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	// Outside development the store repository and credentials are mandatory.
	if c.App.Environment != "development" {
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return errors.New("REPO_OWNER and REPO_NAME are required")
		}
		if !c.GitHub.HasCredentials() {
			return errors.New("either GITHUB_TOKEN or GITHUB_APP_ID + GITHUB_APP_INSTALLATION_ID + GITHUB_APP_PRIVATE_KEY is required")
		}
	}

	return nil
}

// HasCredentials reports whether any usable GitHub credential is configured.
func (g GitHubConfig) HasCredentials() bool {
	if g.Token != "" {
		return true
	}
	return g.AppID != "" && g.InstallationID != "" && g.PrivateKey != ""
}

// expandNewlines replaces literal \n sequences with actual newlines.
// PEM keys arrive through single-line environment variables.
func expandNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDurationValue resolves a duration with flag/env/default precedence.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Real env vars take precedence over .env file entries.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
