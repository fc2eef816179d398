package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	ScratchDir string `toml:"scratch_dir"`
}

// Backend selects and configures the recognition and translation services.
type Backend struct {
	Kind             string `toml:"kind"`
	RecognitionURL   string `toml:"recognition_url"`
	TranslationURL   string `toml:"translation_url"`
	GradioToken      string `toml:"gradio_token"`
	OpenAIAPIKey     string `toml:"openai_api_key"`
	OpenAIBaseURL    string `toml:"openai_base_url"`
	OpenAIAudioModel string `toml:"openai_audio_model"`
	OpenAIChatModel  string `toml:"openai_chat_model"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	UseKeyring       bool   `toml:"use_keyring"`
}

// Corpus selects the durable segment store.
type Corpus struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Pipeline contains chunking and retry settings for transcription runs.
type Pipeline struct {
	WindowMs            int64 `toml:"window_ms"`
	EndTrimMs           int64 `toml:"end_trim_ms"`
	RetryAttempts       int   `toml:"retry_attempts"`
	RetryBackoffSeconds int   `toml:"retry_backoff_seconds"`
}

// Render contains the subtitle burn-in settings.
type Render struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Style         string `toml:"style"`
}

// Session contains review session settings.
type Session struct {
	AutosaveIntervalSeconds int   `toml:"autosave_interval_seconds"`
	PageSize                int   `toml:"page_size"`
	FinalDisplayMs          int64 `toml:"final_display_ms"`
	ActiveWindowMs          int64 `toml:"active_window_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kari.
//
// Configuration sections by subsystem:
//   - Paths: corpus database, logs and scratch files
//   - Backend: recognition/translation service selection and credentials
//   - Corpus: store driver (sqlite or postgres)
//   - Pipeline: timeline window and retry policy
//   - Render: ffmpeg binaries and subtitle style
//   - Session: autosave interval, paging and playback windows
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Backend  Backend  `toml:"backend"`
	Corpus   Corpus   `toml:"corpus"`
	Pipeline Pipeline `toml:"pipeline"`
	Render   Render   `toml:"render"`
	Session  Session  `toml:"session"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kari/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file next
// to the config (or in the working directory) is loaded first so credentials
// can live outside the TOML file. The returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env"), ".env")

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv applies the first existing dotenv file. Variables already present
// in the environment win over file values.
func loadDotEnv(candidates ...string) {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
			return
		}
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kari.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log and scratch directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ScratchDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CorpusPath returns the sqlite corpus database location.
func (c *Config) CorpusPath() string {
	return filepath.Join(c.Paths.DataDir, "corpus.db")
}

// MediaLibraryDir returns where imported recordings are kept.
func (c *Config) MediaLibraryDir() string {
	return filepath.Join(c.Paths.DataDir, "media")
}

// SessionLockPath returns the lock file guarding single-session access.
func (c *Config) SessionLockPath() string {
	return filepath.Join(c.Paths.DataDir, "session.lock")
}

// RetryBackoff returns the fixed delay between external call attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Pipeline.RetryBackoffSeconds) * time.Second
}

// AutosaveInterval returns the elapsed time that triggers reconciliation.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Session.AutosaveIntervalSeconds) * time.Second
}

// BackendTimeout returns the per-request HTTP timeout for backend clients.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
