package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// keyringService is the OS keyring service name used for stored credentials.
const keyringService = "kari"

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBackend(); err != nil {
		return err
	}
	c.normalizeCorpus()
	c.normalizePipeline()
	c.normalizeRender()
	c.normalizeSession()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() error {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	if c.Backend.Kind == "" {
		c.Backend.Kind = defaultBackendKind
	}
	c.Backend.RecognitionURL = strings.TrimRight(strings.TrimSpace(c.Backend.RecognitionURL), "/")
	c.Backend.TranslationURL = strings.TrimRight(strings.TrimSpace(c.Backend.TranslationURL), "/")
	c.Backend.OpenAIBaseURL = strings.TrimSpace(c.Backend.OpenAIBaseURL)
	if strings.TrimSpace(c.Backend.OpenAIAudioModel) == "" {
		c.Backend.OpenAIAudioModel = defaultOpenAIAudioModel
	}
	if strings.TrimSpace(c.Backend.OpenAIChatModel) == "" {
		c.Backend.OpenAIChatModel = defaultOpenAIChatModel
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}

	c.Backend.GradioToken = firstNonEmpty(c.Backend.GradioToken, os.Getenv("KARI_GRADIO_TOKEN"), os.Getenv("HF_TOKEN"))
	c.Backend.OpenAIAPIKey = firstNonEmpty(c.Backend.OpenAIAPIKey, os.Getenv("KARI_OPENAI_API_KEY"), os.Getenv("OPENAI_API_KEY"))

	if !c.Backend.UseKeyring {
		return nil
	}
	var err error
	if c.Backend.GradioToken == "" {
		if c.Backend.GradioToken, err = lookupSecret("gradio_token"); err != nil {
			return err
		}
	}
	if c.Backend.OpenAIAPIKey == "" && c.Backend.Kind == BackendOpenAI {
		if c.Backend.OpenAIAPIKey, err = lookupSecret("openai_api_key"); err != nil {
			return err
		}
	}
	return nil
}

// lookupSecret reads a credential from the OS keyring. A missing entry is
// not an error; the caller falls back to an unauthenticated value.
func lookupSecret(name string) (string, error) {
	value, err := keyringGet(keyringService, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("backend.use_keyring: read %s: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func (c *Config) normalizeCorpus() {
	c.Corpus.Driver = strings.ToLower(strings.TrimSpace(c.Corpus.Driver))
	if c.Corpus.Driver == "" {
		c.Corpus.Driver = defaultCorpusDriver
	}
	c.Corpus.DSN = firstNonEmpty(c.Corpus.DSN, os.Getenv("KARI_CORPUS_DSN"))
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.WindowMs <= 0 {
		c.Pipeline.WindowMs = defaultWindowMs
	}
	if c.Pipeline.EndTrimMs < 0 {
		c.Pipeline.EndTrimMs = defaultEndTrimMs
	}
	if c.Pipeline.RetryAttempts <= 0 {
		c.Pipeline.RetryAttempts = defaultRetryAttempts
	}
	if c.Pipeline.RetryBackoffSeconds < 0 {
		c.Pipeline.RetryBackoffSeconds = defaultRetryBackoffSeconds
	}
}

func (c *Config) normalizeRender() {
	if strings.TrimSpace(c.Render.FFmpegBinary) == "" {
		c.Render.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Render.FFprobeBinary) == "" {
		c.Render.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.Render.Style) == "" {
		c.Render.Style = defaultSubtitleStyle
	}
}

func (c *Config) normalizeSession() {
	if c.Session.AutosaveIntervalSeconds <= 0 {
		c.Session.AutosaveIntervalSeconds = defaultAutosaveIntervalSeconds
	}
	if c.Session.PageSize <= 0 {
		c.Session.PageSize = defaultPageSize
	}
	if c.Session.FinalDisplayMs <= 0 {
		c.Session.FinalDisplayMs = defaultFinalDisplayMs
	}
	if c.Session.ActiveWindowMs <= 0 {
		c.Session.ActiveWindowMs = defaultActiveWindowMs
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
