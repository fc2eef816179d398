package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	switch c.Backend.Kind {
	case BackendGradio:
		for name, raw := range map[string]string{
			"backend.recognition_url": c.Backend.RecognitionURL,
			"backend.translation_url": c.Backend.TranslationURL,
		} {
			if raw == "" {
				return fmt.Errorf("%s must be set when backend.kind is %q", name, BackendGradio)
			}
			if parsed, err := url.Parse(raw); err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
			}
		}
	case BackendOpenAI:
		if c.Backend.OpenAIAPIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/kari/config.toml"
			}
			return fmt.Errorf("backend.openai_api_key is required for the openai backend. Set KARI_OPENAI_API_KEY or edit %s (create with 'kari config init')", defaultPath)
		}
	default:
		return fmt.Errorf("backend.kind must be %q or %q, got %q", BackendGradio, BackendOpenAI, c.Backend.Kind)
	}
	return nil
}

func (c *Config) validateCorpus() error {
	switch c.Corpus.Driver {
	case CorpusSQLite:
		return nil
	case CorpusPostgres:
		if c.Corpus.DSN == "" {
			return errors.New("corpus.dsn must be set when corpus.driver is \"postgres\"")
		}
		return nil
	default:
		return fmt.Errorf("corpus.driver must be %q or %q, got %q", CorpusSQLite, CorpusPostgres, c.Corpus.Driver)
	}
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.EndTrimMs >= c.Pipeline.WindowMs {
		return fmt.Errorf("pipeline.end_trim_ms (%d) must be smaller than pipeline.window_ms (%d)", c.Pipeline.EndTrimMs, c.Pipeline.WindowMs)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.PageSize > 500 {
		return errors.New("session.page_size must not exceed 500")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
