package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"kari/internal/config"
)

const redacted = "(set)"

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and inspect the kari configuration",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return configCmd
}

// resolveConfigTarget picks where `config init` writes: an explicit --path,
// then the global --config flag, then the per-user default.
func resolveConfigTarget(flagPath, globalPath string) (string, error) {
	if target := strings.TrimSpace(flagPath); target != "" {
		return config.ExpandPath(target)
	}
	if target := strings.TrimSpace(globalPath); target != "" {
		return config.ExpandPath(target)
	}
	return config.DefaultConfigPath()
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			global, _ := cmd.Flags().GetString("config")
			target, err := resolveConfigTarget(targetPath, global)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			_, statErr := os.Stat(target)
			switch {
			case statErr == nil && !overwrite:
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
				return fmt.Errorf("check config path: %w", statErr)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set backend.kind and credentials (or export KARI_OPENAI_API_KEY / KARI_GRADIO_TOKEN) before transcribing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

type configReport struct {
	Path     string            `json:"path"`
	Exists   bool              `json:"exists"`
	Valid    bool              `json:"valid"`
	Settings map[string]string `json:"settings"`
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration, create its directories and summarize it",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			settings := effectiveSettings(cfg)
			if ctx.jsonOutput() {
				report := configReport{Path: path, Exists: exists, Valid: true, Settings: map[string]string{}}
				for _, s := range settings {
					report.Settings[s[0]] = s[1]
				}
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			source := path
			if !exists {
				source += " (not found, using defaults)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, settings, nil, 1))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML with credentials redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			shown.Backend.GradioToken = redact(shown.Backend.GradioToken)
			shown.Backend.OpenAIAPIKey = redact(shown.Backend.OpenAIAPIKey)
			shown.Corpus.DSN = redact(shown.Corpus.DSN)

			data, err := toml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// effectiveSettings lists the values a transcription run will use, in the
// order they appear in the sample config.
func effectiveSettings(cfg *config.Config) [][]string {
	return [][]string{
		{"backend.kind", cfg.Backend.Kind},
		{"backend.timeout", cfg.BackendTimeout().String()},
		{"backend.gradio_token", redact(cfg.Backend.GradioToken)},
		{"backend.openai_api_key", redact(cfg.Backend.OpenAIAPIKey)},
		{"corpus.driver", cfg.Corpus.Driver},
		corpusLocation(cfg),
		{"media.library", cfg.MediaLibraryDir()},
		{"pipeline.window_ms", strconv.FormatInt(cfg.Pipeline.WindowMs, 10)},
		{"pipeline.retry_attempts", strconv.Itoa(cfg.Pipeline.RetryAttempts)},
		{"session.autosave", cfg.AutosaveInterval().String()},
		{"render.ffmpeg", cfg.Render.FFmpegBinary},
		{"logging", cfg.Logging.Format + "/" + cfg.Logging.Level},
	}
}

func corpusLocation(cfg *config.Config) []string {
	if cfg.Corpus.Driver == config.CorpusPostgres {
		return []string{"corpus.dsn", redact(cfg.Corpus.DSN)}
	}
	return []string{"corpus.path", cfg.CorpusPath()}
}

func redact(secret string) string {
	if strings.TrimSpace(secret) == "" {
		return ""
	}
	return redacted
}
