// Package render burns a subtitle document into a copy of the media with
// ffmpeg's subtitles filter.
//
// Each media asset has at most one raw render, produced right after
// transcription, and one final render built from the reviewed corpus. Output
// goes to a hidden temporary file next to the media and is renamed into place
// only when ffmpeg exits cleanly.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"kari/internal/logging"
	"kari/internal/services"
	"kari/internal/subtitles"
)

// Variant names a render output.
type Variant string

const (
	Raw   Variant = "raw"
	Final Variant = "final"
)

// DefaultStyle is the libass force_style used for burned-in subtitles.
const DefaultStyle = "FontSize=18,Bold=0,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,BorderStyle=1,Outline=1,Shadow=1,Alignment=2,MarginV=15"

type commandRunner func(ctx context.Context, name string, args ...string) error

// Renderer runs ffmpeg to burn subtitles.
type Renderer struct {
	ffmpeg     string
	scratchDir string
	style      string
	logger     *slog.Logger
	run        commandRunner
}

// New constructs a renderer. Empty arguments select ffmpeg on PATH, the
// system temp dir and DefaultStyle.
func New(ffmpegBinary, scratchDir, style string, logger *slog.Logger) *Renderer {
	r := &Renderer{
		ffmpeg:     strings.TrimSpace(ffmpegBinary),
		scratchDir: strings.TrimSpace(scratchDir),
		style:      strings.TrimSpace(style),
		logger:     logging.NewComponentLogger(logger, "render"),
		run:        defaultCommandRunner,
	}
	if r.ffmpeg == "" {
		r.ffmpeg = "ffmpeg"
	}
	if r.scratchDir == "" {
		r.scratchDir = os.TempDir()
	}
	if r.style == "" {
		r.style = DefaultStyle
	}
	return r
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Renderer) WithCommandRunner(run commandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

// OutputPath derives <dir>/<stem>_<variant><ext> for mediaPath.
func OutputPath(mediaPath string, variant Variant) string {
	dir, stem, ext := splitMediaPath(mediaPath)
	return filepath.Join(dir, stem+"_"+string(variant)+ext)
}

// SubtitlePath returns where the SRT for a render is written.
func (r *Renderer) SubtitlePath(mediaPath string, variant Variant) string {
	_, stem, _ := splitMediaPath(mediaPath)
	return filepath.Join(r.scratchDir, stem+"_"+string(variant)+".srt")
}

func splitMediaPath(mediaPath string) (dir, stem, ext string) {
	dir = filepath.Dir(mediaPath)
	base := filepath.Base(mediaPath)
	ext = filepath.Ext(base)
	return dir, strings.TrimSuffix(base, ext), ext
}

// Render writes doc as SRT and burns it into a copy of mediaPath, returning
// the output path. Any ffmpeg failure is reported as services.ErrMux and
// leaves no output file behind.
func (r *Renderer) Render(ctx context.Context, mediaPath string, doc subtitles.Document, variant Variant) (string, error) {
	if r == nil {
		return "", fmt.Errorf("renderer not initialized")
	}
	if strings.TrimSpace(mediaPath) == "" {
		return "", services.Wrap(services.ErrValidation, "render", "render", "media path is required", nil)
	}
	if variant != Raw && variant != Final {
		return "", services.Wrap(services.ErrValidation, "render", "render", fmt.Sprintf("unknown variant %q", variant), nil)
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "render", "stat media", mediaPath, err)
	}
	logger := logging.WithContext(ctx, r.logger)
	if issues := subtitles.Validate(doc); len(issues) > 0 {
		logging.WarnWithContext(logger, "subtitle document has issues", "subtitle_validation",
			logging.String("variant", string(variant)),
			logging.Int("issue_count", len(issues)),
			logging.String("first_issue", issues[0]),
		)
	}

	if err := os.MkdirAll(r.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	srtPath := r.SubtitlePath(mediaPath, variant)
	if err := doc.WriteFile(srtPath); err != nil {
		return "", err
	}
	absSRT, err := filepath.Abs(srtPath)
	if err != nil {
		return "", fmt.Errorf("resolve subtitle path: %w", err)
	}

	outputPath := OutputPath(mediaPath, variant)
	dir, stem, ext := splitMediaPath(outputPath)
	tmpPath := filepath.Join(dir, "."+stem+".partial"+ext)
	args := r.buildArgs(mediaPath, absSRT, tmpPath)

	logger.Debug("executing ffmpeg subtitle burn",
		logging.String(logging.FieldMediaPath, mediaPath),
		logging.String("variant", string(variant)),
		logging.Int("entries", doc.Len()),
	)
	if err := r.run(ctx, r.ffmpeg, args...); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrMux, "render", "ffmpeg", "subtitle burn failed", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return "", services.Wrap(services.ErrMux, "render", "ffmpeg", "ffmpeg did not produce output", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrMux, "render", "rename", "failed to move output into place", err)
	}

	logger.Info("subtitles burned into media",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("variant", string(variant)),
		logging.String("output_path", outputPath),
	)
	return outputPath, nil
}

func (r *Renderer) buildArgs(mediaPath, srtPath, outputPath string) []string {
	filter := fmt.Sprintf("subtitles='%s':force_style='%s'", escapeFilterPath(srtPath), r.style)
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", mediaPath,
		"-vf", filter,
		"-c:a", "copy",
		outputPath,
	}
}

// escapeFilterPath makes a path safe inside a quoted filtergraph argument.
func escapeFilterPath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.ReplaceAll(path, `'`, `'\''`)
	return strings.ReplaceAll(path, ":", `\:`)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
