package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"kari/internal/logging"
	"kari/internal/media/ffprobe"
	"kari/internal/timeline"
)

// CommandRunner executes an external command, returning an error that
// includes the command output on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Decoder turns media files into AudioSources.
type Decoder struct {
	ffmpegBinary  string
	ffprobeBinary string
	scratchDir    string
	logger        *slog.Logger
	run           CommandRunner
	probe         ffprobe.OutputRunner
}

// NewDecoder constructs a decoder that writes scratch audio under scratchDir.
func NewDecoder(ffmpegBinary, ffprobeBinary, scratchDir string, logger *slog.Logger) *Decoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Decoder{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		scratchDir:    scratchDir,
		logger:        logging.NewComponentLogger(logger, "decoder"),
		run:           defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom ffmpeg runner for tests.
func (d *Decoder) WithCommandRunner(r CommandRunner) {
	if d != nil && r != nil {
		d.run = r
	}
}

// WithProbeRunner allows injecting a custom ffprobe runner for tests.
func (d *Decoder) WithProbeRunner(r ffprobe.OutputRunner) {
	if d != nil && r != nil {
		d.probe = r
	}
}

// Probe returns the duration of path in milliseconds.
func (d *Decoder) Probe(ctx context.Context, path string) (int64, error) {
	result, err := ffprobe.InspectWith(ctx, d.probe, d.ffprobeBinary, path)
	if err != nil {
		return 0, err
	}
	durationMs := result.DurationMs()
	if durationMs <= 0 {
		return 0, fmt.Errorf("probe %s: no usable duration (%q)", filepath.Base(path), result.Format.Duration)
	}
	return durationMs, nil
}

// Decode converts mediaPath into a mono 16 kHz PCM WAV in a private scratch
// directory and measures its duration. The caller must Close the result.
func (d *Decoder) Decode(ctx context.Context, mediaPath string) (*AudioSource, error) {
	if d == nil {
		return nil, errors.New("decoder not initialized")
	}
	mediaPath = strings.TrimSpace(mediaPath)
	if mediaPath == "" {
		return nil, errors.New("decode: media path is required")
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return nil, fmt.Errorf("decode: source not found: %w", err)
	}
	if err := os.MkdirAll(d.scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("decode: create scratch dir: %w", err)
	}
	workDir, err := os.MkdirTemp(d.scratchDir, "decode-")
	if err != nil {
		return nil, fmt.Errorf("decode: create work dir: %w", err)
	}

	fullPath := filepath.Join(workDir, "full.wav")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", mediaPath,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		fullPath,
	}
	d.logger.Debug("decoding audio",
		logging.String(logging.FieldMediaPath, mediaPath),
		logging.String("work_dir", workDir),
	)
	if err := d.run(ctx, d.ffmpegBinary, args...); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	durationMs, err := d.Probe(ctx, fullPath)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}

	d.logger.Info("audio decoded",
		logging.String(logging.FieldEventType, "audio_decoded"),
		logging.String(logging.FieldMediaPath, mediaPath),
		logging.Int64("duration_ms", durationMs),
	)

	return &AudioSource{
		workDir:      workDir,
		path:         fullPath,
		durationMs:   durationMs,
		ffmpegBinary: d.ffmpegBinary,
		run:          d.run,
		logger:       d.logger,
	}, nil
}

// AudioSource is a decoded recording. Chunks are extracted one at a time into
// a shared scratch file.
type AudioSource struct {
	workDir      string
	path         string
	durationMs   int64
	ffmpegBinary string
	run          CommandRunner
	logger       *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Path returns the decoded WAV location.
func (a *AudioSource) Path() string { return a.path }

// DurationMs returns the decoded audio duration.
func (a *AudioSource) DurationMs() int64 { return a.durationMs }

// WithChunk extracts window into a scratch WAV, passes its path to fn and
// removes the file before returning, on success and on failure alike.
func (a *AudioSource) WithChunk(ctx context.Context, window timeline.Window, fn func(chunkPath string) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("audio source closed")
	}
	if window.DurationMs() <= 0 {
		return fmt.Errorf("chunk %d: empty window", window.Index)
	}

	chunkPath := filepath.Join(a.workDir, "chunk.wav")
	defer func() {
		if rmErr := os.Remove(chunkPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			a.logger.Warn("failed to remove chunk scratch file",
				logging.String("chunk_path", chunkPath),
				logging.Error(rmErr),
				logging.String(logging.FieldEventType, "chunk_cleanup_failed"),
			)
		}
	}()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(window.StartMs),
		"-t", formatSeconds(window.DurationMs()),
		"-i", a.path,
		"-c:a", "pcm_s16le",
		chunkPath,
	}
	if err := a.run(ctx, a.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract chunk %d: %w", window.Index, err)
	}
	return fn(chunkPath)
}

// Close removes the decoded audio and any scratch files.
func (a *AudioSource) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := os.RemoveAll(a.workDir); err != nil {
		return fmt.Errorf("remove decoded audio: %w", err)
	}
	return nil
}

func formatSeconds(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
