package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"kari/internal/corpus"
	"kari/internal/language"
	"kari/internal/logging"
	"kari/internal/media"
	"kari/internal/render"
	"kari/internal/retry"
	"kari/internal/services"
	"kari/internal/subtitles"
	"kari/internal/timeline"
)

// DefaultEndTrimMs shortens each display window so it ends before the next
// window starts.
const DefaultEndTrimMs int64 = 100

// Recognizer converts an audio chunk into source-language text.
type Recognizer interface {
	Recognize(ctx context.Context, modelID, audioPath string) (string, error)
}

// Translator converts source-language text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error)
	ResolveSourceCode(ctx context.Context, ethnonym string) (string, error)
}

// Decoder decodes a recording into an audio source.
type Decoder interface {
	Decode(ctx context.Context, mediaPath string) (*media.AudioSource, error)
}

// Renderer burns a document into the media.
type Renderer interface {
	Render(ctx context.Context, mediaPath string, doc subtitles.Document, variant render.Variant) (string, error)
}

// Progress describes the run after one window.
type Progress struct {
	Window   timeline.Window
	Windows  int
	DoneMs   int64
	TotalMs  int64
	Skipped  bool
	Segments int
}

// Fraction returns DoneMs/TotalMs.
func (p Progress) Fraction() float64 {
	if p.TotalMs <= 0 {
		return 0
	}
	return float64(p.DoneMs) / float64(p.TotalMs)
}

// ProgressFunc receives progress after each window.
type ProgressFunc func(Progress)

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Decoder    Decoder
	Recognizer Recognizer
	Translator Translator
	Repository corpus.Repository
	Renderer   Renderer
}

// Options tunes a Pipeline. Zero values select defaults.
type Options struct {
	WindowMs  int64
	EndTrimMs int64
	Retry     retry.Policy
	Logger    *slog.Logger
	Progress  ProgressFunc
	Now       func() time.Time
}

// Result is the outcome of a run. On a render failure Document and Segments
// are still populated.
type Result struct {
	MediaPath  string
	Profile    language.Profile
	SourceCode string
	DurationMs int64
	Document   subtitles.Document
	OutputPath string
	Segments   []corpus.Segment
	Skipped    []timeline.Window
}

// Pipeline runs transcriptions.
type Pipeline struct {
	deps      Deps
	windowMs  int64
	endTrimMs int64
	policy    retry.Policy
	logger    *slog.Logger
	progress  ProgressFunc
	now       func() time.Time
}

// New constructs a pipeline.
func New(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Decoder == nil:
		return nil, fmt.Errorf("%w: pipeline requires a decoder", services.ErrConfiguration)
	case deps.Recognizer == nil:
		return nil, fmt.Errorf("%w: pipeline requires a recognizer", services.ErrConfiguration)
	case deps.Translator == nil:
		return nil, fmt.Errorf("%w: pipeline requires a translator", services.ErrConfiguration)
	case deps.Repository == nil:
		return nil, fmt.Errorf("%w: pipeline requires a corpus repository", services.ErrConfiguration)
	case deps.Renderer == nil:
		return nil, fmt.Errorf("%w: pipeline requires a renderer", services.ErrConfiguration)
	}
	p := &Pipeline{
		deps:      deps,
		windowMs:  opts.WindowMs,
		endTrimMs: opts.EndTrimMs,
		policy:    opts.Retry,
		logger:    logging.NewComponentLogger(opts.Logger, "pipeline"),
		progress:  opts.Progress,
		now:       opts.Now,
	}
	if p.windowMs <= 0 {
		p.windowMs = timeline.DefaultWindowMs
	}
	if p.endTrimMs <= 0 {
		p.endTrimMs = DefaultEndTrimMs
	}
	if p.policy.MaxAttempts <= 0 {
		p.policy = retry.DefaultPolicy()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Transcribe runs the full pipeline for mediaPath in the given language.
func (p *Pipeline) Transcribe(ctx context.Context, mediaPath string, profile language.Profile) (Result, error) {
	result := Result{MediaPath: mediaPath, Profile: profile}
	if profile.Key == "" || profile.RecognitionModelID == "" {
		return result, services.Wrap(services.ErrValidation, "pipeline", "transcribe", "language profile is required", nil)
	}
	ctx = services.WithMediaPath(ctx, mediaPath)
	logger := logging.WithContext(ctx, p.logger).With(logging.String("lang", profile.Key))
	policy := p.policy.WithLogger(logger)

	sourceCode, err := retry.Invoke(ctx, policy.Named("resolve_source_code"), func(ctx context.Context) (string, error) {
		return p.deps.Translator.ResolveSourceCode(ctx, profile.Ethnonym)
	})
	if err != nil {
		return result, fmt.Errorf("resolve source code for %s: %w", profile.Key, err)
	}
	result.SourceCode = strings.TrimSpace(sourceCode)

	audio, err := p.deps.Decoder.Decode(ctx, mediaPath)
	if err != nil {
		return result, fmt.Errorf("decode media: %w", err)
	}
	defer func() {
		if cerr := audio.Close(); cerr != nil {
			logging.WarnWithContext(logger, "failed to remove decoded audio", "decode_cleanup_failed", logging.Error(cerr))
		}
	}()
	result.DurationMs = audio.DurationMs()
	windows := timeline.CountChunks(result.DurationMs, p.windowMs)

	logger.Info("transcription started",
		logging.String(logging.FieldEventType, "transcription_start"),
		logging.Int64("duration_ms", result.DurationMs),
		logging.Int("windows", windows),
		logging.String("source_code", result.SourceCode),
	)

	for window := range timeline.BuildChunks(result.DurationMs, p.windowMs) {
		wctx := services.WithChunk(ctx, window.Index)
		seg, accepted, err := p.processWindow(wctx, audio, mediaPath, window, profile, result.SourceCode, policy)
		if err != nil {
			logging.ErrorWithContext(logging.WithContext(wctx, p.logger), "transcription stopped", "transcription_failed",
				logging.Error(err),
				logging.Int("segments_committed", len(result.Segments)),
				logging.String(logging.FieldErrorHint, "retry the failed window once the backend is reachable"),
			)
			return result, err
		}
		if accepted {
			result.Segments = append(result.Segments, seg)
			endMs := max(window.StartMs, window.EndMs-p.endTrimMs)
			result.Document.Append(window.StartMs, endMs, seg.RawText, seg.TranslatedText)
		} else {
			result.Skipped = append(result.Skipped, window)
		}
		if p.progress != nil {
			p.progress(Progress{
				Window:   window,
				Windows:  windows,
				DoneMs:   window.EndMs,
				TotalMs:  result.DurationMs,
				Skipped:  !accepted,
				Segments: len(result.Segments),
			})
		}
	}

	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("segments", len(result.Segments)),
		logging.Int("skipped", len(result.Skipped)),
	)

	out, err := p.deps.Renderer.Render(ctx, mediaPath, result.Document, render.Raw)
	if err != nil {
		return result, err
	}
	result.OutputPath = out
	return result, nil
}

// processWindow handles one window. accepted is false for silent windows.
func (p *Pipeline) processWindow(ctx context.Context, audio *media.AudioSource, mediaPath string, window timeline.Window, profile language.Profile, sourceCode string, policy retry.Policy) (corpus.Segment, bool, error) {
	logger := logging.WithContext(ctx, p.logger)

	var text string
	err := audio.WithChunk(ctx, window, func(chunkPath string) error {
		raw, err := retry.Invoke(ctx, policy.Named("recognize"), func(ctx context.Context) (string, error) {
			return p.deps.Recognizer.Recognize(ctx, profile.RecognitionModelID, chunkPath)
		})
		if err != nil {
			return &ChunkError{Window: window, Stage: StageRecognize, Err: err}
		}
		text = normalizeText(raw)
		return nil
	})
	if err != nil {
		var chunkErr *ChunkError
		if errors.As(err, &chunkErr) {
			return corpus.Segment{}, false, chunkErr
		}
		return corpus.Segment{}, false, fmt.Errorf("extract chunk %d: %w", window.Index, err)
	}

	if isSilent(text) {
		logger.Debug("window skipped as silence",
			logging.Int64("start_ms", window.StartMs),
			logging.Int("runes", utf8.RuneCountInString(text)),
		)
		return corpus.Segment{}, false, nil
	}

	translated, err := retry.Invoke(ctx, policy.Named("translate"), func(ctx context.Context) (string, error) {
		return p.deps.Translator.Translate(ctx, text, sourceCode, language.TargetCode)
	})
	if err != nil {
		return corpus.Segment{}, false, &ChunkError{Window: window, Stage: StageTranslate, Err: err}
	}

	seg := corpus.Segment{
		Lang:           profile.Key,
		RawText:        text,
		TranslatedText: normalizeText(translated),
		StartMs:        window.StartMs,
		MediaPath:      mediaPath,
		CreatedAt:      p.now().UTC(),
	}
	id, err := p.deps.Repository.Insert(ctx, seg)
	if err != nil {
		return corpus.Segment{}, false, fmt.Errorf("persist segment for chunk %d: %w", window.Index, err)
	}
	seg.ID = id
	logger.Debug("segment committed",
		logging.Int64("segment_id", id),
		logging.Int64("start_ms", window.StartMs),
	)
	return seg, true, nil
}

func normalizeText(value string) string {
	return strings.TrimSpace(norm.NFC.String(value))
}

// isSilent reports whether recognized text is too short to be speech.
func isSilent(text string) bool {
	return utf8.RuneCountInString(text) <= 1
}
