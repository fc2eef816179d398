package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"kari/internal/config"
	"kari/internal/corpus"
	"kari/internal/deps"
	"kari/internal/language"
	"kari/internal/logging"
	"kari/internal/media"
	"kari/internal/media/ffprobe"
	"kari/internal/pipeline"
	"kari/internal/render"
	"kari/internal/retry"
	"kari/internal/services"
	"kari/internal/session"
	"kari/internal/subtitles"
)

// Option customizes a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	recognizer pipeline.Recognizer
	translator pipeline.Translator
	repo       corpus.Repository
	run        func(ctx context.Context, name string, args ...string) error
	probe      ffprobe.OutputRunner
	progress   pipeline.ProgressFunc
	noLock     bool
}

// WithBackends replaces the configured recognition and translation backends.
func WithBackends(rec pipeline.Recognizer, tr pipeline.Translator) Option {
	return func(o *serviceOptions) {
		o.recognizer = rec
		o.translator = tr
	}
}

// WithRepository uses repo instead of opening the configured corpus. The
// Service still closes it.
func WithRepository(repo corpus.Repository) Option {
	return func(o *serviceOptions) { o.repo = repo }
}

// WithCommandRunner replaces how ffmpeg is executed for decoding and renders.
func WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) Option {
	return func(o *serviceOptions) { o.run = run }
}

// WithProbeRunner replaces how ffprobe is executed.
func WithProbeRunner(run ffprobe.OutputRunner) Option {
	return func(o *serviceOptions) { o.probe = run }
}

// WithProgress receives per-window pipeline progress.
func WithProgress(fn pipeline.ProgressFunc) Option {
	return func(o *serviceOptions) { o.progress = fn }
}

// WithoutSessionLock skips the exclusive session lock, for read-only callers
// such as stats and doctor.
func WithoutSessionLock() Option {
	return func(o *serviceOptions) { o.noLock = true }
}

// Service wires config, corpus, backends and a review session together.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	repo     corpus.Repository
	session  *session.Session
	pipeline *pipeline.Pipeline
	renderer *render.Renderer
	library  *media.Library
}

// Open builds a Service from cfg. The caller must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is required", services.ErrConfiguration)
	}
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	repo := o.repo
	if repo == nil {
		var err error
		repo, err = OpenRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	recognizer, translator := o.recognizer, o.translator
	if recognizer == nil || translator == nil {
		rec, tr, err := NewBackends(cfg)
		if err != nil {
			repo.Close()
			return nil, err
		}
		if recognizer == nil {
			recognizer = rec
		}
		if translator == nil {
			translator = tr
		}
	}

	decoder := media.NewDecoder(cfg.Render.FFmpegBinary, cfg.Render.FFprobeBinary, cfg.Paths.ScratchDir, logger)
	renderer := render.New(cfg.Render.FFmpegBinary, cfg.Paths.ScratchDir, cfg.Render.Style, logger)
	if o.run != nil {
		decoder.WithCommandRunner(o.run)
		renderer.WithCommandRunner(o.run)
	}
	if o.probe != nil {
		decoder.WithProbeRunner(o.probe)
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Pipeline.RetryAttempts
	policy.Backoff = cfg.RetryBackoff()
	pl, err := pipeline.New(pipeline.Deps{
		Decoder:    decoder,
		Recognizer: recognizer,
		Translator: translator,
		Repository: repo,
		Renderer:   renderer,
	}, pipeline.Options{
		WindowMs:  cfg.Pipeline.WindowMs,
		EndTrimMs: cfg.Pipeline.EndTrimMs,
		Retry:     policy,
		Logger:    logger,
		Progress:  o.progress,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}

	lockPath := cfg.SessionLockPath()
	if o.noLock {
		lockPath = ""
	}
	sess, err := session.New(repo, session.Options{
		AutosaveInterval: cfg.AutosaveInterval(),
		PageSize:         cfg.Session.PageSize,
		DisplayMs:        cfg.Session.FinalDisplayMs,
		ActiveWindowMs:   cfg.Session.ActiveWindowMs,
		LockPath:         lockPath,
		Logger:           logger,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "api").With(logging.String(logging.FieldSessionID, sess.ID())),
		repo:     repo,
		session:  sess,
		pipeline: pl,
		renderer: renderer,
		library:  media.NewLibrary(cfg.MediaLibraryDir()),
	}, nil
}

// Close releases the session lock and the corpus.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.session.Close(), s.repo.Close())
}

// Session exposes the underlying review session.
func (s *Service) Session() *session.Session { return s.session }

// operation stamps ctx with the session id and a fresh correlation id.
func (s *Service) operation(ctx context.Context) context.Context {
	return services.WithCorrelationID(s.session.Context(ctx), uuid.NewString())
}

// TranscribeRequest describes a transcription run.
type TranscribeRequest struct {
	MediaPath string
	Language  string
	// SkipImport transcribes the media in place instead of copying it into
	// the library first. The path is made absolute and must not already have
	// segments in the corpus.
	SkipImport bool
}

// Transcribe runs the pipeline for one recording. On failure the result
// still lists segments committed before the failing window.
func (s *Service) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResult, error) {
	profile, ok := language.Lookup(req.Language)
	if !ok {
		return TranscribeResult{}, fmt.Errorf("%w: unknown language %q (see 'kari languages')", services.ErrValidation, req.Language)
	}
	mediaPath := strings.TrimSpace(req.MediaPath)
	if mediaPath == "" {
		return TranscribeResult{}, fmt.Errorf("%w: media path is required", services.ErrValidation)
	}
	ctx = s.operation(ctx)
	if req.SkipImport {
		abs, err := filepath.Abs(mediaPath)
		if err != nil {
			return TranscribeResult{}, fmt.Errorf("resolve media path: %w", err)
		}
		mediaPath = abs
		existing, err := s.repo.QueryByMedia(ctx, mediaPath)
		if err != nil {
			return TranscribeResult{}, fmt.Errorf("check existing segments: %w", err)
		}
		if len(existing) > 0 {
			return TranscribeResult{}, fmt.Errorf("%w: %s already has %d segments in the corpus; transcribe an imported copy or clear the corpus first",
				services.ErrValidation, mediaPath, len(existing))
		}
	} else {
		imported, err := s.library.Import(mediaPath)
		if err != nil {
			return TranscribeResult{}, err
		}
		logging.WithContext(ctx, s.logger).Info("media imported",
			logging.String(logging.FieldEventType, "media_imported"),
			logging.String("source", mediaPath),
			logging.String(logging.FieldMediaPath, imported),
		)
		mediaPath = imported
	}

	res, err := s.pipeline.Transcribe(ctx, mediaPath, profile)
	out := TranscribeResult{
		MediaPath:  res.MediaPath,
		Lang:       profile.Key,
		OutputPath: res.OutputPath,
		DurationMs: res.DurationMs,
		Skipped:    len(res.Skipped),
		Segments:   FromSegments(res.Segments),
		SRT:        res.Document.Format(),
	}
	if len(res.Segments) > 0 {
		if _, _, loadErr := s.session.Load(ctx); loadErr != nil && err == nil {
			err = loadErr
		}
	}
	return out, err
}

// ListSegments loads the media under review and returns page n with pending
// edits overlaid. A non-positive size uses the configured page size.
func (s *Service) ListSegments(ctx context.Context, page, size int) (SegmentPage, error) {
	snap, ok, err := s.session.Load(ctx)
	if err != nil {
		return SegmentPage{}, err
	}
	if !ok {
		return SegmentPage{Page: 1, TotalPages: 1}, nil
	}
	p := s.session.Page(page, size)
	out := SegmentPage{
		MediaPath:  snap.Media.Path,
		Lang:       snap.Media.Lang,
		Page:       p.Number,
		TotalPages: p.Total,
		Pending:    s.session.Pending(),
		Segments:   make([]Segment, 0, len(p.Segments)),
	}
	for _, seg := range p.Segments {
		dto := FromSegment(seg)
		_, rawEdited := s.session.Edit(seg.ID, session.FieldRaw)
		_, trEdited := s.session.Edit(seg.ID, session.FieldTranslated)
		dto.Edited = rawEdited || trEdited
		out.Segments = append(out.Segments, dto)
	}
	return out, nil
}

// Edit buffers a text change and autosaves when the interval has elapsed.
// It reports whether an autosave ran.
func (s *Service) Edit(ctx context.Context, segmentID int64, field session.Field, text string) (bool, error) {
	if segmentID <= 0 {
		return false, fmt.Errorf("%w: invalid segment id %d", services.ErrValidation, segmentID)
	}
	text, err := session.CleanEdit(field, text)
	if err != nil {
		return false, fmt.Errorf("%w: segment %d: %w", services.ErrValidation, segmentID, err)
	}
	s.session.SetEdit(segmentID, field, text)
	return s.session.MaybeAutosave(s.operation(ctx))
}

// Save commits one segment's current text.
func (s *Service) Save(ctx context.Context, segmentID int64) error {
	return s.session.SaveSegment(s.operation(ctx), segmentID)
}

// Reconcile commits every buffered edit.
func (s *Service) Reconcile(ctx context.Context) error {
	return s.session.Reconcile(s.operation(ctx))
}

// RenderFinal reconciles edits and burns the reviewed document into the
// media under review.
func (s *Service) RenderFinal(ctx context.Context) (string, error) {
	ctx = s.operation(ctx)
	ref, doc, err := s.session.CurrentDocument(ctx)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(services.WithMediaPath(ctx, ref.Path), ref.Path, doc, render.Final)
}

// ExportSRT writes the reviewed document of the media under review to path.
func (s *Service) ExportSRT(ctx context.Context, path string) (int, error) {
	_, doc, err := s.session.CurrentDocument(s.operation(ctx))
	if err != nil {
		return 0, err
	}
	if err := doc.WriteFile(path); err != nil {
		return 0, err
	}
	return doc.Len(), nil
}

// CurrentDocument returns the reviewed document without rendering.
func (s *Service) CurrentDocument(ctx context.Context) (subtitles.Document, error) {
	_, doc, err := s.session.CurrentDocument(s.operation(ctx))
	return doc, err
}

// PlaybackRequest describes a playback tick.
type PlaybackRequest struct {
	AtMs int64
	// JumpTo selects a segment to seek to before the tick; zero keeps the
	// current jump target.
	JumpTo int64
	Loop   bool
}

// ActiveAt answers which cue to overlay at a playback position and whether
// loop mode rewinds playback. Seeking to a segment commits buffered edits
// first.
func (s *Service) ActiveAt(ctx context.Context, req PlaybackRequest) (PlaybackState, error) {
	if req.JumpTo != 0 {
		if err := s.session.Reconcile(s.operation(ctx)); err != nil && !errors.Is(err, services.ErrNotFound) {
			return PlaybackState{}, err
		}
	}
	if _, ok := s.session.Snapshot(); !ok {
		if _, _, err := s.session.Load(ctx); err != nil {
			return PlaybackState{}, err
		}
	}
	player := s.session.Player()
	at := req.AtMs
	if req.JumpTo != 0 {
		pos, ok := player.JumpTo(req.JumpTo)
		if !ok {
			return PlaybackState{}, fmt.Errorf("%w: segment %d is not part of the media under review", services.ErrNotFound, req.JumpTo)
		}
		if at < pos {
			at = pos
		}
	}
	player.SetLoop(req.Loop)

	pos, reset := player.Tick(at)
	state := PlaybackState{PositionMs: pos, Reset: reset, Looping: player.Looping()}
	if target, ok := player.JumpTarget(); ok {
		state.JumpTargetMs = &target
	}
	if cue, ok := player.ActiveSegment(pos); ok {
		dto := FromCue(cue)
		state.Active = &dto
	}
	return state, nil
}

// ClearCorpus deletes every segment. Buffered edits become stale.
func (s *Service) ClearCorpus(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear corpus: %w", err)
	}
	logging.WarnWithContext(s.logger, "corpus cleared", "corpus_cleared",
		logging.Int64("deleted", n),
		logging.String(logging.FieldErrorHint, "this cannot be undone"),
	)
	if _, _, err := s.session.Load(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Stats summarizes the corpus.
func (s *Service) Stats(ctx context.Context) (CorpusStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return CorpusStats{}, fmt.Errorf("corpus stats: %w", err)
	}
	out := CorpusStats{Segments: stats.Segments, Media: stats.Media, Driver: s.cfg.Corpus.Driver}
	if ref, ok, err := s.repo.LatestMedia(ctx); err != nil {
		return CorpusStats{}, fmt.Errorf("corpus stats: %w", err)
	} else if ok {
		out.LatestMedia = ref.Path
	}
	return out, nil
}

// Languages lists the supported source languages.
func Languages() []LanguageInfo {
	all := language.All()
	out := make([]LanguageInfo, 0, len(all))
	for _, p := range all {
		out = append(out, FromProfile(p))
	}
	return out
}

// Doctor reports whether the external binaries in cfg are installed.
func Doctor(cfg *config.Config) []DependencyStatus {
	if cfg == nil {
		return nil
	}
	return FromDependencyStatuses(deps.CheckBinaries(deps.MediaRequirements(cfg.Render.FFmpegBinary, cfg.Render.FFprobeBinary)))
}
