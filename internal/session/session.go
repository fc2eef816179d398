package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"kari/internal/corpus"
	"kari/internal/logging"
	"kari/internal/playback"
	"kari/internal/services"
	"kari/internal/subtitles"
)

const (
	defaultAutosaveInterval = 60 * time.Second
	defaultPageSize         = 20
)

// ErrLocked is returned when another session already holds the corpus lock.
var ErrLocked = errors.New("another kari session is already open")

// Options configures a Session. Zero values select defaults.
type Options struct {
	AutosaveInterval time.Duration
	PageSize         int
	DisplayMs        int64
	ActiveWindowMs   int64
	LockPath         string
	Logger           *slog.Logger
	Now              func() time.Time
}

// Session is the state of one review session.
type Session struct {
	id     string
	repo   corpus.Repository
	logger *slog.Logger
	lock   *flock.Flock
	now    func() time.Time

	autosaveInterval time.Duration
	pageSize         int
	displayMs        int64

	buffer        map[EditKey]string
	lastReconcile time.Time
	snapshot      corpus.MediaSnapshot
	loaded        bool
	player        *playback.Engine
}

// New opens a session over repo. When LockPath is set the session holds an
// exclusive lock on it until Close.
func New(repo corpus.Repository, opts Options) (*Session, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: session requires a corpus repository", services.ErrConfiguration)
	}
	s := &Session{
		id:               uuid.NewString(),
		repo:             repo,
		now:              opts.Now,
		autosaveInterval: opts.AutosaveInterval,
		pageSize:         opts.PageSize,
		displayMs:        opts.DisplayMs,
		buffer:           make(map[EditKey]string),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.autosaveInterval <= 0 {
		s.autosaveInterval = defaultAutosaveInterval
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.displayMs <= 0 {
		s.displayMs = subtitles.FinalDisplayMs
	}
	s.logger = logging.NewComponentLogger(opts.Logger, "session").With(logging.String(logging.FieldSessionID, s.id))
	s.player = playback.NewEngine(nil, opts.ActiveWindowMs)

	if opts.LockPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LockPath), 0o755); err != nil {
			return nil, fmt.Errorf("create lock dir: %w", err)
		}
		lock := flock.New(opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w (lock %s)", ErrLocked, opts.LockPath)
		}
		s.lock = lock
	}
	// Autosave is measured from session start.
	s.lastReconcile = s.now()
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Context annotates ctx with the session id for logging.
func (s *Session) Context(ctx context.Context) context.Context {
	return services.WithSessionID(ctx, s.id)
}

// Close releases the session lock. Buffered edits that were not reconciled
// are discarded.
func (s *Session) Close() error {
	if n := len(s.buffer); n > 0 {
		s.logger.Debug("closing session with buffered edits", logging.Int("buffered", n))
	}
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	if err != nil {
		return fmt.Errorf("release session lock: %w", err)
	}
	return nil
}

// Load selects the media under review: the owner of the most recently
// created segment, read together with its segments.
func (s *Session) Load(ctx context.Context) (corpus.MediaSnapshot, bool, error) {
	snap, ok, err := s.repo.Snapshot(ctx)
	if err != nil {
		return corpus.MediaSnapshot{}, false, fmt.Errorf("load session snapshot: %w", err)
	}
	s.snapshot = snap
	s.loaded = ok
	if ok {
		s.logger.Debug("session snapshot loaded",
			logging.String(logging.FieldMediaPath, snap.Media.Path),
			logging.Int("segments", len(snap.Segments)),
		)
	}
	return snap, ok, nil
}

// Snapshot returns the last loaded snapshot.
func (s *Session) Snapshot() (corpus.MediaSnapshot, bool) {
	return s.snapshot, s.loaded
}

// SetEdit buffers text for one field, superseding any earlier edit.
func (s *Session) SetEdit(segmentID int64, field Field, text string) {
	s.buffer[EditKey{SegmentID: segmentID, Field: field}] = text
}

// Edit returns the buffered text for one field.
func (s *Session) Edit(segmentID int64, field Field) (string, bool) {
	text, ok := s.buffer[EditKey{SegmentID: segmentID, Field: field}]
	return text, ok
}

// Pending returns the number of buffered edits.
func (s *Session) Pending() int { return len(s.buffer) }

// Overlay returns the current text of seg, preferring buffered edits.
func (s *Session) Overlay(seg corpus.Segment) (string, string) {
	raw, translated := seg.RawText, seg.TranslatedText
	if text, ok := s.Edit(seg.ID, FieldRaw); ok {
		raw = text
	}
	if text, ok := s.Edit(seg.ID, FieldTranslated); ok {
		translated = text
	}
	return raw, translated
}

// LastReconcile returns when the buffer was last committed.
func (s *Session) LastReconcile() time.Time { return s.lastReconcile }

// Reconcile commits every buffered edit in (segment id, field) order. It is
// idempotent and leaves the buffer intact. Edits that reference missing
// segments are reported together after the rest have been applied; any other
// store failure stops the pass.
func (s *Session) Reconcile(ctx context.Context) error {
	logger := logging.WithContext(ctx, s.logger)
	var stale []error
	applied := 0
	for _, key := range sortedKeys(s.buffer) {
		text := s.buffer[key]
		if err := s.repo.UpdateFields(ctx, key.SegmentID, fieldsFor(key.Field, text)); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				stale = append(stale, err)
				continue
			}
			return fmt.Errorf("reconcile segment %d %s: %w", key.SegmentID, key.Field, err)
		}
		applied++
	}
	s.lastReconcile = s.now()
	logger.Debug("edit buffer reconciled",
		logging.Int("applied", applied),
		logging.Int("stale", len(stale)),
	)
	if len(stale) > 0 {
		logging.WarnWithContext(logger, "buffered edits reference missing segments", "reconcile_stale",
			logging.Int("stale", len(stale)),
			logging.String(logging.FieldErrorHint, "the corpus was cleared or segments were removed"),
		)
		return errors.Join(stale...)
	}
	return nil
}

// MaybeAutosave reconciles when more than the autosave interval has passed
// since the last reconciliation.
func (s *Session) MaybeAutosave(ctx context.Context) (bool, error) {
	if s.now().Sub(s.lastReconcile) <= s.autosaveInterval {
		return false, nil
	}
	return true, s.Reconcile(ctx)
}

// SaveSegment commits both current fields of one segment.
func (s *Session) SaveSegment(ctx context.Context, segmentID int64) error {
	seg, err := s.segment(ctx, segmentID)
	if err != nil {
		return err
	}
	raw, translated := s.Overlay(seg)
	if err := s.repo.UpdateFields(ctx, segmentID, corpus.Fields{Raw: &raw, Translated: &translated}); err != nil {
		return fmt.Errorf("save segment %d: %w", segmentID, err)
	}
	for i := range s.snapshot.Segments {
		if s.snapshot.Segments[i].ID == segmentID {
			s.snapshot.Segments[i].RawText = raw
			s.snapshot.Segments[i].TranslatedText = translated
		}
	}
	return nil
}

func (s *Session) segment(ctx context.Context, segmentID int64) (corpus.Segment, error) {
	for _, seg := range s.snapshot.Segments {
		if seg.ID == segmentID {
			return seg, nil
		}
	}
	seg, err := s.repo.Get(ctx, segmentID)
	if err != nil {
		return corpus.Segment{}, fmt.Errorf("load segment %d: %w", segmentID, err)
	}
	return seg, nil
}

// CurrentDocument reconciles pending edits, re-reads the media under review
// and builds its subtitle document with edits overlaid.
func (s *Session) CurrentDocument(ctx context.Context) (corpus.MediaRef, subtitles.Document, error) {
	if err := s.Reconcile(ctx); err != nil && !errors.Is(err, services.ErrNotFound) {
		return corpus.MediaRef{}, subtitles.Document{}, err
	}
	snap, ok, err := s.Load(ctx)
	if err != nil {
		return corpus.MediaRef{}, subtitles.Document{}, err
	}
	if !ok {
		return corpus.MediaRef{}, subtitles.Document{}, fmt.Errorf("%w: corpus is empty", services.ErrNotFound)
	}
	return snap.Media, subtitles.FromSegments(snap.Segments, s.Overlay, s.displayMs), nil
}

// Page is one page of the review listing with edits overlaid.
type Page struct {
	Number   int
	Total    int
	Segments []corpus.Segment
}

// Page returns page n (1-based) of the loaded snapshot. Out-of-range numbers
// clamp to the first or last page. A non-positive size uses the configured
// page size.
func (s *Session) Page(n, size int) Page {
	if size <= 0 {
		size = s.pageSize
	}
	segments := s.snapshot.Segments
	total := (len(segments) + size - 1) / size
	if total == 0 {
		return Page{Number: 1, Total: 1}
	}
	n = max(1, min(n, total))
	start := (n - 1) * size
	end := min(start+size, len(segments))
	out := make([]corpus.Segment, 0, end-start)
	for _, seg := range segments[start:end] {
		seg.RawText, seg.TranslatedText = s.Overlay(seg)
		out = append(out, seg)
	}
	return Page{Number: n, Total: total, Segments: out}
}

// Player returns the playback engine with cues rebuilt from the loaded
// snapshot and current edits. Jump and loop state persist across calls.
func (s *Session) Player() *playback.Engine {
	cues := make([]playback.Cue, 0, len(s.snapshot.Segments))
	for _, seg := range s.snapshot.Segments {
		raw, translated := s.Overlay(seg)
		cues = append(cues, playback.Cue{
			SegmentID:      seg.ID,
			StartMs:        seg.StartMs,
			RawText:        raw,
			TranslatedText: translated,
		})
	}
	s.player.SetCues(cues)
	return s.player
}

func fieldsFor(field Field, text string) corpus.Fields {
	if field == FieldTranslated {
		return corpus.Fields{Translated: &text}
	}
	return corpus.Fields{Raw: &text}
}
