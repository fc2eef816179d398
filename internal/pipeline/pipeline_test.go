package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kari/internal/corpus"
	"kari/internal/language"
	"kari/internal/logging"
	"kari/internal/media"
	"kari/internal/pipeline"
	"kari/internal/render"
	"kari/internal/retry"
	"kari/internal/services"
	"kari/internal/subtitles"
	"kari/internal/testsupport"
)

type reply struct {
	text string
	err  error
}

// scriptedRecognizer answers calls in order; calls beyond the script repeat
// the last reply.
type scriptedRecognizer struct {
	replies []reply
	calls   int
	paths   []string
}

func (r *scriptedRecognizer) Recognize(_ context.Context, modelID, audioPath string) (string, error) {
	if modelID != "formosan_trv" {
		return "", fmt.Errorf("unexpected model %q", modelID)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("chunk missing during recognition: %w", err)
	}
	r.paths = append(r.paths, audioPath)
	i := min(r.calls, len(r.replies)-1)
	r.calls++
	return r.replies[i].text, r.replies[i].err
}

type fakeTranslator struct {
	calls   []string
	fail    error
	resolve int
}

func (f *fakeTranslator) Translate(_ context.Context, text, src, tgt string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	if src != "trv" || tgt != language.TargetCode {
		return "", fmt.Errorf("unexpected codes %s -> %s", src, tgt)
	}
	f.calls = append(f.calls, text)
	return "譯:" + text, nil
}

func (f *fakeTranslator) ResolveSourceCode(_ context.Context, ethnonym string) (string, error) {
	f.resolve++
	if ethnonym != "太魯閣" {
		return "", fmt.Errorf("unexpected ethnonym %q", ethnonym)
	}
	return " trv ", nil
}

type fakeRenderer struct {
	calls int
	doc   subtitles.Document
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, mediaPath string, doc subtitles.Document, variant render.Variant) (string, error) {
	f.calls++
	f.doc = doc
	if f.err != nil {
		return "", f.err
	}
	return render.OutputPath(mediaPath, variant), nil
}

type fixture struct {
	pipeline   *pipeline.Pipeline
	store      *corpus.Store
	recognizer *scriptedRecognizer
	translator *fakeTranslator
	renderer   *fakeRenderer
	scratch    string
	media      string
	progress   []pipeline.Progress
}

func newFixture(t *testing.T, duration string, replies ...reply) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	f := &fixture{
		store:      testsupport.MustOpenStore(t, cfg),
		recognizer: &scriptedRecognizer{replies: replies},
		translator: &fakeTranslator{},
		renderer:   &fakeRenderer{},
		scratch:    cfg.Paths.ScratchDir,
		media:      filepath.Join(t.TempDir(), "talk.mp4"),
	}
	testsupport.WriteFile(t, f.media, 64)

	decoder := media.NewDecoder("ffmpeg", "ffprobe", cfg.Paths.ScratchDir, logging.NewNop())
	decoder.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})
	decoder.WithProbeRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"` + duration + `"}}`), nil
	})

	p, err := pipeline.New(pipeline.Deps{
		Decoder:    decoder,
		Recognizer: f.recognizer,
		Translator: f.translator,
		Repository: f.store,
		Renderer:   f.renderer,
	}, pipeline.Options{
		Retry:    retry.Policy{MaxAttempts: 3},
		Progress: func(p pipeline.Progress) { f.progress = append(f.progress, p) },
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	f.pipeline = p
	return f
}

func truku(t *testing.T) language.Profile {
	t.Helper()
	profile, ok := language.Lookup("truku")
	if !ok {
		t.Fatal("truku profile missing")
	}
	return profile
}

func (f *fixture) stored(t *testing.T) []corpus.Segment {
	t.Helper()
	segs, err := f.store.QueryByMedia(context.Background(), f.media)
	if err != nil {
		t.Fatalf("QueryByMedia: %v", err)
	}
	return segs
}

func TestTranscribeSkipsSilentWindow(t *testing.T) {
	f := newFixture(t, "9.0", reply{text: "embiyax su hug"}, reply{text: " x "})

	result, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	segs := f.stored(t)
	if len(segs) != 1 {
		t.Fatalf("expected exactly one persisted segment, got %d", len(segs))
	}
	if segs[0].StartMs != 0 || segs[0].RawText != "embiyax su hug" || segs[0].TranslatedText != "譯:embiyax su hug" || segs[0].Lang != "truku" {
		t.Fatalf("unexpected segment %+v", segs[0])
	}
	if len(result.Skipped) != 1 || result.Skipped[0].StartMs != 4500 {
		t.Fatalf("expected second window skipped, got %+v", result.Skipped)
	}
	if len(f.translator.calls) != 1 {
		t.Fatalf("silent window must not be translated, calls=%v", f.translator.calls)
	}
	if result.SourceCode != "trv" {
		t.Fatalf("expected trimmed source code, got %q", result.SourceCode)
	}
	if result.Document.Len() != 1 {
		t.Fatalf("expected one subtitle entry, got %d", result.Document.Len())
	}
	entry := result.Document.Entries[0]
	if entry.Index != 1 || entry.StartMs != 0 || entry.EndMs != 4400 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if f.renderer.calls != 1 || result.OutputPath != render.OutputPath(f.media, render.Raw) {
		t.Fatalf("expected raw render, got calls=%d output=%q", f.renderer.calls, result.OutputPath)
	}
}

func TestTranscribeAbortsWhenFirstChunkExhaustsRetries(t *testing.T) {
	boom := errors.New("503 service unavailable")
	f := newFixture(t, "9.0", reply{err: boom})

	result, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t))
	var chunkErr *pipeline.ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected ChunkError, got %v", err)
	}
	if chunkErr.Stage != pipeline.StageRecognize || chunkErr.Window.Index != 1 {
		t.Fatalf("unexpected chunk error %+v", chunkErr)
	}
	if !errors.Is(err, services.ErrExternalService) || !errors.Is(err, boom) {
		t.Fatalf("error chain must carry ErrExternalService and the cause: %v", err)
	}
	if f.recognizer.calls != 3 {
		t.Fatalf("expected 3 recognition attempts, got %d", f.recognizer.calls)
	}
	if len(f.translator.calls) != 0 {
		t.Fatal("translation must not run after recognition failed")
	}
	if len(f.stored(t)) != 0 || len(result.Segments) != 0 {
		t.Fatal("no segment may be persisted for the failed chunk")
	}
	if f.renderer.calls != 0 {
		t.Fatal("render must not run after a failed window")
	}
}

func TestTranscribeKeepsEarlierSegmentsOnLaterFailure(t *testing.T) {
	boom := errors.New("timeout")
	f := newFixture(t, "10.0", reply{text: "first"}, reply{err: boom})

	result, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t))
	var chunkErr *pipeline.ChunkError
	if !errors.As(err, &chunkErr) || chunkErr.Window.Index != 2 {
		t.Fatalf("expected failure on window 2, got %v", err)
	}
	if !strings.Contains(err.Error(), "chunk 2 [00:00:04,500 --> 00:00:09,000] recognize") {
		t.Fatalf("error should name the failed window: %v", err)
	}
	segs := f.stored(t)
	if len(segs) != 1 || segs[0].RawText != "first" {
		t.Fatalf("earlier segment must stay committed, got %+v", segs)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("result should report committed segments, got %d", len(result.Segments))
	}
}

func TestTranscribeTranslateFailure(t *testing.T) {
	f := newFixture(t, "4.0", reply{text: "embiyax"})
	f.translator.fail = errors.New("rate limited")

	_, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t))
	var chunkErr *pipeline.ChunkError
	if !errors.As(err, &chunkErr) || chunkErr.Stage != pipeline.StageTranslate {
		t.Fatalf("expected translate ChunkError, got %v", err)
	}
	if len(f.stored(t)) != 0 {
		t.Fatal("untranslated chunk must not be persisted")
	}
}

func TestTranscribeReportsProgressAndCleansScratch(t *testing.T) {
	f := newFixture(t, "10.0", reply{text: "word one"})

	if _, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t)); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(f.progress) != 3 {
		t.Fatalf("expected 3 progress callbacks, got %d", len(f.progress))
	}
	wantDone := []int64{4500, 9000, 10000}
	for i, p := range f.progress {
		if p.DoneMs != wantDone[i] || p.TotalMs != 10000 || p.Windows != 3 {
			t.Fatalf("progress %d = %+v", i, p)
		}
	}
	if got := f.progress[2].Fraction(); got != 1 {
		t.Fatalf("final fraction %v, want 1", got)
	}

	last := f.renderer.doc.Entries[2]
	if last.StartMs != 9000 || last.EndMs != 9900 {
		t.Fatalf("last entry should end 100ms before the media end, got %+v", last)
	}

	for _, p := range f.recognizer.paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("chunk file %s left behind", p)
		}
	}
	entries, err := os.ReadDir(f.scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch dir not cleaned, found %d entries", len(entries))
	}
}

func TestTranscribeRenderFailureKeepsDocument(t *testing.T) {
	f := newFixture(t, "4.0", reply{text: "embiyax"})
	f.renderer.err = services.Wrap(services.ErrMux, "render", "ffmpeg", "subtitle burn failed", errors.New("exit status 1"))

	result, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t))
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected ErrMux, got %v", err)
	}
	if result.Document.Len() != 1 || len(result.Segments) != 1 {
		t.Fatalf("document should survive a render failure: %+v", result)
	}
}

func TestTranscribeNormalizesText(t *testing.T) {
	f := newFixture(t, "4.0", reply{text: "  cafe\u0301 \n"})

	result, err := f.pipeline.Transcribe(context.Background(), f.media, truku(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := result.Segments[0].RawText; got != "caf\u00e9" {
		t.Fatalf("expected NFC-normalized trimmed text, got %q", got)
	}
}

func TestTranscribeRequiresProfile(t *testing.T) {
	f := newFixture(t, "4.0", reply{text: "x"})
	if _, err := f.pipeline.Transcribe(context.Background(), f.media, language.Profile{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.translator.resolve != 0 {
		t.Fatal("no backend call expected without a profile")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := pipeline.New(pipeline.Deps{}, pipeline.Options{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
