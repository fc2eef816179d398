package api_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kari/internal/api"
	"kari/internal/config"
	"kari/internal/logging"
	"kari/internal/services"
	"kari/internal/session"
	"kari/internal/testsupport"
)

type echoRecognizer struct{ calls int }

func (r *echoRecognizer) Recognize(context.Context, string, string) (string, error) {
	r.calls++
	return []string{"embiyax su hug", "mhuway su"}[(r.calls-1)%2], nil
}

type prefixTranslator struct{}

func (prefixTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return "譯:" + text, nil
}

func (prefixTranslator) ResolveSourceCode(context.Context, string) (string, error) {
	return "trv", nil
}

func writeOutput(_ context.Context, _ string, args ...string) error {
	return os.WriteFile(args[len(args)-1], []byte("out"), 0o644)
}

func probe9s(context.Context, string, ...string) ([]byte, error) {
	return []byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"9.0"}}`), nil
}

func openService(t *testing.T, cfg *config.Config, opts ...api.Option) *api.Service {
	t.Helper()
	base := []api.Option{
		api.WithBackends(&echoRecognizer{}, prefixTranslator{}),
		api.WithCommandRunner(writeOutput),
		api.WithProbeRunner(probe9s),
	}
	svc, err := api.Open(context.Background(), cfg, logging.NewNop(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("api.Open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestServiceReviewFlow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := openService(t, cfg)
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, source, 128)

	res, err := svc.Transcribe(ctx, api.TranscribeRequest{MediaPath: source, Language: "太魯閣語"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.HasPrefix(res.MediaPath, cfg.MediaLibraryDir()) || !strings.HasSuffix(res.MediaPath, "_talk.mp4") {
		t.Fatalf("expected imported media path, got %q", res.MediaPath)
	}
	if len(res.Segments) != 2 || res.Lang != "truku" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.HasSuffix(res.OutputPath, "_talk_raw.mp4") {
		t.Fatalf("unexpected raw output %q", res.OutputPath)
	}
	if !strings.Contains(res.SRT, "00:00:00,000 --> 00:00:04,400\nembiyax su hug\n譯:embiyax su hug\n") {
		t.Fatalf("unexpected srt:\n%s", res.SRT)
	}

	page, err := svc.ListSegments(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if page.MediaPath != res.MediaPath || len(page.Segments) != 2 || page.Segments[1].Start != "00:00:04,500" {
		t.Fatalf("unexpected page %+v", page)
	}

	second := page.Segments[1].ID
	if _, err := svc.Edit(ctx, second, session.FieldTranslated, "謝謝你"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	page, _ = svc.ListSegments(ctx, 1, 0)
	if !page.Segments[1].Edited || page.Segments[1].TranslatedText != "謝謝你" || page.Pending != 1 {
		t.Fatalf("edit not overlaid: %+v", page.Segments[1])
	}

	state, err := svc.ActiveAt(ctx, api.PlaybackRequest{AtMs: 5000})
	if err != nil {
		t.Fatalf("ActiveAt: %v", err)
	}
	if state.Active == nil || state.Active.Overlay != "mhuway su\n謝謝你" {
		t.Fatalf("overlay should show the pending edit, got %+v", state.Active)
	}

	out, err := svc.RenderFinal(ctx)
	if err != nil {
		t.Fatalf("RenderFinal: %v", err)
	}
	if !strings.HasSuffix(out, "_talk_final.mp4") {
		t.Fatalf("unexpected final output %q", out)
	}
	srt, err := os.ReadFile(filepath.Join(cfg.Paths.ScratchDir, strings.TrimSuffix(filepath.Base(res.MediaPath), ".mp4")+"_final.srt"))
	if err != nil {
		t.Fatalf("read final srt: %v", err)
	}
	if !strings.Contains(string(srt), "00:00:04,500 --> 00:00:08,900\nmhuway su\n謝謝你\n") {
		t.Fatalf("final srt missing edit:\n%s", srt)
	}

	exported := filepath.Join(t.TempDir(), "reviewed.srt")
	if n, err := svc.ExportSRT(ctx, exported); err != nil || n != 2 {
		t.Fatalf("ExportSRT = %d, %v", n, err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil || stats.Segments != 2 || stats.Media != 1 || stats.LatestMedia != res.MediaPath {
		t.Fatalf("Stats = %+v, %v", stats, err)
	}

	deleted, err := svc.ClearCorpus(ctx)
	if err != nil || deleted != 2 {
		t.Fatalf("ClearCorpus = %d, %v", deleted, err)
	}
	page, err = svc.ListSegments(ctx, 1, 0)
	if err != nil || len(page.Segments) != 0 {
		t.Fatalf("expected empty listing after clear, got %+v %v", page, err)
	}
	if err := svc.Reconcile(ctx); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("stale buffered edit should surface ErrNotFound, got %v", err)
	}
}

func TestServicePlaybackLoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := openService(t, cfg)
	ctx := context.Background()
	media := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, media, 16)
	res, err := svc.Transcribe(ctx, api.TranscribeRequest{MediaPath: media, Language: "truku"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	state, err := svc.ActiveAt(ctx, api.PlaybackRequest{AtMs: 0, JumpTo: res.Segments[1].ID, Loop: true})
	if err != nil {
		t.Fatalf("ActiveAt: %v", err)
	}
	if state.PositionMs != 4500 || state.JumpTargetMs == nil || *state.JumpTargetMs != 4500 || !state.Looping {
		t.Fatalf("unexpected jump state %+v", state)
	}

	state, err = svc.ActiveAt(ctx, api.PlaybackRequest{AtMs: 9000, Loop: true})
	if err != nil {
		t.Fatalf("ActiveAt: %v", err)
	}
	if !state.Reset || state.PositionMs != 4500 {
		t.Fatalf("expected loop reset to 4500, got %+v", state)
	}

	if _, err := svc.ActiveAt(ctx, api.PlaybackRequest{JumpTo: 999}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown segment, got %v", err)
	}
}

func TestTranscribeRejectsUnknownLanguage(t *testing.T) {
	svc := openService(t, testsupport.NewConfig(t))
	_, err := svc.Transcribe(context.Background(), api.TranscribeRequest{MediaPath: "/tmp/x.mp4", Language: "klingon"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOpenHoldsSessionLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	openService(t, cfg)
	_, err := api.Open(context.Background(), cfg, nil, api.WithBackends(&echoRecognizer{}, prefixTranslator{}))
	if !errors.Is(err, session.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	svc, err := api.Open(context.Background(), cfg, nil, api.WithBackends(&echoRecognizer{}, prefixTranslator{}), api.WithoutSessionLock())
	if err != nil {
		t.Fatalf("lock-free open: %v", err)
	}
	_ = svc.Close()
}

func TestOpenRepositoryRejectsUnknownDriver(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Corpus.Driver = "mysql"
	if _, err := api.OpenRepository(context.Background(), cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	cfg.Corpus.Driver = config.CorpusPostgres
	cfg.Corpus.DSN = ""
	if _, err := api.OpenRepository(context.Background(), cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty dsn, got %v", err)
	}
}

func TestNewBackendsByKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, kind := range []string{config.BackendGradio, config.BackendOpenAI} {
		cfg.Backend.Kind = kind
		rec, tr, err := api.NewBackends(cfg)
		if err != nil || rec == nil || tr == nil {
			t.Fatalf("NewBackends(%s) = %v, %v, %v", kind, rec, tr, err)
		}
	}
	cfg.Backend.Kind = "whisper.cpp"
	if _, _, err := api.NewBackends(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLanguagesAndDoctor(t *testing.T) {
	langs := api.Languages()
	if len(langs) != 16 || langs[0].Key != "truku" {
		t.Fatalf("unexpected languages %+v", langs)
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	for _, status := range api.Doctor(cfg) {
		if !status.Available {
			t.Fatalf("stubbed %s should be available: %+v", status.Name, status)
		}
	}
	cfg.Render.FFmpegBinary = "definitely-not-installed-ffmpeg"
	statuses := api.Doctor(cfg)
	if statuses[0].Available || statuses[0].Detail == "" {
		t.Fatalf("expected missing ffmpeg, got %+v", statuses[0])
	}
}
