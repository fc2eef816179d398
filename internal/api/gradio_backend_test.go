package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"kari/internal/api"
	"kari/internal/logging"
	"kari/internal/testsupport"
)

// newGradioSpace serves the upload and call endpoints the recognition and
// translation Spaces expose. Recognition returns lines in order.
func newGradioSpace(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	next := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /gradio_api/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"/tmp/gradio/chunk.wav"})
	})
	mux.HandleFunc("POST /gradio_api/call/{api}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"event_id": "evt-" + r.PathValue("api")})
	})
	mux.HandleFunc("GET /gradio_api/call/{api}/{id}", func(w http.ResponseWriter, r *http.Request) {
		var data string
		switch r.PathValue("api") {
		case "lambda":
			data = `[{"value":"ami","__type__":"update"}]`
		case "automatic_speech_recognition":
			mu.Lock()
			line := lines[next%len(lines)]
			next++
			mu.Unlock()
			encoded, _ := json.Marshal([]string{line})
			data = string(encoded)
		case "translate":
			data = `["中文"]`
		default:
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestTranscribeThroughGradioBackends(t *testing.T) {
	space := newGradioSpace(t, "nga'ay ho", "aray")
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(space.URL))

	svc, err := api.Open(context.Background(), cfg, logging.NewNop(),
		api.WithCommandRunner(writeOutput),
		api.WithProbeRunner(probe9s),
	)
	if err != nil {
		t.Fatalf("api.Open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	media := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, media, 32)
	res, err := svc.Transcribe(context.Background(), api.TranscribeRequest{MediaPath: media, Language: "amis"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", res.Segments)
	}
	if res.Segments[0].RawText != "nga'ay ho" || res.Segments[0].TranslatedText != "中文" {
		t.Fatalf("unexpected first segment %+v", res.Segments[0])
	}
	if !strings.Contains(res.SRT, "aray\n中文\n") {
		t.Fatalf("unexpected srt:\n%s", res.SRT)
	}
}
