package openaiapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kari/internal/language"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
}

func TestRecognizeSendsPromptAndModel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if model := r.FormValue("model"); model != "whisper-1" {
			t.Errorf("unexpected model %q", model)
		}
		if prompt := r.FormValue("prompt"); !strings.Contains(prompt, "Amis") {
			t.Errorf("expected language hint in prompt, got %q", prompt)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"nga'ay ho"}`))
	})

	audio := filepath.Join(t.TempDir(), "chunk.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	text, err := client.Recognize(context.Background(), "formosan_ami", audio)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "nga'ay ho" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestTranslateUsesChatCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != defaultChatModel || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		} else {
			if !strings.Contains(req.Messages[0].Content, "Traditional Chinese") {
				t.Errorf("system prompt missing target: %q", req.Messages[0].Content)
			}
			if req.Messages[1].Content != "nga'ay ho" {
				t.Errorf("unexpected user content %q", req.Messages[1].Content)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" 你好 "}}]}`))
	})

	out, err := client.Translate(context.Background(), "nga'ay ho", "amis", language.TargetCode)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out != "你好" {
		t.Fatalf("unexpected translation %q", out)
	}
}

func TestTranslateRejectsEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	if _, err := client.Translate(context.Background(), "x", "amis", language.TargetCode); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestTranslateSurfacesHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})
	_, err := client.Translate(context.Background(), "x", "amis", language.TargetCode)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestResolveSourceCodeMapsEthnonym(t *testing.T) {
	client := NewClient(Config{})
	code, err := client.ResolveSourceCode(context.Background(), "太魯閣")
	if err != nil {
		t.Fatalf("ResolveSourceCode: %v", err)
	}
	if code != "truku" {
		t.Fatalf("expected truku, got %q", code)
	}
	if _, err := client.ResolveSourceCode(context.Background(), "klingon"); err == nil {
		t.Fatal("expected error for unknown ethnonym")
	}
}
