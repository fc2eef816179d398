package ffprobe

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.4567"},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.4567 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.DurationMs() != 123456 {
		t.Fatalf("expected truncated milliseconds, got %d", result.DurationMs())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.DurationMs() != 0 {
		t.Fatalf("expected 0ms for invalid duration, got %d", result.DurationMs())
	}
}

func TestInspectWithParsesOutput(t *testing.T) {
	var gotName string
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_type":"audio","sample_rate":"16000","channels":1}],"format":{"duration":"10.000000","format_name":"wav"}}`), nil
	}
	result, err := InspectWith(context.Background(), run, "", "/tmp/full.wav")
	if err != nil {
		t.Fatalf("InspectWith: %v", err)
	}
	if gotName != "ffprobe" {
		t.Fatalf("expected default binary, got %q", gotName)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/full.wav" || !slices.Contains(gotArgs, "-show_format") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if result.DurationMs() != 10000 {
		t.Fatalf("expected 10000ms, got %d", result.DurationMs())
	}
	if result.Streams[0].Channels != 1 {
		t.Fatalf("expected mono stream, got %+v", result.Streams[0])
	}
}

func TestInspectWithErrors(t *testing.T) {
	if _, err := InspectWith(context.Background(), nil, "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
	failing := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: no such file")
	}
	if _, err := InspectWith(context.Background(), failing, "ffprobe", "/missing.mp4"); err == nil {
		t.Fatal("expected runner error to surface")
	}
	garbage := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	}
	if _, err := InspectWith(context.Background(), garbage, "ffprobe", "/x.mp4"); err == nil {
		t.Fatal("expected parse error")
	}
}
