package playback

import "testing"

func sampleCues() []Cue {
	return []Cue{
		{SegmentID: 1, StartMs: 0, RawText: "a", TranslatedText: "甲"},
		{SegmentID: 2, StartMs: 4500, RawText: "b", TranslatedText: "乙"},
		{SegmentID: 5, StartMs: 18000, RawText: "c", TranslatedText: "丙"},
	}
}

func TestActiveSegment(t *testing.T) {
	engine := NewEngine(sampleCues(), 0)
	tests := []struct {
		name   string
		t      int64
		wantID int64
		want   bool
	}{
		{name: "start of first", t: 0, wantID: 1, want: true},
		{name: "inside first", t: 3000, wantID: 1, want: true},
		{name: "shared boundary prefers earlier cue", t: 4500, wantID: 1, want: true},
		{name: "inside second", t: 4501, wantID: 2, want: true},
		{name: "end of second inclusive", t: 9000, wantID: 2, want: true},
		{name: "gap between cues", t: 12000, want: false},
		{name: "third", t: 20000, wantID: 5, want: true},
		{name: "past the end", t: 22501, want: false},
		{name: "negative", t: -1, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cue, ok := engine.ActiveSegment(tc.t)
			if ok != tc.want {
				t.Fatalf("ActiveSegment(%d) ok=%v, want %v", tc.t, ok, tc.want)
			}
			if ok && cue.SegmentID != tc.wantID {
				t.Fatalf("ActiveSegment(%d) = segment %d, want %d", tc.t, cue.SegmentID, tc.wantID)
			}
		})
	}
}

func TestJumpAndLoop(t *testing.T) {
	engine := NewEngine(sampleCues(), DefaultActiveWindowMs)
	if _, ok := engine.JumpTarget(); ok {
		t.Fatal("expected no jump target initially")
	}

	pos, ok := engine.JumpTo(5)
	if !ok || pos != 18000 {
		t.Fatalf("JumpTo(5) = %d, %v", pos, ok)
	}

	if pos, reset := engine.Tick(25000); reset || pos != 25000 {
		t.Fatalf("loop disabled must not reset, got %d %v", pos, reset)
	}

	engine.SetLoop(true)
	if pos, reset := engine.Tick(22499); reset || pos != 22499 {
		t.Fatalf("before loop end expected passthrough, got %d %v", pos, reset)
	}
	if pos, reset := engine.Tick(22500); !reset || pos != 18000 {
		t.Fatalf("at loop end expected reset to 18000, got %d %v", pos, reset)
	}

	if _, ok := engine.JumpTo(99); ok {
		t.Fatal("expected unknown segment to fail")
	}
}

func TestLoopWithoutJumpNeverResets(t *testing.T) {
	engine := NewEngine(sampleCues(), 0)
	engine.SetLoop(true)
	if _, reset := engine.Tick(100000); reset {
		t.Fatal("loop without jump target must not reset")
	}
}

func TestSetCuesKeepsState(t *testing.T) {
	engine := NewEngine(sampleCues(), 0)
	engine.Jump(Cue{StartMs: 4500})
	engine.SetLoop(true)
	engine.SetCues([]Cue{{SegmentID: 2, StartMs: 4500, RawText: "edited"}})
	if target, ok := engine.JumpTarget(); !ok || target != 4500 || !engine.Looping() {
		t.Fatalf("state lost after SetCues: %d %v %v", target, ok, engine.Looping())
	}
	cue, ok := engine.ActiveSegment(5000)
	if !ok || cue.RawText != "edited" {
		t.Fatalf("expected edited cue, got %+v", cue)
	}
}

func TestOverlay(t *testing.T) {
	if got := Overlay(Cue{RawText: " raw ", TranslatedText: "譯文"}); got != "raw\n譯文" {
		t.Fatalf("unexpected overlay %q", got)
	}
}
