// Package corpustest holds the behavioural checks every corpus.Repository
// implementation must pass.
package corpustest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kari/internal/corpus"
	"kari/internal/services"
)

// Factory returns an empty repository. Implementations register their own
// cleanup on t.
type Factory func(t *testing.T) corpus.Repository

// Run executes the shared repository suite.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newRepo(t)) })
	t.Run("IDsAreMonotonic", func(t *testing.T) { testIDsAreMonotonic(t, newRepo(t)) })
	t.Run("UpdateFieldsPartial", func(t *testing.T) { testUpdateFieldsPartial(t, newRepo(t)) })
	t.Run("UpdateFieldsNotFound", func(t *testing.T) { testUpdateFieldsNotFound(t, newRepo(t)) })
	t.Run("QueryByMediaOrdering", func(t *testing.T) { testQueryByMediaOrdering(t, newRepo(t)) })
	t.Run("SnapshotSelectsLatestMedia", func(t *testing.T) { testSnapshotSelectsLatestMedia(t, newRepo(t)) })
	t.Run("SnapshotEmpty", func(t *testing.T) { testSnapshotEmpty(t, newRepo(t)) })
	t.Run("SnapshotConsistentUnderWrites", func(t *testing.T) { testSnapshotConsistentUnderWrites(t, newRepo(t)) })
	t.Run("DeleteAllAndStats", func(t *testing.T) { testDeleteAllAndStats(t, newRepo(t)) })
}

func mustInsert(t *testing.T, repo corpus.Repository, seg corpus.Segment) int64 {
	t.Helper()
	id, err := repo.Insert(context.Background(), seg)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return id
}

func testInsertAndGet(t *testing.T, repo corpus.Repository) {
	created := time.Date(2026, 3, 1, 8, 30, 0, 123456000, time.UTC)
	id := mustInsert(t, repo, corpus.Segment{
		Lang:           "truku",
		RawText:        "embiyax su hug",
		TranslatedText: "你好嗎",
		StartMs:        4500,
		MediaPath:      "/media/talk.mp4",
		CreatedAt:      created,
	})
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}
	got, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RawText != "embiyax su hug" || got.TranslatedText != "你好嗎" || got.StartMs != 4500 || got.Lang != "truku" {
		t.Fatalf("unexpected segment %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, got.CreatedAt)
	}
	if _, err := repo.Get(context.Background(), id+1000); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
	if _, err := repo.Insert(context.Background(), corpus.Segment{RawText: "x"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without media path, got %v", err)
	}
}

func testIDsAreMonotonic(t *testing.T, repo corpus.Repository) {
	var last int64
	for i := range 5 {
		id := mustInsert(t, repo, corpus.Segment{Lang: "amis", RawText: "a", StartMs: int64(i) * 4500, MediaPath: "/m.mp4"})
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
	}
}

func testUpdateFieldsPartial(t *testing.T, repo corpus.Repository) {
	ctx := context.Background()
	id := mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "raw", TranslatedText: "trans", MediaPath: "/m.mp4"})

	raw := "raw edited"
	if err := repo.UpdateFields(ctx, id, corpus.Fields{Raw: &raw}); err != nil {
		t.Fatalf("UpdateFields raw: %v", err)
	}
	got, _ := repo.Get(ctx, id)
	if got.RawText != "raw edited" || got.TranslatedText != "trans" {
		t.Fatalf("expected only raw updated, got %+v", got)
	}

	translated := "翻譯"
	if err := repo.UpdateFields(ctx, id, corpus.Fields{Translated: &translated}); err != nil {
		t.Fatalf("UpdateFields translated: %v", err)
	}
	// Same values again must still succeed.
	if err := repo.UpdateFields(ctx, id, corpus.Fields{Translated: &translated}); err != nil {
		t.Fatalf("idempotent UpdateFields: %v", err)
	}
	got, _ = repo.Get(ctx, id)
	if got.RawText != "raw edited" || got.TranslatedText != "翻譯" {
		t.Fatalf("unexpected segment after second update %+v", got)
	}

	if err := repo.UpdateFields(ctx, id, corpus.Fields{}); err != nil {
		t.Fatalf("empty UpdateFields on existing id: %v", err)
	}
}

func testUpdateFieldsNotFound(t *testing.T, repo corpus.Repository) {
	text := "orphan"
	err := repo.UpdateFields(context.Background(), 424242, corpus.Fields{Raw: &text})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateFields(context.Background(), 424242, corpus.Fields{}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty fields on missing id, got %v", err)
	}
}

func testQueryByMediaOrdering(t *testing.T, repo corpus.Repository) {
	ctx := context.Background()
	mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "c", StartMs: 9000, MediaPath: "/a.mp4"})
	first := mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "a1", StartMs: 0, MediaPath: "/a.mp4"})
	second := mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "a2", StartMs: 0, MediaPath: "/a.mp4"})
	mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "b", StartMs: 4500, MediaPath: "/a.mp4"})
	mustInsert(t, repo, corpus.Segment{Lang: "amis", RawText: "other", StartMs: 0, MediaPath: "/b.mp4"})

	segs, err := repo.QueryByMedia(ctx, "/a.mp4")
	if err != nil {
		t.Fatalf("QueryByMedia: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segs))
	}
	if segs[0].ID != first || segs[1].ID != second {
		t.Fatalf("expected ties broken by id, got %d then %d", segs[0].ID, segs[1].ID)
	}
	if segs[2].StartMs != 4500 || segs[3].StartMs != 9000 {
		t.Fatalf("unexpected order %+v", segs)
	}

	none, err := repo.QueryByMedia(ctx, "/missing.mp4")
	if err != nil {
		t.Fatalf("QueryByMedia missing: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no segments, got %d", len(none))
	}
}

func testSnapshotSelectsLatestMedia(t *testing.T, repo corpus.Repository) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "old", MediaPath: "/old.mp4", CreatedAt: base})
	mustInsert(t, repo, corpus.Segment{Lang: "bunun", RawText: "n1", StartMs: 4500, MediaPath: "/new.mp4", CreatedAt: base.Add(time.Hour)})
	mustInsert(t, repo, corpus.Segment{Lang: "bunun", RawText: "n0", StartMs: 0, MediaPath: "/new.mp4", CreatedAt: base.Add(time.Hour)})

	ref, ok, err := repo.LatestMedia(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestMedia: ok=%v err=%v", ok, err)
	}
	if ref.Path != "/new.mp4" || ref.Lang != "bunun" {
		t.Fatalf("unexpected latest media %+v", ref)
	}

	snap, ok, err := repo.Snapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("Snapshot: ok=%v err=%v", ok, err)
	}
	if snap.Media != ref {
		t.Fatalf("snapshot media %+v differs from latest %+v", snap.Media, ref)
	}
	if len(snap.Segments) != 2 || snap.Segments[0].RawText != "n0" || snap.Segments[1].RawText != "n1" {
		t.Fatalf("unexpected snapshot segments %+v", snap.Segments)
	}
}

func testSnapshotEmpty(t *testing.T, repo corpus.Repository) {
	if _, ok, err := repo.LatestMedia(context.Background()); ok || err != nil {
		t.Fatalf("expected no latest media, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := repo.Snapshot(context.Background()); ok || err != nil {
		t.Fatalf("expected empty snapshot, got ok=%v err=%v", ok, err)
	}
}

func testSnapshotConsistentUnderWrites(t *testing.T, repo corpus.Repository) {
	ctx := context.Background()
	mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "seed", MediaPath: "/seed.mp4"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Go(func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			path := "/seed.mp4"
			if i%2 == 1 {
				path = "/other.mp4"
			}
			if _, err := repo.Insert(ctx, corpus.Segment{Lang: "truku", RawText: "w", StartMs: int64(i), MediaPath: path}); err != nil {
				t.Errorf("concurrent insert: %v", err)
				return
			}
		}
	})

	for range 20 {
		snap, ok, err := repo.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if !ok {
			t.Fatal("expected snapshot")
		}
		for _, seg := range snap.Segments {
			if seg.MediaPath != snap.Media.Path {
				t.Fatalf("snapshot mixes media: %q in %q", seg.MediaPath, snap.Media.Path)
			}
		}
		if len(snap.Segments) == 0 {
			t.Fatalf("snapshot for %q has no segments", snap.Media.Path)
		}
	}
	close(stop)
	wg.Wait()
}

func testDeleteAllAndStats(t *testing.T, repo corpus.Repository) {
	ctx := context.Background()
	mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "1", MediaPath: "/a.mp4"})
	mustInsert(t, repo, corpus.Segment{Lang: "truku", RawText: "2", StartMs: 4500, MediaPath: "/a.mp4"})
	mustInsert(t, repo, corpus.Segment{Lang: "amis", RawText: "3", MediaPath: "/b.mp4"})

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Segments != 3 || stats.Media != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	removed, err := repo.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	if _, ok, _ := repo.Snapshot(ctx); ok {
		t.Fatal("expected empty corpus after DeleteAll")
	}
}
