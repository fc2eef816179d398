package testsupport

import (
	"context"
	"testing"

	"kari/internal/config"
	"kari/internal/corpus"
)

// MustOpenStore opens the sqlite corpus for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *corpus.Store {
	t.Helper()

	store, err := corpus.Open(cfg.CorpusPath())
	if err != nil {
		t.Fatalf("corpus.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertSegment stores seg and returns it with its assigned id.
func InsertSegment(t testing.TB, repo corpus.Repository, seg corpus.Segment) corpus.Segment {
	t.Helper()

	id, err := repo.Insert(context.Background(), seg)
	if err != nil {
		t.Fatalf("repo.Insert: %v", err)
	}
	seg.ID = id
	return seg
}
