package corpus_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"kari/internal/corpus"
	"kari/internal/corpus/corpustest"
	"kari/internal/testsupport"
)

func TestSQLiteRepository(t *testing.T) {
	corpustest.Run(t, func(t *testing.T) corpus.Repository {
		return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	})
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "corpus.db")
	store, err := corpus.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := store.Insert(context.Background(), corpus.Segment{Lang: "truku", RawText: "kari", MediaPath: "/m.mp4"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := corpus.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	seg, err := reopened.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if seg.RawText != "kari" {
		t.Fatalf("unexpected segment %+v", seg)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	store, err := corpus.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	_, err = corpus.Open(path)
	if !errors.Is(err, corpus.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, path) || !strings.Contains(msg, "version 99") {
		t.Fatalf("mismatch error should name the file and stored version: %q", msg)
	}
	if strings.Contains(msg, "corpus clear") {
		t.Fatalf("mismatch error points at a command that cannot open the file: %q", msg)
	}
	if !strings.Contains(msg, "move or delete") {
		t.Fatalf("mismatch error missing recovery hint: %q", msg)
	}
}

func TestOpenRejectsUnversionedCorpus(t *testing.T) {
	tests := []struct {
		name  string
		setup string
	}{
		{"missing version table", "CREATE TABLE corpus (id INTEGER PRIMARY KEY)"},
		{"empty version table", "CREATE TABLE schema_version (version INTEGER NOT NULL)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "corpus.db")
			db, err := sql.Open("sqlite", path)
			if err != nil {
				t.Fatalf("sql.Open: %v", err)
			}
			if _, err := db.Exec(tt.setup); err != nil {
				t.Fatalf("setup: %v", err)
			}
			_ = db.Close()

			if _, err := corpus.Open(path); !errors.Is(err, corpus.ErrSchemaMismatch) {
				t.Fatalf("expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := corpus.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFieldsEmpty(t *testing.T) {
	text := "x"
	if !(corpus.Fields{}).Empty() {
		t.Fatal("zero Fields should be empty")
	}
	if (corpus.Fields{Raw: &text}).Empty() {
		t.Fatal("Fields with raw should not be empty")
	}
}
