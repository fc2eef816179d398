package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kari/internal/corpus"
	"kari/internal/services"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS corpus (
    id BIGSERIAL PRIMARY KEY,
    lang TEXT NOT NULL,
    raw_text TEXT NOT NULL,
    translated_text TEXT NOT NULL,
    start_ms BIGINT NOT NULL,
    media_path TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_corpus_media_start ON corpus (media_path, start_ms);
CREATE INDEX IF NOT EXISTS idx_corpus_created ON corpus (created_at);
`

const segmentColumns = "id, lang, raw_text, translated_text, start_ms, media_path, created_at"

// Store is the PostgreSQL Repository.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ corpus.Repository = (*Store)(nil)

// Open connects to dsn, verifies the connection and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, services.Wrap(services.ErrConfiguration, "corpus", "open postgres", "dsn is required", nil)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure corpus table: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanSegment(row pgx.Row) (corpus.Segment, error) {
	var seg corpus.Segment
	if err := row.Scan(
		&seg.ID,
		&seg.Lang,
		&seg.RawText,
		&seg.TranslatedText,
		&seg.StartMs,
		&seg.MediaPath,
		&seg.CreatedAt,
	); err != nil {
		return corpus.Segment{}, err
	}
	seg.CreatedAt = seg.CreatedAt.UTC()
	return seg, nil
}

func notFound(op string, id int64) error {
	return services.Wrap(services.ErrNotFound, "corpus", op, fmt.Sprintf("segment %d does not exist", id), nil)
}

// Insert stores seg and returns its assigned id.
func (s *Store) Insert(ctx context.Context, seg corpus.Segment) (int64, error) {
	if strings.TrimSpace(seg.MediaPath) == "" {
		return 0, services.Wrap(services.ErrValidation, "corpus", "insert", "media path is required", nil)
	}
	if seg.StartMs < 0 {
		return 0, services.Wrap(services.ErrValidation, "corpus", "insert", fmt.Sprintf("negative start offset %d", seg.StartMs), nil)
	}
	created := seg.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO corpus (lang, raw_text, translated_text, start_ms, media_path, created_at)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		seg.Lang, seg.RawText, seg.TranslatedText, seg.StartMs, seg.MediaPath, created.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert segment: %w", err)
	}
	return id, nil
}

// UpdateFields overwrites the selected text fields of segment id.
func (s *Store) UpdateFields(ctx context.Context, id int64, fields corpus.Fields) error {
	if fields.Empty() {
		_, err := s.Get(ctx, id)
		return err
	}
	var (
		sets []string
		args []any
	)
	if fields.Raw != nil {
		args = append(args, *fields.Raw)
		sets = append(sets, fmt.Sprintf("raw_text = $%d", len(args)))
	}
	if fields.Translated != nil {
		args = append(args, *fields.Translated)
		sets = append(sets, fmt.Sprintf("translated_text = $%d", len(args)))
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE corpus SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update segment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("update", id)
	}
	return nil
}

// Get returns segment id.
func (s *Store) Get(ctx context.Context, id int64) (corpus.Segment, error) {
	seg, err := scanSegment(s.pool.QueryRow(ctx, `SELECT `+segmentColumns+` FROM corpus WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return corpus.Segment{}, notFound("get", id)
	}
	if err != nil {
		return corpus.Segment{}, fmt.Errorf("get segment: %w", err)
	}
	return seg, nil
}

// QueryByMedia returns the media's segments ordered by start offset, then id.
func (s *Store) QueryByMedia(ctx context.Context, mediaPath string) ([]corpus.Segment, error) {
	return queryByMedia(ctx, s.pool, mediaPath)
}

func queryByMedia(ctx context.Context, q querier, mediaPath string) ([]corpus.Segment, error) {
	rows, err := q.Query(ctx,
		`SELECT `+segmentColumns+` FROM corpus WHERE media_path = $1 ORDER BY start_ms ASC, id ASC`,
		mediaPath,
	)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	segments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (corpus.Segment, error) {
		return scanSegment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan segments: %w", err)
	}
	return segments, nil
}

// LatestMedia returns the media of the most recently created segment.
func (s *Store) LatestMedia(ctx context.Context) (corpus.MediaRef, bool, error) {
	return latestMedia(ctx, s.pool)
}

func latestMedia(ctx context.Context, q querier) (corpus.MediaRef, bool, error) {
	var ref corpus.MediaRef
	err := q.QueryRow(ctx,
		`SELECT media_path, lang FROM corpus ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&ref.Path, &ref.Lang)
	if errors.Is(err, pgx.ErrNoRows) {
		return corpus.MediaRef{}, false, nil
	}
	if err != nil {
		return corpus.MediaRef{}, false, fmt.Errorf("latest media: %w", err)
	}
	return ref, true, nil
}

// Snapshot reads the latest media and its segments in one transaction.
func (s *Store) Snapshot(ctx context.Context) (corpus.MediaSnapshot, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return corpus.MediaSnapshot{}, false, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ref, ok, err := latestMedia(ctx, tx)
	if err != nil || !ok {
		return corpus.MediaSnapshot{}, false, err
	}
	segments, err := queryByMedia(ctx, tx, ref.Path)
	if err != nil {
		return corpus.MediaSnapshot{}, false, err
	}
	return corpus.MediaSnapshot{Media: ref, Segments: segments}, true, nil
}

// Stats counts segments and distinct media.
func (s *Store) Stats(ctx context.Context) (corpus.Stats, error) {
	var stats corpus.Stats
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1), COUNT(DISTINCT media_path) FROM corpus`,
	).Scan(&stats.Segments, &stats.Media); err != nil {
		return corpus.Stats{}, fmt.Errorf("corpus stats: %w", err)
	}
	return stats, nil
}

// DeleteAll removes every segment.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM corpus`)
	if err != nil {
		return 0, fmt.Errorf("clear corpus: %w", err)
	}
	return tag.RowsAffected(), nil
}
