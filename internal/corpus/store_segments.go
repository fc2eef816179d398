package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kari/internal/services"
)

const segmentColumns = "id, lang, raw_text, translated_text, start_ms, media_path, created_at"

// timestampLayout is fixed-width so created_at sorts correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanSegment(scanner rowScanner) (Segment, error) {
	var (
		seg        Segment
		createdRaw string
	)
	if err := scanner.Scan(
		&seg.ID,
		&seg.Lang,
		&seg.RawText,
		&seg.TranslatedText,
		&seg.StartMs,
		&seg.MediaPath,
		&createdRaw,
	); err != nil {
		return Segment{}, err
	}
	created, err := time.Parse(timestampLayout, createdRaw)
	if err != nil {
		created, err = time.Parse(time.RFC3339Nano, createdRaw)
		if err != nil {
			return Segment{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
		}
	}
	seg.CreatedAt = created.UTC()
	return seg, nil
}

func notFound(op string, id int64) error {
	return services.Wrap(services.ErrNotFound, "corpus", op, fmt.Sprintf("segment %d does not exist", id), nil)
}

// Insert stores seg and returns its assigned id.
func (s *Store) Insert(ctx context.Context, seg Segment) (int64, error) {
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

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO corpus (lang, raw_text, translated_text, start_ms, media_path, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		seg.Lang,
		seg.RawText,
		seg.TranslatedText,
		seg.StartMs,
		seg.MediaPath,
		created.UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert segment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// UpdateFields overwrites the selected text fields of segment id.
func (s *Store) UpdateFields(ctx context.Context, id int64, fields Fields) error {
	if fields.Empty() {
		_, err := s.Get(ctx, id)
		return err
	}

	var (
		sets []string
		args []any
	)
	if fields.Raw != nil {
		sets = append(sets, "raw_text = ?")
		args = append(args, *fields.Raw)
	}
	if fields.Translated != nil {
		sets = append(sets, "translated_text = ?")
		args = append(args, *fields.Translated)
	}
	args = append(args, id)

	res, err := s.execWithRetry(ctx, `UPDATE corpus SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update segment %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("update", id)
	}
	return nil
}

// Get returns segment id.
func (s *Store) Get(ctx context.Context, id int64) (Segment, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+segmentColumns+` FROM corpus WHERE id = ?`, id)
	seg, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Segment{}, notFound("get", id)
	}
	if err != nil {
		return Segment{}, fmt.Errorf("get segment: %w", err)
	}
	return seg, nil
}

// QueryByMedia returns the media's segments ordered by start offset, then id.
func (s *Store) QueryByMedia(ctx context.Context, mediaPath string) ([]Segment, error) {
	return queryByMedia(ensureContext(ctx), s.db, mediaPath)
}

func queryByMedia(ctx context.Context, q queryer, mediaPath string) ([]Segment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+segmentColumns+` FROM corpus WHERE media_path = ? ORDER BY start_ms ASC, id ASC`,
		mediaPath,
	)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// LatestMedia returns the media of the most recently created segment.
func (s *Store) LatestMedia(ctx context.Context) (MediaRef, bool, error) {
	return latestMedia(ensureContext(ctx), s.db)
}

func latestMedia(ctx context.Context, q queryer) (MediaRef, bool, error) {
	var ref MediaRef
	err := q.QueryRowContext(ctx,
		`SELECT media_path, lang FROM corpus ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&ref.Path, &ref.Lang)
	if errors.Is(err, sql.ErrNoRows) {
		return MediaRef{}, false, nil
	}
	if err != nil {
		return MediaRef{}, false, fmt.Errorf("latest media: %w", err)
	}
	return ref, true, nil
}

// Snapshot reads the latest media and its segments in one transaction.
func (s *Store) Snapshot(ctx context.Context) (MediaSnapshot, bool, error) {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MediaSnapshot{}, false, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ref, ok, err := latestMedia(ctx, tx)
	if err != nil || !ok {
		return MediaSnapshot{}, false, err
	}
	segments, err := queryByMedia(ctx, tx, ref.Path)
	if err != nil {
		return MediaSnapshot{}, false, err
	}
	return MediaSnapshot{Media: ref, Segments: segments}, true, nil
}

// Stats counts segments and distinct media.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COUNT(DISTINCT media_path) FROM corpus`,
	).Scan(&stats.Segments, &stats.Media); err != nil {
		return Stats{}, fmt.Errorf("corpus stats: %w", err)
	}
	return stats, nil
}

// DeleteAll removes every segment.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM corpus`)
	if err != nil {
		return 0, fmt.Errorf("clear corpus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}
