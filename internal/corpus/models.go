package corpus

import (
	"context"
	"time"
)

// Segment is one recognized and translated timeline window.
type Segment struct {
	ID             int64
	Lang           string
	RawText        string
	TranslatedText string
	StartMs        int64
	MediaPath      string
	CreatedAt      time.Time
}

// Fields selects the text columns to overwrite. Nil pointers leave the
// column untouched.
type Fields struct {
	Raw        *string
	Translated *string
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Raw == nil && f.Translated == nil
}

// MediaRef identifies a media asset and the language it was transcribed in.
type MediaRef struct {
	Path string
	Lang string
}

// MediaSnapshot is a media asset and all of its segments, read together.
type MediaSnapshot struct {
	Media    MediaRef
	Segments []Segment
}

// Stats summarizes corpus contents.
type Stats struct {
	Segments int64
	Media    int64
}

// Repository is the durable segment store.
type Repository interface {
	// Insert stores seg and returns its assigned id. CreatedAt defaults to now.
	Insert(ctx context.Context, seg Segment) (int64, error)
	// UpdateFields overwrites the selected text fields of segment id. It
	// returns an error wrapping services.ErrNotFound when id does not exist.
	UpdateFields(ctx context.Context, id int64, fields Fields) error
	// Get returns segment id or an error wrapping services.ErrNotFound.
	Get(ctx context.Context, id int64) (Segment, error)
	// QueryByMedia returns the media's segments ordered by start offset, then id.
	QueryByMedia(ctx context.Context, mediaPath string) ([]Segment, error)
	// LatestMedia returns the media of the most recently created segment.
	LatestMedia(ctx context.Context) (MediaRef, bool, error)
	// Snapshot combines LatestMedia and QueryByMedia in one read transaction.
	Snapshot(ctx context.Context) (MediaSnapshot, bool, error)
	// Stats counts segments and distinct media.
	Stats(ctx context.Context) (Stats, error)
	// DeleteAll removes every segment and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
	Close() error
}
