package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kari/internal/fileutil"
)

// Library stores imported recordings under a single directory. Imported
// files are named "<unix seconds>_<original name>"; a second import in the
// same second becomes "<unix seconds>-2_<original name>" and so on, so every
// import is a distinct media asset.
type Library struct {
	dir string
	now func() time.Time
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir, now: time.Now}
}

// Import copies src into the library and returns the absolute destination.
// The copy is verified by size and checksum.
func (l *Library) Import(src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", errors.New("import: source path is required")
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("import: %s is a directory", src)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("import: create library dir: %w", err)
	}

	dst, err := l.destination(filepath.Base(src))
	if err != nil {
		return "", err
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("import %s: %w", filepath.Base(src), err)
	}
	return dst, nil
}

func (l *Library) destination(base string) (string, error) {
	stamp := l.now().Unix()
	name := fmt.Sprintf("%d_%s", stamp, base)
	for n := 2; ; n++ {
		dst, err := filepath.Abs(filepath.Join(l.dir, name))
		if err != nil {
			return "", fmt.Errorf("import: resolve destination: %w", err)
		}
		if _, err := os.Stat(dst); errors.Is(err, os.ErrNotExist) {
			return dst, nil
		} else if err != nil {
			return "", fmt.Errorf("import: check destination: %w", err)
		}
		name = fmt.Sprintf("%d-%d_%s", stamp, n, base)
	}
}
