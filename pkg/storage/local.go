package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores snapshot files under a directory on the local filesystem.
type Local struct {
	dir string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{dir: abs}, nil
}

var _ FileStore = (*Local)(nil)

func (l *Local) path(p string) string {
	return filepath.Join(l.dir, filepath.FromSlash(p))
}

func (l *Local) Read(_ context.Context, p string) (io.ReadCloser, error) {
	return os.Open(l.path(p))
}

func (l *Local) Write(_ context.Context, p string) (io.WriteCloser, error) {
	full := l.path(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	return os.Create(full)
}

func (l *Local) Delete(_ context.Context, p string) error {
	err := os.Remove(l.path(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(l.path(p))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
