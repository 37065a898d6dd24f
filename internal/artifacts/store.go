// Package artifacts stores and retrieves exported submission artifacts,
// either on the local filesystem or in an S3-compatible bucket.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/filex"
)

var ErrInvalidLocation = errors.New("invalid artifact location")

// Store persists an artifact under name and returns where it ended up.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
}

// Name builds a sortable artifact file name.
func Name(now time.Time, submissionID string) string {
	return fmt.Sprintf("views-%s-%s.txt", now.UTC().Format("20060102T150405Z"), submissionID)
}

// FileStore keeps artifacts in a local directory.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (f *FileStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocation, name)
	}
	dir, err := filex.EnsureDir(f.Dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Get reads a path; relative paths resolve against Dir first, then the
// working directory.
func (f *FileStore) Get(ctx context.Context, location string) ([]byte, error) {
	if !filepath.IsAbs(location) && f.Dir != "" {
		if b, err := os.ReadFile(filepath.Join(f.Dir, location)); err == nil {
			return b, nil
		}
	}
	return os.ReadFile(location)
}

// Open reads an artifact from a local path or an s3://bucket/key URL.
func Open(ctx context.Context, location string, s3cfg S3Config) ([]byte, error) {
	if strings.HasPrefix(location, s3Scheme) {
		st, err := NewS3Store(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return st.Get(ctx, location)
	}
	return NewFileStore("").Get(ctx, location)
}
