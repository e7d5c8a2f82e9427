// Package local stores invoice files on the filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

// Store implements port.ObjectStorage under a root directory. Buckets map to
// subdirectories.
type Store struct {
	root string
}

// NewStore creates the root directory if needed.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local.NewStore: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("local.NewStore: %w", err)
	}
	return &Store{root: abs}, nil
}

// path resolves bucket/key under root and rejects keys that escape it.
func (s *Store) path(bucket, key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(bucket), filepath.FromSlash(key))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key %q escapes storage root", domain.ErrStorageFailed, key)
	}
	return p, nil
}

func (s *Store) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(input.Bucket, input.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, input.Body); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	return &port.UploadOutput{Location: "file://" + filepath.ToSlash(p)}, nil
}

func (s *Store) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	return data, nil
}

// Delete is idempotent: a missing file is not an error.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailed, err)
	}
	return nil
}
