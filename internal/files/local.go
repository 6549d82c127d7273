package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type LocalStore struct {
	base string
}

func NewLocalStore(base string) (*LocalStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("files: create base dir: %w", err)
	}
	return &LocalStore{base: base}, nil
}

func (s *LocalStore) path(namespace, name string) string {
	return filepath.Join(s.base, SanitizeFilename(namespace), SanitizeFilename(name))
}

func (s *LocalStore) Save(ctx context.Context, namespace, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.path(namespace, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("files: create namespace: %w", err)
	}
	// write then rename so readers never see a partial file
	tmp := p + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("files: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("files: rename %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, namespace, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(namespace, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("files: read %s: %w", name, err)
	}
	return b, nil
}
