package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes objects under a directory served statically (development).
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (l *LocalStorage) Put(_ context.Context, obj Object) error {
	path, err := l.resolve(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrObjectExists, obj.Key)
		}
		return fmt.Errorf("open object %s: %w", obj.Key, err)
	}
	if _, err := f.Write(obj.Body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write object %s: %w", obj.Key, err)
	}
	return f.Close()
}

func (l *LocalStorage) PublicURL(key string) string {
	return l.baseURL + "/" + key
}

func (l *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.dir, clean), nil
}
