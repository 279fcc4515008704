// Package storage implements the flat filesystem namespace for
// uploaded files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage errors
var (
	// ErrFileNotFound is returned when a stored file does not exist
	ErrFileNotFound = errors.New("file not found")
	// ErrUnsupportedExtension is returned for file types outside the allow-list
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

// LocalStorage stores files in a single flat directory keyed by their
// sanitized name. Uploads of the same name overwrite; last write wins.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a LocalStorage rooted at basePath, creating
// the directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Path returns the full path for a stored name. The name is reduced to
// its base component so a stored name can never escape the namespace.
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.basePath, filepath.Base(name))
}

// Create creates (or truncates) a file and returns a WriteCloser
func (s *LocalStorage) Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return f, nil
}

// Open opens a file for reading
func (s *LocalStorage) Open(name string) (io.ReadCloser, error) {
	return s.OpenFile(name)
}

// OpenFile opens a file and returns *os.File for use with http.ServeContent
func (s *LocalStorage) OpenFile(name string) (*os.File, error) {
	f, err := os.Open(s.Path(name))
	if os.IsNotExist(err) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Exists reports whether a stored file exists
func (s *LocalStorage) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes a file
func (s *LocalStorage) Delete(name string) error {
	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
