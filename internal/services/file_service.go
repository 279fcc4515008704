package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gestureview/backend/internal/opener"
	"github.com/gestureview/backend/internal/storage"
	"go.uber.org/zap"
)

// ErrNoFileSelected is returned when an upload carries no usable filename
var ErrNoFileSelected = errors.New("no file selected")

// DisplayKind tells the caller how to render a stored file
type DisplayKind int

// Display kinds
const (
	// DisplayText renders the full text content inline
	DisplayText DisplayKind = iota
	// DisplayInline instructs the client to embed the file (pdf, images)
	DisplayInline
	// DisplayHostOpened means the file was opened in a desktop
	// application on the server host; nothing is rendered remotely
	DisplayHostOpened
	// DisplayRaw serves the file bytes directly
	DisplayRaw
)

// DisplayResult is the rendering instruction produced by Display
type DisplayResult struct {
	Filename  string
	Extension string
	Kind      DisplayKind
	Content   string // set for DisplayText
}

// Storage is the interface the file service needs from the upload namespace
type Storage interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadCloser, error)
	OpenFile(name string) (*os.File, error)
	Exists(name string) bool
	Path(name string) string
}

// officeExtensions are opened on the server host instead of being
// served to the remote client. Same-machine deployment behavior.
var officeExtensions = map[string]bool{
	"doc":  true,
	"docx": true,
	"ppt":  true,
	"pptx": true,
}

// inlineExtensions are embedded by the browser-side viewer
var inlineExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// fileService implements upload, display and raw retrieval
type fileService struct {
	storage Storage
	opener  opener.Opener
	logger  *zap.Logger
}

// NewFileService creates a new file service
func NewFileService(st Storage, op opener.Opener, logger *zap.Logger) *fileService {
	return &fileService{
		storage: st,
		opener:  op,
		logger:  logger,
	}
}

// Save sanitizes the raw filename, validates its extension and writes
// the content into the namespace. An existing file of the same sanitized
// name is overwritten; last write wins.
func (s *fileService) Save(ctx context.Context, rawName string, r io.Reader) (string, error) {
	if rawName == "" {
		return "", ErrNoFileSelected
	}

	name := storage.SanitizeFilename(rawName)
	if name == "" {
		return "", ErrNoFileSelected
	}
	if !storage.AllowedExtension(name) {
		return "", storage.ErrUnsupportedExtension
	}

	w, err := s.storage.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	defer w.Close()

	if _, err := io.Copy(w, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Info("file uploaded", zap.String("filename", name))
	return name, nil
}

// Display resolves how a stored file should be rendered. Text files are
// read in full; pdf and images become inline viewer instructions; office
// documents are opened in a desktop application on the server host; any
// other stored type is served raw.
func (s *fileService) Display(ctx context.Context, name string) (*DisplayResult, error) {
	if !s.storage.Exists(name) {
		return nil, storage.ErrFileNotFound
	}

	ext := storage.Extension(name)
	result := &DisplayResult{Filename: name, Extension: ext}

	switch {
	case ext == "txt":
		rc, err := s.storage.Open(name)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		result.Kind = DisplayText
		result.Content = string(content)

	case inlineExtensions[ext]:
		result.Kind = DisplayInline

	case officeExtensions[ext]:
		if err := s.opener.Open(ctx, s.storage.Path(name)); err != nil {
			return nil, err
		}
		result.Kind = DisplayHostOpened

	default:
		result.Kind = DisplayRaw
	}

	return result, nil
}

// Open returns the stored file for raw retrieval
func (s *fileService) Open(name string) (*os.File, error) {
	return s.storage.OpenFile(name)
}
