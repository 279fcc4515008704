package handlers

import (
	"context"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/middleware"
	"github.com/gestureview/backend/internal/services"
	"github.com/gestureview/backend/internal/session"
	"github.com/gestureview/backend/internal/storage"
	"go.uber.org/zap"
)

// FileService is the interface that wraps file upload and display logic.
type FileService interface {
	// Method Save stores an upload under its sanitized name.
	//
	// Returns services.ErrNoFileSelected when no usable name remains and
	// storage.ErrUnsupportedExtension for types outside the allow-list.
	Save(ctx context.Context, rawName string, r io.Reader) (string, error)
	// Method Display resolves how a stored file should be rendered.
	//
	// Returns storage.ErrFileNotFound when the file does not exist.
	Display(ctx context.Context, name string) (*services.DisplayResult, error)
	// Method Open returns the stored file for raw retrieval.
	Open(name string) (*os.File, error)
}

// FileHandler handles upload, display and raw file requests
type FileHandler struct {
	BaseHandler
	fileService FileService
	sessions    session.Store
	maxMemory   int64
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService FileService, sessions session.Store, logger *zap.Logger, notices *flash.Store, templates *template.Template, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		BaseHandler: BaseHandler{Logger: logger, Notices: notices, Templates: templates},
		fileService: fileService,
		sessions:    sessions,
		maxMemory:   maxUploadSize,
	}
}

// RegisterRoutes registers the file routes behind the session guard
func (h *FileHandler) RegisterRoutes(r chi.Router, sessionGuard func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(sessionGuard)
		r.Post("/upload", h.Upload)
		r.Get("/display/{filename}", h.Display)
		r.Get("/uploads/{filename}", h.Raw)
	})
}

// Upload handles POST /upload. On success the caller is redirected to
// the display page for the stored name.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RedirectWithNotice(w, r, flash.Danger, "Upload failed: request too large or malformed", h.backTo(r, sess))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RedirectWithNotice(w, r, flash.Warning, "No file selected!", h.backTo(r, sess))
		return
	}
	defer file.Close()

	name, err := h.fileService.Save(r.Context(), header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoFileSelected), errors.Is(err, storage.ErrUnsupportedExtension):
			h.RedirectWithNotice(w, r, flash.Danger, "Invalid file type or no file selected!", h.backTo(r, sess))
		default:
			h.Logger.Error("failed to store upload", zap.Error(err))
			h.RedirectWithNotice(w, r, flash.Danger, "Failed to store file", h.backTo(r, sess))
		}
		return
	}

	h.RedirectWithNotice(w, r, flash.Success, "File uploaded successfully!", "/display/"+name)
}

// Display handles GET /display/{filename}
func (h *FileHandler) Display(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	name := chi.URLParam(r, "filename")

	result, err := h.fileService.Display(r.Context(), name)
	if errors.Is(err, storage.ErrFileNotFound) {
		h.RedirectWithNotice(w, r, flash.Danger, "File not found", dashboardPath(sess.Role))
		return
	}

	// The file exists: record its type as the session's active document
	// so gesture dispatch can resolve against it, display outcome aside.
	if terr := h.sessions.SetDocumentType(r.Context(), sess.Token, storage.Extension(name)); terr != nil {
		h.Logger.Warn("failed to record document type", zap.Error(terr))
	}

	if err != nil {
		h.Logger.Error("failed to display file", zap.String("filename", name), zap.Error(err))
		h.RedirectWithNotice(w, r, flash.Danger, "Error displaying file", dashboardPath(sess.Role))
		return
	}

	switch result.Kind {
	case services.DisplayText:
		h.Render(w, r, "display.html", map[string]any{
			"Filename":      result.Filename,
			"FileType":      "txt",
			"FileContent":   result.Content,
			"DashboardPath": dashboardPath(sess.Role),
		})
	case services.DisplayInline:
		h.Render(w, r, "display.html", map[string]any{
			"Filename":      result.Filename,
			"FileType":      result.Extension,
			"DashboardPath": dashboardPath(sess.Role),
		})
	case services.DisplayHostOpened:
		h.RedirectWithNotice(w, r, flash.Success, "File opened in default application", dashboardPath(sess.Role))
	default:
		h.serveFile(w, r, result.Filename)
	}
}

// Raw handles GET /uploads/{filename}
func (h *FileHandler) Raw(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, chi.URLParam(r, "filename"))
}

// serveFile streams a stored file to the client
func (h *FileHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	file, err := h.fileService.Open(name)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.Logger.Error("failed to open stored file", zap.String("filename", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.Logger.Error("failed to stat stored file", zap.String("filename", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, name, info.ModTime(), file)
}

// backTo redirects uploads back to where they came from, falling back
// to the caller's dashboard.
func (h *FileHandler) backTo(r *http.Request, sess *session.Session) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return dashboardPath(sess.Role)
}
