package handlers

import (
	"context"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestureview/backend/internal/flash"
	"github.com/gestureview/backend/internal/gesture"
	"github.com/gestureview/backend/internal/middleware"
	"github.com/gestureview/backend/internal/models"
	"github.com/gestureview/backend/internal/repositories"
	"github.com/gestureview/backend/internal/services"
	"github.com/gestureview/backend/internal/session"
	"github.com/gestureview/backend/internal/storage"
)

// fakeAuthService scripts login and register outcomes
type fakeAuthService struct {
	loginSession *session.Session
	loginErr     error
	registerErr  error
	loggedOut    []string
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (*session.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginSession, nil
}

func (f *fakeAuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: 1, Username: username, Role: models.RoleUser}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

// fakeFileService scripts save and display outcomes
type fakeFileService struct {
	saveName   string
	saveErr    error
	display    *services.DisplayResult
	displayErr error
	openFile   *os.File
	openErr    error
}

func (f *fakeFileService) Save(ctx context.Context, rawName string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return f.saveName, nil
}

func (f *fakeFileService) Display(ctx context.Context, name string) (*services.DisplayResult, error) {
	if f.displayErr != nil {
		return nil, f.displayErr
	}
	return f.display, nil
}

func (f *fakeFileService) Open(name string) (*os.File, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.openFile, nil
}

// fakeDispatcher scripts gesture outcomes
type fakeDispatcher struct {
	err        error
	dispatched []string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, documentType, gestureName string) error {
	f.dispatched = append(f.dispatched, documentType+":"+gestureName)
	return f.err
}

// testEnv wires handlers, guards and a session store behind a router
type testEnv struct {
	router    chi.Router
	store     *session.MemoryStore
	templates *template.Template
	notices   *flash.Store
}

func newTestEnv(t *testing.T, auth *fakeAuthService, files *fakeFileService, dispatcher *fakeDispatcher) *testEnv {
	t.Helper()

	store := session.NewMemoryStore(30 * time.Minute)
	t.Cleanup(store.Close)

	notices := flash.NewStore([]byte("test-secret"))
	templates, err := ParseTemplates()
	require.NoError(t, err)

	logger := zap.NewNop()
	r := chi.NewRouter()

	NewAuthHandler(auth, logger, notices, templates).RegisterRoutes(r)
	NewDashboardHandler(logger, notices, templates).RegisterRoutes(r,
		middleware.RequireRole(store, notices, logger, models.RoleAdmin),
		middleware.RequireRole(store, notices, logger, models.RoleUser),
	)
	NewFileHandler(files, store, logger, notices, templates, 16<<20).
		RegisterRoutes(r, middleware.RequireSession(store, notices, logger))
	NewGestureHandler(dispatcher, logger).
		RegisterRoutes(r, middleware.LoadSession(store, logger))

	return &testEnv{router: r, store: store, templates: templates, notices: notices}
}

func (e *testEnv) login(t *testing.T, role models.Role, documentType string) *http.Cookie {
	t.Helper()
	token, err := session.GenerateToken()
	require.NoError(t, err)
	require.NoError(t, e.store.Create(context.Background(), session.Session{
		Token:        token,
		Username:     "alice",
		Role:         role,
		DocumentType: documentType,
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}))
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success sets cookie and redirects by role", func(t *testing.T) {
		tests := []struct {
			role models.Role
			want string
		}{
			{role: models.RoleUser, want: "/user_dashboard"},
			{role: models.RoleAdmin, want: "/admin_dashboard"},
		}
		for _, tt := range tests {
			auth := &fakeAuthService{loginSession: &session.Session{
				Token:     "tok-123",
				Username:  "alice",
				Role:      tt.role,
				ExpiresAt: time.Now().Add(30 * time.Minute),
			}}
			env := newTestEnv(t, auth, &fakeFileService{}, &fakeDispatcher{})

			form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := env.do(req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))

			var sessionCookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == session.CookieName {
					sessionCookie = c
				}
			}
			require.NotNil(t, sessionCookie)
			assert.Equal(t, "tok-123", sessionCookie.Value)
			assert.True(t, sessionCookie.HttpOnly)
		}
	})

	t.Run("bad credentials redirect back to login", func(t *testing.T) {
		auth := &fakeAuthService{loginErr: services.ErrInvalidCredentials}
		env := newTestEnv(t, auth, &fakeFileService{}, &fakeDispatcher{})

		form := url.Values{"username": {"alice"}, "password": {"wrong"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("root redirects to login", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("login page renders", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Login")
	})
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("success redirects to login", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		form := url.Values{"username": {"bob"}, "password": {"hunter2"}}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("duplicate username stays on register", func(t *testing.T) {
		auth := &fakeAuthService{registerErr: repositories.ErrDuplicateUsername}
		env := newTestEnv(t, auth, &fakeFileService{}, &fakeDispatcher{})

		form := url.Values{"username": {"bob"}, "password": {"hunter2"}}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/register", rec.Header().Get("Location"))
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	auth := &fakeAuthService{}
	env := newTestEnv(t, auth, &fakeFileService{}, &fakeDispatcher{})
	cookie := env.login(t, models.RoleUser, "")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec := env.do(req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, []string{cookie.Value}, auth.loggedOut)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie should be cleared")
}

func TestDashboardHandler(t *testing.T) {
	env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

	t.Run("user dashboard for user role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/user_dashboard", nil)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alice")
	})

	t.Run("admin dashboard forbidden for user role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin_dashboard", nil)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous request redirects to login", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/user_dashboard", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

// multipartUpload builds a multipart request body with a single file field
func multipartUpload(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return strings.NewReader(buf.String()), mw.FormDataContentType()
}

func TestFileHandler_Upload(t *testing.T) {
	t.Run("success redirects to display page", func(t *testing.T) {
		files := &fakeFileService{saveName: "notes.txt"}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})

		body, contentType := multipartUpload(t, "notes.txt", "hello")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/display/notes.txt", rec.Header().Get("Location"))
	})

	t.Run("disallowed extension redirects back", func(t *testing.T) {
		files := &fakeFileService{saveErr: storage.ErrUnsupportedExtension}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})

		body, contentType := multipartUpload(t, "payload.exe", "MZ")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/user_dashboard", rec.Header().Get("Location"))
	})

	t.Run("missing file field redirects back", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		var buf strings.Builder
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("other", "value"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(buf.String()))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(env.login(t, models.RoleAdmin, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin_dashboard", rec.Header().Get("Location"))
	})

	t.Run("unauthenticated upload redirects to login", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		body, contentType := multipartUpload(t, "notes.txt", "hello")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestFileHandler_Display(t *testing.T) {
	t.Run("text file renders content and records document type", func(t *testing.T) {
		files := &fakeFileService{display: &services.DisplayResult{
			Filename:  "notes.txt",
			Extension: "txt",
			Kind:      services.DisplayText,
			Content:   "hello gestures",
		}}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})
		cookie := env.login(t, models.RoleUser, "")

		req := httptest.NewRequest(http.MethodGet, "/display/notes.txt", nil)
		req.AddCookie(cookie)
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "hello gestures")

		stored, err := env.store.Get(context.Background(), cookie.Value)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "txt", stored.DocumentType)
	})

	t.Run("pdf renders inline viewer", func(t *testing.T) {
		files := &fakeFileService{display: &services.DisplayResult{
			Filename:  "paper.pdf",
			Extension: "pdf",
			Kind:      services.DisplayInline,
		}}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})
		cookie := env.login(t, models.RoleUser, "")

		req := httptest.NewRequest(http.MethodGet, "/display/paper.pdf", nil)
		req.AddCookie(cookie)
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/uploads/paper.pdf")

		stored, err := env.store.Get(context.Background(), cookie.Value)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "pdf", stored.DocumentType)
	})

	t.Run("office document redirects to dashboard after host open", func(t *testing.T) {
		files := &fakeFileService{display: &services.DisplayResult{
			Filename:  "deck.pptx",
			Extension: "pptx",
			Kind:      services.DisplayHostOpened,
		}}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})
		cookie := env.login(t, models.RoleAdmin, "")

		req := httptest.NewRequest(http.MethodGet, "/display/deck.pptx", nil)
		req.AddCookie(cookie)
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin_dashboard", rec.Header().Get("Location"))

		stored, err := env.store.Get(context.Background(), cookie.Value)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "pptx", stored.DocumentType)
	})

	t.Run("missing file redirects to dashboard without recording type", func(t *testing.T) {
		files := &fakeFileService{displayErr: storage.ErrFileNotFound}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})
		cookie := env.login(t, models.RoleUser, "")

		req := httptest.NewRequest(http.MethodGet, "/display/ghost.pdf", nil)
		req.AddCookie(cookie)
		rec := env.do(req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/user_dashboard", rec.Header().Get("Location"))

		stored, err := env.store.Get(context.Background(), cookie.Value)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Empty(t, stored.DocumentType)
	})
}

func TestFileHandler_Raw(t *testing.T) {
	t.Run("serves stored file", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "notes-*.txt")
		require.NoError(t, err)
		_, err = f.WriteString("raw content")
		require.NoError(t, err)
		_, err = f.Seek(0, io.SeekStart)
		require.NoError(t, err)

		files := &fakeFileService{openFile: f}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})

		req := httptest.NewRequest(http.MethodGet, "/uploads/notes.txt", nil)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "raw content", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("missing file is 404", func(t *testing.T) {
		files := &fakeFileService{openErr: storage.ErrFileNotFound}
		env := newTestEnv(t, &fakeAuthService{}, files, &fakeDispatcher{})

		req := httptest.NewRequest(http.MethodGet, "/uploads/ghost.txt", nil)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGestureHandler_Dispatch(t *testing.T) {
	post := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/gesture_action", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("success", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, dispatcher)

		req := post(`{"gesture":"zoom_in"}`)
		req.AddCookie(env.login(t, models.RoleUser, "pdf"))
		rec := env.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"success","gesture":"zoom_in"}`, rec.Body.String())
		assert.Equal(t, []string{"pdf:zoom_in"}, dispatcher.dispatched)
	})

	t.Run("malformed JSON is 400", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		req := post(`{not json`)
		req.AddCookie(env.login(t, models.RoleUser, "pdf"))
		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"status":"error","message":"Invalid request"}`, rec.Body.String())
	})

	t.Run("missing gesture is 400", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		req := post(`{}`)
		req.AddCookie(env.login(t, models.RoleUser, "pdf"))
		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no active document is 400", func(t *testing.T) {
		dispatcher := &fakeDispatcher{}
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, dispatcher)

		req := post(`{"gesture":"zoom_in"}`)
		req.AddCookie(env.login(t, models.RoleUser, ""))
		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, dispatcher.dispatched)
	})

	t.Run("anonymous caller is 400", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, &fakeDispatcher{})

		rec := env.do(post(`{"gesture":"zoom_in"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported gesture is 400", func(t *testing.T) {
		dispatcher := &fakeDispatcher{err: gesture.ErrUnsupportedGesture}
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, dispatcher)

		req := post(`{"gesture":"scroll_up"}`)
		req.AddCookie(env.login(t, models.RoleUser, "ppt"))
		rec := env.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"status":"error","message":"Gesture not supported for this file type"}`, rec.Body.String())
	})

	t.Run("injector failure is 500", func(t *testing.T) {
		dispatcher := &fakeDispatcher{err: context.DeadlineExceeded}
		env := newTestEnv(t, &fakeAuthService{}, &fakeFileService{}, dispatcher)

		req := post(`{"gesture":"zoom_in"}`)
		req.AddCookie(env.login(t, models.RoleUser, "pdf"))
		rec := env.do(req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "error")
	})
}
