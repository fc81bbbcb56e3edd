package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/auth"
	"beacon/internal/config"
	"beacon/internal/constants"
	"beacon/internal/retention"
	"beacon/internal/security"
	"beacon/internal/session"
	"beacon/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	authFile := filepath.Join(dir, "auth")
	require.NoError(t, auth.CreateFile(authFile, "admin", "hunter2"))

	creds, err := auth.Load(authFile)
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "database.json"), true)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	tm, err := NewTemplateManager()
	require.NoError(t, err)

	bf := security.NewBruteForceProtector(constants.MaxAuthAttempts, constants.BlockDuration)
	t.Cleanup(bf.Close)

	return &Server{
		Cfg:            cfg,
		Creds:          creds,
		Sessions:       session.NewRegistry(session.NewMemoryStore()),
		Store:          st,
		Sweeper:        retention.New(st, cfg.PurgeInterval, cfg.RetentionWindow()),
		Templates:      tm,
		Feed:           NewFeed(),
		ConnLimiter:    security.NewConnectionLimiter(constants.MaxFeedClientsPerIP),
		BruteProtector: bf,
	}
}

func login(t *testing.T, s *Server) *http.Cookie {
	t.Helper()

	form := url.Values{"username": {"admin"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, constants.EndpointAuth, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	for _, c := range cookies {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestHandleAuth_WrongCredentials(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, constants.EndpointAuth, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandleAuth_SuccessSetsCookieAndRedirects(t *testing.T) {
	s := newTestServer(t)

	cookie := login(t, s)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, s.Sessions.IsValid(cookie.Value))
}

func TestHandleAuth_GetNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, constants.EndpointAuth, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAuth_BruteForceLockout(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	for i := 0; i < constants.MaxAuthAttempts; i++ {
		req := httptest.NewRequest(http.MethodPost, constants.EndpointAuth, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Even correct credentials are rejected once the IP is blocked.
	good := url.Values{"username": {"admin"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, constants.EndpointAuth, strings.NewReader(good.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandleAnalytics_UnauthenticatedRedirectsToLogin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, constants.EndpointLogin, rec.Header().Get("Location"))
}

func TestHandleAnalytics_AuthenticatedRendersReport(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s)

	_, err := s.Store.RecordVisit("2024/03/15/go-generics", "10.0.0.9", "curl/8.0", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024/03/15/go-generics")
}

func TestHandleAnalytics_UnknownPathNotFound(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleLogout_RevokesSession(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s)

	req := httptest.NewRequest(http.MethodGet, constants.EndpointLogout, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, constants.EndpointLogin, rec.Header().Get("Location"))
	assert.False(t, s.Sessions.IsValid(cookie.Value))
}

func TestHandleVisit_RecordsVisit(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost,
		"/api/posts/2024/03/15/go-generics/visits?referrer=https%3A%2F%2Fnews.ycombinator.com%2F", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	s.Store.View(func(posts map[string]*store.Post) {
		post, ok := posts["2024/03/15/go-generics"]
		require.True(t, ok)
		require.Len(t, post.Visits, 1)
		assert.Equal(t, "https://news.ycombinator.com/", post.Visits[0].Referrer)
	})
}

func TestHandleVisit_InvalidPostID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/not-a-post/visits", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVisit_GetNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/2024/03/15/go-generics/visits", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleVisit_MissingVisitsSuffix(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/2024/03/15/go-generics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogin_AuthenticatedRedirectsHome(t *testing.T) {
	s := newTestServer(t)
	cookie := login(t, s)

	req := httptest.NewRequest(http.MethodGet, constants.EndpointLogin, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, s.Cfg.RootURLPath, rec.Header().Get("Location"))
}
