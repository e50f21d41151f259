package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/catalog"
	"github.com/sidhant-sriv/home-catalog/config"
	"github.com/sidhant-sriv/home-catalog/db"
	"github.com/sidhant-sriv/home-catalog/logger"
	"github.com/sidhant-sriv/home-catalog/middleware"
	"github.com/sidhant-sriv/home-catalog/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	h      *Handler
	router *gin.Engine
	clock  time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		DBDriver:                 "sqlite",
		SQLitePath:               filepath.Join(t.TempDir(), "routes.db"),
		JWTSecret:                "test-secret",
		SessionSecret:            "test-session-secret-test-session",
		AccessTokenTTL:           time.Hour,
		RefreshTokenTTL:          24 * time.Hour,
		InvitationExpirationDays: 7,
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if err := db.MakeMigration(conn); err != nil {
		t.Fatalf("MakeMigration: %v", err)
	}

	s := &testServer{t: t, clock: time.Now()}
	s.h = &Handler{
		DB:       conn,
		Log:      logger.Nop(),
		Config:   cfg,
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Sessions: middleware.NewSessionStore(cfg.SessionSecret, false),
		Now:      func() time.Time { return s.clock },
	}
	s.router, err = NewRouter(s.h)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return s
}

// user creates an account with password "secret1" and returns it with an
// access token.
func (s *testServer) user(username string, superuser bool) (*models.User, string) {
	s.t.Helper()
	hash, err := auth.HashPassword("secret1")
	if err != nil {
		s.t.Fatal(err)
	}
	u := &models.User{Username: username, Password: hash, IsSuperuser: superuser}
	if err := s.h.DB.Create(u).Error; err != nil {
		s.t.Fatalf("create user %s: %v", username, err)
	}
	access, _, err := s.h.Tokens.Generate(u.ID)
	if err != nil {
		s.t.Fatal(err)
	}
	return u, access
}

func (s *testServer) group(owner *models.User, name string) *models.CatalogGroup {
	s.t.Helper()
	g, err := catalog.CreateGroup(context.Background(), s.h.DB, owner, name)
	if err != nil {
		s.t.Fatalf("create group %s: %v", name, err)
	}
	return g
}

func (s *testServer) entry(owner *models.User, group *models.CatalogGroup, name string, toBuy bool, titles ...string) *models.CatalogEntry {
	s.t.Helper()
	e, err := catalog.CreateEntry(context.Background(), s.h.DB, owner, group,
		catalog.NewEntry{Name: name, ToBuy: toBuy, GroupTitles: titles}, s.clock)
	if err != nil {
		s.t.Fatalf("create entry %s: %v", name, err)
	}
	return e
}

// do sends a JSON request. body may be nil, a string or any value to marshal.
func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var csrfInput = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

// browser replays cookies between requests and posts forms with the CSRF
// token scraped from the login page.
type browser struct {
	s       *testServer
	cookies map[string]*http.Cookie
	token   string
}

func (s *testServer) browser() *browser {
	s.t.Helper()
	b := &browser{s: s, cookies: map[string]*http.Cookie{}}
	w := b.get("/catalog/login/")
	expectStatus(s.t, w, http.StatusOK)
	m := csrfInput.FindStringSubmatch(w.Body.String())
	if m == nil {
		s.t.Fatalf("login page has no csrf input: %s", w.Body.String())
	}
	b.token = html.UnescapeString(m[1])
	return b
}

func (b *browser) send(method, path string, values url.Values) *httptest.ResponseRecorder {
	b.s.t.Helper()
	var r io.Reader
	if values != nil {
		r = strings.NewReader(values.Encode())
	}
	req := httptest.NewRequest(method, path, r)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.s.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.send(http.MethodGet, path, nil)
}

// post submits values together with the page's CSRF token.
func (b *browser) post(path string, values url.Values) *httptest.ResponseRecorder {
	withToken := url.Values{}
	for k, v := range values {
		withToken[k] = v
	}
	withToken.Set(middleware.CSRFField, b.token)
	return b.send(http.MethodPost, path, withToken)
}

// login signs the browser in as username.
func (b *browser) login(username string) {
	b.s.t.Helper()
	w := b.post("/catalog/login/", url.Values{
		"username": {username},
		"password": {"secret1"},
		"next":     {"/catalog/"},
	})
	if w.Code != http.StatusFound {
		b.s.t.Fatalf("login %s: status %d, body %s", username, w.Code, w.Body.String())
	}
	if _, ok := b.cookies[middleware.SessionName]; !ok {
		b.s.t.Fatal("login set no session cookie")
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}
