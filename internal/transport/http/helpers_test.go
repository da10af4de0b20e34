package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/auth"
	"github.com/vovakirdan/grams-server/internal/config"
	"github.com/vovakirdan/grams-server/internal/feed"
	"github.com/vovakirdan/grams-server/internal/grams"
	"github.com/vovakirdan/grams-server/internal/store"
	"github.com/vovakirdan/grams-server/internal/store/sqlite"
)

const testPassword = "password123"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	store   *sqlite.SQLiteStore
	auth    *auth.Service
	hub     *feed.Hub
	handler http.Handler
	server  *http.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig())
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.SessionSecret = "test-session-secret-0123456789ab"
	cfg.JWTSecret = "test-jwt-secret-0123456789abcdef"
	cfg.SignInRateLimit = 0
	return cfg
}

func newTestEnvWithConfig(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	st, err := sqlite.NewMemory()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	sessions := auth.NewSessions(auth.SessionConfig{
		Secret: []byte(cfg.SessionSecret),
		MaxAge: cfg.SessionMaxAge,
	})

	hub := feed.NewHub(cfg.FeedBuffer, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	gramService := grams.NewService(st, hub, &logger)
	server := NewServer(gramService, authService, sessions, hub, &cfg, &logger)
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	return &testEnv{
		store:   st,
		auth:    authService,
		hub:     hub,
		handler: server.Handler,
		server:  server,
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *store.User {
	t.Helper()

	user, err := e.auth.Register(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("failed to register %s: %v", email, err)
	}
	return user
}

func (e *testEnv) createGram(t *testing.T, owner *store.User, message string) *store.Gram {
	t.Helper()

	gram, err := e.store.CreateGram(context.Background(), owner.ID, message)
	if err != nil {
		t.Fatalf("failed to create gram: %v", err)
	}
	return gram
}

func (e *testEnv) gramCount(t *testing.T) int {
	t.Helper()

	list, err := e.store.ListGrams(context.Background())
	if err != nil {
		t.Fatalf("failed to list grams: %v", err)
	}
	return len(list)
}

// signIn posts the sign-in form and returns the session cookie.
func (e *testEnv) signIn(t *testing.T, email string) *http.Cookie {
	t.Helper()

	resp := e.do(t, formRequest(http.MethodPost, "/users/sign_in", url.Values{
		"email":    {email},
		"password": {testPassword},
	}))
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("sign in: expected 303, got %d: %s", resp.Code, resp.Body.String())
	}
	for _, c := range resp.Result().Cookies() {
		if c.Name == "grams_session" {
			return c
		}
	}
	t.Fatalf("sign in: no session cookie set")
	return nil
}

func (e *testEnv) token(t *testing.T, user *store.User) string {
	t.Helper()

	token, err := e.auth.IssueToken(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body, token string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func assertRedirect(t *testing.T, resp *httptest.ResponseRecorder, location string) {
	t.Helper()

	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}
