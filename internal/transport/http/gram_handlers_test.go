package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/vovakirdan/grams-server/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.Code, resp.Body.String())
	}
}

func TestMetricsEndpointExposesGramActions(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", resp.Code)
	}

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `grams_actions_total{action="index",outcome="ok"}`) {
		t.Fatalf("expected index action counter in metrics output:\n%s", body)
	}
}

func TestMetricsEndpointDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	env := newTestEnvWithConfig(t, cfg)

	if resp := env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil)); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with metrics disabled, got %d", resp.Code)
	}
}

func TestAnonymousIsRedirectedToSignIn(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "Hello!")

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"new", httptest.NewRequest(http.MethodGet, "/grams/new", nil)},
		{"create", formRequest(http.MethodPost, "/grams", url.Values{"message": {"Hello!"}})},
		{"edit", httptest.NewRequest(http.MethodGet, "/grams/"+gram.ID+"/edit", nil)},
		{"update", formRequest(http.MethodPatch, "/grams/"+gram.ID, url.Values{"message": {"Changed"}})},
		{"destroy", httptest.NewRequest(http.MethodDelete, "/grams/"+gram.ID, nil)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertRedirect(t, env.do(t, tc.req), signInPath)
		})
	}

	reloaded, err := env.store.GetGram(context.Background(), gram.ID)
	if err != nil {
		t.Fatalf("gram should survive anonymous requests: %v", err)
	}
	if reloaded.Message != "Hello!" {
		t.Fatalf("gram should be unchanged, got %q", reloaded.Message)
	}
	if env.gramCount(t) != 1 {
		t.Fatalf("expected exactly one gram, got %d", env.gramCount(t))
	}
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	env.createGram(t, owner, "Keep me")
	cookie := env.signIn(t, owner.Email)

	cases := []struct {
		name   string
		req    *http.Request
		cookie *http.Cookie
	}{
		{"show anonymous", httptest.NewRequest(http.MethodGet, "/grams/TACOCAT", nil), nil},
		{"show signed in", httptest.NewRequest(http.MethodGet, "/grams/TACOCAT", nil), cookie},
		{"edit", httptest.NewRequest(http.MethodGet, "/grams/SWAGOWSKI/edit", nil), cookie},
		{"update", formRequest(http.MethodPatch, "/grams/YOLOSWAG", url.Values{"message": {"Changed"}}), cookie},
		{"update blank", formRequest(http.MethodPatch, "/grams/YOLOSWAG", url.Values{"message": {""}}), cookie},
		{"destroy", httptest.NewRequest(http.MethodDelete, "/grams/GIBBERISH", nil), cookie},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.cookie != nil {
				cookies = append(cookies, tc.cookie)
			}
			resp := env.do(t, tc.req, cookies...)
			if resp.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", resp.Code)
			}
		})
	}

	if env.gramCount(t) != 1 {
		t.Fatalf("store should be unchanged, got %d grams", env.gramCount(t))
	}
}

func TestIndexListsGrams(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	env.createGram(t, owner, "first gram")
	env.createGram(t, owner, "second gram")

	for _, path := range []string{"/", "/grams"} {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		body := resp.Body.String()
		if !strings.Contains(body, "first gram") || !strings.Contains(body, "second gram") {
			t.Fatalf("%s: expected both grams in body", path)
		}
		if !strings.Contains(body, "Sign in") {
			t.Fatalf("%s: expected sign-in link for anonymous viewer", path)
		}
	}
}

func TestShowRendersGram(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "<b>escaped</b>")

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/grams/"+gram.ID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "&lt;b&gt;escaped&lt;/b&gt;") {
		t.Fatalf("expected escaped message in body: %s", resp.Body.String())
	}
}

func TestNewRendersFormForSignedInUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "writer@example.com")
	cookie := env.signIn(t, user.Email)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/grams/new", nil), cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `name="message"`) {
		t.Fatalf("expected message field in form")
	}
}

func TestCreateGram(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "writer@example.com")
	cookie := env.signIn(t, user.Email)

	resp := env.do(t, formRequest(http.MethodPost, "/grams", url.Values{"message": {"Hello!"}}), cookie)
	assertRedirect(t, resp, rootPath)

	list, err := env.store.ListGrams(context.Background())
	if err != nil {
		t.Fatalf("list grams: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one gram, got %d", len(list))
	}
	if list[0].Message != "Hello!" || list[0].UserID != user.ID {
		t.Fatalf("unexpected gram: %+v", list[0])
	}
}

func TestCreateBlankGramIsRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "writer@example.com")
	cookie := env.signIn(t, user.Email)

	for _, msg := range []string{"", "   "} {
		resp := env.do(t, formRequest(http.MethodPost, "/grams", url.Values{"message": {msg}}), cookie)
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("message %q: expected 422, got %d", msg, resp.Code)
		}
		if resp.Header().Get("Location") != "" {
			t.Fatalf("message %q: unexpected redirect", msg)
		}
		if !strings.Contains(resp.Body.String(), "message can&#39;t be blank") {
			t.Fatalf("message %q: expected error in re-rendered form: %s", msg, resp.Body.String())
		}
	}

	if env.gramCount(t) != 0 {
		t.Fatalf("expected no grams, got %d", env.gramCount(t))
	}
}

func TestEditPrefillsMessage(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "Initial Value")
	cookie := env.signIn(t, owner.Email)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/grams/"+gram.ID+"/edit", nil), cookie)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), ">Initial Value</textarea>") {
		t.Fatalf("expected pre-filled message: %s", resp.Body.String())
	}
}

func TestUpdateGramViaMethodOverride(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "Initial Value")
	cookie := env.signIn(t, owner.Email)

	resp := env.do(t, formRequest(http.MethodPost, "/grams/"+gram.ID, url.Values{
		"_method": {"PATCH"},
		"message": {"Changed"},
	}), cookie)
	assertRedirect(t, resp, rootPath)

	reloaded, err := env.store.GetGram(context.Background(), gram.ID)
	if err != nil {
		t.Fatalf("get gram: %v", err)
	}
	if reloaded.Message != "Changed" || reloaded.ID != gram.ID {
		t.Fatalf("unexpected gram after update: %+v", reloaded)
	}
}

func TestUpdateByAnotherUserIsAllowed(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	gram := env.createGram(t, owner, "Initial Value")
	cookie := env.signIn(t, other.Email)

	resp := env.do(t, formRequest(http.MethodPut, "/grams/"+gram.ID, url.Values{"message": {"Changed"}}), cookie)
	assertRedirect(t, resp, rootPath)

	reloaded, err := env.store.GetGram(context.Background(), gram.ID)
	if err != nil {
		t.Fatalf("get gram: %v", err)
	}
	if reloaded.Message != "Changed" || reloaded.UserID != owner.ID {
		t.Fatalf("expected message changed and owner kept, got %+v", reloaded)
	}
}

func TestUpdateBlankKeepsOriginal(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "Initial Value")
	cookie := env.signIn(t, owner.Email)

	resp := env.do(t, formRequest(http.MethodPatch, "/grams/"+gram.ID, url.Values{"message": {""}}), cookie)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}

	reloaded, err := env.store.GetGram(context.Background(), gram.ID)
	if err != nil {
		t.Fatalf("get gram: %v", err)
	}
	if reloaded.Message != "Initial Value" {
		t.Fatalf("expected original message, got %q", reloaded.Message)
	}
}

func TestDestroyGram(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "Bye")
	cookie := env.signIn(t, owner.Email)

	resp := env.do(t, formRequest(http.MethodPost, "/grams/"+gram.ID, url.Values{"_method": {"DELETE"}}), cookie)
	assertRedirect(t, resp, rootPath)

	if _, err := env.store.GetGram(context.Background(), gram.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected gram to be gone, got %v", err)
	}

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/grams/"+gram.ID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after destroy, got %d", resp.Code)
	}
}

func TestMethodOverrideIgnoresUnknownMethods(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner@example.com")
	gram := env.createGram(t, owner, "Stay")
	cookie := env.signIn(t, owner.Email)

	resp := env.do(t, formRequest(http.MethodPost, "/grams/"+gram.ID, url.Values{"_method": {"TRACE"}}), cookie)
	if resp.Code == http.StatusSeeOther {
		t.Fatalf("unexpected redirect for unsupported override")
	}
	if env.gramCount(t) != 1 {
		t.Fatalf("gram should survive, got %d grams", env.gramCount(t))
	}
}
