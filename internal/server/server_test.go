package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/config"
	"github.com/jimdaga/pomodo/internal/streams"
	"github.com/jimdaga/pomodo/internal/testutil"
	"github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:             "test",
		JWTSecret:       "jwt-test-secret",
		SessionSecret:   "session-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		CORSOrigins:     []string{"http://localhost:5173"},
		RateLimitPerMin: 6000,
		RateLimitBurst:  100,
		LoginRateLimit:  100,
	}
}

type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func TestEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r, err := NewRouter(Deps{
		Config: testConfig(),
		DB:     testutil.NewDB(t),
		Redis:  rdb,
		Events: streams.NewPublisher(rdb),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	c := &client{t: t, h: r, cookies: map[string]*http.Cookie{}}

	if w := c.do(http.MethodGet, "/api/tasks", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", w.Code)
	}

	w := c.do(http.MethodPost, "/api/auth/register", `{"username":"alice","password":"secret1","passwordConfirmation":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	w = c.do(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"secret1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	w = c.do(http.MethodPost, "/api/tasks", `{"title":"Learn Vue","estimated":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", w.Code, w.Body.String())
	}
	var task struct {
		ID uint `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &task)
	taskPath := fmt.Sprintf("/api/tasks/%d", task.ID)

	w = c.do(http.MethodPatch, taskPath, `{"obj":"tag","action":"add","tag_name":"Vue"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("attach tag: %d %s", w.Code, w.Body.String())
	}
	w = c.do(http.MethodPatch, taskPath, `{"obj":"task","action":"done"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle done: %d %s", w.Code, w.Body.String())
	}

	w = c.do(http.MethodGet, "/api/tagInfo/Vue", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Learn Vue"`) {
		t.Errorf("tagInfo: %d %s", w.Code, w.Body.String())
	}

	w = c.do(http.MethodGet, "/api/tasks", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Errorf("list: %d %s", w.Code, w.Body.String())
	}

	if w := c.do(http.MethodPost, "/api/stats", `{"day":"2022-11-11"}`); w.Code != http.StatusCreated {
		t.Errorf("stats: %d %s", w.Code, w.Body.String())
	}

	if w := c.do(http.MethodGet, "/api/me", ""); !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("me: %s", w.Body.String())
	}

	events, err := rdb.XLen(context.Background(), streams.StreamActivity).Result()
	if err != nil {
		t.Fatal(err)
	}
	if events != 1 {
		t.Errorf("expected one task.done event, got %d", events)
	}

	if w := c.do(http.MethodPost, "/api/auth/logout", ""); w.Code != http.StatusOK {
		t.Errorf("logout: %d", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	r, err := NewRouter(Deps{
		Config: testConfig(),
		DB:     testutil.NewDB(t),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string]string{
		"/health": `{"status":"ok"}`,
		"/ready":  `{"ready":true}`,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Errorf("%s: got %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r, err := NewRouter(Deps{
		Config: testConfig(),
		DB:     testutil.NewDB(t),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected allow origin %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials allowed")
	}
}

func TestRequestIDOnEveryResponse(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRouter(Deps{
		Config: testConfig(),
		DB:     testutil.NewDB(t),
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	id := w.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatal("missing X-Request-ID")
	}
	if !strings.Contains(buf.String(), id) {
		t.Errorf("access log does not carry request id: %s", buf.String())
	}
}
