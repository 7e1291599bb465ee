package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func setupTestGin() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

func request(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	router := setupTestGin()
	router.Use(RateLimiter(1, 1))
	router.POST("/test", ok)

	if w := request(router, "127.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("expected first request to succeed, got %d", w.Code)
	}
	if w := request(router, "127.0.0.1"); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected second request to be limited, got %d", w.Code)
	}
	if w := request(router, "192.168.1.1"); w.Code != http.StatusOK {
		t.Errorf("expected other IP to succeed, got %d", w.Code)
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestLoginLimiter(t *testing.T) {
	rdb, _ := setupTestRedis(t)

	now := time.Unix(1_700_000_000, 0)
	limiter := NewLoginLimiter(rdb, 3, time.Minute)
	limiter.now = func() time.Time { return now }

	router := setupTestGin()
	router.POST("/test", limiter.Middleware("login"), ok)

	for i := 0; i < 3; i++ {
		if w := request(router, "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, w.Code)
		}
		now = now.Add(time.Second)
	}

	w := request(router, "10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "3" {
		t.Errorf("expected limit header 3, got %q", w.Header().Get("X-RateLimit-Limit"))
	}

	if w := request(router, "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other IP should not be limited, got %d", w.Code)
	}

	now = now.Add(2 * time.Minute)
	if w := request(router, "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("expected window to slide, got %d", w.Code)
	}
}

func TestLoginLimiterFailsOpen(t *testing.T) {
	rdb, mr := setupTestRedis(t)
	mr.Close()

	router := setupTestGin()
	router.POST("/test", NewLoginLimiter(rdb, 1, time.Minute).Middleware("login"), ok)

	for i := 0; i < 3; i++ {
		if w := request(router, "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("expected requests through while redis is down, got %d", w.Code)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	router := setupTestGin()
	router.Use(RequestLogger(logger))
	router.POST("/test", ok)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id echoed, got %q", got)
	}
	line := buf.String()
	for _, want := range []string{"request_id=abc-123", "method=POST", "path=/test", "status=200"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}

	w = request(router, "127.0.0.1")
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	router := setupTestGin()
	router.Use(Recovery(logger))
	router.POST("/test", func(c *gin.Context) {
		panic("boom")
	})

	w := request(router, "127.0.0.1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Body.String() != `{"message":"internal error"}` {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic=boom") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}
