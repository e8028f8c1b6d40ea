package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/analyze", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_AllowsWithinLimit(t *testing.T) {
	handler := RateLimitMiddleware(5)(okHandler())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:4000"))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	handler := RateLimitMiddleware(3)(okHandler())

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:4000"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:4000"))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "rate limit exceeded") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestRateLimitMiddleware_KeysByHostNotPort(t *testing.T) {
	handler := RateLimitMiddleware(2)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:4000"))
	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:4001"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:4000"))
	if w.Code != http.StatusOK {
		t.Errorf("second client should not be rate-limited, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:4002"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("first client should be rate-limited across ports, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_ZeroDisables(t *testing.T) {
	handler := RateLimitMiddleware(0)(okHandler())

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:4000"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	called := false
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if !called {
		t.Error("inner handler was not called")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/test") {
		t.Errorf("log line missing fields: %q", buf.String())
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiter_DropsIdleClients(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		if !rl.allow(fmt.Sprintf("10.0.0.%d", i), start) {
			t.Fatalf("client %d: first request rejected", i)
		}
	}
	if len(rl.requests) != 50 {
		t.Fatalf("expected 50 tracked clients, got %d", len(rl.requests))
	}

	if !rl.allow("10.0.1.1", start.Add(2*time.Minute)) {
		t.Fatal("new client rejected")
	}
	if len(rl.requests) != 1 {
		t.Errorf("expected idle clients to be dropped, %d still tracked", len(rl.requests))
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if !rl.allow("a", start) {
		t.Fatal("first request rejected")
	}
	if rl.allow("a", start.Add(30*time.Second)) {
		t.Error("second request inside the window allowed")
	}
	if !rl.allow("a", start.Add(61*time.Second)) {
		t.Error("request after the window rejected")
	}
}
