package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"authcallback/internal/auth"
	"authcallback/internal/auth/middleware"
	"authcallback/internal/domain"
)

type fakeLimiter struct {
	result auth.RateLimitResult
	keys   []string
}

func (f *fakeLimiter) Allow(key string) auth.RateLimitResult {
	f.keys = append(f.keys, key)
	return f.result
}

func TestRateLimitAllowed(t *testing.T) {
	limiter := &fakeLimiter{result: auth.RateLimitResult{Allowed: true}}
	called := false

	handler := middleware.RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.RemoteAddr = "10.0.0.7:4242"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("allowed request should reach the handler")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "10.0.0.7" {
		t.Errorf("expected rate limiting keyed by client IP, got %v", limiter.keys)
	}
}

func TestRateLimitDenied(t *testing.T) {
	limiter := &fakeLimiter{result: auth.RateLimitResult{Allowed: false, RetryAfter: 7}}

	handler := middleware.RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("denied request must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "7" {
		t.Errorf("expected Retry-After 7, got %q", rec.Header().Get("Retry-After"))
	}
	var resp domain.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error != "rate_limited" || resp.RetryAfter != 7 {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}
