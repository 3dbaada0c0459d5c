package api

import (
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"aiResume/internal/auth"
)

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	svc, err := auth.NewAuthService(hash, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func TestLogin_IssuesTokenForCorrectPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newTestAuthService(t), newFakeRateCounter(), slog.Default())

	c, w := newJSONContext(t, http.MethodPost, "/v1/auth/login",
		map[string]any{"password": "correct-horse"})
	h.Login(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["token"] == "" {
		t.Fatal("expected a session token")
	}
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(newTestAuthService(t), newFakeRateCounter(), slog.Default())

	c, w := newJSONContext(t, http.MethodPost, "/v1/auth/login",
		map[string]any{"password": "wrong"})
	h.Login(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestLogin_RateLimitsAfterFiveAttempts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	counter := newFakeRateCounter()
	h := NewAuthHandler(newTestAuthService(t), counter, slog.Default())

	for i := 0; i < loginRateLimit; i++ {
		c, w := newJSONContext(t, http.MethodPost, "/v1/auth/login",
			map[string]any{"password": "wrong"})
		h.Login(c)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401 got %d", i+1, w.Code)
		}
	}

	c, w := newJSONContext(t, http.MethodPost, "/v1/auth/login",
		map[string]any{"password": "wrong"})
	h.Login(c)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", w.Code)
	}
}

func TestLogin_AllowsWhenRateCounterUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	counter := &fakeRateCounter{err: errors.New("connection refused")}
	h := NewAuthHandler(newTestAuthService(t), counter, slog.Default())

	c, w := newJSONContext(t, http.MethodPost, "/v1/auth/login",
		map[string]any{"password": "correct-horse"})
	h.Login(c)

	if w.Code != http.StatusOK {
		t.Fatalf("rate counter outage should not block login, got %d", w.Code)
	}
}
