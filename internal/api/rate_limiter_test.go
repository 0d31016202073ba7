package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/defi-dashboard/internal/errors"
)

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 2
	s, _ := newTestServer(t, cfg)
	h := s.Handler()

	for i := 0; i < 2; i++ {
		if rec := doRequest(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected status 200, got %d", i, rec.Code)
		}
	}

	rec := doRequest(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != apperrors.CodeRateLimitExceeded {
		t.Errorf("Expected %s, got %s", apperrors.CodeRateLimitExceeded, resp.Error.Code)
	}
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	s, _ := newTestServer(t, cfg)
	h := s.Handler()

	send := func(remoteAddr, clientID string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = remoteAddr
		if clientID != "" {
			req.Header.Set("X-Client-ID", clientID)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:5555", ""); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if code := send("10.0.0.1:6666", ""); code != http.StatusTooManyRequests {
		t.Errorf("Expected 10.0.0.1 to be limited, got %d", code)
	}
	if code := send("10.0.0.1:7777", "rotated-id"); code != http.StatusTooManyRequests {
		t.Errorf("Expected a client header not to reset the limit, got %d", code)
	}
	if code := send("10.0.0.2:5555", ""); code != http.StatusOK {
		t.Errorf("Expected 10.0.0.2 to have its own limiter, got %d", code)
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.getLimiter("ip:10.0.0.1")
	rl.getLimiter("ip:10.0.0.2")
	if got := rl.size(); got != 2 {
		t.Fatalf("Expected 2 tracked clients, got %d", got)
	}

	now = now.Add(DefaultLimiterIdleTTL / 2)
	first := rl.getLimiter("ip:10.0.0.1")

	now = now.Add(DefaultLimiterIdleTTL / 2)
	if got := rl.getLimiter("ip:10.0.0.1"); got != first {
		t.Error("Expected an active client to keep its limiter")
	}
	if got := rl.size(); got != 1 {
		t.Errorf("Expected the idle client to be evicted, got %d tracked", got)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		clientID   string
		want       string
	}{
		{"ip with port", "10.0.0.1:5555", "", "ip:10.0.0.1"},
		{"same ip other port", "10.0.0.1:6666", "", "ip:10.0.0.1"},
		{"ipv6", "[::1]:8000", "", "ip:::1"},
		{"no port", "10.0.0.1", "", "ip:10.0.0.1"},
		{"client header ignored", "10.0.0.1:5555", "agent-7", "ip:10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.clientID != "" {
				req.Header.Set("X-Client-ID", tt.clientID)
			}
			if got := clientKey(req); got != tt.want {
				t.Errorf("clientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
