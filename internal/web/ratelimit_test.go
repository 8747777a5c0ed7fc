package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_PerClient(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	rejected := 0
	rl.onReject = func() { rejected++ }
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	steps := []struct {
		addr string
		want int
	}{
		{"10.0.0.1:1000", http.StatusOK},
		{"10.0.0.1:1001", http.StatusOK},
		{"10.0.0.1:1002", http.StatusTooManyRequests},
		{"10.0.0.2:1000", http.StatusOK},
	}
	for i, s := range steps {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = s.addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != s.want {
			t.Errorf("step %d (%s): status = %d, want %d", i, s.addr, rec.Code, s.want)
		}
	}
	if rejected != 1 {
		t.Errorf("onReject called %d times, want 1", rejected)
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	tests := []struct {
		n      int
		window time.Duration
		want   time.Duration
	}{
		{120, time.Minute, time.Second},
		{10, time.Minute, 6 * time.Second},
		{1, time.Minute, time.Minute},
	}
	for _, tt := range tests {
		rl := newRateLimiter(tt.n, tt.window)
		if got := rl.retryAfter(); got != tt.want {
			t.Errorf("retryAfter(%d/%s) = %s, want %s", tt.n, tt.window, got, tt.want)
		}
		rl.stop()
		rl.stop()
	}
}
