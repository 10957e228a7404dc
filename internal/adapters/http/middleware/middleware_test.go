package middleware

import (
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

// --- RateLimiter ---

// TestRateLimiterBurstDenied verifies the bucket drains and further requests
// inside the interval are denied.
func TestRateLimiterBurstDenied(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("Allow() = false for first request, want true")
	}
	if !rl.Allow("1.2.3.4") {
		t.Fatal("Allow() = false for second request, want true")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("Allow() = true for third request inside the interval, want false")
	}
}

// TestRateLimiterIsolatesClients verifies one client's burst does not drain
// another's bucket.
func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("1.2.3.4")
	if rl.Allow("1.2.3.4") {
		t.Fatal("Allow() = true after bucket drained, want false")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("Allow() = false for a fresh client, want true")
	}
}

// TestRateLimiterRefillsAfterInterval verifies tokens come back once a full
// interval has elapsed.
func TestRateLimiterRefillsAfterInterval(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("1.2.3.4")
	if rl.Allow("1.2.3.4") {
		t.Fatal("Allow() = true after bucket drained, want false")
	}

	rl.mu.Lock()
	rl.visitors["1.2.3.4"].lastSeen = time.Now().Add(-61 * time.Second)
	rl.mu.Unlock()

	if !rl.Allow("1.2.3.4") {
		t.Error("Allow() = false after a full interval elapsed, want true")
	}
}

// TestRateLimiterDenialDoesNotStallRefill verifies that denied requests do
// not advance the refill clock. A client sending steadily at sub-interval
// spacing must still earn tokens back once a full interval has passed.
func TestRateLimiterDenialDoesNotStallRefill(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("Allow() = false for first request, want true")
	}

	// Half an interval on, the client retries and is denied.
	rl.mu.Lock()
	rl.visitors["1.2.3.4"].lastSeen = time.Now().Add(-30 * time.Second)
	rl.mu.Unlock()
	if rl.Allow("1.2.3.4") {
		t.Fatal("Allow() = true inside the interval, want false")
	}

	// The denial must not have pushed the horizon: another 31 seconds of
	// steady traffic completes the interval and earns the token back.
	rl.mu.Lock()
	rl.visitors["1.2.3.4"].lastSeen = rl.visitors["1.2.3.4"].lastSeen.Add(-31 * time.Second)
	rl.mu.Unlock()
	if !rl.Allow("1.2.3.4") {
		t.Error("Allow() = false after a full interval of steady traffic, want true")
	}
}

// TestRateLimitMiddlewareReturns429 verifies the over-limit response.
func TestRateLimitMiddlewareReturns429(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	handler := RateLimit(limiter)(okHandler())

	req := httptest.NewRequest("GET", "/members", nil)
	req.RemoteAddr = "1.2.3.4:5678"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rr.Code)
	}
}

// --- SecurityHeaders ---

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(okHandler())

	req := httptest.NewRequest("GET", "/members", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	checks := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range checks {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
}

// --- CORS ---

// TestCORSSetsHeaders verifies cross-origin requests get the permissive
// headers.
func TestCORSSetsHeaders(t *testing.T) {
	handler := CORS(okHandler())

	req := httptest.NewRequest("GET", "/members", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

// TestCORSPreflight verifies OPTIONS preflight is answered without reaching
// the handler.
func TestCORSPreflight(t *testing.T) {
	reached := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest("OPTIONS", "/members", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rr.Code)
	}
	if reached {
		t.Error("preflight reached the handler, want short-circuit")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Errorf("Access-Control-Allow-Methods = %q, want DELETE included", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}

// --- CSRF ---

func csrfTestKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

// TestCSRFExemptsAPIClients verifies a POST without a token succeeds when the
// client does not negotiate HTML.
func TestCSRFExemptsAPIClients(t *testing.T) {
	handler := CSRF(csrfTestKey(), nil)(okHandler())

	req := httptest.NewRequest("POST", "/members", strings.NewReader(`{"name":"Ada"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (API clients are exempt)", rr.Code)
	}
}

// TestCSRFProtectsBrowserForms verifies a token-less POST negotiating HTML
// is rejected.
func TestCSRFProtectsBrowserForms(t *testing.T) {
	handler := CSRF(csrfTestKey(), nil)(okHandler())

	req := httptest.NewRequest("POST", "/members/a1/delete", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 (browser form without token)", rr.Code)
	}
}

// TestCSRFAllowsBrowserReads verifies HTML GETs pass through.
func TestCSRFAllowsBrowserReads(t *testing.T) {
	handler := CSRF(csrfTestKey(), nil)(okHandler())

	req := httptest.NewRequest("GET", "/members", nil)
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (safe method)", rr.Code)
	}
}
