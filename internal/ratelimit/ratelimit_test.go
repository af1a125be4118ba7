package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"society-shield/backend/internal/httpx"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	r.RemoteAddr = ip + ":43210"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestNewLoginLimiter_PerClientIP(t *testing.T) {
	mw, err := NewLoginLimiter(Config{Rate: "2-M"})
	if err != nil {
		t.Fatal(err)
	}
	h := mw(okHandler())

	for i := 0; i < 2; i++ {
		if rec := hit(h, "203.0.113.7"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := hit(h, "203.0.113.7")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	var body httpx.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Message != LimitedMessage || body.Error != httpx.CodeTooManyRequests {
		t.Errorf("body = %+v", body)
	}

	if rec := hit(h, "198.51.100.9"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestNewLoginLimiter_Disabled(t *testing.T) {
	mw, err := NewLoginLimiter(Config{Rate: "  "})
	if err != nil {
		t.Fatal(err)
	}
	h := mw(okHandler())
	for i := 0; i < 50; i++ {
		if rec := hit(h, "203.0.113.7"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
}

func TestNewLoginLimiter_InvalidRate(t *testing.T) {
	if _, err := NewLoginLimiter(Config{Rate: "ten-per-minute"}); err == nil {
		t.Error("invalid rate should fail")
	}
}

func TestParseRedisURL(t *testing.T) {
	c, err := ParseRedisURL("")
	if err != nil || c != nil {
		t.Errorf("empty URL = %v, %v", c, err)
	}
	c, err = ParseRedisURL("redis://localhost:6379/2")
	if err != nil || c == nil {
		t.Fatalf("ParseRedisURL = %v, %v", c, err)
	}
	_ = c.Close()
	if _, err := ParseRedisURL("http://not-redis"); err == nil {
		t.Error("non-redis scheme should fail")
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[2001:db8::1]:443"
	if got := clientKey(r); got != "2001:db8::1" {
		t.Errorf("clientKey = %q", got)
	}
	r.RemoteAddr = "10.0.0.1"
	if got := clientKey(r); got != "10.0.0.1" {
		t.Errorf("clientKey without port = %q", got)
	}
}
