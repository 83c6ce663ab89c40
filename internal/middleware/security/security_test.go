package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetector_Inspect(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name      string
		method    string
		target    string
		userAgent string
		want      bool
		wantBlock bool
	}{
		{name: "forecast", method: http.MethodGet, target: "/forecast?date=2025-06-15", want: false},
		{name: "curl is fine", method: http.MethodGet, target: "/budget", userAgent: "curl/8.5.0", want: false},
		{name: "dotenv probe", method: http.MethodGet, target: "/.env", want: true, wantBlock: true},
		{name: "traversal in query", method: http.MethodGet, target: "/forecast?date=../../etc/passwd", want: true, wantBlock: true},
		{name: "trace method", method: "TRACE", target: "/health", want: true, wantBlock: true},
		{name: "scanner agent", method: http.MethodGet, target: "/health", userAgent: "sqlmap/1.7", want: true},
		{name: "oversized url", method: http.MethodGet, target: "/forecast?x=" + strings.Repeat("a", 2100), want: true, wantBlock: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.userAgent != "" {
				r.Header.Set("User-Agent", tt.userAgent)
			}
			finding, got := d.Inspect(r)
			if got != tt.want || finding.Block != tt.wantBlock {
				t.Fatalf("Inspect = %+v, %v; want suspicious=%v block=%v", finding, got, tt.want, tt.wantBlock)
			}
		})
	}
}

func TestDetector_Middleware(t *testing.T) {
	d := NewDetector()
	reached := 0
	h := d.Middleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
	}))

	for _, target := range []string{"/health", "/wp-admin/setup.php"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	scan := httptest.NewRequest(http.MethodGet, "/health", nil)
	scan.Header.Set("User-Agent", "Nikto")
	h.ServeHTTP(httptest.NewRecorder(), scan)

	if reached != 2 {
		t.Fatalf("expected the clean and the logged-only request to pass, reached=%d", reached)
	}
	m := d.GetMetrics()
	if m.SuspiciousRequests != 2 || m.BlockedRequests != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{name: "direct", remote: "203.0.113.7:5555", want: "203.0.113.7"},
		{name: "untrusted proxy ignored", remote: "203.0.113.7:5555", xff: "198.51.100.1", want: "203.0.113.7"},
		{name: "trusted proxy xff", remote: "10.0.0.2:80", xff: "198.51.100.1, 10.0.0.2", want: "198.51.100.1"},
		{name: "trusted proxy real ip", remote: "127.0.0.1:80", xri: "198.51.100.9", want: "198.51.100.9"},
		{name: "garbage xff", remote: "10.0.0.2:80", xff: "not-an-ip", want: "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
	if err := d.AddTrustedProxy("nope"); err == nil {
		t.Fatal("expected invalid CIDR error")
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forecast", nil))

	for name, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}
}

func TestCORS(t *testing.T) {
	c := NewCORS(CORSConfig{AllowedOrigins: []string{"http://localhost:5173/"}})
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed simple request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/forecast", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Fatalf("missing allow origin: %v", rec.Header())
		}
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/budget", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusNoContent || !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
		}
	})

	t.Run("other origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/budget", nil)
		r.Header.Set("Origin", "https://evil.example")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusForbidden || rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Fatalf("foreign preflight should be refused: %d %v", rec.Code, rec.Header())
		}
	})

	t.Run("wildcard", func(t *testing.T) {
		any := NewCORS(CORSConfig{AllowedOrigins: []string{"*"}})
		if !any.Allowed("https://anything.example") || any.Allowed("") {
			t.Fatal("wildcard should allow every non-empty origin")
		}
	})
}
