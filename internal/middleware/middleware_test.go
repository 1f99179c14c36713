package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestAuthJWT(t *testing.T) {
	const secret = "s3cret"
	var seen *TokenClaims
	h := AuthJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
	}))

	valid, _ := SignJWT(secret, TokenClaims{Sub: "trainer-1", Exp: time.Now().Add(time.Hour).Unix()})
	expired, _ := SignJWT(secret, TokenClaims{Sub: "trainer-1", Exp: time.Now().Add(-time.Hour).Unix()})
	forged, _ := SignJWT("other", TokenClaims{Sub: "trainer-1"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"forged", "Bearer " + forged, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("code = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && (seen == nil || seen.Sub != "trainer-1") {
				t.Fatalf("claims = %+v", seen)
			}
		})
	}
}

func TestMayActFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !MayActFor(req.Context(), "anyone") {
		t.Fatalf("unauthenticated context should allow")
	}
	ctx := ContextWithClaims(req.Context(), &TokenClaims{Sub: "trainer-1"})
	if !MayActFor(ctx, "trainer-1") || MayActFor(ctx, "trainer-2") {
		t.Fatalf("trainer token scope wrong")
	}
	svc := ContextWithClaims(req.Context(), &TokenClaims{Sub: "scheduler", Role: RoleService})
	if !MayActFor(svc, "trainer-2") {
		t.Fatalf("service token should act for any trainer")
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://studio.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	pre := httptest.NewRequest(http.MethodOptions, "/v1/content/avatar-video", nil)
	pre.Header.Set("Origin", "https://studio.example.com")
	pre.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pre)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://studio.example.com" {
		t.Fatalf("preflight = %d %v", rec.Code, rec.Header())
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" || rec.Code != http.StatusTeapot {
		t.Fatalf("disallowed origin got CORS headers: %v", rec.Header())
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	var ctxLogged bool
	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		ctxLogged = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/content/avatar-video", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-123" || !ctxLogged {
		t.Fatalf("request id header = %q", rec.Header().Get("X-Request-ID"))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d: %s", len(lines), buf.String())
	}
	var access map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &access); err != nil {
		t.Fatalf("decode access log: %v", err)
	}
	if access["request_id"] != "req-123" || access["status"] != float64(http.StatusAccepted) || access["bytes"] != float64(2) {
		t.Fatalf("access log = %v", access)
	}
	if !strings.Contains(lines[0], `"request_id":"req-123"`) {
		t.Fatalf("handler log missing request id: %s", lines[0])
	}
}

func TestRequestIDReplacesMalformedInboundID(t *testing.T) {
	tests := []string{"", "two words", "line\nbreak", strings.Repeat("a", 129)}
	for _, inbound := range tests {
		var got string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, inbound)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got == inbound || uuid.Validate(got) != nil {
			t.Fatalf("inbound %q kept as %q", inbound, got)
		}
		if rec.Header().Get(RequestIDHeader) != got {
			t.Fatalf("header = %q, context = %q", rec.Header().Get(RequestIDHeader), got)
		}
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got == "" || rec.Header().Get("X-Request-ID") != got {
		t.Fatalf("generated id = %q, header = %q", got, rec.Header().Get("X-Request-ID"))
	}
}
