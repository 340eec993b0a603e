package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/security/auth"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type verifierFunc func(ctx context.Context, token string) (*auth.Claims, error)

func (f verifierFunc) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	return f(ctx, token)
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := IdentityFromContext(r.Context()); id != nil {
			_, _ = io.WriteString(w, id.Username)
			return
		}
		_, _ = io.WriteString(w, "anonymous")
	})
}

func TestJWTMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "test", time.Hour)
	token, _, err := tokens.GenerateToken(&domain.Identity{UserID: 7, Username: "alice"})
	require.NoError(t, err)

	verifier := verifierFunc(func(_ context.Context, raw string) (*auth.Claims, error) {
		if raw == "revoked" {
			return nil, domain.UnauthenticatedError("token has been revoked")
		}
		if raw == "broken" {
			return nil, domain.UnexpectedError("failed to verify token", io.ErrUnexpectedEOF)
		}
		return tokens.ValidateToken(raw)
	})
	public := []PublicRoute{{Method: http.MethodPost, Path: "/api/issues"}, {Path: "/healthz"}}
	handler := JWTMiddleware(verifier, public, quiet)(echoIdentity())

	tests := []struct {
		name   string
		method string
		path   string
		header string
		status int
		body   string
	}{
		{"public intake", http.MethodPost, "/api/issues", "", http.StatusOK, "anonymous"},
		{"public any method", http.MethodGet, "/healthz", "", http.StatusOK, "anonymous"},
		{"listing needs token", http.MethodGet, "/api/issues", "", http.StatusUnauthorized, "missing auth"},
		{"wrong scheme", http.MethodGet, "/api/teams", "Basic abc", http.StatusUnauthorized, "invalid auth"},
		{"revoked", http.MethodGet, "/api/teams", "Bearer revoked", http.StatusUnauthorized, "token has been revoked"},
		{"store failure", http.MethodGet, "/api/teams", "Bearer broken", http.StatusInternalServerError, "internal server error"},
		{"valid", http.MethodGet, "/api/teams", "Bearer " + token, http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := CORS([]string{"https://dash.example.com"}, []string{"/api/issues"})(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/issues", nil)
	req.Header.Set("Origin", "https://customer.example.org")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestValidateJSONSchema(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["report"],
		"properties": {"report": {"type": "object"}}
	}`
	mw, err := ValidateJSONSchema(schema, quiet)
	require.NoError(t, err)

	var body string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/issues", strings.NewReader(`{"report":{}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"report":{}}`, body, "body is replayed to the handler")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/issues", strings.NewReader(`{"report":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "report")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/issues", bytes.NewBufferString(`{nope`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")

	_, err = ValidateJSONSchema(`{"type": 12}`, quiet)
	assert.Error(t, err)
}

func TestValidateJSONContentType(t *testing.T) {
	handler := ValidateJSONContentType(quiet, "/api/issues")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/api/sites", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/sites", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/issues", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "widget posts may use text/plain")

	req = httptest.NewRequest(http.MethodPost, "/api/sites", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSanitizeInputs(t *testing.T) {
	handler := SanitizeInputs(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sites?team_id=%3Cscript%3E", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sites?team_id=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	admins := RequireAdmin([]int64{1}, quiet)(echoIdentity())
	withClaims := func(userID int64) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		claims := &auth.Claims{UserID: userID, Username: "user"}
		return req.WithContext(context.WithValue(req.Context(), ClaimsContextKey{}, claims))
	}

	rec := httptest.NewRecorder()
	admins.ServeHTTP(rec, withClaims(1))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	admins.ServeHTTP(rec, withClaims(2))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	admins.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	nobody := RequireAdmin(nil, quiet)(echoIdentity())
	rec = httptest.NewRecorder()
	nobody.ServeHTTP(rec, withClaims(1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
