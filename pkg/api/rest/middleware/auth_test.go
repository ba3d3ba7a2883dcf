package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func passthrough(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	cfg := AuthConfig{Enabled: false}
	handler := AuthMiddleware(cfg)(http.HandlerFunc(passthrough))

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected request to pass through when auth disabled, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	cfg := AuthConfig{Enabled: true, JWTSecret: "secret"}
	handler := AuthMiddleware(cfg)(http.HandlerFunc(passthrough))

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing authorization header, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	cfg := AuthConfig{Enabled: true, JWTSecret: "secret"}
	handler := AuthMiddleware(cfg)(http.HandlerFunc(passthrough))

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	req.Header.Set("Authorization", "NotBearer abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed header, got %d", rec.Code)
	}
}

func TestAuthMiddleware_PublicPath(t *testing.T) {
	cfg := AuthConfig{Enabled: true, JWTSecret: "secret", PublicPaths: []string{"/v1/health"}}
	handler := AuthMiddleware(cfg)(http.HandlerFunc(passthrough))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected public path to bypass auth, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	secret := "secret"
	cfg := AuthConfig{Enabled: true, JWTSecret: secret}
	handler := AuthMiddleware(cfg)(http.HandlerFunc(passthrough))

	token, err := GenerateToken("u1", "alice", []string{"user"}, "", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected valid token to pass, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddleware_AdminPathRequiresRole(t *testing.T) {
	secret := "secret"
	cfg := AuthConfig{
		Enabled:    true,
		JWTSecret:  secret,
		AdminPaths: []string{"/v1/build"},
	}
	handler := AuthMiddleware(cfg)(http.HandlerFunc(passthrough))

	token, err := GenerateToken("u1", "alice", []string{"user"}, "", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/build", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without admin role, got %d", rec.Code)
	}

	adminToken, err := GenerateToken("u2", "bob", []string{"admin"}, "", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req2 := httptest.NewRequest(http.MethodPost, "/v1/build", nil)
	req2.Header.Set("Authorization", "Bearer "+adminToken)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusOK {
		t.Errorf("expected admin token to pass admin path, got %d", rec2.Code)
	}
}
