package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docsign-service/internal/domain"
)

type mockAuthService struct {
	user      *domain.SupabaseUser
	err       error
	lastToken string
}

func (m *mockAuthService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	m.lastToken = token
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func mustNotCall(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("expected handler not to be called")
	})
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
		body   string
	}{
		{name: "missing header", header: "", body: "Authorization header required"},
		{name: "invalid format", header: "Token abc", body: "Invalid authorization header format"},
		{name: "empty token", header: "Bearer  ", body: "Token required"},
		{name: "invalid token", header: "Bearer abc", err: errors.New("expired"), body: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := &mockAuthService{err: tt.err}
			h := NewAuthMiddleware(authService, NewMockHandlerLogger()).Middleware(mustNotCall(t))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.body) {
				t.Fatalf("unexpected response body: %s", rr.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	authService := &mockAuthService{user: &domain.SupabaseUser{ID: "user-123"}}

	var gotUser *domain.SupabaseUser
	var gotToken string
	h := NewAuthMiddleware(authService, NewMockHandlerLogger()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserFromContext(r)
		gotToken, _ = GetTokenFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
	if authService.lastToken != "good" || gotToken != "good" {
		t.Fatalf("expected token to be forwarded, got %q / %q", authService.lastToken, gotToken)
	}
	if gotUser == nil || gotUser.ID != "user-123" {
		t.Fatalf("expected user in context, got %+v", gotUser)
	}
}

func TestSharedSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		secret string
		sent   string
		want   int
	}{
		{name: "match", secret: "s3cret", sent: "s3cret", want: http.StatusOK},
		{name: "mismatch", secret: "s3cret", sent: "guess", want: http.StatusUnauthorized},
		{name: "missing", secret: "s3cret", sent: "", want: http.StatusUnauthorized},
		{name: "unconfigured", secret: "", sent: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := SharedSecret(WebhookSecretHeader, tt.secret, NewMockHandlerLogger())(ok)
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.sent != "" {
				req.Header.Set(WebhookSecretHeader, tt.sent)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}
