// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_Authenticate(t *testing.T) {
	jwtManager := testJWTManager(t)
	validToken, _ := jwtManager.GenerateToken(3, "ana", RoleUser)

	tests := []struct {
		name         string
		authMode     string
		authHeader   string
		cookie       *http.Cookie
		wantStatus   int
		wantCalled   bool
		wantUsername string
	}{
		{
			name:       "auth mode none passes",
			authMode:   "none",
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "missing token returns 401",
			authMode:   "jwt",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:         "valid bearer header",
			authMode:     "jwt",
			authHeader:   "Bearer " + validToken,
			wantStatus:   http.StatusOK,
			wantCalled:   true,
			wantUsername: "ana",
		},
		{
			name:         "scheme is case-insensitive",
			authMode:     "jwt",
			authHeader:   "bearer " + validToken,
			wantStatus:   http.StatusOK,
			wantCalled:   true,
			wantUsername: "ana",
		},
		{
			name:         "valid token cookie",
			authMode:     "jwt",
			cookie:       &http.Cookie{Name: "token", Value: validToken},
			wantStatus:   http.StatusOK,
			wantCalled:   true,
			wantUsername: "ana",
		},
		{
			name:       "basic scheme rejected",
			authMode:   "jwt",
			authHeader: "Basic YWRtaW46cGFzcw==",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token rejected",
			authMode:   "jwt",
			authHeader: "Bearer invalid.jwt.token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMiddleware(jwtManager, tt.authMode, nil)

			called := false
			var username string
			handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if claims, ok := ClaimsFromContext(r.Context()); ok {
					username = claims.Username
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/points", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if username != tt.wantUsername {
				t.Errorf("username = %q, want %q", username, tt.wantUsername)
			}
		})
	}
}

func TestMiddleware_CustomErrorWriter(t *testing.T) {
	var gotStatus int
	var gotMessage string
	m := NewMiddleware(testJWTManager(t), "jwt", func(w http.ResponseWriter, _ *http.Request, status int, message string) {
		gotStatus, gotMessage = status, message
		w.WriteHeader(status)
	})

	w := httptest.NewRecorder()
	m.Authenticate(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if gotStatus != http.StatusUnauthorized || gotMessage == "" {
		t.Errorf("error writer got (%d, %q)", gotStatus, gotMessage)
	}
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	jwtManager := testJWTManager(t)
	userToken, _ := jwtManager.GenerateToken(2, "ana", RoleUser)
	adminToken, _ := jwtManager.GenerateToken(1, "admin", RoleAdmin)

	m := NewMiddleware(jwtManager, "jwt", nil)
	handler := m.Authenticate(m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"admin passes", adminToken, http.StatusNoContent},
		{"user forbidden", userToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set on plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS expected behind https proxy")
	}
}
