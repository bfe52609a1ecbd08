package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func userClaims(sub string, exp time.Time) Claims {
	return Claims{
		Email: "learner@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, userClaims(userID.String(), future)),
			wantStatus: http.StatusOK,
		},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{
			name:       "wrong secret",
			header:     "Bearer " + sign(t, "another-secret-another-secret-another", jwt.SigningMethodHS256, userClaims(userID.String(), future)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, userClaims(userID.String(), time.Now().Add(-time.Minute))),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong algorithm",
			header:     "Bearer " + sign(t, testSecret, jwt.SigningMethodHS512, userClaims(userID.String(), future)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "subject not a uuid",
			header:     "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, userClaims("user-42", future)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "anonymous key",
			header: "Bearer " + sign(t, testSecret, jwt.SigningMethodHS256, Claims{
				Role:             "anon",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(future)},
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	m := NewJWTMiddleware(testSecret)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen uuid.UUID
			h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if seen != userID {
					t.Errorf("Expected user %s in context, got %s", userID, seen)
				}
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("Expected JSON error body, got %q", rec.Body.String())
			}
		})
	}
}
