package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clarity-platform/peer-relay/internal/auth"
)

const testSecret = "middleware-test-secret"

func TestMiddleware(t *testing.T) {
	userID := uuid.NewString()

	validToken, err := auth.MakeJWT(userID, testSecret, 5*time.Minute)
	if err != nil {
		t.Fatalf("MakeJWT() error = %+v", err)
	}

	expiredToken, err := auth.MakeJWT(userID, testSecret, -1*time.Second)
	if err != nil {
		t.Fatalf("MakeJWT() error = %+v", err)
	}

	tests := []struct {
		name              string
		header            string
		query             string
		wantHandlerCalled bool
		wantCode          int
	}{
		{"valid_bearer_header", "Bearer " + validToken, "", true, http.StatusOK},
		{"valid_query_token", "", validToken, true, http.StatusOK},
		{"header_wins_over_query", "Bearer " + validToken, "garbage", true, http.StatusOK},
		{"expired_token", "Bearer " + expiredToken, "", false, http.StatusUnauthorized},
		{"garbage_token", "Bearer garbage", "", false, http.StatusUnauthorized},
		{"missing_token", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			isHandlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				isHandlerCalled = true

				gotUserID, err := auth.GetUserFromContext(r.Context())
				if err != nil {
					t.Errorf("GetUserFromContext() error = %+v", err)
				}
				if gotUserID != userID {
					t.Errorf("want userID %s, got %s", userID, gotUserID)
				}

				w.WriteHeader(http.StatusOK)
			})

			handler := Middleware(nextHandler, testSecret, nil)
			handler.ServeHTTP(rec, req)

			if isHandlerCalled != tt.wantHandlerCalled {
				t.Errorf("handler called = %v, want %v", isHandlerCalled, tt.wantHandlerCalled)
			}

			if rec.Code != tt.wantCode {
				t.Errorf("want %d, got %d", tt.wantCode, rec.Code)
			}

			if tt.wantCode == http.StatusUnauthorized && rec.Body.Len() != 0 {
				t.Errorf("rejection must carry no payload, got %q", rec.Body.String())
			}
		})
	}
}
